package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/lakitu0/lakitu/internal/knowledge"
)

// minContentLength is the shortest extracted text worth keeping. Pages
// yielding less are skipped as navigation shells or error pages.
const minContentLength = 50

var ErrContentTooShort = errors.New("ingest: extracted content too short")

// Content selectors tried in order when readability fails to find the
// article body. Wiki engines and forum software mark up their main
// content differently.
var (
	wikiSelectors = []string{
		"div.mw-content-ltr",
		"div.content",
		"div.main-content",
		"article",
		"div#content",
		"div#mw-content-text",
	}
	forumSelectors = []string{
		"div.post-content",
		"div.entry-content",
		"div.content",
		"div.post",
		"article",
	}
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	boilerplateRe = regexp.MustCompile(`(?i)(Advertisement|Cookie\s*Policy|Privacy\s*Policy|Terms\s*of\s*Service)\s*`)
	breadcrumbRe  = regexp.MustCompile(`(Home\s*>|You are here:)\s*.*?>\s*`)
)

// Page is the extracted content of a fetched source.
type Page struct {
	Title   string
	Content string
}

// Extract pulls the main text out of a fetched HTML page. The page is
// parsed once; readability's article extraction runs against the parsed
// tree first, with source-type specific CSS selectors as fallback for
// pages readability cannot handle.
func Extract(sourceType, pageURL string, raw []byte) (*Page, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", pageURL, err)
	}

	root, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title, content := extractReadable(root, parsed)
	if utf8.RuneCountInString(content) < minContentLength {
		fallbackTitle, fallbackContent := extractSelectors(sourceType, root)
		if title == "" {
			title = fallbackTitle
		}
		content = fallbackContent
	}

	content = Cleanup(content)
	if utf8.RuneCountInString(content) < minContentLength {
		return nil, fmt.Errorf("%w: %s", ErrContentTooShort, pageURL)
	}
	return &Page{Title: title, Content: content}, nil
}

func extractReadable(root *html.Node, pageURL *url.URL) (title, content string) {
	article, err := readability.FromDocument(root, pageURL)
	if err != nil {
		return "", ""
	}
	return article.Title, article.TextContent
}

func extractSelectors(sourceType string, root *html.Node) (title, content string) {
	doc := goquery.NewDocumentFromNode(root)

	title = strings.TrimSpace(doc.Find("title").First().Text())

	selectors := wikiSelectors
	if sourceType == knowledge.SourceTypeForum {
		selectors = forumSelectors
	}
	for _, sel := range selectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return title, text
		}
	}

	// Last resort: the whole body.
	return title, strings.TrimSpace(doc.Find("body").Text())
}

// Cleanup normalizes extracted text: collapses whitespace and strips
// boilerplate phrases and breadcrumb trails left behind by extraction.
func Cleanup(text string) string {
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = boilerplateRe.ReplaceAllString(text, "")
	text = breadcrumbRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
