package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lakitu0/lakitu/internal/knowledge"
	"github.com/lakitu0/lakitu/internal/log"
)

type captureAdder struct {
	docs   []knowledge.Document
	addErr error
}

func (a *captureAdder) Add(_ context.Context, doc knowledge.Document) error {
	if a.addErr != nil {
		return a.addErr
	}
	a.docs = append(a.docs, doc)
	return nil
}

func testFetcher(t *testing.T) *Fetcher {
	t.Helper()
	f, err := NewFetcher(FetchConfig{Delay: time.Millisecond, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestProcessGame(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, wikiPage)
	}))
	defer srv.Close()

	dir := t.TempDir()
	writeCatalog(t, dir, "elden_ring",
		"wiki,wiki_desc,youtube,yt_desc,forum,forum_desc\n"+
			srv.URL+"/Margit,Margit boss guide,"+
			"https://youtube.example/watch?v=abc,"+
			"Full Margit walkthrough covering both phases with melee and magic builds,"+
			",\n")

	adder := &captureAdder{}
	p := NewPipeline(dir, testFetcher(t), adder, log.NewNop())

	result, err := p.ProcessGame(context.Background(), "elden_ring")
	if err != nil {
		t.Fatalf("ProcessGame(): %v", err)
	}

	if result.Sources != 2 || result.Processed != 2 || result.Skipped != 0 {
		t.Errorf("result = %+v", result)
	}
	if len(adder.docs) == 0 {
		t.Fatal("no documents stored")
	}

	var sawWiki, sawYouTube bool
	for _, doc := range adder.docs {
		if doc.Game != "elden_ring" {
			t.Errorf("doc game = %q", doc.Game)
		}
		switch doc.SourceType {
		case knowledge.SourceTypeWiki:
			sawWiki = true
			if !strings.Contains(doc.Content, "Stormveil") {
				t.Errorf("wiki chunk = %q", doc.Content)
			}
		case knowledge.SourceTypeYouTube:
			sawYouTube = true
			if !strings.Contains(doc.Content, "walkthrough") {
				t.Errorf("youtube chunk should carry the description, got %q", doc.Content)
			}
		}
	}
	if !sawWiki || !sawYouTube {
		t.Errorf("missing source types: wiki=%v youtube=%v", sawWiki, sawYouTube)
	}
}

func TestProcessGame_SkipsFailedSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dir := t.TempDir()
	writeCatalog(t, dir, "minecraft",
		"wiki,wiki_desc,youtube,yt_desc,forum,forum_desc\n"+
			srv.URL+"/gone,dead page,"+
			"https://youtube.example/watch?v=xyz,"+
			"Redstone basics from levers to full piston doors explained step by step,"+
			",\n")

	adder := &captureAdder{}
	p := NewPipeline(dir, testFetcher(t), adder, log.NewNop())

	result, err := p.ProcessGame(context.Background(), "minecraft")
	if err != nil {
		t.Fatalf("ProcessGame(): %v", err)
	}

	if result.Skipped != 1 || result.Processed != 1 {
		t.Errorf("result = %+v", result)
	}
	if len(result.Errors) != 1 {
		t.Errorf("errors = %v", result.Errors)
	}
}

func TestProcessGame_MissingCatalog(t *testing.T) {
	p := NewPipeline(t.TempDir(), testFetcher(t), &captureAdder{}, log.NewNop())

	if _, err := p.ProcessGame(context.Background(), "unknown"); err == nil {
		t.Error("expected error for missing catalog")
	}
}

func TestDocumentID_Stable(t *testing.T) {
	a := documentID("elden_ring", "wiki", "https://wiki.example/Margit", 0)
	b := documentID("elden_ring", "wiki", "https://wiki.example/Margit", 0)
	if a != b {
		t.Errorf("ids differ: %q vs %q", a, b)
	}

	c := documentID("elden_ring", "wiki", "https://wiki.example/Godrick", 0)
	if a == c {
		t.Error("different urls produced the same id")
	}

	if !strings.HasPrefix(a, "elden_ring_wiki_") {
		t.Errorf("id = %q", a)
	}
}
