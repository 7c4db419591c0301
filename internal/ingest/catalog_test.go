package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lakitu0/lakitu/internal/knowledge"
)

func writeCatalog(t *testing.T, dir, game, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, game+".csv"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "elden_ring",
		"wiki,wiki_desc,youtube,yt_desc,forum,forum_desc\n"+
			"https://wiki.example/Margit,Margit boss guide,https://youtube.example/watch?v=abc,Margit no-hit run walkthrough,https://forum.example/t/123,Margit cheese strategies\n"+
			",,https://youtube.example/watch?v=def,Stormveil Castle full route,,\n")

	catalog, err := LoadCatalog(dir, "elden_ring")
	if err != nil {
		t.Fatalf("LoadCatalog(): %v", err)
	}

	if catalog.Game != "elden_ring" {
		t.Errorf("game = %q", catalog.Game)
	}
	if len(catalog.Sources) != 4 {
		t.Fatalf("got %d sources, want 4", len(catalog.Sources))
	}

	byType := map[string]int{}
	for _, src := range catalog.Sources {
		byType[src.SourceType]++
	}
	if byType[knowledge.SourceTypeWiki] != 1 ||
		byType[knowledge.SourceTypeYouTube] != 2 ||
		byType[knowledge.SourceTypeForum] != 1 {
		t.Errorf("source type counts = %v", byType)
	}

	first := catalog.Sources[0]
	if first.URL != "https://wiki.example/Margit" || first.Description != "Margit boss guide" {
		t.Errorf("first source = %+v", first)
	}
}

func TestLoadCatalog_NotFound(t *testing.T) {
	_, err := LoadCatalog(t.TempDir(), "minecraft")
	if !errors.Is(err, ErrCatalogNotFound) {
		t.Errorf("error = %v, want ErrCatalogNotFound", err)
	}
}

func TestLoadCatalog_BadHeader(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "minecraft",
		"url,desc,youtube,yt_desc,forum,forum_desc\nhttps://a.example,x,,,,\n")

	_, err := LoadCatalog(dir, "minecraft")
	if !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("error = %v, want ErrInvalidHeader", err)
	}
}

func TestLoadCatalog_Empty(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "minecraft",
		"wiki,wiki_desc,youtube,yt_desc,forum,forum_desc\n,,,,,\n")

	_, err := LoadCatalog(dir, "minecraft")
	if !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("error = %v, want ErrEmptyCatalog", err)
	}
}

func TestLoadCatalog_InvalidURL(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "minecraft",
		"wiki,wiki_desc,youtube,yt_desc,forum,forum_desc\n"+
			"ftp://wiki.example/page,desc,,,,\n")

	if _, err := LoadCatalog(dir, "minecraft"); err == nil {
		t.Error("expected error for non-http url")
	}
}
