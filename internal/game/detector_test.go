package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lakitu0/lakitu/internal/log"
	"github.com/lakitu0/lakitu/internal/screenshot"
)

type fakeScreenshots struct {
	shots []screenshot.Metadata
	err   error
	calls int
}

func (f *fakeScreenshots) Recent(context.Context, screenshot.Filter) ([]screenshot.Metadata, error) {
	f.calls++
	return f.shots, f.err
}

func noProcesses(context.Context) ([]string, error) { return nil, nil }

func TestDetect_FromMessage(t *testing.T) {
	d := NewDetector(&fakeScreenshots{}, log.NewNop(), WithProcessLister(noProcesses))

	tests := []struct {
		message string
		want    string
	}{
		{"how do I beat margit in elden ring", "elden_ring"},
		{"best redstone setup in Minecraft?", "minecraft"},
		{"any ds3 tips for the dancer fight", "dark_souls_3"},
		{"what's the weather like", ""},
	}
	for _, tt := range tests {
		d.ClearCache()
		if got := d.Detect(context.Background(), tt.message); got != tt.want {
			t.Errorf("Detect(%q) = %q, want %q", tt.message, got, tt.want)
		}
	}
}

func TestDetect_FromProcesses(t *testing.T) {
	lister := func(context.Context) ([]string, error) {
		return []string{"systemd", "EldenRing.exe", "chrome"}, nil
	}
	d := NewDetector(&fakeScreenshots{}, log.NewNop(), WithProcessLister(lister))

	if got := d.Detect(context.Background(), ""); got != "elden_ring" {
		t.Errorf("Detect() = %q, want elden_ring", got)
	}
}

func TestDetect_FromScreenshots(t *testing.T) {
	shots := &fakeScreenshots{shots: []screenshot.Metadata{
		{Application: "chrome", WindowTitle: "news"},
		{Application: "javaw", WindowTitle: "Minecraft: Java Edition 1.21"},
	}}
	d := NewDetector(shots, log.NewNop(), WithProcessLister(noProcesses))

	if got := d.Detect(context.Background(), ""); got != "minecraft" {
		t.Errorf("Detect() = %q, want minecraft", got)
	}
}

func TestDetect_MessageBeatsProcess(t *testing.T) {
	lister := func(context.Context) ([]string, error) {
		return []string{"minecraft.exe"}, nil
	}
	d := NewDetector(&fakeScreenshots{}, log.NewNop(), WithProcessLister(lister))

	if got := d.Detect(context.Background(), "elden ring build advice"); got != "elden_ring" {
		t.Errorf("Detect() = %q, want elden_ring", got)
	}
}

func TestDetect_Cache(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	shots := &fakeScreenshots{}
	calls := 0
	lister := func(context.Context) ([]string, error) {
		calls++
		return []string{"eldenring.exe"}, nil
	}
	d := NewDetector(shots, log.NewNop(), WithProcessLister(lister), WithClock(clock))

	d.Detect(context.Background(), "")
	d.Detect(context.Background(), "")
	if calls != 1 {
		t.Errorf("process scan ran %d times within cache window, want 1", calls)
	}

	now = now.Add(cacheDuration + time.Second)
	d.Detect(context.Background(), "")
	if calls != 2 {
		t.Errorf("process scan ran %d times after cache expiry, want 2", calls)
	}
}

func TestDetect_CachesNegativeResult(t *testing.T) {
	shots := &fakeScreenshots{}
	d := NewDetector(shots, log.NewNop(), WithProcessLister(noProcesses))

	d.Detect(context.Background(), "")
	d.Detect(context.Background(), "")
	if shots.calls != 1 {
		t.Errorf("screenshot lookup ran %d times, want 1", shots.calls)
	}
}

func TestDetect_ProcessScanError(t *testing.T) {
	lister := func(context.Context) ([]string, error) {
		return nil, errors.New("permission denied")
	}
	shots := &fakeScreenshots{shots: []screenshot.Metadata{
		{Application: "eldenring.exe"},
	}}
	d := NewDetector(shots, log.NewNop(), WithProcessLister(lister))

	if got := d.Detect(context.Background(), ""); got != "elden_ring" {
		t.Errorf("Detect() = %q, want fallback to screenshots", got)
	}
}

func TestAddMapping(t *testing.T) {
	d := NewDetector(&fakeScreenshots{}, log.NewNop(), WithProcessLister(noProcesses))

	err := d.AddMapping("hollow_knight", Mapping{
		Processes: []string{"hollow_knight.exe"},
		Keywords:  []string{"hollow knight", "hallownest"},
	})
	if err != nil {
		t.Fatalf("AddMapping(): %v", err)
	}

	d.ClearCache()
	if got := d.Detect(context.Background(), "how to reach hallownest's crown"); got != "hollow_knight" {
		t.Errorf("Detect() = %q, want hollow_knight", got)
	}

	if err := d.AddMapping("", Mapping{Keywords: []string{"x"}}); err == nil {
		t.Error("AddMapping() with empty name expected error")
	}
	if err := d.AddMapping("empty", Mapping{}); err == nil {
		t.Error("AddMapping() with no rules expected error")
	}
}

func TestGames(t *testing.T) {
	d := NewDetector(&fakeScreenshots{}, log.NewNop(), WithProcessLister(noProcesses))

	games := d.Games()
	if len(games) != 3 {
		t.Errorf("got %d games, want 3 defaults: %v", len(games), games)
	}
}
