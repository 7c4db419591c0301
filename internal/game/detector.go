// Package game identifies which game the user is playing, combining
// message keywords, running processes and recent screenshot metadata.
package game

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/lakitu0/lakitu/internal/log"
	"github.com/lakitu0/lakitu/internal/screenshot"
)

const (
	cacheDuration   = 30 * time.Second
	screenshotLimit = 5
)

// Mapping describes how a game shows up on the machine.
type Mapping struct {
	Processes    []string `json:"processes"`
	Keywords     []string `json:"keywords"`
	WindowTitles []string `json:"window_titles"`
}

// defaultMappings covers the games shipped out of the box. More can be
// registered at runtime with AddMapping.
func defaultMappings() map[string]Mapping {
	return map[string]Mapping{
		"minecraft": {
			Processes:    []string{"minecraft.exe"},
			Keywords:     []string{"minecraft", "mc", "mojang"},
			WindowTitles: []string{"minecraft", "minecraft launcher", "minecraft: java edition"},
		},
		"elden_ring": {
			Processes:    []string{"eldenring.exe", "elden ring.exe"},
			Keywords:     []string{"elden ring", "eldenring", "fromsoftware"},
			WindowTitles: []string{"elden ring", "eldenring"},
		},
		"dark_souls_3": {
			Processes:    []string{"darksouls3.exe", "dark souls iii.exe"},
			Keywords:     []string{"dark souls 3", "darksouls3", "ds3"},
			WindowTitles: []string{"dark souls iii", "darksouls3"},
		},
	}
}

// ProcessLister returns the names of running processes.
type ProcessLister func(ctx context.Context) ([]string, error)

// ScreenshotLister returns recent screenshot metadata.
type ScreenshotLister interface {
	Recent(ctx context.Context, filter screenshot.Filter) ([]screenshot.Metadata, error)
}

// Detector resolves the current game. Detection order: explicit message
// keywords, then running processes, then recent screenshot metadata.
// Results are cached briefly since process scans are not free.
type Detector struct {
	processes   ProcessLister
	screenshots ScreenshotLister
	logger      log.Logger
	now         func() time.Time

	mu         sync.Mutex
	mappings   map[string]Mapping
	cached     string
	cachedAt   time.Time
	cacheValid bool
}

// Option configures a Detector.
type Option func(*Detector)

// WithProcessLister replaces the system process scan.
func WithProcessLister(fn ProcessLister) Option {
	return func(d *Detector) { d.processes = fn }
}

// WithClock replaces the cache clock.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

func NewDetector(screenshots ScreenshotLister, logger log.Logger, opts ...Option) *Detector {
	d := &Detector{
		processes:   systemProcesses,
		screenshots: screenshots,
		logger:      logger,
		now:         time.Now,
		mappings:    defaultMappings(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns the current game name, or "" when no game is found.
// message may be empty.
func (d *Detector) Detect(ctx context.Context, message string) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cacheValid && d.now().Sub(d.cachedAt) < cacheDuration {
		return d.cached
	}

	game := d.detect(ctx, message)
	d.cached = game
	d.cachedAt = d.now()
	d.cacheValid = true
	if game != "" {
		d.logger.Debug("game detected", "game", game)
	}
	return game
}

func (d *Detector) detect(ctx context.Context, message string) string {
	if message != "" {
		if game := d.fromMessage(message); game != "" {
			return game
		}
	}
	if game := d.fromProcesses(ctx); game != "" {
		return game
	}
	return d.fromScreenshots(ctx)
}

// FromMessage matches game keywords in a user message without touching
// the cache or the process table.
func (d *Detector) FromMessage(message string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fromMessage(message)
}

func (d *Detector) fromMessage(message string) string {
	lower := strings.ToLower(message)
	for name, mapping := range d.mappings {
		for _, keyword := range mapping.Keywords {
			if strings.Contains(lower, keyword) {
				return name
			}
		}
	}
	return ""
}

func (d *Detector) fromProcesses(ctx context.Context) string {
	names, err := d.processes(ctx)
	if err != nil {
		d.logger.Warn("process scan failed", "error", err)
		return ""
	}
	running := make(map[string]bool, len(names))
	for _, name := range names {
		running[strings.ToLower(name)] = true
	}
	for game, mapping := range d.mappings {
		for _, proc := range mapping.Processes {
			if running[strings.ToLower(proc)] {
				return game
			}
		}
	}
	return ""
}

func (d *Detector) fromScreenshots(ctx context.Context) string {
	if d.screenshots == nil {
		return ""
	}
	shots, err := d.screenshots.Recent(ctx, screenshot.Filter{Limit: screenshotLimit})
	if err != nil {
		d.logger.Warn("screenshot lookup failed", "error", err)
		return ""
	}
	for _, shot := range shots {
		app := strings.ToLower(shot.Application)
		title := strings.ToLower(shot.WindowTitle)
		for game, mapping := range d.mappings {
			for _, keyword := range mapping.Keywords {
				if strings.Contains(app, keyword) || strings.Contains(title, keyword) {
					return game
				}
			}
		}
	}
	return ""
}

// AddMapping registers detection rules for a new game.
func (d *Detector) AddMapping(name string, mapping Mapping) error {
	if name == "" {
		return fmt.Errorf("game: empty mapping name")
	}
	if len(mapping.Processes) == 0 && len(mapping.Keywords) == 0 {
		return fmt.Errorf("game: mapping %q needs processes or keywords", name)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mappings[name] = mapping
	return nil
}

// Games lists the names of all registered mappings.
func (d *Detector) Games() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, 0, len(d.mappings))
	for name := range d.mappings {
		names = append(names, name)
	}
	return names
}

// ClearCache drops the cached detection result.
func (d *Detector) ClearCache() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cacheValid = false
	d.cached = ""
}

func systemProcesses(ctx context.Context) ([]string, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}
