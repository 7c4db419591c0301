package screenshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/lakitu0/lakitu/internal/log"
)

var ErrAlreadyRunning = errors.New("screenshot: capture service already running")

// WindowInfoFunc resolves the foreground window for a capture.
type WindowInfoFunc func(ctx context.Context) WindowInfo

// Service captures the screen on a fixed interval and stores the
// result. A file lock guarantees a single capture daemon per machine.
type Service struct {
	store    *Store
	capturer Capturer
	windowFn WindowInfoFunc
	interval time.Duration
	lock     *flock.Flock
	logger   log.Logger

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	running bool
}

func NewService(store *Store, capturer Capturer, windowFn WindowInfoFunc, interval time.Duration, lockPath string, logger log.Logger) *Service {
	if windowFn == nil {
		windowFn = ActiveWindow
	}
	return &Service{
		store:    store,
		capturer: capturer,
		windowFn: windowFn,
		interval: interval,
		lock:     flock.New(lockPath),
		logger:   logger,
	}
}

// Start begins the capture loop. It fails if another process holds the
// capture lock.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}

	locked, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire capture lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w: lock held at %s", ErrAlreadyRunning, s.lock.Path())
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.running = true

	go s.loop(ctx, s.stop, s.done)

	s.logger.Info("screenshot capture started", "interval", s.interval)
	return nil
}

// Stop halts the loop and releases the capture lock. Safe to call when
// not running.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stop)
	<-s.done
	s.running = false

	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("release capture lock", "error", err)
	}
	s.logger.Info("screenshot capture stopped")
}

// Running reports whether the capture loop is active.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Service) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// First capture immediately rather than waiting a full interval.
	s.captureOnce(ctx)

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.captureOnce(ctx)
		}
	}
}

// CaptureOnce performs a single capture and save outside the loop.
func (s *Service) CaptureOnce(ctx context.Context) (int64, error) {
	image, err := s.capturer.Capture(ctx)
	if err != nil {
		return 0, err
	}
	info := s.windowFn(ctx)
	return s.store.Save(ctx, image, time.Now(), info.Application, info.WindowTitle)
}

func (s *Service) captureOnce(ctx context.Context) {
	if _, err := s.CaptureOnce(ctx); err != nil {
		s.logger.Warn("capture failed", "error", err)
	}
}
