package screenshot

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/lakitu0/lakitu/internal/log"
)

type fakeCapturer struct {
	calls atomic.Int64
}

func (f *fakeCapturer) Capture(context.Context) ([]byte, error) {
	f.calls.Add(1)
	return []byte("image"), nil
}

func staticWindow(context.Context) WindowInfo {
	return WindowInfo{Application: "minecraft", WindowTitle: "Minecraft 1.21"}
}

func TestServiceStartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := &mockQuerier{}
	store := NewStore(q, testCipher(t), log.NewNop())
	capturer := &fakeCapturer{}
	lockPath := filepath.Join(t.TempDir(), "capture.lock")

	svc := NewService(store, capturer, staticWindow, 10*time.Millisecond, lockPath, log.NewNop())

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start(): %v", err)
	}

	// Starting twice on the same service is rejected.
	if err := svc.Start(context.Background()); err == nil {
		t.Error("second Start() expected error")
	}

	time.Sleep(50 * time.Millisecond)
	svc.Stop()

	if capturer.calls.Load() < 2 {
		t.Errorf("capturer called %d times, want at least 2", capturer.calls.Load())
	}
	if len(q.inserted) == 0 {
		t.Fatal("no screenshots stored")
	}
	if q.inserted[0].Application != "minecraft" {
		t.Errorf("stored application = %q", q.inserted[0].Application)
	}
}

func TestServiceStop_NotRunning(t *testing.T) {
	store := NewStore(&mockQuerier{}, testCipher(t), log.NewNop())
	svc := NewService(store, &fakeCapturer{}, staticWindow, time.Second,
		filepath.Join(t.TempDir(), "capture.lock"), log.NewNop())

	svc.Stop()
}

func TestServiceLock_Exclusive(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := NewStore(&mockQuerier{}, testCipher(t), log.NewNop())
	lockPath := filepath.Join(t.TempDir(), "capture.lock")

	first := NewService(store, &fakeCapturer{}, staticWindow, time.Hour, lockPath, log.NewNop())
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start(): %v", err)
	}
	defer first.Stop()

	second := NewService(store, &fakeCapturer{}, staticWindow, time.Hour, lockPath, log.NewNop())
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Error("second service acquired the capture lock")
	}
}

func TestCaptureOnce(t *testing.T) {
	q := &mockQuerier{}
	store := NewStore(q, testCipher(t), log.NewNop())
	svc := NewService(store, &fakeCapturer{}, staticWindow, time.Second,
		filepath.Join(t.TempDir(), "capture.lock"), log.NewNop())

	id, err := svc.CaptureOnce(context.Background())
	if err != nil {
		t.Fatalf("CaptureOnce(): %v", err)
	}
	if id != 1 || len(q.inserted) != 1 {
		t.Errorf("id = %d, inserted = %d", id, len(q.inserted))
	}
}
