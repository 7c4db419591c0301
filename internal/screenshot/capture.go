package screenshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// Capturer grabs the current screen as an encoded image.
type Capturer interface {
	Capture(ctx context.Context) ([]byte, error)
}

// WindowInfo identifies the foreground window at capture time.
type WindowInfo struct {
	Application string
	WindowTitle string
	PID         int32
}

// unknownWindow is recorded when the foreground window cannot be
// resolved, keeping captures flowing on headless or locked sessions.
var unknownWindow = WindowInfo{Application: "Unknown", WindowTitle: "Unknown"}

// CommandCapturer shells out to a platform screenshot tool. The
// configured command must contain an {output} placeholder that is
// replaced with a temporary file path.
type CommandCapturer struct {
	args []string
}

var ErrNoOutputPlaceholder = errors.New("screenshot: capture command missing {output} placeholder")

func NewCommandCapturer(command string) (*CommandCapturer, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, errors.New("screenshot: empty capture command")
	}
	if !strings.Contains(command, "{output}") {
		return nil, ErrNoOutputPlaceholder
	}
	return &CommandCapturer{args: args}, nil
}

func (c *CommandCapturer) Capture(ctx context.Context) ([]byte, error) {
	dir, err := os.MkdirTemp("", "lakitu-capture-*")
	if err != nil {
		return nil, fmt.Errorf("create capture dir: %w", err)
	}
	defer os.RemoveAll(dir)
	outPath := filepath.Join(dir, "screen.png")

	args := make([]string, len(c.args))
	for i, a := range c.args {
		args[i] = strings.ReplaceAll(a, "{output}", outPath)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("capture command %q: %w: %s", c.args[0], err, strings.TrimSpace(string(out)))
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read capture output: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("screenshot: capture produced empty image")
	}
	return data, nil
}

// ActiveWindow resolves the foreground window via xdotool and maps its
// pid to a process name. Falls back to Unknown when the window system
// is unavailable.
func ActiveWindow(ctx context.Context) WindowInfo {
	pidOut, err := exec.CommandContext(ctx, "xdotool", "getactivewindow", "getwindowpid").Output()
	if err != nil {
		return unknownWindow
	}
	pid, err := strconv.ParseInt(strings.TrimSpace(string(pidOut)), 10, 32)
	if err != nil {
		return unknownWindow
	}

	info := WindowInfo{Application: "Unknown", WindowTitle: "Unknown", PID: int32(pid)}

	if proc, err := process.NewProcessWithContext(ctx, int32(pid)); err == nil {
		if name, err := proc.NameWithContext(ctx); err == nil && name != "" {
			info.Application = name
		}
	}

	if titleOut, err := exec.CommandContext(ctx, "xdotool", "getactivewindow", "getwindowname").Output(); err == nil {
		if title := strings.TrimSpace(string(titleOut)); title != "" {
			info.WindowTitle = title
		}
	}
	return info
}
