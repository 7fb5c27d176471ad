package media

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// CommandRunner executes external commands and returns stdout bytes.
type CommandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// DurationProber reads the running time of a video file with ffprobe.
type DurationProber struct {
	Binary  string
	Run     CommandRunner
	Timeout time.Duration
}

// NewDurationProber constructs a prober that shells out to binary (default "ffprobe").
func NewDurationProber(binary string) *DurationProber {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	return &DurationProber{
		Binary:  binary,
		Run:     defaultCommandRunner,
		Timeout: 30 * time.Second,
	}
}

// Duration returns the container duration of path in seconds.
func (p *DurationProber) Duration(ctx context.Context, path string) (float64, error) {
	run := p.Run
	if run == nil {
		run = defaultCommandRunner
	}

	execCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	out, err := run(execCtx, p.Binary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	value := strings.TrimSpace(string(out))
	d, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe duration %q: %w", value, err)
	}
	return d, nil
}

func defaultCommandRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}
