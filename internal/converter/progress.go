package converter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Progress receives per-image progress during a conversion run.
type Progress interface {
	// Start is called once with the number of discovered images.
	Start(total int)
	// Image is called after each image has been ingested.
	Image(current, total int, name string)
	// Done is called when all images have been processed.
	Done()
}

// NoOpProgress ignores all updates.
type NoOpProgress struct{}

func (NoOpProgress) Start(int)              {}
func (NoOpProgress) Image(int, int, string) {}
func (NoOpProgress) Done()                  {}

// ConsoleProgress draws a single-line progress bar.
type ConsoleProgress struct {
	writer         io.Writer
	width          int
	updateInterval time.Duration
	lastUpdate     time.Time
	startTime      time.Time
	now            func() time.Time
}

// NewConsoleProgress creates a progress bar writing to w (stderr when nil).
func NewConsoleProgress(w io.Writer) *ConsoleProgress {
	if w == nil {
		w = os.Stderr
	}
	return &ConsoleProgress{
		writer:         w,
		width:          40,
		updateInterval: 100 * time.Millisecond,
		now:            time.Now,
	}
}

func (c *ConsoleProgress) Start(total int) {
	c.startTime = c.now()
	c.lastUpdate = time.Time{}
	_, _ = fmt.Fprintf(c.writer, "Converting %d images\n", total)
}

func (c *ConsoleProgress) Image(current, total int, _ string) {
	now := c.now()
	if now.Sub(c.lastUpdate) < c.updateInterval && current < total {
		return
	}
	c.lastUpdate = now
	c.draw(current, total, now)
}

func (c *ConsoleProgress) Done() {
	elapsed := c.now().Sub(c.startTime)
	_, _ = fmt.Fprintf(c.writer, "\nDone in %v\n", elapsed.Round(time.Millisecond))
}

func (c *ConsoleProgress) draw(current, total int, now time.Time) {
	if total <= 0 {
		return
	}
	filled := c.width * current / total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", c.width-filled)
	status := fmt.Sprintf("\r[%s] %d/%d (%.1f%%)", bar, current, total, float64(current)/float64(total)*100)

	if elapsed := now.Sub(c.startTime); elapsed > 0 && current > 0 {
		status += fmt.Sprintf(" %.1f img/s", float64(current)/elapsed.Seconds())
	}
	_, _ = fmt.Fprint(c.writer, status)
}

// LogProgress reports progress through slog every interval images.
type LogProgress struct {
	logger   *slog.Logger
	interval int
	start    time.Time
}

// NewLogProgress creates a log based reporter. A nil logger uses slog.Default().
func NewLogProgress(logger *slog.Logger, interval int) *LogProgress {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 100
	}
	return &LogProgress{logger: logger, interval: interval}
}

func (l *LogProgress) Start(total int) {
	l.start = time.Now()
	l.logger.Debug("Starting conversion", "images", total)
}

func (l *LogProgress) Image(current, total int, name string) {
	if current%l.interval != 0 && current != total {
		return
	}
	l.logger.Debug("Conversion progress",
		"current", current,
		"total", total,
		"image", name,
		"elapsed", time.Since(l.start).Round(time.Millisecond),
	)
}

func (l *LogProgress) Done() {
	l.logger.Debug("Conversion finished", "elapsed", time.Since(l.start).Round(time.Millisecond))
}
