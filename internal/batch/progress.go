package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// Progress receives batch progress. Run serialises all calls, so
// implementations need no locking of their own.
type Progress interface {
	// OnStart is called once with the number of jobs.
	OnStart(total int)
	// OnJobDone is called after every finished job.
	OnJobDone(done, total int, result Result)
	// OnComplete is called when the run ends, also after cancellation.
	OnComplete(done, total int)
}

// NoOpProgress discards progress.
type NoOpProgress struct{}

func (NoOpProgress) OnStart(int)                {}
func (NoOpProgress) OnJobDone(int, int, Result) {}
func (NoOpProgress) OnComplete(int, int)        {}

// ConsoleProgress draws a progress bar, typically on stderr.
type ConsoleProgress struct {
	w        io.Writer
	width    int
	interval time.Duration
	start    time.Time
	last     time.Time
	failed   int
}

// NewConsoleProgress creates a bar 40 cells wide redrawn at most every 100ms.
func NewConsoleProgress(w io.Writer) *ConsoleProgress {
	return &ConsoleProgress{w: w, width: 40, interval: 100 * time.Millisecond}
}

// WithWidth sets the bar width in cells.
func (c *ConsoleProgress) WithWidth(width int) *ConsoleProgress {
	c.width = max(width, 1)
	return c
}

// WithInterval sets the minimum time between redraws.
func (c *ConsoleProgress) WithInterval(d time.Duration) *ConsoleProgress {
	c.interval = d
	return c
}

func (c *ConsoleProgress) OnStart(total int) {
	c.start = time.Now()
	c.last = time.Time{}
	c.failed = 0
	c.draw(0, total)
}

func (c *ConsoleProgress) OnJobDone(done, total int, result Result) {
	if result.Err != nil {
		c.failed++
	}
	now := time.Now()
	if done < total && now.Sub(c.last) < c.interval {
		return
	}
	c.last = now
	c.draw(done, total)
}

func (c *ConsoleProgress) OnComplete(done, total int) {
	c.draw(done, total)
	_, _ = fmt.Fprintf(c.w, "\n%d/%d jobs in %v\n", done, total, time.Since(c.start).Round(time.Millisecond))
}

func (c *ConsoleProgress) draw(done, total int) {
	if total <= 0 {
		return
	}
	filled := c.width * done / total
	bar := strings.Repeat("#", filled) + strings.Repeat(".", c.width-filled)
	line := fmt.Sprintf("\r[%s] %d/%d (%.1f%%)", bar, done, total, 100*float64(done)/float64(total))
	if c.failed > 0 {
		line += fmt.Sprintf(" %d failed", c.failed)
	}
	if elapsed := time.Since(c.start); done > 0 && elapsed > 0 {
		line += fmt.Sprintf(" %.0f/s", float64(done)/elapsed.Seconds())
	}
	_, _ = fmt.Fprint(c.w, line)
}

// LogProgress reports progress through slog every interval jobs.
type LogProgress struct {
	logger   *slog.Logger
	level    slog.Level
	interval int
	start    time.Time
}

// NewLogProgress logs every tenth job at level. A nil logger uses slog.Default().
func NewLogProgress(logger *slog.Logger, level slog.Level) *LogProgress {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProgress{logger: logger, level: level, interval: 10}
}

// WithInterval logs every n jobs.
func (l *LogProgress) WithInterval(n int) *LogProgress {
	l.interval = max(n, 1)
	return l
}

func (l *LogProgress) OnStart(total int) {
	l.start = time.Now()
	l.logger.Log(context.Background(), l.level, "batch started", "jobs", total)
}

func (l *LogProgress) OnJobDone(done, total int, result Result) {
	if result.Err != nil {
		l.logger.Log(context.Background(), slog.LevelWarn, "batch job failed", "job", result.Name, "error", result.Err)
	}
	if done%l.interval == 0 || done == total {
		l.logger.Log(context.Background(), l.level, "batch progress",
			"done", done,
			"jobs", total,
			"elapsed", time.Since(l.start).Round(time.Millisecond),
		)
	}
}

func (l *LogProgress) OnComplete(done, total int) {
	l.logger.Log(context.Background(), l.level, "batch completed",
		"done", done, "jobs", total, "elapsed", time.Since(l.start).Round(time.Millisecond))
}
