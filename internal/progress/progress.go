// Package progress reports download progress to an external display
// collaborator. Events are observational only; correctness of a
// transfer never depends on them beyond monotonic byte counts.
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Ning0612/pikpakcli/internal/domain"
)

// Event is one progress update for a single task
type Event struct {
	Task             domain.DownloadTask
	State            domain.TaskState
	BytesTransferred int64
	TotalBytes       int64
	Err              error
}

// Reporter consumes progress events. Implementations must be safe for
// concurrent use; multiple download workers report simultaneously.
type Reporter interface {
	Report(Event)
}

// Callback adapts a function to the Reporter interface
type Callback func(Event)

// Report implements Reporter
func (c Callback) Report(e Event) {
	if c != nil {
		c(e)
	}
}

// NullReporter discards all events
type NullReporter struct{}

// Report implements Reporter
func (NullReporter) Report(Event) {}

const (
	// reportThreshold is the byte delta between interim events
	reportThreshold = 256 * 1024
	// reportInterval caps the time between interim events on slow links
	reportInterval = time.Second
)

// Writer wraps an io.Writer and emits throttled progress events for
// one task as bytes are written to the partial file. The transferred
// count advances monotonically and includes bytes already on disk
// when a transfer resumes.
type Writer struct {
	w        io.Writer
	task     domain.DownloadTask
	reporter Reporter

	transferred  int64
	lastReported int64
	lastTime     time.Time
}

// NewWriter creates a progress-tracking writer starting at offset
// (the resume point) toward the task's expected size
func NewWriter(w io.Writer, task domain.DownloadTask, offset int64, reporter Reporter) *Writer {
	return &Writer{
		w:            w,
		task:         task,
		reporter:     reporter,
		transferred:  offset,
		lastReported: offset,
		lastTime:     time.Now(),
	}
}

// Write implements io.Writer
func (pw *Writer) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	if n > 0 {
		pw.transferred += int64(n)
		if pw.transferred-pw.lastReported >= reportThreshold || time.Since(pw.lastTime) >= reportInterval {
			pw.emit()
		}
	}
	return n, err
}

// Transferred returns the monotonic byte count including resume offset
func (pw *Writer) Transferred() int64 {
	return pw.transferred
}

func (pw *Writer) emit() {
	pw.lastReported = pw.transferred
	pw.lastTime = time.Now()
	if pw.reporter != nil {
		pw.reporter.Report(Event{
			Task:             pw.task,
			State:            domain.TaskInProgress,
			BytesTransferred: pw.transferred,
			TotalBytes:       pw.task.ExpectedSize,
		})
	}
}

// ConsolePrinter renders progress events as single-line console
// output. It serializes writes so concurrent workers do not interleave.
type ConsolePrinter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsolePrinter creates a printer writing to out
func NewConsolePrinter(out io.Writer) *ConsolePrinter {
	return &ConsolePrinter{out: out}
}

// Report implements Reporter
func (p *ConsolePrinter) Report(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	name := e.Task.Source.Name
	switch e.State {
	case domain.TaskInProgress:
		fmt.Fprintf(p.out, "\r%s %s / %s %s",
			name,
			FormatBytes(e.BytesTransferred),
			FormatBytes(e.TotalBytes),
			FormatProgress(e.BytesTransferred, e.TotalBytes, 20),
		)
	case domain.TaskCompleted:
		fmt.Fprintf(p.out, "\r%s downloaded (%s)\n", name, FormatBytes(e.TotalBytes))
	case domain.TaskSkipped:
		fmt.Fprintf(p.out, "%s already complete, skipped\n", name)
	case domain.TaskFailed:
		fmt.Fprintf(p.out, "\r%s failed: %v\n", name, e.Err)
	}
}

// FormatBytes formats bytes into human-readable string
func FormatBytes(bytes int64) string {
	return domain.FormatSize(bytes)
}

// FormatSpeed formats bytes per second into human-readable string
func FormatSpeed(bytesPerSecond float64) string {
	return FormatBytes(int64(bytesPerSecond)) + "/s"
}

// FormatProgress returns a progress bar string
func FormatProgress(current, total int64, width int) string {
	if total == 0 {
		return ""
	}

	percent := float64(current) / float64(total)
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}

	bar := make([]byte, width)
	for i := 0; i < width; i++ {
		if i < filled {
			bar[i] = '='
		} else if i == filled {
			bar[i] = '>'
		} else {
			bar[i] = ' '
		}
	}

	return fmt.Sprintf("[%s] %5.1f%%", string(bar), percent*100)
}
