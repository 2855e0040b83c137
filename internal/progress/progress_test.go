package progress

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Ning0612/pikpakcli/internal/domain"
)

func testTask(size int64) domain.DownloadTask {
	return domain.DownloadTask{
		Source:       domain.Node{ID: "f1", Name: "movie.mkv", Kind: domain.KindFile, Size: size},
		LocalPath:    "dl/movie.mkv",
		ExpectedSize: size,
	}
}

func TestWriter_CountsFromResumeOffset(t *testing.T) {
	var sink bytes.Buffer
	task := testTask(1 << 20)

	pw := NewWriter(&sink, task, 500, NullReporter{})
	if _, err := pw.Write(make([]byte, 100)); err != nil {
		t.Fatal(err)
	}

	if pw.Transferred() != 600 {
		t.Errorf("Transferred() = %d, want 600 (offset + written)", pw.Transferred())
	}
	if sink.Len() != 100 {
		t.Errorf("underlying writer got %d bytes, want 100", sink.Len())
	}
}

func TestWriter_ThrottlesEvents(t *testing.T) {
	var events []Event
	reporter := Callback(func(e Event) { events = append(events, e) })

	var sink bytes.Buffer
	task := testTask(1 << 20)
	pw := NewWriter(&sink, task, 0, reporter)

	// below the threshold: no event yet
	pw.Write(make([]byte, 1024))
	if len(events) != 0 {
		t.Fatalf("premature events: %v", events)
	}

	// crossing the threshold emits exactly one event
	pw.Write(make([]byte, reportThreshold))
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].State != domain.TaskInProgress {
		t.Errorf("event state = %v", events[0].State)
	}
	if events[0].BytesTransferred != 1024+reportThreshold {
		t.Errorf("event bytes = %d", events[0].BytesTransferred)
	}

	// the next small write stays quiet again
	pw.Write(make([]byte, 10))
	if len(events) != 1 {
		t.Errorf("throttle reset failed, events = %d", len(events))
	}
}

func TestConsolePrinter_States(t *testing.T) {
	var out bytes.Buffer
	p := NewConsolePrinter(&out)
	task := testTask(2048)

	p.Report(Event{Task: task, State: domain.TaskCompleted, TotalBytes: 2048})
	if !strings.Contains(out.String(), "movie.mkv downloaded") {
		t.Errorf("completed line missing: %q", out.String())
	}

	out.Reset()
	p.Report(Event{Task: task, State: domain.TaskSkipped})
	if !strings.Contains(out.String(), "already complete") {
		t.Errorf("skipped line missing: %q", out.String())
	}

	out.Reset()
	p.Report(Event{Task: task, State: domain.TaskFailed, Err: domain.ErrNotFound})
	if !strings.Contains(out.String(), "failed") {
		t.Errorf("failed line missing: %q", out.String())
	}
}

func TestFormatProgress(t *testing.T) {
	tests := []struct {
		name     string
		current  int64
		total    int64
		contains string
	}{
		{"empty total", 0, 0, ""},
		{"halfway", 50, 100, "50.0%"},
		{"complete", 100, 100, "100.0%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatProgress(tt.current, tt.total, 10)
			if tt.contains == "" {
				if got != "" {
					t.Errorf("FormatProgress() = %q, want empty", got)
				}
				return
			}
			if !strings.Contains(got, tt.contains) {
				t.Errorf("FormatProgress() = %q, want it to contain %q", got, tt.contains)
			}
		})
	}
}

func TestFormatSpeed(t *testing.T) {
	if got := FormatSpeed(2048); got != "2.0 KB/s" {
		t.Errorf("FormatSpeed(2048) = %q", got)
	}
}
