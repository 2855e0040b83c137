package domain

import "fmt"

// TaskState is the lifecycle state of a download task
type TaskState int

const (
	TaskPending TaskState = iota
	TaskInProgress
	TaskCompleted
	TaskFailed
	TaskSkipped
)

// String returns the string representation of the state
func (s TaskState) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskInProgress:
		return "in_progress"
	case TaskCompleted:
		return "completed"
	case TaskFailed:
		return "failed"
	case TaskSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// DownloadTask is a single unit of download work produced by the planner.
// Source is always a file node; LocalPath is the absolute final destination.
// The planner guarantees LocalPath is unique within one plan.
type DownloadTask struct {
	Source       Node
	LocalPath    string
	ExpectedSize int64
}

// PartialSuffix marks an in-progress download artifact next to its
// final path. The partial survives interruption and is the sole
// source of truth for resume offsets.
const PartialSuffix = ".part"

// PartialPath returns the on-disk path of the task's partial file
func (t DownloadTask) PartialPath() string {
	return t.LocalPath + PartialSuffix
}

// TaskResult is the terminal outcome of one task
type TaskResult struct {
	Task  DownloadTask
	State TaskState
	Err   error
}

// Summary aggregates the outcome of a download run
type Summary struct {
	Succeeded int
	Failed    int
	Skipped   int

	// FailedTasks enumerates terminal failures with their errors
	FailedTasks []TaskResult
}

// Add records a terminal task result into the summary
func (s *Summary) Add(r TaskResult) {
	switch r.State {
	case TaskCompleted:
		s.Succeeded++
	case TaskSkipped:
		s.Skipped++
	case TaskFailed:
		s.Failed++
		s.FailedTasks = append(s.FailedTasks, r)
	}
}

// String renders a short human-readable summary line
func (s Summary) String() string {
	return fmt.Sprintf("%d succeeded, %d failed, %d skipped", s.Succeeded, s.Failed, s.Skipped)
}
