// Package transfer executes download tasks with interruption-safe
// resume. Each task streams into a partial file next to its final
// destination; the partial's length is the resume offset, and a
// completed transfer is atomically renamed into place.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Ning0612/pikpakcli/internal/domain"
	"github.com/Ning0612/pikpakcli/internal/logger"
	"github.com/Ning0612/pikpakcli/internal/progress"
)

// Opener is the single streaming call the engine needs from a drive
// backend
type Opener interface {
	OpenStream(ctx context.Context, fileID string, offset int64) (io.ReadCloser, int64, error)
}

// Options configures the download engine
type Options struct {
	// Workers bounds how many tasks transfer in parallel
	Workers int

	// Retry bounds automatic resume of transient failures
	Retry RetryPolicy

	// ReadTimeout aborts an attempt whose stream stalls; expiry is a
	// transient error subject to the retry policy
	ReadTimeout time.Duration

	// BufferSize is the copy buffer size in bytes
	BufferSize int
}

// DefaultOptions returns the engine defaults
func DefaultOptions() Options {
	return Options{
		Workers:     3,
		Retry:       DefaultRetryPolicy(),
		ReadTimeout: 60 * time.Second,
		BufferSize:  1 << 20,
	}
}

// Downloader executes download tasks against a drive backend
type Downloader struct {
	opener   Opener
	opts     Options
	reporter progress.Reporter
}

// New creates a download engine. A nil reporter discards progress.
func New(opener Opener, opts Options, reporter progress.Reporter) *Downloader {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1 << 20
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = DefaultRetryPolicy()
	}
	if reporter == nil {
		reporter = progress.NullReporter{}
	}

	return &Downloader{
		opener:   opener,
		opts:     opts,
		reporter: reporter,
	}
}

// Run executes all tasks with a bounded worker pool and returns the
// aggregated summary. Task failures are isolated; one failed task
// never aborts its siblings. Cancelling ctx stops dispatching new
// tasks immediately while in-flight transfers persist their partial
// state and stop.
func (d *Downloader) Run(ctx context.Context, tasks []domain.DownloadTask) domain.Summary {
	results := make(chan domain.TaskResult, len(tasks))
	sem := make(chan struct{}, d.opts.Workers)
	var wg sync.WaitGroup

	for _, task := range tasks {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(t domain.DownloadTask) {
			defer wg.Done()
			defer func() { <-sem }()
			results <- d.runTask(ctx, t)
		}(task)
	}

	wg.Wait()
	close(results)

	var summary domain.Summary
	for r := range results {
		summary.Add(r)
	}
	return summary
}

// runTask drives one task through its state machine:
// PENDING -> IN_PROGRESS -> {COMPLETED, FAILED}, with SKIPPED for
// destinations that are already fully downloaded.
func (d *Downloader) runTask(ctx context.Context, task domain.DownloadTask) domain.TaskResult {
	log := logger.Get().With("file", task.Source.Name, "dest", task.LocalPath)

	// Idempotence: a final file of the expected size means zero
	// network transfer on re-runs.
	if info, err := os.Stat(task.LocalPath); err == nil && !info.IsDir() && info.Size() == task.ExpectedSize {
		log.Debug("destination already complete, skipping")
		d.report(task, domain.TaskSkipped, task.ExpectedSize, nil)
		return domain.TaskResult{Task: task, State: domain.TaskSkipped}
	}

	if err := os.MkdirAll(filepath.Dir(task.LocalPath), 0755); err != nil {
		err = &domain.LocalIOError{Path: filepath.Dir(task.LocalPath), Err: err}
		d.report(task, domain.TaskFailed, 0, err)
		return domain.TaskResult{Task: task, State: domain.TaskFailed, Err: err}
	}

	var lastErr error
	for attempt := 1; attempt <= d.opts.Retry.MaxAttempts; attempt++ {
		err := d.attempt(ctx, task)
		if err == nil {
			d.report(task, domain.TaskCompleted, task.ExpectedSize, nil)
			return domain.TaskResult{Task: task, State: domain.TaskCompleted}
		}

		lastErr = err
		if !isTransient(err) || ctx.Err() != nil {
			break
		}

		log.Warn("transfer attempt failed, will resume",
			"attempt", attempt,
			"max_attempts", d.opts.Retry.MaxAttempts,
			"error", err,
		)

		if attempt < d.opts.Retry.MaxAttempts {
			if serr := d.opts.Retry.sleep(ctx, attempt); serr != nil {
				lastErr = serr
				break
			}
		}
	}

	lastErr = unwrapTransient(lastErr)
	log.Error("transfer failed", "error", lastErr)
	d.report(task, domain.TaskFailed, 0, lastErr)
	return domain.TaskResult{Task: task, State: domain.TaskFailed, Err: lastErr}
}

// attempt performs one transfer attempt, resuming from the partial
// file's current length. Returning nil means the final file is in
// place.
func (d *Downloader) attempt(ctx context.Context, task domain.DownloadTask) error {
	partialPath := task.PartialPath()

	written := int64(0)
	if info, err := os.Stat(partialPath); err == nil {
		written = info.Size()
	}

	// A partial longer than the remote file cannot be trusted at all;
	// discard it instead of silently truncating.
	if written > task.ExpectedSize {
		os.Remove(partialPath)
		return &domain.CorruptTransferError{Path: partialPath, Expected: task.ExpectedSize, Written: written}
	}

	// Stale complete partial: nothing left to fetch, just finalize.
	// Zero-length files take this path on their first attempt too.
	if written == task.ExpectedSize {
		if _, err := os.Stat(partialPath); os.IsNotExist(err) {
			if werr := os.WriteFile(partialPath, nil, 0644); werr != nil {
				return &domain.LocalIOError{Path: partialPath, Err: werr}
			}
		}
		return d.finalize(task, partialPath)
	}

	d.report(task, domain.TaskInProgress, written, nil)

	stream, _, err := d.opener.OpenStream(ctx, task.Source.ID, written)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return err
		}
		// Auth and network failures opening the stream are retried
		return transient(err)
	}
	defer stream.Close()

	file, err := os.OpenFile(partialPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return &domain.LocalIOError{Path: partialPath, Err: err}
	}

	err = d.copyStream(ctx, task, file, stream, written)
	if cerr := file.Close(); err == nil && cerr != nil {
		err = &domain.LocalIOError{Path: partialPath, Err: cerr}
	}
	if err != nil {
		if domain.IsCorruptTransfer(err) {
			os.Remove(partialPath)
		}
		return err
	}

	return d.finalize(task, partialPath)
}

// copyStream appends the remote stream to the partial file, bounding
// writes at the expected size and aborting on stall
func (d *Downloader) copyStream(ctx context.Context, task domain.DownloadTask, file *os.File, stream io.ReadCloser, written int64) error {
	partialPath := task.PartialPath()
	remaining := task.ExpectedSize - written

	// Stall watchdog: closing the stream forces the blocked Read to
	// return, which surfaces as a transient error below
	var watchdog *time.Timer
	if d.opts.ReadTimeout > 0 {
		watchdog = time.AfterFunc(d.opts.ReadTimeout, func() { stream.Close() })
		defer watchdog.Stop()
	}

	pw := progress.NewWriter(file, task, written, d.reporter)

	// Read one byte past the remaining count so an oversized stream is
	// detected instead of silently truncated
	limited := io.LimitReader(stream, remaining+1)
	buf := make([]byte, d.opts.BufferSize)

	for {
		n, rerr := limited.Read(buf)
		if n > 0 {
			if watchdog != nil {
				watchdog.Reset(d.opts.ReadTimeout)
			}

			if int64(n) > remaining {
				// The remote sent more bytes than its reported size.
				// The partial cannot be trusted; the caller discards it.
				return &domain.CorruptTransferError{
					Path:     partialPath,
					Expected: task.ExpectedSize,
					Written:  task.ExpectedSize - remaining + int64(n),
				}
			}

			if _, werr := pw.Write(buf[:n]); werr != nil {
				return &domain.LocalIOError{Path: partialPath, Err: werr}
			}
			remaining -= int64(n)
		}

		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return transient(&domain.AccessError{FileID: task.Source.ID, Err: rerr})
		}
	}

	if remaining > 0 {
		// Clean end-of-stream before the expected size: truncated
		// transfer, resumable from the bytes already written
		return transient(fmt.Errorf("stream truncated: %d of %d bytes missing", remaining, task.ExpectedSize))
	}

	return nil
}

// finalize atomically moves the complete partial onto its final path
func (d *Downloader) finalize(task domain.DownloadTask, partialPath string) error {
	if err := os.Rename(partialPath, task.LocalPath); err != nil {
		return &domain.LocalIOError{Path: task.LocalPath, Err: err}
	}
	return nil
}

// report emits a progress event
func (d *Downloader) report(task domain.DownloadTask, state domain.TaskState, bytes int64, err error) {
	d.reporter.Report(progress.Event{
		Task:             task,
		State:            state,
		BytesTransferred: bytes,
		TotalBytes:       task.ExpectedSize,
		Err:              err,
	})
}

// unwrapTransient strips the retry marker off a terminal error
func unwrapTransient(err error) error {
	var te transientError
	if errors.As(err, &te) {
		return te.err
	}
	return err
}
