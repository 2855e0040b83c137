// Package service wires the session, drive backend, tree walker,
// planner and download engine into the operations the CLI calls.
package service

import (
	"context"
	"fmt"
	"io"

	"github.com/Ning0612/pikpakcli/internal/core/matcher"
	"github.com/Ning0612/pikpakcli/internal/core/planner"
	"github.com/Ning0612/pikpakcli/internal/core/transfer"
	"github.com/Ning0612/pikpakcli/internal/core/walker"
	"github.com/Ning0612/pikpakcli/internal/domain"
	"github.com/Ning0612/pikpakcli/internal/drive"
	"github.com/Ning0612/pikpakcli/internal/lock"
	"github.com/Ning0612/pikpakcli/internal/logger"
	"github.com/Ning0612/pikpakcli/internal/progress"
	"github.com/Ning0612/pikpakcli/internal/session"
)

// DriveService exposes traversal and download operations over one
// authenticated drive backend
type DriveService struct {
	client       drive.Client
	session      *session.Session
	transferOpts transfer.Options
	reporter     progress.Reporter
}

// New creates a drive service
func New(client drive.Client, sess *session.Session, transferOpts transfer.Options) *DriveService {
	return &DriveService{
		client:       client,
		session:      sess,
		transferOpts: transferOpts,
		reporter:     progress.NullReporter{},
	}
}

// SetProgressReporter sets the progress reporter for download runs
func (s *DriveService) SetProgressReporter(reporter progress.Reporter) {
	if reporter == nil {
		reporter = progress.NullReporter{}
	}
	s.reporter = reporter
}

// Traverse resolves rootPath and enumerates its subtree. The caller
// drains the returned channel; the root node itself is returned for
// display and is not re-emitted on the channel.
func (s *DriveService) Traverse(ctx context.Context, rootPath string, opts walker.Options) (domain.Node, <-chan walker.Item, error) {
	root, err := s.ResolvePath(ctx, rootPath)
	if err != nil {
		return domain.Node{}, nil, err
	}

	if !root.IsDir() {
		// A single file traverses as itself
		out := make(chan walker.Item, 1)
		out <- walker.Item{Node: root}
		close(out)
		return root, out, nil
	}

	return root, walker.Walk(ctx, s.client, root, opts), nil
}

// Du totals the file sizes under a remote path
func (s *DriveService) Du(ctx context.Context, rootPath string) (int64, int, error) {
	_, items, err := s.Traverse(ctx, rootPath, walker.Options{Recursive: true})
	if err != nil {
		return 0, 0, err
	}

	var total int64
	files := 0
	var firstErr error

	for item := range items {
		if item.Err != nil {
			if firstErr == nil {
				firstErr = item.Err
			}
			continue
		}
		if item.Node.IsFile() {
			total += item.Node.Size
			files++
		}
	}

	return total, files, firstErr
}

// ChangeDir moves the session's working directory to a remote path
func (s *DriveService) ChangeDir(ctx context.Context, p string) error {
	node, err := s.ResolvePath(ctx, p)
	if err != nil {
		return err
	}
	if !node.IsDir() {
		return fmt.Errorf("%s: %w", p, domain.ErrNotDirectory)
	}

	s.session.SetCwd(remoteAbs(s.session.Cwd, p))
	return s.session.Save()
}

// Remove trashes a remote entry, or deletes it permanently
func (s *DriveService) Remove(ctx context.Context, p string, permanent bool) error {
	node, err := s.ResolvePath(ctx, p)
	if err != nil {
		return err
	}
	if node.ID == domain.RootID {
		return fmt.Errorf("refusing to remove the drive root")
	}

	return s.client.Remove(ctx, node.ID, permanent)
}

// DownloadOptions configures one download run
type DownloadOptions struct {
	// Includes and Excludes are glob patterns applied to file names;
	// an exclude match always wins
	Includes []string
	Excludes []string

	// MinSize rejects files below the threshold (0 disables)
	MinSize int64

	// DestDir overrides the session's default download directory
	DestDir string

	// Flatten places all matched files directly under DestDir
	Flatten bool

	// RenameTo renames a single-file download
	RenameTo string
}

// Download resolves rootPath, plans matching files and executes the
// plan with the resumable download engine. The destination directory
// is locked for the duration so concurrent runs cannot fight over the
// same partial files.
func (s *DriveService) Download(ctx context.Context, rootPath string, opts DownloadOptions) (domain.Summary, error) {
	root, err := s.ResolvePath(ctx, rootPath)
	if err != nil {
		return domain.Summary{}, err
	}

	m, err := matcher.New(opts.Includes, opts.Excludes, opts.MinSize)
	if err != nil {
		return domain.Summary{}, &domain.PlanError{Reason: err.Error()}
	}

	destDir := opts.DestDir
	if destDir == "" {
		destDir = s.session.DownloadDir
	}

	plan, err := planner.Build(ctx, s.client, root, m, planner.Options{
		DestDir:  destDir,
		Flatten:  opts.Flatten,
		RenameTo: opts.RenameTo,
	})
	if err != nil {
		return domain.Summary{}, err
	}

	log := logger.Get().With("root", rootPath, "dest", destDir)
	for _, lerr := range plan.ListErrors {
		log.Warn("subtree listing failed, plan is partial", "error", lerr)
	}

	if len(plan.Tasks) == 0 {
		log.Info("nothing to download")
		return domain.Summary{}, nil
	}

	fileLock, err := lock.NewFileLock(destDir)
	if err != nil {
		return domain.Summary{}, err
	}
	if err := fileLock.Acquire(destDir); err != nil {
		return domain.Summary{}, err
	}
	defer func() {
		if rerr := fileLock.Release(); rerr != nil {
			log.Error("failed to release download lock", "error", rerr)
		}
	}()

	log.Info("download plan ready",
		"files", len(plan.Tasks),
		"bytes", plan.TotalBytes(),
	)

	engine := transfer.New(s.client, s.transferOpts, s.reporter)
	summary := engine.Run(ctx, plan.Tasks)

	log.Info("download finished",
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
	)

	return summary, nil
}

// Session returns the underlying session
func (s *DriveService) Session() *session.Session {
	return s.session
}

// Close releases the drive backend
func (s *DriveService) Close() error {
	return s.client.Close()
}

var _ io.Closer = (*DriveService)(nil)
