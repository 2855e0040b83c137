// Package planner turns a remote subtree plus a matcher into an
// ordered list of download tasks.
package planner

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Ning0612/pikpakcli/internal/core/matcher"
	"github.com/Ning0612/pikpakcli/internal/core/walker"
	"github.com/Ning0612/pikpakcli/internal/domain"
)

// Options controls destination layout
type Options struct {
	// DestDir is the local directory tasks land under
	DestDir string

	// Flatten places every matched file directly under DestDir,
	// ignoring remote subpaths. Name collisions are disambiguated
	// deterministically with the remote ID.
	Flatten bool

	// RenameTo renames the downloaded file. Only valid when exactly
	// one file matches; a multi-file plan with RenameTo set is a
	// configuration error.
	RenameTo string

	// IncludeTrashed carries the traversal flag through to the walk
	IncludeTrashed bool

	// IncludeAudit carries the traversal flag through to the walk
	IncludeAudit bool
}

// Plan is the ordered task list for one download run. Task order
// follows traversal emission order, so repeated planning over an
// unchanged remote tree yields the same sequence.
type Plan struct {
	Tasks []domain.DownloadTask

	// ListErrors collects subtree listings that failed during the
	// walk. Tasks built from subtrees enumerated before a failure
	// remain valid.
	ListErrors []error
}

// TotalBytes sums the expected sizes of all tasks
func (p *Plan) TotalBytes() int64 {
	var total int64
	for _, t := range p.Tasks {
		total += t.ExpectedSize
	}
	return total
}

// Build walks root recursively, applies the matcher to every file
// encountered, and resolves each match to a unique local destination.
// It returns a *domain.PlanError before any download starts when the
// options are inconsistent.
func Build(ctx context.Context, l walker.Lister, root domain.Node, m *matcher.Matcher, opts Options) (*Plan, error) {
	if opts.DestDir == "" {
		return nil, &domain.PlanError{Reason: "destination directory not set"}
	}

	plan := &Plan{}

	// Remote path of each directory relative to root, keyed by ID.
	// The walker emits directories before their contents, so the
	// parent's entry always exists by the time a child shows up.
	relPaths := map[string]string{root.ID: ""}

	// Destination paths already claimed, for flatten disambiguation
	claimed := map[string]bool{}

	walkOpts := walker.Options{
		Recursive:      true,
		IncludeTrashed: opts.IncludeTrashed,
		IncludeAudit:   opts.IncludeAudit,
	}

	// A bare file as root downloads just itself
	if root.IsFile() {
		if m.Matches(root) {
			plan.Tasks = append(plan.Tasks, makeTask(root, "", opts, claimed))
		}
		return finishPlan(plan, opts)
	}

	for item := range walker.Walk(ctx, l, root, walkOpts) {
		if item.Err != nil {
			plan.ListErrors = append(plan.ListErrors, item.Err)
			continue
		}

		node := item.Node
		parentRel := relPaths[node.ParentID]

		if node.IsDir() {
			relPaths[node.ID] = filepath.Join(parentRel, node.Name)
			continue
		}

		if !m.Matches(node) {
			continue
		}

		plan.Tasks = append(plan.Tasks, makeTask(node, parentRel, opts, claimed))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return finishPlan(plan, opts)
}

// finishPlan validates rename constraints and applies the rename
func finishPlan(plan *Plan, opts Options) (*Plan, error) {
	if opts.RenameTo != "" {
		if len(plan.Tasks) > 1 {
			return nil, &domain.PlanError{
				Reason: fmt.Sprintf("rename to %q requires exactly one matched file, got %d", opts.RenameTo, len(plan.Tasks)),
			}
		}
		if len(plan.Tasks) == 1 {
			plan.Tasks[0].LocalPath = filepath.Join(opts.DestDir, opts.RenameTo)
		}
	}
	return plan, nil
}

// makeTask resolves a matched file to its local destination
func makeTask(node domain.Node, parentRel string, opts Options, claimed map[string]bool) domain.DownloadTask {
	var localPath string
	if opts.Flatten {
		localPath = filepath.Join(opts.DestDir, node.Name)
		if claimed[localPath] {
			localPath = filepath.Join(opts.DestDir, disambiguate(node.Name, node.ID))
		}
	} else {
		localPath = filepath.Join(opts.DestDir, parentRel, node.Name)
	}
	claimed[localPath] = true

	return domain.DownloadTask{
		Source:       node,
		LocalPath:    localPath,
		ExpectedSize: node.Size,
	}
}

// disambiguate inserts the remote ID before the extension so colliding
// flattened names stay stable across runs
func disambiguate(name, id string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return stem + "-" + id + ext
}
