// Package walker enumerates remote directory trees as a lazy sequence
// of nodes fetched page by page from the drive collaborator.
package walker

import (
	"context"

	"github.com/Ning0612/pikpakcli/internal/domain"
)

// Lister is the single listing call the walker needs from a drive backend
type Lister interface {
	ListChildren(ctx context.Context, parentID, pageToken string) ([]domain.Node, string, error)
}

// Options controls traversal behavior
type Options struct {
	// Recursive descends into subdirectories depth-first. Non-recursive
	// mode emits only the immediate children of the root.
	Recursive bool

	// IncludeTrashed emits entries sitting in the remote trash
	IncludeTrashed bool

	// IncludeAudit emits entries flagged for content review
	IncludeAudit bool
}

// Item is one element of the traversal sequence. Exactly one of Node
// or Err is meaningful; an Err item reports a failed directory listing
// (*domain.ListError) after which that subtree is abandoned while
// sibling subtrees continue.
type Item struct {
	Node domain.Node
	Err  error
}

// Walk enumerates the children of root and sends them on the returned
// channel in remote listing order. Directories are emitted before
// their contents. The channel closes when traversal finishes or ctx is
// cancelled. The sequence is not resumable; re-invoke with the same
// root to restart.
func Walk(ctx context.Context, l Lister, root domain.Node, opts Options) <-chan Item {
	out := make(chan Item)

	go func() {
		defer close(out)
		walkDir(ctx, l, root, opts, out)
	}()

	return out
}

// walkDir lists one directory and recurses into subdirectories.
// A page-fetch error emits a single ListError item and abandons the
// remainder of this directory only.
func walkDir(ctx context.Context, l Lister, dir domain.Node, opts Options, out chan<- Item) {
	pageToken := ""

	for {
		nodes, next, err := l.ListChildren(ctx, dir.ID, pageToken)
		if err != nil {
			send(ctx, out, Item{Err: &domain.ListError{DirID: dir.ID, DirName: dir.Name, Err: err}})
			return
		}

		for _, node := range nodes {
			if node.Trashed && !opts.IncludeTrashed {
				continue
			}
			if node.PendingAudit && !opts.IncludeAudit {
				continue
			}

			if !send(ctx, out, Item{Node: node}) {
				return
			}

			if node.IsDir() && opts.Recursive {
				walkDir(ctx, l, node, opts, out)
			}
		}

		if next == "" {
			return
		}
		pageToken = next
	}
}

// send delivers an item unless the context is cancelled
func send(ctx context.Context, out chan<- Item, item Item) bool {
	select {
	case out <- item:
		return true
	case <-ctx.Done():
		return false
	}
}

// Collect drains a traversal into a slice, returning the first listing
// error encountered alongside everything enumerated before and after it
func Collect(items <-chan Item) ([]domain.Node, error) {
	var nodes []domain.Node
	var firstErr error

	for item := range items {
		if item.Err != nil {
			if firstErr == nil {
				firstErr = item.Err
			}
			continue
		}
		nodes = append(nodes, item.Node)
	}

	return nodes, firstErr
}
