package service

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/Ning0612/pikpakcli/internal/domain"
)

// ResolvePath walks remote path components from the drive root down to
// a node. Paths are resolved against the session's working directory
// when relative; `.` and `..` are handled lexically before any remote
// call, so resolution never needs parent back-references.
//
// Listings are fetched fresh per call; nothing is cached across CLI
// invocations. When a live entry and a trashed entry share a name, the
// live entry wins.
func (s *DriveService) ResolvePath(ctx context.Context, p string) (domain.Node, error) {
	full := p
	if !strings.HasPrefix(p, "/") {
		full = path.Join(s.session.Cwd, p)
	}
	full = path.Clean(full)

	node := domain.Root()
	if full == "/" || full == "" {
		return node, nil
	}

	for _, component := range strings.Split(strings.TrimPrefix(full, "/"), "/") {
		if component == "" {
			continue
		}
		if !node.IsDir() {
			return domain.Node{}, fmt.Errorf("%s: %w", node.Name, domain.ErrNotDirectory)
		}

		child, err := s.findChild(ctx, node, component)
		if err != nil {
			return domain.Node{}, fmt.Errorf("%s: %w", full, err)
		}
		node = child
	}

	return node, nil
}

// remoteAbs resolves a possibly-relative remote path against cwd
func remoteAbs(cwd, p string) string {
	if !strings.HasPrefix(p, "/") {
		p = path.Join(cwd, p)
	}
	return path.Clean(p)
}

// findChild locates one named entry among a directory's children,
// paging through the listing until found
func (s *DriveService) findChild(ctx context.Context, dir domain.Node, name string) (domain.Node, error) {
	var trashedMatch *domain.Node
	pageToken := ""

	for {
		nodes, next, err := s.client.ListChildren(ctx, dir.ID, pageToken)
		if err != nil {
			return domain.Node{}, &domain.ListError{DirID: dir.ID, DirName: dir.Name, Err: err}
		}

		for _, node := range nodes {
			if node.Name != name {
				continue
			}
			if !node.Trashed {
				return node, nil
			}
			if trashedMatch == nil {
				n := node
				trashedMatch = &n
			}
		}

		if next == "" {
			break
		}
		pageToken = next
	}

	// Only a trashed entry carries this name
	if trashedMatch != nil {
		return *trashedMatch, nil
	}

	return domain.Node{}, domain.ErrNotFound
}
