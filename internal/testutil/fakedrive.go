package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/Ning0612/pikpakcli/internal/domain"
)

// OpenRecord captures one OpenStream call made against a FakeDrive
type OpenRecord struct {
	FileID string
	Offset int64
}

// FakeDrive is an in-memory drive backend for tests. Directories and
// file contents are registered up front; listings can be paginated and
// individual directories can be made to fail.
type FakeDrive struct {
	mu       sync.Mutex
	children map[string][]domain.Node
	contents map[string][]byte
	listErr  map[string]error
	pageSize int
	opens    []OpenRecord
}

// NewFakeDrive creates an empty fake drive
func NewFakeDrive() *FakeDrive {
	return &FakeDrive{
		children: make(map[string][]domain.Node),
		contents: make(map[string][]byte),
		listErr:  make(map[string]error),
	}
}

// SetPageSize makes ListChildren return at most n entries per page.
// Zero disables pagination.
func (f *FakeDrive) SetPageSize(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageSize = n
}

// FailList makes listings of the given directory fail
func (f *FakeDrive) FailList(parentID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr[parentID] = err
}

// AddDir registers a directory node under parentID and returns it
func (f *FakeDrive) AddDir(parentID, id, name string) domain.Node {
	node := domain.Node{
		ID:       id,
		Name:     name,
		Kind:     domain.KindDirectory,
		ParentID: parentID,
		ModTime:  time.Now(),
	}
	f.addNode(node)
	return node
}

// AddFile registers a file node with the given content and returns it
func (f *FakeDrive) AddFile(parentID, id, name string, content []byte) domain.Node {
	node := domain.Node{
		ID:       id,
		Name:     name,
		Kind:     domain.KindFile,
		Size:     int64(len(content)),
		ParentID: parentID,
		ModTime:  time.Now(),
	}
	f.addNode(node)

	f.mu.Lock()
	f.contents[id] = content
	f.mu.Unlock()

	return node
}

// AddNode registers an arbitrary node, for trashed or audit cases
func (f *FakeDrive) AddNode(node domain.Node, content []byte) domain.Node {
	f.addNode(node)
	if node.IsFile() {
		f.mu.Lock()
		f.contents[node.ID] = content
		f.mu.Unlock()
	}
	return node
}

func (f *FakeDrive) addNode(node domain.Node) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.children[node.ParentID] = append(f.children[node.ParentID], node)
}

// Opens returns every OpenStream call recorded so far
func (f *FakeDrive) Opens() []OpenRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]OpenRecord, len(f.opens))
	copy(out, f.opens)
	return out
}

// ListChildren implements the drive client listing contract
func (f *FakeDrive) ListChildren(ctx context.Context, parentID, pageToken string) ([]domain.Node, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.listErr[parentID]; err != nil {
		return nil, "", err
	}

	all := f.children[parentID]
	if f.pageSize <= 0 {
		return append([]domain.Node(nil), all...), "", nil
	}

	start := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil {
			return nil, "", fmt.Errorf("bad page token %q", pageToken)
		}
		start = n
	}

	end := start + f.pageSize
	next := ""
	if end >= len(all) {
		end = len(all)
	} else {
		next = strconv.Itoa(end)
	}

	return append([]domain.Node(nil), all[start:end]...), next, nil
}

// OpenStream implements the drive client download contract
func (f *FakeDrive) OpenStream(ctx context.Context, fileID string, offset int64) (io.ReadCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.opens = append(f.opens, OpenRecord{FileID: fileID, Offset: offset})

	content, ok := f.contents[fileID]
	if !ok {
		return nil, 0, domain.ErrNotFound
	}
	if offset > int64(len(content)) {
		return nil, 0, fmt.Errorf("offset %d beyond end of %s", offset, fileID)
	}

	return io.NopCloser(bytes.NewReader(content[offset:])), int64(len(content)), nil
}

// Remove implements the drive client removal contract
func (f *FakeDrive) Remove(ctx context.Context, id string, permanent bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for parentID, nodes := range f.children {
		for i, node := range nodes {
			if node.ID == id {
				f.children[parentID] = append(nodes[:i], nodes[i+1:]...)
				return nil
			}
		}
	}
	return domain.ErrNotFound
}

// Close implements io.Closer
func (f *FakeDrive) Close() error {
	return nil
}
