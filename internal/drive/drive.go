package drive

import (
	"context"
	"io"

	"github.com/Ning0612/pikpakcli/internal/domain"
)

// Client defines the interface for remote drive backends.
// All implementations must map backend API failures into domain-level
// errors so callers never depend on backend error types.
type Client interface {
	// ListChildren returns one page of immediate children of the given
	// directory along with the cursor for the next page. An empty
	// parentID lists the drive root; an empty returned cursor marks the
	// final page. Trashed and audit-flagged entries are included; the
	// walker decides what to filter.
	ListChildren(ctx context.Context, parentID, pageToken string) ([]domain.Node, string, error)

	// OpenStream opens a byte stream for the file starting at offset.
	// It returns the stream and the total file size. Auth and network
	// failures surface as *domain.AccessError.
	OpenStream(ctx context.Context, fileID string, offset int64) (io.ReadCloser, int64, error)

	// Remove trashes a remote entry, or deletes it permanently when
	// permanent is set.
	Remove(ctx context.Context, id string, permanent bool) error

	// Close releases any resources held by the client
	Close() error
}
