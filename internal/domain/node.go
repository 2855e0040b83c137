package domain

import "time"

// NodeKind represents the kind of a remote filesystem entry
type NodeKind int

const (
	KindFile NodeKind = iota
	KindDirectory
)

// String returns the string representation of the kind
func (k NodeKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// RootID is the sentinel parent ID of the drive root
const RootID = ""

// Node represents a single entry in the remote drive hierarchy.
// It is an immutable value object built from a listing response;
// nothing is cached across CLI invocations.
type Node struct {
	// ID is the opaque remote identifier, stable across requests
	ID string

	// Name is the display name. Not guaranteed unique within a
	// directory once trashed entries are included.
	Name string

	// Kind indicates file or directory
	Kind NodeKind

	// Size in bytes (0 for directories, where it carries no meaning)
	Size int64

	// ParentID references the containing directory (RootID for the root)
	ParentID string

	// ModTime is the last modification time reported by the remote
	ModTime time.Time

	// Trashed marks entries in the remote trash
	Trashed bool

	// PendingAudit marks entries flagged for content review
	PendingAudit bool
}

// IsDir returns true if this is a directory
func (n Node) IsDir() bool {
	return n.Kind == KindDirectory
}

// IsFile returns true if this is a regular file
func (n Node) IsFile() bool {
	return n.Kind == KindFile
}

// Root returns the synthetic root node of a drive
func Root() Node {
	return Node{ID: RootID, Name: "/", Kind: KindDirectory}
}
