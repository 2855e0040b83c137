package domain

import (
	"errors"
	"fmt"
)

// Drive errors - remote collaborator layer
var (
	// ErrNotFound indicates the requested remote entry does not exist
	ErrNotFound = errors.New("remote entry not found")

	// ErrNotDirectory indicates expected a directory but got a file
	ErrNotDirectory = errors.New("not a directory")

	// ErrNotFile indicates expected a file but got a directory
	ErrNotFile = errors.New("not a file")

	// ErrNotLoggedIn indicates no valid session credentials
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrPermissionDenied indicates the remote rejected the request
	ErrPermissionDenied = errors.New("permission denied")
)

// Config errors
var (
	// ErrConfigNotFound indicates config file not found
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalid indicates config file is malformed
	ErrConfigInvalid = errors.New("invalid config")
)

// ListError reports a failed listing of one remote directory.
// Subtrees already enumerated before the failure stay valid.
type ListError struct {
	DirID   string
	DirName string
	Err     error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("listing %q (id %s) failed: %v", e.DirName, e.DirID, e.Err)
}

func (e *ListError) Unwrap() error {
	return e.Err
}

// PlanError indicates an inconsistent planner configuration.
// No task executes when planning fails.
type PlanError struct {
	Reason string
}

func (e *PlanError) Error() string {
	return "invalid download plan: " + e.Reason
}

// AccessError reports an auth or network failure opening a remote
// stream. It is task-level and subject to the retry policy.
type AccessError struct {
	FileID string
	Err    error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("cannot access remote file %s: %v", e.FileID, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

// CorruptTransferError reports a partial file larger than the remote
// size. The partial is discarded and the task fails without retry.
type CorruptTransferError struct {
	Path     string
	Expected int64
	Written  int64
}

func (e *CorruptTransferError) Error() string {
	return fmt.Sprintf("corrupt transfer %s: %d bytes written, expected %d", e.Path, e.Written, e.Expected)
}

// LocalIOError reports a local disk failure. The partial file is
// preserved unless the failure was on the partial itself.
type LocalIOError struct {
	Path string
	Err  error
}

func (e *LocalIOError) Error() string {
	return fmt.Sprintf("local I/O error on %s: %v", e.Path, e.Err)
}

func (e *LocalIOError) Unwrap() error {
	return e.Err
}

// IsListError checks if an error is a ListError
func IsListError(err error) bool {
	var le *ListError
	return errors.As(err, &le)
}

// IsPlanError checks if an error is a PlanError
func IsPlanError(err error) bool {
	var pe *PlanError
	return errors.As(err, &pe)
}

// IsCorruptTransfer checks if an error is a CorruptTransferError
func IsCorruptTransfer(err error) bool {
	var ce *CorruptTransferError
	return errors.As(err, &ce)
}
