package executor

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingContent means a write-type tool received empty or absent content.
	ErrMissingContent = errors.New("missing content")
	// ErrUnsupportedContent means content has a shape the tool cannot write.
	ErrUnsupportedContent = errors.New("unsupported content")
)

// FilesystemError wraps a failed directory creation, write or read-back.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }
