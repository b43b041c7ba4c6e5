package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrTemporary         = errors.New("temporary failure")
	ErrEmptyDocument     = errors.New("document has no extractable text")
	ErrIndexNotBuilt     = errors.New("index not built")
	ErrRebuildInProgress = errors.New("index rebuild already in progress")
	ErrEmbeddingFailure  = errors.New("embedding failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
