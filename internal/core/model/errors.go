package model

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrExtractionFailure   = errors.New("failed to extract text")
	ErrNoContent           = errors.New("no content")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrStorePartialFailure = errors.New("store partial failure")
	ErrNotFound            = errors.New("not found")
)

const (
	StoreGraph    = "graph"
	StoreDocument = "document"
	StoreVector   = "vector"
)

// StoreError records which store failed during a multi-store operation.
type StoreError struct {
	Store string
	Op    string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store %s: %v", e.Store, e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStorePartialFailure, e.Err}
}
