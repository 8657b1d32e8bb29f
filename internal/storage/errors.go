package storage

import "errors"

var (
	ErrQdrantUnreachable  = errors.New("qdrant server unreachable")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrDimensionMismatch  = errors.New("embedding dimension mismatch")
	ErrEmptyStore         = errors.New("vector store is empty")

	ErrIncompleteCollection = errors.New("collection publish incomplete")
)
