package rag

import (
	"errors"
	"fmt"
)

// Stage names the pipeline step a failure came from.
type Stage string

const (
	StageEmbedding  Stage = "embedding"
	StageGeneration Stage = "generation"
)

// StageError is a failed exchange. It unwraps to the classified cause,
// usually a *domain.ProviderError.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Tag(), e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Tag returns "embedding-error" or "generation-error".
func (e *StageError) Tag() string {
	return string(e.Stage) + "-error"
}

// StageOf reports the failing stage carried by err, if any.
func StageOf(err error) (Stage, bool) {
	var serr *StageError
	if errors.As(err, &serr) {
		return serr.Stage, true
	}
	return "", false
}
