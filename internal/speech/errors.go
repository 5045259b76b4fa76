package speech

import (
	"errors"
	"fmt"
)

var (
	ErrNoChunks       = errors.New("speech: no chunks to speak")
	ErrSequenceActive = errors.New("speech: a sequence is already playing")
	ErrNilEngine      = errors.New("speech: nil engine")
)

// ChunkError wraps an engine failure with the index of the chunk being spoken.
type ChunkError struct {
	Index int
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("speech: chunk %d: %v", e.Index, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }
