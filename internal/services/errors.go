package services

import "errors"

var (
	ErrNothingToSpeak    = errors.New("nothing to speak")
	ErrUnknownFormat     = errors.New("unknown output format")
	ErrSessionNotFound   = errors.New("narration session not found")
	ErrInvalidRecordKind = errors.New("invalid progress record kind")
	ErrStudentIDRequired = errors.New("student_id required")
	ErrInvalidTimeWindow = errors.New("since must be before until")
	ErrTextRequired      = errors.New("text required")
	ErrChunkSizeTooLarge = errors.New("max_chunk_size exceeds the configured limit")
	ErrInvalidScore      = errors.New("score and total must be non-negative")
)
