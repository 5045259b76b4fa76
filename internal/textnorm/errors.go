package textnorm

import "errors"

var (
	ErrUnknownRule      = errors.New("unknown normalization rule")
	ErrUnknownProfile   = errors.New("unknown normalization profile")
	ErrEmptyProfileName = errors.New("profile name required")
)
