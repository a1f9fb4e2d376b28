package search

import "errors"

var (
	errTooLarge = errors.New("file too large")
	errNotText  = errors.New("file is not valid UTF-8 text")
)
