// Package apperr defines the error kinds shared by the explorer core and its callers.
package apperr

import "errors"

var (
	ErrAccessDenied  = errors.New("access denied")
	ErrNotADirectory = errors.New("not a directory")
	ErrNotAFile      = errors.New("not a file")
	ErrIO            = errors.New("io error")
	ErrBadRequest    = errors.New("bad request")
)

// Error kinds reported to callers alongside the message.
const (
	KindAccessDenied  = "access_denied"
	KindNotADirectory = "not_a_directory"
	KindNotAFile      = "not_a_file"
	KindIO            = "io_error"
	KindBadRequest    = "bad_request"
	KindInternal      = "internal"
)

// Kind classifies err into one of the Kind* constants.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrAccessDenied):
		return KindAccessDenied
	case errors.Is(err, ErrNotADirectory):
		return KindNotADirectory
	case errors.Is(err, ErrNotAFile):
		return KindNotAFile
	case errors.Is(err, ErrIO):
		return KindIO
	case errors.Is(err, ErrBadRequest):
		return KindBadRequest
	default:
		return KindInternal
	}
}

// Message is the text shown to clients for err. It never includes the
// wrapped detail, which can carry absolute host paths. IO failures read as
// access denied.
func Message(err error) string {
	switch Kind(err) {
	case KindAccessDenied, KindIO:
		return "Access denied"
	case KindNotADirectory:
		return "Not a directory"
	case KindNotAFile:
		return "Not a file"
	case KindBadRequest:
		return "Bad request"
	default:
		return "internal error"
	}
}
