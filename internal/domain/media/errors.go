package media

import "errors"

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	// ErrSourceMissing means a staged object is gone and was never copied.
	ErrSourceMissing = errors.New("staged object missing")
)
