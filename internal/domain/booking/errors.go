package booking

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("booking not found")
	ErrConflict   = errors.New("date conflict with an existing accepted booking")

	ErrPropertyNotFound = fmt.Errorf("property: %w", ErrNotFound)
)
