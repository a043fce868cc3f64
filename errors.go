package tipotest

import (
	"errors"
	"fmt"
)

// ErrModuleNotFound is returned when a module has no stored questions.
var ErrModuleNotFound = errors.New("module not found or has no questions")

// ValidationError marks a malformed request. The API layer maps it to 400,
// everything else that goes wrong maps to 500.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
