package service

import (
	"errors"
	"fmt"
	"strings"

	"event-site/internal/data"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = data.ErrNotFound
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrInconsistentTheme means a theme activation was rolled back because
	// it did not leave exactly one active theme.
	ErrInconsistentTheme = data.ErrInconsistentActiveTheme
	// ErrOrphanedUpload marks a failed database write that left already
	// stored files on disk. Those files are not cleaned up automatically.
	ErrOrphanedUpload = errors.New("uploaded files left without a record")
	// ErrInvalidCredentials is returned for any failed login.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// ValidationError carries a message that is safe to show to the user.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrValidation) true for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// check runs struct tag validation and converts failures into a single
// ValidationError.
func check(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return &ValidationError{Message: strings.Join(msgs, "; ")}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "email":
		return fe.Field() + " must be a valid email address"
	case "hexcolor", "len":
		return fe.Field() + " must be a color in #RRGGBB format"
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}
