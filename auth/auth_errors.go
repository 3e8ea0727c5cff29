package auth

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	marketerrors "github.com/jrsteele09/go-market-client/internal/errors"
)

// ValidationError lists the fields of a request that failed validation
type ValidationError struct {
	Fields []string
	msg    string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func (e *ValidationError) Unwrap() error {
	return marketerrors.ErrInvalidRequest
}

func newValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(marketerrors.ErrInvalidRequest, err.Error())
	}

	fields := make([]string, 0, len(fieldErrs))
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field())
		msgs = append(msgs, fieldMessage(fe))
	}
	return &ValidationError{Fields: fields, msg: strings.Join(msgs, "; ")}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "len":
		return fe.Field() + " must be " + fe.Param() + " characters"
	case "numeric":
		return fe.Field() + " must be numeric"
	default:
		return fe.Field() + " is invalid"
	}
}
