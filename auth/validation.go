package auth

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator checks request parameters against their struct tags
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new Validator instance. Field names in errors use
// the json tag so messages match the wire names.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate returns a *ValidationError when s breaks any rule
func (v *Validator) Validate(s any) error {
	if err := v.validate.Struct(s); err != nil {
		return newValidationError(err)
	}
	return nil
}

type LoginParameters struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignupParameters struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
}

type VerifyOTPParameters struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type EmailParameters struct {
	Email string `json:"email" validate:"required,email"`
}

type RefreshParameters struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}
