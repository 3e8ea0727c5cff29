package market

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	marketerrors "github.com/jrsteele09/go-market-client/internal/errors"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// FormError reports invalid input before anything is sent
type FormError struct {
	Field   string
	Message string
}

func (e *FormError) Error() string {
	return e.Message
}

func (e *FormError) Unwrap() error {
	return marketerrors.ErrInvalidRequest
}

// validateForm returns a *FormError for the first rule s breaks
func validateForm(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.Wrap(marketerrors.ErrInvalidRequest, err.Error())
	}

	fe := fieldErrs[0]
	msg := fe.Field() + " is invalid"
	switch fe.Tag() {
	case "required":
		msg = fe.Field() + " is required"
	case "email":
		msg = "Please enter a valid email"
	case "min":
		if fe.Kind() == reflect.Slice {
			msg = "Please select at least " + fe.Param() + " image"
		} else {
			msg = fe.Field() + " must be at least " + fe.Param() + " characters"
		}
	case "max":
		msg = "Maximum " + fe.Param() + " images allowed"
	case "gt":
		msg = fe.Field() + " must be greater than " + fe.Param()
	case "len":
		msg = fe.Field() + " must be " + fe.Param() + " digits"
	case "latitude", "longitude":
		msg = "Please select a location."
	}
	return &FormError{Field: fe.Field(), Message: msg}
}

// ImageFile is a picture to upload
type ImageFile struct {
	Name        string
	ContentType string // detected from Data when empty
	Data        []byte
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

func (f ImageFile) contentType() string {
	if f.ContentType != "" {
		return f.ContentType
	}
	return http.DetectContentType(f.Data)
}

func validateImages(images []ImageFile) error {
	for _, img := range images {
		if len(img.Data) == 0 {
			return &FormError{Field: "images", Message: "Image " + img.Name + " is empty"}
		}
		if !allowedImageTypes[img.contentType()] {
			return &FormError{Field: "images", Message: "Only JPEG/PNG images allowed"}
		}
	}
	return nil
}
