package booking

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("basic_email", func(fl validator.FieldLevel) bool {
		return LooksLikeEmail(fl.Field().String())
	})
	return v
}

// Contact holds the details typed into the booking form.
type Contact struct {
	Name  string `validate:"required"`
	Email string `validate:"required,basic_email"`
}

// Normalize trims surrounding whitespace from both fields.
func (c Contact) Normalize() Contact {
	return Contact{
		Name:  strings.TrimSpace(c.Name),
		Email: strings.TrimSpace(c.Email),
	}
}

// Validate returns the first failing field as a *ValidationError.
func (c Contact) Validate() error {
	err := validate.Struct(c.Normalize())
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	switch fieldErrs[0].StructField() {
	case "Name":
		return ErrMissingName
	default:
		return ErrInvalidEmail
	}
}

// LooksLikeEmail checks for a non-empty local part, an @ and a non-empty
// domain. Full RFC 5322 validation is left to the service.
func LooksLikeEmail(s string) bool {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	domain := s[at+1:]
	return strings.Trim(domain, ".") != ""
}
