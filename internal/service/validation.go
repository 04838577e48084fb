package service

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	aadhaarPattern = regexp.MustCompile(`^[0-9]{12}$`)
	panPattern     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
)

// NewValidator returns a validator with the compliance formats registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("aadhaar", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return value == "" || aadhaarPattern.MatchString(value)
	})
	_ = v.RegisterValidation("pan", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return value == "" || panPattern.MatchString(value)
	})
	return v
}
