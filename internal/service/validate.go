package service

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var hhmmPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// NewValidator returns a validator with the clinic's custom tags registered.
// All services share one instance wired from the composition root.
func NewValidator() *validator.Validate {
	v := validator.New()
	RegisterCustomValidations(v)
	return v
}

// RegisterCustomValidations installs the hhmm tag used on slot boundaries.
// Times are 24-hour and zero-padded, so "9:00" is rejected.
func RegisterCustomValidations(v *validator.Validate) {
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return hhmmPattern.MatchString(fl.Field().String())
	})
}
