package validator

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator checks request DTOs against their struct tags. It is
// registered on the echo instance at startup, so handlers call
// c.Validate(&req) after binding.
type CustomValidator struct {
	v *validator.Validate
}

// New creates the validator registered as echo's Validator.
func New() *CustomValidator {
	v := validator.New()
	return &CustomValidator{v: v}
}

// Validate implements echo.Validator.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}
