// Package validator adapts go-playground/validator to echo's
// Validator interface so request DTO tags are enforced on Bind.
package validator

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps a shared validator.Validate instance.
type CustomValidator struct {
	v *validator.Validate
}

// New builds the validator echo uses for every bound request.
func New() *CustomValidator {
	return &CustomValidator{v: validator.New()}
}

// Validate checks the struct tags of a bound request payload.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}
