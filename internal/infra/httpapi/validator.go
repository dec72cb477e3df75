package httpapi

import "github.com/go-playground/validator/v10"

// requestValidator plugs go-playground/validator into echo's Context.Validate.
type requestValidator struct {
	v *validator.Validate
}

func newRequestValidator() *requestValidator {
	return &requestValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (rv *requestValidator) Validate(i any) error {
	return rv.v.Struct(i)
}
