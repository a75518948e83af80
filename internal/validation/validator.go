// Package validation holds input structs for form submissions and the rules
// that check them.
package validation

import "postline/internal/models"

// Messages shared by several forms.
const (
	MsgRequired      = "This field is required."
	MsgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
)

// Validator collects the first error reported for each form field.
type Validator struct {
	Errors map[string]string
}

// New returns an empty Validator.
func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid reports whether no errors were recorded.
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError records message for key unless key already has one.
func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

// Check records message for key when ok is false.
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// CheckErr records err's message for key when err is non-nil.
func (v *Validator) CheckErr(err error, key string) {
	if err != nil {
		v.AddError(key, err.Error())
	}
}

// Err converts the collected errors into a form error, or nil when valid.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	return models.NewFormError(v.Errors)
}
