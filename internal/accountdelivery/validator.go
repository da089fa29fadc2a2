package accountdelivery

import (
	"github.com/go-playground/validator/v10"
)

const accountNumberLength = 10

// ValidAccountNumber validates that the field is a well-formed account number:
// a fixed-length string of digits.
var ValidAccountNumber validator.Func = func(fl validator.FieldLevel) bool {
	number, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	if len(number) != accountNumberLength {
		return false
	}

	for _, r := range number {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
