package contextutils

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// IsValidEmail reports whether addr parses as an email address.
func IsValidEmail(addr string) bool {
	return validate.Var(addr, "email") == nil
}
