package validate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// v is the package-level validator shared by all handlers. Registrations,
// if ever needed, must happen in init() before the first Struct call.
var v = validator.New()

// Struct checks the validate tags on a request DTO (RegisterRequest,
// VerifyEmailRequest, LoginRequest) and flattens any violations into a
// single readable message suitable for a 400 response body.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var msgs []string
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}
