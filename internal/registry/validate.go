package registry

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator builds a validator that reports field names by their json
// tag, so ValidationError speaks the API's vocabulary.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			// Fields hidden from JSON (e.g. password) still need a
			// client-facing name in validation errors.
			return strings.ToLower(fld.Name[:1]) + fld.Name[1:]
		}
		return name
	})
	return v
}
