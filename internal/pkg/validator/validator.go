// Package validator reduces struct-tag validation failures to the
// field-to-reason map the response envelope carries as details.
package validator

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// Validate returns nil when v passes its struct tags, otherwise a map
// of failing field to the tag that rejected it.
func Validate(v any) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	out := make(map[string]string)
	for _, fe := range err.(validator.ValidationErrors) {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
