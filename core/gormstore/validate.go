package gormstore

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report attributes under the names callers send them with
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func fieldMessage(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fmt.Sprintf("failed rule '%s'", fe.Tag())
	}
	return fmt.Sprintf("failed rule '%s': expected '%s', got '%v'", fe.Tag(), fe.Param(), fe.Value())
}
