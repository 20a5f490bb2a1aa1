package gormstore

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"relation-manager/core/reconcile"
)

var (
	// ErrUnknownType is returned for child or parent type names missing from the registry.
	ErrUnknownType = errors.New("unknown model type")
	// ErrUnknownRelation is returned when a model declares no relation of the given name.
	ErrUnknownRelation = errors.New("unknown relation")
	// ErrUnsupportedShape is returned when a relation cannot serve the requested operation.
	ErrUnsupportedShape = errors.New("unsupported relation shape")
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrNotModel is returned for values that do not embed Model.
	ErrNotModel = errors.New("value does not embed gormstore.Model")
	// ErrSchemaMismatch is returned when the live database lacks columns a relation needs.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ValidationError is returned by NoisySave and NoisyValidate when a model fails validation.
type ValidationError struct {
	Type   string
	Errors reconcile.FieldErrors
}

func (e *ValidationError) Error() string {
	attrs := make([]string, 0, len(e.Errors))
	for attr := range e.Errors {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)

	parts := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		parts = append(parts, fmt.Sprintf("%s: %s", attr, strings.Join(e.Errors[attr], ", ")))
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Type, strings.Join(parts, "; "))
}

// Is makes errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
