// Package utils provides common utility functions for the relation-manager application.
// It includes helper functions for type conversion, such as normalizing loosely typed
// identifiers and flags coming from JSON payloads or query strings.
package utils
