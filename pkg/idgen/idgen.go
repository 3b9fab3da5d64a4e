// Package idgen provides ID generation utilities for the application.
package idgen

import (
	"github.com/rs/xid"
)

// NewID generates a new globally unique, sortable identifier.
// Returns a 20-character URL-safe string in xid format.
func NewID() string {
	return xid.New().String()
}

// NewExportID generates the identifier attached to a single export call.
func NewExportID() string {
	return "exp_" + NewID()
}

// NewRequestID generates a unique ID for request tracking.
func NewRequestID() string {
	return NewID()
}

// IsValidID reports whether s parses as an xid.
func IsValidID(s string) bool {
	_, err := xid.FromString(s)
	return err == nil
}
