// Package id generates run identifiers.
package id

import (
	"fmt"

	"github.com/google/uuid"
)

// NewRunID returns a UUIDv7 so run identifiers sort by start time in the
// listings table and the archive.
func NewRunID() (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("generate uuid7: %w", err)
	}
	return id, nil
}
