package database

import (
	"fmt"

	"github.com/google/uuid"
)

// generateID returns a random RFC 4122 version 4 identifier for a record.
func generateID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate record id: %w", err)
	}
	return id.String(), nil
}
