package pkg

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const idBytes = 8

// GenerateID returns a random hex identifier for a run.
func GenerateID() (string, error) {
	buf := make([]byte, idBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
