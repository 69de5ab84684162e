package tool

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

func GenerateRandomUUID() string {
	return uuid.New().String()
}

// GenerateBatchID returns a short id for batch URLs, falling back to a UUID prefix.
func GenerateBatchID() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return GenerateRandomUUID()[:12]
	}
	return hex.EncodeToString(b)
}
