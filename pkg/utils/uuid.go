package utils

import "github.com/google/uuid"

// GenerateUUID returns a random (version 4) UUID string.
func GenerateUUID() string {
	return uuid.NewString()
}

// ShortID is the first eight hex digits of a fresh UUID, for file names.
func ShortID() string {
	return GenerateUUID()[:8]
}
