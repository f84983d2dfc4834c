package tool

import (
	"github.com/google/uuid"
)

func GenerateRandomUUID() string {
	return uuid.New().String()
}

// GenerateSessionID returns a short id for a transfer session, enough to tell sessions apart in logs.
func GenerateSessionID() string {
	return GenerateRandomUUID()[:8]
}
