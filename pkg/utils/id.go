package utils

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateStudyID generates a study ID with a timestamp prefix
func GenerateStudyID() string {
	timestamp := time.Now().UTC().Format("20060102-150405")
	return fmt.Sprintf("study-%s-%s", timestamp, uuid.NewString()[:8])
}

// GenerateRequestID generates a request ID for API calls
func GenerateRequestID() string {
	return uuid.NewString()
}
