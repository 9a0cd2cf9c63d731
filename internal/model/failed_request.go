package model

import "time"

// FailedRequestRecord is an append-only audit row for an outbound request
// that did not succeed.
type FailedRequestRecord struct {
	ID            int64      `json:"entity_id"`
	Endpoint      string     `json:"endpoint"`
	Method        string     `json:"method"`
	Headers       string     `json:"headers"`
	Payload       string     `json:"payload"`
	Error         string     `json:"error"`
	RetryCount    int        `json:"retry_count"`
	Status        int        `json:"status"`
	NextAttemptAt *time.Time `json:"next_attempt_at"`
	CreatedAt     time.Time  `json:"created_at"`
}
