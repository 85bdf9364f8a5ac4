package domain

import "time"

// OtpRecord is a pending verification code for an email address.
// PK: email — at most one live code per address; a new registration
// replaces the previous record via upsert.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL. TTL deletion is
// lazy, so readers must also treat expired records as absent.
type OtpRecord struct {
	Email     string    `json:"email" dynamodbav:"email"`
	Code      string    `json:"code" dynamodbav:"code"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	ExpiresAt int64     `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}
