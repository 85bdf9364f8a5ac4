package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New returns a fresh ULID string for a user_id. ULIDs sort by creation
// time, which keeps account records scannable in insertion order while
// still working as a DynamoDB partition key.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
