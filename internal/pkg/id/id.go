package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. Issued recovery tokens carry one as token_id so a
// token can be traced in logs without logging the token itself.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
