package domain

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	idMu      sync.Mutex
	idEntropy = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a lexicographically sortable identifier made of a millisecond
// timestamp and a random suffix. IDs generated within the same millisecond
// are strictly increasing.
func NewID() string {
	return NewIDAt(time.Now().UTC())
}

// NewIDAt is NewID with an explicit timestamp.
func NewIDAt(t time.Time) string {
	idMu.Lock()
	defer idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), idEntropy).String()
}

// IDTime extracts the timestamp embedded in an id produced by NewID.
// It returns the zero time for malformed ids.
func IDTime(id string) time.Time {
	u, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}
