// Package identity resolves who a participant is and carries that identity
// through the rest of a survey session.
package identity

import (
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntryParams are the recruitment query parameters, highest priority first.
var EntryParams = []string{"pid", "workerId", "PROLIFIC_PID"}

// Session is created once when a participant starts and passed to every
// component that writes data on their behalf.
type Session struct {
	ParticipantID string
	CredentialID  uint
	Authenticated bool
	BlockOrder    []string
}

// newUUID is swapped in tests to exercise the fallback.
var newUUID = uuid.NewRandom

// ResolveParticipantID returns the first non-blank entry parameter, or a
// freshly generated id.
func ResolveParticipantID(q url.Values) string {
	if v := QueryParticipantID(q); v != "" {
		return v
	}
	return GenerateID()
}

// QueryParticipantID returns the first non-blank entry parameter, or "" when
// the request carries none.
func QueryParticipantID(q url.Values) string {
	for _, key := range EntryParams {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			return v
		}
	}
	return ""
}

// GenerateID returns a random UUID. If the system random source fails it
// falls back to a pseudo-random string joined with the current time.
func GenerateID() string {
	id, err := newUUID()
	if err == nil {
		return id.String()
	}
	return fallbackID(time.Now())
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

func fallbackID(now time.Time) string {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteByte(base36[rand.IntN(len(base36))])
	}
	return fmt.Sprintf("p-%s-%d", b.String(), now.UnixMilli())
}
