package util

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewMessageID returns a sortable id for one outbound message. All attempts
// of a send, fallback included, share it.
func NewMessageID() string { return newID("msg_") }

// NewEventID identifies an order event on the queue.
func NewEventID() string { return newID("evt_") }

func newID(prefix string) string {
	return prefix + ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader).String()
}

func NowUTC() time.Time {
	return time.Now().UTC()
}

// MaskPhone keeps the last four digits, for logs.
func MaskPhone(p string) string {
	if len(p) <= 4 {
		return strings.Repeat("*", len(p))
	}
	return strings.Repeat("*", len(p)-4) + p[len(p)-4:]
}
