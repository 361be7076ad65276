package store

import "time"

// DeliveryAttempt is one row of the delivery log.
type DeliveryAttempt struct {
	ID        int64     `json:"id"`
	MessageID string    `json:"messageId"`
	Phone     string    `json:"phone"`
	Provider  string    `json:"provider"`
	Kind      string    `json:"kind"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	Fallback  bool      `json:"fallback"`
	CreatedAt time.Time `json:"createdAt"`
}

type AttemptQuery struct {
	Phone    string
	Provider string
	Status   string
	Limit    int
}

const (
	DefaultAttemptLimit = 50
	MaxAttemptLimit     = 500
)

// Normalize clamps Limit to (0, MaxAttemptLimit].
func (q AttemptQuery) Normalize() AttemptQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultAttemptLimit
	}
	if q.Limit > MaxAttemptLimit {
		q.Limit = MaxAttemptLimit
	}
	return q
}
