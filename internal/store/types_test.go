package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttemptQueryNormalize(t *testing.T) {
	assert.Equal(t, DefaultAttemptLimit, AttemptQuery{}.Normalize().Limit)
	assert.Equal(t, DefaultAttemptLimit, AttemptQuery{Limit: -3}.Normalize().Limit)
	assert.Equal(t, 10, AttemptQuery{Limit: 10}.Normalize().Limit)
	assert.Equal(t, MaxAttemptLimit, AttemptQuery{Limit: 10_000}.Normalize().Limit)
}
