//go:build integration

package pg

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waphone/internal/audit"
	"waphone/internal/domain"
	"waphone/internal/store"
	"waphone/internal/util"
)

func TestRecordAndListAttempts(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := NewPool(ctx, dsn, PoolOptions{MaxConns: 2})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := New(pool)
	require.NoError(t, s.EnsureSchema(ctx))

	phone := "+2010" + time.Now().Format("150405000")
	msgID := util.NewMessageID()
	require.NoError(t, s.Record(ctx, audit.Entry{
		MessageID: msgID, Phone: phone, Provider: "ultramsg", Kind: domain.KindOTP,
		Body: "code", Status: audit.StatusFailed, Detail: "rejected",
	}))
	require.NoError(t, s.Record(ctx, audit.Entry{
		MessageID: msgID, Phone: phone, Provider: "dialog360", Kind: domain.KindOTP,
		Body: "code", Status: audit.StatusSuccess, Fallback: true,
	}))

	got, err := s.ListAttempts(ctx, store.AttemptQuery{Phone: phone})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "dialog360", got[0].Provider)
	assert.True(t, got[0].Fallback)
	assert.Equal(t, "", got[0].Detail)
	assert.Equal(t, "rejected", got[1].Detail)

	failed, err := s.ListAttempts(ctx, store.AttemptQuery{Phone: phone, Status: audit.StatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, msgID, failed[0].MessageID)
}
