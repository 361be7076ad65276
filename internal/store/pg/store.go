package pg

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"waphone/internal/audit"
	"waphone/internal/store"
)

//go:embed schema.sql
var schema string

type Store struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store { return &Store{DB: db} }

// EnsureSchema creates the delivery log table when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.Exec(ctx, schema)
	return err
}

func (s *Store) Ping(ctx context.Context) error { return s.DB.Ping(ctx) }

func (s *Store) InsertDeliveryAttempt(ctx context.Context, in store.DeliveryAttempt) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
		INSERT INTO delivery_attempts (message_id, phone, provider, kind, body, status, detail, fallback, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,COALESCE($9, now()))
		RETURNING id
	`, in.MessageID, in.Phone, in.Provider, in.Kind, in.Body, in.Status, nullIfEmpty(in.Detail), in.Fallback, nullIfZero(in)).Scan(&id)
	return id, err
}

// Record implements audit.Sink.
func (s *Store) Record(ctx context.Context, e audit.Entry) error {
	_, err := s.InsertDeliveryAttempt(ctx, store.DeliveryAttempt{
		MessageID: e.MessageID,
		Phone:     e.Phone,
		Provider:  e.Provider,
		Kind:      string(e.Kind),
		Body:      e.Body,
		Status:    e.Status,
		Detail:    e.Detail,
		Fallback:  e.Fallback,
		CreatedAt: e.At,
	})
	if err != nil {
		return fmt.Errorf("insert delivery attempt: %w", err)
	}
	return nil
}

// ListAttempts returns the newest attempts first.
func (s *Store) ListAttempts(ctx context.Context, q store.AttemptQuery) ([]store.DeliveryAttempt, error) {
	q = q.Normalize()
	query, args := buildListQuery(q)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.DeliveryAttempt, error) {
		var a store.DeliveryAttempt
		err := row.Scan(&a.ID, &a.MessageID, &a.Phone, &a.Provider, &a.Kind, &a.Body, &a.Status, &a.Detail, &a.Fallback, &a.CreatedAt)
		return a, err
	})
}

func buildListQuery(q store.AttemptQuery) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(col, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		where = append(where, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	add("phone", q.Phone)
	add("provider", q.Provider)
	add("status", q.Status)

	var b strings.Builder
	b.WriteString(`SELECT id, message_id, phone, provider, kind, body, status, COALESCE(detail,''), fallback, created_at FROM delivery_attempts`)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	args = append(args, q.Limit)
	fmt.Fprintf(&b, " ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))
	return b.String(), args
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZero(a store.DeliveryAttempt) any {
	if a.CreatedAt.IsZero() {
		return nil
	}
	return a.CreatedAt
}
