// Package spool provides the PostgreSQL-backed notification spool: the
// key-value store boundary that turns the core's deterministic notification
// identifiers into at-most-once delivery. Deduplication is a plain
// INSERT ... ON CONFLICT DO NOTHING on the identifier; concurrent workers
// need no coordination beyond that.
package spool

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"relaypoint/internal/notify"
	"relaypoint/internal/types"
)

// DBTX is the minimal interface shared by *pgxpool.Pool and pgx.Tx. The
// store accepts this so the same code works inside or outside a
// transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Record is a spooled notification as read back from the store.
type Record struct {
	ID        string
	MessageID string
	Subject   string
	To        string
	Body      string
	CreatedAt time.Time
	SentAt    *time.Time
}

// Store persists rendered notifications keyed by their composite
// identifier.
type Store struct {
	db DBTX
}

// NewStore creates a Store backed by the given database connection (pool
// or transaction).
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

// Put spools a rendered notification. The insert is idempotent: a second
// Put with the same notification ID is a no-op, however much the envelope
// content differs. Returns whether the row was newly created — false means
// another pipeline run already claimed this identifier and the caller must
// not hand the envelope to the transport.
func (s *Store) Put(ctx context.Context, n *notify.Notification, env notify.Envelope) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`INSERT INTO notifications
		 (id, object_list, subscription, message_id, subject, recipients, body, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		 ON CONFLICT (id) DO NOTHING`,
		n.ID(),
		n.ObjectList(),
		n.Subscription(),
		env.MessageID,
		env.Subject,
		env.To,
		env.Body,
	)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to spool notification", err)
	}

	// Reporting duplicates is the caller's concern; the store just says
	// whether the row is new.
	return tag.RowsAffected() == 1, nil
}

// MarkSent stamps a spooled notification as handed to the transport.
// Idempotent: marking an already-sent or unknown notification reports
// updated=false without error.
func (s *Store) MarkSent(ctx context.Context, id string, at time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE notifications SET sent_at = $2 WHERE id = $1 AND sent_at IS NULL`,
		id, at,
	)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to mark notification sent", err)
	}
	return tag.RowsAffected() == 1, nil
}

// LoadUnsent returns up to limit spooled notifications not yet handed to
// the transport, oldest first. Used by the re-drive path after transport
// outages.
func (s *Store) LoadUnsent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, message_id, subject, recipients, body, created_at, sent_at
		 FROM notifications
		 WHERE sent_at IS NULL
		 ORDER BY created_at
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to load unsent notifications", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.MessageID, &r.Subject, &r.To, &r.Body, &r.CreatedAt, &r.SentAt); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan spool record", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate spool records", err)
	}
	return records, nil
}
