// Package store keeps the responder's optional invocation history and
// address book in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"kudubot/internal/domain"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements domain.InvocationStore using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

var _ domain.InvocationStore = (*SQLiteStore)(nil)

func NewSQLiteStore(dbPath string, logger zerolog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	// The host may have the same file open; wait instead of failing on a lock.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := RunMigrations(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *SQLiteStore) UpsertContact(ctx context.Context, c domain.Contact) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO responder_contacts (database_id, display_name, address, last_seen)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(database_id) DO UPDATE SET
			display_name = excluded.display_name,
			address      = excluded.address,
			last_seen    = excluded.last_seen`,
		c.DatabaseID, c.DisplayName, c.Address, s.now(),
	)
	return err
}

// GetContact returns nil, nil when the contact is unknown.
func (s *SQLiteStore) GetContact(ctx context.Context, databaseID int64) (*domain.ContactRecord, error) {
	var rec domain.ContactRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT database_id, display_name, address, last_seen FROM responder_contacts WHERE database_id = ?`, databaseID,
	).Scan(&rec.DatabaseID, &rec.DisplayName, &rec.Address, &rec.LastSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *SQLiteStore) RecordInvocation(ctx context.Context, rec domain.InvocationRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	var groupID sql.NullInt64
	if rec.GroupID != nil {
		groupID = sql.NullInt64{Int64: *rec.GroupID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO responder_invocations (mode, sender_id, group_id, message_body, outcome, rule, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Mode, rec.SenderID, groupID, rec.MessageBody, rec.Outcome, rec.Rule, rec.CreatedAt,
	)
	return err
}

// RecentInvocations returns the newest invocations first.
func (s *SQLiteStore) RecentInvocations(ctx context.Context, limit int) ([]domain.InvocationRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, sender_id, group_id, message_body, outcome, rule, created_at
		 FROM responder_invocations ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []domain.InvocationRecord
	for rows.Next() {
		var r domain.InvocationRecord
		var groupID sql.NullInt64
		var rule sql.NullString
		if err := rows.Scan(&r.ID, &r.Mode, &r.SenderID, &groupID, &r.MessageBody, &r.Outcome, &rule, &r.CreatedAt); err != nil {
			return nil, err
		}
		if groupID.Valid {
			id := groupID.Int64
			r.GroupID = &id
		}
		r.Rule = rule.String
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
