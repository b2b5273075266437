package email

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Status is the delivery state of a logged attempt.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// LogEntry records one send attempt.
type LogEntry struct {
	ID        int64      `json:"id"`
	ToEmail   string     `json:"to_email"`
	ToAlias   string     `json:"to_alias,omitempty"`
	Subject   string     `json:"subject"`
	Body      string     `json:"body"`
	Status    Status     `json:"status"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}

// LogStore persists send attempts in SQLite.
type LogStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewLogStore creates a log store, running migrations on first use.
func NewLogStore(db *sql.DB) (*LogStore, error) {
	s := &LogStore{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate email logs: %w", err)
	}
	return s, nil
}

func (s *LogStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS email_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			to_email TEXT NOT NULL,
			to_alias TEXT NOT NULL DEFAULT '',
			subject TEXT NOT NULL,
			body TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			error TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			sent_at TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_email_logs_created ON email_logs(created_at);
	`)
	return err
}

// LogAttempt records a pending attempt and returns its id.
func (s *LogStore) LogAttempt(toEmail, toAlias, subject, body string) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO email_logs (to_email, to_alias, subject, body, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, toEmail, toAlias, subject, body, StatusPending, s.now().UTC().Format(timeFormat))
	if err != nil {
		return 0, fmt.Errorf("insert email log: %w", err)
	}
	return res.LastInsertId()
}

// MarkSent moves an attempt to sent and stamps SentAt.
func (s *LogStore) MarkSent(id int64) error {
	_, err := s.db.Exec(`UPDATE email_logs SET status = ?, sent_at = ? WHERE id = ?`,
		StatusSent, s.now().UTC().Format(timeFormat), id)
	return err
}

// MarkFailed moves an attempt to failed with the delivery error.
func (s *LogStore) MarkFailed(id int64, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := s.db.Exec(`UPDATE email_logs SET status = ?, error = ? WHERE id = ?`, StatusFailed, msg, id)
	return err
}

// Get returns one entry, or nil, nil when id is unknown.
func (s *LogStore) Get(id int64) (*LogEntry, error) {
	e, err := scanEntry(s.db.QueryRow(`SELECT `+logColumns+` FROM email_logs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

// List returns the most recent attempts first. A limit of zero or less
// returns up to 50.
func (s *LogStore) List(limit int) ([]*LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT `+logColumns+` FROM email_logs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*LogEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const logColumns = "id, to_email, to_alias, subject, body, status, error, created_at, sent_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (*LogEntry, error) {
	var e LogEntry
	var created string
	var sent sql.NullString
	if err := sc.Scan(&e.ID, &e.ToEmail, &e.ToAlias, &e.Subject, &e.Body, &e.Status, &e.Error, &created, &sent); err != nil {
		return nil, err
	}
	e.CreatedAt, _ = time.Parse(timeFormat, created)
	if sent.Valid {
		if t, err := time.Parse(timeFormat, sent.String); err == nil {
			e.SentAt = &t
		}
	}
	return &e, nil
}
