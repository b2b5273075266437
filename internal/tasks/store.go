// Package tasks persists the user's to-do list in SQLite.
package tasks

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxTitleLen bounds titles derived from free-text descriptions.
const MaxTitleLen = 100

// timeFormat is fixed-width so stored timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

const taskColumns = "id, title, description, status, priority, due_date, tags, created_at, updated_at"

// Store manages task persistence.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a task store, running migrations on first use.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate tasks: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			priority TEXT NOT NULL DEFAULT 'medium',
			due_date TEXT,
			tags TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	`)
	return err
}

// CreateTask stores a pending, medium-priority task built from a
// free-text description and returns its ID. The title is the
// description truncated to [MaxTitleLen] runes.
func (s *Store) CreateTask(title, description string) (int64, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = strings.TrimSpace(description)
	}
	if r := []rune(title); len(r) > MaxTitleLen {
		title = string(r[:MaxTitleLen])
	}
	t := &Task{Title: title, Description: description}
	if err := s.Create(t); err != nil {
		return 0, err
	}
	return t.ID, nil
}

// Create persists t, filling in defaults, ID and timestamps.
func (s *Store) Create(t *Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("task title is required")
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if !t.Status.Valid() {
		return fmt.Errorf("invalid status %q", t.Status)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("invalid priority %q", t.Priority)
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	now := s.now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now

	tagsJSON, err := json.Marshal(t.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	res, err := s.db.Exec(`
		INSERT INTO tasks (title, description, status, priority, due_date, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.Title, t.Description, string(t.Status), string(t.Priority), formatTime(t.DueDate),
		string(tagsJSON), now.Format(timeFormat), now.Format(timeFormat))
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	t.ID, err = res.LastInsertId()
	return err
}

// Get returns the task with the given ID.
func (s *Store) Get(id int64) (*Task, error) {
	row := s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ErrNotFound{ID: id}
	}
	return t, err
}

// List returns tasks newest first, optionally filtered by status. A
// limit of zero or less returns up to 100 tasks.
func (s *Store) List(status Status, limit int) ([]*Task, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// FindPending finds a pending task by numeric ID or by a
// case-insensitive title substring. It returns nil, nil when nothing
// matches.
func (s *Store) FindPending(query string) (*Task, error) {
	query = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(query), "#"))
	if query == "" {
		return nil, nil
	}

	if id, err := strconv.ParseInt(query, 10, 64); err == nil {
		row := s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND status = ?`, id, string(StatusPending))
		t, err := scanTask(row)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	row := s.db.QueryRow(`
		SELECT `+taskColumns+` FROM tasks
		WHERE status = ? AND LOWER(title) LIKE ? ESCAPE '\'
		ORDER BY created_at ASC, id ASC LIMIT 1
	`, string(StatusPending), "%"+escapeLike(strings.ToLower(query))+"%")
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// Complete marks a task completed.
func (s *Store) Complete(id int64) (*Task, error) {
	status := StatusCompleted
	return s.Update(id, Update{Status: &status})
}

// Update applies u to the task with the given ID and returns the
// updated task.
func (s *Store) Update(id int64, u Update) (*Task, error) {
	t, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if u.Title != nil {
		if strings.TrimSpace(*u.Title) == "" {
			return nil, errors.New("task title is required")
		}
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Status != nil {
		if !u.Status.Valid() {
			return nil, fmt.Errorf("invalid status %q", *u.Status)
		}
		t.Status = *u.Status
	}
	if u.Priority != nil {
		if !u.Priority.Valid() {
			return nil, fmt.Errorf("invalid priority %q", *u.Priority)
		}
		t.Priority = *u.Priority
	}
	if u.DueDate != nil {
		t.DueDate = u.DueDate
	}
	if u.Tags != nil {
		t.Tags = *u.Tags
		if t.Tags == nil {
			t.Tags = []string{}
		}
	}
	t.UpdatedAt = s.now().UTC()

	tagsJSON, err := json.Marshal(t.Tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}

	_, err = s.db.Exec(`
		UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?,
			due_date = ?, tags = ?, updated_at = ?
		WHERE id = ?
	`, t.Title, t.Description, string(t.Status), string(t.Priority),
		formatTime(t.DueDate), string(tagsJSON), t.UpdatedAt.Format(timeFormat), id)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return t, nil
}

// Delete removes a task.
func (s *Store) Delete(id int64) error {
	res, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &ErrNotFound{ID: id}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(sc scanner) (*Task, error) {
	var (
		t                Task
		status, priority string
		due              sql.NullString
		tags             string
		created, updated string
	)
	if err := sc.Scan(&t.ID, &t.Title, &t.Description, &status, &priority, &due, &tags, &created, &updated); err != nil {
		return nil, err
	}
	t.Status = Status(status)
	t.Priority = Priority(priority)

	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil || t.Tags == nil {
		t.Tags = []string{}
	}
	if due.Valid && due.String != "" {
		if d, err := time.Parse(timeFormat, due.String); err == nil {
			t.DueDate = &d
		}
	}
	t.CreatedAt, _ = time.Parse(timeFormat, created)
	t.UpdatedAt, _ = time.Parse(timeFormat, updated)
	return &t, nil
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeFormat)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
