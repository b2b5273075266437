// Package contacts stores short aliases for the people the user mails,
// so "email john" can be resolved to an address.
package contacts

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

const contactColumns = "alias, email, name, notes, created_at, updated_at"

// timeFormat is fixed-width so stored timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Contact maps an alias to an email address.
type Contact struct {
	Alias     string    `json:"alias"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Update lists the fields to change on a contact. Nil or empty fields
// are left alone.
type Update struct {
	Email *string `json:"email,omitempty"`
	Name  *string `json:"name,omitempty"`
	Notes *string `json:"notes,omitempty"`
}

// ErrAliasExists is returned when adding an alias that is taken.
type ErrAliasExists struct {
	Alias string
	Email string
}

// Error implements the error interface.
func (e *ErrAliasExists) Error() string {
	return fmt.Sprintf("alias %q already exists for %s", e.Alias, e.Email)
}

// ErrNotFound is returned when no contact has the alias.
type ErrNotFound struct {
	Alias string
}

// Error implements the error interface.
func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("contact %q not found", e.Alias)
}

// NormalizeAlias lower-cases and trims an alias. Aliases are unique in
// this form.
func NormalizeAlias(alias string) string {
	return strings.ToLower(strings.TrimSpace(alias))
}

// ValidateEmail checks that addr is a single bare address.
func ValidateEmail(addr string) error {
	a, err := mail.ParseAddress(addr)
	if err != nil {
		return fmt.Errorf("invalid email address %q: %w", addr, err)
	}
	if a.Address != strings.TrimSpace(addr) {
		return fmt.Errorf("invalid email address %q", addr)
	}
	return nil
}

// Store manages contact persistence in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a contact store, running migrations on first use.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate contacts: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS contacts (
			alias TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	return err
}

// Add stores a new contact. The alias is normalized first.
func (s *Store) Add(c *Contact) error {
	c.Alias = NormalizeAlias(c.Alias)
	c.Email = strings.TrimSpace(c.Email)
	if c.Alias == "" {
		return errors.New("alias is required")
	}
	if err := ValidateEmail(c.Email); err != nil {
		return err
	}

	existing, err := s.Get(c.Alias)
	if err != nil {
		return err
	}
	if existing != nil {
		return &ErrAliasExists{Alias: c.Alias, Email: existing.Email}
	}

	now := s.now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	_, err = s.db.Exec(`
		INSERT INTO contacts (alias, email, name, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.Alias, c.Email, c.Name, c.Notes, now.Format(timeFormat), now.Format(timeFormat))
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

// Get returns the contact for alias, or nil, nil when there is none.
func (s *Store) Get(alias string) (*Contact, error) {
	row := s.db.QueryRow(`SELECT `+contactColumns+` FROM contacts WHERE alias = ?`, NormalizeAlias(alias))
	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// List returns contacts ordered by alias. A limit of zero or less
// returns up to 50.
func (s *Store) List(limit int) ([]*Contact, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT `+contactColumns+` FROM contacts ORDER BY alias ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update changes the given fields of an existing contact.
func (s *Store) Update(alias string, u Update) (*Contact, error) {
	c, err := s.Get(alias)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &ErrNotFound{Alias: NormalizeAlias(alias)}
	}

	if u.Email != nil && strings.TrimSpace(*u.Email) != "" {
		email := strings.TrimSpace(*u.Email)
		if err := ValidateEmail(email); err != nil {
			return nil, err
		}
		c.Email = email
	}
	if u.Name != nil && *u.Name != "" {
		c.Name = *u.Name
	}
	if u.Notes != nil && *u.Notes != "" {
		c.Notes = *u.Notes
	}
	c.UpdatedAt = s.now().UTC()

	_, err = s.db.Exec(`
		UPDATE contacts SET email = ?, name = ?, notes = ?, updated_at = ? WHERE alias = ?
	`, c.Email, c.Name, c.Notes, c.UpdatedAt.Format(timeFormat), c.Alias)
	if err != nil {
		return nil, fmt.Errorf("update contact: %w", err)
	}
	return c, nil
}

// Delete removes a contact.
func (s *Store) Delete(alias string) error {
	alias = NormalizeAlias(alias)
	res, err := s.db.Exec(`DELETE FROM contacts WHERE alias = ?`, alias)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &ErrNotFound{Alias: alias}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContact(sc scanner) (*Contact, error) {
	var c Contact
	var created, updated string
	if err := sc.Scan(&c.Alias, &c.Email, &c.Name, &c.Notes, &created, &updated); err != nil {
		return nil, err
	}
	c.CreatedAt, _ = time.Parse(timeFormat, created)
	c.UpdatedAt, _ = time.Parse(timeFormat, updated)
	return &c, nil
}
