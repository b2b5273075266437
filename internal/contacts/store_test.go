package contacts

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store, err := NewStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return store
}

func TestAddAndGet(t *testing.T) {
	store := newTestStore(t)

	c := &Contact{Alias: "  John ", Email: "john@example.com", Name: "John Smith"}
	if err := store.Add(c); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if c.Alias != "john" {
		t.Errorf("Alias = %q, want normalized %q", c.Alias, "john")
	}

	got, err := store.Get("JOHN")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil for existing alias")
	}
	if got.Email != "john@example.com" || got.Name != "John Smith" {
		t.Errorf("got %+v", got)
	}
	if got.CreatedAt.IsZero() || !got.CreatedAt.Equal(got.UpdatedAt) {
		t.Errorf("timestamps = %v / %v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestGetMissing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Get("nobody")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("Get = %+v, want nil", got)
	}
}

func TestAddDuplicateAlias(t *testing.T) {
	store := newTestStore(t)

	if err := store.Add(&Contact{Alias: "john", Email: "john@example.com"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	err := store.Add(&Contact{Alias: "John", Email: "other@example.com"})

	var exists *ErrAliasExists
	if !errors.As(err, &exists) {
		t.Fatalf("err = %v, want *ErrAliasExists", err)
	}
	if exists.Email != "john@example.com" {
		t.Errorf("ErrAliasExists.Email = %q, want existing address", exists.Email)
	}
}

func TestAddValidation(t *testing.T) {
	tests := []struct {
		name  string
		alias string
		email string
	}{
		{"empty alias", " ", "a@example.com"},
		{"bad email", "a", "not-an-address"},
		{"display name", "a", "Alice <a@example.com>"},
		{"empty email", "a", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			if err := store.Add(&Contact{Alias: tt.alias, Email: tt.email}); err == nil {
				t.Error("Add succeeded, want error")
			}
		})
	}
}

func TestListOrderedByAlias(t *testing.T) {
	store := newTestStore(t)
	for _, alias := range []string{"zoe", "adam", "mike"} {
		if err := store.Add(&Contact{Alias: alias, Email: alias + "@example.com"}); err != nil {
			t.Fatalf("Add %s: %v", alias, err)
		}
	}

	list, err := store.List(0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"adam", "mike", "zoe"}
	if len(list) != len(want) {
		t.Fatalf("List returned %d contacts, want %d", len(list), len(want))
	}
	for i, c := range list {
		if c.Alias != want[i] {
			t.Errorf("list[%d] = %q, want %q", i, c.Alias, want[i])
		}
	}

	limited, err := store.List(2)
	if err != nil {
		t.Fatalf("List(2): %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("List(2) returned %d", len(limited))
	}
}

func TestUpdate(t *testing.T) {
	store := newTestStore(t)
	if err := store.Add(&Contact{Alias: "john", Email: "john@example.com", Name: "John"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	email := "john.smith@example.com"
	empty := ""
	got, err := store.Update("john", Update{Email: &email, Name: &empty})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Email != email {
		t.Errorf("Email = %q, want %q", got.Email, email)
	}
	if got.Name != "John" {
		t.Errorf("Name = %q, empty update should leave it unchanged", got.Name)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Errorf("UpdatedAt %v not after CreatedAt %v", got.UpdatedAt, got.CreatedAt)
	}

	reread, _ := store.Get("john")
	if reread.Email != email {
		t.Errorf("persisted Email = %q", reread.Email)
	}

	bad := "nope"
	if _, err := store.Update("john", Update{Email: &bad}); err == nil {
		t.Error("Update with invalid email succeeded")
	}

	var notFound *ErrNotFound
	if _, err := store.Update("ghost", Update{Email: &email}); !errors.As(err, &notFound) {
		t.Errorf("Update missing = %v, want *ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	if err := store.Add(&Contact{Alias: "john", Email: "john@example.com"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := store.Delete("John"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := store.Get("john"); got != nil {
		t.Error("contact still present after delete")
	}

	var notFound *ErrNotFound
	if err := store.Delete("john"); !errors.As(err, &notFound) {
		t.Errorf("second Delete = %v, want *ErrNotFound", err)
	}
}
