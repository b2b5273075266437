package tasks

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func setupTestStore(t *testing.T) *Store {
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

func TestStore_CreateTaskDefaults(t *testing.T) {
	store := setupTestStore(t)

	id, err := store.CreateTask("", "Buy milk on the way home")
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	got, err := store.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Buy milk on the way home" || got.Status != StatusPending || got.Priority != PriorityMedium {
		t.Errorf("task = %+v", got)
	}
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Errorf("Tags = %#v, want empty slice", got.Tags)
	}
}

func TestStore_CreateTaskTruncatesTitle(t *testing.T) {
	store := setupTestStore(t)
	long := strings.Repeat("é", 150)

	id, err := store.CreateTask(long, long)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	got, _ := store.Get(id)
	if n := len([]rune(got.Title)); n != MaxTitleLen {
		t.Errorf("title runes = %d, want %d", n, MaxTitleLen)
	}
	if got.Description != long {
		t.Error("description should be kept whole")
	}
}

func TestStore_CreateValidation(t *testing.T) {
	store := setupTestStore(t)

	if err := store.Create(&Task{Title: "  "}); err == nil {
		t.Error("empty title should fail")
	}
	if err := store.Create(&Task{Title: "x", Priority: "urgent"}); err == nil {
		t.Error("invalid priority should fail")
	}
	if err := store.Create(&Task{Title: "x", Status: "done"}); err == nil {
		t.Error("invalid status should fail")
	}
}

func TestStore_FindPending(t *testing.T) {
	store := setupTestStore(t)
	groceries, _ := store.CreateTask("Buy groceries", "")
	dentist, _ := store.CreateTask("Call the Dentist", "")
	store.CreateTask("50% off sale", "")

	tests := []struct {
		query  string
		wantID int64
	}{
		{"groceries", groceries},
		{"DENTIST", dentist},
		{"#" + itoa(dentist), dentist},
		{itoa(groceries), groceries},
		{"nothing like this", 0},
		{"", 0},
		{"_", 0},
	}
	for _, tt := range tests {
		got, err := store.FindPending(tt.query)
		if err != nil {
			t.Fatalf("FindPending(%q): %v", tt.query, err)
		}
		if tt.wantID == 0 {
			if got != nil {
				t.Errorf("FindPending(%q) = %+v, want nil", tt.query, got)
			}
			continue
		}
		if got == nil || got.ID != tt.wantID {
			t.Errorf("FindPending(%q) = %+v, want id %d", tt.query, got, tt.wantID)
		}
	}

	if _, err := store.Complete(groceries); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got, _ := store.FindPending("groceries"); got != nil {
		t.Error("completed task should not be found as pending")
	}
}

func TestStore_ListFilterAndOrder(t *testing.T) {
	store := setupTestStore(t)
	first, _ := store.CreateTask("first", "")
	store.CreateTask("second", "")
	store.CreateTask("third", "")
	store.Complete(first)

	all, err := store.List("", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].Title != "third" {
		t.Errorf("List() = %d tasks, first %q", len(all), all[0].Title)
	}

	pending, _ := store.List(StatusPending, 0)
	if len(pending) != 2 {
		t.Errorf("pending = %d, want 2", len(pending))
	}

	limited, _ := store.List("", 1)
	if len(limited) != 1 {
		t.Errorf("limited = %d, want 1", len(limited))
	}
}

func TestStore_UpdateAndDelete(t *testing.T) {
	store := setupTestStore(t)
	id, _ := store.CreateTask("draft report", "")

	title := "Final report"
	prio := PriorityHigh
	due := time.Date(2026, 4, 1, 17, 0, 0, 0, time.UTC)
	tags := []string{"work", "q2"}
	got, err := store.Update(id, Update{Title: &title, Priority: &prio, DueDate: &due, Tags: &tags})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Error("UpdatedAt should advance")
	}

	reloaded, _ := store.Get(id)
	if reloaded.Title != title || reloaded.Priority != PriorityHigh || len(reloaded.Tags) != 2 {
		t.Errorf("reloaded = %+v", reloaded)
	}
	if reloaded.DueDate == nil || !reloaded.DueDate.Equal(due) {
		t.Errorf("DueDate = %v, want %v", reloaded.DueDate, due)
	}

	bad := Status("archived")
	if _, err := store.Update(id, Update{Status: &bad}); err == nil {
		t.Error("invalid status update should fail")
	}

	if err := store.Delete(id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	var nf *ErrNotFound
	if _, err := store.Get(id); !errors.As(err, &nf) {
		t.Errorf("Get after delete error = %v, want *ErrNotFound", err)
	}
	if err := store.Delete(id); !errors.As(err, &nf) {
		t.Errorf("second Delete error = %v, want *ErrNotFound", err)
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
