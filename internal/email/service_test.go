package email

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/nugget/bob-assistant/internal/contacts"
	_ "modernc.org/sqlite"
)

type fakeResolver map[string]*contacts.Contact

func (f fakeResolver) Get(alias string) (*contacts.Contact, error) {
	return f[contacts.NormalizeAlias(alias)], nil
}

type sentMail struct {
	from       string
	recipients []string
	msg        []byte
}

func newTestService(t *testing.T, sendErr error) (*Service, *LogStore, *[]sentMail) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	logs, err := NewLogStore(db)
	if err != nil {
		t.Fatalf("NewLogStore: %v", err)
	}
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	logs.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	resolver := fakeResolver{
		"john": {Alias: "john", Email: "john@example.com"},
	}
	svc := NewService(SMTPConfig{Host: "smtp.example.com", Port: 587, StartTLS: true},
		"Bob <bob@example.com>", resolver, logs, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var sent []sentMail
	svc.send = func(_ context.Context, _ SMTPConfig, from string, rcpts []string, msg []byte) error {
		if sendErr != nil {
			return sendErr
		}
		sent = append(sent, sentMail{from: from, recipients: rcpts, msg: msg})
		return nil
	}
	return svc, logs, &sent
}

func TestSendResolvesAlias(t *testing.T) {
	svc, logs, sent := newTestService(t, nil)

	d, err := svc.Send(context.Background(), "John", "Hi", "Hello there")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if d.To != "john@example.com" || d.Alias != "john" {
		t.Errorf("delivery = %+v", d)
	}
	if len(*sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(*sent))
	}
	if got := (*sent)[0]; got.from != "bob@example.com" || got.recipients[0] != "john@example.com" {
		t.Errorf("envelope = %s -> %v", got.from, got.recipients)
	}

	entry, err := logs.Get(d.LogID)
	if err != nil || entry == nil {
		t.Fatalf("Get log: %v, %v", entry, err)
	}
	if entry.Status != StatusSent || entry.SentAt == nil || entry.ToAlias != "john" {
		t.Errorf("log entry = %+v", entry)
	}
}

func TestSendDirectAddress(t *testing.T) {
	svc, _, sent := newTestService(t, nil)

	d, err := svc.Send(context.Background(), "jane@example.com", "Hi", "Hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if d.Alias != "" || (*sent)[0].recipients[0] != "jane@example.com" {
		t.Errorf("delivery = %+v, sent = %+v", d, *sent)
	}
}

func TestSendUnknownAlias(t *testing.T) {
	svc, logs, sent := newTestService(t, nil)

	_, err := svc.Send(context.Background(), "ghost", "Hi", "Hello")
	var unknown *ErrUnknownAlias
	if !errors.As(err, &unknown) || unknown.Alias != "ghost" {
		t.Fatalf("err = %v, want *ErrUnknownAlias for ghost", err)
	}
	if len(*sent) != 0 {
		t.Error("message sent for unknown alias")
	}
	if entries, _ := logs.List(0); len(entries) != 0 {
		t.Errorf("logged %d attempts for unresolved recipient", len(entries))
	}
}

func TestSendFailureIsLogged(t *testing.T) {
	svc, logs, _ := newTestService(t, errors.New("535 authentication failed"))

	if _, err := svc.Send(context.Background(), "john", "Hi", "Hello"); err == nil {
		t.Fatal("Send succeeded, want error")
	}
	entries, err := logs.List(0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Status != StatusFailed || e.Error != "535 authentication failed" || e.SentAt != nil {
		t.Errorf("entry = %+v", e)
	}
}

func TestSendNotConfigured(t *testing.T) {
	svc := NewService(SMTPConfig{}, "", nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if _, err := svc.Send(context.Background(), "a@example.com", "s", "b"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestLogListNewestFirst(t *testing.T) {
	_, logs, _ := newTestService(t, nil)
	for _, subj := range []string{"first", "second", "third"} {
		if _, err := logs.LogAttempt("a@example.com", "", subj, "body"); err != nil {
			t.Fatalf("LogAttempt: %v", err)
		}
	}

	entries, err := logs.List(2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 || entries[0].Subject != "third" || entries[1].Subject != "second" {
		t.Errorf("entries = %+v", entries)
	}
	if entries[0].Status != StatusPending {
		t.Errorf("Status = %q, want pending", entries[0].Status)
	}
}
