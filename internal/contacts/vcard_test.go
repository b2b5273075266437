package contacts

import (
	"bytes"
	"strings"
	"testing"

	"github.com/emersion/go-vcard"
)

func TestToCard(t *testing.T) {
	card := ToCard(&Contact{Alias: "john", Email: "john@example.com", Notes: "college friend"})

	if got := card.Value(vcard.FieldVersion); got != "4.0" {
		t.Errorf("VERSION = %q, want 4.0", got)
	}
	if got := card.PreferredValue(vcard.FieldFormattedName); got != "john" {
		t.Errorf("FN = %q, want alias fallback", got)
	}
	if got := card.PreferredValue(vcard.FieldEmail); got != "john@example.com" {
		t.Errorf("EMAIL = %q", got)
	}
	if got := card.PreferredValue(vcard.FieldNote); got != "college friend" {
		t.Errorf("NOTE = %q", got)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src := newTestStore(t)
	for _, c := range []*Contact{
		{Alias: "john", Email: "john@example.com", Name: "John Smith"},
		{Alias: "mom", Email: "mom@example.com", Notes: "call on sundays"},
	} {
		if err := src.Add(c); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	var buf bytes.Buffer
	n, err := src.ExportVCard(&buf)
	if err != nil {
		t.Fatalf("ExportVCard: %v", err)
	}
	if n != 2 {
		t.Errorf("exported %d, want 2", n)
	}
	if got := strings.Count(buf.String(), "BEGIN:VCARD"); got != 2 {
		t.Errorf("stream has %d cards, want 2", got)
	}

	dst := newTestStore(t)
	if err := dst.Add(&Contact{Alias: "mom", Email: "mother@example.com"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	added, skipped, err := dst.ImportVCard(&buf)
	if err != nil {
		t.Fatalf("ImportVCard: %v", err)
	}
	if added != 1 || skipped != 1 {
		t.Errorf("added=%d skipped=%d, want 1 and 1", added, skipped)
	}

	john, _ := dst.Get("john")
	if john == nil || john.Name != "John Smith" {
		t.Errorf("imported john = %+v", john)
	}
	mom, _ := dst.Get("mom")
	if mom.Email != "mother@example.com" {
		t.Errorf("existing alias overwritten: %+v", mom)
	}
}

func TestImportAliasFromAddress(t *testing.T) {
	store := newTestStore(t)
	stream := "BEGIN:VCARD\r\nVERSION:4.0\r\nFN:Jane Doe\r\nEMAIL:jane.doe@example.com\r\nEND:VCARD\r\n" +
		"BEGIN:VCARD\r\nVERSION:4.0\r\nFN:No Mail\r\nEND:VCARD\r\n"

	added, skipped, err := store.ImportVCard(strings.NewReader(stream))
	if err != nil {
		t.Fatalf("ImportVCard: %v", err)
	}
	if added != 1 || skipped != 1 {
		t.Errorf("added=%d skipped=%d", added, skipped)
	}
	if got, _ := store.Get("jane.doe"); got == nil || got.Name != "Jane Doe" {
		t.Errorf("Get(jane.doe) = %+v", got)
	}
}
