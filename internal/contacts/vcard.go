package contacts

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-vcard"
)

// ToCard converts a contact to a vCard 4.0 card. The alias is carried
// as the nickname.
func ToCard(c *Contact) vcard.Card {
	card := make(vcard.Card)
	name := c.Name
	if name == "" {
		name = c.Alias
	}
	card.SetValue(vcard.FieldFormattedName, name)
	card.SetValue(vcard.FieldNickname, c.Alias)
	card.SetValue(vcard.FieldEmail, c.Email)
	if c.Notes != "" {
		card.SetValue(vcard.FieldNote, c.Notes)
	}
	card.SetValue(vcard.FieldUID, "urn:bob:contact:"+c.Alias)
	vcard.ToV4(card)
	return card
}

// ExportVCard writes every contact to w as a vCard stream.
func (s *Store) ExportVCard(w io.Writer) (int, error) {
	list, err := s.List(1 << 20)
	if err != nil {
		return 0, err
	}
	enc := vcard.NewEncoder(w)
	for _, c := range list {
		if err := enc.Encode(ToCard(c)); err != nil {
			return 0, fmt.Errorf("encode %s: %w", c.Alias, err)
		}
	}
	return len(list), nil
}

// ImportVCard reads a vCard stream and adds a contact for each card
// that has an email address. The nickname is used as the alias,
// falling back to the local part of the address. Cards whose alias is
// already taken are skipped.
func (s *Store) ImportVCard(r io.Reader) (added, skipped int, err error) {
	dec := vcard.NewDecoder(r)
	for {
		card, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return added, skipped, nil
		}
		if err != nil {
			return added, skipped, fmt.Errorf("decode vcard: %w", err)
		}

		email := card.PreferredValue(vcard.FieldEmail)
		if email == "" {
			skipped++
			continue
		}
		alias := card.PreferredValue(vcard.FieldNickname)
		if alias == "" {
			alias, _, _ = strings.Cut(email, "@")
		}

		c := &Contact{
			Alias: alias,
			Email: email,
			Name:  card.PreferredValue(vcard.FieldFormattedName),
			Notes: card.PreferredValue(vcard.FieldNote),
		}
		var exists *ErrAliasExists
		switch err := s.Add(c); {
		case err == nil:
			added++
		case errors.As(err, &exists):
			skipped++
		default:
			return added, skipped, err
		}
	}
}
