package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nugget/bob-assistant/internal/contacts"
)

// maxVCardImport bounds uploaded vCard streams.
const maxVCardImport = 4 << 20

func (s *Server) handleContactList(w http.ResponseWriter, r *http.Request) {
	if !s.contactsReady(w) {
		return
	}
	limit, ok := s.queryLimit(w, r)
	if !ok {
		return
	}
	list, err := s.deps.Contacts.List(limit)
	if err != nil {
		s.logger.Error("list contacts failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to list contacts")
		return
	}
	if list == nil {
		list = []*contacts.Contact{}
	}
	s.respond(w, http.StatusOK, list)
}

func (s *Server) handleContactCreate(w http.ResponseWriter, r *http.Request) {
	if !s.contactsReady(w) {
		return
	}

	var c contacts.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if contacts.NormalizeAlias(c.Alias) == "" {
		s.errorResponse(w, http.StatusBadRequest, "alias is required")
		return
	}
	if err := contacts.ValidateEmail(strings.TrimSpace(c.Email)); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.deps.Contacts.Add(&c); err != nil {
		s.contactError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, &c)
}

func (s *Server) handleContactGet(w http.ResponseWriter, r *http.Request) {
	if !s.contactsReady(w) {
		return
	}
	alias := r.PathValue("alias")
	c, err := s.deps.Contacts.Get(alias)
	if err != nil {
		s.contactError(w, err)
		return
	}
	if c == nil {
		s.contactError(w, &contacts.ErrNotFound{Alias: contacts.NormalizeAlias(alias)})
		return
	}
	s.respond(w, http.StatusOK, c)
}

func (s *Server) handleContactUpdate(w http.ResponseWriter, r *http.Request) {
	if !s.contactsReady(w) {
		return
	}

	var u contacts.Update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if u.Email != nil && strings.TrimSpace(*u.Email) != "" {
		if err := contacts.ValidateEmail(strings.TrimSpace(*u.Email)); err != nil {
			s.errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	c, err := s.deps.Contacts.Update(r.PathValue("alias"), u)
	if err != nil {
		s.contactError(w, err)
		return
	}
	s.respond(w, http.StatusOK, c)
}

func (s *Server) handleContactDelete(w http.ResponseWriter, r *http.Request) {
	if !s.contactsReady(w) {
		return
	}
	if err := s.deps.Contacts.Delete(r.PathValue("alias")); err != nil {
		s.contactError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleContactExport serves the address book as vCard 4.0. The stream
// is buffered so an encoding failure still produces a clean error.
func (s *Server) handleContactExport(w http.ResponseWriter, r *http.Request) {
	if !s.contactsReady(w) {
		return
	}
	var buf bytes.Buffer
	n, err := s.deps.Contacts.ExportVCard(&buf)
	if err != nil {
		s.logger.Error("vcard export failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to export contacts")
		return
	}
	s.logger.Debug("vcard export", "contacts", n)

	w.Header().Set("Content-Type", "text/vcard; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="contacts.vcf"`)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Debug("failed to write vcard response", "error", err)
	}
}

func (s *Server) handleContactImport(w http.ResponseWriter, r *http.Request) {
	if !s.contactsReady(w) {
		return
	}
	body := http.MaxBytesReader(w, r.Body, maxVCardImport)
	added, skipped, err := s.deps.Contacts.ImportVCard(body)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("import failed after %d contacts: %v", added, err))
		return
	}
	s.logger.Info("vcard import", "added", added, "skipped", skipped)
	s.respond(w, http.StatusOK, map[string]int{
		"added":   added,
		"skipped": skipped,
	})
}

func (s *Server) contactsReady(w http.ResponseWriter) bool {
	if s.deps.Contacts == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "contact storage not configured")
		return false
	}
	return true
}

func (s *Server) contactError(w http.ResponseWriter, err error) {
	var (
		nf     *contacts.ErrNotFound
		exists *contacts.ErrAliasExists
	)
	switch {
	case errors.As(err, &nf):
		s.errorResponse(w, http.StatusNotFound, fmt.Sprintf("Contact with alias %q not found", nf.Alias))
	case errors.As(err, &exists):
		s.errorResponse(w, http.StatusConflict, exists.Error())
	default:
		s.logger.Error("contact operation failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "contact operation failed")
	}
}
