package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nugget/bob-assistant/internal/contacts"
)

// ErrNotConfigured is returned when no SMTP server or sender is set.
var ErrNotConfigured = errors.New("email sending is not configured")

// ErrUnknownAlias is returned when a recipient alias has no contact.
type ErrUnknownAlias struct {
	Alias string
}

// Error implements the error interface.
func (e *ErrUnknownAlias) Error() string {
	return fmt.Sprintf("no contact found for alias %q", e.Alias)
}

// ContactResolver looks up a contact by alias, returning nil, nil when
// none exists. *contacts.Store satisfies it.
type ContactResolver interface {
	Get(alias string) (*contacts.Contact, error)
}

// Delivery describes a successful send.
type Delivery struct {
	LogID int64
	To    string
	Alias string
}

// Service resolves recipients, composes, sends, and logs outbound mail.
type Service struct {
	smtp     SMTPConfig
	from     string
	contacts ContactResolver
	logs     *LogStore
	logger   *slog.Logger
	send     SendFunc
}

// NewService creates an email service. from is the sender address.
func NewService(cfg SMTPConfig, from string, resolver ContactResolver, logs *LogStore, logger *slog.Logger) *Service {
	return &Service{
		smtp:     cfg,
		from:     from,
		contacts: resolver,
		logs:     logs,
		logger:   logger,
		send:     SendMail,
	}
}

// Configured reports whether the service can send.
func (s *Service) Configured() bool {
	return s.smtp.Host != "" && s.from != ""
}

// Resolve turns a recipient into an address. Input containing "@" is
// used as-is; anything else is treated as a contact alias.
func (s *Service) Resolve(to string) (addr, alias string, err error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return "", "", errors.New("recipient is required")
	}
	if strings.Contains(to, "@") {
		if err := contacts.ValidateEmail(bareAddress(to)); err != nil {
			return "", "", err
		}
		return to, "", nil
	}
	if s.contacts == nil {
		return "", "", &ErrUnknownAlias{Alias: to}
	}
	c, err := s.contacts.Get(to)
	if err != nil {
		return "", "", fmt.Errorf("look up contact %q: %w", to, err)
	}
	if c == nil {
		return "", "", &ErrUnknownAlias{Alias: contacts.NormalizeAlias(to)}
	}
	return c.Email, c.Alias, nil
}

// Send delivers a message to one recipient. The attempt is logged as
// pending before delivery and updated to sent or failed afterwards.
func (s *Service) Send(ctx context.Context, to, subject, body string) (*Delivery, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	addr, alias, err := s.Resolve(to)
	if err != nil {
		return nil, err
	}

	var logID int64
	if s.logs != nil {
		logID, err = s.logs.LogAttempt(addr, alias, subject, body)
		if err != nil {
			return nil, fmt.Errorf("log email attempt: %w", err)
		}
	}

	err = s.deliver(ctx, addr, subject, body)
	if s.logs != nil {
		var logErr error
		if err != nil {
			logErr = s.logs.MarkFailed(logID, err)
		} else {
			logErr = s.logs.MarkSent(logID)
		}
		if logErr != nil {
			s.logger.Warn("failed to update email log", "id", logID, "error", logErr)
		}
	}
	if err != nil {
		s.logger.Warn("email send failed", "to", addr, "alias", alias, "error", err)
		return nil, err
	}

	s.logger.Info("email sent", "to", addr, "alias", alias, "log_id", logID)
	return &Delivery{LogID: logID, To: addr, Alias: alias}, nil
}

func (s *Service) deliver(ctx context.Context, addr, subject, body string) error {
	msg, err := Compose(Message{From: s.from, To: []string{addr}, Subject: subject, Body: body})
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}
	return s.send(ctx, s.smtp, bareAddress(s.from), []string{bareAddress(addr)}, msg)
}
