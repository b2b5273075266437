// Package discord posts messages to a Discord channel webhook.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nugget/bob-assistant/internal/httpkit"
)

// MaxContentLen is Discord's limit on message content.
const MaxContentLen = 2000

// ErrEmptyMessage is returned when there is nothing to post.
var ErrEmptyMessage = errors.New("message is empty")

// Webhook posts to a single webhook URL.
type Webhook struct {
	url        string
	username   string
	httpClient *http.Client
}

// NewWebhook creates a webhook poster. username overrides the webhook's
// display name when non-empty.
func NewWebhook(url, username string) *Webhook {
	return &Webhook{
		url:        url,
		username:   username,
		httpClient: httpkit.NewClient(httpkit.WithTimeout(15 * time.Second)),
	}
}

// Configured reports whether a webhook URL is set.
func (w *Webhook) Configured() bool {
	return w.url != ""
}

type payload struct {
	Content  string `json:"content"`
	Username string `json:"username,omitempty"`
}

// Send posts content to the channel. Content longer than MaxContentLen
// runes is cut with an ellipsis.
func (w *Webhook) Send(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyMessage
	}
	if r := []rune(content); len(r) > MaxContentLen {
		content = string(r[:MaxContentLen-1]) + "…"
	}

	body, err := json.Marshal(payload{Content: content, Username: w.username})
	if err != nil {
		return fmt.Errorf("discord: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("discord: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("discord: HTTP %d: %s", resp.StatusCode, httpkit.ReadErrorBody(resp.Body, 512))
	}
	return nil
}
