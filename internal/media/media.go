// Package media fetches video transcripts through yt-dlp and reduces
// the downloaded captions to readable text.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoSubtitles is returned when a video has no captions in the
// requested language.
var ErrNoSubtitles = errors.New("no subtitles available for this video")

// wordsPerParagraph sets transcript paragraph length.
const wordsPerParagraph = 50

// Config holds settings for the transcript client.
type Config struct {
	// YtDlpPath is the yt-dlp binary. Empty means look it up on PATH.
	YtDlpPath string

	// SubtitleLanguage is the preferred caption language (default "en").
	SubtitleLanguage string

	// MaxTranscriptChars limits the transcript text returned. Default 50000.
	MaxTranscriptChars int
}

// Result holds a transcript and the video metadata around it.
type Result struct {
	Title      string `json:"title"`
	Channel    string `json:"channel,omitempty"`
	Duration   string `json:"duration,omitempty"`
	UploadDate string `json:"upload_date,omitempty"`
	Source     string `json:"source"`
	ID         string `json:"id"`
	Transcript string `json:"transcript"`
	Truncated  bool   `json:"truncated,omitempty"`
}

// String renders the result as tool output.
func (r *Result) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Transcript of %q", r.Title)
	var meta []string
	for _, m := range []string{r.Channel, r.Duration, r.UploadDate} {
		if m != "" {
			meta = append(meta, m)
		}
	}
	if len(meta) > 0 {
		fmt.Fprintf(&sb, " (%s)", strings.Join(meta, ", "))
	}
	sb.WriteString(":\n\n")
	sb.WriteString(r.Transcript)
	if r.Truncated {
		sb.WriteString("\n\n[transcript truncated]")
	}
	return sb.String()
}

// runFunc executes a command and returns its stdout.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Client retrieves and cleans transcripts.
type Client struct {
	cfg    Config
	logger *slog.Logger
	run    runFunc
}

// New creates a transcript client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.SubtitleLanguage == "" {
		cfg.SubtitleLanguage = "en"
	}
	if cfg.MaxTranscriptChars == 0 {
		cfg.MaxTranscriptChars = 50000
	}
	if cfg.YtDlpPath == "" {
		if p, err := exec.LookPath("yt-dlp"); err == nil {
			cfg.YtDlpPath = p
		}
	}
	return &Client{cfg: cfg, logger: logger, run: runCommand}
}

// Configured reports whether a yt-dlp binary is available.
func (c *Client) Configured() bool {
	return c.cfg.YtDlpPath != ""
}

type ytdlpJSON struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Channel    string  `json:"channel"`
	Uploader   string  `json:"uploader"`
	Duration   float64 `json:"duration"`
	UploadDate string  `json:"upload_date"`
}

// Transcript downloads captions for rawURL and returns them as text
// broken into paragraphs. Manual captions are preferred over
// auto-generated ones.
func (c *Client) Transcript(ctx context.Context, rawURL string) (*Result, error) {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid video URL %q", rawURL)
	}
	if !c.Configured() {
		return nil, errors.New("yt-dlp not found (install yt-dlp or set media.yt_dlp_path)")
	}

	tmpDir, err := os.MkdirTemp("", "bob-media-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	lang := c.cfg.SubtitleLanguage
	args := []string{
		"--write-sub",
		"--write-auto-sub",
		"--sub-lang", lang + "," + lang + "-US," + lang + "-GB",
		"--sub-format", "vtt",
		"--skip-download",
		"--print-json",
		"--no-warnings",
		"-o", filepath.Join(tmpDir, "%(id)s"),
		rawURL,
	}

	c.logger.Info("fetching transcript", "url", rawURL, "language", lang)
	out, err := c.run(ctx, c.cfg.YtDlpPath, args...)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp: %w", err)
	}

	var meta ytdlpJSON
	if err := json.Unmarshal(bytes.TrimSpace(out), &meta); err != nil {
		return nil, fmt.Errorf("parse yt-dlp output: %w", err)
	}

	text, err := readSubtitles(tmpDir)
	if err != nil {
		return nil, err
	}

	source, id := extractSource(rawURL)
	if id == "" {
		id = meta.ID
	}
	r := &Result{
		Title:      firstNonEmpty(meta.Title, "Unknown Title"),
		Channel:    firstNonEmpty(meta.Channel, meta.Uploader),
		UploadDate: formatDate(meta.UploadDate),
		Source:     source,
		ID:         id,
	}
	if meta.Duration > 0 {
		r.Duration = formatDuration(meta.Duration)
	}

	if runes := []rune(text); len(runes) > c.cfg.MaxTranscriptChars {
		text = string(runes[:c.cfg.MaxTranscriptChars])
		r.Truncated = true
	}
	r.Transcript = Paragraphs(text, wordsPerParagraph)
	return r, nil
}

// readSubtitles cleans the first .vtt file in dir. yt-dlp skips the
// auto captions when manual ones exist, and manual files sort first
// when both are present because their names are shorter.
func readSubtitles(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read temp dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".vtt") {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return "", ErrNoSubtitles
	}
	sort.Slice(files, func(i, j int) bool {
		if len(files[i]) != len(files[j]) {
			return len(files[i]) < len(files[j])
		}
		return files[i] < files[j]
	})

	raw, err := os.ReadFile(filepath.Join(dir, files[0]))
	if err != nil {
		return "", fmt.Errorf("read subtitle file: %w", err)
	}
	text := CleanVTT(string(raw))
	if text == "" {
		return "", ErrNoSubtitles
	}
	return text, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 500 {
			msg = msg[:500]
		}
		return nil, fmt.Errorf("%w: %s", err, msg)
	}
	return stdout.Bytes(), nil
}

// extractSource derives the platform name and video id from a URL.
func extractSource(rawURL string) (source, id string) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown", ""
	}
	host := strings.ToLower(u.Hostname())

	switch {
	case strings.HasSuffix(host, "youtu.be"):
		return "youtube", strings.Trim(u.Path, "/")
	case strings.Contains(host, "youtube.com"):
		if v := u.Query().Get("v"); v != "" {
			return "youtube", v
		}
		if rest, ok := strings.CutPrefix(u.Path, "/shorts/"); ok {
			return "youtube", strings.Trim(rest, "/")
		}
		return "youtube", ""
	case strings.Contains(host, "vimeo.com"):
		return "vimeo", strings.Trim(u.Path, "/")
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	return strings.TrimPrefix(host, "www."), parts[len(parts)-1]
}

// formatDuration renders seconds as H:MM:SS or M:SS.
func formatDuration(seconds float64) string {
	total := int(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// formatDate turns yt-dlp's YYYYMMDD into YYYY-MM-DD.
func formatDate(yyyymmdd string) string {
	if len(yyyymmdd) != 8 {
		return yyyymmdd
	}
	return yyyymmdd[:4] + "-" + yyyymmdd[4:6] + "-" + yyyymmdd[6:]
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
