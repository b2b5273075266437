// Package forge talks to GitHub for the assistant's repository tools:
// opening and listing issues, listing the user's repositories, scoring
// a repository, and drafting a README from its layout.
package forge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v69/github"
)

// ErrNoRepo is returned when no repository is given and no default is set.
var ErrNoRepo = errors.New("no repository specified and no default repository configured")

// Issue is a GitHub issue.
type Issue struct {
	Repo      string    `json:"repo"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	State     string    `json:"state"`
	Labels    []string  `json:"labels,omitempty"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// NewIssue carries the fields of an issue to create.
type NewIssue struct {
	Title  string
	Body   string
	Labels []string
}

// GitHub reaches the GitHub API through the go-github SDK.
type GitHub struct {
	client      *gogithub.Client
	hasToken    bool
	defaultRepo string
	logger      *slog.Logger
	now         func() time.Time
}

// NewGitHub creates a GitHub client authenticated with token. A
// non-empty baseURL points the client at a GitHub Enterprise API.
func NewGitHub(httpClient *http.Client, token, baseURL, defaultRepo string, logger *slog.Logger) (*GitHub, error) {
	client := gogithub.NewClient(httpClient).WithAuthToken(token)
	if baseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, fmt.Errorf("forge: base url %q: %w", baseURL, err)
		}
	}
	return &GitHub{
		client:      client,
		hasToken:    token != "",
		defaultRepo: defaultRepo,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// Configured reports whether the client has a token to act with.
func (g *GitHub) Configured() bool {
	return g.hasToken
}

// CreateIssue opens an issue in repo, or in the default repository
// when repo is empty.
func (g *GitHub) CreateIssue(ctx context.Context, repo string, issue NewIssue) (*Issue, error) {
	if strings.TrimSpace(issue.Title) == "" {
		return nil, errors.New("issue title is required")
	}
	owner, name, err := g.resolveRepo(repo)
	if err != nil {
		return nil, err
	}

	req := &gogithub.IssueRequest{
		Title: gogithub.Ptr(issue.Title),
		Body:  gogithub.Ptr(issue.Body),
	}
	if len(issue.Labels) > 0 {
		req.Labels = &issue.Labels
	}

	result, resp, err := g.client.Issues.Create(ctx, owner, name, req)
	if err != nil {
		return nil, fmt.Errorf("forge: create issue in %s: %w", repo, err)
	}
	g.checkRateLimit(resp)

	out := convertIssue(result)
	out.Repo = owner + "/" + name
	g.logger.Info("github issue created", "repo", out.Repo, "number", out.Number)
	return out, nil
}

// ListIssues returns up to limit issues of repo, or of the default
// repository when repo is empty, in the given state ("open", "closed"
// or "all"). Pull requests are skipped.
func (g *GitHub) ListIssues(ctx context.Context, repo, state string, limit int) ([]*Issue, error) {
	owner, name, err := g.resolveRepo(repo)
	if err != nil {
		return nil, err
	}
	if state == "" {
		state = "open"
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	opts := &gogithub.IssueListByRepoOptions{
		State:       state,
		ListOptions: gogithub.ListOptions{PerPage: min(limit*2, 100)},
	}
	result, resp, err := g.client.Issues.ListByRepo(ctx, owner, name, opts)
	if err != nil {
		return nil, fmt.Errorf("forge: list issues in %s/%s: %w", owner, name, err)
	}
	g.checkRateLimit(resp)

	var out []*Issue
	for _, i := range result {
		if i.IsPullRequest() {
			continue
		}
		issue := convertIssue(i)
		issue.Repo = owner + "/" + name
		out = append(out, issue)
		if len(out) == limit {
			break
		}
	}
	g.logger.Debug("github issues listed", "repo", owner+"/"+name, "state", state, "count", len(out))
	return out, nil
}

// defaultListLimit applies when a list call passes no limit.
const defaultListLimit = 10

// resolveRepo falls back to the default repository and splits the
// result into owner and name.
func (g *GitHub) resolveRepo(repo string) (string, string, error) {
	if strings.TrimSpace(repo) == "" {
		repo = g.defaultRepo
	}
	if strings.TrimSpace(repo) == "" {
		return "", "", ErrNoRepo
	}
	return splitRepo(repo)
}

// splitRepo accepts "owner/repo" or a GitHub URL such as
// "https://github.com/owner/repo.git".
func splitRepo(repo string) (string, string, error) {
	s := strings.TrimSpace(repo)
	if i := strings.Index(s, "github.com/"); i >= 0 {
		s = s[i+len("github.com/"):]
	} else if i := strings.Index(s, "github.com:"); i >= 0 {
		s = s[i+len("github.com:"):]
	}
	s = strings.TrimSuffix(strings.TrimRight(s, "/"), ".git")
	parts := strings.Split(s, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo %q: expected owner/repo", repo)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

// checkRateLimit warns when the remaining API budget runs low.
func (g *GitHub) checkRateLimit(resp *gogithub.Response) {
	if resp == nil || resp.Rate.Limit == 0 {
		return
	}
	if resp.Rate.Remaining < 100 {
		g.logger.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset", resp.Rate.Reset.Time,
		)
	}
}

func convertIssue(i *gogithub.Issue) *Issue {
	out := &Issue{
		Number:    i.GetNumber(),
		Title:     i.GetTitle(),
		Body:      i.GetBody(),
		State:     i.GetState(),
		URL:       i.GetHTMLURL(),
		CreatedAt: i.GetCreatedAt().Time,
	}
	for _, l := range i.Labels {
		out.Labels = append(out.Labels, l.GetName())
	}
	return out
}
