package forge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v69/github"
)

// Repo is a repository summary.
type Repo struct {
	FullName    string `json:"full_name"`
	Description string `json:"description,omitempty"`
	Private     bool   `json:"private"`
	URL         string `json:"url"`
	Stars       int    `json:"stars"`
	Forks       int    `json:"forks"`
	OpenIssues  int    `json:"open_issues"`
	Language    string `json:"language,omitempty"`
	License     string `json:"license,omitempty"`
	HasIssues   bool   `json:"has_issues"`
}

// ListMyRepos returns up to limit repositories of the authenticated
// user, most recently updated first.
func (g *GitHub) ListMyRepos(ctx context.Context, limit int) ([]*Repo, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	opts := &gogithub.RepositoryListByAuthenticatedUserOptions{
		Sort:        "updated",
		ListOptions: gogithub.ListOptions{PerPage: min(limit, 100)},
	}
	result, resp, err := g.client.Repositories.ListByAuthenticatedUser(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("forge: list repositories: %w", err)
	}
	g.checkRateLimit(resp)

	out := make([]*Repo, 0, min(len(result), limit))
	for _, r := range result {
		if len(out) == limit {
			break
		}
		out = append(out, convertRepo(r))
	}
	return out, nil
}

func convertRepo(r *gogithub.Repository) *Repo {
	return &Repo{
		FullName:    r.GetFullName(),
		Description: r.GetDescription(),
		Private:     r.GetPrivate(),
		URL:         r.GetHTMLURL(),
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
		OpenIssues:  r.GetOpenIssuesCount(),
		Language:    r.GetLanguage(),
		License:     r.GetLicense().GetName(),
		HasIssues:   r.GetHasIssues(),
	}
}

// snapshot is what the review and the README draft read from a
// repository: its metadata, top-level entries, language byte counts,
// README text and recent commit dates.
type snapshot struct {
	Owner, Name string
	Repo        *Repo
	Files       map[string]bool
	Dirs        []string
	Languages   map[string]int
	Readme      string
	Commits     []time.Time
}

// commitWindow is how many recent commits a snapshot fetches.
const commitWindow = 30

// fetchSnapshot loads repo. Only the metadata call is fatal; a missing
// README or an empty repository yields an empty section.
func (g *GitHub) fetchSnapshot(ctx context.Context, repo string) (*snapshot, error) {
	owner, name, err := g.resolveRepo(repo)
	if err != nil {
		return nil, err
	}
	r, resp, err := g.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("forge: get %s/%s: %w", owner, name, err)
	}
	g.checkRateLimit(resp)

	s := &snapshot{Owner: owner, Name: name, Repo: convertRepo(r), Files: map[string]bool{}}
	if s.Repo.FullName == "" {
		s.Repo.FullName = owner + "/" + name
	}

	_, entries, _, err := g.client.Repositories.GetContents(ctx, owner, name, "", nil)
	if err := g.optional(err, "contents", s.Repo.FullName); err != nil {
		return nil, err
	}
	for _, e := range entries {
		switch e.GetType() {
		case "dir":
			s.Dirs = append(s.Dirs, e.GetName())
		case "file":
			s.Files[e.GetName()] = true
		}
	}

	langs, _, err := g.client.Repositories.ListLanguages(ctx, owner, name)
	if err := g.optional(err, "languages", s.Repo.FullName); err != nil {
		return nil, err
	}
	s.Languages = langs

	readme, _, err := g.client.Repositories.GetReadme(ctx, owner, name, nil)
	if err := g.optional(err, "readme", s.Repo.FullName); err != nil {
		return nil, err
	}
	if readme != nil {
		text, err := readme.GetContent()
		if err != nil {
			g.logger.Warn("github readme undecodable", "repo", s.Repo.FullName, "error", err)
		}
		s.Readme = text
	}

	commits, _, err := g.client.Repositories.ListCommits(ctx, owner, name, &gogithub.CommitsListOptions{
		ListOptions: gogithub.ListOptions{PerPage: commitWindow},
	})
	if err := g.optional(err, "commits", s.Repo.FullName); err != nil {
		return nil, err
	}
	for _, c := range commits {
		s.Commits = append(s.Commits, c.GetCommit().GetAuthor().GetDate().Time)
	}
	return s, nil
}

// optional swallows not-found and conflict answers (an empty repository
// answers 409 for its commits) so one missing section does not sink
// the whole snapshot. Context errors still abort.
func (g *GitHub) optional(err error, section, repo string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var er *gogithub.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		switch er.Response.StatusCode {
		case http.StatusNotFound, http.StatusConflict:
			return nil
		}
	}
	g.logger.Warn("github section unavailable", "repo", repo, "section", section, "error", err)
	return nil
}

// primaryLanguage is the language with the most bytes.
func (s *snapshot) primaryLanguage() string {
	best, bytes := "", -1
	for lang, n := range s.Languages {
		if n > bytes || (n == bytes && lang < best) {
			best, bytes = lang, n
		}
	}
	return best
}

// languageNames lists the languages largest first.
func (s *snapshot) languageNames() []string {
	names := make([]string, 0, len(s.Languages))
	for lang := range s.Languages {
		names = append(names, lang)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := s.Languages[names[i]], s.Languages[names[j]]
		if a != b {
			return a > b
		}
		return names[i] < names[j]
	})
	return names
}

// hasDir reports whether a top-level directory matches any of names,
// ignoring case.
func (s *snapshot) hasDir(names ...string) bool {
	for _, d := range s.Dirs {
		for _, n := range names {
			if strings.EqualFold(d, n) {
				return true
			}
		}
	}
	return false
}

// hasFile reports whether any of names is a top-level file.
func (s *snapshot) hasFile(names ...string) bool {
	for _, n := range names {
		if s.Files[n] {
			return true
		}
	}
	return false
}

// hasTests reports whether a top-level directory looks like a test suite.
func (s *snapshot) hasTests() bool {
	for _, d := range s.Dirs {
		l := strings.ToLower(d)
		for _, ind := range []string{"test", "spec"} {
			if strings.Contains(l, ind) {
				return true
			}
		}
	}
	return false
}
