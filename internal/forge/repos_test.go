package forge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestListIssues(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/repos/acme/app/issues", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("state"); got != "closed" {
			t.Errorf("state = %q, want closed", got)
		}
		writeJSON(w, []map[string]any{
			{"number": 9, "title": "Crash on save", "state": "closed", "html_url": "https://github.com/acme/app/issues/9",
				"created_at": "2026-02-01T10:00:00Z", "labels": []map[string]any{{"name": "bug"}}},
			{"number": 8, "title": "Bump deps", "state": "closed", "pull_request": map[string]any{"url": "x"}},
			{"number": 7, "title": "Typo", "state": "closed"},
			{"number": 6, "title": "Old", "state": "closed"},
		})
	})

	gh := newTestGitHub(t, mux, "acme/app")
	issues, err := gh.ListIssues(context.Background(), "", "closed", 2)
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("got %d issues, want 2", len(issues))
	}
	if issues[0].Number != 9 || issues[0].Repo != "acme/app" || issues[0].Labels[0] != "bug" {
		t.Errorf("issues[0] = %+v", issues[0])
	}
	if !issues[0].CreatedAt.Equal(time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("created = %v", issues[0].CreatedAt)
	}
	if issues[1].Number != 7 {
		t.Errorf("pull request not skipped: issues[1] = %+v", issues[1])
	}
}

func TestListIssuesDefaultsToOpen(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/repos/acme/web/issues", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("state"); got != "open" {
			t.Errorf("state = %q, want open", got)
		}
		writeJSON(w, []map[string]any{})
	})

	gh := newTestGitHub(t, mux, "")
	issues, err := gh.ListIssues(context.Background(), "https://github.com/acme/web.git", "", 0)
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("issues = %v", issues)
	}
	if _, err := gh.ListIssues(context.Background(), "", "", 0); !errors.Is(err, ErrNoRepo) {
		t.Errorf("no repo: err = %v, want ErrNoRepo", err)
	}
}

func TestListMyRepos(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/user/repos", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("sort"); got != "updated" {
			t.Errorf("sort = %q", got)
		}
		writeJSON(w, []map[string]any{
			{"full_name": "me/bob", "description": "assistant", "private": true, "html_url": "https://github.com/me/bob", "stargazers_count": 3},
			{"full_name": "me/dots", "html_url": "https://github.com/me/dots"},
			{"full_name": "me/old"},
		})
	})

	gh := newTestGitHub(t, mux, "")
	repos, err := gh.ListMyRepos(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListMyRepos: %v", err)
	}
	if len(repos) != 2 {
		t.Fatalf("got %d repos, want 2", len(repos))
	}
	if r := repos[0]; r.FullName != "me/bob" || !r.Private || r.Stars != 3 || r.Description != "assistant" {
		t.Errorf("repos[0] = %+v", r)
	}
}

func TestSplitRepo(t *testing.T) {
	tests := []struct {
		in          string
		owner, name string
		wantErr     bool
	}{
		{in: "acme/app", owner: "acme", name: "app"},
		{in: " acme/app/ ", owner: "acme", name: "app"},
		{in: "https://github.com/acme/app", owner: "acme", name: "app"},
		{in: "https://github.com/acme/app.git", owner: "acme", name: "app"},
		{in: "github.com/acme/app/tree/main", owner: "acme", name: "app"},
		{in: "git@github.com:acme/app.git", owner: "acme", name: "app"},
		{in: "justname", wantErr: true},
		{in: "/app", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			owner, name, err := splitRepo(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if owner != tt.owner || name != tt.name {
				t.Errorf("splitRepo(%q) = %q, %q", tt.in, owner, name)
			}
		})
	}
}

const fixtureReadme = "# queue\n![build](https://img.shields.io/x)\n## Features\n- fast\n## Installation\n```\ngo get\n```\n## Usage\nuse it\n## License\nMIT\n"

// repoFixture serves acme/app: a small Go project with docs, CI and a
// Dockerfile but no tests.
func repoFixture(t *testing.T) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/repos/acme/app", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"full_name": "acme/app", "description": "fast sqlite backed task queue",
			"html_url": "https://github.com/acme/app", "stargazers_count": 150, "forks_count": 25,
			"open_issues_count": 3, "license": map[string]any{"name": "MIT"}, "has_issues": true, "language": "Go",
		})
	})
	mux.HandleFunc("GET /api/v3/repos/acme/app/contents/", func(w http.ResponseWriter, _ *http.Request) {
		var entries []map[string]any
		for _, d := range []string{"cmd", "internal", "docs", ".github"} {
			entries = append(entries, map[string]any{"name": d, "type": "dir"})
		}
		for _, f := range []string{"go.mod", "README.md", "Dockerfile", "CHANGELOG.md"} {
			entries = append(entries, map[string]any{"name": f, "type": "file"})
		}
		writeJSON(w, entries)
	})
	mux.HandleFunc("GET /api/v3/repos/acme/app/languages", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]int{"Go": 9000, "Shell": 100})
	})
	mux.HandleFunc("GET /api/v3/repos/acme/app/readme", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"name": "README.md", "encoding": "base64",
			"content": base64.StdEncoding.EncodeToString([]byte(fixtureReadme)),
		})
	})
	mux.HandleFunc("GET /api/v3/repos/acme/app/commits", func(w http.ResponseWriter, _ *http.Request) {
		var commits []map[string]any
		for i := range 12 {
			date := time.Date(2026, 3, 8-i, 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
			commits = append(commits, map[string]any{"commit": map[string]any{"author": map[string]any{"date": date}}})
		}
		writeJSON(w, commits)
	})
	mux.HandleFunc("GET /api/v3/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query().Get("q"); !strings.Contains(q, "language:Go") {
			t.Errorf("search query = %q", q)
		}
		writeJSON(w, map[string]any{"total_count": 3, "items": []map[string]any{
			{"full_name": "acme/app", "stargazers_count": 150},
			{"full_name": "other/q", "stargazers_count": 40},
			{"full_name": "x/y", "stargazers_count": 20},
		}})
	})
	return mux
}

func categoryScores(rv *Review) map[string]float64 {
	out := make(map[string]float64, len(rv.Categories))
	for _, c := range rv.Categories {
		out[c.Name] = c.Score
	}
	return out
}

func TestReviewRepo(t *testing.T) {
	gh := newTestGitHub(t, repoFixture(t), "")
	gh.now = func() time.Time { return time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC) }

	rv, err := gh.ReviewRepo(context.Background(), "acme/app")
	if err != nil {
		t.Fatalf("ReviewRepo: %v", err)
	}

	want := map[string]float64{
		"README quality":    6.5,
		"Code organization": 5.5,
		"Documentation":     4,
		"Activity":          8,
		"Community":         8,
		"Uniqueness":        8,
		"Technical depth":   2,
	}
	got := categoryScores(rv)
	for name, score := range want {
		if got[name] != score {
			t.Errorf("%s = %g, want %g", name, got[name], score)
		}
	}
	if rv.Score != 6.0 || rv.Rating() != "good" {
		t.Errorf("score = %g (%s), want 6.0 (good)", rv.Score, rv.Rating())
	}
	if len(rv.Similar) != 2 || rv.Similar[0].FullName != "other/q" {
		t.Errorf("similar = %+v", rv.Similar)
	}

	report := rv.String()
	for _, s := range []string{
		"Project review: acme/app",
		"Final score: 6.0/10 (good)",
		"1. other/q (40 stars)",
		"Leader in its category",
		"Add README sections: contributing.",
		"Add unit and integration tests.",
	} {
		if !strings.Contains(report, s) {
			t.Errorf("report missing %q:\n%s", s, report)
		}
	}
	if n := len(rv.Recommendations()); n > maxRecommendations {
		t.Errorf("%d recommendations, cap is %d", n, maxRecommendations)
	}
}

func TestReviewRepoToleratesMissingSections(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/repos/acme/empty", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"full_name": "acme/empty"})
	})
	notFound := func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"message":"Not Found"}`)
	}
	mux.HandleFunc("GET /api/v3/repos/acme/empty/contents/", notFound)
	mux.HandleFunc("GET /api/v3/repos/acme/empty/readme", notFound)
	mux.HandleFunc("GET /api/v3/repos/acme/empty/languages", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]int{})
	})
	mux.HandleFunc("GET /api/v3/repos/acme/empty/commits", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		io.WriteString(w, `{"message":"Git Repository is empty."}`)
	})

	gh := newTestGitHub(t, mux, "acme/empty")
	rv, err := gh.ReviewRepo(context.Background(), "")
	if err != nil {
		t.Fatalf("ReviewRepo: %v", err)
	}
	if got := categoryScores(rv)["README quality"]; got != 0 {
		t.Errorf("README quality = %g, want 0", got)
	}
	if !strings.Contains(rv.String(), "No README found") {
		t.Errorf("report = %s", rv.String())
	}
}

func TestReviewRepoNotFound(t *testing.T) {
	gh := newTestGitHub(t, http.NotFoundHandler(), "")
	if _, err := gh.ReviewRepo(context.Background(), "acme/missing"); err == nil {
		t.Error("ReviewRepo succeeded for a missing repository")
	}
}

func TestDraftReadme(t *testing.T) {
	gh := newTestGitHub(t, repoFixture(t), "")

	readme, err := gh.DraftReadme(context.Background(), "https://github.com/acme/app")
	if err != nil {
		t.Fatalf("DraftReadme: %v", err)
	}
	for _, s := range []string{
		"# app\n\nfast sqlite backed task queue",
		"![Go](https://img.shields.io/badge/go-",
		"**Project Type:** Go",
		"git clone https://github.com/acme/app.git",
		"2. Install Go modules",
		"docker compose up -d",
		"├── internal/",
		"licensed under the MIT License",
		"[@acme](https://github.com/acme)",
	} {
		if !strings.Contains(readme, s) {
			t.Errorf("readme missing %q:\n%s", s, readme)
		}
	}
	if strings.Contains(readme, "**Database:**") {
		t.Error("readme names a database it never detected")
	}
	if strings.Contains(readme, "## Testing") {
		t.Error("readme has a testing section for a repository without tests")
	}
}

func TestDetectStack(t *testing.T) {
	s := &snapshot{
		Files: map[string]bool{"package.json": true, "next.config.js": true, "requirements.txt": true, "main.py": true},
		Dirs:  []string{"tests", "prisma"},
	}
	st := detectStack(s)
	if st.kind != "Full-Stack" || st.frontend != "Next.js" || st.backend != "FastAPI" || st.database != "Prisma" {
		t.Errorf("stack = %+v", st)
	}
	if !st.tests || st.docker {
		t.Errorf("tests = %v, docker = %v", st.tests, st.docker)
	}
}
