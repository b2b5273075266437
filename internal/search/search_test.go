package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type mockProvider struct {
	name    string
	results []Result
	err     error
}

func (m *mockProvider) Name() string { return m.name }
func (m *mockProvider) Search(_ context.Context, _ string, _ Options) ([]Result, error) {
	return m.results, m.err
}

func TestManagerSearch(t *testing.T) {
	mgr := NewManager("brave")
	mgr.Register(&mockProvider{name: "searxng", results: []Result{{Title: "from searxng"}}})
	mgr.Register(&mockProvider{name: "brave", results: []Result{{Title: "from brave"}}})

	got, err := mgr.Search(context.Background(), "q", Options{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Title != "from brave" {
		t.Errorf("Search used wrong provider: %+v", got)
	}

	got, err = mgr.SearchWith(context.Background(), "searxng", "q", Options{})
	if err != nil || got[0].Title != "from searxng" {
		t.Errorf("SearchWith = %+v, %v", got, err)
	}
}

func TestManagerFallsBackWhenPrimaryMissing(t *testing.T) {
	mgr := NewManager("stackoverflow")
	mgr.Register(&mockProvider{name: "searxng", results: []Result{{Title: "fallback"}}})

	got, err := mgr.Search(context.Background(), "q", Options{})
	if err != nil || len(got) != 1 || got[0].Title != "fallback" {
		t.Errorf("Search = %+v, %v", got, err)
	}
}

func TestManagerUnconfigured(t *testing.T) {
	mgr := NewManager("brave")
	if mgr.Configured() {
		t.Error("empty manager reports configured")
	}
	if _, err := mgr.Search(context.Background(), "q", Options{}); err == nil {
		t.Error("Search on empty manager succeeded")
	}
	if _, err := mgr.SearchWith(context.Background(), "nope", "q", Options{}); err == nil {
		t.Error("SearchWith unknown provider succeeded")
	}
}

func TestFormatResults(t *testing.T) {
	out := FormatResults("go maps", []Result{
		{Title: "First", URL: "https://a.com", Snippet: "Snippet A", Score: 12},
		{Title: "Second", URL: "https://b.com"},
	})
	want := "1. First (score 12)\n   https://a.com\n   Snippet A\n\n2. Second\n   https://b.com"
	if out != want {
		t.Errorf("FormatResults =\n%s\nwant\n%s", out, want)
	}

	if got := FormatResults("nothing", nil); got != `No results found for "nothing".` {
		t.Errorf("empty FormatResults = %q", got)
	}
}

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<p>Use <code>make(map[string]int)</code>.</p>", "Use make(map[string]int)."},
		{"<p>one</p><p>two</p>", "one two"},
		{"a &amp; b &lt;c&gt;", "a & b <c>"},
		{"<pre><code>x := 1\n\ny := 2</code></pre>", "x := 1 y := 2"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := HTMLToText(tt.in); got != tt.want {
			t.Errorf("HTMLToText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStackOverflowSearch(t *testing.T) {
	longAnswer := "<p>" + strings.Repeat("word ", 200) + "</p>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("site") != "stackoverflow" || q.Get("sort") != "votes" {
			t.Errorf("unexpected params: %v", q)
		}
		switch r.URL.Path {
		case "/search/advanced":
			if q.Get("intitle") != "reverse a slice" {
				t.Errorf("intitle = %q", q.Get("intitle"))
			}
			fmt.Fprint(w, `{"items":[
				{"question_id":1,"title":"How to reverse a slice &amp; keep order?","link":"https://so/q/1","score":42,"answer_count":2},
				{"question_id":2,"title":"Unanswered","link":"https://so/q/2","score":1,"answer_count":0}
			]}`)
		case "/questions/1/answers":
			fmt.Fprintf(w, `{"items":[{"body":%q,"score":30,"is_accepted":false}]}`, longAnswer)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	so := NewStackOverflow(srv.URL, "", "")
	got, err := so.Search(context.Background(), "reverse a slice", Options{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].Title != "How to reverse a slice & keep order?" || got[0].Score != 42 {
		t.Errorf("result[0] = %+v", got[0])
	}
	prefix := "Top answer (score 30): "
	if !strings.HasPrefix(got[0].Snippet, prefix) {
		t.Fatalf("snippet = %q", got[0].Snippet)
	}
	if n := len([]rune(strings.TrimPrefix(got[0].Snippet, prefix))); n != answerSnippetLen {
		t.Errorf("answer length = %d, want %d", n, answerSnippetLen)
	}
	if got[1].Snippet != "" {
		t.Errorf("unanswered question has snippet %q", got[1].Snippet)
	}
}

func TestStackOverflowHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error_message":"throttle violation"}`)
	}))
	defer srv.Close()

	_, err := NewStackOverflow(srv.URL, "", "").Search(context.Background(), "x", Options{})
	if err == nil || !strings.Contains(err.Error(), "HTTP 400") {
		t.Errorf("err = %v, want HTTP 400", err)
	}
}

func TestSearXNGSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" || r.URL.Query().Get("format") != "json" {
			t.Errorf("unexpected request %s", r.URL)
		}
		fmt.Fprint(w, `{"results":[{"title":"a","url":"u1","content":"c1"},{"title":"b","url":"u2"},{"title":"c","url":"u3"}]}`)
	}))
	defer srv.Close()

	got, err := NewSearXNG(srv.URL+"/").Search(context.Background(), "q", Options{Count: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 || got[0].Snippet != "c1" {
		t.Errorf("results = %+v", got)
	}
}

func TestBraveSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Subscription-Token") != "secret" {
			t.Errorf("token header = %q", r.Header.Get("X-Subscription-Token"))
		}
		if r.URL.Query().Get("count") != "5" {
			t.Errorf("count = %q", r.URL.Query().Get("count"))
		}
		fmt.Fprint(w, `{"web":{"results":[{"title":"t","url":"u","description":"d"}]}}`)
	}))
	defer srv.Close()

	got, err := NewBrave("secret", srv.URL).Search(context.Background(), "q", Options{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Snippet != "d" {
		t.Errorf("results = %+v", got)
	}
}
