package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nugget/bob-assistant/internal/httpkit"
	"golang.org/x/net/html"
)

// StackExchangeBaseURL is the Stack Exchange API root.
const StackExchangeBaseURL = "https://api.stackexchange.com/2.3"

// answerSnippetLen caps the top answer text carried in a result.
const answerSnippetLen = 500

// StackOverflow searches Stack Exchange question titles and attaches
// the highest-voted answer to each result.
type StackOverflow struct {
	baseURL    string
	site       string
	key        string
	httpClient *http.Client
}

// NewStackOverflow creates a Stack Exchange provider. site defaults to
// "stackoverflow"; key is optional and raises the request quota.
func NewStackOverflow(baseURL, site, key string) *StackOverflow {
	if baseURL == "" {
		baseURL = StackExchangeBaseURL
	}
	if site == "" {
		site = "stackoverflow"
	}
	return &StackOverflow{
		baseURL:    strings.TrimRight(baseURL, "/"),
		site:       site,
		key:        key,
		httpClient: httpkit.NewClient(httpkit.WithTimeout(10 * time.Second)),
	}
}

func (s *StackOverflow) Name() string { return "stackoverflow" }

type seQuestions struct {
	Items []struct {
		QuestionID  int64  `json:"question_id"`
		Title       string `json:"title"`
		Link        string `json:"link"`
		Score       int    `json:"score"`
		AnswerCount int    `json:"answer_count"`
	} `json:"items"`
	ErrorMessage string `json:"error_message"`
}

type seAnswers struct {
	Items []struct {
		Body       string `json:"body"`
		Score      int    `json:"score"`
		IsAccepted bool   `json:"is_accepted"`
	} `json:"items"`
}

func (s *StackOverflow) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	count := opts.Count
	if count == 0 {
		count = 3
	}

	params := s.params()
	params.Set("intitle", query)
	params.Set("pagesize", strconv.Itoa(count))

	var qs seQuestions
	if err := s.get(ctx, "/search/advanced", params, &qs); err != nil {
		return nil, err
	}

	results := make([]Result, 0, count)
	for _, q := range qs.Items {
		if len(results) >= count {
			break
		}
		r := Result{
			Title: html.UnescapeString(q.Title),
			URL:   q.Link,
			Score: q.Score,
		}
		if q.AnswerCount > 0 {
			answer, err := s.topAnswer(ctx, q.QuestionID)
			if err != nil {
				return nil, err
			}
			r.Snippet = answer
		}
		results = append(results, r)
	}
	return results, nil
}

func (s *StackOverflow) topAnswer(ctx context.Context, questionID int64) (string, error) {
	params := s.params()
	params.Set("pagesize", "1")

	var as seAnswers
	if err := s.get(ctx, fmt.Sprintf("/questions/%d/answers", questionID), params, &as); err != nil {
		return "", err
	}
	if len(as.Items) == 0 {
		return "", nil
	}
	a := as.Items[0]
	text := truncateRunes(HTMLToText(a.Body), answerSnippetLen)
	if a.IsAccepted {
		return "Accepted answer: " + text, nil
	}
	return fmt.Sprintf("Top answer (score %d): %s", a.Score, text), nil
}

func (s *StackOverflow) params() url.Values {
	p := url.Values{
		"order":  {"desc"},
		"sort":   {"votes"},
		"site":   {s.site},
		"filter": {"withbody"},
	}
	if s.key != "" {
		p.Set("key", s.key)
	}
	return p
}

func (s *StackOverflow) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("stackoverflow: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stackoverflow: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stackoverflow: HTTP %d: %s", resp.StatusCode, httpkit.ReadErrorBody(resp.Body, 512))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("stackoverflow: decode response: %w", err)
	}
	return nil
}

// HTMLToText extracts the text content of an HTML fragment, decoding
// entities and collapsing whitespace.
func HTMLToText(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var sb strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(sb.String()), " ")
		case html.TextToken:
			sb.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if !inlineTags[string(name)] {
				sb.WriteByte(' ')
			}
		}
	}
}

var inlineTags = map[string]bool{
	"a": true, "b": true, "code": true, "em": true, "i": true,
	"kbd": true, "span": true, "strong": true, "sub": true, "sup": true,
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
