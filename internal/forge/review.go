package forge

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v69/github"
)

// Category is one scored aspect of a repository review, 0 to 10.
type Category struct {
	Name      string   `json:"name"`
	Weight    float64  `json:"weight"`
	Score     float64  `json:"score"`
	Notes     []string `json:"notes,omitempty"`
	Advice    []string `json:"advice,omitempty"`
	Strengths []string `json:"strengths,omitempty"`
}

// Review scores a repository across weighted categories.
type Review struct {
	Repo       *Repo      `json:"repo"`
	Score      float64    `json:"score"`
	Categories []Category `json:"categories"`
	Similar    []*Repo    `json:"similar,omitempty"`
	At         time.Time  `json:"at"`
}

// Rating turns the final score into a one-word verdict.
func (r *Review) Rating() string {
	switch {
	case r.Score >= 8.5:
		return "excellent"
	case r.Score >= 7:
		return "very good"
	case r.Score >= 5.5:
		return "good"
	case r.Score >= 4:
		return "fair"
	default:
		return "needs work"
	}
}

// maxRecommendations caps the advice listed in a report.
const maxRecommendations = 6

// Recommendations collects the advice of low-scoring categories, then
// a general note when the overall score is weak.
func (r *Review) Recommendations() []string {
	var out []string
	for _, c := range r.Categories {
		out = append(out, c.Advice...)
	}
	if r.Score < 7 {
		out = append(out, "Focus on the fundamentals: documentation, tests and code organization.")
	}
	if len(out) > maxRecommendations {
		out = out[:maxRecommendations]
	}
	return out
}

func (r *Review) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Project review: %s\n", r.Repo.FullName)
	if r.Repo.Description != "" {
		fmt.Fprintf(&sb, "%s\n", r.Repo.Description)
	}
	fmt.Fprintf(&sb, "%s\n\n", r.Repo.URL)
	fmt.Fprintf(&sb, "Final score: %.1f/10 (%s)\n", r.Score, r.Rating())

	for _, c := range r.Categories {
		filled := int(c.Score)
		fmt.Fprintf(&sb, "\n%s: %s%s %g/10\n", c.Name, strings.Repeat("█", filled), strings.Repeat("░", 10-filled), c.Score)
		for _, n := range c.Notes {
			fmt.Fprintf(&sb, "  - %s\n", n)
		}
	}

	var strengths []string
	for _, c := range r.Categories {
		strengths = append(strengths, c.Strengths...)
	}
	if len(strengths) > 0 {
		sb.WriteString("\nStrengths:\n")
		for _, s := range strengths {
			fmt.Fprintf(&sb, "  - %s\n", s)
		}
	}

	if len(r.Similar) > 0 {
		fmt.Fprintf(&sb, "\nSimilar projects (%d found):\n", len(r.Similar))
		for i, s := range r.Similar[:min(len(r.Similar), 3)] {
			fmt.Fprintf(&sb, "  %d. %s (%d stars)\n", i+1, s.FullName, s.Stars)
		}
	}

	if recs := r.Recommendations(); len(recs) > 0 {
		sb.WriteString("\nRecommendations:\n")
		for i, rec := range recs {
			fmt.Fprintf(&sb, "  %d. %s\n", i+1, rec)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// similarLimit caps the similar-project search.
const similarLimit = 5

// ReviewRepo scores repo, or the default repository when repo is empty.
func (g *GitHub) ReviewRepo(ctx context.Context, repo string) (*Review, error) {
	s, err := g.fetchSnapshot(ctx, repo)
	if err != nil {
		return nil, err
	}
	similar, err := g.searchSimilar(ctx, s)
	if err != nil {
		return nil, err
	}

	now := g.now()
	rv := &Review{
		Repo: s.Repo,
		Categories: []Category{
			scoreReadme(s.Readme),
			scoreCode(s),
			scoreDocs(s),
			scoreActivity(s, now),
			scoreCommunity(s.Repo),
			scoreUniqueness(s, similar),
			scoreDepth(s),
		},
		Similar: similar,
		At:      now,
	}
	rv.Score = weightedScore(rv.Categories)
	g.logger.Info("github repo reviewed", "repo", s.Repo.FullName, "score", rv.Score)
	return rv, nil
}

// searchSimilar finds popular repositories whose description resembles
// this one, in the same primary language.
func (g *GitHub) searchSimilar(ctx context.Context, s *snapshot) ([]*Repo, error) {
	desc := strings.ToLower(strings.TrimSpace(s.Repo.Description))
	if desc == "" {
		return nil, nil
	}
	if len(desc) > 100 {
		desc = desc[:100]
	}
	query := desc
	if lang := s.primaryLanguage(); lang != "" {
		query += " language:" + lang
	}
	res, _, err := g.client.Search.Repositories(ctx, query, &gogithub.SearchOptions{
		Sort:        "stars",
		ListOptions: gogithub.ListOptions{PerPage: similarLimit},
	})
	if err := g.optional(err, "search", s.Repo.FullName); err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	var out []*Repo
	for _, r := range res.Repositories {
		if strings.EqualFold(r.GetFullName(), s.Repo.FullName) {
			continue
		}
		out = append(out, convertRepo(r))
	}
	return out, nil
}

// weightedScore averages the category scores by weight, to one decimal.
func weightedScore(cats []Category) float64 {
	var total, weights float64
	for _, c := range cats {
		total += c.Score * c.Weight
		weights += c.Weight
	}
	if weights == 0 {
		return 0
	}
	return math.Round(total/weights*10) / 10
}

func capScore(v float64) float64 {
	return math.Max(0, math.Min(v, 10))
}

// containsAny reports whether any of terms occurs in text.
func containsAny(text string, terms ...string) bool {
	return countAny(text, terms...) > 0
}

// countAny counts how many of terms occur in text.
func countAny(text string, terms ...string) int {
	n := 0
	for _, t := range terms {
		if strings.Contains(text, t) {
			n++
		}
	}
	return n
}

var readmeSections = []struct {
	name     string
	headings []string
}{
	{"installation", []string{"## installation", "## setup", "## getting started"}},
	{"usage", []string{"## usage", "## how to use", "## examples"}},
	{"features", []string{"## features", "## what it does"}},
	{"documentation", []string{"## documentation", "## api"}},
	{"contributing", []string{"## contributing", "## contribution"}},
	{"license", []string{"## license"}},
}

func scoreReadme(readme string) Category {
	c := Category{Name: "README quality", Weight: 2}
	if readme == "" {
		c.Notes = []string{"No README found"}
		c.Advice = []string{"Add a README covering installation, usage and features."}
		return c
	}
	lower := strings.ToLower(readme)

	var found []string
	for _, s := range readmeSections {
		if containsAny(lower, s.headings...) {
			found = append(found, s.name)
		}
	}
	c.Score = float64(len(found))
	if len(found) >= 4 {
		c.Notes = append(c.Notes, fmt.Sprintf("Strong structure (%d key sections)", len(found)))
	} else {
		c.Notes = append(c.Notes, "Missing key sections; found: "+strings.Join(found, ", "))
	}

	if strings.Contains(readme, "![") || strings.Contains(readme, "<img") {
		c.Score++
		c.Notes = append(c.Notes, "Contains images or diagrams")
	} else {
		c.Notes = append(c.Notes, "No screenshots or diagrams")
	}
	if strings.Contains(readme, "```") {
		c.Score++
		c.Notes = append(c.Notes, "Includes code examples")
	} else {
		c.Notes = append(c.Notes, "No code examples")
	}
	head := readme[:min(len(readme), 500)]
	if strings.Contains(readme, "shields.io") || strings.Contains(head, "![") {
		c.Score += 0.5
		c.Notes = append(c.Notes, "Has status badges")
	}
	switch {
	case len(readme) > 1500:
		c.Score += 0.5
		c.Notes = append(c.Notes, "Comprehensive")
	case len(readme) < 500:
		c.Notes = append(c.Notes, "Too brief")
	}
	c.Score = capScore(c.Score)

	if c.Score < 7 {
		var missing []string
		for _, want := range []string{"installation", "usage", "features", "contributing"} {
			if !slices.Contains(found, want) {
				missing = append(missing, want)
			}
		}
		if len(missing) > 0 {
			c.Advice = append(c.Advice, "Add README sections: "+strings.Join(missing, ", ")+".")
		}
		if len(readme) < 1000 {
			c.Advice = append(c.Advice, "Expand the README with detailed documentation and examples.")
		}
	}
	return c
}

func scoreCode(s *snapshot) Category {
	c := Category{Name: "Code organization", Weight: 1.5}

	var organized []string
	for _, d := range s.Dirs {
		switch strings.ToLower(d) {
		case "src", "lib", "app", "components", "services", "utils", "tests", "internal", "cmd", "pkg":
			organized = append(organized, d)
		}
	}
	switch {
	case len(organized) >= 3:
		c.Score += 3
		c.Notes = append(c.Notes, "Well-organized layout: "+strings.Join(organized[:3], ", "))
	case len(organized) >= 1:
		c.Score += 1.5
		c.Notes = append(c.Notes, "Basic organization: "+strings.Join(organized, ", "))
	default:
		c.Notes = append(c.Notes, "No clear project structure")
	}

	var manifests []string
	for _, f := range []string{"package.json", "requirements.txt", "Cargo.toml", "go.mod", "Gemfile", "composer.json", "pyproject.toml"} {
		if s.Files[f] {
			manifests = append(manifests, f)
		}
	}
	if len(manifests) > 0 {
		c.Score += 2
		c.Notes = append(c.Notes, "Dependency management: "+strings.Join(manifests, ", "))
	}

	tests := s.hasTests()
	if tests {
		c.Score += 2
		c.Notes = append(c.Notes, "Includes a test suite")
	} else {
		c.Notes = append(c.Notes, "No tests detected")
	}

	ci := s.hasDir(".github", ".circleci") || s.hasFile(".gitlab-ci.yml", ".travis.yml", "Jenkinsfile")
	if ci {
		c.Score++
		c.Notes = append(c.Notes, "CI configured")
	}
	if s.hasFile("Dockerfile", "docker-compose.yml", "compose.yaml") {
		c.Score++
		c.Notes = append(c.Notes, "Dockerized")
	}
	if s.hasFile(".eslintrc", ".eslintrc.json", ".prettierrc", ".flake8", "tslint.json", ".golangci.yml", ".golangci.yaml") {
		c.Score++
		c.Notes = append(c.Notes, "Linting configured")
	}
	c.Score = capScore(c.Score)

	if c.Score < 7 {
		if !tests {
			c.Advice = append(c.Advice, "Add unit and integration tests.")
		}
		if !ci {
			c.Advice = append(c.Advice, "Set up a CI pipeline such as GitHub Actions.")
		}
	}
	return c
}

func scoreDocs(s *snapshot) Category {
	c := Category{Name: "Documentation", Weight: 1.5}
	lower := strings.ToLower(s.Readme)

	if s.hasDir("docs", "documentation", "doc", "wiki") {
		c.Score += 3
		c.Notes = append(c.Notes, "Dedicated documentation folder")
	}
	switch n := len(s.Readme); {
	case n > 2000:
		c.Score += 3
		c.Notes = append(c.Notes, "Comprehensive README")
	case n > 1000:
		c.Score += 2
		c.Notes = append(c.Notes, "Good README coverage")
	case n > 500:
		c.Score++
		c.Notes = append(c.Notes, "Basic README")
	}

	apiDocs := containsAny(lower, "swagger", "openapi", "api.md")
	for f := range s.Files {
		if containsAny(strings.ToLower(f), "swagger", "openapi", "api.md") {
			apiDocs = true
		}
	}
	if apiDocs {
		c.Score += 2
		c.Notes = append(c.Notes, "API documentation present")
	}
	if s.Files["CONTRIBUTING.md"] || strings.Contains(lower, "contributing") {
		c.Score++
		c.Notes = append(c.Notes, "Contribution guidelines")
	}
	if s.Files["CHANGELOG.md"] || strings.Contains(lower, "changelog") {
		c.Score++
		c.Notes = append(c.Notes, "Changelog maintained")
	}
	c.Score = capScore(c.Score)
	if c.Score < 7 {
		c.Advice = append(c.Advice, "Create a documentation folder with API references.")
	}
	return c
}

func scoreActivity(s *snapshot, now time.Time) Category {
	c := Category{Name: "Activity", Weight: 1}

	if len(s.Commits) > 0 {
		days := int(now.Sub(s.Commits[0]).Hours() / 24)
		switch {
		case days < 7:
			c.Score += 4
			c.Notes = append(c.Notes, "Very active (commits within the last week)")
		case days < 30:
			c.Score += 3
			c.Notes = append(c.Notes, "Active (commits within the last month)")
		case days < 90:
			c.Score += 2
			c.Notes = append(c.Notes, "Moderately active (commits within 3 months)")
		case days < 180:
			c.Score++
			c.Notes = append(c.Notes, "Low activity (commits within 6 months)")
		default:
			c.Notes = append(c.Notes, "Inactive (no recent commits)")
		}
	}

	switch n := len(s.Commits); {
	case n >= 20:
		c.Score += 3
		c.Notes = append(c.Notes, fmt.Sprintf("High commit frequency (%d recent commits)", n))
	case n >= 10:
		c.Score += 2
	case n >= 5:
		c.Score++
	}

	switch open := s.Repo.OpenIssues; {
	case open == 0:
		c.Score += 3
		c.Notes = append(c.Notes, "No open issues")
	case open < 5:
		c.Score += 2
		c.Notes = append(c.Notes, "Few open issues")
	case open < 20:
		c.Score++
		c.Notes = append(c.Notes, "Some open issues")
	default:
		c.Notes = append(c.Notes, fmt.Sprintf("Many open issues (%d)", open))
	}
	c.Score = capScore(c.Score)
	if c.Score < 6 {
		c.Advice = append(c.Advice, "Keep a regular commit cadence and work down open issues.")
	}
	return c
}

func scoreCommunity(r *Repo) Category {
	c := Category{Name: "Community", Weight: 1}

	switch {
	case r.Stars >= 1000:
		c.Score += 4
		c.Notes = append(c.Notes, fmt.Sprintf("Popular project (%d stars)", r.Stars))
	case r.Stars >= 100:
		c.Score += 3
		c.Notes = append(c.Notes, fmt.Sprintf("Good traction (%d stars)", r.Stars))
	case r.Stars >= 20:
		c.Score += 2
		c.Notes = append(c.Notes, fmt.Sprintf("Some interest (%d stars)", r.Stars))
	case r.Stars >= 5:
		c.Score++
		c.Notes = append(c.Notes, fmt.Sprintf("Limited attention (%d stars)", r.Stars))
	default:
		c.Notes = append(c.Notes, "New or unknown project (few stars)")
	}

	switch {
	case r.Forks >= 100:
		c.Score += 3
		c.Notes = append(c.Notes, fmt.Sprintf("Highly forked (%d forks)", r.Forks))
	case r.Forks >= 20:
		c.Score += 2
	case r.Forks >= 5:
		c.Score++
	}

	if r.License != "" {
		c.Score += 2
		c.Notes = append(c.Notes, "Licensed: "+r.License)
	} else {
		c.Notes = append(c.Notes, "No license specified")
	}
	if r.HasIssues {
		c.Score++
		c.Notes = append(c.Notes, "Issues enabled")
	}
	c.Score = capScore(c.Score)
	if c.Score < 5 {
		c.Advice = append(c.Advice, "Improve community engagement: add a license, enable issues, promote the project.")
	}
	return c
}

func scoreUniqueness(s *snapshot, similar []*Repo) Category {
	c := Category{Name: "Uniqueness", Weight: 2.5, Score: 5}
	readme := strings.ToLower(s.Readme)
	desc := strings.ToLower(s.Repo.Description)

	claims := countAny(readme+"\n"+desc,
		"novel", "first", "new approach", "innovative", "unique",
		"revolutionary", "cutting-edge", "breakthrough", "never before")
	switch {
	case claims >= 3:
		c.Score += 2
		c.Notes = append(c.Notes, "Claims innovation")
	case claims >= 1:
		c.Score++
	}

	if len(similar) > 0 {
		total := 0
		for _, r := range similar {
			total += r.Stars
		}
		avg := float64(total) / float64(len(similar))
		stars := float64(s.Repo.Stars)
		switch {
		case stars > avg*2:
			c.Score += 2
			c.Notes = append(c.Notes, "Outperforms similar projects (over 2x their stars)")
			c.Strengths = append(c.Strengths, "Leader in its category")
		case stars > avg:
			c.Score++
			c.Notes = append(c.Notes, "Competitive with similar projects")
		default:
			c.Score--
			c.Notes = append(c.Notes, "Similar projects exist with more traction")
		}
	} else {
		c.Score += 2
		c.Notes = append(c.Notes, "Few or no similar projects found")
		c.Strengths = append(c.Strengths, "Pioneering in this space")
	}

	if containsAny(readme, "webassembly", "quantum", "web3", "decentralized", "edge computing") {
		c.Score++
		c.Notes = append(c.Notes, "Uses cutting-edge technology")
		c.Strengths = append(c.Strengths, "Innovative tech stack")
	}
	if containsAny(readme, "why this", "what makes", "unlike", "different from", "## features") {
		c.Score++
		c.Notes = append(c.Notes, "States its value proposition")
	} else {
		c.Notes = append(c.Notes, "Value proposition not articulated")
	}
	if countAny(readme, "solves", "addresses", "fixes", "improves", "better than") >= 2 {
		c.Score++
		c.Strengths = append(c.Strengths, "Clear problem-solution fit")
	}
	c.Score = capScore(c.Score)
	if c.Score < 6 {
		c.Advice = append(c.Advice,
			"State the unique value proposition plainly.",
			"Compare against similar projects and say what this one does better.")
	}
	return c
}

func scoreDepth(s *snapshot) Category {
	c := Category{Name: "Technical depth", Weight: 1.5}
	readme := strings.ToLower(s.Readme)

	switch n := len(s.Languages); {
	case n >= 3:
		c.Score += 2
		c.Notes = append(c.Notes, fmt.Sprintf("Multi-language project (%d languages)", n))
	case n == 2:
		c.Score++
	}

	switch arch := countAny(readme, "microservice", "distributed", "scalable", "architecture",
		"kubernetes", "docker", "api gateway", "load balanc"); {
	case arch >= 3:
		c.Score += 3
		c.Notes = append(c.Notes, "Complex or scalable architecture")
	case arch >= 1:
		c.Score += 1.5
	}
	if containsAny(readme, "machine learning", "neural network", "blockchain",
		"webassembly", "graphql", "grpc", "websocket", "llm") {
		c.Score += 2
		c.Notes = append(c.Notes, "Advanced technology")
	}
	if containsAny(readme, "database", "postgres", "mongodb", "redis", "sqlite", "sql", "orm") {
		c.Score++
		c.Notes = append(c.Notes, "Data persistence layer")
	}
	if countAny(readme, "authentication", "authorization", "encryption", "jwt", "oauth", "security") >= 2 {
		c.Score++
		c.Notes = append(c.Notes, "Security considerations")
	}
	if containsAny(readme, "optimiz", "performance", "caching", "fast", "efficient") {
		c.Score++
		c.Notes = append(c.Notes, "Performance-focused")
	}
	c.Score = capScore(c.Score)
	if c.Score < 6 {
		c.Advice = append(c.Advice, "Consider deeper features such as auth, caching or optimization.")
	}
	return c
}
