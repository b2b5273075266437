package tools

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nugget/bob-assistant/internal/contacts"
	"github.com/nugget/bob-assistant/internal/email"
	"github.com/nugget/bob-assistant/internal/forge"
	"github.com/nugget/bob-assistant/internal/media"
	"github.com/nugget/bob-assistant/internal/search"
	"github.com/nugget/bob-assistant/internal/tasks"
	"github.com/nugget/bob-assistant/internal/weather"
)

// Built-in tool names.
const (
	GetWeather        = "get_weather"
	CreateTask        = "create_task"
	ListTasks         = "list_tasks"
	CompleteTask      = "complete_task"
	GetCurrentTime    = "get_current_time"
	AddContact        = "add_contact"
	GetContact        = "get_contact"
	ListContacts      = "list_contacts"
	SendEmail         = "send_email"
	Search            = "search"
	GetTranscript     = "get_transcript"
	CreateGitHubIssue = "create_github_issue"
	ListGitHubIssues  = "list_github_issues"
	ListMyRepos       = "list_my_repos"
	ReviewGitHubRepo  = "review_github_repo"
	DraftReadme       = "draft_readme"
	ShareDiscord      = "share_discord"
)

// timeLayout renders e.g. "Monday, January 02, 2006 at 03:04 PM".
const timeLayout = "Monday, January 02, 2006 at 03:04 PM"

// listTasksLimit caps the pending tasks shown by list_tasks.
const listTasksLimit = 10

// WeatherSource reports current conditions.
type WeatherSource interface {
	Configured() bool
	Current(ctx context.Context, location string) (*weather.Report, error)
}

// Mailer sends email to an address or contact alias.
type Mailer interface {
	Configured() bool
	Send(ctx context.Context, to, subject, body string) (*email.Delivery, error)
}

// Searcher runs web searches.
type Searcher interface {
	Configured() bool
	Search(ctx context.Context, query string, opts search.Options) ([]search.Result, error)
}

// Transcriber fetches video transcripts.
type Transcriber interface {
	Configured() bool
	Transcript(ctx context.Context, url string) (*media.Result, error)
}

// Forge opens and lists issues and inspects repositories in a code
// forge. An empty repo means the forge's default repository.
type Forge interface {
	Configured() bool
	CreateIssue(ctx context.Context, repo string, issue forge.NewIssue) (*forge.Issue, error)
	ListIssues(ctx context.Context, repo, state string, limit int) ([]*forge.Issue, error)
	ListMyRepos(ctx context.Context, limit int) ([]*forge.Repo, error)
	ReviewRepo(ctx context.Context, repo string) (*forge.Review, error)
	DraftReadme(ctx context.Context, repo string) (string, error)
}

// Poster shares a message to a chat channel.
type Poster interface {
	Configured() bool
	Send(ctx context.Context, content string) error
}

// Backends are the services behind the built-in tools. Tasks, contacts
// and the clock are always registered. A remote backend that is nil or
// reports itself unconfigured leaves its tools out of the registry, so
// prompts never advertise them.
type Backends struct {
	Tasks    *tasks.Store
	Contacts *contacts.Store
	Weather  WeatherSource
	Email    Mailer
	Search   Searcher
	Media    Transcriber
	GitHub   Forge
	Discord  Poster

	// Now defaults to time.Now.
	Now func() time.Time
}

type configurable interface {
	Configured() bool
}

func ready(c configurable) bool {
	return c != nil && c.Configured()
}

// RegisterBuiltins adds the built-in tools backed by b to r.
func RegisterBuiltins(r *Registry, b Backends) error {
	now := b.Now
	if now == nil {
		now = time.Now
	}

	var list []*Tool
	if b.Tasks != nil {
		list = append(list, taskTools(b.Tasks)...)
	}
	list = append(list, &Tool{
		Name:        GetCurrentTime,
		Description: "Get the current date and time. No input needed.",
		Handler: func(context.Context, string) (string, error) {
			return "Current date and time: " + now().Format(timeLayout), nil
		},
	})
	if b.Contacts != nil {
		list = append(list, contactTools(b.Contacts)...)
	}
	if ready(b.Weather) {
		list = append(list, weatherTool(b.Weather))
	}
	if ready(b.Email) {
		list = append(list, emailTool(b.Email))
	}
	if ready(b.Search) {
		list = append(list, searchTool(b.Search))
	}
	if ready(b.Media) {
		list = append(list, transcriptTool(b.Media))
	}
	if ready(b.GitHub) {
		list = append(list, githubTools(b.GitHub)...)
	}
	if ready(b.Discord) {
		list = append(list, discordTool(b.Discord))
	}

	for _, t := range list {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

func required(input, what string) (string, error) {
	input = strings.TrimSpace(stripQuotes(input))
	if input == "" {
		return "", fmt.Errorf("input required: %s", what)
	}
	return input, nil
}

func taskTools(store *tasks.Store) []*Tool {
	return []*Tool{
		{
			Name:          CreateTask,
			Description:   "Create a new task or reminder. Input should be the task description.",
			RequiresInput: true,
			Handler: func(_ context.Context, input string) (string, error) {
				desc, err := required(input, "the task description")
				if err != nil {
					return "", err
				}
				id, err := store.CreateTask("", desc)
				if err != nil {
					return "", err
				}
				t, err := store.Get(id)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("Task created successfully: '%s' (#%d)", t.Title, t.ID), nil
			},
		},
		{
			Name:        ListTasks,
			Description: "Get the list of pending tasks. No input needed.",
			Handler: func(context.Context, string) (string, error) {
				pending, err := store.List(tasks.StatusPending, listTasksLimit)
				if err != nil {
					return "", err
				}
				if len(pending) == 0 {
					return "You have no pending tasks.", nil
				}
				var sb strings.Builder
				sb.WriteString("Your pending tasks:")
				for i, t := range pending {
					fmt.Fprintf(&sb, "\n%d. %s (#%d)", i+1, t.Title, t.ID)
				}
				return sb.String(), nil
			},
		},
		{
			Name:          CompleteTask,
			Description:   "Mark a task as completed. Input should be the task title or ID.",
			RequiresInput: true,
			Handler: func(_ context.Context, input string) (string, error) {
				query, err := required(input, "the task title or ID")
				if err != nil {
					return "", err
				}
				t, err := store.FindPending(query)
				if err != nil {
					return "", err
				}
				if t == nil {
					return fmt.Sprintf("No pending task found matching '%s'", query), nil
				}
				if _, err := store.Complete(t.ID); err != nil {
					return "", err
				}
				return fmt.Sprintf("Task completed: '%s'", t.Title), nil
			},
		},
	}
}

func contactTools(store *contacts.Store) []*Tool {
	return []*Tool{
		{
			Name:          AddContact,
			Description:   `Save a contact alias for an email address. Input: "alias: john, email: john@example.com" with optional "name:" and "notes:".`,
			RequiresInput: true,
			Handler: func(_ context.Context, input string) (string, error) {
				a := ParseArgs(input, "alias", "email", "name", "notes")
				if a.Get("alias") == "" || a.Get("email") == "" {
					return "", errors.New(`alias and email are required, e.g. "alias: john, email: john@example.com"`)
				}
				c := &contacts.Contact{
					Alias: a.Get("alias"),
					Email: a.Get("email"),
					Name:  a.Get("name"),
					Notes: a.Get("notes"),
				}
				if err := store.Add(c); err != nil {
					return "", err
				}
				return fmt.Sprintf("Contact saved: %s -> %s", c.Alias, c.Email), nil
			},
		},
		{
			Name:          GetContact,
			Description:   "Look up a saved contact. Input should be the alias.",
			RequiresInput: true,
			Handler: func(_ context.Context, input string) (string, error) {
				alias, err := required(input, "the contact alias")
				if err != nil {
					return "", err
				}
				c, err := store.Get(alias)
				if err != nil {
					return "", err
				}
				if c == nil {
					return fmt.Sprintf("No contact found for alias '%s'", contacts.NormalizeAlias(alias)), nil
				}
				return formatContact(c), nil
			},
		},
		{
			Name:        ListContacts,
			Description: "List saved contacts. No input needed.",
			Handler: func(context.Context, string) (string, error) {
				list, err := store.List(0)
				if err != nil {
					return "", err
				}
				if len(list) == 0 {
					return "You have no saved contacts.", nil
				}
				lines := make([]string, 0, len(list)+1)
				lines = append(lines, "Your contacts:")
				for _, c := range list {
					lines = append(lines, "- "+formatContact(c))
				}
				return strings.Join(lines, "\n"), nil
			},
		},
	}
}

func formatContact(c *contacts.Contact) string {
	s := c.Alias + ": "
	if c.Name != "" {
		s += c.Name + " <" + c.Email + ">"
	} else {
		s += c.Email
	}
	if c.Notes != "" {
		s += " (" + c.Notes + ")"
	}
	return s
}

func weatherTool(src WeatherSource) *Tool {
	return &Tool{
		Name:          GetWeather,
		Description:   "Get current weather information for a location. Input should be a city name.",
		RequiresInput: true,
		Handler: func(ctx context.Context, input string) (string, error) {
			location, err := required(input, "a city name")
			if err != nil {
				return "", err
			}
			r, err := src.Current(ctx, location)
			if errors.Is(err, weather.ErrLocationNotFound) {
				return fmt.Sprintf("Unable to get weather for %s: location not found", location), nil
			}
			if err != nil {
				return "", err
			}
			return r.String(), nil
		},
	}
}

func emailTool(m Mailer) *Tool {
	return &Tool{
		Name:          SendEmail,
		Description:   `Send an email. Input: "to: <contact alias or address>, subject: <subject>, body: <message>".`,
		RequiresInput: true,
		Handler: func(ctx context.Context, input string) (string, error) {
			a := ParseArgs(input, "to", "subject", "body")
			to, body := a.Get("to"), a.Get("body")
			if to == "" || body == "" {
				return "", errors.New(`to and body are required, e.g. "to: john, subject: Hello, body: See you soon"`)
			}
			subject := a.Get("subject")
			if subject == "" {
				subject = "Message from Bob"
			}
			d, err := m.Send(ctx, to, subject, body)
			if err != nil {
				return "", err
			}
			if d.Alias != "" {
				return fmt.Sprintf("Email sent to %s (%s) with subject '%s'", d.Alias, d.To, subject), nil
			}
			return fmt.Sprintf("Email sent to %s with subject '%s'", d.To, subject), nil
		},
	}
}

func searchTool(s Searcher) *Tool {
	return &Tool{
		Name:          Search,
		Description:   "Search programming Q&A and the web. Input should be the search query.",
		RequiresInput: true,
		Handler: func(ctx context.Context, input string) (string, error) {
			query, err := required(input, "a search query")
			if err != nil {
				return "", err
			}
			results, err := s.Search(ctx, query, search.Options{})
			if err != nil {
				return "", err
			}
			return search.FormatResults(query, results), nil
		},
	}
}

func transcriptTool(t Transcriber) *Tool {
	return &Tool{
		Name:          GetTranscript,
		Description:   "Get the transcript of a video. Input should be the video URL.",
		RequiresInput: true,
		Handler: func(ctx context.Context, input string) (string, error) {
			u, err := required(input, "a video URL")
			if err != nil {
				return "", err
			}
			r, err := t.Transcript(ctx, u)
			if err != nil {
				return "", err
			}
			return r.String(), nil
		},
	}
}

// forgeListLimit is the default count for the forge list tools.
const forgeListLimit = 10

func githubTools(g Forge) []*Tool {
	return []*Tool{
		{
			Name:          CreateGitHubIssue,
			Description:   `Create a GitHub issue. Input: "title: <title>, body: <details>" with optional "labels: a;b" and "repo: owner/name".`,
			RequiresInput: true,
			Handler: func(ctx context.Context, input string) (string, error) {
				a := ParseArgs(input, "title", "body", "labels", "repo")
				title := a.Get("title")
				if title == "" && len(a) == 0 {
					title = strings.TrimSpace(stripQuotes(input))
				}
				if title == "" {
					return "", errors.New(`title is required, e.g. "title: Login fails, body: steps to reproduce"`)
				}
				issue, err := g.CreateIssue(ctx, a.Get("repo"), forge.NewIssue{
					Title:  title,
					Body:   a.Get("body"),
					Labels: splitList(a.Get("labels")),
				})
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("Created GitHub issue #%d in %s: %s", issue.Number, issue.Repo, issue.URL), nil
			},
		},
		{
			Name:        ListGitHubIssues,
			Description: `List GitHub issues. Optional input: "repo: owner/name, state: open|closed|all, limit: 10". Defaults to open issues of the default repository.`,
			Handler: func(ctx context.Context, input string) (string, error) {
				a := repoArgs(input, "repo", "state", "limit")
				limit, err := parseLimit(a.Get("limit"))
				if err != nil {
					return "", err
				}
				state := strings.ToLower(a.Get("state"))
				switch state {
				case "":
					state = "open"
				case "open", "closed", "all":
				default:
					return "", fmt.Errorf("state must be open, closed or all, got %q", state)
				}
				issues, err := g.ListIssues(ctx, a.Get("repo"), state, limit)
				if err != nil {
					return "", err
				}
				return formatIssues(issues, state), nil
			},
		},
		{
			Name:        ListMyRepos,
			Description: `List your GitHub repositories, most recently updated first. Optional input: a number of repositories to show.`,
			Handler: func(ctx context.Context, input string) (string, error) {
				a := ParseArgs(input, "limit")
				raw := a.Get("limit")
				if len(a) == 0 {
					raw = strings.TrimSpace(stripQuotes(input))
				}
				limit, err := parseLimit(raw)
				if err != nil {
					return "", err
				}
				repos, err := g.ListMyRepos(ctx, limit)
				if err != nil {
					return "", err
				}
				return formatRepos(repos), nil
			},
		},
		{
			Name:        ReviewGitHubRepo,
			Description: `Score a GitHub repository on README, code organization, documentation, activity, community, uniqueness and technical depth. Input: "owner/name" or a GitHub URL.`,
			Handler: func(ctx context.Context, input string) (string, error) {
				rv, err := g.ReviewRepo(ctx, repoArgs(input, "repo").Get("repo"))
				if err != nil {
					return "", err
				}
				return rv.String(), nil
			},
		},
		{
			Name:        DraftReadme,
			Description: `Draft a README.md for a GitHub repository from its layout and metadata. Input: "owner/name" or a GitHub URL.`,
			Handler: func(ctx context.Context, input string) (string, error) {
				return g.DraftReadme(ctx, repoArgs(input, "repo").Get("repo"))
			},
		},
	}
}

// repoArgs parses keyed input, treating a bare unkeyed value as the repo.
func repoArgs(input string, keys ...string) Args {
	a := ParseArgs(input, keys...)
	if len(a) == 0 {
		if v := strings.TrimSpace(stripQuotes(input)); v != "" {
			a["repo"] = v
		}
	}
	return a
}

// parseLimit reads an optional positive count, defaulting to forgeListLimit.
func parseLimit(s string) (int, error) {
	if s == "" {
		return forgeListLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("limit must be a positive number, got %q", s)
	}
	return min(n, 100), nil
}

func formatIssues(issues []*forge.Issue, state string) string {
	label := state
	if state == "all" {
		label = ""
	} else {
		label += " "
	}
	if len(issues) == 0 {
		return fmt.Sprintf("No %sissues found.", label)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "GitHub %sissues in %s:", label, issues[0].Repo)
	for _, i := range issues {
		fmt.Fprintf(&sb, "\n#%d %s", i.Number, i.Title)
		if len(i.Labels) > 0 {
			fmt.Fprintf(&sb, " [%s]", strings.Join(i.Labels, ", "))
		}
		if !i.CreatedAt.IsZero() {
			fmt.Fprintf(&sb, " (%s)", i.CreatedAt.Format("2006-01-02"))
		}
		if state == "all" {
			fmt.Fprintf(&sb, " %s", i.State)
		}
		if i.URL != "" {
			sb.WriteString(" " + i.URL)
		}
	}
	return sb.String()
}

func formatRepos(repos []*forge.Repo) string {
	if len(repos) == 0 {
		return "You have no GitHub repositories."
	}
	var sb strings.Builder
	sb.WriteString("Your GitHub repositories:")
	for i, r := range repos {
		desc := r.Description
		if desc == "" {
			desc = "No description"
		}
		visibility := "public"
		if r.Private {
			visibility = "private"
		}
		fmt.Fprintf(&sb, "\n%d. %s (%s, %d stars): %s", i+1, r.FullName, visibility, r.Stars, desc)
	}
	return sb.String()
}

func discordTool(p Poster) *Tool {
	return &Tool{
		Name:          ShareDiscord,
		Description:   "Share a message to the Discord channel. Input should be the message text.",
		RequiresInput: true,
		Handler: func(ctx context.Context, input string) (string, error) {
			msg, err := required(input, "the message text")
			if err != nil {
				return "", err
			}
			if err := p.Send(ctx, msg); err != nil {
				return "", err
			}
			return "Message successfully sent through Discord", nil
		},
	}
}

// splitList splits "a;b" or "a, b" into trimmed non-empty items.
func splitList(s string) []string {
	var out []string
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' }) {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
