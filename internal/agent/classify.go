package agent

import (
	"regexp"
	"slices"
	"strings"
)

// Capability tags a family of tools a request may need.
type Capability string

// Known capabilities.
const (
	CapWeather    Capability = "weather"
	CapTask       Capability = "task"
	CapTime       Capability = "time"
	CapEmail      Capability = "email"
	CapContact    Capability = "contact"
	CapSearch     Capability = "search"
	CapTranscript Capability = "transcript"
	CapGitHub     Capability = "github"
	CapDiscord    Capability = "discord"
)

// Classification is the set of capabilities a message implies.
type Classification struct {
	Capabilities []Capability
}

// ToolsRequired reports whether any capability matched.
func (c Classification) ToolsRequired() bool {
	return len(c.Capabilities) > 0
}

// Has reports whether want was matched.
func (c Classification) Has(want Capability) bool {
	return slices.Contains(c.Capabilities, want)
}

// Classifier decides which capabilities a user message needs.
type Classifier interface {
	Classify(message string) Classification
}

// DefaultKeywords maps each capability to the words and phrases that
// signal it.
var DefaultKeywords = map[Capability][]string{
	CapWeather: {
		"weather", "temperature", "forecast", "rain", "raining", "snow",
		"snowing", "sunny", "humidity", "humid", "how hot", "how cold", "umbrella",
	},
	CapTask: {
		"task", "tasks", "todo", "todos", "to-do", "to do list", "reminder",
		"reminders", "remind me",
	},
	CapTime: {
		"what time", "current time", "time is it", "time now", "today's date",
		"what date", "what day", "date today",
	},
	CapEmail: {
		"email", "emails", "e-mail", "e-mails", "send mail", "send a mail",
		"mail this", "mail it",
	},
	CapContact: {
		"contact", "contacts", "alias", "aliases", "address book",
	},
	CapSearch: {
		"search", "look up", "lookup", "stack overflow", "stackoverflow",
		"google", "find information",
	},
	CapTranscript: {
		"transcript", "transcribe", "youtube", "youtu.be", "video",
	},
	CapGitHub: {
		"github", "open an issue", "create an issue", "file an issue",
		"file a bug", "new issue", "my repos", "my repositories", "readme",
	},
	CapDiscord: {
		"discord",
	},
}

// DefaultExclusions are removed from a message before the rules of
// their capability run. An address given as data ("email: sam@x.com",
// "john's email address") does not ask for mail to be sent.
var DefaultExclusions = map[Capability]string{
	CapEmail: `\be-?mails?(?:\s*[:=]|\s+address(?:es)?\b)`,
}

// capabilityOrder fixes the order capabilities are reported in.
var capabilityOrder = []Capability{
	CapWeather, CapTask, CapTime, CapEmail, CapContact,
	CapSearch, CapTranscript, CapGitHub, CapDiscord,
}

type keywordRule struct {
	capability Capability
	pattern    *regexp.Regexp
	exclude    *regexp.Regexp
}

// KeywordClassifier matches whole words and phrases against the
// lower-cased message. It is safe for concurrent use.
type KeywordClassifier struct {
	rules []keywordRule
}

// NewKeywordClassifier compiles a keyword table. A nil table selects
// [DefaultKeywords] together with [DefaultExclusions].
func NewKeywordClassifier(table map[Capability][]string) *KeywordClassifier {
	var exclusions map[Capability]string
	if table == nil {
		table = DefaultKeywords
		exclusions = DefaultExclusions
	}

	order := append([]Capability(nil), capabilityOrder...)
	var extra []Capability
	for c := range table {
		if !slices.Contains(capabilityOrder, c) {
			extra = append(extra, c)
		}
	}
	slices.Sort(extra)
	order = append(order, extra...)

	kc := &KeywordClassifier{}
	for _, c := range order {
		words := table[c]
		if len(words) == 0 {
			continue
		}
		alts := make([]string, 0, len(words))
		for _, w := range words {
			w = regexp.QuoteMeta(strings.ToLower(strings.TrimSpace(w)))
			alts = append(alts, strings.ReplaceAll(w, " ", `\s+`))
		}
		rule := keywordRule{
			capability: c,
			pattern:    regexp.MustCompile(`\b(?:` + strings.Join(alts, "|") + `)\b`),
		}
		if ex := exclusions[c]; ex != "" {
			rule.exclude = regexp.MustCompile(ex)
		}
		kc.rules = append(kc.rules, rule)
	}
	return kc
}

// Classify implements [Classifier].
func (kc *KeywordClassifier) Classify(message string) Classification {
	msg := strings.ToLower(message)
	var c Classification
	for _, r := range kc.rules {
		text := msg
		if r.exclude != nil {
			text = r.exclude.ReplaceAllString(text, " ")
		}
		if r.pattern.MatchString(text) {
			c.Capabilities = append(c.Capabilities, r.capability)
		}
	}
	return c
}
