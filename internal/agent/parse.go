package agent

import (
	"regexp"
	"strings"
)

// StepKind tags the outcome of parsing one model reply.
type StepKind int

const (
	// StepMalformed means the reply followed neither grammar.
	StepMalformed StepKind = iota
	// StepFinalAnswer means the reply concluded with a Final Answer.
	StepFinalAnswer
	// StepAction means the reply asked for a tool call.
	StepAction
)

// String returns the kind's name for logging.
func (k StepKind) String() string {
	switch k {
	case StepFinalAnswer:
		return "final_answer"
	case StepAction:
		return "action"
	default:
		return "malformed"
	}
}

// Step is one parsed model reply.
type Step struct {
	Kind StepKind

	// Answer is set for StepFinalAnswer.
	Answer string

	// Action and Input are set for StepAction.
	Action string
	Input  string

	// Thought is the model's reasoning text, when present.
	Thought string

	// Text is the reply as it belongs in the scratchpad. For actions,
	// anything from a self-written Observation onward is dropped.
	Text string
}

// Markers start a line and may be preceded by indentation, a quote
// marker or markdown emphasis. They are matched case-insensitively.
const markerPrefix = `(?im)^[ \t>*_]*`

var (
	// finalAnswerPattern accepts any case at the start of a line, but
	// only the exact "Final Answer" spelling mid-line, as in
	// "Thought: done. Final Answer: ...".
	finalAnswerPattern = regexp.MustCompile(`(?m)(?:^[ \t>*_]*(?i:final[ \t]+answer)|Final[ \t]+Answer)[ \t]*[*_]*:[*_]*`)
	actionPattern      = regexp.MustCompile(markerPrefix + `action[ \t]*[*_]*:[*_]*[ \t]*(.*)$`)
	actionInputPattern = regexp.MustCompile(markerPrefix + `action[ \t]+input[ \t]*[*_]*:[*_]*`)
	observationPattern = regexp.MustCompile(markerPrefix + `observation[ \t]*[*_]*:`)
	thoughtPattern     = regexp.MustCompile(`(?i)thought[ \t]*[*_]*:`)

	// stopPattern ends a Final Answer or an Action Input.
	stopPattern = regexp.MustCompile(markerPrefix + `(?:thought|action|action[ \t]+input|observation)[ \t]*[*_]*:`)

	// anyMarkerPattern finds where free reasoning text gives way to
	// the grammar.
	anyMarkerPattern = regexp.MustCompile(markerPrefix + `(?:thought|action|action[ \t]+input|observation|final[ \t]+answer)[ \t]*[*_]*:`)
)

// Parse interprets a model reply. A Final Answer anywhere in the reply
// takes precedence over Action parsing; the text after its last
// occurrence is the answer. Otherwise the first Action line and the
// first Action Input line are required. Anything ambiguous is
// StepMalformed.
func Parse(text string) Step {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	step := Step{Thought: extractThought(text), Text: strings.TrimSpace(text)}

	if locs := finalAnswerPattern.FindAllStringIndex(text, -1); len(locs) > 0 {
		answer := text[locs[len(locs)-1][1]:]
		if m := stopPattern.FindStringIndex(answer); m != nil {
			answer = answer[:m[0]]
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			return step
		}
		step.Kind = StepFinalAnswer
		step.Answer = answer
		return step
	}

	if m := observationPattern.FindStringIndex(text); m != nil {
		step.Text = strings.TrimSpace(text[:m[0]])
	}

	am := actionPattern.FindStringSubmatch(step.Text)
	im := actionInputPattern.FindStringIndex(step.Text)
	if am == nil || im == nil {
		return step
	}

	name := cleanActionName(am[1])
	if name == "" {
		return step
	}

	input := step.Text[im[1]:]
	if m := stopPattern.FindStringIndex(input); m != nil {
		input = input[:m[0]]
	}

	step.Kind = StepAction
	step.Action = name
	step.Input = cleanInput(input)
	return step
}

func extractThought(text string) string {
	if loc := thoughtPattern.FindStringIndex(text); loc != nil {
		rest := text[loc[1]:]
		if m := anyMarkerPattern.FindStringIndex(rest); m != nil {
			rest = rest[:m[0]]
		}
		return strings.TrimSpace(rest)
	}
	// Prompts end with an open "Thought:", so leading prose is the
	// thought itself.
	if m := anyMarkerPattern.FindStringIndex(text); m != nil {
		return strings.TrimSpace(text[:m[0]])
	}
	return strings.TrimSpace(text)
}

func cleanActionName(s string) string {
	s = strings.Trim(s, " \t*_`\"'[]")
	s = strings.TrimSuffix(s, ".")
	return strings.TrimSpace(s)
}

func cleanInput(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		// Drop a language tag on the fence line.
		if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[\"") {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"`")
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}
