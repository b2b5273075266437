package agent

import "strings"

// EntryKind distinguishes model output from tool observations.
type EntryKind int

const (
	EntryModel EntryKind = iota
	EntryObservation
)

// Entry is one scratchpad item.
type Entry struct {
	Kind EntryKind
	Text string

	// Corrective marks observations written by the loop itself rather
	// than returned by a tool.
	Corrective bool
}

// Scratchpad is the transcript replayed into each prompt of a single
// request. Two observations are never adjacent.
type Scratchpad struct {
	entries []Entry
}

// AddModel records a model reply.
func (s *Scratchpad) AddModel(text string) {
	s.entries = append(s.entries, Entry{Kind: EntryModel, Text: strings.TrimSpace(text)})
}

// AddObservation records a tool observation.
func (s *Scratchpad) AddObservation(text string) {
	s.addObservation(text, false)
}

// AddCorrection records an observation produced by the loop to steer
// the model back to the grammar or to the tools it skipped.
func (s *Scratchpad) AddCorrection(text string) {
	s.addObservation(text, true)
}

// An observation that directly follows another is folded into it.
func (s *Scratchpad) addObservation(text string, corrective bool) {
	text = strings.TrimSpace(text)
	if n := len(s.entries); n > 0 && s.entries[n-1].Kind == EntryObservation {
		s.entries[n-1].Text += "\n" + text
		s.entries[n-1].Corrective = s.entries[n-1].Corrective && corrective
		return
	}
	s.entries = append(s.entries, Entry{Kind: EntryObservation, Text: text, Corrective: corrective})
}

// Entries returns a copy of the entries in order.
func (s *Scratchpad) Entries() []Entry {
	return append([]Entry(nil), s.entries...)
}

// Len returns the number of entries.
func (s *Scratchpad) Len() int {
	return len(s.entries)
}

// String renders the scratchpad for inclusion in a prompt.
func (s *Scratchpad) String() string {
	var sb strings.Builder
	for i, e := range s.entries {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if e.Kind == EntryObservation {
			sb.WriteString("Observation: ")
		}
		sb.WriteString(e.Text)
	}
	return sb.String()
}

// Summary returns the most recent tool observation or model thought,
// used as the answer when the iteration ceiling is reached.
func (s *Scratchpad) Summary() string {
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.Kind == EntryObservation {
			if !e.Corrective {
				return e.Text
			}
			continue
		}
		if t := Parse(e.Text).Thought; t != "" {
			return t
		}
	}
	return ""
}
