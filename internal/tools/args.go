package tools

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Args holds named values extracted from a tool's text input.
type Args map[string]string

// Get returns the trimmed value for key, or "".
func (a Args) Get(key string) string {
	return strings.TrimSpace(a[key])
}

// ParseArgs extracts the named keys from a tool input. Models produce
// structured input in one of two shapes, and both are accepted:
//
//	{"to": "john", "subject": "Hi"}
//	to: john, subject: Hi, body: See you at 5, ok?
//
// In the second form a value runs until the next known key, so values
// may contain commas. Keys are matched case-insensitively. Unknown keys
// are ignored.
func ParseArgs(input string, keys ...string) Args {
	input = strings.TrimSpace(stripQuotes(input))
	args := make(Args, len(keys))
	if input == "" || len(keys) == 0 {
		return args
	}

	if strings.HasPrefix(input, "{") {
		var raw map[string]any
		if err := json.Unmarshal([]byte(input), &raw); err == nil {
			for k, v := range raw {
				for _, want := range keys {
					if strings.EqualFold(k, want) {
						args[want] = jsonString(v)
					}
				}
			}
			return args
		}
	}

	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = regexp.QuoteMeta(k)
	}
	re := regexp.MustCompile(`(?i)(?:^|[\s,;{])(` + strings.Join(quoted, "|") + `)\s*[:=]`)

	matches := re.FindAllStringSubmatchIndex(input, -1)
	for i, m := range matches {
		key := strings.ToLower(input[m[2]:m[3]])
		end := len(input)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		val := strings.TrimSpace(input[m[1]:end])
		val = strings.TrimRight(val, ",;")
		val = stripQuotes(strings.TrimSpace(val))
		for _, want := range keys {
			if strings.EqualFold(key, want) {
				if _, seen := args[want]; !seen {
					args[want] = val
				}
			}
		}
	}
	return args
}

func jsonString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	case []any:
		parts := make([]string, 0, len(x))
		for _, p := range x {
			parts = append(parts, jsonString(p))
		}
		return strings.Join(parts, ";")
	default:
		return fmt.Sprint(x)
	}
}

// stripQuotes removes one layer of matching quotes or backticks.
func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'' || first == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
