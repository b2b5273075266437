package prompts

import (
	"fmt"
	"strings"
)

// MalformedObservation is fed back when a reply contains neither a
// Final Answer nor a complete Action / Action Input pair.
const MalformedObservation = `Invalid format. Your reply must contain either "Final Answer: <answer>" or both "Action: <tool name>" and "Action Input: <input>" on their own lines.`

// ToolNotFoundObservation tells the model the action it named does not
// exist and lists the exact names it may use.
func ToolNotFoundObservation(name string, available []string) string {
	return fmt.Sprintf("%q is not a valid tool. Choose one of: %s.", name, strings.Join(available, ", "))
}

// ToolErrorObservation reports a tool failure back to the model.
func ToolErrorObservation(name string, err error) string {
	return fmt.Sprintf("Error executing %s: %v", name, err)
}

// VerificationObservation rejects a Final Answer that was given before
// the tools the request needs were actually called. missing lists, per
// unmet capability, the tools that would satisfy it.
func VerificationObservation(missing [][]string) string {
	var sb strings.Builder
	sb.WriteString("You gave a Final Answer without actually using the required tools. ")
	sb.WriteString("Before answering you must call ")
	for i, group := range missing {
		if i > 0 {
			sb.WriteString(" and ")
		}
		if len(group) == 1 {
			sb.WriteString(group[0])
		} else {
			sb.WriteString("one of [" + strings.Join(group, ", ") + "]")
		}
	}
	sb.WriteString(". Use the Action / Action Input format now.")
	return sb.String()
}
