package prompts

import (
	"fmt"
	"strings"
)

// The response grammar shared by both templates. The loop's parser
// depends on these exact markers.
const reactFormat = `Use the following format:

Question: the input question you must answer
Thought: you should always think about what to do
Action: the action to take, should be one of [%s]
Action Input: the input to the action
Observation: the result of the action
... (this Thought/Action/Action Input/Observation can repeat N times)
Thought: I now know the final answer
Final Answer: the final answer to the original input question

Write exactly one Action per reply and then stop; the Observation will be
provided to you. Never write an Observation yourself.`

const toolRequiredTemplate = `You are Bob, a helpful AI assistant that can help users with various tasks.

This request REQUIRES the use of tools. You must call at least one of the
tools below before giving a Final Answer. Do not claim to have done
something (sent an email, created a task, looked up the weather) unless
you actually called the tool that does it and saw its Observation.

You have access to the following tools:

%s

%s

Begin!

Question: %s
Thought:`

const generalTemplate = `You are Bob, a helpful AI assistant that can help users with various tasks.

If you can answer from your own knowledge, reply directly with:

Final Answer: your answer

If you need live information or need to take an action, you may use these
tools:

%s

%s

Begin!

Question: %s
Thought:`

// ToolRequiredPrompt returns the prompt used when the question was
// classified as needing at least one tool. toolList is the registry's
// "name: description" listing and toolNames its comma-separated names.
func ToolRequiredPrompt(toolList, toolNames, question string) string {
	return fmt.Sprintf(toolRequiredTemplate, toolList, fmt.Sprintf(reactFormat, toolNames), question)
}

// GeneralPrompt returns the prompt used when no tool is required. The
// model is invited to answer directly but may still use the tools.
func GeneralPrompt(toolList, toolNames, question string) string {
	return fmt.Sprintf(generalTemplate, toolList, fmt.Sprintf(reactFormat, toolNames), question)
}

// WithScratchpad appends the rendered scratchpad of earlier iterations
// to a base prompt and re-opens the Thought for the next step.
func WithScratchpad(base, scratchpad string) string {
	scratchpad = strings.TrimSpace(scratchpad)
	if scratchpad == "" {
		return base
	}
	return base + " " + scratchpad + "\nThought:"
}
