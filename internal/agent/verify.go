package agent

import "slices"

// CapabilityTools lists, per capability, the tools whose invocation
// satisfies it.
var CapabilityTools = map[Capability][]string{
	CapWeather:    {"get_weather"},
	CapTask:       {"create_task", "list_tasks", "complete_task"},
	CapTime:       {"get_current_time"},
	CapEmail:      {"send_email"},
	CapContact:    {"add_contact", "get_contact", "list_contacts"},
	CapSearch:     {"search"},
	CapTranscript: {"get_transcript"},
	CapGitHub:     {"create_github_issue", "list_github_issues", "list_my_repos", "review_github_repo", "draft_readme"},
	CapDiscord:    {"share_discord"},
}

// Unmet returns, for each required capability that no invoked tool
// satisfies, the tools that would. Only tools for which available
// returns true are considered, and a capability with no available tool
// is never reported since the model could not satisfy it anyway.
func Unmet(required []Capability, invoked []string, available func(name string) bool) [][]string {
	var missing [][]string
	for _, c := range required {
		var usable []string
		satisfied := false
		for _, name := range CapabilityTools[c] {
			if available != nil && !available(name) {
				continue
			}
			usable = append(usable, name)
			if slices.Contains(invoked, name) {
				satisfied = true
				break
			}
		}
		if !satisfied && len(usable) > 0 {
			missing = append(missing, usable)
		}
	}
	return missing
}
