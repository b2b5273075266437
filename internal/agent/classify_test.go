package agent

import (
	"reflect"
	"testing"
)

func TestKeywordClassifier(t *testing.T) {
	kc := NewKeywordClassifier(nil)

	tests := []struct {
		message string
		want    []Capability
	}{
		{"hello", nil},
		{"Tell me a joke about cats", nil},
		{"What's the weather in Paris?", []Capability{CapWeather}},
		{"Will it RAIN tomorrow in Oslo", []Capability{CapWeather}},
		{"Remind me to buy milk", []Capability{CapTask}},
		{"show my tasks", []Capability{CapTask}},
		{"What time is it?", []Capability{CapTime}},
		{"email this to john", []Capability{CapEmail}},
		{"Send an email to Sarah about lunch", []Capability{CapEmail}},
		{"add contact alias: sam, email: sam@x.com", []Capability{CapContact}},
		{"send john an email about lunch", []Capability{CapEmail}},
		{"email john the notes", []Capability{CapEmail}},
		{"E-mail the report to mom", []Capability{CapEmail}},
		{"what is john's email address?", nil},
		{"save contact bob with email=bob@x.com", []Capability{CapContact}},
		{"add contact sam (email: sam@x.com) and email him the agenda", []Capability{CapEmail, CapContact}},
		{"search stack overflow for goroutine leaks", []Capability{CapSearch}},
		{"get the transcript of https://youtu.be/abc123", []Capability{CapTranscript}},
		{"open an issue on github for the crash", []Capability{CapGitHub}},
		{"list my repos", []Capability{CapGitHub}},
		{"draft a README for acme/app", []Capability{CapGitHub}},
		{"share this on Discord", []Capability{CapDiscord}},
		{"weather in Rome and add a task to pack", []Capability{CapWeather, CapTask}},
		// Word boundaries: "rainbow" is not "rain", "multitasking" is not "task".
		{"draw a rainbow", nil},
		{"tips for multitasking", nil},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			got := kc.Classify(tt.message)
			if !reflect.DeepEqual(got.Capabilities, tt.want) {
				t.Errorf("Classify(%q) = %v, want %v", tt.message, got.Capabilities, tt.want)
			}
			if got.ToolsRequired() != (len(tt.want) > 0) {
				t.Errorf("ToolsRequired() = %v", got.ToolsRequired())
			}
		})
	}
}

func TestKeywordClassifier_CustomTable(t *testing.T) {
	kc := NewKeywordClassifier(map[Capability][]string{
		"calendar": {"meeting", "calendar"},
		CapWeather: {"weather"},
	})

	got := kc.Classify("Put the meeting in my calendar and check the weather")
	want := []Capability{CapWeather, "calendar"}
	if !reflect.DeepEqual(got.Capabilities, want) {
		t.Errorf("Capabilities = %v, want %v", got.Capabilities, want)
	}
	if !got.Has("calendar") || got.Has(CapTask) {
		t.Errorf("Has() mismatch for %v", got.Capabilities)
	}
}
