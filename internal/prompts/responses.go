package prompts

// User-facing texts returned when the loop cannot produce a model
// answer.
const (
	// IterationLimitResponse is returned when the loop stops at its
	// iteration ceiling with nothing better to show.
	IterationLimitResponse = "I wasn't able to finish that within the allowed number of steps. Please try rephrasing or breaking the request into smaller parts."

	// RateLimitedResponse is returned when the model provider keeps
	// rejecting requests for quota reasons.
	RateLimitedResponse = "I'm receiving too many requests right now. Please wait a moment and try again."

	// FailureResponse is returned for any other unrecoverable error.
	FailureResponse = "I encountered an error processing your request. Please try again."
)
