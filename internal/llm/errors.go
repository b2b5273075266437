package llm

import "errors"

// ErrRateLimited is returned by [RetryClient.Complete] once every
// attempt has failed with a rate-limit or quota error. The last
// provider error is wrapped alongside it.
var ErrRateLimited = errors.New("completion rate limited")

// ErrEmptyResponse is returned when a provider answers without any
// text content.
var ErrEmptyResponse = errors.New("empty completion")
