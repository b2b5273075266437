// Package agent implements the plan-act-observe loop that turns a user
// message into an answer, calling tools named by the model along the
// way.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nugget/bob-assistant/internal/llm"
	"github.com/nugget/bob-assistant/internal/prompts"
	"github.com/nugget/bob-assistant/internal/tools"
)

// DefaultMaxIterations bounds the model calls made for one request.
const DefaultMaxIterations = 5

// Request represents an incoming agent request.
type Request struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// Result is the outcome of one request. It is always returned, even
// when the loop fails.
type Result struct {
	Response       string   `json:"response"`
	ConversationID string   `json:"conversation_id"`
	Success        bool     `json:"success"`
	Error          string   `json:"error,omitempty"`
	IterationsUsed int      `json:"iterations_used"`
	ToolsInvoked   []string `json:"tools_invoked"`

	// RateLimited is set when the provider exhausted the retry budget.
	RateLimited bool `json:"-"`
}

// Completer produces model text for a prompt. [llm.RetryClient]
// satisfies it.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Loop is the core agent execution loop. It holds no per-request state
// and is safe for concurrent use.
type Loop struct {
	logger        *slog.Logger
	tools         *tools.Registry
	llm           Completer
	classifier    Classifier
	cache         ResponseCache
	maxIterations int
}

// Option configures a [Loop].
type Option func(*Loop)

// WithClassifier replaces the default keyword classifier.
func WithClassifier(c Classifier) Option {
	return func(l *Loop) { l.classifier = c }
}

// WithCache sets the answer cache. A nil cache disables caching.
func WithCache(c ResponseCache) Option {
	return func(l *Loop) { l.cache = c }
}

// WithMaxIterations sets the iteration ceiling. Values below one keep
// [DefaultMaxIterations].
func WithMaxIterations(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.maxIterations = n
		}
	}
}

// NewLoop creates a new agent loop.
func NewLoop(logger *slog.Logger, registry *tools.Registry, completer Completer, opts ...Option) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loop{
		logger:        logger,
		tools:         registry,
		llm:           completer,
		classifier:    NewKeywordClassifier(nil),
		cache:         NewMemoryCache(0, 0),
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run processes one user message to completion.
func (l *Loop) Run(ctx context.Context, req Request) (res *Result) {
	convID := req.ConversationID
	if convID == "" {
		convID = uuid.NewString()
	}
	res = &Result{ConversationID: convID, ToolsInvoked: []string{}}
	log := l.logger.With("conversation", convID)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error("agent loop panic", "panic", r, "stack", string(debug.Stack()))
			res.Success = false
			res.Error = fmt.Sprint(r)
			res.Response = prompts.FailureResponse
		}
	}()

	message := strings.TrimSpace(req.Message)
	class := l.classifier.Classify(message)
	key := CacheKey(message)

	log.Info("agent loop started",
		"message_len", len(message),
		"capabilities", class.Capabilities,
	)

	if !class.ToolsRequired() && l.cache != nil {
		if cached, ok := l.cache.Get(key); ok {
			log.Info("answer served from cache")
			res.Response = cached
			res.Success = true
			return res
		}
	}

	toolList := l.tools.DescribeAll()
	toolNames := strings.Join(l.tools.Names(), ", ")
	var base string
	if class.ToolsRequired() {
		base = prompts.ToolRequiredPrompt(toolList, toolNames, message)
	} else {
		base = prompts.GeneralPrompt(toolList, toolNames, message)
	}

	pad := &Scratchpad{}
	for iter := 1; iter <= l.maxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			log.Warn("agent loop abandoned", "iteration", iter, "error", err)
			res.Error = err.Error()
			res.Response = prompts.FailureResponse
			return res
		}
		res.IterationsUsed = iter

		text, err := l.llm.Complete(ctx, prompts.WithScratchpad(base, pad.String()))
		if err != nil {
			res.Error = err.Error()
			if errors.Is(err, llm.ErrRateLimited) {
				log.Warn("completion rate limited", "iteration", iter, "error", err)
				res.RateLimited = true
				res.Response = prompts.RateLimitedResponse
			} else {
				log.Error("completion failed", "iteration", iter, "error", err)
				res.Response = prompts.FailureResponse
			}
			return res
		}

		step := Parse(text)
		pad.AddModel(step.Text)
		log.Debug("model step parsed", "iteration", iter, "kind", step.Kind, "action", step.Action)

		switch step.Kind {
		case StepMalformed:
			pad.AddCorrection(prompts.MalformedObservation)

		case StepAction:
			obs, corrective := l.invoke(ctx, log, step, res)
			if corrective {
				pad.AddCorrection(obs)
			} else {
				pad.AddObservation(obs)
			}

		case StepFinalAnswer:
			if missing := Unmet(class.Capabilities, res.ToolsInvoked, l.registered); len(missing) > 0 {
				log.Info("final answer rejected, required tools not called",
					"iteration", iter, "missing", missing)
				pad.AddCorrection(prompts.VerificationObservation(missing))
				continue
			}

			res.Response = step.Answer
			res.Success = true
			if l.cache != nil && !class.ToolsRequired() && len(res.ToolsInvoked) == 0 {
				l.cache.Set(key, step.Answer)
			}
			log.Info("agent loop completed",
				"iterations", iter,
				"tools", res.ToolsInvoked,
				"elapsed", time.Since(start),
			)
			return res
		}
	}

	log.Warn("iteration ceiling reached",
		"max_iterations", l.maxIterations,
		"tools", res.ToolsInvoked,
		"elapsed", time.Since(start),
	)
	res.Success = true
	res.IterationsUsed = l.maxIterations
	res.Response = pad.Summary()
	if res.Response == "" {
		res.Response = prompts.IterationLimitResponse
	}
	return res
}

// invoke runs the tool named by step and returns the observation text.
// corrective is true when the observation came from the loop rather
// than the tool, which only happens for unknown tool names.
func (l *Loop) invoke(ctx context.Context, log *slog.Logger, step Step, res *Result) (obs string, corrective bool) {
	tool, err := l.tools.Resolve(step.Action)
	if err != nil {
		var nf *tools.ErrToolNotFound
		if errors.As(err, &nf) {
			log.Info("model named unknown tool", "tool", step.Action)
			return prompts.ToolNotFoundObservation(step.Action, nf.Available), true
		}
		return prompts.ToolErrorObservation(step.Action, err), false
	}

	res.ToolsInvoked = append(res.ToolsInvoked, tool.Name)

	defer func() {
		if r := recover(); r != nil {
			log.Error("tool panic", "tool", tool.Name, "panic", r, "stack", string(debug.Stack()))
			obs = prompts.ToolErrorObservation(tool.Name, fmt.Errorf("%v", r))
			corrective = false
		}
	}()

	start := time.Now()
	out, err := l.tools.Execute(ctx, tool.Name, step.Input)
	if err != nil {
		var execErr *tools.ToolExecutionError
		if errors.As(err, &execErr) {
			err = execErr.Err
		}
		log.Warn("tool failed", "tool", tool.Name, "elapsed", time.Since(start), "error", err)
		return prompts.ToolErrorObservation(tool.Name, err), false
	}

	log.Info("tool executed", "tool", tool.Name, "elapsed", time.Since(start), "output_len", len(out))
	if strings.TrimSpace(out) == "" {
		out = "(no output)"
	}
	return out, false
}

func (l *Loop) registered(name string) bool {
	_, err := l.tools.Resolve(name)
	return err == nil
}
