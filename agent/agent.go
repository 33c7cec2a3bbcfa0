// Package agent drives the tool-calling loop between one provider adapter
// and one tool registry. Each round the conversation and the registry's
// declarations go to the model; requested invocations are executed strictly
// in response order and their results appended as tool turns, until the
// model produces a final answer, the adapter reports a failure, or the
// round budget runs out.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Alexthestampede/ModuLLe/chat"
	"github.com/Alexthestampede/ModuLLe/providers"
	"github.com/Alexthestampede/ModuLLe/tools"
)

// DefaultMaxRounds bounds a run when no explicit budget is configured. Ten
// rounds is enough for research-style tasks while keeping a runaway model
// from looping forever.
const DefaultMaxRounds = 10

// defaultTemperature matches the sampling default used across the adapters.
const defaultTemperature = 0.7

// Status is the terminal state of a run.
type Status string

const (
	// StatusDone means the model produced a final answer.
	StatusDone Status = "done"
	// StatusFailed means the adapter reported an error or the run was
	// cancelled; no answer is available.
	StatusFailed Status = "failed"
	// StatusExhausted means the round budget ran out while the model was
	// still requesting tools. Any text captured along the way is surfaced
	// as a partial, non-authoritative answer.
	StatusExhausted Status = "exhausted"
)

// Outcome is the result of one run: how it ended, the answer text when one
// exists, the number of rounds consumed and the full conversation including
// every turn the loop appended.
type Outcome struct {
	Status       Status
	Text         string
	Rounds       int
	Conversation []chat.Turn
	Err          error
}

// Agent owns one conversation loop. It holds no mutable state between runs;
// the same Agent may be reused for independent conversations, one at a time.
type Agent struct {
	adapter     providers.Adapter
	registry    *tools.Registry
	model       string
	maxRounds   int
	temperature float64
	logger      *slog.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithMaxRounds caps the number of model rounds per run.
func WithMaxRounds(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxRounds = n
		}
	}
}

// WithTemperature sets the sampling temperature passed to the adapter.
func WithTemperature(t float64) Option {
	return func(a *Agent) {
		a.temperature = t
	}
}

// WithLogger sets the logger for round progress and tool diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New builds an agent around an adapter, a tool registry and the model id to
// converse with. The registry may be empty, in which case the loop degrades
// to plain chat and finishes in one round.
func New(adapter providers.Adapter, registry *tools.Registry, model string, opts ...Option) *Agent {
	a := &Agent{
		adapter:     adapter,
		registry:    registry,
		model:       model,
		maxRounds:   DefaultMaxRounds,
		temperature: defaultTemperature,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run executes the loop over a copy of the initial conversation. The initial
// turns normally hold a system prompt and the user's question; Run never
// mutates the caller's slice.
//
// Termination follows the adapter's finish reason: stop ends the run as done
// with the returned text appended as the final assistant turn; error ends it
// as failed with no answer; tool_calls executes every requested invocation
// in order, appending an assistant turn carrying the invocation and a tool
// turn carrying its result, then starts the next round. Reaching the round
// budget while the model still wants tools ends the run as exhausted.
//
// Cancellation is checked once at the top of each round. A cancelled context
// fails the run; it never interrupts tool execution mid-round.
//
// An invocation naming an unregistered tool fails the run: the registry set
// offered to the model is the caller's contract, and a miss means the caller
// and the declarations disagree.
func (a *Agent) Run(ctx context.Context, initial []chat.Turn) *Outcome {
	turns := make([]chat.Turn, len(initial))
	copy(turns, initial)

	logger := a.logger.With(
		"run", uuid.NewString(),
		"provider", a.adapter.Name(),
		"model", a.model,
	)
	logger.Debug("starting run", "max_rounds", a.maxRounds, "tools", a.registry.Len())

	var partial string
	for round := 1; round <= a.maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			logger.Warn("run cancelled", "round", round)
			return &Outcome{
				Status:       StatusFailed,
				Rounds:       round - 1,
				Conversation: turns,
				Err:          err,
			}
		}

		declarations := a.registry.Render(a.adapter.Format())
		result := a.adapter.Send(ctx, a.model, turns, declarations, a.temperature)

		switch result.FinishReason {
		case chat.FinishError:
			err := result.Err
			if err == nil {
				err = errors.New("adapter reported an error")
			}
			logger.Error("round failed", "round", round, "error", err)
			return &Outcome{
				Status:       StatusFailed,
				Rounds:       round,
				Conversation: turns,
				Err:          err,
			}

		case chat.FinishToolCalls:
			// Some backends produce reasoning text alongside their
			// invocations; keep the latest as the partial answer in case
			// the budget runs out.
			if result.Content != "" {
				partial = result.Content
			}
			logger.Info("executing tools", "round", round, "count", len(result.ToolCalls))
			for _, call := range result.ToolCalls {
				turns = append(turns, chat.AssistantToolCall(call))
				content, err := a.registry.Execute(ctx, call.Function.Name, call.Function.Arguments)
				if err != nil {
					logger.Error("invocation names unknown tool",
						"round", round, "tool", call.Function.Name)
					return &Outcome{
						Status:       StatusFailed,
						Rounds:       round,
						Conversation: turns,
						Err:          fmt.Errorf("round %d: %w", round, err),
					}
				}
				logger.Info("tool executed",
					"round", round, "tool", call.Function.Name, "result_chars", len(content))
				turns = append(turns, chat.ToolResult(call.ID, call.Function.Name, content))
			}

		default:
			turns = append(turns, chat.Assistant(result.Content))
			logger.Info("run done", "rounds", round)
			return &Outcome{
				Status:       StatusDone,
				Text:         result.Content,
				Rounds:       round,
				Conversation: turns,
			}
		}
	}

	logger.Warn("round budget exhausted", "max_rounds", a.maxRounds)
	return &Outcome{
		Status:       StatusExhausted,
		Text:         partial,
		Rounds:       a.maxRounds,
		Conversation: turns,
	}
}
