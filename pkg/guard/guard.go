package guard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/observability"
	"github.com/aretw0/espalier/pkg/ports"
)

// FallbackReply is returned when the retry budget is exhausted. It is
// recorded verbatim in the history entry so failures stay auditable.
const FallbackReply = "I'm having trouble connecting to my knowledge base. Let's continue anyway."

// DefaultMaxRetries bounds worst-case latency per turn.
const DefaultMaxRetries = 3

// DefaultRetryDelay is the fixed pause between attempts. No backoff:
// the budget is small and a turn should fail fast.
const DefaultRetryDelay = 500 * time.Millisecond

// minReplyLength is the truncation heuristic: accepted replies must be
// at least this many runes after trimming.
const minReplyLength = 2

// errorMarkers are replies that consist solely of a known error
// pattern: echoed error text, empty JSON, or a null literal.
var errorMarkers = []string{"error", "error:", "{}", "[]", "null", "undefined"}

// Guard validates and, on failure, retries a model call, sanitizing the
// output before it enters the conversation trace. A model hiccup never
// hard-crashes a turn: exhausted retries produce FallbackReply.
type Guard struct {
	client     ports.ModelClient
	model      string
	maxRetries int
	delay      time.Duration
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// Option configures the Guard.
type Option func(*Guard)

// WithMaxRetries overrides the retry budget.
func WithMaxRetries(n int) Option {
	return func(g *Guard) {
		if n > 0 {
			g.maxRetries = n
		}
	}
}

// WithRetryDelay overrides the pause between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(g *Guard) {
		g.delay = d
	}
}

// WithLogger configures a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

// WithMetrics wires retry and fallback counters.
func WithMetrics(m *observability.Metrics) Option {
	return func(g *Guard) {
		g.metrics = m
	}
}

// New creates a Guard asking the given model through the client.
func New(client ports.ModelClient, model string, opts ...Option) *Guard {
	g := &Guard{
		client:     client,
		model:      model,
		maxRetries: DefaultMaxRetries,
		delay:      DefaultRetryDelay,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Reply is the outcome of one guarded model call.
type Reply struct {
	// Text is the sanitized accepted reply, or FallbackReply.
	Text string

	// Fallback reports that the retry budget was exhausted and Text is
	// the fixed fallback string.
	Fallback bool

	// Attempts is the number of model calls made.
	Attempts int
}

// Ask sends the prompt and returns a validated, sanitized reply. It
// retries the same prompt up to the retry budget with a fixed delay
// between attempts. Repeated failures are downgraded to FallbackReply
// rather than surfaced: the conversation must continue.
func (g *Guard) Ask(ctx context.Context, prompt string) Reply {
	// No client configured means a model-free run; every turn carries
	// the fallback without burning the retry budget.
	if g.client == nil {
		return g.fallback(0)
	}

	var lastErr error

	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		if attempt > 1 {
			if g.metrics != nil {
				g.metrics.ModelRetries.Inc()
			}
			select {
			case <-time.After(g.delay):
			case <-ctx.Done():
				g.logger.Warn("model call canceled", "attempt", attempt, "err", ctx.Err())
				return g.fallback(attempt - 1)
			}
		}

		raw, err := g.client.Generate(ctx, prompt, g.model)
		if err != nil {
			lastErr = err
			g.logger.Warn("model call failed", "attempt", attempt, "model", g.model, "err", err)
			continue
		}

		if err := validateReply(raw); err != nil {
			lastErr = err
			g.logger.Warn("model reply rejected", "attempt", attempt, "model", g.model, "err", err)
			continue
		}

		return Reply{
			Text:     strings.TrimSpace(stripControl(raw)),
			Attempts: attempt,
		}
	}

	g.logger.Error("model retry budget exhausted, using fallback",
		"model", g.model,
		"retries", g.maxRetries,
		"err", fmt.Errorf("%w: %v", domain.ErrModelUnreliable, lastErr),
	)
	return g.fallback(g.maxRetries)
}

func (g *Guard) fallback(attempts int) Reply {
	if g.metrics != nil {
		g.metrics.ModelFallback.Inc()
	}
	return Reply{Text: FallbackReply, Fallback: true, Attempts: attempts}
}

// validateReply applies the acceptance rule set to a raw model reply.
func validateReply(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fmt.Errorf("empty reply")
	}

	if len([]rune(trimmed)) < minReplyLength {
		return fmt.Errorf("reply below minimum length (looks truncated): %q", trimmed)
	}

	lower := strings.ToLower(trimmed)
	for _, marker := range errorMarkers {
		if lower == marker {
			return fmt.Errorf("reply is a known error marker: %q", trimmed)
		}
	}

	// A reply that is nothing but control characters and whitespace
	// sanitizes down to nothing; reject it before it enters the trace.
	if strings.TrimSpace(stripControl(trimmed)) == "" {
		return fmt.Errorf("reply contains only control characters")
	}

	printable := 0
	for _, r := range trimmed {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			printable++
		}
	}
	if printable*2 < len([]rune(trimmed)) {
		return fmt.Errorf("reply is mostly non-printable")
	}

	return nil
}
