package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/graph"
	"github.com/aretw0/espalier/pkg/guard"
	"github.com/aretw0/espalier/pkg/observability"
)

// Status is the navigator's state machine position.
type Status string

const (
	// StatusAtNode: the question has not been presented yet.
	StatusAtNode Status = "at_node"
	// StatusAwaitingResponse: the question was presented, a response is due.
	StatusAwaitingResponse Status = "awaiting_response"
	// StatusTerminated is absorbing; no further responses are accepted.
	StatusTerminated Status = "terminated"
)

// Control commands recognized while awaiting a response.
const (
	CommandExit = "exit"
	CommandBack = "back"
	CommandSave = "save"
	CommandHelp = "help"
)

// HelpText lists the control commands for the presentation layer.
const HelpText = `Available commands:
  help  - Show this help message
  save  - Save the conversation
  exit  - Save and exit the conversation
  back  - Go back to the previous question (if possible)`

// OutcomeKind classifies the result of one Respond call.
type OutcomeKind string

const (
	// OutcomeAdvance: a history entry was recorded and the navigator
	// moved to the resolved node.
	OutcomeAdvance OutcomeKind = "advance"
	// OutcomeEnd: a history entry was recorded and the resolved target
	// was empty, so the tree ended.
	OutcomeEnd OutcomeKind = "end"
	// OutcomeExit: the exit command terminated the conversation; the
	// final entry carries an empty assistant response.
	OutcomeExit OutcomeKind = "exit"
	// OutcomeBack: the last entry was popped and the prior node will be
	// re-presented.
	OutcomeBack OutcomeKind = "back"
	// OutcomeSave: the caller should persist out of band; state is
	// unchanged.
	OutcomeSave OutcomeKind = "save"
	// OutcomeHelp: informational only; state is unchanged.
	OutcomeHelp OutcomeKind = "help"
)

// Outcome reports what one response did to the conversation.
type Outcome struct {
	Kind OutcomeKind

	// Entry is the recorded history entry for advance/end/exit, nil
	// otherwise.
	Entry *domain.HistoryEntry

	// Reply is the guarded model reply for advance/end outcomes.
	Reply guard.Reply
}

// Responder produces the assistant side of a turn. Satisfied by
// *guard.Guard; tests substitute stubs.
type Responder interface {
	Ask(ctx context.Context, prompt string) guard.Reply
}

// Session carries the per-run configuration through the constructor.
// There is no process-wide current-model or current-expert state.
type Session struct {
	Model      string
	ExpertType string

	// StartNode overrides the graph's designated start when non-empty.
	StartNode string
}

// Navigator walks a node graph one turn at a time, producing an
// append-only trace of transitions. It is not safe for concurrent use;
// concurrent conversations need independent Navigator instances
// (read-sharing the Graph is fine).
type Navigator struct {
	graph     *graph.Graph
	session   Session
	responder Responder
	logger    *slog.Logger
	metrics   *observability.Metrics

	status  Status
	current string
	trace   []domain.HistoryEntry
}

// Option configures the Navigator.
type Option func(*Navigator)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Navigator) {
		n.logger = logger
	}
}

// WithMetrics wires node-visit and turn counters.
func WithMetrics(m *observability.Metrics) Option {
	return func(n *Navigator) {
		n.metrics = m
	}
}

// NewNavigator creates a navigator positioned at the designated start
// node.
func NewNavigator(g *graph.Graph, session Session, responder Responder, opts ...Option) (*Navigator, error) {
	start := session.StartNode
	if start == "" {
		start = g.Start()
	}
	if _, err := g.Get(start); err != nil {
		return nil, err
	}

	n := &Navigator{
		graph:     g,
		session:   session,
		responder: responder,
		logger:    logging.NewNop(),
		status:    StatusAtNode,
		current:   start,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Resume creates a navigator positioned after the last entry of a
// previously saved conversation. The trace is preloaded so save and
// back behave as if the run had never stopped.
func Resume(g *graph.Graph, session Session, responder Responder, history []domain.HistoryEntry, opts ...Option) (*Navigator, error) {
	n, err := NewNavigator(g, session, responder, opts...)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return n, nil
	}

	last := history[len(history)-1]
	n.trace = append(n.trace, history...)

	// An empty next_node on the final entry means the tree ran to its
	// end. Exit entries record where the run would have gone, so those
	// resume normally.
	if last.NextNode == "" {
		n.current = last.NodeID
		n.status = StatusTerminated
		return n, nil
	}

	if _, err := g.Get(last.NextNode); err != nil {
		return nil, err
	}
	n.current = last.NextNode
	return n, nil
}

// Status returns the current state machine position.
func (n *Navigator) Status() Status {
	return n.status
}

// Current returns the current node ID.
func (n *Navigator) Current() string {
	return n.current
}

// Trace returns the in-memory history. Callers must not mutate it.
func (n *Navigator) Trace() []domain.HistoryEntry {
	return n.trace
}

// Session returns the run configuration.
func (n *Navigator) Session() Session {
	return n.session
}

// Present returns the current node for display and moves the machine to
// AwaitingResponse.
func (n *Navigator) Present() (*domain.Node, error) {
	if n.status == StatusTerminated {
		return nil, fmt.Errorf("conversation is terminated")
	}

	node, err := n.graph.Get(n.current)
	if err != nil {
		return nil, err
	}

	if n.status == StatusAtNode {
		if n.metrics != nil {
			n.metrics.NodeVisits.WithLabelValues(node.NodeID).Inc()
		}
		n.status = StatusAwaitingResponse
	}
	return node, nil
}

// Respond processes one user response while awaiting input. Control
// commands (exit, back, save, help) never reach the model; everything
// else records a history entry and advances to the resolved node.
func (n *Navigator) Respond(ctx context.Context, input string) (Outcome, error) {
	if n.status == StatusTerminated {
		return Outcome{}, fmt.Errorf("conversation is terminated")
	}
	if n.status != StatusAwaitingResponse {
		return Outcome{}, fmt.Errorf("no question is awaiting a response (call Present first)")
	}

	clean, err := guard.SanitizeInput(input)
	if err != nil {
		return Outcome{}, fmt.Errorf("input rejected: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(clean)) {
	case CommandExit:
		return n.exit(clean)
	case CommandBack:
		return n.back()
	case CommandSave:
		return Outcome{Kind: OutcomeSave}, nil
	case CommandHelp:
		return Outcome{Kind: OutcomeHelp}, nil
	}

	return n.advance(ctx, clean)
}

// exit records the terminal entry with an empty assistant response and
// terminates. The caller performs the final persist.
func (n *Navigator) exit(input string) (Outcome, error) {
	node, err := n.graph.Get(n.current)
	if err != nil {
		return Outcome{}, err
	}

	entry := n.newEntry(node, input, domain.ResponseTypeFreeText, n.graph.ResolveNext(node, input))
	n.trace = append(n.trace, entry)
	n.status = StatusTerminated

	n.logger.Info("conversation terminated", "node", node.NodeID, "turns", len(n.trace))
	return Outcome{Kind: OutcomeExit, Entry: &n.trace[len(n.trace)-1]}, nil
}

// back pops the last history entry from the in-memory trace and
// re-presents the node it was asked from. It does not erase entries
// from documents already persisted. With an empty trace there is
// nothing to pop, so the pending question stays pending as-is.
func (n *Navigator) back() (Outcome, error) {
	if len(n.trace) == 0 {
		return Outcome{Kind: OutcomeBack}, nil
	}

	last := n.trace[len(n.trace)-1]
	n.trace = n.trace[:len(n.trace)-1]
	n.current = last.NodeID
	n.status = StatusAtNode

	n.logger.Debug("went back", "node", n.current, "remaining_turns", len(n.trace))
	return Outcome{Kind: OutcomeBack}, nil
}

func (n *Navigator) advance(ctx context.Context, input string) (Outcome, error) {
	node, err := n.graph.Get(n.current)
	if err != nil {
		return Outcome{}, err
	}

	responseType := domain.ResponseTypeFreeText
	if _, ok := n.graph.MatchOption(node, input); ok {
		responseType = domain.ResponseTypeMultipleChoice
	}
	next := n.graph.ResolveNext(node, input)

	prompt := BuildPrompt(n.session.ExpertType, n.trace, node, input)
	reply := n.responder.Ask(ctx, prompt)

	entry := n.newEntry(node, input, responseType, next)
	entry.AssistantResponse = reply.Text
	n.trace = append(n.trace, entry)

	if n.metrics != nil {
		n.metrics.TurnsTotal.Inc()
	}

	if next == "" {
		// The node has no resolved continuation: end of tree, by the
		// tree author's choice rather than the navigator's.
		n.status = StatusTerminated
		n.logger.Info("reached end of tree", "node", node.NodeID, "turns", len(n.trace))
		return Outcome{Kind: OutcomeEnd, Entry: &n.trace[len(n.trace)-1], Reply: reply}, nil
	}

	n.current = next
	n.status = StatusAtNode
	return Outcome{Kind: OutcomeAdvance, Entry: &n.trace[len(n.trace)-1], Reply: reply}, nil
}

func (n *Navigator) newEntry(node *domain.Node, input, responseType, next string) domain.HistoryEntry {
	return domain.HistoryEntry{
		Timestamp:        domain.Now(),
		NodeID:           node.NodeID,
		Question:         node.Question,
		OptionsPresented: node.OptionTexts(),
		UserResponse:     input,
		ResponseType:     responseType,
		NextNode:         next,
	}
}

// Document snapshots the full conversation state for persistence: the
// tree's metadata and flow plus the recorded trace.
func (n *Navigator) Document() *domain.ConversationDocument {
	doc := n.graph.Document()
	history := make([]domain.HistoryEntry, len(n.trace))
	copy(history, n.trace)
	return &domain.ConversationDocument{
		Metadata:            doc.Metadata,
		ConversationFlow:    doc.ConversationFlow,
		ConversationHistory: history,
	}
}
