package espalier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/espalier/internal/adapters/file"
	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/internal/runtime"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/graph"
	"github.com/aretw0/espalier/pkg/guard"
	"github.com/aretw0/espalier/pkg/observability"
	"github.com/aretw0/espalier/pkg/ports"
)

// Engine is the high-level entry point for the Espalier library.
// It holds a validated decision tree and the model client, and spins
// up conversations against them.
type Engine struct {
	graph      *graph.Graph
	client     ports.ModelClient
	model      string
	startNode  string
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithModelClient injects the language-model client used to generate
// assistant commentary. Without one, conversations run model-free and
// every turn carries the fallback reply.
func WithModelClient(c ports.ModelClient) Option {
	return func(e *Engine) {
		e.client = c
	}
}

// WithModel selects the model name passed to the client.
func WithModel(model string) Option {
	return func(e *Engine) {
		e.model = model
	}
}

// WithStartNode overrides the node conversations begin at.
func WithStartNode(nodeID string) Option {
	return func(e *Engine) {
		e.startNode = nodeID
	}
}

// WithMaxRetries sets how many model attempts are made per turn.
func WithMaxRetries(n int) Option {
	return func(e *Engine) {
		e.maxRetries = n
	}
}

// WithRetryDelay sets the pause between model attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.retryDelay = d
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics attaches a metrics bundle shared across conversations.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New initializes an Engine from a decision-tree template file. The
// file may be a bare tree or a stored conversation whose flow is
// reused as a template.
func New(treePath string, opts ...Option) (*Engine, error) {
	tree, err := file.ReadTree(treePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tree: %w", err)
	}
	return NewFromDocument(tree, opts...)
}

// NewFromDocument initializes an Engine from an in-memory tree. The
// tree is validated up front so navigation can trust it.
func NewFromDocument(tree *domain.TreeDocument, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	var g *graph.Graph
	var err error
	if eng.startNode != "" {
		g, err = graph.FromDocumentWithStart(tree, eng.startNode)
	} else {
		g, err = graph.FromDocument(tree)
	}
	if err != nil {
		return nil, err
	}
	eng.graph = g

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	return eng, nil
}

// Graph returns the validated decision graph.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

// Conversation is one live walk through the tree.
type Conversation struct {
	nav *runtime.Navigator
}

// Start begins a new conversation for the given expert type.
func (e *Engine) Start(expertType string) (*Conversation, error) {
	nav, err := runtime.NewNavigator(e.graph, e.session(expertType), e.responder(),
		runtime.WithLogger(e.logger), runtime.WithMetrics(e.metrics))
	if err != nil {
		return nil, err
	}
	return &Conversation{nav: nav}, nil
}

// Resume continues a stored conversation from where it left off. The
// document's own flow takes precedence over the engine's template so
// old conversations replay against the tree they were recorded with.
func (e *Engine) Resume(doc *domain.ConversationDocument) (*Conversation, error) {
	g, err := graph.FromDocument(doc.Tree())
	if err != nil {
		return nil, err
	}

	nav, err := runtime.Resume(g, e.session(doc.Metadata.ExpertType), e.responder(), doc.ConversationHistory,
		runtime.WithLogger(e.logger), runtime.WithMetrics(e.metrics))
	if err != nil {
		return nil, err
	}
	return &Conversation{nav: nav}, nil
}

func (e *Engine) session(expertType string) runtime.Session {
	return runtime.Session{
		Model:      e.model,
		ExpertType: expertType,
		StartNode:  e.startNode,
	}
}

func (e *Engine) responder() runtime.Responder {
	guardOpts := []guard.Option{
		guard.WithLogger(e.logger),
		guard.WithMetrics(e.metrics),
	}
	if e.maxRetries > 0 {
		guardOpts = append(guardOpts, guard.WithMaxRetries(e.maxRetries))
	}
	if e.retryDelay > 0 {
		guardOpts = append(guardOpts, guard.WithRetryDelay(e.retryDelay))
	}
	return guard.New(e.client, e.model, guardOpts...)
}

// Present returns the node the conversation is waiting at.
func (c *Conversation) Present() (*domain.Node, error) {
	return c.nav.Present()
}

// Respond feeds one line of user input to the conversation.
func (c *Conversation) Respond(ctx context.Context, input string) (runtime.Outcome, error) {
	return c.nav.Respond(ctx, input)
}

// Document snapshots the conversation as a storable document.
func (c *Conversation) Document() *domain.ConversationDocument {
	return c.nav.Document()
}

// Status reports where the conversation stands.
func (c *Conversation) Status() runtime.Status {
	return c.nav.Status()
}

// Trace returns the recorded turns so far.
func (c *Conversation) Trace() []domain.HistoryEntry {
	return c.nav.Trace()
}
