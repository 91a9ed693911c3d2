package graph

import (
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/schema"
)

// Graph is the in-memory representation of a decision tree: nodes keyed
// by identifier plus the designated start node. It is read-only after
// construction, so sharing one Graph across navigators is safe.
type Graph struct {
	doc   *domain.TreeDocument
	nodes map[string]*domain.Node
	start string
}

// FromDocument validates the tree and builds a Graph. The designated
// start node is the first element of the flow by convention; use
// FromDocumentWithStart to override it.
func FromDocument(doc *domain.TreeDocument) (*Graph, error) {
	return FromDocumentWithStart(doc, "")
}

// FromDocumentWithStart builds a Graph starting at the given node ID.
// An empty startID designates the first node of the flow.
func FromDocumentWithStart(doc *domain.TreeDocument, startID string) (*Graph, error) {
	if res := schema.ValidateTree(doc); !res.OK {
		return nil, res.Err()
	}

	nodes := make(map[string]*domain.Node, len(doc.ConversationFlow))
	for i := range doc.ConversationFlow {
		node := &doc.ConversationFlow[i]
		nodes[node.NodeID] = node
	}

	if startID == "" {
		startID = doc.ConversationFlow[0].NodeID
	}
	if _, ok := nodes[startID]; !ok {
		return nil, &domain.UnknownNodeError{NodeID: startID}
	}

	return &Graph{doc: doc, nodes: nodes, start: startID}, nil
}

// Start returns the designated start node ID.
func (g *Graph) Start() string {
	return g.start
}

// Document returns the underlying tree document. Callers must treat it
// as read-only.
func (g *Graph) Document() *domain.TreeDocument {
	return g.doc
}

// Nodes returns the flow in declaration order, for introspection and
// visualization.
func (g *Graph) Nodes() []domain.Node {
	return g.doc.ConversationFlow
}

// Get looks up a node by ID.
func (g *Graph) Get(nodeID string) (*domain.Node, error) {
	node, ok := g.nodes[nodeID]
	if !ok {
		return nil, &domain.UnknownNodeError{NodeID: nodeID}
	}
	return node, nil
}

// ResolveNext determines the target node for a response. It is a pure
// function of (node, response).
//
// For multiple-choice nodes the response is matched against option IDs
// (exact, after trimming) and then option texts (exact, case-insensitive
// after trimming; deliberately not substring matching, which is too
// eager for short answers like "no"). A matched option without its own
// next_node falls back to the node's default. Free text and unmatched
// responses go to default_next_node. An empty result means the node is
// a terminal: the caller must treat it as end-of-tree, not an error.
func (g *Graph) ResolveNext(node *domain.Node, response string) string {
	if node == nil {
		return ""
	}
	if !node.IsMultipleChoice() {
		return node.DefaultNextNode
	}

	trimmed := strings.TrimSpace(response)
	for i := range node.Options {
		opt := &node.Options[i]
		if trimmed == opt.OptionID || strings.EqualFold(trimmed, strings.TrimSpace(opt.Text)) {
			if opt.NextNode != "" {
				return opt.NextNode
			}
			return node.DefaultNextNode
		}
	}
	return node.DefaultNextNode
}

// MatchOption reports whether the response selects one of the node's
// options, using the same matching rules as ResolveNext. Callers use it
// to classify a recorded response as multiple_choice vs free_text.
func (g *Graph) MatchOption(node *domain.Node, response string) (*domain.Option, bool) {
	if node == nil || !node.IsMultipleChoice() {
		return nil, false
	}
	trimmed := strings.TrimSpace(response)
	for i := range node.Options {
		opt := &node.Options[i]
		if trimmed == opt.OptionID || strings.EqualFold(trimmed, strings.TrimSpace(opt.Text)) {
			return opt, true
		}
	}
	return nil, false
}
