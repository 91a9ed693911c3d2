package schema

import (
	"fmt"

	"github.com/aretw0/espalier/pkg/domain"
)

// Kind selects which structural contract a document is checked against.
type Kind int

const (
	// KindTree validates metadata and conversation_flow only.
	KindTree Kind = iota
	// KindConversation additionally validates conversation_history
	// against the embedded flow snapshot.
	KindConversation
)

// ValidateTree checks a tree document against the structural contract.
// Malformed input is exactly what it is designed to report, so it never
// panics; checks short-circuit within a section but accumulate across
// sections, preserving order.
func ValidateTree(doc *domain.TreeDocument) Result {
	res := Result{OK: true}
	if doc == nil {
		res.add("", "document is nil")
		return res
	}

	checkMetadata(&res, doc.Metadata)
	ids := checkFlow(&res, doc.ConversationFlow)
	checkReferences(&res, doc.ConversationFlow, ids)
	checkOptions(&res, doc.ConversationFlow)

	return res
}

// ValidateConversation checks a conversation document: the tree
// contract over the embedded snapshot plus the history contract.
func ValidateConversation(doc *domain.ConversationDocument) Result {
	res := Result{OK: true}
	if doc == nil {
		res.add("", "document is nil")
		return res
	}

	checkMetadata(&res, doc.Metadata)
	ids := checkFlow(&res, doc.ConversationFlow)
	checkReferences(&res, doc.ConversationFlow, ids)
	checkOptions(&res, doc.ConversationFlow)
	checkHistory(&res, doc.ConversationHistory, ids)

	return res
}

// metadataFields lists the required fields in reporting order.
var metadataFields = []struct {
	name  string
	value func(domain.Metadata) string
}{
	{"title", func(m domain.Metadata) string { return m.Title }},
	{"version", func(m domain.Metadata) string { return m.Version }},
	{"created_at", func(m domain.Metadata) string { return m.CreatedAt }},
	{"expert_type", func(m domain.Metadata) string { return m.ExpertType }},
	{"description", func(m domain.Metadata) string { return m.Description }},
	{"author", func(m domain.Metadata) string { return m.Author }},
}

func checkMetadata(res *Result, m domain.Metadata) {
	for _, f := range metadataFields {
		if f.value(m) == "" {
			res.add("metadata."+f.name, "required field is missing or empty")
			return
		}
	}
}

// checkFlow verifies the flow is non-empty with unique node IDs and
// returns the declared ID set for reference checks.
func checkFlow(res *Result, flow []domain.Node) map[string]bool {
	ids := make(map[string]bool, len(flow))
	if len(flow) == 0 {
		res.add("conversation_flow", "must contain at least one node")
		return ids
	}

	for i, node := range flow {
		if node.NodeID == "" {
			res.add(fmt.Sprintf("conversation_flow[%d].node_id", i), "required field is missing or empty")
			// Keep collecting IDs so reference checks stay meaningful.
			continue
		}
		if ids[node.NodeID] {
			res.add(fmt.Sprintf("conversation_flow[%d].node_id", i), "duplicate node_id %q", node.NodeID)
			return ids
		}
		ids[node.NodeID] = true
	}
	return ids
}

// checkReferences verifies every next pointer is empty or resolves to a
// declared node. A dangling reference is a validation error.
func checkReferences(res *Result, flow []domain.Node, ids map[string]bool) {
	for i, node := range flow {
		if node.DefaultNextNode != "" && !ids[node.DefaultNextNode] {
			res.add(fmt.Sprintf("conversation_flow[%d].default_next_node", i),
				"dangling reference to %q", node.DefaultNextNode)
			return
		}
		for j, opt := range node.Options {
			if opt.NextNode != "" && !ids[opt.NextNode] {
				res.add(fmt.Sprintf("conversation_flow[%d].options[%d].next_node", i, j),
					"dangling reference to %q", opt.NextNode)
				return
			}
		}
	}
}

func checkOptions(res *Result, flow []domain.Node) {
	for i, node := range flow {
		switch node.QuestionType {
		case domain.QuestionTypeOpen:
			// Open nodes carry no options; a populated list is tolerated
			// but never presented.
		case domain.QuestionTypeMultipleChoice:
			if len(node.Options) == 0 {
				res.add(fmt.Sprintf("conversation_flow[%d].options", i),
					"multiple_choice node %q must declare at least one option", node.NodeID)
				return
			}
			seen := make(map[string]bool, len(node.Options))
			for j, opt := range node.Options {
				if opt.OptionID == "" {
					res.add(fmt.Sprintf("conversation_flow[%d].options[%d].option_id", i, j),
						"required field is missing or empty")
					return
				}
				if seen[opt.OptionID] {
					res.add(fmt.Sprintf("conversation_flow[%d].options[%d].option_id", i, j),
						"duplicate option_id %q within node %q", opt.OptionID, node.NodeID)
					return
				}
				seen[opt.OptionID] = true
			}
		default:
			res.add(fmt.Sprintf("conversation_flow[%d].question_type", i),
				"unsupported question_type %q", node.QuestionType)
			return
		}
	}
}

func checkHistory(res *Result, history []domain.HistoryEntry, ids map[string]bool) {
	for i, entry := range history {
		path := func(field string) string {
			return fmt.Sprintf("conversation_history[%d].%s", i, field)
		}

		if entry.Timestamp == "" {
			res.add(path("timestamp"), "required field is missing or empty")
			return
		}
		if entry.NodeID == "" {
			res.add(path("node_id"), "required field is missing or empty")
			return
		}
		if entry.Question == "" {
			res.add(path("question"), "required field is missing or empty")
			return
		}
		if entry.UserResponse == "" {
			res.add(path("user_response"), "required field is missing or empty")
			return
		}

		switch entry.ResponseType {
		case domain.ResponseTypeMultipleChoice:
			if len(entry.OptionsPresented) == 0 {
				res.add(path("response_type"),
					"multiple_choice response recorded with no options_presented")
				return
			}
		case domain.ResponseTypeFreeText:
			// Free text is valid at any node kind.
		default:
			res.add(path("response_type"), "unsupported response_type %q", entry.ResponseType)
			return
		}

		// Every entry must resolve against the accompanying snapshot,
		// including the terminal exit entry (which differs only in its
		// empty assistant_response).
		if !ids[entry.NodeID] {
			res.add(path("node_id"), "references node %q absent from conversation_flow", entry.NodeID)
			return
		}
		if entry.NextNode != "" && !ids[entry.NextNode] {
			res.add(path("next_node"), "references node %q absent from conversation_flow", entry.NextNode)
			return
		}
	}
}
