package domain

import "time"

// QuestionType constants define how a node collects its answer.
const (
	// QuestionTypeOpen accepts any free-text response.
	QuestionTypeOpen = "open"
	// QuestionTypeMultipleChoice presents a numbered option list.
	QuestionTypeMultipleChoice = "multiple_choice"
)

// ResponseType constants classify how a recorded answer matched its node.
const (
	ResponseTypeMultipleChoice = "multiple_choice"
	ResponseTypeFreeText       = "free_text"
)

// StartNodeID is the conventional entry node of a tree. Any node can be
// designated as the start, but authored templates use "root".
const StartNodeID = "root"

// Metadata describes a tree or conversation document. Every field is
// required for a document to be considered persisted; absence is a
// validation error, never a silent default.
type Metadata struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	CreatedAt   string `json:"created_at"`
	ExpertType  string `json:"expert_type"`
	Description string `json:"description"`
	Author      string `json:"author"`
}

// Option is one selectable choice on a multiple-choice node.
// OptionID is the label shown to the user ("1", "2", ...); it must be
// unique within its node but not globally. An empty NextNode means
// "stay/end" and falls back to the node's default.
type Option struct {
	OptionID string `json:"option_id"`
	Text     string `json:"text"`
	NextNode string `json:"next_node,omitempty"`
}

// Node is one question point in a decision tree.
type Node struct {
	NodeID       string `json:"node_id"`
	Question     string `json:"question"`
	QuestionType string `json:"question_type"`

	// Options is present only for multiple_choice nodes.
	Options []Option `json:"options,omitempty"`

	// DefaultNextNode is used when the response is free text or no
	// option matches. Empty means the node is a terminal.
	DefaultNextNode string `json:"default_next_node,omitempty"`
}

// IsMultipleChoice reports whether the node presents an option list.
// Resolution logic switches on this instead of probing for Options.
func (n *Node) IsMultipleChoice() bool {
	return n.QuestionType == QuestionTypeMultipleChoice
}

// IsTerminal reports whether the node has nowhere to go on a free-text
// or unmatched response.
func (n *Node) IsTerminal() bool {
	if n.DefaultNextNode != "" {
		return false
	}
	for _, opt := range n.Options {
		if opt.NextNode != "" {
			return false
		}
	}
	return true
}

// OptionTexts returns the literal option texts in presentation order.
// This is what gets snapshotted into a HistoryEntry at ask-time.
func (n *Node) OptionTexts() []string {
	if len(n.Options) == 0 {
		return []string{}
	}
	texts := make([]string, len(n.Options))
	for i, opt := range n.Options {
		texts[i] = opt.Text
	}
	return texts
}

// TreeDocument is the static definition of nodes and transitions.
// It is immutable during a run; the navigator only reads it.
type TreeDocument struct {
	Metadata         Metadata `json:"metadata"`
	ConversationFlow []Node   `json:"conversation_flow"`
}

// HistoryEntry records one completed turn. Entries are append-only.
type HistoryEntry struct {
	Timestamp string `json:"timestamp"`

	// NodeID is the node the question was asked from.
	NodeID   string `json:"node_id"`
	Question string `json:"question"`

	// OptionsPresented snapshots the option texts shown at ask-time,
	// independent of later tree edits.
	OptionsPresented []string `json:"options_presented"`

	UserResponse string `json:"user_response"`
	ResponseType string `json:"response_type"`

	// NextNode is the resolved target node.
	NextNode string `json:"next_node"`

	// AssistantResponse may be empty, e.g. on the terminal exit entry.
	AssistantResponse string `json:"assistant_response"`
}

// ConversationDocument is a persisted run of a tree: the tree snapshot
// plus the ordered trace of turns taken.
type ConversationDocument struct {
	Metadata            Metadata       `json:"metadata"`
	ConversationFlow    []Node         `json:"conversation_flow"`
	ConversationHistory []HistoryEntry `json:"conversation_history"`
}

// Tree returns the tree snapshot embedded in the conversation.
func (d *ConversationDocument) Tree() *TreeDocument {
	return &TreeDocument{
		Metadata:         d.Metadata,
		ConversationFlow: d.ConversationFlow,
	}
}

// LegacyMessage is one entry of the pre-schema flat transcript format.
// Legacy documents are import-only: read once, converted, never mutated.
type LegacyMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Legacy roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// LegacyDocument is a flat ordered transcript with no metadata and no
// node identity.
type LegacyDocument []LegacyMessage

// TimestampFormat is the filename-safe timestamp used in stored
// document names ({expert_type}_decision_tree_{timestamp}.json).
const TimestampFormat = "20060102_150405"

// Now returns the current time formatted for history entries (RFC 3339,
// matching the ISO timestamps of existing stored documents).
func Now() string {
	return time.Now().Format(time.RFC3339)
}
