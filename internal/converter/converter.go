// Package converter upgrades legacy flat transcripts into
// schema-compliant conversation documents. Conversion is the only place
// a structurally deficient input is repaired rather than reported.
package converter

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
)

// Version stamped into converted and freshly authored documents.
const Version = "1.0"

// DefaultAuthor is recorded when no author is known.
const DefaultAuthor = "espalier"

// DefaultFlow synthesizes the canonical minimal two-node flow: an open
// root question and a multiple-choice follow_up whose options cycle
// follow_up -> root -> follow_up.
func DefaultFlow(expertType string) []domain.Node {
	return []domain.Node{
		{
			NodeID:          domain.StartNodeID,
			Question:        fmt.Sprintf("What would you like to know about %s?", expertType),
			QuestionType:    domain.QuestionTypeOpen,
			DefaultNextNode: "follow_up",
		},
		{
			NodeID:       "follow_up",
			Question:     "How would you like to continue?",
			QuestionType: domain.QuestionTypeMultipleChoice,
			Options: []domain.Option{
				{OptionID: "1", Text: "Tell me more about this topic", NextNode: "follow_up"},
				{OptionID: "2", Text: "I have a related question", NextNode: "follow_up"},
				{OptionID: "3", Text: "Let's discuss something else", NextNode: domain.StartNodeID},
			},
			DefaultNextNode: "follow_up",
		},
	}
}

// NewTreeDocument authors a fresh tree document around the default flow.
func NewTreeDocument(expertType string, now time.Time) *domain.TreeDocument {
	return &domain.TreeDocument{
		Metadata: domain.Metadata{
			Title:       fmt.Sprintf("%s Decision Tree", expertType),
			Version:     Version,
			CreatedAt:   now.Format(time.RFC3339),
			ExpertType:  expertType,
			Description: fmt.Sprintf("Decision tree conversation with a %s expert", expertType),
			Author:      DefaultAuthor,
		},
		ConversationFlow: DefaultFlow(expertType),
	}
}

// Converter upgrades legacy documents. The clock is injectable so that
// conversion stays deterministic under test; all timestamps of one
// conversion come from a single reading.
type Converter struct {
	now func() time.Time
}

// Option configures the Converter.
type Option func(*Converter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) {
		c.now = now
	}
}

// New creates a Converter.
func New(opts ...Option) *Converter {
	c := &Converter{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert maps a legacy flat transcript into a conversation document:
// a synthesized minimal flow, each user/assistant pair folded into one
// history entry at the follow_up node, original ordering and content
// preserved. System entries become part of metadata.description, never
// history entries. Given the same input, expert type, and clock, the
// output is identical.
func (c *Converter) Convert(legacy domain.LegacyDocument, expertType string) *domain.ConversationDocument {
	if expertType == "" {
		expertType = "unknown"
	}

	now := c.now().Format(time.RFC3339)
	flow := DefaultFlow(expertType)
	followUp := &flow[1]

	description := fmt.Sprintf("Converted from legacy conversation history with a %s expert", expertType)
	var systemPrompts []string

	var history []domain.HistoryEntry
	var pendingUser *string

	flush := func(assistant string) {
		if pendingUser == nil {
			return
		}
		responseType := domain.ResponseTypeFreeText
		for _, opt := range followUp.Options {
			if strings.TrimSpace(*pendingUser) == opt.OptionID {
				responseType = domain.ResponseTypeMultipleChoice
			}
		}
		history = append(history, domain.HistoryEntry{
			Timestamp:         now,
			NodeID:            followUp.NodeID,
			Question:          followUp.Question,
			OptionsPresented:  followUp.OptionTexts(),
			UserResponse:      *pendingUser,
			ResponseType:      responseType,
			NextNode:          followUp.DefaultNextNode,
			AssistantResponse: assistant,
		})
		pendingUser = nil
	}

	for i := range legacy {
		msg := legacy[i]
		switch msg.Role {
		case domain.RoleSystem:
			systemPrompts = append(systemPrompts, msg.Content)
		case domain.RoleUser:
			// Two user messages in a row: the first had no answer.
			flush("")
			content := msg.Content
			pendingUser = &content
		case domain.RoleAssistant:
			if pendingUser == nil {
				// An opening assistant message (the expert's initial
				// question) has no user turn to pair with; a synthetic
				// placeholder keeps the entry schema-valid without
				// dropping content.
				placeholder := "(no user response)"
				pendingUser = &placeholder
			}
			flush(msg.Content)
		}
	}
	flush("")

	if len(systemPrompts) > 0 {
		description = description + ". System prompt: " + strings.Join(systemPrompts, " ")
	}
	if history == nil {
		history = []domain.HistoryEntry{}
	}

	return &domain.ConversationDocument{
		Metadata: domain.Metadata{
			Title:       fmt.Sprintf("%s Conversation (converted)", expertType),
			Version:     Version,
			CreatedAt:   now,
			ExpertType:  expertType,
			Description: description,
			Author:      DefaultAuthor,
		},
		ConversationFlow:    flow,
		ConversationHistory: history,
	}
}

// expertPattern extracts the expertise from the standard system prompt
// ("You are an expert in X.").
var expertPattern = regexp.MustCompile(`(?i)expert in ([^.\n]+)`)

// InferExpertType guesses the expert type of a legacy document from its
// system prompt, falling back to the stored filename prefix
// ({expert_type}_history_{timestamp}.json), then to "unknown".
func InferExpertType(legacy domain.LegacyDocument, filename string) string {
	for _, msg := range legacy {
		if msg.Role != domain.RoleSystem {
			continue
		}
		if m := expertPattern.FindStringSubmatch(msg.Content); m != nil {
			return strings.TrimSpace(m[1])
		}
	}

	base := filepath.Base(filename)
	if idx := strings.Index(base, "_history_"); idx > 0 {
		return strings.ReplaceAll(base[:idx], "_", " ")
	}

	return "unknown"
}
