package file

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/espalier/pkg/domain"
)

// Kind classifies a document file by its top-level JSON shape.
type Kind string

const (
	// KindTree is an object with conversation_flow but no history.
	KindTree Kind = "tree"
	// KindConversation is an object carrying conversation_history.
	KindConversation Kind = "conversation"
	// KindLegacy is a bare array of role/content messages.
	KindLegacy Kind = "legacy"
)

// Document is the result of sniffing a file: exactly one of the three
// fields is set, indicated by Kind.
type Document struct {
	Kind         Kind
	Tree         *domain.TreeDocument
	Conversation *domain.ConversationDocument
	Legacy       domain.LegacyDocument
}

// ReadDocument loads a JSON file and classifies it by shape. An array
// is a legacy transcript; an object is a tree or conversation document
// depending on whether it carries a conversation_history field.
func ReadDocument(path string) (*Document, Kind, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	doc, err := SniffDocument(data)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return doc, doc.Kind, nil
}

// SniffDocument classifies raw JSON bytes. The object branch decodes
// through an untyped map first so the history key can be inspected
// before committing to a target type.
func SniffDocument(data []byte) (*Document, error) {
	trimmed := strings.TrimLeft(string(data), " \t\r\n")
	if trimmed == "" {
		return nil, fmt.Errorf("document is empty")
	}

	switch trimmed[0] {
	case '[':
		var legacy domain.LegacyDocument
		if err := json.Unmarshal(data, &legacy); err != nil {
			return nil, fmt.Errorf("failed to parse legacy transcript: %w", err)
		}
		return &Document{Kind: KindLegacy, Legacy: legacy}, nil

	case '{':
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse document: %w", err)
		}
		if _, ok := raw["conversation_history"]; ok {
			var conv domain.ConversationDocument
			if err := decode(raw, &conv); err != nil {
				return nil, fmt.Errorf("failed to decode conversation document: %w", err)
			}
			return &Document{Kind: KindConversation, Conversation: &conv}, nil
		}
		var tree domain.TreeDocument
		if err := decode(raw, &tree); err != nil {
			return nil, fmt.Errorf("failed to decode tree document: %w", err)
		}
		return &Document{Kind: KindTree, Tree: &tree}, nil

	default:
		return nil, fmt.Errorf("document is neither a JSON object nor an array")
	}
}

// ReadTree loads a template file, accepting either a bare tree or a
// full conversation document (whose flow is reused as a template).
func ReadTree(path string) (*domain.TreeDocument, error) {
	doc, kind, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindTree:
		return doc.Tree, nil
	case KindConversation:
		return doc.Conversation.Tree(), nil
	default:
		return nil, fmt.Errorf("%s is a legacy transcript, not a decision tree", path)
	}
}

func decode(raw map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  target,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}
