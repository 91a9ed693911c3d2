// Package file implements conversation persistence on the local
// filesystem, one pretty-printed JSON document per conversation.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/schema"
)

// Store implements ports.ConversationStore using the local filesystem.
type Store struct {
	BasePath string
}

// New creates a Store rooted at basePath. If basePath is empty it
// defaults to "conversation_history", matching the stored-document
// layout this tool has always used.
func New(basePath string) *Store {
	if basePath == "" {
		basePath = "conversation_history"
	}
	return &Store{BasePath: basePath}
}

// DocumentID derives the storage ID for a new conversation:
// {expert_type}_decision_tree_{timestamp}.
func DocumentID(expertType string, t time.Time) string {
	safe := strings.NewReplacer(" ", "_", "/", "_").Replace(expertType)
	return fmt.Sprintf("%s_decision_tree_%s", safe, t.Format(domain.TimestampFormat))
}

// Save validates and persists the document atomically: it writes to a
// temporary file in the same directory, fsyncs, and renames into place,
// so a crash mid-write never leaves a document both present and
// truncated. A document that fails validation is never written; the
// validator's errors are surfaced instead.
func (s *Store) Save(ctx context.Context, id string, doc *domain.ConversationDocument) error {
	if id == "" {
		return fmt.Errorf("document ID cannot be empty")
	}

	if res := schema.ValidateConversation(doc); !res.OK {
		return fmt.Errorf("refusing to write %s: %w", id, res.Err())
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure history directory: %w", err)
	}

	destPath := filepath.Join(s.BasePath, id+".json")

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	// Same directory as the destination so the rename stays on one
	// filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+id+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename replaces the destination atomically on POSIX. On
	// Windows the destination must be removed first; the delete+rename
	// window beats a partially written file.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to replace existing document: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}

	return nil
}

// Load retrieves a conversation document by ID.
func (s *Store) Load(ctx context.Context, id string) (*domain.ConversationDocument, error) {
	if id == "" {
		return nil, fmt.Errorf("document ID cannot be empty")
	}

	path := filepath.Join(s.BasePath, id+".json")
	doc, kind, err := ReadDocument(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}
	if kind != KindConversation {
		return nil, fmt.Errorf("%s is a legacy transcript, convert it first", id)
	}
	return doc.Conversation, nil
}

// Delete removes a stored document. Missing IDs are not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("document ID cannot be empty")
	}

	err := os.Remove(filepath.Join(s.BasePath, id+".json"))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// List returns all stored conversation IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			name := entry.Name()
			ids = append(ids, name[:len(name)-len(".json")])
		}
	}
	return ids, nil
}
