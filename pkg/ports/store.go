package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// ConversationStore persists conversation documents keyed by ID. File
// and Redis implementations exist; both validate before writing and
// refuse to persist a document that fails the schema.
type ConversationStore interface {
	// Save persists the document. It must surface the validator's
	// errors instead of writing if the document fails validation, and
	// must be atomic from the caller's perspective: a crash mid-write
	// never leaves a document both present and truncated.
	Save(ctx context.Context, id string, doc *domain.ConversationDocument) error

	// Load retrieves a document. Returns domain.ErrConversationNotFound
	// if the ID does not exist.
	Load(ctx context.Context, id string) (*domain.ConversationDocument, error)

	// Delete removes a document. Deleting a missing ID is not an error.
	Delete(ctx context.Context, id string) error

	// List returns all stored conversation IDs.
	List(ctx context.Context) ([]string, error)
}
