package ports

import "context"

// ModelClient is the model-serving collaborator. It is treated as a
// remote capability that may be slow, empty, or erroring; the response
// guard is its only conversational caller.
type ModelClient interface {
	// Generate sends a prompt to the named model and returns its raw
	// reply. Fails with domain.ErrModelUnavailable or
	// domain.ErrModelTimeout.
	Generate(ctx context.Context, prompt, model string) (string, error)

	// ListModels returns the names of the models the endpoint serves.
	ListModels(ctx context.Context) ([]string, error)

	// IsAvailable reports whether the endpoint answers at all.
	IsAvailable(ctx context.Context) bool
}
