package ollama

import (
	"context"
	"strings"
)

// expertModels maps expert-type keywords to the model best suited for
// that subject area.
var expertModels = []struct {
	keyword string
	model   string
}{
	{"programming", "codellama"},
	{"software", "codellama"},
	{"developer", "codellama"},
	{"code", "codellama"},
	{"security", "llama3"},
	{"cyber", "llama3"},
	{"medical", "meditron"},
	{"health", "meditron"},
	{"math", "qwen2-math"},
}

// RecommendModel picks a model for the given expert type, preferring a
// subject-matched model the server actually has. Falls back to the
// first available model, then to the default name when the server
// cannot be asked.
func RecommendModel(ctx context.Context, client *Client, expertType string) string {
	preferred := DefaultModel
	lowered := strings.ToLower(expertType)
	for _, em := range expertModels {
		if strings.Contains(lowered, em.keyword) {
			preferred = em.model
			break
		}
	}

	available, err := client.ListModels(ctx)
	if err != nil || len(available) == 0 {
		return preferred
	}

	for _, name := range available {
		// Tags come back as "name:tag"; match on the bare name.
		if name == preferred || strings.HasPrefix(name, preferred+":") {
			return name
		}
	}
	return available[0]
}
