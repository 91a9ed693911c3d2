package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// ContractDocument returns a minimal schema-valid conversation document
// for store tests.
func ContractDocument() *domain.ConversationDocument {
	return &domain.ConversationDocument{
		Metadata: domain.Metadata{
			Title:       "Contract Fixture",
			Version:     "1.0",
			CreatedAt:   "2025-01-01T00:00:00Z",
			ExpertType:  "Cybersecurity",
			Description: "Store contract fixture",
			Author:      "espalier",
		},
		ConversationFlow: []domain.Node{
			{
				NodeID:          "root",
				Question:        "What would you like to discuss?",
				QuestionType:    domain.QuestionTypeOpen,
				DefaultNextNode: "follow_up",
			},
			{
				NodeID:       "follow_up",
				Question:     "How would you like to continue?",
				QuestionType: domain.QuestionTypeMultipleChoice,
				Options: []domain.Option{
					{OptionID: "1", Text: "Tell me more about this topic", NextNode: "follow_up"},
					{OptionID: "2", Text: "Let's discuss something else", NextNode: "root"},
				},
				DefaultNextNode: "follow_up",
			},
		},
		ConversationHistory: []domain.HistoryEntry{
			{
				Timestamp:         "2025-01-01T00:00:01Z",
				NodeID:            "root",
				Question:          "What would you like to discuss?",
				OptionsPresented:  []string{},
				UserResponse:      "Tell me about supply chain attacks",
				ResponseType:      domain.ResponseTypeFreeText,
				NextNode:          "follow_up",
				AssistantResponse: "Supply chain attacks target the weakest dependency.",
			},
		},
	}
}

// RunConversationStoreContract verifies that a ConversationStore
// implementation adheres to the interface contract. Both the file and
// Redis adapters run this suite.
func RunConversationStoreContract(t *testing.T, store ports.ConversationStore) {
	ctx := context.Background()
	id := "contract-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		doc := ContractDocument()

		err := store.Save(ctx, id, doc)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, doc.Metadata, loaded.Metadata)
		assert.Equal(t, doc.ConversationFlow, loaded.ConversationFlow)
		assert.Equal(t, doc.ConversationHistory, loaded.ConversationHistory)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+id)
		assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	})

	t.Run("Refuses Invalid Document", func(t *testing.T) {
		doc := ContractDocument()
		doc.ConversationHistory[0].NodeID = "ghost" // absent from flow

		err := store.Save(ctx, id+"-invalid", doc)
		require.Error(t, err, "Save must refuse a document that fails validation")
		assert.ErrorIs(t, err, domain.ErrSchemaInvalid)

		_, err = store.Load(ctx, id+"-invalid")
		assert.ErrorIs(t, err, domain.ErrConversationNotFound, "invalid document must not be persisted")
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, id, ContractDocument()))

		require.NoError(t, store.Delete(ctx, id), "Delete should not return error")

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrConversationNotFound, "Load after Delete should return ErrConversationNotFound")

		assert.NoError(t, store.Delete(ctx, id), "deleting a missing ID is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := id + "-1"
		id2 := id + "-2"
		require.NoError(t, store.Save(ctx, id1, ContractDocument()))
		require.NoError(t, store.Save(ctx, id2, ContractDocument()))

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
