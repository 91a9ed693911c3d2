package converter_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/internal/converter"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/schema"
)

func fixedClock() func() time.Time {
	at := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func legacyFixture() domain.LegacyDocument {
	return domain.LegacyDocument{
		{Role: domain.RoleSystem, Content: "You are an expert in Cybersecurity. Provide helpful responses."},
		{Role: domain.RoleUser, Content: "Tell me about supply chain attacks"},
		{Role: domain.RoleAssistant, Content: "Supply chain attacks compromise trusted vendors."},
		{Role: domain.RoleUser, Content: "What are some notable examples?"},
		{Role: domain.RoleAssistant, Content: "SolarWinds is the canonical example."},
	}
}

func TestConvert(t *testing.T) {
	doc := converter.New(converter.WithClock(fixedClock())).Convert(legacyFixture(), "Cybersecurity")

	require.Len(t, doc.ConversationHistory, 2)

	first := doc.ConversationHistory[0]
	assert.Equal(t, "follow_up", first.NodeID)
	assert.Equal(t, "Tell me about supply chain attacks", first.UserResponse)
	assert.Equal(t, "Supply chain attacks compromise trusted vendors.", first.AssistantResponse)
	assert.Equal(t, domain.ResponseTypeFreeText, first.ResponseType)
	assert.Equal(t, "follow_up", first.NextNode)

	second := doc.ConversationHistory[1]
	assert.Equal(t, "What are some notable examples?", second.UserResponse)
	assert.Equal(t, "SolarWinds is the canonical example.", second.AssistantResponse)

	// System messages fold into the description, never into history.
	assert.Contains(t, doc.Metadata.Description, "System prompt:")
	assert.Contains(t, doc.Metadata.Description, "expert in Cybersecurity")
	assert.Equal(t, "Cybersecurity", doc.Metadata.ExpertType)

	// The converted document must validate as-is.
	res := schema.ValidateConversation(doc)
	assert.True(t, res.OK, "converted document should validate: %v", res.Errors)
}

func TestConvert_Deterministic(t *testing.T) {
	c := converter.New(converter.WithClock(fixedClock()))
	a := c.Convert(legacyFixture(), "Cybersecurity")
	b := c.Convert(legacyFixture(), "Cybersecurity")
	assert.Equal(t, a, b)
}

func TestConvert_EdgeShapes(t *testing.T) {
	c := converter.New(converter.WithClock(fixedClock()))

	t.Run("Empty Transcript", func(t *testing.T) {
		doc := c.Convert(domain.LegacyDocument{}, "Networking")
		assert.Empty(t, doc.ConversationHistory)
		assert.Len(t, doc.ConversationFlow, 2)
		assert.True(t, schema.ValidateConversation(doc).OK)
	})

	t.Run("Consecutive User Messages", func(t *testing.T) {
		doc := c.Convert(domain.LegacyDocument{
			{Role: domain.RoleUser, Content: "first"},
			{Role: domain.RoleUser, Content: "second"},
			{Role: domain.RoleAssistant, Content: "answer to second"},
		}, "Networking")

		require.Len(t, doc.ConversationHistory, 2)
		assert.Equal(t, "first", doc.ConversationHistory[0].UserResponse)
		assert.Equal(t, "", doc.ConversationHistory[0].AssistantResponse)
		assert.Equal(t, "answer to second", doc.ConversationHistory[1].AssistantResponse)
	})

	t.Run("Leading Assistant Message", func(t *testing.T) {
		doc := c.Convert(domain.LegacyDocument{
			{Role: domain.RoleAssistant, Content: "Welcome! What do you want to know?"},
			{Role: domain.RoleUser, Content: "BGP"},
			{Role: domain.RoleAssistant, Content: "BGP is a routing protocol."},
		}, "Networking")

		require.Len(t, doc.ConversationHistory, 2)
		assert.Equal(t, "Welcome! What do you want to know?", doc.ConversationHistory[0].AssistantResponse)
		assert.NotEmpty(t, doc.ConversationHistory[0].UserResponse)
		assert.True(t, schema.ValidateConversation(doc).OK)
	})

	t.Run("Trailing User Message", func(t *testing.T) {
		doc := c.Convert(domain.LegacyDocument{
			{Role: domain.RoleUser, Content: "unanswered"},
		}, "Networking")

		require.Len(t, doc.ConversationHistory, 1)
		assert.Equal(t, "unanswered", doc.ConversationHistory[0].UserResponse)
		assert.Equal(t, "", doc.ConversationHistory[0].AssistantResponse)
	})

	t.Run("Empty Expert Type", func(t *testing.T) {
		doc := c.Convert(legacyFixture(), "")
		assert.Equal(t, "unknown", doc.Metadata.ExpertType)
	})
}

func TestInferExpertType(t *testing.T) {
	t.Run("From System Prompt", func(t *testing.T) {
		got := converter.InferExpertType(legacyFixture(), "whatever.json")
		assert.Equal(t, "Cybersecurity", got)
	})

	t.Run("From Filename", func(t *testing.T) {
		got := converter.InferExpertType(nil, "Machine_Learning_history_20250115_100000.json")
		assert.Equal(t, "Machine Learning", got)
	})

	t.Run("Unknown", func(t *testing.T) {
		got := converter.InferExpertType(nil, "notes.json")
		assert.Equal(t, "unknown", got)
	})
}

func TestNewTreeDocument(t *testing.T) {
	tree := converter.NewTreeDocument("Cybersecurity", fixedClock()())

	res := schema.ValidateTree(tree)
	assert.True(t, res.OK, "authored tree should validate: %v", res.Errors)
	assert.Equal(t, domain.StartNodeID, tree.ConversationFlow[0].NodeID)
	assert.Equal(t, "Cybersecurity", tree.Metadata.ExpertType)
}
