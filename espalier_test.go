package espalier_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/runtime"
)

const facadeTreeJSON = `{
  "metadata": {
    "title": "Networking Decision Tree",
    "version": "1.0",
    "created_at": "2025-01-15T10:00:00Z",
    "expert_type": "Networking",
    "description": "A networking tree",
    "author": "espalier"
  },
  "conversation_flow": [
    {
      "node_id": "root",
      "question": "What would you like to know?",
      "question_type": "open",
      "default_next_node": "follow_up"
    },
    {
      "node_id": "follow_up",
      "question": "Anything else?",
      "question_type": "open",
      "default_next_node": "follow_up"
    }
  ]
}`

func TestFacade_Integration(t *testing.T) {
	treePath := filepath.Join(t.TempDir(), "tree.json")
	if err := os.WriteFile(treePath, []byte(facadeTreeJSON), 0644); err != nil {
		t.Fatal(err)
	}

	engine, err := espalier.New(treePath)
	if err != nil {
		t.Fatalf("Failed to initialize engine from %s: %v", treePath, err)
	}

	conv, err := engine.Start("Networking")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	node, err := conv.Present()
	if err != nil {
		t.Fatalf("Present failed: %v", err)
	}
	if node.NodeID != "root" {
		t.Errorf("Expected initial node 'root', got %q", node.NodeID)
	}

	ctx := context.Background()
	outcome, err := conv.Respond(ctx, "What is BGP?")
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if outcome.Kind != runtime.OutcomeAdvance {
		t.Errorf("Expected advance outcome, got %q", outcome.Kind)
	}
	// No model client is configured, so the turn carries the fallback.
	if !outcome.Reply.Fallback {
		t.Error("Expected a fallback reply in a model-free run")
	}

	outcome, err = conv.Respond(ctx, "exit")
	if err != nil {
		t.Fatalf("Exit failed: %v", err)
	}
	if outcome.Kind != runtime.OutcomeExit {
		t.Errorf("Expected exit outcome, got %q", outcome.Kind)
	}

	doc := conv.Document()
	if len(doc.ConversationHistory) != 2 {
		t.Errorf("Expected 2 history entries, got %d", len(doc.ConversationHistory))
	}
	if doc.Metadata.ExpertType != "Networking" {
		t.Errorf("Expected expert type carried into the document, got %q", doc.Metadata.ExpertType)
	}
}

func TestFacade_StartNodeOverride(t *testing.T) {
	treePath := filepath.Join(t.TempDir(), "tree.json")
	if err := os.WriteFile(treePath, []byte(facadeTreeJSON), 0644); err != nil {
		t.Fatal(err)
	}

	engine, err := espalier.New(treePath, espalier.WithStartNode("follow_up"))
	if err != nil {
		t.Fatalf("Failed to initialize engine: %v", err)
	}

	conv, err := engine.Start("Networking")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	node, err := conv.Present()
	if err != nil {
		t.Fatalf("Present failed: %v", err)
	}
	if node.NodeID != "follow_up" {
		t.Errorf("Expected start override 'follow_up', got %q", node.NodeID)
	}
}

func TestFacade_Resume(t *testing.T) {
	treePath := filepath.Join(t.TempDir(), "tree.json")
	if err := os.WriteFile(treePath, []byte(facadeTreeJSON), 0644); err != nil {
		t.Fatal(err)
	}

	engine, err := espalier.New(treePath)
	if err != nil {
		t.Fatalf("Failed to initialize engine: %v", err)
	}

	conv, err := engine.Start("Networking")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := conv.Present(); err != nil {
		t.Fatalf("Present failed: %v", err)
	}
	if _, err := conv.Respond(context.Background(), "first question"); err != nil {
		t.Fatalf("Respond failed: %v", err)
	}

	resumed, err := engine.Resume(conv.Document())
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	node, err := resumed.Present()
	if err != nil {
		t.Fatalf("Present after resume failed: %v", err)
	}
	if node.NodeID != "follow_up" {
		t.Errorf("Expected resume at 'follow_up', got %q", node.NodeID)
	}
	if len(resumed.Trace()) != 1 {
		t.Errorf("Expected the recorded turn to survive resume, got %d entries", len(resumed.Trace()))
	}
}
