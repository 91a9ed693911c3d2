package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/muesli/termenv"

	"github.com/aretw0/espalier/pkg/domain"
)

func newBufferPrinter(buf *bytes.Buffer) *Printer {
	return &Printer{
		out:     buf,
		profile: termenv.Ascii,
		render:  func(s string) (string, error) { return s, nil },
	}
}

func TestQuestion_LabelsOptionsByID(t *testing.T) {
	var buf bytes.Buffer
	p := newBufferPrinter(&buf)

	p.Question(&domain.Node{
		NodeID:       "root",
		Question:     "Pick a topic",
		QuestionType: domain.QuestionTypeMultipleChoice,
		Options: []domain.Option{
			{OptionID: "a", Text: "Alpha", NextNode: "root"},
			{OptionID: "b", Text: "Beta", NextNode: "root"},
		},
	})

	out := buf.String()
	if !strings.Contains(out, "a. Alpha") {
		t.Errorf("option must be labeled with its option_id, got:\n%s", out)
	}
	if !strings.Contains(out, "b. Beta") {
		t.Errorf("option must be labeled with its option_id, got:\n%s", out)
	}
	// The displayed label is what the resolver matches; a positional
	// number would select nothing on this node.
	if strings.Contains(out, "1. Alpha") || strings.Contains(out, "2. Beta") {
		t.Errorf("options must not be labeled by position, got:\n%s", out)
	}
}

func TestQuestion_OpenNodeHasNoOptionLines(t *testing.T) {
	var buf bytes.Buffer
	p := newBufferPrinter(&buf)

	p.Question(&domain.Node{
		NodeID:       "root",
		Question:     "What would you like to know?",
		QuestionType: domain.QuestionTypeOpen,
	})

	out := buf.String()
	if !strings.Contains(out, "What would you like to know?") {
		t.Errorf("question text missing, got:\n%s", out)
	}
	// Blank line, question, blank line: nothing else.
	if got := strings.Count(out, "\n"); got != 3 {
		t.Errorf("open node must print no option lines, got %d lines:\n%s", got, out)
	}
}
