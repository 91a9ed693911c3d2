package guard

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeInput(t *testing.T) {
	t.Run("Passthrough", func(t *testing.T) {
		out, err := SanitizeInput("Tell me about supply chain attacks")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "Tell me about supply chain attacks" {
			t.Errorf("clean input must be unchanged, got %q", out)
		}
	})

	t.Run("Strips Control Characters", func(t *testing.T) {
		out, err := SanitizeInput("hello\x1b[31mworld\x00")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "hello[31mworld" {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("Preserves Safe Whitespace", func(t *testing.T) {
		out, err := SanitizeInput("line one\nline two\ttabbed\r")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "line one\nline two\ttabbed\r" {
			t.Errorf("newline, tab, and CR must survive, got %q", out)
		}
	})

	t.Run("Rejects Oversized Input", func(t *testing.T) {
		_, err := SanitizeInput(strings.Repeat("a", DefaultMaxInputSize+1))
		if !errors.Is(err, ErrInputTooLarge) {
			t.Errorf("expected ErrInputTooLarge, got %v", err)
		}
	})

	t.Run("Size Limit Override", func(t *testing.T) {
		t.Setenv(EnvMaxInputSize, "10")
		if _, err := SanitizeInput(strings.Repeat("a", 11)); !errors.Is(err, ErrInputTooLarge) {
			t.Errorf("expected ErrInputTooLarge under lowered limit, got %v", err)
		}
		if _, err := SanitizeInput("short"); err != nil {
			t.Errorf("input under the limit must pass, got %v", err)
		}
	})

	t.Run("Rejects Invalid UTF8", func(t *testing.T) {
		if _, err := SanitizeInput("bad\xff\xfe"); !errors.Is(err, ErrInvalidUTF8) {
			t.Errorf("expected ErrInvalidUTF8, got %v", err)
		}
	})
}
