package domain

import (
	"errors"
	"fmt"
)

// ErrSchemaInvalid indicates a structural violation in a tree or
// conversation document. It is always accompanied by field-level
// details; see pkg/schema.
var ErrSchemaInvalid = errors.New("schema invalid")

// ErrUnknownNode is returned when a node reference resolves to nothing.
// Fatal to the current operation; the caller may pick a different tree.
var ErrUnknownNode = errors.New("unknown node")

// ErrConversationNotFound is returned when a conversation ID cannot be
// found in a store.
var ErrConversationNotFound = errors.New("conversation not found")

// ErrModelUnavailable indicates the model collaborator could not be
// reached at all.
var ErrModelUnavailable = errors.New("model unavailable")

// ErrModelTimeout indicates the model collaborator did not answer
// within the request deadline.
var ErrModelTimeout = errors.New("model timeout")

// ErrModelUnreliable indicates the retry budget was exhausted without a
// usable reply. It never escapes the response guard: the guard
// downgrades it to a fixed fallback reply so the conversation continues.
var ErrModelUnreliable = errors.New("model unreliable")

// UnknownNodeError wraps ErrUnknownNode with the offending reference.
type UnknownNodeError struct {
	NodeID string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("unknown node %q", e.NodeID)
}

func (e *UnknownNodeError) Unwrap() error {
	return ErrUnknownNode
}
