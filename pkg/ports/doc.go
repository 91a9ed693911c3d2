// Package ports defines the driven-side interfaces of the conversation
// engine: the model-serving collaborator and conversation persistence.
// Adapters (Ollama HTTP, filesystem, Redis) implement these interfaces;
// the core never imports an adapter.
package ports
