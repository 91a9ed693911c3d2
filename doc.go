/*
Package espalier is a decision-tree conversation engine. It walks users
through expert-authored question graphs, pairs every step with
model-generated commentary, and records the whole exchange as a
self-contained JSON document that carries both the tree and the
transcript.

# Concept

A tree document declares metadata and a conversation_flow: a list of
nodes, each with a question, optional multiple-choice options, and a
default next node. The engine validates the document, then navigates it
one turn at a time. User responses either match an option (by number or
by text) or fall through to the node's default, so free-form answers
never derail the walk. Control commands (help, save, back, exit) are
handled by the navigator and never reach the model.

Model replies pass through a guard that validates, retries, and
sanitizes them; when the model stays unreliable the turn records a
fixed fallback line and the conversation continues.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/espalier"
		"github.com/aretw0/espalier/pkg/adapters/ollama"
	)

	func main() {
		eng, err := espalier.New("tree.json",
			espalier.WithModelClient(ollama.New("")),
			espalier.WithModel("llama3"),
		)
		if err != nil {
			log.Fatal(err)
		}

		conv, err := eng.Start("Cybersecurity")
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		for {
			node, err := conv.Present()
			if err != nil {
				log.Fatal(err)
			}
			fmt.Println(node.Question)

			// In a real app, this input comes from the user.
			outcome, err := conv.Respond(ctx, "exit")
			if err != nil {
				log.Fatal(err)
			}
			if outcome.Kind == "exit" || outcome.Kind == "end" {
				break
			}
		}
	}

Stored conversations are plain JSON files; see the history and convert
commands of the espalier CLI for working with them.
*/
package espalier
