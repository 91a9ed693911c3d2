// Package graph renders decision trees as Mermaid flowcharts.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
)

// Overlay contains conversation state to visualize on the graph.
type Overlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces Mermaid flowchart syntax from a tree.
// Shapes follow node semantics:
//   - Start node: ((Circle))
//   - Multiple choice: {Diamond}
//   - Open ended: [/Parallelogram/]
//   - Terminal: [Rectangle]
//
// Option edges carry the option text; default edges are dotted.
func GenerateMermaid(tree *domain.TreeDocument, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	startID := ""
	if len(tree.ConversationFlow) > 0 {
		startID = tree.ConversationFlow[0].NodeID
	}
	for _, node := range tree.ConversationFlow {
		if node.NodeID == domain.StartNodeID {
			startID = domain.StartNodeID
		}
	}

	for _, node := range tree.ConversationFlow {
		safeID := sanitizeMermaidID(node.NodeID)

		opener, closer := "[", "]"
		switch {
		case node.NodeID == startID:
			opener, closer = "((", "))"
		case node.IsMultipleChoice():
			opener, closer = "{", "}"
		case !node.IsTerminal():
			opener, closer = "[/", "/]"
		}

		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(node.NodeID), closer))

		for _, opt := range node.Options {
			if opt.NextNode == "" {
				continue
			}
			safeTo := sanitizeMermaidID(opt.NextNode)
			arrow := fmt.Sprintf("-- \"%s\" -->", escapeLabel(opt.Text))
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeID, arrow, safeTo))
		}

		if node.DefaultNextNode != "" {
			safeTo := sanitizeMermaidID(node.DefaultNextNode)
			sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", safeID, safeTo))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.CurrentNode != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode)))
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return r.Replace(id)
}
