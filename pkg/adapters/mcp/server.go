// Package mcp exposes a decision tree to MCP clients as a set of
// stateless navigation tools, so an agent can walk the tree without
// holding a server-side session.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/graph"
	"github.com/aretw0/espalier/pkg/guard"
)

// NodeResponse is the structured result shared by the navigation tools.
type NodeResponse struct {
	NodeID       string   `json:"node_id" jsonschema_description:"The ID of the current node"`
	Question     string   `json:"question" jsonschema_description:"The question asked at this node"`
	QuestionType string   `json:"question_type" jsonschema_description:"open or multiple_choice"`
	Options      []string `json:"options" jsonschema_description:"Option texts presented at this node"`
	Terminal     bool     `json:"terminal" jsonschema_description:"Indicates no further navigation is possible"`
}

// ResolveResponse is the result of resolve_next: the node the input
// leads to, plus which option matched, if any.
type ResolveResponse struct {
	MatchedOption string       `json:"matched_option,omitempty" jsonschema_description:"Text of the option the input matched"`
	Next          NodeResponse `json:"next" jsonschema_description:"The node the input leads to"`
	End           bool         `json:"end" jsonschema_description:"True when the input leads out of the tree"`
}

// Server wraps a decision graph and exposes it as an MCP server.
type Server struct {
	graph     *graph.Graph
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server for the given graph.
func NewServer(g *graph.Graph) *Server {
	s := &Server{
		graph:     g,
		mcpServer: server.NewMCPServer("espalier-mcp", strings.TrimSpace(espalier.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	// TOOL: render_node
	renderTool := mcp.NewTool("render_node",
		mcp.WithDescription("Render a node of the decision tree. If node_id is omitted, renders the start node."),
		mcp.WithString("node_id", mcp.Description("The ID of the node to render (optional)")),
		mcp.WithOutputSchema[NodeResponse](),
	)
	s.mcpServer.AddTool(renderTool, mcp.NewStructuredToolHandler(s.handleRenderNode))

	// TOOL: resolve_next
	resolveTool := mcp.NewTool("resolve_next",
		mcp.WithDescription("Resolve which node a user response leads to from the given node."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Current node ID")),
		mcp.WithString("input", mcp.Required(), mcp.Description("User response text")),
		mcp.WithOutputSchema[ResolveResponse](),
	)
	s.mcpServer.AddTool(resolveTool, mcp.NewStructuredToolHandler(s.handleResolveNext))

	// TOOL: get_tree
	s.mcpServer.AddTool(mcp.NewTool("get_tree",
		mcp.WithDescription("Get the full decision tree definition for introspection."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := json.Marshal(s.graph.Document())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("marshal failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleRenderNode(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (NodeResponse, error) {
	nodeID, _ := args["node_id"].(string)
	if nodeID == "" {
		nodeID = s.graph.Start()
	}

	node, err := s.graph.Get(nodeID)
	if err != nil {
		return NodeResponse{}, fmt.Errorf("render failed: %w", err)
	}

	return renderNode(node), nil
}

func (s *Server) handleResolveNext(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ResolveResponse, error) {
	nodeID, _ := args["node_id"].(string)
	input, _ := args["input"].(string)

	clean, err := guard.SanitizeInput(input)
	if err != nil {
		return ResolveResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	node, err := s.graph.Get(nodeID)
	if err != nil {
		return ResolveResponse{}, fmt.Errorf("resolve failed: %w", err)
	}

	resp := ResolveResponse{}
	if opt, ok := s.graph.MatchOption(node, clean); ok {
		resp.MatchedOption = opt.Text
	}

	nextID := s.graph.ResolveNext(node, clean)
	if nextID == "" {
		resp.End = true
		return resp, nil
	}

	next, err := s.graph.Get(nextID)
	if err != nil {
		return ResolveResponse{}, fmt.Errorf("resolve failed: %w", err)
	}
	resp.Next = renderNode(next)
	return resp, nil
}

func renderNode(node *domain.Node) NodeResponse {
	return NodeResponse{
		NodeID:       node.NodeID,
		Question:     node.Question,
		QuestionType: string(node.QuestionType),
		Options:      node.OptionTexts(),
		Terminal:     node.IsTerminal(),
	}
}

func (s *Server) registerResources() {
	// EXPOSE: espalier://tree
	s.mcpServer.AddResource(mcp.NewResource("espalier://tree", "Current Decision Tree",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.graph.Document())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal tree: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "espalier://tree",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
