// Package validator batch-checks document files: schema validation for
// trees and conversations, reachability crawls over flows, and a dry
// run of legacy transcript conversion.
package validator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/espalier/internal/adapters/file"
	"github.com/aretw0/espalier/internal/converter"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/schema"
)

// Options selects which checks run. All false means all checks run.
type Options struct {
	// Templates validates tree documents against the schema.
	Templates bool
	// Histories validates conversation documents against the schema.
	Histories bool
	// Navigation crawls each flow from the start node and reports
	// unreachable nodes.
	Navigation bool
	// Conversion dry-runs legacy transcripts through the converter.
	Conversion bool
}

func (o Options) normalized() Options {
	if !o.Templates && !o.Histories && !o.Navigation && !o.Conversion {
		return Options{Templates: true, Histories: true, Navigation: true, Conversion: true}
	}
	return o
}

// FileReport is the result per file.
type FileReport struct {
	Path   string
	Kind   file.Kind
	Errors []schema.FieldError
}

// OK reports whether the file passed every applicable check.
func (r FileReport) OK() bool {
	return len(r.Errors) == 0
}

// Report aggregates per-file results for one directory run.
type Report struct {
	Files []FileReport
}

// OK reports whether every file passed.
func (r *Report) OK() bool {
	for _, f := range r.Files {
		if !f.OK() {
			return false
		}
	}
	return true
}

// Summary renders the report for terminal output, one line per problem.
func (r *Report) Summary() string {
	var b strings.Builder
	failed := 0
	for _, f := range r.Files {
		if f.OK() {
			continue
		}
		failed++
		fmt.Fprintf(&b, "%s (%s):\n", f.Path, f.Kind)
		for _, e := range f.Errors {
			fmt.Fprintf(&b, "  - %s\n", e.Error())
		}
	}
	fmt.Fprintf(&b, "%d/%d files passed\n", len(r.Files)-failed, len(r.Files))
	return b.String()
}

// ValidateDir checks every .json file under dir, non-recursively,
// applying the selected checks per document kind.
func ValidateDir(dir string, opts Options) (*Report, error) {
	opts = opts.normalized()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	report := &Report{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		report.Files = append(report.Files, ValidateFile(path, opts))
	}
	return report, nil
}

// ValidateFile checks a single document file.
func ValidateFile(path string, opts Options) FileReport {
	opts = opts.normalized()
	rep := FileReport{Path: path}

	doc, kind, err := file.ReadDocument(path)
	if err != nil {
		rep.Errors = append(rep.Errors, schema.FieldError{Path: "$", Message: err.Error()})
		return rep
	}
	rep.Kind = kind

	switch kind {
	case file.KindTree:
		if opts.Templates {
			rep.Errors = append(rep.Errors, schema.ValidateTree(doc.Tree).Errors...)
		}
		if opts.Navigation && len(rep.Errors) == 0 {
			rep.Errors = append(rep.Errors, checkReachability(doc.Tree)...)
		}

	case file.KindConversation:
		if opts.Histories {
			rep.Errors = append(rep.Errors, schema.ValidateConversation(doc.Conversation).Errors...)
		}
		if opts.Navigation && len(rep.Errors) == 0 {
			rep.Errors = append(rep.Errors, checkReachability(doc.Conversation.Tree())...)
		}

	case file.KindLegacy:
		if opts.Conversion {
			rep.Errors = append(rep.Errors, checkConversion(doc.Legacy, path)...)
		}
	}

	return rep
}

// checkReachability crawls the flow from the start node, following
// option targets and defaults, and reports nodes the crawl never
// reaches. Dangling targets are the schema validator's job; this one
// only cares about orphans.
func checkReachability(tree *domain.TreeDocument) []schema.FieldError {
	if len(tree.ConversationFlow) == 0 {
		return nil
	}

	nodes := make(map[string]*domain.Node, len(tree.ConversationFlow))
	for i := range tree.ConversationFlow {
		node := &tree.ConversationFlow[i]
		nodes[node.NodeID] = node
	}

	start := tree.ConversationFlow[0].NodeID
	if _, ok := nodes[domain.StartNodeID]; ok {
		start = domain.StartNodeID
	}

	visited := make(map[string]bool)
	queue := []string{start}
	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]

		if visited[currentID] {
			continue
		}
		visited[currentID] = true

		node, ok := nodes[currentID]
		if !ok {
			continue
		}

		targets := []string{node.DefaultNextNode}
		for _, opt := range node.Options {
			targets = append(targets, opt.NextNode)
		}
		for _, target := range targets {
			if target != "" && !visited[target] {
				queue = append(queue, target)
			}
		}
	}

	var orphans []string
	for id := range nodes {
		if !visited[id] {
			orphans = append(orphans, id)
		}
	}
	sort.Strings(orphans)

	var errs []schema.FieldError
	for _, id := range orphans {
		errs = append(errs, schema.FieldError{
			Path:    "conversation_flow." + id,
			Message: fmt.Sprintf("node is unreachable from %q", start),
		})
	}
	return errs
}

// checkConversion dry-runs the converter and validates its output, so
// a transcript that would produce a broken document is caught before
// anyone converts it for real.
func checkConversion(legacy domain.LegacyDocument, path string) []schema.FieldError {
	expertType := converter.InferExpertType(legacy, filepath.Base(path))
	doc := converter.New().Convert(legacy, expertType)
	return schema.ValidateConversation(doc).Errors
}
