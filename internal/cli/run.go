// Package cli implements the interactive conversation session and the
// shared plumbing behind the command-line entry points.
package cli

import (
	"fmt"

	"github.com/aretw0/espalier/internal/config"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	TreePath   string
	ExpertType string
	Model      string
	ResumeID   string
	NoModel    bool
	Debug      bool

	Config config.Config
}

// Execute handles the run command logic. With no tree file and no
// resume ID the built-in template is used, which needs an expert type.
func Execute(opts RunOptions) error {
	if opts.TreePath == "" && opts.ResumeID == "" && opts.ExpertType == "" {
		return fmt.Errorf("a tree file, --resume ID, or --expert type is required")
	}
	return RunSession(opts)
}
