package tui

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"

	"github.com/aretw0/espalier/pkg/domain"
)

// Printer writes conversation output with consistent colors.
type Printer struct {
	out     io.Writer
	profile termenv.Profile
	render  func(string) (string, error)
}

// NewPrinter creates a Printer for the current terminal.
func NewPrinter() *Printer {
	return &Printer{
		out:     os.Stdout,
		profile: termenv.ColorProfile(),
		render:  NewRenderer(),
	}
}

func (p *Printer) colored(s, hex string) termenv.Style {
	return termenv.String(s).Foreground(p.profile.Color(hex))
}

// Question prints the node's question and its options. Each option is
// labeled with its option_id, the same value the resolver matches on,
// so what the user sees is what they can type.
func (p *Printer) Question(node *domain.Node) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.colored(node.Question, "#22d3ee").Bold())
	for _, opt := range node.Options {
		fmt.Fprintf(p.out, "  %s %s\n",
			p.colored(opt.OptionID+".", "#4ade80"),
			opt.Text,
		)
	}
	fmt.Fprintln(p.out)
}

// Reply prints an assistant reply, rendered as markdown when possible.
// Fallback replies are dimmed so they read as a status, not an answer.
func (p *Printer) Reply(text string, fallback bool) {
	if fallback {
		fmt.Fprintln(p.out, p.colored(text, "#94a3b8").Italic())
		return
	}
	if rendered, err := p.render(text); err == nil {
		fmt.Fprint(p.out, rendered)
	} else {
		fmt.Fprintln(p.out, text)
	}
}

// Info prints a neutral status line.
func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.out, p.colored(msg, "#94a3b8"))
}

// Success prints a confirmation line.
func (p *Printer) Success(msg string) {
	fmt.Fprintln(p.out, p.colored(msg, "#4ade80"))
}

// Warn prints a warning line.
func (p *Printer) Warn(msg string) {
	fmt.Fprintln(p.out, p.colored(msg, "#facc15"))
}
