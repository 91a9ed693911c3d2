package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aretw0/espalier"
	fileAdapter "github.com/aretw0/espalier/internal/adapters/file"
	"github.com/aretw0/espalier/internal/converter"
	"github.com/aretw0/espalier/internal/presentation/tui"
	"github.com/aretw0/espalier/internal/runtime"
	"github.com/aretw0/espalier/pkg/adapters/ollama"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// RunSession executes one interactive conversation.
func RunSession(opts RunOptions) error {
	logger := createLogger(opts.Debug)
	printer := tui.NewPrinter()

	if isInteractive() {
		tui.PrintBanner(espalier.Version)
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	store := NewStore(opts.Config)

	// Resolve the model client first so expert-based recommendation can
	// ask the server what it has.
	var client ports.ModelClient
	model := opts.Model
	if model == "" {
		model = opts.Config.Model
	}
	if !opts.NoModel {
		oc := ollama.New(opts.Config.OllamaURL)
		if oc.IsAvailable(sigCtx) {
			client = oc
		} else {
			printer.Warn("Model server is not reachable; continuing without assistant replies.")
			logger.Warn("model server unavailable", "url", opts.Config.OllamaURL)
		}
	}

	var (
		conv       *espalier.Conversation
		expertType string
		docID      string
		err        error
	)

	if opts.ResumeID != "" {
		doc, loadErr := store.Load(sigCtx, opts.ResumeID)
		if loadErr != nil {
			if errors.Is(loadErr, domain.ErrConversationNotFound) {
				return fmt.Errorf("no stored conversation %q", opts.ResumeID)
			}
			return fmt.Errorf("failed to load conversation: %w", loadErr)
		}

		expertType = doc.Metadata.ExpertType
		if client != nil && model == "" {
			model = ollama.RecommendModel(sigCtx, client.(*ollama.Client), expertType)
		}

		eng, engErr := engineFor(doc.Tree(), opts, client, model, logger)
		if engErr != nil {
			return engErr
		}
		conv, err = eng.Resume(doc)
		if err != nil {
			return fmt.Errorf("failed to resume conversation: %w", err)
		}
		docID = opts.ResumeID
		if conv.Status() == runtime.StatusTerminated {
			printSystemMessage("'%s' already reached the end of its tree (%d turns).", opts.ResumeID, len(conv.Trace()))
			return nil
		}
		printSystemMessage("Resuming '%s' (%d turns so far).", opts.ResumeID, len(conv.Trace()))
	} else {
		var tree *domain.TreeDocument
		if opts.TreePath != "" {
			loaded, readErr := fileAdapter.ReadTree(opts.TreePath)
			if readErr != nil {
				return fmt.Errorf("failed to load tree: %w", readErr)
			}
			tree = loaded
		} else {
			// No template given: fall back to the built-in two-node flow.
			tree = converter.NewTreeDocument(opts.ExpertType, time.Now())
		}

		expertType = opts.ExpertType
		if expertType == "" {
			expertType = tree.Metadata.ExpertType
		}
		if expertType == "" {
			return fmt.Errorf("expert type is required (set --expert or metadata.expert_type)")
		}
		if client != nil && model == "" {
			model = ollama.RecommendModel(sigCtx, client.(*ollama.Client), expertType)
		}

		eng, engErr := engineFor(tree, opts, client, model, logger)
		if engErr != nil {
			return engErr
		}
		conv, err = eng.Start(expertType)
		if err != nil {
			return fmt.Errorf("failed to start conversation: %w", err)
		}
		docID = fileAdapter.DocumentID(expertType, time.Now())
	}

	if model != "" {
		printSystemMessage("Talking to %s expert (model: %s). Type 'help' for commands.", expertType, model)
	} else {
		printSystemMessage("Talking to %s expert. Type 'help' for commands.", expertType)
	}

	return conversationLoop(sigCtx, conv, store, docID, printer)
}

func engineFor(tree *domain.TreeDocument, opts RunOptions, client ports.ModelClient, model string, logger *slog.Logger) (*espalier.Engine, error) {
	engOpts := []espalier.Option{
		espalier.WithModelClient(client),
		espalier.WithModel(model),
		espalier.WithLogger(logger),
	}
	if opts.Config.StartNode != "" {
		engOpts = append(engOpts, espalier.WithStartNode(opts.Config.StartNode))
	}
	if opts.Config.MaxRetries > 0 {
		engOpts = append(engOpts, espalier.WithMaxRetries(opts.Config.MaxRetries))
	}
	if opts.Config.RetryDelay > 0 {
		engOpts = append(engOpts, espalier.WithRetryDelay(opts.Config.RetryDelay))
	}
	return espalier.NewFromDocument(tree, engOpts...)
}

func conversationLoop(ctx *SignalContext, conv *espalier.Conversation, store ports.ConversationStore, docID string, printer *tui.Printer) error {
	scanner := bufio.NewScanner(os.Stdin)

	for conv.Status() != runtime.StatusTerminated {
		node, err := conv.Present()
		if err != nil {
			return fmt.Errorf("failed to render question: %w", err)
		}
		printer.Question(node)

		fmt.Print("> ")
		if !scanner.Scan() {
			// EOF behaves like exit: save what we have and stop.
			if err := store.Save(ctx, docID, conv.Document()); err != nil {
				printer.Warn(fmt.Sprintf("Could not save conversation: %v", err))
			}
			break
		}
		if ctx.Err() != nil {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		outcome, err := conv.Respond(ctx, input)
		if err != nil {
			printer.Warn(fmt.Sprintf("Input rejected: %v", err))
			continue
		}

		switch outcome.Kind {
		case runtime.OutcomeHelp:
			printer.Info(runtime.HelpText)

		case runtime.OutcomeBack:
			printer.Info("Going back to the previous question.")

		case runtime.OutcomeSave:
			if err := store.Save(ctx, docID, conv.Document()); err != nil {
				printer.Warn(fmt.Sprintf("Save failed: %v", err))
			} else {
				printer.Success("Conversation saved as " + docID)
			}

		case runtime.OutcomeAdvance, runtime.OutcomeEnd:
			if outcome.Entry != nil && outcome.Entry.AssistantResponse != "" {
				printer.Reply(outcome.Entry.AssistantResponse, outcome.Reply.Fallback)
			}
			if outcome.Kind == runtime.OutcomeEnd {
				printer.Info("The conversation has reached its end.")
			}

		case runtime.OutcomeExit:
			printer.Info("Exiting the conversation.")
		}

		if outcome.Kind == runtime.OutcomeExit || outcome.Kind == runtime.OutcomeEnd {
			if err := store.Save(ctx, docID, conv.Document()); err != nil {
				printer.Warn(fmt.Sprintf("Could not save conversation: %v", err))
			} else {
				printer.Success("Conversation saved as " + docID)
			}
		}
	}

	if ctx.Signal() != nil {
		printSystemMessage("Interrupted (%s); saving conversation.", ctx.Signal())
		if err := store.Save(context.Background(), docID, conv.Document()); err != nil {
			printer.Warn(fmt.Sprintf("Could not save conversation: %v", err))
		}
	}

	return scanner.Err()
}
