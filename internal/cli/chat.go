package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Backland-Labs/waitlist/internal/articles"
	"github.com/Backland-Labs/waitlist/internal/assistant"
	"github.com/Backland-Labs/waitlist/internal/chat"
	"github.com/Backland-Labs/waitlist/internal/config"
	"github.com/Backland-Labs/waitlist/internal/logger"
	"github.com/Backland-Labs/waitlist/internal/output"
	"github.com/Backland-Labs/waitlist/internal/subscribe"
	"github.com/Backland-Labs/waitlist/internal/tools"
)

func newChatCommand(deps *Dependencies, load configFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long: `Start an interactive conversation with the assistant.

Type a message and press enter. Type /new to start over on a fresh thread.
End the conversation with Ctrl-D or Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			session, closeSession, err := newChatSession(cfg, deps.Printer)
			if err != nil {
				return err
			}
			defer closeSession()

			ctx, cancel := withInterrupt(cmd.Context(), func() {
				deps.Printer.Warning("\nInterrupt received, ending the conversation...")
			})
			defer cancel()

			deps.Printer.Info("Connected to %s. Type /new for a fresh conversation.", cfg.APIURL)
			err = session.Run(ctx, deps.Stdin)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func newSendCommand(deps *Dependencies, load configFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "send <message>",
		Short: "Send one message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return fmt.Errorf("message cannot be empty")
			}

			cfg, err := load()
			if err != nil {
				return err
			}

			session, closeSession, err := newChatSession(cfg, deps.Printer)
			if err != nil {
				return err
			}
			defer closeSession()

			ctx, cancel := withInterrupt(cmd.Context(), nil)
			defer cancel()

			if err := session.Start(ctx); err != nil {
				return err
			}
			return session.Send(ctx, text)
		},
	}
}

// newChatSession wires the run controller, the built-in tools and the
// terminal presenter. The returned func releases the subscriber store.
func newChatSession(cfg *config.Config, printer *output.Printer) (*chat.Session, func(), error) {
	if err := cfg.RequireAssistant(); err != nil {
		return nil, nil, err
	}

	transport, err := assistant.NewHTTPTransport(cfg.APIURL, cfg.HTTPTimeout)
	if err != nil {
		return nil, nil, err
	}
	controller, err := assistant.NewController(transport, cfg.AssistantID, assistant.WithPollInterval(cfg.PollInterval))
	if err != nil {
		return nil, nil, err
	}

	catalog := articles.DefaultCatalog()
	if cfg.ArticlesFile != "" {
		if catalog, err = articles.LoadCatalog(cfg.ArticlesFile); err != nil {
			return nil, nil, err
		}
	}

	ranker, err := articles.NewOpenAIRanker(cfg.Ranker.BaseURL, cfg.Ranker.APIKey, cfg.Ranker.Model)
	if err != nil {
		return nil, nil, err
	}

	subscriber, closeSubscriber, err := newSubscriber(cfg)
	if err != nil {
		return nil, nil, err
	}

	presenter := chat.NewTerminalPresenter(printer)
	registry, err := tools.NewRegistry(tools.Builtins(tools.Collaborators{
		Subscriber:  subscriber,
		Highlighter: presenter,
		Ranker:      ranker,
		Catalog:     catalog,
		Presenter:   presenter,
	})...)
	if err != nil {
		closeSubscriber()
		return nil, nil, err
	}

	logger.WithFields(map[string]interface{}{
		"api_url":      cfg.APIURL,
		"env":          string(cfg.Env),
		"assistant_id": cfg.AssistantID,
		"articles":     catalog.Len(),
	}).Debug("Chat session configured")

	return chat.NewSession(controller, registry, presenter, 0), closeSubscriber, nil
}

// newSubscriber stores signups in the local SQLite file in development and
// posts them to the backend otherwise
func newSubscriber(cfg *config.Config) (tools.Subscriber, func(), error) {
	if cfg.IsDevelopment() {
		sink, err := subscribe.OpenSQLite(cfg.SubscribersDB)
		if err != nil {
			return nil, nil, err
		}
		return sink, func() { _ = sink.Close() }, nil
	}
	return subscribe.NewClient(cfg.APIURL, cfg.HTTPTimeout), func() {}, nil
}
