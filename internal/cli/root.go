// Package cli implements the waitlist command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Backland-Labs/waitlist/internal/config"
	"github.com/Backland-Labs/waitlist/internal/logger"
)

const version = "0.1.0"

// Execute runs the CLI
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand creates the root command with production dependencies
func NewRootCommand() *cobra.Command {
	return newRootCommand(NewRealDependencies())
}

func newRootCommand(deps *Dependencies) *cobra.Command {
	var showVersion bool
	var local bool

	cmd := &cobra.Command{
		Use:   "waitlist",
		Short: "Waitlist - chat with the caregiving assistant from your terminal",
		Long: `Waitlist - chat with the caregiving assistant from your terminal

Waitlist talks to the assistant backend: it sends your messages, answers the
tools the assistant asks for (email signup, care term highlighting, article
recommendations) and prints the replies.

Examples:
  waitlist chat
  waitlist send "My dad just moved in with us"
  waitlist --local devserver
  waitlist --local chat`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "waitlist version "+version)
				return err
			}
			return cmd.Help()
		},
	}

	cmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Show version information")
	cmd.PersistentFlags().BoolVar(&local, "local", false, "Use the local development backend")

	load := func() (*config.Config, error) {
		cfg, err := deps.ConfigLoader.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if local {
			cfg.UseLocalBackend()
		}
		logger.InitializeFromConfig(cfg)
		return cfg, nil
	}

	cmd.AddCommand(
		newChatCommand(deps, load),
		newSendCommand(deps, load),
		newToolsCommand(),
		newDevServerCommand(load),
		newSubscribersCommand(load),
		newVersionCommand(),
	)

	return cmd
}

type configFunc func() (*config.Config, error)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "waitlist version "+version)
			return err
		},
	}
}

// withInterrupt returns a context canceled on SIGINT or SIGTERM
func withInterrupt(parent context.Context, onSignal func()) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			if onSignal != nil {
				onSignal()
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
