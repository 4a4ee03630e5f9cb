package cli

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Backland-Labs/waitlist/internal/devserver"
	"github.com/Backland-Labs/waitlist/internal/logger"
	"github.com/Backland-Labs/waitlist/internal/subscribe"
)

type devServerFlags struct {
	port int
	db   string
}

func newDevServerCommand(load configFunc) *cobra.Command {
	flags := &devServerFlags{}

	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run a local fake of the assistant backend",
		Long: `Run an in-memory fake of the assistant backend for development.

The fake serves threads, messages and runs. Runs ask for validate_email when a
message contains an email address and for highlight_care_terms and
recommend_articles when it mentions care topics. Subscribers are stored in a
local SQLite file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			port := cfg.DevServer.Port
			if cmd.Flags().Changed("port") {
				port = flags.port
			}
			db := cfg.SubscribersDB
			if flags.db != "" {
				db = flags.db
			}

			sink, err := subscribe.OpenSQLite(db)
			if err != nil {
				return err
			}
			defer func() { _ = sink.Close() }()

			ctx, cancel := withInterrupt(cmd.Context(), func() {
				logger.Info("Interrupt received, shutting down dev server")
			})
			defer cancel()

			srv := devserver.NewServer(port, devserver.NewBackend(devserver.ScriptedAssistant{}), sink)

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start(ctx)
			}()

			for srv.Address() == "" {
				select {
				case err := <-errCh:
					return ignoreServerClosed(err)
				case <-time.After(10 * time.Millisecond):
				}
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Dev server listening on http://%s (subscribers in %s)\n", srv.Address(), db)

			return ignoreServerClosed(<-errCh)
		},
	}

	cmd.Flags().IntVarP(&flags.port, "port", "p", 3000, "Port to run the dev server on")
	cmd.Flags().StringVar(&flags.db, "db", "", "SQLite file for subscribers (default from WAITLIST_SUBSCRIBERS_DB)")

	return cmd
}

func newSubscribersCommand(load configFunc) *cobra.Command {
	var db string

	cmd := &cobra.Command{
		Use:   "subscribers",
		Short: "List subscribers stored by the dev server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if db == "" {
				db = cfg.SubscribersDB
			}

			sink, err := subscribe.OpenSQLite(db)
			if err != nil {
				return err
			}
			defer func() { _ = sink.Close() }()

			subs, err := sink.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(subs) == 0 {
				_, err = fmt.Fprintln(out, "No subscribers yet")
				return err
			}
			for _, s := range subs {
				if _, err := fmt.Fprintf(out, "%s\t%s\n", s.Email, s.CreatedAt.Format(time.RFC3339)); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&db, "db", "", "SQLite file for subscribers (default from WAITLIST_SUBSCRIBERS_DB)")

	return cmd
}

func ignoreServerClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
