package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Backland-Labs/waitlist/internal/tools"
)

func newToolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the function definitions of the built-in tools",
		Long: `Print the function definitions of the built-in tools as JSON.

Register these on the remote assistant so its runs can ask for them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := tools.NewRegistry(tools.Builtins(tools.Collaborators{})...)
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(registry.FunctionDefinitions(), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode tool definitions: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}
