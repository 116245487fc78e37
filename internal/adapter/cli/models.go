package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func modelsCommand(deps Dependencies) *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models advertised by a provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Chat == nil {
				return fmt.Errorf("chat service is not configured")
			}

			models, err := deps.Chat.Models(cmd.Context(), provider)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(models) == 0 {
				fmt.Fprintln(out, "no models advertised")
				return nil
			}
			for _, m := range models {
				fmt.Fprintf(out, "%s\t%s\n", m.ID, m.DisplayName)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&provider, "provider", "p", deps.DefaultProvider, "Provider to query")

	return cmd
}
