package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func keyCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage stored provider credentials",
	}

	requireStore := func() error {
		if deps.Secrets == nil {
			return fmt.Errorf("the credential store is disabled")
		}
		return nil
	}

	setCmd := &cobra.Command{
		Use:   "set <name> <value>",
		Short: "Store a credential",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireStore(); err != nil {
				return err
			}
			return deps.Secrets.Set(cmd.Context(), args[0], args[1])
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Show whether a credential is stored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireStore(); err != nil {
				return err
			}
			// The value itself is never printed; only its presence.
			_, ok, err := deps.Secrets.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no credential stored under %q", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: stored\n", args[0])
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireStore(); err != nil {
				return err
			}
			return deps.Secrets.Delete(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(setCmd, getCmd, deleteCmd)
	return cmd
}
