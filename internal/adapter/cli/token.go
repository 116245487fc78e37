package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/bkyoung/chatgate/internal/usecase/tokeninfo"
)

func tokenCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <address> [address...]",
		Short: "Look up market data for token addresses",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Tokens == nil {
				return fmt.Errorf("token lookup is not configured")
			}

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				info, ok := deps.Tokens.Fetch(cmd.Context(), args[0])
				if !ok {
					return fmt.Errorf("no data for %s", args[0])
				}
				printToken(out, info)
				return nil
			}

			results := deps.Tokens.FetchMany(cmd.Context(), args)
			keys := make([]string, 0, len(results))
			for key := range results {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				printToken(out, results[key])
			}
			if len(results) < len(args) {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d addresses resolved\n", len(results), len(args))
			}
			return nil
		},
	}

	return cmd
}

func printToken(out io.Writer, info tokeninfo.Info) {
	fmt.Fprintf(out, "%s (%s) on %s/%s\n", info.Name, info.Symbol, info.ChainID, info.DexID)
	fmt.Fprintf(out, "  price: $%.8g  24h: %+.2f%%  volume: $%.8g\n", info.PriceUSD, info.PriceChange24h, info.Volume24h)
	fmt.Fprintf(out, "  mcap: $%.8g  fdv: $%.8g\n", info.MarketCap, info.FDV)
}
