package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bkyoung/chatgate/internal/adapter/llm"
	"github.com/bkyoung/chatgate/internal/usecase/chat"
)

func chatCommand(deps Dependencies) *cobra.Command {
	var (
		provider     string
		conversation string
		system       string
		historyLimit int
		noStream     bool
	)

	cmd := &cobra.Command{
		Use:   "chat [prompt]",
		Short: "Send a prompt and stream the completion",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Chat == nil {
				return fmt.Errorf("chat service is not configured")
			}

			result, err := deps.Chat.Run(cmd.Context(), chat.Request{
				Provider:     provider,
				Conversation: conversation,
				Prompt:       strings.Join(args, " "),
				SystemPrompt: system,
				HistoryLimit: historyLimit,
				Streaming:    !noStream,
			})
			if err != nil {
				return err
			}

			if result.Budget.Truncated && IsOutputTerminal() {
				fmt.Fprintln(cmd.ErrOrStderr(), result.Budget.Reason)
			}

			out := cmd.OutOrStdout()
			for ev := range result.Events {
				switch ev.Type {
				case llm.EventContentDelta:
					fmt.Fprint(out, ev.Delta)
				case llm.EventCompleted:
					fmt.Fprintln(out)
				case llm.EventFailed:
					return fmt.Errorf("%s", ev.Err.UserMessage())
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&provider, "provider", "p", deps.DefaultProvider, "Provider to use")
	cmd.Flags().StringVarP(&conversation, "conversation", "c", "", "Conversation id for history")
	cmd.Flags().StringVar(&system, "system", deps.DefaultSystemPrompt, "System prompt")
	cmd.Flags().IntVar(&historyLimit, "history", deps.DefaultHistoryLimit, "Max history messages to load")
	cmd.Flags().BoolVar(&noStream, "no-stream", false, "Wait for the full response instead of streaming")

	return cmd
}
