// Package cli wires the gateway services into the cg command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bkyoung/chatgate/internal/domain"
	"github.com/bkyoung/chatgate/internal/usecase/chat"
	"github.com/bkyoung/chatgate/internal/usecase/tokeninfo"
)

// ErrVersionRequested indicates the user requested the CLI version and no
// further work should be done.
var ErrVersionRequested = errors.New("version requested")

// ChatService defines the dependency required to run the chat and models
// commands.
type ChatService interface {
	Run(ctx context.Context, req chat.Request) (chat.Result, error)
	Models(ctx context.Context, provider string) ([]domain.ModelInfo, error)
}

// TokenCache defines the dependency required to run the token command.
type TokenCache interface {
	Fetch(ctx context.Context, address string) (tokeninfo.Info, bool)
	FetchMany(ctx context.Context, addresses []string) map[string]tokeninfo.Info
}

// SecretStore defines the dependency required to run the key command.
type SecretStore interface {
	Get(ctx context.Context, name string) (string, bool, error)
	Set(ctx context.Context, name, value string) error
	Delete(ctx context.Context, name string) error
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Chat    ChatService
	Tokens  TokenCache
	Secrets SecretStore
	Args    Arguments

	DefaultProvider     string
	DefaultSystemPrompt string
	DefaultHistoryLimit int
	Version             string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "cg",
		Short: "Chat gateway CLI",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(chatCommand(deps))
	root.AddCommand(modelsCommand(deps))
	root.AddCommand(tokenCommand(deps))
	root.AddCommand(keyCommand(deps))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}
