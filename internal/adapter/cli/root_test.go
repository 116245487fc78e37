package cli_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/chatgate/internal/adapter/cli"
	"github.com/bkyoung/chatgate/internal/adapter/llm"
	llmhttp "github.com/bkyoung/chatgate/internal/adapter/llm/http"
	"github.com/bkyoung/chatgate/internal/domain"
	"github.com/bkyoung/chatgate/internal/usecase/budget"
	"github.com/bkyoung/chatgate/internal/usecase/chat"
	"github.com/bkyoung/chatgate/internal/usecase/tokeninfo"
)

type fakeChatService struct {
	lastRequest chat.Request
	events      []llm.StreamEvent
	models      []domain.ModelInfo
	err         error
}

func (f *fakeChatService) Run(ctx context.Context, req chat.Request) (chat.Result, error) {
	f.lastRequest = req
	if f.err != nil {
		return chat.Result{}, f.err
	}
	ch := make(chan llm.StreamEvent, len(f.events))
	for _, ev := range f.events {
		ch <- ev
	}
	close(ch)
	return chat.Result{Events: ch, Budget: budget.Decision{Allowed: req.HistoryLimit}}, nil
}

func (f *fakeChatService) Models(ctx context.Context, provider string) ([]domain.ModelInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.models, nil
}

type fakeTokenCache struct {
	infos map[string]tokeninfo.Info
}

func (f *fakeTokenCache) Fetch(ctx context.Context, address string) (tokeninfo.Info, bool) {
	info, ok := f.infos[address]
	return info, ok
}

func (f *fakeTokenCache) FetchMany(ctx context.Context, addresses []string) map[string]tokeninfo.Info {
	results := make(map[string]tokeninfo.Info)
	for _, a := range addresses {
		if info, ok := f.infos[a]; ok {
			results[a] = info
		}
	}
	return results
}

type fakeSecretStore struct {
	values map[string]string
}

func (f *fakeSecretStore) Get(ctx context.Context, name string) (string, bool, error) {
	v, ok := f.values[name]
	return v, ok, nil
}

func (f *fakeSecretStore) Set(ctx context.Context, name, value string) error {
	f.values[name] = value
	return nil
}

func (f *fakeSecretStore) Delete(ctx context.Context, name string) error {
	delete(f.values, name)
	return nil
}

func execute(deps cli.Dependencies, args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	deps.Args = cli.Arguments{OutWriter: &out, ErrWriter: &errOut}
	root := cli.NewRootCommand(deps)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRootCommand_Version(t *testing.T) {
	out, _, err := execute(cli.Dependencies{Version: "v1.2.3"}, "--version")

	assert.ErrorIs(t, err, cli.ErrVersionRequested)
	assert.Contains(t, out, "v1.2.3")
}

func TestRootCommand_DefaultVersion(t *testing.T) {
	out, _, err := execute(cli.Dependencies{}, "--version")

	assert.ErrorIs(t, err, cli.ErrVersionRequested)
	assert.Contains(t, out, "v0.0.0")
}

func TestChatCommand_StreamsDeltas(t *testing.T) {
	service := &fakeChatService{events: []llm.StreamEvent{
		{Type: llm.EventContentDelta, Delta: "Hello"},
		{Type: llm.EventContentDelta, Delta: " world"},
		{Type: llm.EventContentDelta, Delta: ""},
		{Type: llm.EventCompleted},
	}}

	out, _, err := execute(cli.Dependencies{Chat: service, DefaultProvider: "openai"},
		"chat", "say", "hello")

	require.NoError(t, err)
	assert.Equal(t, "Hello world\n", out)
	assert.Equal(t, "openai", service.lastRequest.Provider)
	assert.Equal(t, "say hello", service.lastRequest.Prompt)
	assert.True(t, service.lastRequest.Streaming)
}

func TestChatCommand_NoStream(t *testing.T) {
	service := &fakeChatService{events: []llm.StreamEvent{
		{Type: llm.EventContentDelta, Delta: "full reply"},
		{Type: llm.EventCompleted},
	}}

	_, _, err := execute(cli.Dependencies{Chat: service, DefaultProvider: "openai"},
		"chat", "--no-stream", "hi")

	require.NoError(t, err)
	assert.False(t, service.lastRequest.Streaming)
}

func TestChatCommand_FailureEventBecomesError(t *testing.T) {
	service := &fakeChatService{events: []llm.StreamEvent{
		{Type: llm.EventContentDelta, Delta: "partial"},
		{Type: llm.EventFailed, Err: llmhttp.NewAPIError("openai", "You exceeded your quota", 429)},
	}}

	_, _, err := execute(cli.Dependencies{Chat: service, DefaultProvider: "openai"},
		"chat", "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "You exceeded your quota")
}

func TestModelsCommand(t *testing.T) {
	service := &fakeChatService{models: []domain.ModelInfo{
		{ID: "gpt-4o", DisplayName: "Gpt 4o"},
		{ID: "gpt-4o-mini", DisplayName: "Gpt 4o Mini"},
	}}

	out, _, err := execute(cli.Dependencies{Chat: service, DefaultProvider: "openai"}, "models")

	require.NoError(t, err)
	assert.Contains(t, out, "gpt-4o\tGpt 4o")
	assert.Contains(t, out, "gpt-4o-mini\tGpt 4o Mini")
}

func TestModelsCommand_EmptyListing(t *testing.T) {
	service := &fakeChatService{}

	out, _, err := execute(cli.Dependencies{Chat: service, DefaultProvider: "anthropic"}, "models")

	require.NoError(t, err)
	assert.Contains(t, out, "no models advertised")
}

func TestTokenCommand_SingleAddress(t *testing.T) {
	cache := &fakeTokenCache{infos: map[string]tokeninfo.Info{
		"0xabc": {Name: "Example", Symbol: "EXM", ChainID: "solana", DexID: "raydium", PriceUSD: 1.23},
	}}

	out, _, err := execute(cli.Dependencies{Tokens: cache}, "token", "0xabc")

	require.NoError(t, err)
	assert.Contains(t, out, "Example (EXM)")
	assert.Contains(t, out, "solana/raydium")
}

func TestTokenCommand_UnknownAddress(t *testing.T) {
	cache := &fakeTokenCache{infos: map[string]tokeninfo.Info{}}

	_, _, err := execute(cli.Dependencies{Tokens: cache}, "token", "0xmissing")
	assert.Error(t, err)
}

func TestTokenCommand_PartialResults(t *testing.T) {
	cache := &fakeTokenCache{infos: map[string]tokeninfo.Info{
		"0xaaa": {Name: "A", Symbol: "AAA"},
	}}

	out, errOut, err := execute(cli.Dependencies{Tokens: cache}, "token", "0xaaa", "0xbad")

	require.NoError(t, err)
	assert.Contains(t, out, "A (AAA)")
	assert.Contains(t, errOut, "1 of 2 addresses resolved")
}

func TestKeyCommand_RoundTrip(t *testing.T) {
	store := &fakeSecretStore{values: make(map[string]string)}
	deps := cli.Dependencies{Secrets: store}

	_, _, err := execute(deps, "key", "set", "provider.openai.apiKey", "sk-test")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", store.values["provider.openai.apiKey"])

	// The stored value itself is never printed.
	out, _, err := execute(deps, "key", "get", "provider.openai.apiKey")
	require.NoError(t, err)
	assert.NotContains(t, out, "sk-test")
	assert.Contains(t, out, "stored")

	_, _, err = execute(deps, "key", "delete", "provider.openai.apiKey")
	require.NoError(t, err)

	_, _, err = execute(deps, "key", "get", "provider.openai.apiKey")
	assert.Error(t, err)
}

func TestKeyCommand_StoreDisabled(t *testing.T) {
	_, _, err := execute(cli.Dependencies{}, "key", "get", "anything")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}
