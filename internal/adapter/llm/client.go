package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bkyoung/chatgate/internal/domain"

	"github.com/bkyoung/chatgate/internal/adapter/llm/anthropic"
	llmhttp "github.com/bkyoung/chatgate/internal/adapter/llm/http"
	"github.com/bkyoung/chatgate/internal/adapter/llm/openai"
)

const (
	// defaultCallTimeout bounds non-streaming calls. Streaming requests
	// are bounded only by the caller's context, since generation can
	// legitimately run long.
	defaultCallTimeout = 60 * time.Second

	// maxErrorBody caps how much of an error response is read when
	// looking for the provider's error envelope.
	maxErrorBody = 1 << 20
)

// Client issues chat completion requests against a single configured
// provider and delivers a uniform event stream regardless of wire format.
// A Client is safe for concurrent use; each request runs in its own
// goroutine and all waiting is event-driven.
type Client struct {
	provider domain.Provider
	adapter  Adapter
	client   *http.Client
	logger   llmhttp.Logger
	retry    llmhttp.RetryConfig
	timeout  time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the structured logger for API calls.
func WithLogger(logger llmhttp.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithTimeout sets the timeout for non-streaming calls.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithRetryConfig sets the retry policy for non-streaming calls.
func WithRetryConfig(cfg llmhttp.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithHTTPClient replaces the underlying HTTP client (for testing).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.client = client }
}

// NewClient creates a client for the given provider. The wire adapter is
// selected once from the provider kind; Custom endpoints speak the
// OpenAI-compatible format, which is the de facto standard for
// self-hosted servers.
func NewClient(provider domain.Provider, opts ...Option) *Client {
	var adapter Adapter
	switch provider.Kind {
	case domain.ProviderAnthropicCompatible:
		adapter = anthropic.New()
	default:
		adapter = openai.New()
	}

	c := &Client{
		provider: provider,
		adapter:  adapter,
		client:   &http.Client{},
		retry:    llmhttp.DefaultRetryConfig(),
		timeout:  defaultCallTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider returns the provider configuration this client was built for.
func (c *Client) Provider() domain.Provider {
	return c.provider
}

// Stream issues a streaming completion request. The returned channel
// delivers zero or more content deltas followed by exactly one terminal
// event, then closes. Cancelling the context stops delivery and releases
// the underlying connection; no events are delivered after cancellation.
//
// The caller must drain the channel or cancel the context. A channel
// that is abandoned while the context stays live blocks the producing
// goroutine once the buffer fills.
func (c *Client) Stream(ctx context.Context, messages []domain.Message) <-chan StreamEvent {
	events := make(chan StreamEvent, 16)
	go func() {
		defer close(events)
		c.run(ctx, messages, true, events)
	}()
	return events
}

// Complete issues a non-streaming completion request, delivered through
// the same event interface: one content delta with the full text, then
// Completed. The drain-or-cancel contract of Stream applies here too.
func (c *Client) Complete(ctx context.Context, messages []domain.Message) <-chan StreamEvent {
	events := make(chan StreamEvent, 4)
	go func() {
		defer close(events)
		c.run(ctx, messages, false, events)
	}()
	return events
}

func (c *Client) run(ctx context.Context, messages []domain.Message, streaming bool, events chan<- StreamEvent) {
	start := time.Now()

	emit := func(ev StreamEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	fail := func(err *llmhttp.Error) {
		if c.logger != nil {
			c.logger.LogError(ctx, llmhttp.ErrorLog{
				Provider:   c.adapter.Name(),
				Model:      c.provider.Model,
				Timestamp:  time.Now(),
				Duration:   time.Since(start),
				Error:      err,
				Kind:       err.Kind,
				StatusCode: err.StatusCode,
			})
		}
		emit(StreamEvent{Type: EventFailed, Err: err})
	}

	// Config is validated at invocation time, not construction time, so a
	// client built before configuration settles still fails cleanly.
	if !c.provider.Enabled {
		fail(llmhttp.NewInvalidConfigurationError(c.adapter.Name(), "provider is disabled"))
		return
	}
	if !c.provider.Valid() {
		fail(llmhttp.NewInvalidConfigurationError(c.adapter.Name(), "base URL and model are required"))
		return
	}

	body, err := c.adapter.BuildRequest(c.provider.Model, messages, streaming)
	if err != nil {
		fail(llmhttp.NewDecodingError(c.adapter.Name(), err.Error()))
		return
	}

	if c.logger != nil {
		c.logger.LogRequest(ctx, llmhttp.RequestLog{
			Provider:  c.adapter.Name(),
			Model:     c.provider.Model,
			Timestamp: start,
			Messages:  len(messages),
			Streaming: streaming,
			APIKey:    c.provider.APIKey,
		})
	}

	if streaming {
		c.runStream(ctx, body, start, emit, fail)
		return
	}
	c.runComplete(ctx, body, start, emit, fail)
}

// runStream drives one streaming request through the decoder state
// machine. The response body is released exactly once, at the point the
// terminal event is produced, on every exit path.
func (c *Client) runStream(ctx context.Context, body []byte, start time.Time, emit func(StreamEvent) bool, fail func(*llmhttp.Error)) {
	req, err := c.newRequest(ctx, http.MethodPost, c.provider.BaseURL+c.adapter.ChatPath(), body)
	if err != nil {
		fail(llmhttp.NewNetworkError(c.adapter.Name(), err.Error()))
		return
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		fail(llmhttp.NewNetworkError(c.adapter.Name(), err.Error()))
		return
	}

	release := sync.OnceFunc(func() { resp.Body.Close() })
	defer release()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		release()
		fail(c.apiError(resp.StatusCode, data))
		return
	}

	dec := newStreamDecoder(c.adapter, c.logger)
	buf := make([]byte, 4096)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if !dec.onData(ctx, buf[:n], emit) {
				release()
				return
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			release()
			if ctx.Err() != nil {
				return
			}
			fail(llmhttp.NewNetworkError(c.adapter.Name(), rerr.Error()))
			return
		}
	}
	release()

	if !dec.received {
		fail(llmhttp.NewInvalidResponseError(c.adapter.Name()))
		return
	}

	// Final empty delta lets subscribers flush partial render state before
	// the terminal event.
	if !emit(StreamEvent{Type: EventContentDelta, Delta: ""}) {
		return
	}
	if !emit(StreamEvent{Type: EventCompleted}) {
		return
	}

	if c.logger != nil {
		c.logger.LogResponse(ctx, llmhttp.ResponseLog{
			Provider:   c.adapter.Name(),
			Model:      c.provider.Model,
			Timestamp:  time.Now(),
			Duration:   time.Since(start),
			StatusCode: resp.StatusCode,
			Chars:      dec.chars,
			Deltas:     dec.deltas,
		})
	}
}

// runComplete performs the single request/response mode with retries.
func (c *Client) runComplete(ctx context.Context, body []byte, start time.Time, emit func(StreamEvent) bool, fail func(*llmhttp.Error)) {
	rctx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var text string
	var status int
	operation := func(ctx context.Context) error {
		req, err := c.newRequest(ctx, http.MethodPost, c.provider.BaseURL+c.adapter.ChatPath(), body)
		if err != nil {
			return llmhttp.NewNetworkError(c.adapter.Name(), err.Error())
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return llmhttp.NewNetworkError(c.adapter.Name(), err.Error())
		}
		defer resp.Body.Close()
		status = resp.StatusCode

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return llmhttp.NewNetworkError(c.adapter.Name(), err.Error())
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return c.apiError(resp.StatusCode, data)
		}
		if len(data) == 0 {
			return llmhttp.NewInvalidResponseError(c.adapter.Name())
		}

		text, err = c.adapter.ExtractContent(data)
		if err != nil {
			return llmhttp.NewDecodingError(c.adapter.Name(), err.Error())
		}
		return nil
	}

	if err := llmhttp.RetryWithBackoff(rctx, operation, c.retry); err != nil {
		if ctx.Err() != nil {
			return
		}
		fail(c.asTypedError(err))
		return
	}

	if !emit(StreamEvent{Type: EventContentDelta, Delta: text}) {
		return
	}
	if !emit(StreamEvent{Type: EventCompleted}) {
		return
	}

	if c.logger != nil {
		c.logger.LogResponse(ctx, llmhttp.ResponseLog{
			Provider:   c.adapter.Name(),
			Model:      c.provider.Model,
			Timestamp:  time.Now(),
			Duration:   time.Since(start),
			StatusCode: status,
			Chars:      len(text),
		})
	}
}

// FetchModels lists the models advertised by the provider. Wire formats
// without a listing endpoint yield an empty list, not an error. Results
// are sorted by id for determinism.
func (c *Client) FetchModels(ctx context.Context) ([]domain.ModelInfo, error) {
	path := c.adapter.ModelsPath()
	if path == "" {
		return []domain.ModelInfo{}, nil
	}
	if !c.provider.Valid() {
		return nil, llmhttp.NewInvalidConfigurationError(c.adapter.Name(), "base URL and model are required")
	}

	rctx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var ids []string
	operation := func(ctx context.Context) error {
		req, err := c.newRequest(ctx, http.MethodGet, c.provider.BaseURL+path, nil)
		if err != nil {
			return llmhttp.NewNetworkError(c.adapter.Name(), err.Error())
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return llmhttp.NewNetworkError(c.adapter.Name(), err.Error())
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return llmhttp.NewNetworkError(c.adapter.Name(), err.Error())
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return c.apiError(resp.StatusCode, data)
		}

		ids, err = c.adapter.ParseModels(data)
		if err != nil {
			return llmhttp.NewDecodingError(c.adapter.Name(), err.Error())
		}
		return nil
	}

	if err := llmhttp.RetryWithBackoff(rctx, operation, c.retry); err != nil {
		return nil, err
	}

	models := make([]domain.ModelInfo, 0, len(ids))
	for _, id := range ids {
		models = append(models, domain.ModelInfo{
			ID:          id,
			DisplayName: displayName(id),
		})
	}
	return models, nil
}

func (c *Client) newRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.adapter.AuthHeaders(c.provider.APIKey) {
		req.Header.Set(key, value)
	}
	return req, nil
}

func (c *Client) apiError(statusCode int, body []byte) *llmhttp.Error {
	message := c.adapter.ExtractAPIError(body)
	if message == "" {
		message = fmt.Sprintf("HTTP %d", statusCode)
	}
	return llmhttp.NewAPIError(c.adapter.Name(), message, statusCode)
}

func (c *Client) asTypedError(err error) *llmhttp.Error {
	if typed, ok := err.(*llmhttp.Error); ok {
		return typed
	}
	return llmhttp.NewNetworkError(c.adapter.Name(), err.Error())
}

// displayName derives a human-readable name from a model id, e.g.
// "gpt-4o-mini" becomes "Gpt 4o Mini".
func displayName(id string) string {
	return cases.Title(language.English, cases.NoLower).String(strings.ReplaceAll(id, "-", " "))
}
