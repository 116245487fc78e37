// Package anthropic implements the Anthropic-compatible wire format.
package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bkyoung/chatgate/internal/domain"
)

const (
	// The messages endpoint requires max_tokens explicitly; this is the
	// fixed default used for every request.
	defaultMaxTokens = 4096

	defaultAPIVersion = "2023-06-01"
)

// Adapter translates between domain messages and the Anthropic-compatible
// wire format. It is stateless; one instance serves any number of
// concurrent requests.
type Adapter struct{}

// New creates an Anthropic wire adapter.
func New() Adapter {
	return Adapter{}
}

// Name returns the wire format name used in logs and errors.
func (Adapter) Name() string {
	return "anthropic"
}

// ChatPath returns the completion endpoint path relative to the base URL.
func (Adapter) ChatPath() string {
	return "/messages"
}

// ModelsPath returns "" because this wire format has no model listing
// endpoint; callers get an empty list instead of an error.
func (Adapter) ModelsPath() string {
	return ""
}

// BuildRequest serializes an ordered message list into a request body.
// System-role messages are excluded from the messages array; the first
// one encountered becomes the top-level system field.
func (Adapter) BuildRequest(model string, messages []domain.Message, stream bool) ([]byte, error) {
	req := MessagesRequest{
		Model:     model,
		Messages:  make([]Message, 0, len(messages)),
		MaxTokens: defaultMaxTokens,
		Stream:    stream,
	}
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			if req.System == "" {
				req.System = m.Content
			}
			continue
		}
		req.Messages = append(req.Messages, Message{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return body, nil
}

// AuthHeaders returns the x-api-key and API-version headers.
func (Adapter) AuthHeaders(apiKey string) map[string]string {
	headers := map[string]string{
		"anthropic-version": defaultAPIVersion,
	}
	if apiKey != "" {
		headers["x-api-key"] = apiKey
	}
	return headers
}

// ExtractDelta parses one stream event payload and returns its content
// delta. Only content_block_delta events yield text; everything else
// (message_start, ping, content_block_stop, ...) yields ok=false.
func (Adapter) ExtractDelta(payload []byte) (string, bool) {
	var ev StreamEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return "", false
	}
	if ev.Type != "content_block_delta" || ev.Delta.Text == "" {
		return "", false
	}
	return ev.Delta.Text, true
}

// ExtractContent parses a full non-streaming response body and joins the
// text content blocks.
func (Adapter) ExtractContent(body []byte) (string, error) {
	var resp MessagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, ""), nil
}

// ExtractAPIError parses the provider's error envelope. It returns an
// empty string when the body is not a recognizable envelope.
func (Adapter) ExtractAPIError(body []byte) string {
	var resp ErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	return resp.Error.Message
}

// ParseModels is never reached because ModelsPath is empty; it exists to
// satisfy the wire adapter interface.
func (Adapter) ParseModels(body []byte) ([]string, error) {
	return nil, nil
}
