// Package openai implements the OpenAI-compatible wire format.
package openai

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/bkyoung/chatgate/internal/domain"
)

// Adapter translates between domain messages and the OpenAI-compatible
// wire format. It is stateless; one instance serves any number of
// concurrent requests.
type Adapter struct{}

// New creates an OpenAI wire adapter.
func New() Adapter {
	return Adapter{}
}

// Name returns the wire format name used in logs and errors.
func (Adapter) Name() string {
	return "openai"
}

// ChatPath returns the completion endpoint path relative to the base URL.
func (Adapter) ChatPath() string {
	return "/chat/completions"
}

// ModelsPath returns the model listing path relative to the base URL.
func (Adapter) ModelsPath() string {
	return "/models"
}

// BuildRequest serializes an ordered message list into a request body.
// A system message, if present, stays inline in its original position.
func (Adapter) BuildRequest(model string, messages []domain.Message, stream bool) ([]byte, error) {
	req := ChatCompletionRequest{
		Model:    model,
		Messages: make([]Message, 0, len(messages)),
		Stream:   stream,
	}
	for _, m := range messages {
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

// AuthHeaders returns the bearer-token authentication headers.
func (Adapter) AuthHeaders(apiKey string) map[string]string {
	if apiKey == "" {
		return nil
	}
	return map[string]string{
		"Authorization": "Bearer " + apiKey,
	}
}

// ExtractDelta parses one stream event payload and returns its content
// delta. Payloads of any other shape yield ok=false; they are not errors.
func (Adapter) ExtractDelta(payload []byte) (string, bool) {
	var chunk ChatCompletionChunk
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return "", false
	}
	if len(chunk.Choices) == 0 {
		return "", false
	}
	content := chunk.Choices[0].Delta.Content
	if content == "" {
		return "", false
	}
	return content, true
}

// ExtractContent parses a full non-streaming response body and returns
// the message content.
func (Adapter) ExtractContent(body []byte) (string, error) {
	var resp ChatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
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

// ParseModels parses the /models listing and returns model ids sorted
// for deterministic output.
func (Adapter) ParseModels(body []byte) ([]string, error) {
	var resp ModelsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse models response: %w", err)
	}
	ids := make([]string, 0, len(resp.Data))
	for _, m := range resp.Data {
		if m.ID != "" {
			ids = append(ids, m.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
