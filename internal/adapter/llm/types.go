// Package llm provides the provider-agnostic streaming completion client.
package llm

import (
	"github.com/bkyoung/chatgate/internal/domain"

	llmhttp "github.com/bkyoung/chatgate/internal/adapter/llm/http"
)

// EventType identifies the kind of a stream event.
type EventType int

const (
	// EventContentDelta carries an incremental piece of assistant output.
	EventContentDelta EventType = iota

	// EventCompleted is the successful terminal event.
	EventCompleted

	// EventFailed is the failure terminal event.
	EventFailed
)

// StreamEvent is one event in a completion stream. Every stream consists
// of zero or more content deltas followed by exactly one terminal event
// (Completed or Failed); nothing is delivered after the terminal event.
type StreamEvent struct {
	Type  EventType
	Delta string
	Err   *llmhttp.Error
}

// Adapter is the wire-format strategy implemented once per provider kind.
// All provider-specific branching lives behind this interface; the client
// itself never inspects the provider kind.
type Adapter interface {
	// Name returns the wire format name used in logs and errors.
	Name() string

	// ChatPath returns the completion endpoint path relative to the base URL.
	ChatPath() string

	// ModelsPath returns the model listing path, or "" when the wire
	// format has no listing endpoint.
	ModelsPath() string

	// BuildRequest serializes an ordered message list into a request body.
	// Adapters may reorder messages (e.g. hoisting a system message into a
	// side channel) but never duplicate or drop them.
	BuildRequest(model string, messages []domain.Message, stream bool) ([]byte, error)

	// AuthHeaders returns the authentication headers for the given key.
	AuthHeaders(apiKey string) map[string]string

	// ExtractDelta parses one stream event payload and returns its content
	// delta; payloads of any other shape yield ok=false.
	ExtractDelta(payload []byte) (string, bool)

	// ExtractContent parses a full non-streaming response body.
	ExtractContent(body []byte) (string, error)

	// ExtractAPIError parses the provider's error envelope, returning ""
	// when the body is not a recognizable envelope.
	ExtractAPIError(body []byte) string

	// ParseModels parses the model listing payload into sorted model ids.
	ParseModels(body []byte) ([]string, error)
}
