package anthropic

// MessagesRequest represents a request to an Anthropic-compatible
// messages endpoint.
type MessagesRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	System    string    `json:"system,omitempty"`
	MaxTokens int       `json:"max_tokens"`
	Stream    bool      `json:"stream,omitempty"`
}

// Message represents a message in the conversation.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// StreamEvent is one parsed streaming event payload. Only
// content_block_delta events carry text; every other type is skipped.
type StreamEvent struct {
	Type  string      `json:"type"`
	Delta StreamDelta `json:"delta"`
}

// StreamDelta is the incremental content of a content_block_delta event.
type StreamDelta struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// MessagesResponse represents a full non-streaming response.
type MessagesResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"` // "message"
	Role       string         `json:"role"` // "assistant"
	Content    []ContentBlock `json:"content"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
}

// ContentBlock represents a content block in the response.
type ContentBlock struct {
	Type string `json:"type"` // "text"
	Text string `json:"text"`
}

// ErrorResponse represents the provider's error envelope.
type ErrorResponse struct {
	Type  string      `json:"type"` // "error"
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
