package openai

// ChatCompletionRequest represents a request to an OpenAI-compatible
// chat completions endpoint.
type ChatCompletionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// Message represents a message in the conversation.
type Message struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// ChatCompletionChunk is one parsed streaming event payload.
type ChatCompletionChunk struct {
	Choices []ChunkChoice `json:"choices"`
}

// ChunkChoice carries the incremental delta for one choice.
type ChunkChoice struct {
	Index int   `json:"index"`
	Delta Delta `json:"delta"`
}

// Delta is the incremental content of a streaming chunk.
type Delta struct {
	Content string `json:"content"`
}

// ChatCompletionResponse represents a full non-streaming response.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

// Choice is one completion alternative in a non-streaming response.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// ModelsResponse represents the /models listing payload.
type ModelsResponse struct {
	Data []ModelEntry `json:"data"`
}

// ModelEntry is one model in the listing.
type ModelEntry struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by,omitempty"`
}

// ErrorResponse represents the provider's error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
}
