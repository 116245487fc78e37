package http

import "fmt"

// ErrorKind is the closed set of failure categories surfaced to callers.
// Errors never cross a component boundary as anything other than one of
// these kinds.
type ErrorKind int

const (
	// KindInvalidConfiguration means the provider config was rejected at
	// invocation time (missing base URL or model, or disabled by policy).
	KindInvalidConfiguration ErrorKind = iota

	// KindNetwork covers transport-level failures: DNS, connect, TLS,
	// timeouts, and mid-stream disconnects.
	KindNetwork

	// KindInvalidResponse means the provider closed the connection without
	// sending a single byte, or the envelope was unparseable.
	KindInvalidResponse

	// KindAPI means the provider returned a structured error of its own.
	KindAPI

	// KindDecoding means the transport succeeded but the payload had an
	// unrecognized shape.
	KindDecoding
)

// String returns a short description of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidConfiguration:
		return "invalid configuration"
	case KindNetwork:
		return "network error"
	case KindInvalidResponse:
		return "invalid response"
	case KindAPI:
		return "api error"
	case KindDecoding:
		return "decoding error"
	default:
		return "unknown error"
	}
}

// Error is a typed provider error with enough context for logging and
// retry decisions.
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Provider   string
	Retryable  bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s: %s (status: %d)", e.Provider, e.Kind.String(), e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind.String(), e.Message)
}

// Is matches errors by kind so callers can use errors.Is with a bare
// &Error{Kind: ...} sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// IsRetryable reports whether retrying the same request may succeed.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// UserMessage maps the error to a short string safe to show to a user.
// It never contains credentials, internal URLs, or stack traces.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindInvalidConfiguration:
		return "The provider is not configured. Check the endpoint, model, and API key."
	case KindNetwork:
		return "Could not reach the provider. Check your connection and try again."
	case KindInvalidResponse:
		return "The provider returned an empty or unreadable response."
	case KindAPI:
		return e.Message
	case KindDecoding:
		return "The provider response could not be decoded."
	default:
		return "An unexpected error occurred."
	}
}

// NewInvalidConfigurationError creates an invalid-configuration error.
func NewInvalidConfigurationError(provider, message string) *Error {
	return &Error{
		Kind:      KindInvalidConfiguration,
		Message:   message,
		Provider:  provider,
		Retryable: false,
	}
}

// NewNetworkError creates a transport-level error.
func NewNetworkError(provider, message string) *Error {
	return &Error{
		Kind:      KindNetwork,
		Message:   message,
		Provider:  provider,
		Retryable: true,
	}
}

// NewInvalidResponseError creates an empty/unparseable-response error.
func NewInvalidResponseError(provider string) *Error {
	return &Error{
		Kind:      KindInvalidResponse,
		Message:   "no response body received",
		Provider:  provider,
		Retryable: false,
	}
}

// NewAPIError creates an error from a provider's own error envelope.
// Rate-limit and server-side statuses are marked retryable.
func NewAPIError(provider, message string, statusCode int) *Error {
	return &Error{
		Kind:       KindAPI,
		Message:    message,
		StatusCode: statusCode,
		Provider:   provider,
		Retryable:  statusCode == 429 || statusCode >= 500,
	}
}

// NewDecodingError creates an unrecognized-shape error.
func NewDecodingError(provider, message string) *Error {
	return &Error{
		Kind:      KindDecoding,
		Message:   message,
		Provider:  provider,
		Retryable: false,
	}
}
