package http

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Logger provides structured logging for provider API calls.
type Logger interface {
	// LogRequest logs an outgoing API request (API key redacted)
	LogRequest(ctx context.Context, req RequestLog)

	// LogResponse logs an API response with timing info
	LogResponse(ctx context.Context, resp ResponseLog)

	// LogError logs an API error
	LogError(ctx context.Context, err ErrorLog)

	// LogDiscard logs a stream line that was skipped because it could not
	// be parsed. Malformed lines never fail the stream; they only show up
	// at debug level.
	LogDiscard(ctx context.Context, d DiscardLog)
}

// RequestLog contains request information for logging.
type RequestLog struct {
	Provider  string
	Model     string
	Timestamp time.Time
	Messages  int // Number of chat messages in the request
	Streaming bool
	APIKey    string // Will be redacted to last 4 chars
}

// ResponseLog contains response information for logging.
type ResponseLog struct {
	Provider   string
	Model      string
	Timestamp  time.Time
	Duration   time.Duration
	StatusCode int
	Chars      int // Characters of content delivered
	Deltas     int // Number of content deltas (0 for non-streaming)
}

// ErrorLog contains error information for logging.
type ErrorLog struct {
	Provider   string
	Model      string
	Timestamp  time.Time
	Duration   time.Duration
	Error      error
	Kind       ErrorKind
	StatusCode int
}

// DiscardLog describes a skipped stream line.
type DiscardLog struct {
	Provider string
	Line     string
}

// LogLevel defines the logging verbosity level.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelError
)

// LogFormat defines the output format for logs.
type LogFormat int

const (
	LogFormatHuman LogFormat = iota
	LogFormatJSON
)

// DefaultLogger writes logs in structured format to the process log.
type DefaultLogger struct {
	level      LogLevel
	redactKeys bool
	format     LogFormat
}

// NewDefaultLogger creates a logger with the specified config.
func NewDefaultLogger(level LogLevel, format LogFormat, redactKeys bool) *DefaultLogger {
	return &DefaultLogger{
		level:      level,
		redactKeys: redactKeys,
		format:     format,
	}
}

// LogRequest logs an API request.
func (l *DefaultLogger) LogRequest(ctx context.Context, req RequestLog) {
	if l.level > LogLevelDebug {
		return
	}

	redacted := l.RedactAPIKey(req.APIKey)

	if l.format == LogFormatJSON {
		log.Printf(`{"level":"debug","type":"request","provider":"%s","model":"%s","timestamp":"%s","messages":%d,"streaming":%t,"api_key":"%s"}`,
			req.Provider, req.Model, req.Timestamp.Format(time.RFC3339),
			req.Messages, req.Streaming, redacted)
	} else {
		log.Printf("[DEBUG] %s/%s: Request sent (messages=%d, streaming=%t, key=%s)",
			req.Provider, req.Model, req.Messages, req.Streaming, redacted)
	}
}

// LogResponse logs an API response.
func (l *DefaultLogger) LogResponse(ctx context.Context, resp ResponseLog) {
	if l.level > LogLevelInfo {
		return
	}

	if l.format == LogFormatJSON {
		log.Printf(`{"level":"info","type":"response","provider":"%s","model":"%s","timestamp":"%s","duration_ms":%d,"status_code":%d,"chars":%d,"deltas":%d}`,
			resp.Provider, resp.Model, resp.Timestamp.Format(time.RFC3339),
			resp.Duration.Milliseconds(), resp.StatusCode, resp.Chars, resp.Deltas)
	} else {
		log.Printf("[INFO] %s/%s: Response received (duration=%.1fs, chars=%d, deltas=%d)",
			resp.Provider, resp.Model, resp.Duration.Seconds(), resp.Chars, resp.Deltas)
	}
}

// LogError logs an API error.
func (l *DefaultLogger) LogError(ctx context.Context, err ErrorLog) {
	if l.level > LogLevelError {
		return
	}

	if l.format == LogFormatJSON {
		log.Printf(`{"level":"error","type":"error","provider":"%s","model":"%s","timestamp":"%s","duration_ms":%d,"error":"%s","kind":"%s","status_code":%d}`,
			err.Provider, err.Model, err.Timestamp.Format(time.RFC3339),
			err.Duration.Milliseconds(), err.Error.Error(), err.Kind.String(), err.StatusCode)
	} else {
		log.Printf("[ERROR] %s/%s: API call failed (%s, status=%d): %v",
			err.Provider, err.Model, err.Kind.String(), err.StatusCode, err.Error)
	}
}

// LogDiscard logs a skipped stream line at debug level.
func (l *DefaultLogger) LogDiscard(ctx context.Context, d DiscardLog) {
	if l.level > LogLevelDebug {
		return
	}

	line := d.Line
	if len(line) > 120 {
		line = line[:120] + "..."
	}

	if l.format == LogFormatJSON {
		log.Printf(`{"level":"debug","type":"discard","provider":"%s","line":%q}`, d.Provider, line)
	} else {
		log.Printf("[DEBUG] %s: Discarded unparseable stream line: %q", d.Provider, line)
	}
}

// RedactAPIKey shows only the last 4 characters of an API key with explicit
// redaction markers.
func (l *DefaultLogger) RedactAPIKey(key string) string {
	if !l.redactKeys {
		return key
	}
	if len(key) <= 4 {
		return "[REDACTED]"
	}
	return fmt.Sprintf("[REDACTED-%s]", key[len(key)-4:])
}
