package budget

import (
	"fmt"
	"strings"
)

// DefaultWindowTokens is the conservative fallback when no pattern in the
// window table matches a model identifier.
const DefaultWindowTokens = 8192

// safetyMargin is the fraction of a context window available to history;
// the remainder is reserved for the response and per-request overhead.
const safetyMargin = 0.8

// Window maps a model-identifier substring to a context window size.
type Window struct {
	Pattern string
	Tokens  int
}

// DefaultWindows returns the built-in window table. Order matters: the
// table is scanned top to bottom and the first matching pattern wins, so
// more specific variants must precede their generic prefixes
// ("gpt-3.5-turbo-16k" before "gpt-3.5-turbo"). The table is
// configuration data and can be replaced wholesale from the config file.
func DefaultWindows() []Window {
	return []Window{
		{Pattern: "gpt-4o-mini", Tokens: 128000},
		{Pattern: "gpt-4o", Tokens: 128000},
		{Pattern: "gpt-4-turbo", Tokens: 128000},
		{Pattern: "gpt-4-32k", Tokens: 32768},
		{Pattern: "gpt-4.1", Tokens: 128000},
		{Pattern: "gpt-4", Tokens: 8192},
		{Pattern: "gpt-3.5-turbo-16k", Tokens: 16384},
		{Pattern: "gpt-3.5-turbo", Tokens: 4096},
		{Pattern: "o1-mini", Tokens: 128000},
		{Pattern: "o1", Tokens: 200000},
		{Pattern: "o3", Tokens: 200000},
		{Pattern: "claude-3-5", Tokens: 200000},
		{Pattern: "claude", Tokens: 200000},
		{Pattern: "gemini-1.5-pro", Tokens: 1000000},
		{Pattern: "gemini", Tokens: 32768},
		{Pattern: "llama-3.1", Tokens: 131072},
		{Pattern: "llama", Tokens: 8192},
		{Pattern: "mistral", Tokens: 32768},
		{Pattern: "deepseek", Tokens: 64000},
		{Pattern: "qwen", Tokens: 32768},
	}
}

// Decision is the outcome of one budgeting request. It is immutable once
// returned.
type Decision struct {
	Allowed   int
	Truncated bool
	Reason    string
}

// Calculator decides how many of the most-recent messages fit a model's
// context window. It holds only read-only state and is safe for
// concurrent use. It never returns an error; every call produces a
// best-effort decision.
type Calculator struct {
	windows   []Window
	estimator Estimator
}

// NewCalculator builds a calculator from an ordered window table and an
// estimator. Nil arguments select the built-in table and the heuristic
// estimator.
func NewCalculator(windows []Window, estimator Estimator) *Calculator {
	if len(windows) == 0 {
		windows = DefaultWindows()
	}
	if estimator == nil {
		estimator = HeuristicEstimator{}
	}
	return &Calculator{windows: windows, estimator: estimator}
}

// WindowSize returns the context window size for a model identifier via
// ordered substring matching, falling back to DefaultWindowTokens.
func (c *Calculator) WindowSize(model string) int {
	lowered := strings.ToLower(model)
	for _, w := range c.windows {
		if strings.Contains(lowered, w.Pattern) {
			return w.Tokens
		}
	}
	return DefaultWindowTokens
}

// EstimateTokens estimates the token count of the text.
func (c *Calculator) EstimateTokens(text string) int {
	return c.estimator.Estimate(text)
}

// MaxMessages decides how many of the requested messages can be sent to
// the model. When the estimated size fits within the safety margin the
// requested count passes through untouched; otherwise the count is scaled
// down by the average message size, clamped to at least 1 so a
// conversation can always proceed.
func (c *Calculator) MaxMessages(model, fullText string, requested int) Decision {
	window := c.WindowSize(model)
	budget := int(safetyMargin * float64(window))
	estimated := c.EstimateTokens(fullText)

	if estimated <= budget {
		return Decision{Allowed: requested}
	}

	divisor := requested
	if divisor < 1 {
		divisor = 1
	}
	perMessage := estimated / divisor
	if perMessage < 1 {
		perMessage = 1
	}

	allowed := budget / perMessage
	if requested >= 1 && allowed > requested {
		allowed = requested
	}
	if allowed < 1 {
		allowed = 1
	}

	return Decision{
		Allowed:   allowed,
		Truncated: true,
		Reason: fmt.Sprintf("history (~%d tokens) exceeds the %d-token context window for %s; keeping the %d most recent messages",
			estimated, window, model, allowed),
	}
}
