package budget_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bkyoung/chatgate/internal/usecase/budget"
)

// fixedEstimator reports a constant token count regardless of input.
type fixedEstimator struct {
	tokens int
}

func (f fixedEstimator) Estimate(text string) int {
	return f.tokens
}

func TestWindowSize(t *testing.T) {
	calc := budget.NewCalculator(nil, nil)

	tests := []struct {
		name  string
		model string
		want  int
	}{
		{
			name:  "known model",
			model: "gpt-4o-mini",
			want:  128000,
		},
		{
			name:  "matching is case insensitive",
			model: "GPT-4O-MINI",
			want:  128000,
		},
		{
			name:  "specific variant wins over generic prefix",
			model: "gpt-3.5-turbo-16k",
			want:  16384,
		},
		{
			name:  "generic prefix still matches",
			model: "gpt-3.5-turbo",
			want:  4096,
		},
		{
			name:  "versioned id matches by substring",
			model: "claude-3-5-sonnet-20241022",
			want:  200000,
		},
		{
			name:  "unknown model falls back to default",
			model: "some-local-model",
			want:  budget.DefaultWindowTokens,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calc.WindowSize(tt.model))
		})
	}
}

func TestWindowSize_CustomTable(t *testing.T) {
	calc := budget.NewCalculator([]budget.Window{
		{Pattern: "mymodel-large", Tokens: 65536},
		{Pattern: "mymodel", Tokens: 4096},
	}, nil)

	assert.Equal(t, 65536, calc.WindowSize("mymodel-large-v2"))
	assert.Equal(t, 4096, calc.WindowSize("mymodel-v2"))
	assert.Equal(t, budget.DefaultWindowTokens, calc.WindowSize("gpt-4o-mini"))
}

func TestMaxMessages_FitsWithinBudget(t *testing.T) {
	calc := budget.NewCalculator(nil, fixedEstimator{tokens: 1000})

	decision := calc.MaxMessages("gpt-4o-mini", "whatever", 40)

	assert.Equal(t, 40, decision.Allowed)
	assert.False(t, decision.Truncated)
	assert.Empty(t, decision.Reason)
}

func TestMaxMessages_ScalesDownByAverageMessageSize(t *testing.T) {
	// 128000-token window, 102400 usable; 200000 estimated over 500
	// messages averages 400 tokens each, so 256 fit.
	calc := budget.NewCalculator(nil, fixedEstimator{tokens: 200000})

	decision := calc.MaxMessages("gpt-4o-mini", "whatever", 500)

	assert.Equal(t, 256, decision.Allowed)
	assert.True(t, decision.Truncated)
	assert.Contains(t, decision.Reason, "gpt-4o-mini")
}

func TestMaxMessages_NeverBelowOne(t *testing.T) {
	// A single enormous message still passes through so the conversation
	// can proceed.
	calc := budget.NewCalculator(nil, fixedEstimator{tokens: 10_000_000})

	decision := calc.MaxMessages("gpt-4o-mini", "whatever", 3)

	assert.Equal(t, 1, decision.Allowed)
	assert.True(t, decision.Truncated)
}

func TestMaxMessages_ZeroRequested(t *testing.T) {
	calc := budget.NewCalculator(nil, fixedEstimator{tokens: 10_000_000})

	decision := calc.MaxMessages("gpt-4o-mini", "whatever", 0)

	assert.Equal(t, 1, decision.Allowed)
}

func TestMaxMessages_NeverExceedsRequested(t *testing.T) {
	calc := budget.NewCalculator(nil, nil)

	for _, requested := range []int{1, 5, 50, 500} {
		decision := calc.MaxMessages("gpt-4o-mini", "short text", requested)
		assert.LessOrEqual(t, decision.Allowed, requested)
	}
}

func TestMaxMessages_AllowedNonIncreasingInEstimate(t *testing.T) {
	previous := 500
	for estimate := 100_000; estimate <= 1_000_000; estimate += 100_000 {
		calc := budget.NewCalculator(nil, fixedEstimator{tokens: estimate})
		decision := calc.MaxMessages("gpt-4o-mini", "whatever", 500)

		assert.LessOrEqual(t, decision.Allowed, previous)
		assert.GreaterOrEqual(t, decision.Allowed, 1)
		previous = decision.Allowed
	}
}

func TestMaxMessages_HeuristicEndToEnd(t *testing.T) {
	// Real estimator over a genuinely oversized history for a small window.
	calc := budget.NewCalculator(nil, nil)

	history := strings.Repeat("this is one line of conversation history\n", 2000)
	decision := calc.MaxMessages("gpt-3.5-turbo", history, 2000)

	assert.True(t, decision.Truncated)
	assert.GreaterOrEqual(t, decision.Allowed, 1)
	assert.Less(t, decision.Allowed, 2000)
}
