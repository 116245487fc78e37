package budget_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bkyoung/chatgate/internal/usecase/budget"
)

func TestHeuristicEstimator(t *testing.T) {
	estimator := budget.HeuristicEstimator{}

	tests := []struct {
		name string
		text string
		want int
	}{
		{
			name: "empty text costs one token",
			text: "",
			want: 1,
		},
		{
			name: "short ascii rounds up to one",
			text: "abcd",
			want: 1,
		},
		{
			name: "ascii weighted at quarter token per char",
			text: "abcde",
			want: 2, // ceil(5 * 0.25)
		},
		{
			name: "cjk weighted heavier than ascii",
			text: "你好世界",
			want: 6, // 4 chars * 1.5
		},
		{
			name: "mixed ascii and cjk",
			text: "Hello, 世界",
			want: 5, // ceil(7*0.25 + 2*1.5)
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, estimator.Estimate(tt.text))
		})
	}
}

func TestHeuristicEstimator_LongerTextCostsMore(t *testing.T) {
	estimator := budget.HeuristicEstimator{}

	short := estimator.Estimate("a short message")
	long := estimator.Estimate("a considerably longer message that carries a lot more text than the short one does")

	assert.Greater(t, long, short)
}

func TestTiktokenEstimator_NeverReturnsZero(t *testing.T) {
	estimator := budget.TiktokenEstimator{}

	assert.GreaterOrEqual(t, estimator.Estimate(""), 1)
	assert.GreaterOrEqual(t, estimator.Estimate("hello world"), 1)
}
