// Package budget decides how much conversation history fits a model's
// context window.
package budget

import "math"

// Estimator estimates the token count of a piece of text. Estimates are
// approximations for budgeting, never exact tokenizer output.
type Estimator interface {
	Estimate(text string) int
}

// Token weights for the heuristic estimator. CJK ideographs routinely
// split into more than one token, while Latin text averages roughly four
// characters per token.
const (
	cjkTokensPerChar   = 1.5
	otherTokensPerChar = 0.25
)

// HeuristicEstimator is a character-class token estimator. It needs no
// model files and is cheap enough to run on every budgeting decision.
type HeuristicEstimator struct{}

// Estimate counts CJK Unified Ideographs separately from all other
// characters and weights them accordingly. The result is always at
// least 1.
func (HeuristicEstimator) Estimate(text string) int {
	if text == "" {
		return 1
	}

	var cjk, other int
	for _, r := range text {
		if r >= 0x4E00 && r <= 0x9FFF {
			cjk++
		} else {
			other++
		}
	}

	estimate := int(math.Ceil(float64(cjk)*cjkTokensPerChar + float64(other)*otherTokensPerChar))
	if estimate < 1 {
		return 1
	}
	return estimate
}
