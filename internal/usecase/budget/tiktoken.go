package budget

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	defaultEncoder *tiktoken.Tiktoken
	encoderOnce    sync.Once
	encoderErr     error
)

// getEncoder returns the shared tiktoken encoder, initializing it lazily.
// Uses cl100k_base encoding which is used by GPT-4 and is a reasonable
// approximation for other modern LLMs.
func getEncoder() (*tiktoken.Tiktoken, error) {
	encoderOnce.Do(func() {
		defaultEncoder, encoderErr = tiktoken.GetEncoding("cl100k_base")
	})
	return defaultEncoder, encoderErr
}

// TiktokenEstimator estimates token counts with the cl100k_base encoding.
// It is selectable via config for callers that want tighter estimates
// than the character-class heuristic; when the encoding cannot be loaded
// it falls back to the heuristic.
type TiktokenEstimator struct{}

// Estimate returns the cl100k_base token count for the text, floored at 1.
func (TiktokenEstimator) Estimate(text string) int {
	enc, err := getEncoder()
	if err != nil {
		return HeuristicEstimator{}.Estimate(text)
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) < 1 {
		return 1
	}
	return len(tokens)
}
