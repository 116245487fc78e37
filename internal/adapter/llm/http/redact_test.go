package http_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	llmhttp "github.com/bkyoung/chatgate/internal/adapter/llm/http"
)

func TestRedactURLSecrets(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "key parameter",
			input: "https://api.example.com/v1?key=sk-secret123&foo=bar",
			want:  "https://api.example.com/v1?key=[REDACTED]&foo=bar",
		},
		{
			name:  "apiKey parameter",
			input: "request to https://host/path?apiKey=abc failed",
			want:  "request to https://host/path?apiKey=[REDACTED] failed",
		},
		{
			name:  "token parameter",
			input: "https://host/path?token=tok123",
			want:  "https://host/path?token=[REDACTED]",
		},
		{
			name:  "no secrets untouched",
			input: "https://host/path?page=2",
			want:  "https://host/path?page=2",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, llmhttp.RedactURLSecrets(tt.input))
		})
	}
}
