package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bkyoung/chatgate/internal/domain"
)

func TestProvider_Valid(t *testing.T) {
	tests := []struct {
		name     string
		provider domain.Provider
		want     bool
	}{
		{
			name: "base URL and model present",
			provider: domain.Provider{
				BaseURL: "https://api.openai.com/v1",
				Model:   "gpt-4o-mini",
			},
			want: true,
		},
		{
			name:     "missing base URL",
			provider: domain.Provider{Model: "gpt-4o-mini"},
			want:     false,
		},
		{
			name:     "missing model",
			provider: domain.Provider{BaseURL: "https://api.openai.com/v1"},
			want:     false,
		},
		{
			name: "api key is not required",
			provider: domain.Provider{
				BaseURL: "http://localhost:8080/v1",
				Model:   "local-model",
				APIKey:  "",
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.provider.Valid())
		})
	}
}
