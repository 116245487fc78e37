package tokeninfo_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmhttp "github.com/bkyoung/chatgate/internal/adapter/llm/http"
	"github.com/bkyoung/chatgate/internal/usecase/tokeninfo"
)

func noRetry() tokeninfo.ClientOption {
	return tokeninfo.WithRetryConfig(llmhttp.RetryConfig{
		MaxRetries:     0,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		Multiplier:     1.0,
	})
}

func TestLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tokens/0xabc", r.URL.Path)
		fmt.Fprint(w, `{
			"pairs": [
				{
					"chainId": "solana",
					"dexId": "raydium",
					"pairAddress": "pair-1",
					"baseToken": {"address": "0xABC", "name": "Example", "symbol": "EXM"},
					"priceUsd": "1.2345",
					"priceChange": {"h24": -3.5},
					"volume": {"h24": 150000.5},
					"marketCap": 9000000,
					"fdv": 12000000,
					"info": {"imageUrl": "https://img.example/token.png"}
				},
				{
					"chainId": "ignored",
					"dexId": "ignored",
					"baseToken": {"name": "Second"},
					"priceUsd": "9.99"
				}
			]
		}`)
	}))
	defer server.Close()

	client := tokeninfo.NewClient(server.URL, noRetry())
	info, err := client.Lookup(context.Background(), "0xabc")
	require.NoError(t, err)

	// Only the first pair is consulted.
	assert.Equal(t, "0xABC", info.Address)
	assert.Equal(t, "Example", info.Name)
	assert.Equal(t, "EXM", info.Symbol)
	assert.Equal(t, "solana", info.ChainID)
	assert.Equal(t, "raydium", info.DexID)
	assert.Equal(t, "pair-1", info.PairAddress)
	assert.InDelta(t, 1.2345, info.PriceUSD, 1e-9)
	assert.InDelta(t, -3.5, info.PriceChange24h, 1e-9)
	assert.InDelta(t, 150000.5, info.Volume24h, 1e-9)
	assert.InDelta(t, 9000000, info.MarketCap, 1e-9)
	assert.InDelta(t, 12000000, info.FDV, 1e-9)
	assert.Equal(t, "https://img.example/token.png", info.ImageURL)
}

func TestLookup_ImageURLFallbackOrder(t *testing.T) {
	tests := []struct {
		name string
		info string
		want string
	}{
		{
			name: "imageUrl wins",
			info: `{"imageUrl": "a", "header": "b", "openGraph": "c"}`,
			want: "a",
		},
		{
			name: "header next",
			info: `{"header": "b", "openGraph": "c"}`,
			want: "b",
		},
		{
			name: "openGraph last",
			info: `{"openGraph": "c"}`,
			want: "c",
		},
		{
			name: "none present",
			info: `{}`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintf(w, `{"pairs":[{"baseToken":{"name":"X"},"priceUsd":"1","info":%s}]}`, tt.info)
			}))
			defer server.Close()

			client := tokeninfo.NewClient(server.URL, noRetry())
			info, err := client.Lookup(context.Background(), "addr")
			require.NoError(t, err)
			assert.Equal(t, tt.want, info.ImageURL)
		})
	}
}

func TestLookup_AddressFallsBackToRequested(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"pairs":[{"baseToken":{"name":"X"},"priceUsd":"1"}]}`)
	}))
	defer server.Close()

	client := tokeninfo.NewClient(server.URL, noRetry())
	info, err := client.Lookup(context.Background(), "0xrequested")
	require.NoError(t, err)
	assert.Equal(t, "0xrequested", info.Address)
}

func TestLookup_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := tokeninfo.NewClient(server.URL, noRetry())
	_, err := client.Lookup(context.Background(), "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, &llmhttp.Error{Kind: llmhttp.KindAPI})
}

func TestLookup_EmptyPairs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"pairs":[]}`)
	}))
	defer server.Close()

	client := tokeninfo.NewClient(server.URL, noRetry())
	_, err := client.Lookup(context.Background(), "nopairs")

	require.Error(t, err)
	assert.ErrorIs(t, err, &llmhttp.Error{Kind: llmhttp.KindDecoding})
}

func TestLookup_MalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	defer server.Close()

	client := tokeninfo.NewClient(server.URL, noRetry())
	_, err := client.Lookup(context.Background(), "bad")

	require.Error(t, err)
	assert.ErrorIs(t, err, &llmhttp.Error{Kind: llmhttp.KindDecoding})
}
