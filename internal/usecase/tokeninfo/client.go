package tokeninfo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	llmhttp "github.com/bkyoung/chatgate/internal/adapter/llm/http"
)

const (
	// defaultLookupTimeout is short on purpose: a market-data lookup that
	// takes longer than this is treated as a miss.
	defaultLookupTimeout = 10 * time.Second

	providerName = "tokendata"
)

// Client fetches token metadata from the market-data API.
type Client struct {
	baseURL string
	client  *http.Client
	retry   llmhttp.RetryConfig
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client (for testing).
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.client = client }
}

// WithRetryConfig sets the retry policy for lookups.
func WithRetryConfig(cfg llmhttp.RetryConfig) ClientOption {
	return func(c *Client) { c.retry = cfg }
}

// NewClient creates a market-data client for the given base URL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultLookupTimeout},
		retry: llmhttp.RetryConfig{
			MaxRetries:     2,
			InitialBackoff: 500 * time.Millisecond,
			MaxBackoff:     2 * time.Second,
			Multiplier:     2.0,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup fetches metadata for one token address. Only the first pair of
// the response is consulted.
func (c *Client) Lookup(ctx context.Context, address string) (Info, error) {
	var info Info
	operation := func(ctx context.Context) error {
		url := fmt.Sprintf("%s/tokens/%s", c.baseURL, address)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return llmhttp.NewNetworkError(providerName, err.Error())
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return llmhttp.NewNetworkError(providerName, err.Error())
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return llmhttp.NewNetworkError(providerName, err.Error())
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return llmhttp.NewAPIError(providerName, fmt.Sprintf("HTTP %d", resp.StatusCode), resp.StatusCode)
		}

		var parsed pairsResponse
		if err := json.Unmarshal(data, &parsed); err != nil {
			return llmhttp.NewDecodingError(providerName, err.Error())
		}
		if len(parsed.Pairs) == 0 {
			return llmhttp.NewDecodingError(providerName, "no pairs in response")
		}

		info = parsed.Pairs[0].toInfo(address)
		return nil
	}

	if err := llmhttp.RetryWithBackoff(ctx, operation, c.retry); err != nil {
		return Info{}, err
	}
	return info, nil
}

func (p pair) toInfo(requested string) Info {
	address := p.BaseToken.Address
	if address == "" {
		address = requested
	}

	price, _ := strconv.ParseFloat(p.PriceUSD, 64)

	imageURL := p.Info.ImageURL
	if imageURL == "" {
		imageURL = p.Info.Header
	}
	if imageURL == "" {
		imageURL = p.Info.OpenGraph
	}

	return Info{
		Address:        address,
		Name:           p.BaseToken.Name,
		Symbol:         p.BaseToken.Symbol,
		ChainID:        p.ChainID,
		DexID:          p.DexID,
		PairAddress:    p.PairAddress,
		PriceUSD:       price,
		PriceChange24h: p.PriceChange.H24,
		Volume24h:      p.Volume.H24,
		MarketCap:      p.MarketCap,
		FDV:            p.FDV,
		ImageURL:       imageURL,
	}
}
