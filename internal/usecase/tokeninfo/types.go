// Package tokeninfo caches market metadata for token addresses with
// single-flight deduplication of concurrent lookups.
package tokeninfo

// Info is the metadata served for one token address. Callers always
// receive a copy; entries inside the cache are never shared.
type Info struct {
	Address        string
	Name           string
	Symbol         string
	ChainID        string
	DexID          string
	PairAddress    string
	PriceUSD       float64
	PriceChange24h float64
	Volume24h      float64
	MarketCap      float64
	FDV            float64
	ImageURL       string
}

// pairsResponse mirrors the market-data lookup payload. Only the first
// pair is consulted.
type pairsResponse struct {
	Pairs []pair `json:"pairs"`
}

type pair struct {
	ChainID     string    `json:"chainId"`
	DexID       string    `json:"dexId"`
	PairAddress string    `json:"pairAddress"`
	BaseToken   baseToken `json:"baseToken"`
	PriceUSD    string    `json:"priceUsd"`
	PriceChange changes   `json:"priceChange"`
	Volume      changes   `json:"volume"`
	MarketCap   float64   `json:"marketCap"`
	FDV         float64   `json:"fdv"`
	Info        pairInfo  `json:"info"`
}

type baseToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type changes struct {
	H24 float64 `json:"h24"`
}

// pairInfo holds the nested locations an image URL may appear at; the
// first non-empty one wins.
type pairInfo struct {
	ImageURL  string `json:"imageUrl"`
	Header    string `json:"header"`
	OpenGraph string `json:"openGraph"`
}
