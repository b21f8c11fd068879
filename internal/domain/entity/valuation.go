package entity

import "time"

// ValuedToken is one row of the dashboard: a token descriptor joined with its
// resolved balance and USD valuation for the current fetch cycle.
type ValuedToken struct {
	Name            string  `json:"name"`
	Symbol          string  `json:"symbol"`
	Address         string  `json:"address"`
	Decimals        int     `json:"decimals"`
	RawAmount       string  `json:"rawAmount"`
	FormattedAmount string  `json:"formattedAmount"`
	PriceUSD        float64 `json:"priceUSD"`
	ValueUSD        float64 `json:"valueUSD"`
}

// FetchMetrics compares the batched and sequential balance-resolution
// strategies for one fetch cycle.
type FetchMetrics struct {
	BatchElapsedMs    int64 `json:"batchElapsedMs"`
	FallbackElapsedMs int64 `json:"fallbackElapsedMs"`
	BatchCallCount    int   `json:"batchCallCount"`
	FallbackCallCount int   `json:"fallbackCallCount"`
}

// PortfolioSnapshot is the complete result of one fetch cycle, published
// atomically. Each snapshot fully supersedes the previous one.
type PortfolioSnapshot struct {
	WalletAddress string        `json:"walletAddress"`
	Tokens        []ValuedToken `json:"tokens"`
	TotalValueUSD float64       `json:"totalValueUSD"`
	Metrics       FetchMetrics  `json:"fetchMetrics"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}
