package entity

import "strings"

// NativeAssetAddress is the sentinel contract address that marks the chain's
// native asset in the configured token list.
const NativeAssetAddress = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"

// TokenDescriptor describes one tracked token. The full list is fixed at
// startup and never mutated afterwards.
type TokenDescriptor struct {
	Name        string `json:"name" yaml:"name"`
	Symbol      string `json:"symbol" yaml:"symbol"`
	Address     string `json:"address" yaml:"address"`
	Decimals    int    `json:"decimals" yaml:"decimals"`
	PriceFeedID string `json:"priceFeedId" yaml:"priceFeedId"`
}

// IsNative reports whether the descriptor refers to the chain's native asset
// rather than a token contract.
func (t TokenDescriptor) IsNative() bool {
	return t.Address == "" || strings.EqualFold(t.Address, NativeAssetAddress)
}
