package entity

// RawBalance is one contract balance as returned by the balance provider.
// The amount may still be hex-prefixed here; the aggregator normalizes it to
// a base-10 integer string before use. Produced fresh each fetch cycle.
type RawBalance struct {
	ContractAddress string `json:"contractAddress"`
	Amount          string `json:"amount"`
}
