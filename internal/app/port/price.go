package port

import "context"

// PriceClient defines the interface for the public USD price feed.
type PriceClient interface {
	// ResolvePrice returns the USD unit price for a feed id. It never
	// returns an error: an empty id, cancellation, a failed request or a
	// malformed body all degrade to 0.
	ResolvePrice(ctx context.Context, feedID string) float64
}
