package port

import (
	"context"

	"portfolio_dashboard/internal/domain/entity"
)

// PortfolioStatus is what the REST surface renders for one wallet address:
// the last published snapshot (if any), the cycle state, and a user-facing
// error string. Snapshot and Error are mutually exclusive.
type PortfolioStatus struct {
	State    entity.CycleState         `json:"state"`
	Snapshot *entity.PortfolioSnapshot `json:"snapshot,omitempty"`
	Error    string                    `json:"error,omitempty"`
}

// PortfolioService defines the consumer-facing surface of the valuation
// pipeline.
type PortfolioService interface {
	// GetPortfolio returns the published snapshot for the address, running
	// a fetch cycle when none is cached. Concurrent calls for the same
	// address share one cycle.
	GetPortfolio(ctx context.Context, address string) PortfolioStatus

	// Refresh starts a fresh fetch cycle for the address, cancelling any
	// cycle already in flight.
	Refresh(ctx context.Context, address string) PortfolioStatus

	// Status reports the current state without triggering a cycle.
	Status(address string) PortfolioStatus

	// Close cancels every in-flight cycle.
	Close()
}
