package port

import (
	"context"

	"portfolio_dashboard/internal/domain/entity"
)

// BalanceClient defines the interface for the balance provider RPC.
// Implementations are specific to a provider's JSON-RPC surface.
type BalanceClient interface {
	// GetTokenBalances issues one aggregated request for all contracts.
	// Callers treat an error the same as an empty result: no data.
	GetTokenBalances(ctx context.Context, owner string, contracts []string) ([]entity.RawBalance, error)

	// GetTokenBalancesSequential issues one paced request per contract and
	// accumulates whatever succeeds. It returns the balances collected plus
	// the number of requests attempted before cancellation.
	GetTokenBalancesSequential(ctx context.Context, owner string, contracts []string) ([]entity.RawBalance, int)

	// GetNativeBalance fetches the chain's native-asset balance as a raw
	// integer string, "0" on any failure.
	GetNativeBalance(ctx context.Context, owner string) string
}
