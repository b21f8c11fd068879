package testutil

import (
	"context"

	"portfolio_dashboard/internal/app/port"
	"portfolio_dashboard/internal/domain/entity"
)

// MockBalanceClient implements port.BalanceClient with swappable funcs.
type MockBalanceClient struct {
	GetTokenBalancesFunc           func(ctx context.Context, owner string, contracts []string) ([]entity.RawBalance, error)
	GetTokenBalancesSequentialFunc func(ctx context.Context, owner string, contracts []string) ([]entity.RawBalance, int)
	GetNativeBalanceFunc           func(ctx context.Context, owner string) string
}

// NewMockBalanceClient returns a mock that resolves nothing.
func NewMockBalanceClient() *MockBalanceClient {
	return &MockBalanceClient{
		GetTokenBalancesFunc: func(ctx context.Context, owner string, contracts []string) ([]entity.RawBalance, error) {
			return nil, nil
		},
		GetTokenBalancesSequentialFunc: func(ctx context.Context, owner string, contracts []string) ([]entity.RawBalance, int) {
			return nil, len(contracts)
		},
		GetNativeBalanceFunc: func(ctx context.Context, owner string) string {
			return "0"
		},
	}
}

func (m *MockBalanceClient) GetTokenBalances(ctx context.Context, owner string, contracts []string) ([]entity.RawBalance, error) {
	return m.GetTokenBalancesFunc(ctx, owner, contracts)
}

func (m *MockBalanceClient) GetTokenBalancesSequential(ctx context.Context, owner string, contracts []string) ([]entity.RawBalance, int) {
	return m.GetTokenBalancesSequentialFunc(ctx, owner, contracts)
}

func (m *MockBalanceClient) GetNativeBalance(ctx context.Context, owner string) string {
	return m.GetNativeBalanceFunc(ctx, owner)
}

// MockPriceClient implements port.PriceClient with a swappable func.
type MockPriceClient struct {
	ResolvePriceFunc func(ctx context.Context, feedID string) float64
}

// NewMockPriceClient returns a mock that prices everything at zero.
func NewMockPriceClient() *MockPriceClient {
	return &MockPriceClient{
		ResolvePriceFunc: func(ctx context.Context, feedID string) float64 {
			return 0
		},
	}
}

func (m *MockPriceClient) ResolvePrice(ctx context.Context, feedID string) float64 {
	return m.ResolvePriceFunc(ctx, feedID)
}

// MockPortfolioService implements port.PortfolioService with swappable funcs.
type MockPortfolioService struct {
	GetPortfolioFunc func(ctx context.Context, address string) port.PortfolioStatus
	RefreshFunc      func(ctx context.Context, address string) port.PortfolioStatus
	StatusFunc       func(address string) port.PortfolioStatus
}

// NewMockPortfolioService returns a mock that reports idle for everything.
func NewMockPortfolioService() *MockPortfolioService {
	idle := func(address string) port.PortfolioStatus {
		return port.PortfolioStatus{State: entity.CycleIdle}
	}
	return &MockPortfolioService{
		GetPortfolioFunc: func(ctx context.Context, address string) port.PortfolioStatus { return idle(address) },
		RefreshFunc:      func(ctx context.Context, address string) port.PortfolioStatus { return idle(address) },
		StatusFunc:       idle,
	}
}

func (m *MockPortfolioService) GetPortfolio(ctx context.Context, address string) port.PortfolioStatus {
	return m.GetPortfolioFunc(ctx, address)
}

func (m *MockPortfolioService) Refresh(ctx context.Context, address string) port.PortfolioStatus {
	return m.RefreshFunc(ctx, address)
}

func (m *MockPortfolioService) Status(address string) port.PortfolioStatus {
	return m.StatusFunc(address)
}

func (m *MockPortfolioService) Close() {}
