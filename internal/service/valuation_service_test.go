package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"portfolio_dashboard/internal/config"
	"portfolio_dashboard/internal/domain/entity"
	"portfolio_dashboard/internal/testutil"
)

const (
	ownerAddr = "0x1234567890123456789012345678901234567890"
	usdcAddr  = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	daiAddr   = "0x6B175474E89094C44Da98b954EedeAC495271d0F"
)

func testTokens() []entity.TokenDescriptor {
	return []entity.TokenDescriptor{
		{Name: "Ethereum", Symbol: "ETH", Address: entity.NativeAssetAddress, Decimals: 18, PriceFeedID: "ethereum"},
		{Name: "USD Coin", Symbol: "USDC", Address: usdcAddr, Decimals: 6, PriceFeedID: "usd-coin"},
		{Name: "Dai", Symbol: "DAI", Address: daiAddr, Decimals: 18, PriceFeedID: "dai"},
	}
}

// Pacing intervals are zero in tests, which disables the limiters.
func testValuationConfig(compare bool) config.ValuationConfig {
	return config.ValuationConfig{CompareStrategies: compare}
}

func pricesByFeed(prices map[string]float64) *testutil.MockPriceClient {
	pc := testutil.NewMockPriceClient()
	pc.ResolvePriceFunc = func(ctx context.Context, feedID string) float64 {
		return prices[feedID]
	}
	return pc
}

func TestValuationService_RunCycle(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	t.Run("values batch results against feed prices", func(t *testing.T) {
		balances := testutil.NewMockBalanceClient()
		balances.GetTokenBalancesFunc = func(ctx context.Context, owner string, contracts []string) ([]entity.RawBalance, error) {
			return []entity.RawBalance{
				{ContractAddress: usdcAddr, Amount: "5000000"},
				{ContractAddress: daiAddr, Amount: "0x0"},
			}, nil
		}
		balances.GetNativeBalanceFunc = func(ctx context.Context, owner string) string {
			return "0xde0b6b3a7640000" // 1 ETH
		}
		prices := pricesByFeed(map[string]float64{"ethereum": 2000, "usd-coin": 1, "dai": 1})

		svc := NewValuationService(balances, prices, testTokens(), testValuationConfig(false), logger)
		snap, err := svc.RunCycle(ctx, ownerAddr)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(snap.Tokens) != 3 {
			t.Fatalf("expected 3 tokens, got %d", len(snap.Tokens))
		}
		eth, usdc, dai := snap.Tokens[0], snap.Tokens[1], snap.Tokens[2]

		if eth.FormattedAmount != "1.0" || eth.ValueUSD != 2000 {
			t.Errorf("ETH row = %q / %v, want 1.0 / 2000", eth.FormattedAmount, eth.ValueUSD)
		}
		if eth.RawAmount != "1000000000000000000" {
			t.Errorf("ETH rawAmount = %q, want decimal form", eth.RawAmount)
		}
		if usdc.FormattedAmount != "5.0" || usdc.ValueUSD != 5 {
			t.Errorf("USDC row = %q / %v, want 5.0 / 5", usdc.FormattedAmount, usdc.ValueUSD)
		}
		if dai.RawAmount != "0" || dai.ValueUSD != 0 {
			t.Errorf("DAI row = %q / %v, want 0 / 0", dai.RawAmount, dai.ValueUSD)
		}
		if snap.TotalValueUSD != 2005 {
			t.Errorf("total = %v, want 2005", snap.TotalValueUSD)
		}
	})

	t.Run("tokens keep declared order", func(t *testing.T) {
		balances := testutil.NewMockBalanceClient()
		prices := testutil.NewMockPriceClient()

		svc := NewValuationService(balances, prices, testTokens(), testValuationConfig(false), logger)
		snap, err := svc.RunCycle(ctx, ownerAddr)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"ETH", "USDC", "DAI"}
		for i, sym := range want {
			if snap.Tokens[i].Symbol != sym {
				t.Errorf("token[%d] = %s, want %s", i, snap.Tokens[i].Symbol, sym)
			}
		}
	})

	t.Run("batch results stay authoritative over sequential", func(t *testing.T) {
		balances := testutil.NewMockBalanceClient()
		balances.GetTokenBalancesFunc = func(ctx context.Context, owner string, contracts []string) ([]entity.RawBalance, error) {
			return []entity.RawBalance{{ContractAddress: usdcAddr, Amount: "5000000"}}, nil
		}
		balances.GetTokenBalancesSequentialFunc = func(ctx context.Context, owner string, contracts []string) ([]entity.RawBalance, int) {
			// Disagreeing numbers must never reach the published rows.
			return []entity.RawBalance{{ContractAddress: usdcAddr, Amount: "9999999000000"}}, len(contracts)
		}
		prices := pricesByFeed(map[string]float64{"usd-coin": 1})

		svc := NewValuationService(balances, prices, testTokens(), testValuationConfig(true), logger)
		snap, err := svc.RunCycle(ctx, ownerAddr)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snap.Tokens[1].FormattedAmount != "5.0" {
			t.Errorf("USDC amount = %q, want batch-derived 5.0", snap.Tokens[1].FormattedAmount)
		}
		if snap.Metrics.BatchCallCount != 1 {
			t.Errorf("BatchCallCount = %d, want 1", snap.Metrics.BatchCallCount)
		}
		if snap.Metrics.FallbackCallCount != 2 {
			t.Errorf("FallbackCallCount = %d, want 2", snap.Metrics.FallbackCallCount)
		}
	})

	t.Run("sequential results authoritative when batch empty", func(t *testing.T) {
		balances := testutil.NewMockBalanceClient()
		balances.GetTokenBalancesFunc = func(ctx context.Context, owner string, contracts []string) ([]entity.RawBalance, error) {
			return nil, errors.New("provider unavailable")
		}
		balances.GetTokenBalancesSequentialFunc = func(ctx context.Context, owner string, contracts []string) ([]entity.RawBalance, int) {
			return []entity.RawBalance{{ContractAddress: usdcAddr, Amount: "7000000"}}, len(contracts)
		}
		prices := pricesByFeed(map[string]float64{"usd-coin": 1})

		// CompareStrategies off: the sequential pass still runs as fallback.
		svc := NewValuationService(balances, prices, testTokens(), testValuationConfig(false), logger)
		snap, err := svc.RunCycle(ctx, ownerAddr)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snap.Tokens[1].FormattedAmount != "7.0" {
			t.Errorf("USDC amount = %q, want fallback-derived 7.0", snap.Tokens[1].FormattedAmount)
		}
		// DAI missing from both sources still yields a zero row.
		if snap.Tokens[2].RawAmount != "0" || snap.Tokens[2].ValueUSD != 0 {
			t.Errorf("DAI row = %q / %v, want zero row", snap.Tokens[2].RawAmount, snap.Tokens[2].ValueUSD)
		}
	})

	t.Run("sequential pass skipped when batch succeeds and comparison disabled", func(t *testing.T) {
		sequentialCalled := false
		balances := testutil.NewMockBalanceClient()
		balances.GetTokenBalancesFunc = func(ctx context.Context, owner string, contracts []string) ([]entity.RawBalance, error) {
			return []entity.RawBalance{{ContractAddress: usdcAddr, Amount: "1000000"}}, nil
		}
		balances.GetTokenBalancesSequentialFunc = func(ctx context.Context, owner string, contracts []string) ([]entity.RawBalance, int) {
			sequentialCalled = true
			return nil, 0
		}

		svc := NewValuationService(balances, testutil.NewMockPriceClient(), testTokens(), testValuationConfig(false), logger)
		snap, err := svc.RunCycle(ctx, ownerAddr)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sequentialCalled {
			t.Error("sequential pass ran despite successful batch and comparison disabled")
		}
		if snap.Metrics.FallbackCallCount != 0 {
			t.Errorf("FallbackCallCount = %d, want 0", snap.Metrics.FallbackCallCount)
		}
	})

	t.Run("price failure degrades to zero value, not a cycle error", func(t *testing.T) {
		balances := testutil.NewMockBalanceClient()
		balances.GetTokenBalancesFunc = func(ctx context.Context, owner string, contracts []string) ([]entity.RawBalance, error) {
			return []entity.RawBalance{{ContractAddress: usdcAddr, Amount: "5000000"}}, nil
		}
		prices := testutil.NewMockPriceClient() // everything resolves to 0

		svc := NewValuationService(balances, prices, testTokens(), testValuationConfig(false), logger)
		snap, err := svc.RunCycle(ctx, ownerAddr)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snap.Tokens[1].FormattedAmount != "5.0" {
			t.Errorf("USDC amount = %q, want real balance despite zero price", snap.Tokens[1].FormattedAmount)
		}
		if snap.Tokens[1].ValueUSD != 0 || snap.TotalValueUSD != 0 {
			t.Errorf("values = %v / %v, want zeros", snap.Tokens[1].ValueUSD, snap.TotalValueUSD)
		}
	})

	t.Run("case-insensitive contract address match", func(t *testing.T) {
		balances := testutil.NewMockBalanceClient()
		balances.GetTokenBalancesFunc = func(ctx context.Context, owner string, contracts []string) ([]entity.RawBalance, error) {
			return []entity.RawBalance{{ContractAddress: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", Amount: "2000000"}}, nil
		}
		prices := pricesByFeed(map[string]float64{"usd-coin": 1})

		svc := NewValuationService(balances, prices, testTokens(), testValuationConfig(false), logger)
		snap, err := svc.RunCycle(ctx, ownerAddr)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snap.Tokens[1].FormattedAmount != "2.0" {
			t.Errorf("USDC amount = %q, want 2.0 via lowercased address", snap.Tokens[1].FormattedAmount)
		}
	})

	t.Run("cancelled cycle returns error and no snapshot", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(context.Background())
		balances := testutil.NewMockBalanceClient()
		prices := testutil.NewMockPriceClient()
		prices.ResolvePriceFunc = func(ctx context.Context, feedID string) float64 {
			cancel() // cancellation arrives mid-cycle
			return 0
		}

		svc := NewValuationService(balances, prices, testTokens(), testValuationConfig(false), logger)
		snap, err := svc.RunCycle(cancelCtx, ownerAddr)
		if err == nil {
			t.Fatal("expected cancellation error, got nil")
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
		if snap != nil {
			t.Errorf("cancelled cycle produced a snapshot: %+v", snap)
		}
	})

	t.Run("cycle aborts before any call when already cancelled", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(context.Background())
		cancel()

		batchCalled := false
		balances := testutil.NewMockBalanceClient()
		balances.GetTokenBalancesFunc = func(ctx context.Context, owner string, contracts []string) ([]entity.RawBalance, error) {
			batchCalled = true
			return nil, nil
		}

		svc := NewValuationService(balances, testutil.NewMockPriceClient(), testTokens(), testValuationConfig(false), logger)
		if _, err := svc.RunCycle(cancelCtx, ownerAddr); err == nil {
			t.Fatal("expected error for pre-cancelled context")
		}
		if batchCalled {
			t.Error("batch call executed despite cancelled context")
		}
	})
}
