package service

import (
	"context"
	"strings"
	"time"

	"portfolio_dashboard/internal/app/port"
	"portfolio_dashboard/internal/config"
	"portfolio_dashboard/internal/domain/entity"
	"portfolio_dashboard/internal/pkg/utils"
	"portfolio_dashboard/pkg/metrics"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ValuationService runs one fetch cycle: resolve balances (batched first,
// sequential as fallback and for strategy comparison), price each token,
// normalize and aggregate. Tokens are processed strictly in their declared
// order so a cycle is reproducible for a given set of responses.
type ValuationService struct {
	balanceClient port.BalanceClient
	priceClient   port.PriceClient
	tokens        []entity.TokenDescriptor
	cfg           config.ValuationConfig
	logger        *zap.Logger
}

// NewValuationService creates a new ValuationService over an immutable token
// list.
func NewValuationService(
	balanceClient port.BalanceClient,
	priceClient port.PriceClient,
	tokens []entity.TokenDescriptor,
	cfg config.ValuationConfig,
	logger *zap.Logger,
) *ValuationService {
	return &ValuationService{
		balanceClient: balanceClient,
		priceClient:   priceClient,
		tokens:        tokens,
		cfg:           cfg,
		logger:        logger.Named("ValuationService"),
	}
}

// Tokens returns the configured token list.
func (s *ValuationService) Tokens() []entity.TokenDescriptor {
	return s.tokens
}

// RunCycle executes one full fetch cycle for the owner address. It returns
// the context error when the cycle is cancelled; a cancelled cycle produces
// no snapshot. Per-step failures degrade to zero values instead of aborting.
func (s *ValuationService) RunCycle(ctx context.Context, owner string) (*entity.PortfolioSnapshot, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	s.logger.Debug("Starting fetch cycle", zap.String("owner", owner), zap.Int("tokenCount", len(s.tokens)))

	contracts := make([]string, 0, len(s.tokens))
	for _, t := range s.tokens {
		if !t.IsNative() {
			contracts = append(contracts, t.Address)
		}
	}

	var fetchMetrics entity.FetchMetrics

	batchStart := time.Now()
	var batchResults []entity.RawBalance
	if len(contracts) > 0 {
		fetchMetrics.BatchCallCount = 1
		res, err := s.balanceClient.GetTokenBalances(ctx, owner, contracts)
		if err != nil {
			s.logger.Warn("Batched balance resolution yielded no data, sequential results will be authoritative",
				zap.String("owner", owner), zap.Error(err))
			res = nil
		}
		batchResults = res
	}
	fetchMetrics.BatchElapsedMs = time.Since(batchStart).Milliseconds()
	metrics.BalanceFetchDuration.WithLabelValues("batch").Observe(time.Since(batchStart).Seconds())

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// The sequential pass doubles provider traffic, which is the point of a
	// strategy-comparison dashboard. With CompareStrategies off it only runs
	// as the fallback for an empty batch.
	var seqResults []entity.RawBalance
	if len(contracts) > 0 && (s.cfg.CompareStrategies || len(batchResults) == 0) {
		seqStart := time.Now()
		var attempted int
		seqResults, attempted = s.balanceClient.GetTokenBalancesSequential(ctx, owner, contracts)
		fetchMetrics.FallbackElapsedMs = time.Since(seqStart).Milliseconds()
		fetchMetrics.FallbackCallCount = attempted
		metrics.BalanceFetchDuration.WithLabelValues("sequential").Observe(time.Since(seqStart).Seconds())
	}

	// Batch results stay authoritative whenever the batch returned anything,
	// even if the sequential pass disagrees.
	finalBalances := batchResults
	if len(finalBalances) == 0 {
		finalBalances = seqResults
	}

	tokenPacer := rate.NewLimiter(rate.Every(time.Duration(s.cfg.TokenPacingMillis)*time.Millisecond), 1)

	valued := make([]entity.ValuedToken, 0, len(s.tokens))
	var totalUSD float64
	for _, t := range s.tokens {
		if err := tokenPacer.Wait(ctx); err != nil {
			return nil, err
		}

		var raw string
		if t.IsNative() {
			raw = s.balanceClient.GetNativeBalance(ctx, owner)
		} else {
			raw = lookupBalance(finalBalances, t.Address)
		}
		rawAmount := utils.NormalizeRawAmount(raw)
		formatted := utils.FormatAmount(rawAmount, t.Decimals, utils.DefaultPrecision)

		price := s.priceClient.ResolvePrice(ctx, t.PriceFeedID)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		value := utils.CalculateValueUSD(formatted, price)

		valued = append(valued, entity.ValuedToken{
			Name:            t.Name,
			Symbol:          t.Symbol,
			Address:         t.Address,
			Decimals:        t.Decimals,
			RawAmount:       rawAmount,
			FormattedAmount: formatted,
			PriceUSD:        price,
			ValueUSD:        value,
		})
		totalUSD += value
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	snapshot := &entity.PortfolioSnapshot{
		WalletAddress: owner,
		Tokens:        valued,
		TotalValueUSD: totalUSD,
		Metrics:       fetchMetrics,
		UpdatedAt:     time.Now().UTC(),
	}
	s.logger.Info("Fetch cycle completed",
		zap.String("owner", owner),
		zap.Int("tokenCount", len(valued)),
		zap.Float64("totalValueUSD", totalUSD),
		zap.Int64("batchElapsedMs", fetchMetrics.BatchElapsedMs),
		zap.Int64("fallbackElapsedMs", fetchMetrics.FallbackElapsedMs))
	return snapshot, nil
}

// lookupBalance finds a contract's balance by case-insensitive address
// match; a contract missing from the balance set reads as "0".
func lookupBalance(balances []entity.RawBalance, contract string) string {
	for _, b := range balances {
		if strings.EqualFold(b.ContractAddress, contract) {
			return b.Amount
		}
	}
	return "0"
}
