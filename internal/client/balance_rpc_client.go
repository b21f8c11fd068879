package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"portfolio_dashboard/internal/app/port"
	"portfolio_dashboard/internal/domain/entity"
	"portfolio_dashboard/pkg/metrics"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrMissingAPIKey is returned when the balance provider credential is not
// configured. No network call is attempted in that case.
var ErrMissingAPIKey = fmt.Errorf("balance provider API key is not configured")

// balanceRPCClient talks to an Alchemy-style balance provider over JSON-RPC.
type balanceRPCClient struct {
	rpcClient      *rpc.Client
	requestTimeout time.Duration
	seqPacer       *rate.Limiter
	logger         *zap.Logger
}

// NewBalanceRPCClient dials the provider endpoint (baseURL joined with the
// API key path segment). A missing key fails immediately without dialing.
func NewBalanceRPCClient(baseURL, apiKey string, requestTimeout, seqPacing time.Duration, logger *zap.Logger) (port.BalanceClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	endpoint := strings.TrimRight(baseURL, "/") + "/" + apiKey
	rpcClient, err := rpc.Dial(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial balance provider: %w", err)
	}
	return &balanceRPCClient{
		rpcClient:      rpcClient,
		requestTimeout: requestTimeout,
		seqPacer:       rate.NewLimiter(rate.Every(seqPacing), 1),
		logger:         logger.Named("BalanceRPCClient"),
	}, nil
}

// tokenBalancesResponse mirrors the provider's getTokenBalances result.
type tokenBalancesResponse struct {
	Address       string              `json:"address"`
	TokenBalances []tokenBalanceEntry `json:"tokenBalances"`
}

// tokenBalanceEntry tolerates the field-name variants different provider
// versions emit for the contract address and the balance.
type tokenBalanceEntry struct {
	ContractAddress string
	TokenBalance    string
}

func (e *tokenBalanceEntry) UnmarshalJSON(data []byte) error {
	var aux struct {
		ContractAddress string `json:"contractAddress"`
		Contract        string `json:"contract"`
		TokenBalance    string `json:"tokenBalance"`
		TokenBalanceAlt string `json:"token_balance"`
		TokenBalanceHex string `json:"tokenBalanceHex"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.ContractAddress = firstNonEmpty(aux.ContractAddress, aux.Contract)
	e.TokenBalance = firstNonEmpty(aux.TokenBalance, aux.TokenBalanceAlt, aux.TokenBalanceHex)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// GetTokenBalances issues one aggregated request for every contract. Callers
// treat an error the same as an empty result.
func (c *balanceRPCClient) GetTokenBalances(ctx context.Context, owner string, contracts []string) ([]entity.RawBalance, error) {
	if len(contracts) == 0 {
		return []entity.RawBalance{}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	metrics.BalanceCallsTotal.WithLabelValues("batch").Inc()
	var resp tokenBalancesResponse
	if err := c.rpcClient.CallContext(callCtx, &resp, "alchemy_getTokenBalances", common.HexToAddress(owner).Hex(), contracts); err != nil {
		c.logger.Warn("Batched token balance call failed",
			zap.String("owner", owner),
			zap.Int("contractCount", len(contracts)),
			zap.Error(err))
		return nil, err
	}

	balances := make([]entity.RawBalance, 0, len(resp.TokenBalances))
	for _, tb := range resp.TokenBalances {
		if tb.ContractAddress == "" {
			continue
		}
		balances = append(balances, entity.RawBalance{
			ContractAddress: tb.ContractAddress,
			Amount:          tb.TokenBalance,
		})
	}
	c.logger.Debug("Batched token balances resolved",
		zap.String("owner", owner),
		zap.Int("requested", len(contracts)),
		zap.Int("returned", len(balances)))
	return balances, nil
}

// GetTokenBalancesSequential resolves one contract per request with pacing
// between requests. A single contract's failure is logged and skipped; the
// loop stops early when the context is cancelled.
func (c *balanceRPCClient) GetTokenBalancesSequential(ctx context.Context, owner string, contracts []string) ([]entity.RawBalance, int) {
	balances := make([]entity.RawBalance, 0, len(contracts))
	attempted := 0

	checksummed := common.HexToAddress(owner).Hex()
	for _, contract := range contracts {
		if ctx.Err() != nil {
			c.logger.Debug("Sequential balance loop cancelled",
				zap.String("owner", owner),
				zap.Int("attempted", attempted))
			break
		}
		if err := c.seqPacer.Wait(ctx); err != nil {
			break
		}

		callCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
		metrics.BalanceCallsTotal.WithLabelValues("sequential").Inc()
		attempted++

		var resp tokenBalancesResponse
		err := c.rpcClient.CallContext(callCtx, &resp, "alchemy_getTokenBalances", checksummed, []string{contract})
		cancel()
		if err != nil {
			c.logger.Warn("Sequential balance call failed, skipping contract",
				zap.String("owner", owner),
				zap.String("contract", contract),
				zap.Error(err))
			continue
		}
		for _, tb := range resp.TokenBalances {
			if tb.ContractAddress == "" {
				continue
			}
			balances = append(balances, entity.RawBalance{
				ContractAddress: tb.ContractAddress,
				Amount:          tb.TokenBalance,
			})
		}
	}
	return balances, attempted
}

// GetNativeBalance fetches the native-asset balance, "0" on any failure.
func (c *balanceRPCClient) GetNativeBalance(ctx context.Context, owner string) string {
	callCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	metrics.BalanceCallsTotal.WithLabelValues("native").Inc()
	var result string
	if err := c.rpcClient.CallContext(callCtx, &result, "eth_getBalance", common.HexToAddress(owner).Hex(), "latest"); err != nil {
		c.logger.Warn("Native balance call failed",
			zap.String("owner", owner),
			zap.Error(err))
		return "0"
	}
	if result == "" {
		return "0"
	}
	return result
}
