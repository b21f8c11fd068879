package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"portfolio_dashboard/internal/app/port"
	"portfolio_dashboard/pkg/metrics"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// priceClientImpl resolves USD unit prices from a CoinGecko-style simple
// price endpoint.
type priceClientImpl struct {
	client     *fasthttp.Client
	baseURL    string
	vsCurrency string
	timeout    time.Duration
	pacer      *rate.Limiter
	logger     *zap.Logger
}

// NewPriceClient creates a price feed client. The pacing interval is waited
// before every request to stay under the feed's shared rate limit; this is a
// serialization policy, not a retry mechanism.
func NewPriceClient(baseURL, vsCurrency string, timeout, pacing time.Duration, logger *zap.Logger) port.PriceClient {
	return &priceClientImpl{
		client:     &fasthttp.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		vsCurrency: vsCurrency,
		timeout:    timeout,
		pacer:      rate.NewLimiter(rate.Every(pacing), 1),
		logger:     logger.Named("PriceClient"),
	}
}

// ResolvePrice returns the USD unit price for a feed id, 0 on any failure.
// A zero price deflates that token's value instead of failing the cycle.
func (c *priceClientImpl) ResolvePrice(ctx context.Context, feedID string) float64 {
	if feedID == "" {
		metrics.PriceLookupsTotal.WithLabelValues("miss").Inc()
		return 0
	}
	if err := c.pacer.Wait(ctx); err != nil {
		metrics.PriceLookupsTotal.WithLabelValues("miss").Inc()
		return 0
	}

	requestURL := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=%s",
		c.baseURL, url.QueryEscape(feedID), url.QueryEscape(c.vsCurrency))
	c.logger.Debug("Requesting price from feed", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetContentTypeBytes([]byte("application/json"))

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			c.logger.Warn("Price feed request failed", zap.String("feedId", feedID), zap.Error(err))
			metrics.PriceLookupsTotal.WithLabelValues("miss").Inc()
			return 0
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			c.logger.Warn("Price feed request failed (with default timeout)", zap.String("feedId", feedID), zap.Error(err))
			metrics.PriceLookupsTotal.WithLabelValues("miss").Inc()
			return 0
		}
	}
	if ctx.Err() != nil {
		metrics.PriceLookupsTotal.WithLabelValues("miss").Inc()
		return 0
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Warn("Price feed returned non-OK status",
			zap.String("feedId", feedID),
			zap.Int("statusCode", resp.StatusCode()))
		metrics.PriceLookupsTotal.WithLabelValues("miss").Inc()
		return 0
	}

	var body map[string]map[string]float64
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		c.logger.Warn("Failed to unmarshal price feed response",
			zap.String("feedId", feedID),
			zap.ByteString("responseBody", resp.Body()),
			zap.Error(err))
		metrics.PriceLookupsTotal.WithLabelValues("miss").Inc()
		return 0
	}

	price, found := body[feedID][c.vsCurrency]
	if !found || price < 0 {
		c.logger.Warn("Price feed response missing usable price field", zap.String("feedId", feedID))
		metrics.PriceLookupsTotal.WithLabelValues("miss").Inc()
		return 0
	}

	metrics.PriceLookupsTotal.WithLabelValues("hit").Inc()
	return price
}
