package restapi

import (
	"net/http"
	"strconv"
	"time"

	"portfolio_dashboard/internal/app/port"
	"portfolio_dashboard/internal/domain/entity"
	"portfolio_dashboard/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// TokenView is one dashboard row: a ValuedToken plus locale-formatted
// display strings. Display fields are presentation only.
type TokenView struct {
	entity.ValuedToken
	DisplayAmount string `json:"displayAmount"`
	DisplayValue  string `json:"displayValue"`
}

// PortfolioView is the rendered snapshot for one wallet.
type PortfolioView struct {
	WalletAddress string              `json:"walletAddress"`
	Tokens        []TokenView         `json:"tokens"`
	TotalValueUSD float64             `json:"totalValueUSD"`
	TotalDisplay  string              `json:"totalDisplay"`
	FetchMetrics  entity.FetchMetrics `json:"fetchMetrics"`
	LastUpdated   time.Time           `json:"lastUpdated"`
}

// APIPortfolioResponse is the response envelope for the portfolio endpoints.
// Error and Data.Portfolio are mutually exclusive.
type APIPortfolioResponse struct {
	Data struct {
		State     entity.CycleState `json:"state"`
		Portfolio *PortfolioView    `json:"portfolio,omitempty"`
	} `json:"data"`
	Error         string `json:"error,omitempty"`
	StatusMessage string `json:"status_message"`
}

// PortfolioHandler handles HTTP requests for wallet portfolios.
type PortfolioHandler struct {
	portfolioService port.PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(ps port.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: ps}
}

// GetPortfolioHandler returns the published snapshot for an address,
// running a fetch cycle when none is cached.
func (h *PortfolioHandler) GetPortfolioHandler(c *gin.Context) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet address"})
		return
	}

	status := h.portfolioService.GetPortfolio(c.Request.Context(), address)
	c.JSON(http.StatusOK, buildResponse(status))
}

// RefreshPortfolioHandler forces a new fetch cycle for an address,
// cancelling any cycle already in flight.
func (h *PortfolioHandler) RefreshPortfolioHandler(c *gin.Context) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet address"})
		return
	}

	status := h.portfolioService.Refresh(c.Request.Context(), address)
	c.JSON(http.StatusOK, buildResponse(status))
}

func buildResponse(status port.PortfolioStatus) APIPortfolioResponse {
	var response APIPortfolioResponse
	response.Data.State = status.State
	response.Error = status.Error

	switch {
	case status.Snapshot != nil:
		response.Data.Portfolio = renderPortfolio(status.Snapshot)
		response.StatusMessage = "Portfolio retrieved successfully."
	case status.State == entity.CycleFailed:
		response.StatusMessage = "Failed to retrieve portfolio."
	case status.State == entity.CycleCancelled:
		response.StatusMessage = "Fetch cycle was superseded; retry for fresh data."
	default:
		response.StatusMessage = "No portfolio data available."
	}
	return response
}

func renderPortfolio(snap *entity.PortfolioSnapshot) *PortfolioView {
	tokens := make([]TokenView, 0, len(snap.Tokens))
	for _, t := range snap.Tokens {
		tokens = append(tokens, TokenView{
			ValuedToken:   t,
			DisplayAmount: utils.FormatDisplay(t.FormattedAmount, 6, 0),
			DisplayValue:  utils.FormatDisplay(strconv.FormatFloat(t.ValueUSD, 'f', -1, 64), 2, 2),
		})
	}
	return &PortfolioView{
		WalletAddress: snap.WalletAddress,
		Tokens:        tokens,
		TotalValueUSD: snap.TotalValueUSD,
		TotalDisplay:  utils.FormatDisplay(strconv.FormatFloat(snap.TotalValueUSD, 'f', -1, 64), 2, 2),
		FetchMetrics:  snap.Metrics,
		LastUpdated:   snap.UpdatedAt,
	}
}
