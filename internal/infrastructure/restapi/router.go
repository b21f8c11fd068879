package restapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterPortfolioRoutes wires the portfolio endpoints onto the router.
func RegisterPortfolioRoutes(router *gin.Engine, handler *PortfolioHandler) {
	v1 := router.Group("/api/v1")
	{
		v1.GET("/portfolio/:address", handler.GetPortfolioHandler)
		v1.POST("/portfolio/:address/refresh", handler.RefreshPortfolioHandler)
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
}
