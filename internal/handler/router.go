package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the API on r; gate may be nil for an open API
func RegisterRoutes(r *gin.Engine, gate *AccessGate) {
	if gate == nil {
		gate = NewAccessGate("", "", 0)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/auth/verify", gate.Verify)

	protected := api.Group("", gate.Middleware())
	{
		// calculators
		calc := protected.Group("/calc")
		calc.POST("/pnl", CalculatePnL)
		calc.POST("/risk", CalculateRisk)
		calc.POST("/dca", CalculateDCA)
		calc.POST("/moon-math", CalculateMoonMath)
		calc.POST("/future-value", CalculateFutureValue)
		calc.POST("/decision", EvaluateDecision)

		// market data
		protected.GET("/coins/search", SearchCoins)
		protected.GET("/coins/:id/quote", GetQuote)

		// saved inputs
		protected.GET("/inputs/:calculator", GetInput)
		protected.PUT("/inputs/:calculator", SaveInput)
		protected.DELETE("/inputs/:calculator", DeleteInput)
		protected.DELETE("/inputs", ClearInputs)
	}
}
