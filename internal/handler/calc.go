package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cryptowise-backend/internal/model"
	"cryptowise-backend/internal/service"
)

// calcHandler binds a request body, runs fn and writes its response
func calcHandler[Req any, Resp any](fn func(context.Context, *Req, bool) (*Resp, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req Req
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		result, err := fn(c.Request.Context(), &req, rawOutput(c))
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// rawOutput reports whether ?raw asks for unrounded results
func rawOutput(c *gin.Context) bool {
	raw, err := strconv.ParseBool(c.DefaultQuery("raw", "false"))
	return err == nil && raw
}

var (
	// CalculatePnL POST /api/calc/pnl
	CalculatePnL = calcHandler[model.PnLRequest](service.CalculatePnL)
	// CalculateRisk POST /api/calc/risk
	CalculateRisk = calcHandler[model.RiskRequest](service.CalculateRisk)
	// CalculateDCA POST /api/calc/dca
	CalculateDCA = calcHandler[model.DCARequest](service.CalculateDCA)
	// CalculateMoonMath POST /api/calc/moon-math
	CalculateMoonMath = calcHandler[model.MoonMathRequest](service.CalculateMoonMath)
	// CalculateFutureValue POST /api/calc/future-value
	CalculateFutureValue = calcHandler[model.FutureValueRequest](service.CalculateFutureValue)
	// EvaluateDecision POST /api/calc/decision
	EvaluateDecision = calcHandler[model.DecisionRequest](service.EvaluateDecision)
)
