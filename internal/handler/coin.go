package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cryptowise-backend/internal/service"
)

// SearchCoins GET /api/coins/search?q=
func SearchCoins(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		q = c.Query("query")
	}

	result, err := service.SearchCoins(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetQuote GET /api/coins/:id/quote?refresh=1
func GetQuote(c *gin.Context) {
	refresh, _ := strconv.ParseBool(c.DefaultQuery("refresh", "false"))

	quote, err := service.GetQuote(c.Request.Context(), c.Param("id"), refresh)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}
