package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cryptowise-backend/internal/service"
)

// maxInputBytes caps a saved input body
const maxInputBytes = 64 << 10

// GetInput GET /api/inputs/:calculator
func GetInput(c *gin.Context) {
	saved, err := service.LoadInput(c.Request.Context(), c.Param("calculator"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// SaveInput PUT /api/inputs/:calculator
func SaveInput(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxInputBytes)
	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = c.Error(err)
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "input too large"})
			return
		}
		badRequest(c, err)
		return
	}

	saved, err := service.SaveInput(c.Request.Context(), c.Param("calculator"), body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// DeleteInput DELETE /api/inputs/:calculator
func DeleteInput(c *gin.Context) {
	if err := service.DeleteInput(c.Request.Context(), c.Param("calculator")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearInputs DELETE /api/inputs
func ClearInputs(c *gin.Context) {
	result, err := service.ClearInputs(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
