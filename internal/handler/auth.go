package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// VerifyRequest access code exchange body
type VerifyRequest struct {
	Code string `json:"code"`
}

// AccessGate issues and checks tokens for the access code. An empty code
// leaves the API open.
type AccessGate struct {
	code   string
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAccessGate creates a gate; an empty code leaves the API open
func NewAccessGate(code, secret string, ttl time.Duration) *AccessGate {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &AccessGate{code: code, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Enabled reports whether an access code is configured
func (g *AccessGate) Enabled() bool {
	return g != nil && g.code != ""
}

// generateToken token: timestamp.signature
func (g *AccessGate) generateToken() (string, time.Time) {
	issued := g.now()
	timestamp := strconv.FormatInt(issued.Unix(), 10)
	return fmt.Sprintf("%s.%s", timestamp, g.sign(timestamp)), issued.Add(g.ttl)
}

func (g *AccessGate) sign(timestamp string) string {
	h := hmac.New(sha256.New, g.secret)
	h.Write([]byte(timestamp))
	return hex.EncodeToString(h.Sum(nil))
}

// ValidateToken checks signature and age
func (g *AccessGate) ValidateToken(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return false
	}

	timestamp, signature := parts[0], parts[1]
	if !hmac.Equal([]byte(signature), []byte(g.sign(timestamp))) {
		return false
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	return g.now().Sub(time.Unix(ts, 0)) <= g.ttl
}

// Verify exchanges the access code for a token
func (g *AccessGate) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "invalid request body",
		})
		return
	}

	if g.Enabled() && !hmac.Equal([]byte(strings.TrimSpace(req.Code)), []byte(g.code)) {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": "invalid access code",
		})
		return
	}

	token, expires := g.generateToken()
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "verified",
		"token":      token,
		"expires_at": expires.UTC(),
	})
}

// Middleware rejects requests without a valid bearer token
func (g *AccessGate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.Enabled() {
			c.Next()
			return
		}

		token := c.GetHeader("Authorization")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}

		token = strings.TrimPrefix(token, "Bearer ")
		if !g.ValidateToken(token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "token invalid or expired",
			})
			return
		}

		c.Next()
	}
}
