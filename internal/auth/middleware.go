package auth

import (
	"errors"
	"net/http"
	"strings"

	"telegram-catalog/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const principalKey = "principal"

// Principal is the authenticated caller: an admin (via JWT) or a bot (via
// API key). BotIdentifier is the tenant every query is scoped to.
type Principal struct {
	AdminID       uint
	BotIdentifier string
	IsSuper       bool
	IsBot         bool
}

// Current returns the principal stored by one of the auth middlewares.
func Current(c *gin.Context) *Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*Principal)
	return p
}

func SetPrincipal(c *gin.Context, p *Principal) {
	c.Set(principalKey, p)
}

// AdminAuth requires a valid admin JWT in "Authorization: Bearer <token>".
func AdminAuth(tokens *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format (must be Bearer)"})
			c.Abort()
			return
		}

		principal, err := tokens.Validate(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		SetPrincipal(c, principal)
		c.Next()
	}
}

// SuperAdminOnly must run after AdminAuth.
func SuperAdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := Current(c)
		if p == nil || !p.IsSuper {
			c.JSON(http.StatusForbidden, gin.H{"error": "Super admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// BotAuth authenticates bot runtimes by API key. The "Bearer " prefix is
// optional.
func BotAuth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if apiKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No API key provided"})
			c.Abort()
			return
		}

		var bot models.Bot
		err := db.WithContext(c.Request.Context()).Where("api_key = ?", apiKey).First(&bot).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			c.Abort()
			return
		}

		SetPrincipal(c, &Principal{BotIdentifier: bot.BotIdentifier, IsBot: true})
		c.Next()
	}
}
