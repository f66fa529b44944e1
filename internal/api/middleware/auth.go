package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/config"
	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
)

const ActorContextKey = "actor"

// AuthMiddleware authenticates requests using API key. The key in the
// Authorization header is verified against the configured bcrypt hashes;
// which hash matches determines the caller's role. The X-Actor-ID header
// identifies the individual operator for the status history log.
func AuthMiddleware(cfg config.APIConfig, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		apiKey := strings.TrimSpace(parts[1])
		if apiKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			c.Abort()
			return
		}

		role, ok := resolveRole(cfg, apiKey)
		if !ok {
			logger.Warn("Rejected request with invalid API key",
				zap.String("path", c.Request.URL.Path))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			c.Abort()
			return
		}

		userID := strings.TrimSpace(c.GetHeader("X-Actor-ID"))
		if userID == "" {
			userID = string(role)
		}

		c.Set(ActorContextKey, domain.Actor{UserID: userID, Role: role})
		c.Next()
	}
}

// RequireAdmin rejects non-admin actors. Must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActorFromContext(c)
		if !ok || actor.Role != domain.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetActorFromContext retrieves the authenticated actor from the Gin context
func GetActorFromContext(c *gin.Context) (domain.Actor, bool) {
	v, exists := c.Get(ActorContextKey)
	if !exists {
		return domain.Actor{}, false
	}
	actor, ok := v.(domain.Actor)
	return actor, ok
}

func resolveRole(cfg config.APIConfig, apiKey string) (domain.Role, bool) {
	if cfg.AdminKeyHash != "" && verifyAPIKey(apiKey, cfg.AdminKeyHash) {
		return domain.RoleAdmin, true
	}
	if cfg.CustomerKeyHash != "" && verifyAPIKey(apiKey, cfg.CustomerKeyHash) {
		return domain.RoleCustomer, true
	}
	return "", false
}

func verifyAPIKey(apiKey, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(apiKey)) == nil
}
