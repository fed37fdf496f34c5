package middleware

import (
	"context"
	"net/http"
	"strings"

	"rx-logistics/internal/config"
	domainUser "rx-logistics/internal/domain/user"
	"rx-logistics/internal/logger"
	appErrors "rx-logistics/pkg/errors"
	"rx-logistics/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Context keys set by AuthMiddleware.
const (
	UserIDKey = "userID"
	EmailKey  = "email"
	RoleKey   = "role"
)

// AccountChecker loads the current state of the account a token was issued to.
type AccountChecker interface {
	ActiveAccount(ctx context.Context, userID uuid.UUID) (*domainUser.User, error)
}

// AuthMiddleware accepts a valid access token only while its account is
// still active, and sets the account's current role on the context.
func AuthMiddleware(cfg *config.Config, accounts AccountChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ValidateTokenOfType(parts[1], cfg.JWT.Secret, utils.TokenTypeAccess)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		account, err := accounts.ActiveAccount(c.Request.Context(), claims.UserID)
		if err != nil {
			appErr, ok := utils.AsAppError(err)
			if !ok {
				logger.Error("Failed to check account",
					zap.String("request_id", GetRequestID(c)),
					zap.String("user_id", claims.UserID.String()),
					zap.Error(err),
				)
				utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
				c.Abort()
				return
			}
			if appErr.Code == appErrors.CodeUnauthorized {
				logger.Warn("Token refused for account",
					zap.String("request_id", GetRequestID(c)),
					zap.String("user_id", claims.UserID.String()),
				)
			}
			utils.AppErrorResponse(c, appErr)
			c.Abort()
			return
		}

		c.Set(UserIDKey, account.ID)
		c.Set(EmailKey, account.Email)
		c.Set(RoleKey, account.Role)

		c.Next()
	}
}
