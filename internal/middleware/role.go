package middleware

import (
	"net/http"

	domainUser "rx-logistics/internal/domain/user"
	"rx-logistics/pkg/utils"

	"github.com/gin-gonic/gin"
)

func RoleMiddleware(allowedRoles ...domainUser.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(RoleKey)
		if !exists {
			utils.ErrorResponse(c, http.StatusForbidden, "Role not found in context")
			c.Abort()
			return
		}

		userRole, _ := role.(domainUser.Role)

		for _, allowedRole := range allowedRoles {
			if userRole == allowedRole {
				c.Next()
				return
			}
		}

		utils.ErrorResponse(c, http.StatusForbidden, "You do not have permission to perform this action")
		c.Abort()
	}
}

func AdminOnly() gin.HandlerFunc {
	return RoleMiddleware(domainUser.RoleAdmin)
}

// Submitters may file new trip logs.
func Submitters() gin.HandlerFunc {
	return RoleMiddleware(domainUser.RoleDriver, domainUser.RoleAdmin)
}

// Reviewers may see and export every driver's logs.
func Reviewers() gin.HandlerFunc {
	return RoleMiddleware(domainUser.RoleManagement, domainUser.RoleAdmin)
}
