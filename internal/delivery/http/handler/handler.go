package handler

import (
	"net/http"
	"strconv"

	domainUser "rx-logistics/internal/domain/user"
	"rx-logistics/internal/logger"
	"rx-logistics/internal/middleware"
	appErrors "rx-logistics/pkg/errors"
	"rx-logistics/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// viewer returns the authenticated identity set by the auth middleware.
func viewer(c *gin.Context) (domainUser.Viewer, bool) {
	id, ok := c.Get(middleware.UserIDKey)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "User not authenticated")
		return domainUser.Viewer{}, false
	}
	userID, ok := id.(uuid.UUID)
	if !ok {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Invalid user identifier")
		return domainUser.Viewer{}, false
	}
	role, _ := c.Get(middleware.RoleKey)
	userRole, _ := role.(domainUser.Role)

	return domainUser.Viewer{ID: userID, Role: userRole}, true
}

func parseLogID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid trip log ID")
		return 0, false
	}
	return id, true
}

func parseUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid user ID")
		return uuid.Nil, false
	}
	return id, true
}

func respondWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	appErr, ok := utils.AsAppError(err)
	if !ok {
		logger.Error("Internal server error",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Error(err),
		)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	status := utils.StatusForCode(appErr.Code)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.String("code", appErr.Code),
			zap.Error(err),
		)
		c.JSON(status, utils.Response{
			Success: false,
			Error:   appErr.Error(),
			Code:    appErr.Code,
		})
		return
	}

	utils.AppErrorResponse(c, appErr)
}
