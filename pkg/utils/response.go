package utils

import (
	"errors"
	"net/http"

	appErrors "rx-logistics/pkg/errors"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Code    string            `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type PaginatedData struct {
	Items      interface{} `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Error:   message,
	})
}

// AppErrorResponse writes an AppError using the status its code maps to.
func AppErrorResponse(c *gin.Context, err *appErrors.AppError) {
	c.JSON(StatusForCode(err.Code), Response{
		Success: false,
		Error:   err.Message,
		Code:    err.Code,
		Fields:  err.Fields,
	})
}

func StatusForCode(code string) int {
	switch code {
	case appErrors.CodeValidation:
		return http.StatusBadRequest
	case appErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case appErrors.CodeForbidden:
		return http.StatusForbidden
	case appErrors.CodeNotFound:
		return http.StatusNotFound
	case appErrors.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AsAppError unwraps err into an AppError when one is in the chain.
func AsAppError(err error) (*appErrors.AppError, bool) {
	var appErr *appErrors.AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 1
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
