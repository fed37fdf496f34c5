package handler

import (
	"net/http"

	"rx-logistics/internal/usecase/feedback"
	"rx-logistics/pkg/utils"

	"github.com/gin-gonic/gin"
)

type FeedbackHandler struct {
	service *feedback.Service
}

func NewFeedbackHandler(service *feedback.Service) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

// RegisterRoutes mounts the public submission form.
func (h *FeedbackHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/feedback/subjects", h.Subjects)
	router.POST("/feedback", h.Submit)
}

func (h *FeedbackHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	inbox := router.Group("/feedback")
	{
		inbox.GET("", h.List)
		inbox.POST("/read", h.MarkRead)
		inbox.DELETE("", h.Delete)
	}
}

func (h *FeedbackHandler) Subjects(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Subjects retrieved successfully", h.service.Subjects())
}

func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req feedback.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	fb, err := h.service.Submit(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Thanks for your feedback", fb)
}

func (h *FeedbackHandler) List(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}

	var req feedback.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	items, err := h.service.List(c.Request.Context(), v, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Feedback retrieved successfully", items)
}

func (h *FeedbackHandler) MarkRead(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}

	var req feedback.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.MarkRead(c.Request.Context(), v, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Feedback updated successfully", result)
}

func (h *FeedbackHandler) Delete(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}

	var req feedback.SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Delete(c.Request.Context(), v, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Feedback deleted successfully", result)
}
