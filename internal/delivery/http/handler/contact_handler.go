package handler

import (
	"net/http"

	"rx-logistics/internal/usecase/contact"
	"rx-logistics/pkg/utils"

	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	service *contact.Service
}

func NewContactHandler(service *contact.Service) *ContactHandler {
	return &ContactHandler{service: service}
}

func (h *ContactHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/contacts", h.Directory)
	router.GET("/routes", h.Routes)
}

func (h *ContactHandler) Directory(c *gin.Context) {
	dir, err := h.service.Directory(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Contacts retrieved successfully", dir)
}

func (h *ContactHandler) Routes(c *gin.Context) {
	routes, err := h.service.Routes(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Routes retrieved successfully", routes)
}
