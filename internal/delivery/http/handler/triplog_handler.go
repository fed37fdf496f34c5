package handler

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	domainTripLog "rx-logistics/internal/domain/triplog"
	"rx-logistics/internal/usecase/triplog"
	"rx-logistics/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// payloadField carries the JSON body of a multipart submission.
const payloadField = "payload"

type TripLogHandler struct {
	service *triplog.Service
}

func NewTripLogHandler(service *triplog.Service) *TripLogHandler {
	return &TripLogHandler{service: service}
}

// RegisterRoutes mounts the authenticated trip log endpoints.
func (h *TripLogHandler) RegisterRoutes(router *gin.RouterGroup, submitters, reviewers gin.HandlerFunc) {
	router.GET("/questions", h.Questions)

	logs := router.Group("/trip-logs")
	{
		logs.POST("", submitters, h.Submit)
		logs.GET("", h.List)
		logs.GET("/export.csv", reviewers, h.ExportCSV)
		logs.GET("/:id", h.Get)
		logs.PUT("/:id", h.Edit)
		logs.DELETE("/:id", h.Delete)
		logs.GET("/:id/print", h.Print)
		logs.POST("/:id/share", h.Share)
	}
}

// RegisterShareRoutes mounts the public pages reached through share links.
func (h *TripLogHandler) RegisterShareRoutes(router gin.IRoutes) {
	router.GET("/share/:token", h.SharedPage)
	router.GET("/share/:token/print", h.SharedPrint)
}

func (h *TripLogHandler) Questions(c *gin.Context) {
	questions, err := h.service.Questions(c.Query("trip_type"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Questions retrieved successfully", questions)
}

func (h *TripLogHandler) Submit(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}

	req, photos, ok := bindSubmission(c)
	if !ok {
		return
	}
	defer closePhotos(photos)

	log, err := h.service.Submit(c.Request.Context(), v, req, photos)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Trip log submitted successfully", log)
}

func (h *TripLogHandler) Edit(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	id, ok := parseLogID(c)
	if !ok {
		return
	}

	req, photos, ok := bindSubmission(c)
	if !ok {
		return
	}
	defer closePhotos(photos)

	log, err := h.service.Edit(c.Request.Context(), v, id, req, photos)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trip log updated successfully", log)
}

func (h *TripLogHandler) Delete(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	id, ok := parseLogID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), v, id); err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trip log deleted successfully", nil)
}

func (h *TripLogHandler) Get(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	id, ok := parseLogID(c)
	if !ok {
		return
	}

	log, err := h.service.Get(c.Request.Context(), v, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trip log retrieved successfully", log)
}

func (h *TripLogHandler) List(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}

	var req triplog.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	logs, err := h.service.List(c.Request.Context(), v, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trip logs retrieved successfully", logs)
}

func (h *TripLogHandler) ExportCSV(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}

	var req triplog.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	// buffered so a failed export still gets a JSON error
	var buf bytes.Buffer
	if err := h.service.ExportCSV(c.Request.Context(), v, &req, &buf); err != nil {
		respondWithError(c, err)
		return
	}

	filename := fmt.Sprintf("trip-logs-%s.csv", h.service.Today())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *TripLogHandler) Print(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	id, ok := parseLogID(c)
	if !ok {
		return
	}

	page, err := h.service.PrintHTML(c.Request.Context(), v, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func (h *TripLogHandler) Share(c *gin.Context) {
	v, ok := viewer(c)
	if !ok {
		return
	}
	id, ok := parseLogID(c)
	if !ok {
		return
	}

	share, err := h.service.GenerateShareToken(c.Request.Context(), v, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Share link ready", share)
}

func (h *TripLogHandler) SharedPage(c *gin.Context) {
	page, err := h.service.SharedHTML(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func (h *TripLogHandler) SharedPrint(c *gin.Context) {
	page, err := h.service.SharedPrintHTML(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// bindSubmission reads a trip log from either a multipart form, with the
// JSON in the payload field and photos under their slot names, or a plain
// JSON body without photos.
func bindSubmission(c *gin.Context) (*triplog.TripLogRequest, triplog.Photos, bool) {
	var req triplog.TripLogRequest
	photos := triplog.Photos{}

	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
			return nil, nil, false
		}
		return &req, photos, true
	}

	form, err := c.MultipartForm()
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid multipart form")
		return nil, nil, false
	}

	payload := form.Value[payloadField]
	if len(payload) == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "Missing payload field")
		return nil, nil, false
	}
	if err := binding.JSON.BindBody([]byte(payload[0]), &req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return nil, nil, false
	}

	for _, slot := range domainTripLog.PhotoSlots() {
		files := form.File[string(slot)]
		if len(files) == 0 {
			continue
		}
		photo, err := openPhoto(slot, files[0])
		if err != nil {
			closePhotos(photos)
			utils.ErrorResponse(c, http.StatusBadRequest, "Unreadable photo: "+string(slot))
			return nil, nil, false
		}
		photos[slot] = photo
	}

	return &req, photos, true
}

func openPhoto(slot domainTripLog.PhotoSlot, fh *multipart.FileHeader) (*domainTripLog.Photo, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	return &domainTripLog.Photo{
		Slot:        slot,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, nil
}

func closePhotos(photos triplog.Photos) {
	for _, p := range photos {
		if f, ok := p.Body.(multipart.File); ok {
			_ = f.Close()
		}
	}
}
