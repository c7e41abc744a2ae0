package gallery

import (
	"errors"
	"net/http"
	"strconv"

	"rentalhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ReplaceRequest struct {
	URLs []string `json:"urls" binding:"required"`
}

type Handler struct {
	service *Service
	log     logrus.FieldLogger
}

func NewHandler(service *Service, log logrus.FieldLogger) *Handler {
	return &Handler{service: service, log: log}
}

// RegisterRoutes mounts the image routes behind the given guards, normally
// owner role plus property ownership.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, guards ...gin.HandlerFunc) {
	images := r.Group("/properties/:id/images", guards...)
	{
		images.GET("", h.ListImages)
		images.PUT("", h.ReplaceImages)
	}
}

func (h *Handler) ListImages(c *gin.Context) {
	id, ok := propertyID(c)
	if !ok {
		return
	}
	images, err := h.service.List(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"images": images})
}

func (h *Handler) ReplaceImages(c *gin.Context) {
	id, ok := propertyID(c)
	if !ok {
		return
	}

	var req ReplaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidBody(c, "urls must be an array", err)
		return
	}

	images, stats, err := h.service.Replace(c.Request.Context(), id, req.URLs)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"images": images, "stats": stats})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, response.CodeValidation, err.Error())
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Property not found")
	default:
		h.log.WithError(err).Error("property images request failed")
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Failed to update images")
	}
}

func propertyID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid property id")
		return 0, false
	}
	return id, true
}
