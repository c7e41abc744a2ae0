package property

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"rentalhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ImageLookup resolves the cover image of a property.
type ImageLookup interface {
	FirstImageURL(ctx context.Context, propertyID int64) (string, error)
}

type Handler struct {
	repo   *Repository
	images ImageLookup
	log    logrus.FieldLogger
}

func NewHandler(repo *Repository, images ImageLookup, log logrus.FieldLogger) *Handler {
	return &Handler{repo: repo, images: images, log: log}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/properties/:id", h.GetProperty)
}

func (h *Handler) GetProperty(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid property id")
		return
	}

	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "Property not found")
			return
		}
		h.log.WithError(err).WithField("property_id", id).Error("get property failed")
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Failed to load property")
		return
	}

	details := Details{Property: *p}
	if h.images != nil {
		url, err := h.images.FirstImageURL(c.Request.Context(), id)
		if err != nil {
			h.log.WithError(err).WithField("property_id", id).Warn("first image lookup failed")
		} else if url != "" {
			details.FirstImageURL = &url
		}
	}

	response.Success(c, http.StatusOK, details)
}
