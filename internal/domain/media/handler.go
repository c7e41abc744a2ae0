package media

import (
	"errors"
	"net/http"

	"rentalhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type PresignRequest struct {
	PropertyID  int64  `json:"property_id"`
	FileName    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

type FinalizeRequest struct {
	PropertyID int64    `json:"property_id" binding:"required"`
	TempURLs   []string `json:"temp_urls" binding:"required"`
}

type DeleteRequest struct {
	URL string `json:"url" binding:"required"`
}

type Handler struct {
	service *Service
	log     logrus.FieldLogger
}

func NewHandler(service *Service, log logrus.FieldLogger) *Handler {
	return &Handler{service: service, log: log}
}

// RegisterRoutes expects r to be behind JWT auth.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, ownerOnly gin.HandlerFunc) {
	uploads := r.Group("/uploads")
	{
		uploads.POST("/presign", ownerOnly, h.Presign)
		uploads.POST("/presign-temp", ownerOnly, h.PresignTemp)
		uploads.POST("/presign-profile", h.PresignProfile)
		uploads.POST("/finalize", ownerOnly, h.Finalize)
		uploads.POST("/delete", ownerOnly, h.Delete)
	}
}

func (h *Handler) Presign(c *gin.Context) {
	var req PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidBody(c, "filename and content_type are required", err)
		return
	}
	auth, err := h.service.AuthorizeDirectUpload(c.Request.Context(), c.GetInt64("user_id"), req.PropertyID, req.FileName, req.ContentType)
	if err != nil {
		h.writeError(c, err, "Failed to create upload url")
		return
	}
	response.Success(c, http.StatusOK, auth)
}

func (h *Handler) PresignTemp(c *gin.Context) {
	var req PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidBody(c, "filename and content_type are required", err)
		return
	}
	auth, err := h.service.AuthorizeStagedUpload(c.Request.Context(), c.GetInt64("user_id"), req.FileName, req.ContentType)
	if err != nil {
		h.writeError(c, err, "Failed to create upload url")
		return
	}
	response.Success(c, http.StatusOK, auth)
}

func (h *Handler) PresignProfile(c *gin.Context) {
	var req PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidBody(c, "filename and content_type are required", err)
		return
	}
	auth, err := h.service.AuthorizeProfileUpload(c.Request.Context(), c.GetInt64("user_id"), req.FileName, req.ContentType)
	if err != nil {
		h.writeError(c, err, "Failed to create upload url")
		return
	}
	response.Success(c, http.StatusOK, auth)
}

func (h *Handler) Finalize(c *gin.Context) {
	var req FinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidBody(c, "property_id and temp_urls are required", err)
		return
	}
	res, err := h.service.Finalize(c.Request.Context(), c.GetInt64("user_id"), req.PropertyID, req.TempURLs)
	if err != nil {
		h.writeError(c, err, "Failed to finalize uploads")
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidBody(c, "url is required", err)
		return
	}
	res, err := h.service.DeleteObject(c.Request.Context(), c.GetInt64("user_id"), req.URL)
	if err != nil {
		h.writeError(c, err, "Failed to delete object")
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, response.CodeValidation, err.Error())
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Not found")
	default:
		h.log.WithError(err).WithField("path", c.FullPath()).Error(fallback)
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, fallback)
	}
}
