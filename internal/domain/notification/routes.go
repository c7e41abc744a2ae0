package notification

import "github.com/gin-gonic/gin"

// RegisterRoutes expects protected to be behind JWT auth.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	group := protected.Group("/notifications")
	{
		group.GET("", h.GetNotifications)
		group.PATCH("/:id/read", h.MarkAsRead)
	}
}
