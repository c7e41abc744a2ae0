package booking

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.GET("/properties/:id/booked-dates", h.GetBookedDates)
}

// RegisterRoutes expects r to be behind JWT auth.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, ownerOnly, travelerOnly gin.HandlerFunc) {
	bookings := r.Group("/bookings")
	{
		bookings.POST("", travelerOnly, h.SubmitBooking)
		bookings.GET("/mine", travelerOnly, h.GetMine)
		bookings.GET("/incoming", ownerOnly, h.GetIncoming)
		bookings.PATCH("/:id/accept", ownerOnly, h.AcceptBooking)
		bookings.PATCH("/:id/cancel", ownerOnly, h.CancelBooking)
	}
}
