package booking

import (
	"errors"
	"net/http"
	"strconv"

	"rentalhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	service *Service
	log     logrus.FieldLogger
}

func NewHandler(service *Service, log logrus.FieldLogger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) SubmitBooking(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidBody(c, "Invalid request body", err)
		return
	}

	b, err := h.service.Submit(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		h.writeError(c, err, "Failed to create booking")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"booking": toResponse(b, "")})
}

func (h *Handler) GetIncoming(c *gin.Context) {
	rows, err := h.service.ListIncoming(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		h.writeError(c, err, "Failed to load bookings")
		return
	}

	out := make([]BookingResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toResponse(&rows[i].Booking, rows[i].PropertyName))
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": out})
}

func (h *Handler) GetMine(c *gin.Context) {
	groups, err := h.service.ListForTraveler(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		h.writeError(c, err, "Failed to load bookings")
		return
	}

	response.Success(c, http.StatusOK, TravelerBookingsResponse{
		Pending:  toTravelerResponses(groups.Pending),
		Accepted: toTravelerResponses(groups.Accepted),
		Canceled: toTravelerResponses(groups.Canceled),
		Past:     toTravelerResponses(groups.Past),
	})
}

func (h *Handler) AcceptBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	res, err := h.service.Accept(c.Request.Context(), id, c.GetInt64("user_id"))
	if err != nil {
		h.writeError(c, err, "Failed to accept booking")
		return
	}
	response.Success(c, http.StatusOK, toResultResponse(res))
}

func (h *Handler) CancelBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	res, err := h.service.Cancel(c.Request.Context(), id, c.GetInt64("user_id"))
	if err != nil {
		h.writeError(c, err, "Failed to cancel booking")
		return
	}
	response.Success(c, http.StatusOK, toResultResponse(res))
}

func (h *Handler) GetBookedDates(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid property id")
		return
	}

	intervals, err := h.service.BookedIntervals(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "Failed to load booked dates")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booked": intervals})
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, response.CodeValidation, err.Error())
	case errors.Is(err, ErrPropertyNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Property not found")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Booking not found")
	case errors.Is(err, ErrConflict):
		response.Error(c, http.StatusConflict, response.CodeConflict, "Date conflict with an existing accepted booking")
	default:
		h.log.WithError(err).WithField("path", c.FullPath()).Error(fallback)
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, fallback)
	}
}

func bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid booking id")
		return 0, false
	}
	return id, true
}

func toResultResponse(res *Result) ResultResponse {
	out := ResultResponse{Message: res.Message}
	if res.Booking != nil {
		b := toResponse(res.Booking, "")
		out.Booking = &b
	}
	return out
}
