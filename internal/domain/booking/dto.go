package booking

type SubmitRequest struct {
	PropertyID int64  `json:"property_id" binding:"required"`
	StartDate  string `json:"start_date" binding:"required"`
	EndDate    string `json:"end_date" binding:"required"`
	Guests     int    `json:"guests" binding:"required,min=1"`
}

// BookingResponse renders dates as YYYY-MM-DD.
type BookingResponse struct {
	ID           int64  `json:"id"`
	TravelerID   int64  `json:"traveler_id"`
	PropertyID   int64  `json:"property_id"`
	PropertyName string `json:"property_name,omitempty"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Guests       int    `json:"guests"`
	Status       Status `json:"status"`
	CreatedAt    string `json:"created_at"`
}

type TravelerBookingsResponse struct {
	Pending  []BookingResponse `json:"pending"`
	Accepted []BookingResponse `json:"accepted"`
	Canceled []BookingResponse `json:"canceled"`
	Past     []BookingResponse `json:"past"`
}

type ResultResponse struct {
	Message string           `json:"message"`
	Booking *BookingResponse `json:"booking,omitempty"`
}

func toResponse(b *Booking, propertyName string) BookingResponse {
	return BookingResponse{
		ID:           b.ID,
		TravelerID:   b.TravelerID,
		PropertyID:   b.PropertyID,
		PropertyName: propertyName,
		StartDate:    b.StartDate.UTC().Format(DateLayout),
		EndDate:      b.EndDate.UTC().Format(DateLayout),
		Guests:       b.Guests,
		Status:       b.Status,
		CreatedAt:    b.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toTravelerResponses(rows []TravelerBooking) []BookingResponse {
	out := make([]BookingResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toResponse(&rows[i].Booking, rows[i].PropertyName))
	}
	return out
}
