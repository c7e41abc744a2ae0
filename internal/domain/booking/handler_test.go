package booking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"rentalhub/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func asUser(id int64, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", id)
		c.Set("role", role)
		c.Next()
	}
}

func newTestRouter(f *ledgerFixture, userID int64, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(f.svc, logger.Discard())

	api := r.Group("/api/v1")
	h.RegisterPublicRoutes(api)
	authed := api.Group("", asUser(userID, role))
	pass := func(c *gin.Context) { c.Next() }
	h.RegisterRoutes(authed, pass, pass)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestHandler_SubmitAndList(t *testing.T) {
	f := setupLedger(t, PolicyAll)
	traveler := newTestRouter(f, 20, "traveler")

	w, env := do(t, traveler, http.MethodPost, "/api/v1/bookings", gin.H{
		"property_id": 5, "start_date": "2024-06-01", "end_date": "2024-06-04", "guests": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Booking BookingResponse `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, StatusPending, created.Booking.Status)
	assert.Equal(t, "2024-06-04", created.Booking.EndDate)

	w, env = do(t, traveler, http.MethodGet, "/api/v1/bookings/mine", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine TravelerBookingsResponse
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine.Pending, 1)
	assert.Equal(t, "Lake house", mine.Pending[0].PropertyName)
	assert.NotNil(t, mine.Past)
}

func TestHandler_SubmitErrors(t *testing.T) {
	f := setupLedger(t, PolicyAll)
	traveler := newTestRouter(f, 20, "traveler")

	w, env := do(t, traveler, http.MethodPost, "/api/v1/bookings", gin.H{"property_id": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	w, env = do(t, traveler, http.MethodPost, "/api/v1/bookings", gin.H{
		"property_id": 5, "start_date": "2024-06-04", "end_date": "2024-06-01", "guests": 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	w, env = do(t, traveler, http.MethodPost, "/api/v1/bookings", gin.H{
		"property_id": 404, "start_date": "2024-06-01", "end_date": "2024-06-04", "guests": 1,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestHandler_AcceptConflictAndNotFound(t *testing.T) {
	f := setupLedger(t, PolicyAll)
	f.insert(t, 5, "2024-06-01", "2024-06-10", StatusAccepted)
	b := f.insert(t, 5, "2024-06-05", "2024-06-07", StatusPending)

	owner := newTestRouter(f, 1, "owner")
	w, env := do(t, owner, http.MethodPatch, fmt.Sprintf("/api/v1/bookings/%d/accept", b.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "BOOKING_CONFLICT", env.Error.Code)

	stranger := newTestRouter(f, 2, "owner")
	w, env = do(t, stranger, http.MethodPatch, fmt.Sprintf("/api/v1/bookings/%d/cancel", b.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	w, env = do(t, owner, http.MethodPatch, fmt.Sprintf("/api/v1/bookings/%d/cancel", b.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var res ResultResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "Booking cancelled", res.Message)
	assert.Equal(t, StatusCancelled, res.Booking.Status)

	w, _ = do(t, owner, http.MethodPatch, "/api/v1/bookings/abc/accept", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_BookedDatesIsPublic(t *testing.T) {
	f := setupLedger(t, PolicyAll)
	f.insert(t, 5, "2024-06-01", "2024-06-10", StatusPending)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(f.svc, logger.Discard()).RegisterPublicRoutes(&r.RouterGroup)

	w, env := do(t, r, http.MethodGet, "/properties/5/booked-dates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Booked []struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"booked"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.Len(t, body.Booked, 1)
	assert.Equal(t, "2024-06-01T00:00:00Z", body.Booked[0].Start)
	assert.Equal(t, "2024-06-10T23:59:59.999Z", body.Booked[0].End)
}
