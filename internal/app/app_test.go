package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rentalhub/internal/config"
	"rentalhub/internal/domain"
	"rentalhub/internal/domain/media"
	"rentalhub/internal/domain/notification"
	"rentalhub/internal/domain/property"
	"rentalhub/internal/pkg/logger"
	"rentalhub/internal/pkg/objectstore"
	"rentalhub/internal/relay"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const publicBase = "https://cdn.test/media"

type TestResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorDetail    `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

type suite struct {
	app      *App
	router   *gin.Engine
	owner    string
	stranger string
	traveler string
}

func testConfig(name string) *config.Config {
	return &config.Config{
		AppEnv:              "test",
		HTTPAddr:            ":0",
		DatabaseURL:         fmt.Sprintf("file:app_%s?mode=memory&cache=shared", name),
		JWTSecret:           "test-secret",
		LogLevel:            "error",
		LogFormat:           "text",
		ObjectStore:         "memory",
		AWSRegion:           "us-east-1",
		S3PublicBase:        publicBase,
		UploadURLTTL:        time.Minute,
		FinalizeAttempts:    2,
		StagingMaxAge:       time.Hour,
		RelayBroker:         "memory",
		RelayExchange:       "test",
		RelayQueue:          "test",
		RelayPrefetch:       1,
		BookedDatesCacheTTL: time.Minute,
		BlockedDatesPolicy:  "all",
	}
}

func setupSuite(t *testing.T) *suite {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	a, err := New(ctx, testConfig(strings.ReplaceAll(t.Name(), "/", "_")), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	require.NoError(t, a.Migrate(ctx))

	users := []domain.User{
		{ID: 1, Role: domain.RoleOwner, Name: "Olive", Email: "olive@example.com", PasswordHash: "x"},
		{ID: 2, Role: domain.RoleOwner, Name: "Sam", Email: "sam@example.com", PasswordHash: "x"},
		{ID: 20, Role: domain.RoleTraveler, Name: "Tara", Email: "tara@example.com", PasswordHash: "x"},
	}
	require.NoError(t, a.DB.Create(&users).Error)
	require.NoError(t, a.Properties.Create(ctx, &property.Property{ID: 5, OwnerID: 1, Name: "Lake house", PricePerNight: 120}))

	s := &suite{app: a, router: a.Router()}
	s.owner, _ = a.JWT.GenerateToken(1, string(domain.RoleOwner))
	s.stranger, _ = a.JWT.GenerateToken(2, string(domain.RoleOwner))
	s.traveler, _ = a.JWT.GenerateToken(20, string(domain.RoleTraveler))
	return s
}

func (s *suite) do(t *testing.T, method, path, token string, body any) (int, TestResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp TestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestHealth(t *testing.T) {
	s := setupSuite(t)
	code, resp := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
}

func TestBookingFlow(t *testing.T) {
	s := setupSuite(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.app.SubscribeConsumers(ctx)
	go func() { _ = s.app.Relay.Run(ctx) }()
	broker := s.app.Broker.(*relay.MemoryBroker)
	require.Eventually(t, func() bool { return broker.Subscribers() > 0 }, time.Second, time.Millisecond)

	code, resp := s.do(t, http.MethodPost, "/api/v1/bookings", s.traveler, gin.H{
		"property_id": 5, "start_date": "2024-06-01", "end_date": "2024-06-10", "guests": 2,
	})
	require.Equal(t, http.StatusCreated, code)
	first := decode[struct {
		Booking struct {
			ID int64 `json:"id"`
		} `json:"booking"`
	}](t, resp.Data).Booking.ID

	code, resp = s.do(t, http.MethodPost, "/api/v1/bookings", s.traveler, gin.H{
		"property_id": 5, "start_date": "2024-06-05", "end_date": "2024-06-07", "guests": 1,
	})
	require.Equal(t, http.StatusCreated, code)
	second := decode[struct {
		Booking struct {
			ID int64 `json:"id"`
		} `json:"booking"`
	}](t, resp.Data).Booking.ID

	// owners cannot book, travelers cannot accept
	code, _ = s.do(t, http.MethodPost, "/api/v1/bookings", s.owner, gin.H{
		"property_id": 5, "start_date": "2024-07-01", "end_date": "2024-07-02", "guests": 1,
	})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/bookings/%d/accept", first), s.traveler, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, resp = s.do(t, http.MethodGet, "/api/v1/bookings/incoming", s.owner, nil)
	require.Equal(t, http.StatusOK, code)
	incoming := decode[struct {
		Bookings []json.RawMessage `json:"bookings"`
	}](t, resp.Data)
	assert.Len(t, incoming.Bookings, 2)

	code, _ = s.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/bookings/%d/accept", first), s.stranger, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, resp = s.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/bookings/%d/accept", first), s.owner, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Booking accepted", decode[struct {
		Message string `json:"message"`
	}](t, resp.Data).Message)

	code, resp = s.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/bookings/%d/accept", second), s.owner, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "BOOKING_CONFLICT", resp.Error.Code)

	code, resp = s.do(t, http.MethodGet, "/api/v1/properties/5/booked-dates", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), "2024-06-01T00:00:00Z")

	require.Eventually(t, func() bool {
		_, unread, err := s.app.Notifications.List(context.Background(), 20, 0, 0)
		return err == nil && unread == 1
	}, 2*time.Second, 20*time.Millisecond)

	code, resp = s.do(t, http.MethodGet, "/api/v1/notifications", s.owner, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(2), decode[struct {
		UnreadCount int64 `json:"unread_count"`
	}](t, resp.Data).UnreadCount)
}

func TestMediaAndGalleryFlow(t *testing.T) {
	s := setupSuite(t)
	store := s.app.Store.(*objectstore.MemoryStore)

	code, resp := s.do(t, http.MethodPost, "/api/v1/uploads/presign-temp", s.owner, gin.H{
		"filename": "porch.jpg", "content_type": "image/jpeg",
	})
	require.Equal(t, http.StatusOK, code)
	auth := decode[media.UploadAuthorization](t, resp.Data)
	store.Put(auth.Key, "image/jpeg", media.CacheStaging, []byte("jpeg"))

	code, resp = s.do(t, http.MethodPost, "/api/v1/uploads/finalize", s.owner, gin.H{
		"property_id": 5, "temp_urls": []string{auth.PublicURL},
	})
	require.Equal(t, http.StatusOK, code)
	finalized := decode[media.FinalizeResult](t, resp.Data)
	require.Len(t, finalized.FinalURLs, 1)

	code, _ = s.do(t, http.MethodPut, "/api/v1/properties/5/images", s.stranger, gin.H{"urls": finalized.FinalURLs})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodPut, "/api/v1/properties/5/images", s.owner, gin.H{"urls": finalized.FinalURLs})
	require.Equal(t, http.StatusOK, code)

	code, resp = s.do(t, http.MethodGet, "/api/v1/properties/5", "", nil)
	require.Equal(t, http.StatusOK, code)
	details := decode[struct {
		Name          string  `json:"name"`
		FirstImageURL *string `json:"first_image_url"`
	}](t, resp.Data)
	assert.Equal(t, "Lake house", details.Name)
	require.NotNil(t, details.FirstImageURL)
	assert.Equal(t, finalized.FinalURLs[0], *details.FirstImageURL)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := setupSuite(t)
	for _, path := range []string{"/api/v1/bookings/mine", "/api/v1/notifications", "/api/v1/properties/5/images"} {
		code, resp := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, code, path)
		assert.Equal(t, "AUTH_HEADER_MISSING", resp.Error.Code, path)
	}
}

func TestValidationDetailsUseJSONNames(t *testing.T) {
	s := setupSuite(t)
	code, resp := s.do(t, http.MethodPost, "/api/v1/bookings", s.traveler, gin.H{"property_id": 5})
	require.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, "required", resp.Error.Details["start_date"])
}

func TestPresignRequiresFilename(t *testing.T) {
	s := setupSuite(t)
	code, resp := s.do(t, http.MethodPost, "/api/v1/uploads/presign-temp", s.owner, gin.H{
		"file_name": "a.jpg", "content_type": "image/jpeg",
	})
	require.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "required", resp.Error.Details["filename"])

	code, _ = s.do(t, http.MethodPost, "/api/v1/uploads/presign-profile", s.traveler, gin.H{
		"filename": "me.png", "content_type": "image/png",
	})
	assert.Equal(t, http.StatusOK, code)
}

func TestSubscribeConsumersStartsRetentionSweep(t *testing.T) {
	s := setupSuite(t)
	old := time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, s.app.DB.Create(&notification.Notification{
		UserID: 20, Type: notification.TypeBookingAccepted, Title: "t", EventID: "old", IsRead: true, CreatedAt: old,
	}).Error)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.app.NotificationCleanup = notification.CleanupConfig{Retention: 24 * time.Hour, Interval: 10 * time.Millisecond}
	s.app.SubscribeConsumers(ctx)

	assert.Eventually(t, func() bool {
		var n int64
		if err := s.app.DB.Model(&notification.Notification{}).Count(&n).Error; err != nil {
			return false
		}
		return n == 0
	}, 2*time.Second, 20*time.Millisecond)
}
