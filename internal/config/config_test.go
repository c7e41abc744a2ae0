package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("ENV", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, 60*time.Second, cfg.UploadURLTTL)
	assert.Equal(t, "memory", cfg.ObjectStore)
	assert.Equal(t, "memory", cfg.RelayBroker)
	assert.Equal(t, "all", cfg.BlockedDatesPolicy)
	assert.Equal(t, 3, cfg.FinalizeAttempts)
	assert.Equal(t, 5*time.Second, cfg.FinalizeMaxDelay)
	assert.False(t, cfg.IsProd())
}

func TestLoad_OverridesAndTrimming(t *testing.T) {
	t.Setenv("S3_PUBLIC_BASE", "https://cdn.example.com/bucket///")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("BLOCKED_DATES_POLICY", "Accepted")
	t.Setenv("UPLOAD_URL_TTL", "2m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/bucket", cfg.S3PublicBase)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, "accepted", cfg.BlockedDatesPolicy)
	assert.Equal(t, 2*time.Minute, cfg.UploadURLTTL)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("UPLOAD_URL_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UPLOAD_URL_TTL")
}

func TestLoad_S3RequiresBucket(t *testing.T) {
	t.Setenv("OBJECT_STORE", "s3")
	t.Setenv("S3_BUCKET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3Bucket")
}

func TestLoad_UnknownPolicyRejected(t *testing.T) {
	t.Setenv("BLOCKED_DATES_POLICY", "pending-only")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_ProdRejectsDevDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "a-real-secret")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OBJECT_STORE")

	t.Setenv("OBJECT_STORE", "s3")
	t.Setenv("S3_BUCKET", "rentalhub-media")
	t.Setenv("RELAY_BROKER", "amqp")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProd())
}
