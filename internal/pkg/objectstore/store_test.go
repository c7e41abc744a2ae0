package objectstore

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CopyReplacesMetadata(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("https://cdn.example.com/")

	m.Put("staging/42/a.png", "image/png", "public, max-age=86400", []byte("png"))

	require.NoError(t, m.Copy(ctx, "staging/42/a.png", "properties/7/a.png", "image/png", "public, max-age=31536000, immutable"))

	obj, err := m.Head(ctx, "properties/7/a.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, "public, max-age=31536000, immutable", obj.CacheControl)
	assert.Equal(t, int64(3), obj.Size)

	require.NoError(t, m.Delete(ctx, "staging/42/a.png"))
	_, err = m.Head(ctx, "staging/42/a.png")
	assert.ErrorIs(t, err, ErrNotFound)

	err = m.Copy(ctx, "staging/42/a.png", "properties/7/a.png", "image/png", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ListByPrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("https://cdn.example.com")
	m.Put("staging/1/b.jpg", "image/jpeg", "", nil)
	m.Put("staging/1/a.jpg", "image/jpeg", "", nil)
	m.Put("staging/2/c.jpg", "image/jpeg", "", nil)

	objs, err := m.List(ctx, "staging/1/")
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "staging/1/a.jpg", objs[0].Key)
	assert.Equal(t, "staging/1/b.jpg", objs[1].Key)
}

func TestMemoryStore_PresignPut(t *testing.T) {
	m := NewMemory("https://cdn.example.com")
	p, err := m.PresignPut(context.Background(), "properties/1/x.jpg", PutOptions{
		ContentType:  "image/jpeg",
		CacheControl: "public, max-age=31536000, immutable",
		TTL:          time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, p.Method)
	assert.Contains(t, p.URL, "https://cdn.example.com/properties/1/x.jpg?")
	assert.Equal(t, "image/jpeg", p.Headers.Get("Content-Type"))
}

func TestS3Store_PresignPutIsOffline(t *testing.T) {
	s, err := NewS3(context.Background(), S3Options{
		Bucket:    "media",
		Region:    "us-east-1",
		Endpoint:  "http://localhost:9000",
		AccessKey: "test",
		SecretKey: "test",
	})
	require.NoError(t, err)

	p, err := s.PresignPut(context.Background(), "properties/9/pic.webp", PutOptions{
		ContentType:  "image/webp",
		CacheControl: "public, max-age=31536000, immutable",
		TTL:          60 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, p.Method)
	assert.Contains(t, p.URL, "http://localhost:9000/media/properties/9/pic.webp")
	assert.Contains(t, p.URL, "X-Amz-Expires=60")
}

func TestNewS3_RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), S3Options{Region: "us-east-1"})
	assert.Error(t, err)
}

func TestCopySource_EscapesSegments(t *testing.T) {
	assert.Equal(t, "media/staging/42/my%20pic.jpg", copySource("media", "staging/42/my pic.jpg"))
}
