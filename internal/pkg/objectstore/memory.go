package objectstore

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps objects in process. Presigned URLs point at the public
// base and are not actually writable; tests call Put directly.
type MemoryStore struct {
	mu      sync.RWMutex
	base    string
	objects map[string]memObject
	now     func() time.Time
}

type memObject struct {
	Object
	data []byte
}

func NewMemory(publicBase string) *MemoryStore {
	return &MemoryStore{
		base:    strings.TrimRight(publicBase, "/"),
		objects: make(map[string]memObject),
		now:     time.Now,
	}
}

// Put stores data under key as if a client completed a presigned upload.
func (m *MemoryStore) Put(key, contentType, cacheControl string, data []byte) {
	m.PutAt(key, contentType, cacheControl, data, m.now())
}

func (m *MemoryStore) PutAt(key, contentType, cacheControl string, data []byte, modified time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memObject{
		Object: Object{
			Key:          key,
			ContentType:  contentType,
			CacheControl: cacheControl,
			Size:         int64(len(data)),
			LastModified: modified,
		},
		data: append([]byte(nil), data...),
	}
}

func (m *MemoryStore) PresignPut(_ context.Context, key string, opts PutOptions) (*Presigned, error) {
	headers := http.Header{}
	if opts.ContentType != "" {
		headers.Set("Content-Type", opts.ContentType)
	}
	if opts.CacheControl != "" {
		headers.Set("Cache-Control", opts.CacheControl)
	}
	return &Presigned{
		URL:       m.base + "/" + key + "?signature=" + uuid.NewString(),
		Method:    http.MethodPut,
		Headers:   headers,
		ExpiresAt: m.now().Add(opts.TTL),
	}, nil
}

func (m *MemoryStore) Head(_ context.Context, key string) (*Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	o := obj.Object
	return &o, nil
}

func (m *MemoryStore) Copy(_ context.Context, srcKey, dstKey, contentType, cacheControl string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.objects[srcKey]
	if !ok {
		return ErrNotFound
	}
	dst := src
	dst.Key = dstKey
	dst.ContentType = contentType
	dst.CacheControl = cacheControl
	dst.LastModified = m.now()
	m.objects[dstKey] = dst
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) List(_ context.Context, prefix string) ([]Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Object
	for k, obj := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, obj.Object)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
