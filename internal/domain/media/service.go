package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rentalhub/internal/pkg/objectstore"
	"rentalhub/internal/pkg/retry"

	"github.com/sirupsen/logrus"
)

const (
	StatusFinalized = "finalized"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// OwnershipChecker is satisfied by the property repository.
type OwnershipChecker interface {
	BelongsToOwner(ctx context.Context, propertyID, ownerID int64) (bool, error)
}

type Options struct {
	PublicBase string
	UploadTTL  time.Duration
	Retry      retry.Config
	Logger     logrus.FieldLogger
}

type Service struct {
	store objectstore.Store
	props OwnershipChecker
	base  string
	ttl   time.Duration
	retry retry.Config
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewService(store objectstore.Store, props OwnershipChecker, opts Options) *Service {
	if opts.UploadTTL <= 0 {
		opts.UploadTTL = 60 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Retry.Logger == nil {
		opts.Retry.Logger = opts.Logger
	}
	return &Service{
		store: store,
		props: props,
		base:  strings.TrimRight(opts.PublicBase, "/"),
		ttl:   opts.UploadTTL,
		retry: opts.Retry,
		log:   opts.Logger,
		now:   time.Now,
	}
}

type UploadAuthorization struct {
	UploadURL string            `json:"upload_url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ExpiresAt time.Time         `json:"expires_at"`
	Key       string            `json:"key"`
	PublicURL string            `json:"public_url"`
}

type FinalizeItem struct {
	TempURL  string `json:"temp_url"`
	FinalURL string `json:"final_url,omitempty"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

type FinalizeResult struct {
	FinalURLs []string       `json:"final_urls"`
	Items     []FinalizeItem `json:"items"`
}

type DeleteResult struct {
	Deleted bool   `json:"deleted"`
	Key     string `json:"key"`
}

// AuthorizeDirectUpload presigns a PUT straight into a property the caller owns.
func (s *Service) AuthorizeDirectUpload(ctx context.Context, ownerID, propertyID int64, filename, contentType string) (*UploadAuthorization, error) {
	if err := validateUpload(filename, contentType); err != nil {
		return nil, err
	}
	if propertyID <= 0 {
		return nil, fmt.Errorf("%w: property_id is required", ErrValidation)
	}
	if err := s.requireOwner(ctx, propertyID, ownerID); err != nil {
		return nil, err
	}
	return s.presign(ctx, propertyKey(propertyID, filename), contentType, CacheLongLived)
}

// AuthorizeStagedUpload presigns a PUT into the caller's staging area, used
// before the property exists.
func (s *Service) AuthorizeStagedUpload(ctx context.Context, userID int64, filename, contentType string) (*UploadAuthorization, error) {
	if err := validateUpload(filename, contentType); err != nil {
		return nil, err
	}
	return s.presign(ctx, stagingKey(userID, filename), contentType, CacheStaging)
}

func (s *Service) AuthorizeProfileUpload(ctx context.Context, userID int64, filename, contentType string) (*UploadAuthorization, error) {
	if err := validateUpload(filename, contentType); err != nil {
		return nil, err
	}
	return s.presign(ctx, profileKey(userID, filename), contentType, CacheLongLived)
}

func (s *Service) presign(ctx context.Context, key, contentType, cacheControl string) (*UploadAuthorization, error) {
	p, err := s.store.PresignPut(ctx, key, objectstore.PutOptions{
		ContentType:  contentType,
		CacheControl: cacheControl,
		TTL:          s.ttl,
	})
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(p.Headers))
	for k := range p.Headers {
		headers[k] = p.Headers.Get(k)
	}
	s.log.WithField("key", key).Debug("upload presigned")

	return &UploadAuthorization{
		UploadURL: p.URL,
		Method:    p.Method,
		Headers:   headers,
		ExpiresAt: p.ExpiresAt,
		Key:       key,
		PublicURL: PublicURL(s.base, key),
	}, nil
}

// Finalize moves staged uploads of ownerID into the property. Entries that
// are not under the caller's staging prefix are skipped and left untouched.
func (s *Service) Finalize(ctx context.Context, ownerID, propertyID int64, tempURLs []string) (*FinalizeResult, error) {
	if propertyID <= 0 {
		return nil, fmt.Errorf("%w: property_id is required", ErrValidation)
	}
	if err := s.requireOwner(ctx, propertyID, ownerID); err != nil {
		return nil, err
	}

	prefix := stagingPrefix(ownerID)
	res := &FinalizeResult{FinalURLs: []string{}, Items: make([]FinalizeItem, 0, len(tempURLs))}
	seen := make(map[string]bool, len(tempURLs))

	for _, raw := range tempURLs {
		item := FinalizeItem{TempURL: raw}
		log := s.log.WithFields(logrus.Fields{"property_id": propertyID, "temp_url": raw})

		src, err := KeyFromURL(s.base, raw)
		switch {
		case err != nil:
			item.Status, item.Error = StatusSkipped, "malformed url"
		case unsafeKey(src) || !strings.HasPrefix(src, prefix) || len(src) == len(prefix):
			item.Status, item.Error = StatusSkipped, "not a staged upload of the caller"
		case seen[src]:
			item.Status, item.Error = StatusSkipped, "duplicate"
		}
		if item.Status != "" {
			log.WithField("reason", item.Error).Warn("finalize: skipped")
			res.Items = append(res.Items, item)
			continue
		}
		seen[src] = true

		dst := finalKey(propertyID, src)
		if err := s.retry.Do(ctx, "finalize "+src, func(ctx context.Context) error {
			return s.moveOnce(ctx, src, dst)
		}); err != nil {
			log.WithError(err).Error("finalize: failed")
			item.Status, item.Error = StatusFailed, err.Error()
			res.Items = append(res.Items, item)
			continue
		}

		item.Status = StatusFinalized
		item.FinalURL = PublicURL(s.base, dst)
		res.FinalURLs = append(res.FinalURLs, item.FinalURL)
		res.Items = append(res.Items, item)
	}

	return res, nil
}

// moveOnce copies src to dst and deletes src. A missing source with the
// destination present means an earlier attempt already finished.
func (s *Service) moveOnce(ctx context.Context, src, dst string) error {
	head, err := s.store.Head(ctx, src)
	if errors.Is(err, objectstore.ErrNotFound) {
		if _, derr := s.store.Head(ctx, dst); derr == nil {
			return nil
		}
		return retry.Permanent(ErrSourceMissing)
	}
	if err != nil {
		return err
	}

	contentType := head.ContentType
	if contentType == "" {
		contentType = "image/" + strings.Replace(pickExt(src), "jpg", "jpeg", 1)
	}
	if err := s.store.Copy(ctx, src, dst, contentType, CacheLongLived); err != nil {
		return err
	}
	return s.store.Delete(ctx, src)
}

// DeleteObject removes an object the caller controls: their staging or
// profile uploads, or media of a property they own. Anything else reads as
// not found.
func (s *Service) DeleteObject(ctx context.Context, userID int64, publicURL string) (*DeleteResult, error) {
	key, err := KeyFromURL(s.base, publicURL)
	if err != nil || unsafeKey(key) {
		return nil, fmt.Errorf("%w: invalid url", ErrValidation)
	}

	allowed := strings.HasPrefix(key, stagingPrefix(userID)) || strings.HasPrefix(key, profilePrefix(userID))
	if !allowed {
		pid, ok := propertyIDFromKey(key)
		if !ok {
			return nil, ErrNotFound
		}
		if err := s.requireOwner(ctx, pid, userID); err != nil {
			return nil, err
		}
	}

	if err := s.store.Delete(ctx, key); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"key": key, "user_id": userID}).Info("object deleted")
	return &DeleteResult{Deleted: true, Key: key}, nil
}

// CleanupStaging deletes staged uploads older than maxAge and returns how
// many were removed.
func (s *Service) CleanupStaging(ctx context.Context, maxAge time.Duration) (int, error) {
	objs, err := s.store.List(ctx, "staging/")
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-maxAge)
	removed := 0
	for _, obj := range objs {
		if obj.LastModified.After(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, obj.Key); err != nil {
			s.log.WithField("key", obj.Key).WithError(err).Warn("staging cleanup: delete failed")
			continue
		}
		removed++
	}
	return removed, nil
}

func (s *Service) requireOwner(ctx context.Context, propertyID, ownerID int64) error {
	ok, err := s.props.BelongsToOwner(ctx, propertyID, ownerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func validateUpload(filename, contentType string) error {
	if strings.TrimSpace(filename) == "" || strings.TrimSpace(contentType) == "" {
		return fmt.Errorf("%w: filename and content_type are required", ErrValidation)
	}
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return fmt.Errorf("%w: only image/* uploads are allowed", ErrValidation)
	}
	return nil
}
