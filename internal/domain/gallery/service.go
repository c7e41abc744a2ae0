package gallery

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	maxImages   = 50
	maxURLBytes = 1024
)

type Service struct {
	repo *Repository
	log  logrus.FieldLogger
}

func NewService(repo *Repository, log logrus.FieldLogger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) List(ctx context.Context, propertyID int64) ([]PropertyImage, error) {
	return s.repo.List(ctx, propertyID)
}

func (s *Service) FirstImageURL(ctx context.Context, propertyID int64) (string, error) {
	return s.repo.FirstImageURL(ctx, propertyID)
}

// Replace stores URLs exactly as sent. Blank entries, URLs over 1 KiB and
// sets of more than 50 distinct URLs are rejected.
func (s *Service) Replace(ctx context.Context, propertyID int64, urls []string) ([]PropertyImage, Stats, error) {
	desired := make([]string, 0, len(urls))
	distinct := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if strings.TrimSpace(u) == "" {
			return nil, Stats{}, fmt.Errorf("%w: empty url", ErrValidation)
		}
		if len(u) > maxURLBytes {
			return nil, Stats{}, fmt.Errorf("%w: url too long", ErrValidation)
		}
		desired = append(desired, u)
		distinct[u] = struct{}{}
	}
	if len(distinct) > maxImages {
		return nil, Stats{}, fmt.Errorf("%w: at most %d images", ErrValidation, maxImages)
	}

	images, stats, err := s.repo.Replace(ctx, propertyID, desired)
	if err != nil {
		return nil, Stats{}, err
	}
	s.log.WithFields(logrus.Fields{
		"property_id": propertyID,
		"added":       stats.Added,
		"removed":     stats.Removed,
	}).Info("property images replaced")
	return images, stats, nil
}
