package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/uicourseai/courseai-backend/internal/config"
	"github.com/uicourseai/courseai-backend/internal/model"
)

// catalogCacheTTL is deliberately long: the warehouse only changes when a
// new semester is loaded.
const catalogCacheTTL = 6 * time.Hour

// CatalogService serves the subject and semester pickers, backed by the
// record store with a Redis cache in front.
type CatalogService struct {
	store GradeStore
	rdb   *redis.Client // nil disables caching
	log   zerolog.Logger
}

func NewCatalogService(store GradeStore, rdb *redis.Client, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		store: store,
		rdb:   rdb,
		log:   log.With().Str("component", "catalog_service").Logger(),
	}
}

// Subjects returns the distinct subject codes, alphabetically.
func (s *CatalogService) Subjects(ctx context.Context) ([]string, error) {
	key := config.CacheKey.CatalogSubjectsKey()
	if cached := s.cacheGet(ctx, key); cached != nil {
		return cached, nil
	}

	subjects, err := s.store.ListSubjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.cacheSet(ctx, key, subjects)
	return subjects, nil
}

// Semesters returns the distinct semester codes, most recent first.
func (s *CatalogService) Semesters(ctx context.Context) ([]string, error) {
	key := config.CacheKey.CatalogSemestersKey()
	if cached := s.cacheGet(ctx, key); cached != nil {
		return cached, nil
	}

	semesters, err := s.store.ListSemesters(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	slices.SortFunc(semesters, func(a, b string) int {
		return model.SemesterSortKey(b) - model.SemesterSortKey(a)
	})

	s.cacheSet(ctx, key, semesters)
	return semesters, nil
}

// WarmCache populates both catalog entries before the server starts
// accepting traffic.
func (s *CatalogService) WarmCache(ctx context.Context) error {
	if _, err := s.Subjects(ctx); err != nil {
		return err
	}
	if _, err := s.Semesters(ctx); err != nil {
		return err
	}
	s.log.Info().Msg("catalog cache warmed")
	return nil
}

func (s *CatalogService) cacheGet(ctx context.Context, key string) []string {
	if s.rdb == nil {
		return nil
	}
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Debug().Err(err).Msg("catalog cache read failed")
		}
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	return items
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, items []string) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, data, catalogCacheTTL).Err(); err != nil {
		s.log.Debug().Err(err).Msg("catalog cache write failed")
	}
}
