package agencies

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/creatorportal/backend/internal/models"
)

const directoryCacheKey = "directory:public"

// Directory serves the public agency listing with a short-lived Redis cache.
// Substring filtering happens after the cache read; the catalog is small
// enough that a search index would be overkill.
type Directory struct {
	repo   *Repository
	cache  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewDirectory creates a directory. A nil cache or zero ttl disables caching.
func NewDirectory(repo *Repository, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// List returns publicly joinable agencies, filtered by an optional
// case-insensitive substring query over name, industry, and description.
func (d *Directory) List(ctx context.Context, query string) ([]models.Agency, error) {
	list, err := d.load(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(list, query), nil
}

// Invalidate drops the cached listing; called after agency writes.
func (d *Directory) Invalidate(ctx context.Context) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Del(ctx, directoryCacheKey).Err(); err != nil {
		d.logger.Warn("directory cache invalidation failed", zap.Error(err))
	}
}

func (d *Directory) load(ctx context.Context) ([]models.Agency, error) {
	if d.cache != nil && d.ttl > 0 {
		raw, err := d.cache.Get(ctx, directoryCacheKey).Bytes()
		if err == nil {
			var cached []models.Agency
			if json.Unmarshal(raw, &cached) == nil {
				return cached, nil
			}
		} else if err != redis.Nil {
			d.logger.Warn("directory cache read failed", zap.Error(err))
		}
	}

	list, err := d.repo.ListPublic(ctx)
	if err != nil {
		return nil, err
	}

	if d.cache != nil && d.ttl > 0 {
		if raw, err := json.Marshal(list); err == nil {
			if err := d.cache.Set(ctx, directoryCacheKey, raw, d.ttl).Err(); err != nil {
				d.logger.Warn("directory cache write failed", zap.Error(err))
			}
		}
	}
	return list, nil
}

// Filter returns the agencies whose name, display name, industry, or
// description contain the query, case-insensitively. An empty query returns
// the input unchanged.
func Filter(list []models.Agency, query string) []models.Agency {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list
	}
	var out []models.Agency
	for _, ag := range list {
		if strings.Contains(strings.ToLower(ag.Name), q) ||
			strings.Contains(strings.ToLower(ag.DisplayName), q) ||
			strings.Contains(strings.ToLower(ag.Industry), q) ||
			strings.Contains(strings.ToLower(ag.Description), q) {
			out = append(out, ag)
		}
	}
	return out
}
