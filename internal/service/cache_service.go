package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/academic-ledger/pkg/errors"
)

const queryCachePrefix = "ledger:query:"

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService keeps evaluated query payloads between commits. Cache
// failures are logged and treated as misses; they never fail a query.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs a cache service. A non-positive ttl defaults to
// five minutes.
func NewCacheService(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// QueryKey scopes a query result to the calling organization, so a result
// computed for one caller is never served to another.
func QueryKey(function, org string, args []string) string {
	h := sha256.New()
	h.Write([]byte(org))
	for _, a := range args {
		h.Write([]byte{0})
		h.Write([]byte(a))
	}
	return queryCachePrefix + function + ":" + hex.EncodeToString(h.Sum(nil)[:12])
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Lookup returns the payload stored under key.
func (s *CacheService) Lookup(ctx context.Context, key string) (json.RawMessage, bool) {
	if !s.Enabled() {
		return nil, false
	}
	start := time.Now()
	var payload json.RawMessage
	err := s.repo.Get(ctx, key, &payload)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("query cache lookup failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return payload, true
}

// Store keeps payload under key for the configured ttl.
func (s *CacheService) Store(ctx context.Context, key string, payload json.RawMessage) {
	if !s.Enabled() {
		return
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, payload, s.ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("query cache store failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateQueries drops every cached query result. Any committed write may
// change any query, so nothing finer-grained is attempted.
func (s *CacheService) InvalidateQueries(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	pattern := queryCachePrefix + "*"
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("query cache invalidation failed", zap.String("pattern", strings.TrimSuffix(pattern, "*")), zap.Error(err))
	}
}
