package artifact

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type CacheConfig struct {
	BlobTTL        time.Duration
	BlobMaxEntries int
	ListTTL        time.Duration
	ListMaxEntries int
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		BlobTTL:        5 * time.Minute,
		BlobMaxEntries: 1024,
		ListTTL:        30 * time.Second,
		ListMaxEntries: 512,
	}
}

type MetricsSnapshot struct {
	BlobHits       uint64
	BlobMisses     uint64
	ListHits       uint64
	ListMisses     uint64
	OriginReads    uint64
	OriginWrites   uint64
	OriginReadErr  uint64
	OriginWriteErr uint64
}

type metrics struct {
	blobHits       atomic.Uint64
	blobMisses     atomic.Uint64
	listHits       atomic.Uint64
	listMisses     atomic.Uint64
	originReads    atomic.Uint64
	originWrites   atomic.Uint64
	originReadErr  atomic.Uint64
	originWriteErr atomic.Uint64
}

// CachedStore is a read-through cache in front of another Store. Writes go to
// the origin first and then refresh the cache.
type CachedStore struct {
	origin    Store
	blobCache *expirable.LRU[string, []byte]
	listCache *expirable.LRU[string, []string]
	metrics   metrics
}

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	if cfg.BlobTTL <= 0 {
		cfg.BlobTTL = def.BlobTTL
	}
	if cfg.BlobMaxEntries <= 0 {
		cfg.BlobMaxEntries = def.BlobMaxEntries
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = def.ListTTL
	}
	if cfg.ListMaxEntries <= 0 {
		cfg.ListMaxEntries = def.ListMaxEntries
	}
	return &CachedStore{
		origin:    origin,
		blobCache: expirable.NewLRU[string, []byte](cfg.BlobMaxEntries, nil, cfg.BlobTTL),
		listCache: expirable.NewLRU[string, []string](cfg.ListMaxEntries, nil, cfg.ListTTL),
	}
}

func (s *CachedStore) Put(ctx context.Context, runID, path string, content []byte) error {
	runID, path, err := normalizeKey(runID, path)
	if err != nil {
		return err
	}
	s.metrics.originWrites.Add(1)
	if err := s.origin.Put(ctx, runID, path, content); err != nil {
		s.metrics.originWriteErr.Add(1)
		return err
	}
	s.blobCache.Add(objectKey(runID, path), append([]byte(nil), content...))
	s.listCache.Remove(runID)
	return nil
}

func (s *CachedStore) Get(ctx context.Context, runID, path string) ([]byte, error) {
	runID, path, err := normalizeKey(runID, path)
	if err != nil {
		return nil, err
	}
	key := objectKey(runID, path)
	if raw, ok := s.blobCache.Get(key); ok {
		s.metrics.blobHits.Add(1)
		return append([]byte(nil), raw...), nil
	}
	s.metrics.blobMisses.Add(1)
	s.metrics.originReads.Add(1)

	raw, err := s.origin.Get(ctx, runID, path)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return nil, err
	}
	s.blobCache.Add(key, append([]byte(nil), raw...))
	return raw, nil
}

func (s *CachedStore) List(ctx context.Context, runID string) ([]string, error) {
	runID, err := normalizeRunID(runID)
	if err != nil {
		return nil, err
	}
	if list, ok := s.listCache.Get(runID); ok {
		s.metrics.listHits.Add(1)
		return append([]string(nil), list...), nil
	}
	s.metrics.listMisses.Add(1)
	s.metrics.originReads.Add(1)

	list, err := s.origin.List(ctx, runID)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return nil, err
	}
	s.listCache.Add(runID, append([]string(nil), list...))
	return list, nil
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		BlobHits:       s.metrics.blobHits.Load(),
		BlobMisses:     s.metrics.blobMisses.Load(),
		ListHits:       s.metrics.listHits.Load(),
		ListMisses:     s.metrics.listMisses.Load(),
		OriginReads:    s.metrics.originReads.Load(),
		OriginWrites:   s.metrics.originWrites.Load(),
		OriginReadErr:  s.metrics.originReadErr.Load(),
		OriginWriteErr: s.metrics.originWriteErr.Load(),
	}
}
