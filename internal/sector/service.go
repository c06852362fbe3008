package sector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
	"github.com/wonny/aegis-signal/backend/pkg/logger"
	"github.com/wonny/aegis-signal/backend/pkg/metrics"
)

const cacheType = "sector_rank"

// Service serves sector rankings to the API, CLI and scheduler.
// It lists sectors, caches snapshots and persists refreshed runs.
type Service struct {
	ranker  *Ranker
	lister  contracts.SectorLister
	cache   SnapshotCache         // optional
	store   contracts.SectorStore // optional
	ttl     time.Duration
	metrics *metrics.Registry
	logger  *logger.Logger
	now     func() time.Time

	mu        sync.RWMutex
	latest    *contracts.SectorRanking
	listeners []func(*contracts.SectorRanking)
}

// NewService creates a ranking service. cache, store and m may be nil.
func NewService(
	ranker *Ranker,
	lister contracts.SectorLister,
	cache SnapshotCache,
	store contracts.SectorStore,
	ttl time.Duration,
	m *metrics.Registry,
	log *logger.Logger,
) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		ranker:  ranker,
		lister:  lister,
		cache:   cache,
		store:   store,
		ttl:     ttl,
		metrics: m,
		logger:  log.WithModule("sector_service"),
		now:     time.Now,
	}
}

// Subscribe registers a callback invoked after every refreshed ranking
func (s *Service) Subscribe(fn func(*contracts.SectorRanking)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Ranking returns the ranking for the given bounds (non-positive uses the defaults),
// served from the snapshot cache when fresh.
func (s *Service) Ranking(ctx context.Context, perSector, topK int) (*contracts.SectorRanking, error) {
	r := s.ranker.With(perSector, topK)
	asOf := s.today()
	key := CacheKey(r.cfg.PerSector, r.cfg.TopK, r.FlowEnabled(), asOf)

	if s.cache != nil {
		cached, found, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.WithError(err).Warn("Sector cache read failed")
		}
		s.metrics.RecordCache(cacheType, found)
		if found {
			return cached, nil
		}
	}

	ranking, err := s.compute(ctx, r, asOf)
	if err != nil {
		return nil, err
	}
	s.put(ctx, key, ranking)
	return ranking, nil
}

// Refresh recomputes the default ranking, bypassing the cache read, then stores,
// persists and broadcasts it.
func (s *Service) Refresh(ctx context.Context) (*contracts.SectorRanking, error) {
	asOf := s.today()
	ranking, err := s.compute(ctx, s.ranker, asOf)
	if err != nil {
		return nil, err
	}

	s.put(ctx, CacheKey(s.ranker.cfg.PerSector, s.ranker.cfg.TopK, s.ranker.FlowEnabled(), asOf), ranking)

	if s.store != nil && !ranking.Fallback {
		if err := s.store.SaveSectorRanking(ctx, ranking); err != nil {
			s.logger.WithError(err).Error("Failed to persist sector ranking")
		}
	}

	s.mu.Lock()
	s.latest = ranking
	listeners := append([]func(*contracts.SectorRanking){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(ranking)
	}
	return ranking, nil
}

// Latest returns the last refreshed ranking (from memory, else from the store)
func (s *Service) Latest(ctx context.Context) (*contracts.SectorRanking, error) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()
	if latest != nil {
		return latest, nil
	}

	if s.store == nil {
		return nil, contracts.ErrInsufficientData
	}
	ranking, err := s.store.GetLatestSectorRanking(ctx)
	if err != nil {
		return nil, fmt.Errorf("load latest ranking: %w", err)
	}
	return ranking, nil
}

func (s *Service) compute(ctx context.Context, r *Ranker, asOf time.Time) (*contracts.SectorRanking, error) {
	sectors, err := s.lister.ListSectors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sectors: %w", err)
	}
	return r.Rank(ctx, sectors, asOf)
}

// put caches a computed ranking; placeholder rankings are not cached
func (s *Service) put(ctx context.Context, key string, ranking *contracts.SectorRanking) {
	if s.cache == nil || ranking.Fallback || s.ttl <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, ranking, s.ttl); err != nil {
		s.logger.WithError(err).Warn("Sector cache write failed")
	}
}

func (s *Service) today() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
