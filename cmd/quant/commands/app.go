package commands

import (
	"context"
	"fmt"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
	"github.com/wonny/aegis-signal/backend/internal/data/repos"
	"github.com/wonny/aegis-signal/backend/internal/external/naver"
	"github.com/wonny/aegis-signal/backend/internal/s0_data"
	"github.com/wonny/aegis-signal/backend/internal/scoring"
	"github.com/wonny/aegis-signal/backend/internal/sector"
	"github.com/wonny/aegis-signal/backend/internal/source"
	"github.com/wonny/aegis-signal/backend/internal/strategyconfig"
	"github.com/wonny/aegis-signal/backend/internal/workpool"
	"github.com/wonny/aegis-signal/backend/pkg/config"
	"github.com/wonny/aegis-signal/backend/pkg/database"
	"github.com/wonny/aegis-signal/backend/pkg/httputil"
	"github.com/wonny/aegis-signal/backend/pkg/logger"
	"github.com/wonny/aegis-signal/backend/pkg/metrics"
	"github.com/wonny/aegis-signal/backend/pkg/redis"
)

// app holds the wired engine shared by all commands
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	strategy *strategyconfig.Config
	hash     string
	metrics  *metrics.Registry

	db    *database.DB  // nil: naver 단독 모드
	redis *redis.Client // nil: 비활성
	naver *naver.Client

	series  contracts.SeriesFetcher
	engine  *scoring.Engine
	scores  *repos.ScoreRepository // nil without db
	stocks  *s0_data.SectorRepository
	sectors *sector.Service  // nil without db
	scanner *scoring.Scanner // nil without db
}

// newApp loads configuration and wires every collaborator
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if strategyPath != "" {
		cfg.Engine.StrategyPath = strategyPath
	}

	a := &app{
		cfg:     cfg,
		log:     logger.New(cfg),
		metrics: metrics.New(),
	}

	if err := a.loadStrategy(); err != nil {
		return nil, err
	}

	if cfg.UsesDatabase() {
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		a.db = db
		a.log.Info("Connected to database")
	}

	if cfg.Redis.Enabled {
		rc, err := redis.New(cfg)
		if err != nil {
			// 캐시는 선택 사항
			a.log.WithError(err).Warn("Redis unavailable, using in-memory cache")
		} else {
			a.redis = rc
		}
	}

	httpClient := httputil.New(cfg, a.log)
	if a.redis != nil {
		httpClient.WithRateLimiter(redis.NewRateLimiter(a.redis, "aegis"), redis.NaverRateLimitPerSecond(cfg.Naver.RateLimit))
	}
	a.naver = naver.NewClient(httpClient, cfg.Naver, a.log)

	a.wire()
	return a, nil
}

// loadStrategy reads the strategy file and applies environment overrides
func (a *app) loadStrategy() error {
	strategy, err := strategyconfig.LoadOrDefault(a.cfg.Engine.StrategyPath)
	if err != nil {
		return fmt.Errorf("load strategy: %w", err)
	}
	applyEngineOverrides(strategy, a.cfg.Engine)
	if err := strategyconfig.Validate(strategy); err != nil {
		return fmt.Errorf("strategy overrides: %w", err)
	}
	for _, w := range strategyconfig.Warn(strategy) {
		a.log.WithField("code", w.Code).Warn(w.Message)
	}

	hash, err := strategyconfig.Hash(strategy)
	if err != nil {
		return fmt.Errorf("hash strategy: %w", err)
	}

	a.strategy = strategy
	a.hash = hash
	a.log.WithFields(map[string]interface{}{
		"strategy": strategy.Meta.StrategyID,
		"hash":     hash,
	}).Info("Strategy loaded")
	return nil
}

// applyEngineOverrides lets environment settings replace strategy file values.
// Zero/unset values keep the file.
func applyEngineOverrides(s *strategyconfig.Config, e config.EngineConfig) {
	if e.PerSector > 0 {
		s.Sector.PerSector = e.PerSector
		s.Sector.MaxPerSector = max(s.Sector.MaxPerSector, e.PerSector)
	}
	if e.TopK > 0 {
		s.Sector.TopK = e.TopK
		s.Sector.MaxTopK = max(s.Sector.MaxTopK, e.TopK)
	}
	if e.Lookback > 0 {
		s.Sector.Lookback = e.Lookback
	}
	if e.Workers > 0 {
		s.Pool.Width = e.Workers
	}
	if e.FetchRate > 0 {
		s.Pool.RatePerSec = e.FetchRate
	}
	// 환경변수로는 끄기만 가능
	s.Sector.Flow.Enable = s.Sector.Flow.Enable && e.Flow
}

func (a *app) wire() {
	p := a.strategy.Pool
	scorePool := workpool.New("score", p.Width, p.RatePerSec, p.Burst, a.metrics)
	sectorPool := workpool.New("sector", p.Width, p.RatePerSec, p.Burst, a.metrics)

	a.engine = scoring.NewEngine(a.strategy.Scoring, scorePool, a.metrics, a.log)

	if a.db == nil {
		a.series = a.naver
		return
	}

	prices := s0_data.NewPriceRepository(a.db.Pool)
	switch a.cfg.Engine.Source {
	case config.SourceDB:
		a.series = prices
	default:
		a.series = source.NewChain(
			source.Named{Name: config.SourceDB, Fetcher: prices},
			source.Named{Name: config.SourceNaver, Fetcher: a.naver},
			prices, a.metrics, a.log,
		)
	}

	a.scores = repos.NewScoreRepository(a.db.Pool)
	a.stocks = s0_data.NewSectorRepository(a.db.Pool)
	a.scanner = scoring.NewScanner(a.engine, a.stocks, a.series, a.strategy.Scan, a.strategy.Sector.Lookback, a.log)

	// 수급: DB 모드는 저장된 집계, chain 모드는 Naver 투자자별 매매동향
	var flow contracts.FlowFetcher = a.naver
	if a.cfg.Engine.Source == config.SourceDB {
		flow = s0_data.NewInvestorFlowRepository(a.db.Pool)
	}

	ranker := sector.NewRanker(a.strategy.Sector, a.stocks, a.series, flow, sectorPool, a.metrics, a.log).
		WithConfigHash(a.hash)

	var cache sector.SnapshotCache = sector.NewMemoryCache()
	if a.redis != nil {
		cache = sector.NewRedisCache(redis.NewCache(a.redis, "aegis"))
	}

	a.sectors = sector.NewService(ranker, a.stocks, cache, a.scores, a.cfg.Engine.CacheTTL, a.metrics, a.log)
}

// requireSectors fails when sector ranking is not wired (naver-only mode)
func (a *app) requireSectors() error {
	if a.sectors == nil {
		return fmt.Errorf("sector ranking requires a database (SERIES_SOURCE=%s)", a.cfg.Engine.Source)
	}
	return nil
}

// requireScanner fails when the screener is not wired (naver-only mode)
func (a *app) requireScanner() error {
	if a.scanner == nil {
		return fmt.Errorf("scan requires a database (SERIES_SOURCE=%s)", a.cfg.Engine.Source)
	}
	return nil
}

// Close releases connections
func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
