package sector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
	"github.com/wonny/aegis-signal/backend/internal/strategyconfig"
	"github.com/wonny/aegis-signal/backend/internal/workpool"
	"github.com/wonny/aegis-signal/backend/pkg/logger"
	"github.com/wonny/aegis-signal/backend/pkg/metrics"
)

// Ranker produces cross-sectional sector rankings
// ⭐ SSOT: 섹터 랭킹 로직은 여기서만
type Ranker struct {
	cfg          strategyconfig.Sector
	constituents contracts.ConstituentFetcher
	series       contracts.SeriesFetcher
	flow         contracts.FlowFetcher // optional
	pool         *workpool.Pool
	metrics      *metrics.Registry
	logger       *logger.Logger
	configHash   string
	newID        func() string
}

// NewRanker creates a ranker. flow, pool and m may be nil.
func NewRanker(
	cfg strategyconfig.Sector,
	constituents contracts.ConstituentFetcher,
	series contracts.SeriesFetcher,
	flow contracts.FlowFetcher,
	pool *workpool.Pool,
	m *metrics.Registry,
	log *logger.Logger,
) *Ranker {
	if log == nil {
		log = logger.Nop()
	}
	return &Ranker{
		cfg:          cfg,
		constituents: constituents,
		series:       series,
		flow:         flow,
		pool:         pool,
		metrics:      m,
		logger:       log.WithModule("sector"),
		newID:        uuid.NewString,
	}
}

// WithConfigHash records the strategy hash on every ranking
func (r *Ranker) WithConfigHash(hash string) *Ranker {
	r.configHash = hash
	return r
}

// With returns a copy using other constituent/top-K bounds (non-positive keeps the current value).
// Requested bounds are capped at MaxPerSector / MaxTopK.
func (r *Ranker) With(perSector, topK int) *Ranker {
	cp := *r
	if perSector > 0 {
		cp.cfg.PerSector = capAt(perSector, r.cfg.MaxPerSector)
	}
	if topK > 0 {
		cp.cfg.TopK = capAt(topK, r.cfg.MaxTopK)
	}
	return &cp
}

func capAt(v, max int) int {
	if max > 0 && v > max {
		return max
	}
	return v
}

// Config returns the sector settings in use
func (r *Ranker) Config() strategyconfig.Sector {
	return r.cfg
}

// FlowEnabled reports whether the flow term can be applied
func (r *Ranker) FlowEnabled() bool {
	return r.cfg.Flow.Enable && r.flow != nil
}

// memberGroup is one sector with its usable constituent series
type memberGroup struct {
	sector  contracts.Sector
	symbols []string
	series  []contracts.Series
}

// reference returns the longest member series (its dates define flow windows)
func (g memberGroup) reference() contracts.Series {
	var ref contracts.Series
	for _, s := range g.series {
		if len(s) > len(ref) {
			ref = s
		}
	}
	return ref
}

type fetchJob struct {
	group  int
	symbol string
}

// Rank scores every sector and returns them sorted by normalized score, truncated to TopK.
//
// Failed constituent fetches are excluded from their sector's counts. When no sector is
// computable a placeholder ranking (Fallback=true) is returned; when every fetch failed
// the error wraps contracts.ErrSourceUnavailable.
func (r *Ranker) Rank(ctx context.Context, sectors []contracts.Sector, asOf time.Time) (ranking *contracts.SectorRanking, err error) {
	start := time.Now()
	defer func() {
		n := 0
		if ranking != nil {
			n = ranking.Count()
		}
		r.metrics.ObserveRank(start, n, err)
	}()

	// 1) 섹터별 유동성 상위 종목
	lists := workpool.Run(ctx, r.pool, sectors, func(ctx context.Context, s contracts.Sector) ([]string, error) {
		return r.constituents.FetchSectorConstituents(ctx, s.ID, r.cfg.PerSector)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if workpool.AllFailed(lists) {
		return nil, fmt.Errorf("constituents: %w", errors.Join(contracts.ErrSourceUnavailable, lists[0].Err))
	}

	groups := make([]memberGroup, len(sectors))
	var jobs []fetchJob
	for i, res := range lists {
		groups[i].sector = sectors[i]
		if res.Err != nil {
			r.logger.WithError(res.Err).WithField("sector", sectors[i].ID).Warn("Constituent fetch failed")
			continue
		}
		for _, symbol := range res.Value {
			jobs = append(jobs, fetchJob{group: i, symbol: symbol})
		}
	}

	// 2) 종목 시계열 (bounded pool, 부분 실패 허용)
	fetched := workpool.Run(ctx, r.pool, jobs, func(ctx context.Context, job fetchJob) (contracts.Series, error) {
		return r.series.FetchSeries(ctx, job.symbol, r.cfg.Lookback)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if workpool.AllFailed(fetched) {
		return nil, fmt.Errorf("series: %w", errors.Join(contracts.ErrSourceUnavailable, fetched[0].Err))
	}

	failed := 0
	for i, res := range fetched {
		job := jobs[i]
		if res.Err != nil {
			failed++
			r.logger.WithError(res.Err).WithFields(map[string]interface{}{
				"sector": groups[job.group].sector.ID,
				"symbol": job.symbol,
			}).Debug("Series fetch failed, excluded")
			continue
		}
		if len(res.Value) < r.cfg.MinBars {
			continue
		}
		g := &groups[job.group]
		g.symbols = append(g.symbols, job.symbol)
		g.series = append(g.series, res.Value.Sorted())
	}

	// 3) 섹터 집계 (동기)
	computed := make([]memberGroup, 0, len(groups))
	scores := make([]contracts.SectorScore, 0, len(groups))
	for _, g := range groups {
		score, ok := Aggregate(r.cfg, g.sector, g.series)
		if !ok {
			continue
		}
		computed = append(computed, g)
		scores = append(scores, score)
	}

	if len(scores) == 0 {
		r.logger.WithFields(map[string]interface{}{
			"sectors": len(sectors),
			"failed":  failed,
		}).Warn("No computable sectors, using fallback list")
		fb := Fallback(r.cfg, asOf, contracts.ErrNoComputableSectors.Error())
		fb.RunID = r.newID()
		fb.ConfigHash = r.configHash
		return fb, nil
	}

	// 4) barrier 이후 정규화
	Normalize(scores)

	// 5) 수급 (선택)
	flowApplied := false
	if r.FlowEnabled() {
		flowApplied = r.applyFlow(ctx, computed, scores)
	}

	for i := range scores {
		scores[i].Grade = gradeFor(r.cfg.Grades, scores[i].Score)
	}

	// 동점은 입력 순서 유지
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	if r.cfg.TopK > 0 && len(scores) > r.cfg.TopK {
		scores = scores[:r.cfg.TopK]
	}

	ranking = &contracts.SectorRanking{
		RunID:       r.newID(),
		AsOf:        asOf,
		Sectors:     scores,
		FlowApplied: flowApplied,
		ConfigHash:  r.configHash,
	}

	r.logger.WithFields(map[string]interface{}{
		"run_id":       ranking.RunID,
		"computed":     len(computed),
		"returned":     len(scores),
		"failed":       failed,
		"flow_applied": flowApplied,
		"top":          scores[0].SectorID,
	}).Info("Sector ranking completed")

	return ranking, nil
}
