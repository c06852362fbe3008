package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
	"github.com/wonny/aegis-signal/backend/internal/strategyconfig"
	"github.com/wonny/aegis-signal/backend/internal/workpool"
	"github.com/wonny/aegis-signal/backend/pkg/logger"
)

// ScanUniverse supplies the symbols a scan or leaders listing runs over
type ScanUniverse interface {
	contracts.SectorFinder
	contracts.ConstituentFetcher
	contracts.LiquidityLister
}

// Scanner screens liquid symbols for trend-up pullbacks to the 20-day average
// ⭐ SSOT: 눌림목 스캔 조건은 여기서만
type Scanner struct {
	engine   *Engine
	universe ScanUniverse
	fetcher  contracts.SeriesFetcher
	cfg      strategyconfig.Scan
	lookback int
	logger   *logger.Logger
}

// NewScanner creates a scanner. lookback below the engine minimum is raised to it.
func NewScanner(engine *Engine, universe ScanUniverse, fetcher contracts.SeriesFetcher, cfg strategyconfig.Scan, lookback int, log *logger.Logger) *Scanner {
	if log == nil {
		log = logger.Nop()
	}
	if lookback < engine.MinBars() {
		lookback = engine.MinBars()
	}
	return &Scanner{
		engine:   engine,
		universe: universe,
		fetcher:  fetcher,
		cfg:      cfg,
		lookback: lookback,
		logger:   log.WithModule("scanner"),
	}
}

// Leaders returns the most liquid symbols of the sector matching query
func (s *Scanner) Leaders(ctx context.Context, query string) (*contracts.SectorLeaders, error) {
	sec, err := s.universe.FindSector(ctx, query)
	if err != nil {
		return nil, err
	}
	symbols, err := s.universe.FetchSectorConstituents(ctx, sec.ID, s.cfg.Leaders)
	if err != nil {
		return nil, fmt.Errorf("sector leaders: %w", err)
	}
	if symbols == nil {
		symbols = []string{}
	}
	return &contracts.SectorLeaders{Sector: sec, Symbols: symbols}, nil
}

// Scan screens the sector matching query, or the whole market when query is empty.
// Symbols without enough history are skipped; when every fetch fails the result is
// contracts.ErrSourceUnavailable.
func (s *Scanner) Scan(ctx context.Context, query string) (*contracts.ScanResult, error) {
	result := &contracts.ScanResult{Candidates: []contracts.ScanCandidate{}}

	var (
		symbols []string
		err     error
	)
	if q := strings.TrimSpace(query); q != "" {
		sec, ferr := s.universe.FindSector(ctx, q)
		if ferr != nil {
			return nil, ferr
		}
		result.Sector = sec.Name
		symbols, err = s.universe.FetchSectorConstituents(ctx, sec.ID, s.cfg.Universe)
	} else {
		symbols, err = s.universe.ListLiquidSymbols(ctx, s.cfg.Universe)
	}
	if err != nil {
		return nil, fmt.Errorf("scan universe: %w", err)
	}
	result.Scanned = len(symbols)

	results := workpool.Run(ctx, s.engine.pool, symbols, func(ctx context.Context, symbol string) (*contracts.ScanCandidate, error) {
		series, err := s.fetcher.FetchSeries(ctx, symbol, s.lookback)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", symbol, err)
		}
		return s.evaluate(symbol, series)
	})

	var fetchErrs []error
	for _, r := range results {
		switch {
		case r.Err == nil:
			result.Scored++
			if r.Value != nil {
				result.Candidates = append(result.Candidates, *r.Value)
			}
		case !errors.Is(r.Err, contracts.ErrInsufficientData):
			fetchErrs = append(fetchErrs, r.Err)
		}
	}
	if len(symbols) > 0 && len(fetchErrs) == len(symbols) {
		return nil, fmt.Errorf("scan: %w", errors.Join(contracts.ErrSourceUnavailable, fetchErrs[0]))
	}

	// 거래대금 많은 순
	sort.SliceStable(result.Candidates, func(i, j int) bool {
		return result.Candidates[i].TradedValue > result.Candidates[j].TradedValue
	})
	if len(result.Candidates) > s.cfg.Limit {
		result.Candidates = result.Candidates[:s.cfg.Limit]
	}

	s.logger.WithFields(map[string]interface{}{
		"sector":     result.Sector,
		"scanned":    result.Scanned,
		"scored":     result.Scored,
		"failed":     len(fetchErrs),
		"candidates": len(result.Candidates),
	}).Info("Scan completed")

	return result, nil
}

// evaluate scores one series and returns a candidate, or nil when it fails the screen
func (s *Scanner) evaluate(symbol string, series contracts.Series) (*contracts.ScanCandidate, error) {
	score, err := s.engine.Score(symbol, series)
	if err != nil {
		return nil, err
	}
	last, _ := series.Sorted().Last()
	if !Passes(s.cfg, score.Factors, last) {
		return nil, nil
	}

	return &contracts.ScanCandidate{
		Symbol:      symbol,
		Date:        last.Date,
		Close:       last.Close,
		TradedValue: last.Amount,
		RSI14:       score.Factors.RSI14,
		ROC14:       score.Factors.ROC14,
		Gap20:       round2(100 * (last.Close/score.Factors.SMA20 - 1)),
		Score:       score.Score,
		Signal:      score.Signal,
	}, nil
}

// Passes reports whether the last bar and its factors meet the pullback screen.
// Gap bounds are exclusive.
func Passes(cfg strategyconfig.Scan, f contracts.ScoreFactors, last contracts.Bar) bool {
	if last.Amount < cfg.MinTradedValue || last.Close <= cfg.MinClose {
		return false
	}
	if f.RSI14 < cfg.RSIMin || f.RSI14 > cfg.RSIMax {
		return false
	}
	// 정배열 + 장기 상승 추세
	if !(f.SMA50 > f.SMA200 && last.Close > f.SMA200) {
		return false
	}
	if f.SMA20 <= 0 {
		return false
	}
	gap := last.Close/f.SMA20 - 1
	if math.IsNaN(gap) || gap <= cfg.GapMin || gap >= cfg.GapMax {
		return false
	}
	return f.ROC14 > 0
}
