package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
	"github.com/wonny/aegis-signal/backend/internal/workpool"
	"github.com/wonny/aegis-signal/backend/pkg/logger"
)

// SymbolLister lists the symbols to score
type SymbolLister interface {
	ListSymbols(ctx context.Context) ([]string, error)
}

// BatchScorer scores symbols through the worker pool
type BatchScorer interface {
	ScoreMany(ctx context.Context, symbols []string, fetcher contracts.SeriesFetcher, lookback int) []workpool.Result[*contracts.Score]
}

// ScoreRefreshJob rescores every listed symbol and stores the results
type ScoreRefreshJob struct {
	symbols  SymbolLister
	scorer   BatchScorer
	fetcher  contracts.SeriesFetcher
	store    contracts.ScoreStore
	lookback int
	logger   *logger.Logger
}

// ScoreRefreshStats summarizes one run
type ScoreRefreshStats struct {
	Symbols      int
	Saved        int
	Insufficient int
	Failed       int
}

// NewScoreRefreshJob creates a score refresh job
func NewScoreRefreshJob(
	symbols SymbolLister,
	scorer BatchScorer,
	fetcher contracts.SeriesFetcher,
	store contracts.ScoreStore,
	lookback int,
	log *logger.Logger,
) *ScoreRefreshJob {
	if log == nil {
		log = logger.Nop()
	}
	return &ScoreRefreshJob{
		symbols:  symbols,
		scorer:   scorer,
		fetcher:  fetcher,
		store:    store,
		lookback: lookback,
		logger:   log.WithModule("jobs").WithField("job", "score_refresh"),
	}
}

// Name returns the job name
func (j *ScoreRefreshJob) Name() string {
	return "score_refresh"
}

// Schedule returns the cron schedule
func (j *ScoreRefreshJob) Schedule() string {
	return ScoreSchedule
}

// Run executes the score refresh
func (j *ScoreRefreshJob) Run(ctx context.Context) error {
	_, err := j.Refresh(ctx)
	return err
}

// Refresh scores and saves all symbols.
// Fails only when nothing could be fetched or nothing could be saved.
func (j *ScoreRefreshJob) Refresh(ctx context.Context) (ScoreRefreshStats, error) {
	symbols, err := j.symbols.ListSymbols(ctx)
	if err != nil {
		return ScoreRefreshStats{}, fmt.Errorf("list symbols: %w", err)
	}

	stats := ScoreRefreshStats{Symbols: len(symbols)}
	if len(symbols) == 0 {
		j.logger.Warn("No symbols to score")
		return stats, nil
	}

	var firstErr error
	for _, res := range j.scorer.ScoreMany(ctx, symbols, j.fetcher, j.lookback) {
		switch {
		case errors.Is(res.Err, contracts.ErrInsufficientData):
			stats.Insufficient++
			continue
		case res.Err != nil:
			stats.Failed++
			if firstErr == nil {
				firstErr = res.Err
			}
			continue
		}

		if err := j.store.SaveScore(ctx, res.Value); err != nil {
			stats.Failed++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		stats.Saved++
	}

	j.logger.WithFields(map[string]interface{}{
		"symbols":      stats.Symbols,
		"saved":        stats.Saved,
		"insufficient": stats.Insufficient,
		"failed":       stats.Failed,
	}).Info("Score refresh completed")

	if stats.Failed == stats.Symbols {
		return stats, fmt.Errorf("score refresh: all %d symbols failed: %w", stats.Symbols, firstErr)
	}
	return stats, nil
}
