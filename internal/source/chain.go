// Package source combines series fetchers into a fallback chain.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
	"github.com/wonny/aegis-signal/backend/pkg/logger"
	"github.com/wonny/aegis-signal/backend/pkg/metrics"
)

// BarSaver persists bars fetched from a secondary source
type BarSaver interface {
	SaveBars(ctx context.Context, code string, bars contracts.Series) error
}

// Named pairs a fetcher with its metrics label
type Named struct {
	Name    string
	Fetcher contracts.SeriesFetcher
}

// Chain serves series from the primary source and falls back to the secondary
// when the stored history is shorter than requested.
// ⭐ SSOT: 시계열 소스 선택은 여기서만
type Chain struct {
	primary   Named
	secondary Named
	saver     BarSaver // optional, 보조 소스 결과 저장
	metrics   *metrics.Registry
	logger    *logger.Logger
}

// NewChain creates a fallback chain. saver and m may be nil.
func NewChain(primary, secondary Named, saver BarSaver, m *metrics.Registry, log *logger.Logger) *Chain {
	if log == nil {
		log = logger.Nop()
	}
	return &Chain{
		primary:   primary,
		secondary: secondary,
		saver:     saver,
		metrics:   m,
		logger:    log.WithModule("source"),
	}
}

// FetchSeries implements contracts.SeriesFetcher
func (c *Chain) FetchSeries(ctx context.Context, code string, lookback int) (contracts.Series, error) {
	bars, err := c.primary.Fetcher.FetchSeries(ctx, code, lookback)
	c.metrics.RecordSource(c.primary.Name, err)
	if err == nil && len(bars) >= lookback {
		return bars, nil
	}
	if err != nil {
		c.logger.WithError(err).WithField("code", code).Warn("Primary source failed, trying fallback")
	}

	remote, rerr := c.secondary.Fetcher.FetchSeries(ctx, code, lookback)
	c.metrics.RecordSource(c.secondary.Name, rerr)
	if rerr != nil {
		// 1차 결과가 있으면 부족하더라도 사용
		if err == nil {
			return bars, nil
		}
		return nil, fmt.Errorf("all sources failed for %s: %w", code, errors.Join(err, rerr))
	}

	if len(remote) <= len(bars) {
		return bars, nil
	}

	if c.saver != nil {
		if serr := c.saver.SaveBars(ctx, code, remote); serr != nil {
			c.logger.WithError(serr).WithField("code", code).Warn("Failed to store fallback bars")
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"code":     code,
		"primary":  len(bars),
		"fallback": len(remote),
	}).Debug("Series served from fallback source")
	return remote, nil
}
