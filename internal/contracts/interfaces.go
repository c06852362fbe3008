package contracts

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInsufficientData means the input cannot produce a result (no score / no ranking).
	// It is an outcome, not a fault.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrNoComputableSectors means no sector had any usable constituent history
	ErrNoComputableSectors = errors.New("no computable sectors")

	// ErrSourceUnavailable means the data source could not be reached at all
	ErrSourceUnavailable = errors.New("data source unavailable")

	// ErrUnknownSector means a sector query matched nothing
	ErrUnknownSector = errors.New("unknown sector")
)

// ⭐ SSOT: 엔진이 호출하는 데이터 접근 포트는 여기서만 정의

// SeriesFetcher returns ascending daily bars for a symbol.
// Fewer bars than requested (or none) is valid and signals insufficient history.
type SeriesFetcher interface {
	FetchSeries(ctx context.Context, symbol string, lookback int) (Series, error)
}

// ConstituentFetcher returns the top-limit symbols of a sector by liquidity
type ConstituentFetcher interface {
	FetchSectorConstituents(ctx context.Context, sectorID string, limit int) ([]string, error)
}

// SectorLister lists the sectors to rank
type SectorLister interface {
	ListSectors(ctx context.Context) ([]Sector, error)
}

// FlowAggregate is net buying (in currency) summed over a date range
type FlowAggregate struct {
	ForeignNet     float64 `json:"foreign_net"`     // 외국인 순매수 금액
	InstitutionNet float64 `json:"institution_net"` // 기관 순매수 금액
}

// Total returns foreign + institutional net buying
func (f FlowAggregate) Total() float64 {
	return f.ForeignNet + f.InstitutionNet
}

// FlowFetcher returns per-symbol investor net buying. Optional collaborator.
type FlowFetcher interface {
	FetchInvestorFlow(ctx context.Context, symbols []string, from, to time.Time) (map[string]FlowAggregate, error)
}

// ScoreStore persists per-symbol scores (whole-row replacement per symbol+date)
type ScoreStore interface {
	SaveScore(ctx context.Context, score *Score) error
	GetScore(ctx context.Context, symbol string, date time.Time) (*Score, error)
}

// SectorStore persists sector ranking runs
type SectorStore interface {
	SaveSectorRanking(ctx context.Context, ranking *SectorRanking) error
	GetLatestSectorRanking(ctx context.Context) (*SectorRanking, error)
}
