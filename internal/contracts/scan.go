package contracts

import (
	"context"
	"time"
)

// ScanCandidate is one pullback-screener hit
type ScanCandidate struct {
	Symbol      string    `json:"symbol"`
	Date        time.Time `json:"date"`
	Close       float64   `json:"close"`
	TradedValue float64   `json:"traded_value"` // 당일 거래대금
	RSI14       float64   `json:"rsi14"`
	ROC14       float64   `json:"roc14"`
	Gap20       float64   `json:"gap20"` // SMA20 대비 괴리 (%)
	Score       float64   `json:"score"`
	Signal      Signal    `json:"signal"`
}

// ScanResult lists screener hits ordered by traded value
// ⭐ SSOT: 눌림목 스캔 결과 전달
type ScanResult struct {
	Sector     string          `json:"sector,omitempty"` // 빈 값 = 전체 시장
	Scanned    int             `json:"scanned"`
	Scored     int             `json:"scored"`
	Candidates []ScanCandidate `json:"candidates"`
}

// SectorLeaders lists a sector's most liquid active symbols
type SectorLeaders struct {
	Sector  Sector   `json:"sector"`
	Symbols []string `json:"symbols"`
}

// SectorFinder resolves a free-text query to a sector (partial, case-insensitive match).
// Returns ErrUnknownSector when nothing matches.
type SectorFinder interface {
	FindSector(ctx context.Context, query string) (Sector, error)
}

// LiquidityLister returns the top-limit active symbols of the whole market by liquidity
type LiquidityLister interface {
	ListLiquidSymbols(ctx context.Context, limit int) ([]string, error)
}
