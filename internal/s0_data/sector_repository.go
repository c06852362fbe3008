package s0_data

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
)

// SectorRepository lists sectors and their liquidity leaders from data.stocks
type SectorRepository struct {
	pool *pgxpool.Pool
	// 유동성 평균 구간 (거래일)
	liquidityDays int
}

// NewSectorRepository creates a sector repository ranking constituents by 20-day average traded value
func NewSectorRepository(pool *pgxpool.Pool) *SectorRepository {
	return &SectorRepository{pool: pool, liquidityDays: 20}
}

// ListSectors returns every sector with at least one active stock
func (r *SectorRepository) ListSectors(ctx context.Context) ([]contracts.Sector, error) {
	query := `
		SELECT DISTINCT sector
		FROM data.stocks
		WHERE status = 'active' AND sector <> ''
		ORDER BY sector
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query sectors: %w", err)
	}
	defer rows.Close()

	var sectors []contracts.Sector
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan sector: %w", err)
		}
		sectors = append(sectors, contracts.Sector{ID: name, Name: name})
	}
	return sectors, rows.Err()
}

// FetchSectorConstituents returns the top-limit active codes of a sector by average traded value
func (r *SectorRepository) FetchSectorConstituents(ctx context.Context, sectorID string, limit int) ([]string, error) {
	codes, err := r.liquidLeaders(ctx, sectorID, limit)
	if err != nil {
		return nil, fmt.Errorf("query constituents %s: %w", sectorID, err)
	}
	return codes, nil
}

// ListLiquidSymbols returns the top-limit active codes of the whole market by average traded value
func (r *SectorRepository) ListLiquidSymbols(ctx context.Context, limit int) ([]string, error) {
	codes, err := r.liquidLeaders(ctx, "", limit)
	if err != nil {
		return nil, fmt.Errorf("query liquid symbols: %w", err)
	}
	return codes, nil
}

// liquidLeaders ranks active codes by average traded value over the last liquidityDays sessions.
// An empty sector means the whole market.
func (r *SectorRepository) liquidLeaders(ctx context.Context, sector string, limit int) ([]string, error) {
	query := `
		WITH recent AS (
			SELECT dp.stock_code, dp.trading_value,
			       ROW_NUMBER() OVER (PARTITION BY dp.stock_code ORDER BY dp.trade_date DESC) AS rn
			FROM data.daily_prices dp
			JOIN data.stocks s ON s.code = dp.stock_code
			WHERE ($1::text = '' OR s.sector = $1::text) AND s.status = 'active'
		)
		SELECT stock_code
		FROM recent
		WHERE rn <= $2
		GROUP BY stock_code
		ORDER BY AVG(trading_value) DESC, stock_code
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, sector, r.liquidityDays, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan code: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// FindSector resolves a partial, case-insensitive sector name.
// The shortest matching name wins ("반도체" before "반도체장비").
func (r *SectorRepository) FindSector(ctx context.Context, query string) (contracts.Sector, error) {
	q := `
		SELECT sector
		FROM data.stocks
		WHERE status = 'active' AND sector <> '' AND sector ILIKE '%' || $1::text || '%'
		GROUP BY sector
		ORDER BY LENGTH(sector), sector
		LIMIT 1
	`

	var name string
	err := r.pool.QueryRow(ctx, q, strings.TrimSpace(query)).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return contracts.Sector{}, fmt.Errorf("%q: %w", query, contracts.ErrUnknownSector)
	}
	if err != nil {
		return contracts.Sector{}, fmt.Errorf("find sector %q: %w", query, err)
	}
	return contracts.Sector{ID: name, Name: name}, nil
}

// ListSymbols returns every active code, ordered
func (r *SectorRepository) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT code FROM data.stocks WHERE status = 'active' ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// UpsertStock registers a stock and its sector
func (r *SectorRepository) UpsertStock(ctx context.Context, code, name, market, sector string) error {
	query := `
		INSERT INTO data.stocks (code, name, market, sector, status, updated_at)
		VALUES ($1, $2, $3, $4, 'active', NOW())
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			market = EXCLUDED.market,
			sector = EXCLUDED.sector,
			updated_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, code, name, market, sector); err != nil {
		return fmt.Errorf("upsert stock %s: %w", code, err)
	}
	return nil
}
