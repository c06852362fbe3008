// Package s0_data holds the PostgreSQL repositories for daily bars, investor flow and sector membership.
package s0_data

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
)

// PriceRepository implements contracts.SeriesFetcher over data.daily_prices
// ⭐ SSOT: 가격 데이터 저장소는 여기서만
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// FetchSeries returns up to lookback most recent bars in ascending date order.
// Fewer rows (or none) is not an error.
func (r *PriceRepository) FetchSeries(ctx context.Context, code string, lookback int) (contracts.Series, error) {
	query := `
		SELECT trade_date, open_price, high_price, low_price, close_price, volume, trading_value
		FROM data.daily_prices
		WHERE stock_code = $1
		ORDER BY trade_date DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, code, lookback)
	if err != nil {
		return nil, fmt.Errorf("query prices %s: %w", code, err)
	}
	defer rows.Close()

	var series contracts.Series
	for rows.Next() {
		var b contracts.Bar
		var open, high, low, closePrice, value int64
		if err := rows.Scan(&b.Date, &open, &high, &low, &closePrice, &b.Volume, &value); err != nil {
			return nil, fmt.Errorf("scan price %s: %w", code, err)
		}
		// int64 -> float64 변환 (가격은 원 단위)
		b.Open = float64(open)
		b.High = float64(high)
		b.Low = float64(low)
		b.Close = float64(closePrice)
		b.Amount = float64(value)
		series = append(series, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prices %s: %w", code, err)
	}

	// DESC → ASC
	for i, j := 0, len(series)-1; i < j; i, j = i+1, j-1 {
		series[i], series[j] = series[j], series[i]
	}
	return series.Sorted(), nil
}

// SaveBars upserts bars for a code in one batch
func (r *PriceRepository) SaveBars(ctx context.Context, code string, bars contracts.Series) error {
	if len(bars) == 0 {
		return nil
	}

	query := `
		INSERT INTO data.daily_prices (stock_code, trade_date, open_price, high_price, low_price, close_price, volume, trading_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (stock_code, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume,
			trading_value = EXCLUDED.trading_value
	`

	batch := &pgx.Batch{}
	for _, b := range bars.Sorted() {
		batch.Queue(query, code, b.Date,
			int64(math.Round(b.Open)), int64(math.Round(b.High)), int64(math.Round(b.Low)), int64(math.Round(b.Close)),
			b.Volume, int64(math.Round(b.Amount)),
		)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save bars %s: %w", code, err)
	}
	return nil
}
