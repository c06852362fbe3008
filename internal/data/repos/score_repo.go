package repos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
)

// ErrNotFound is returned when no row matches
var ErrNotFound = errors.New("not found")

// ScoreRepository implements contracts.ScoreStore and contracts.SectorStore
// ⭐ SSOT: 점수/랭킹 저장/조회는 여기서만
type ScoreRepository struct {
	pool *pgxpool.Pool
}

// NewScoreRepository creates a new score repository
func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

// SaveScore replaces the whole row for (symbol, date)
func (r *ScoreRepository) SaveScore(ctx context.Context, score *contracts.Score) error {
	detail, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("failed to marshal score: %w", err)
	}

	query := `
		INSERT INTO signals.scores (stock_code, calc_date, score, signal, size_factor, detail, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (stock_code, calc_date) DO UPDATE SET
			score = EXCLUDED.score,
			signal = EXCLUDED.signal,
			size_factor = EXCLUDED.size_factor,
			detail = EXCLUDED.detail,
			updated_at = NOW()
	`

	_, err = r.pool.Exec(ctx, query,
		score.Symbol, score.Date, score.Score, string(score.Signal), score.SizeFactor, detail,
	)
	if err != nil {
		return fmt.Errorf("failed to save score %s: %w", score.Symbol, err)
	}
	return nil
}

// GetScore loads the score of a symbol on a date
func (r *ScoreRepository) GetScore(ctx context.Context, symbol string, date time.Time) (*contracts.Score, error) {
	query := `
		SELECT detail
		FROM signals.scores
		WHERE stock_code = $1 AND calc_date = $2
	`

	var detail []byte
	err := r.pool.QueryRow(ctx, query, symbol, date).Scan(&detail)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query score: %w", err)
	}

	var score contracts.Score
	if err := json.Unmarshal(detail, &score); err != nil {
		return nil, fmt.Errorf("failed to unmarshal score: %w", err)
	}
	return &score, nil
}

// SaveSectorRanking stores one ranking run
func (r *ScoreRepository) SaveSectorRanking(ctx context.Context, ranking *contracts.SectorRanking) error {
	sectors, err := json.Marshal(ranking.Sectors)
	if err != nil {
		return fmt.Errorf("failed to marshal sectors: %w", err)
	}

	query := `
		INSERT INTO signals.sector_rankings (run_id, as_of, flow_applied, config_hash, sectors, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (run_id) DO NOTHING
	`

	_, err = r.pool.Exec(ctx, query, ranking.RunID, ranking.AsOf, ranking.FlowApplied, ranking.ConfigHash, sectors)
	if err != nil {
		return fmt.Errorf("failed to save sector ranking: %w", err)
	}
	return nil
}

// GetLatestSectorRanking loads the most recent ranking run
func (r *ScoreRepository) GetLatestSectorRanking(ctx context.Context) (*contracts.SectorRanking, error) {
	query := `
		SELECT run_id::text, as_of, flow_applied, config_hash, sectors
		FROM signals.sector_rankings
		ORDER BY created_at DESC
		LIMIT 1
	`

	var ranking contracts.SectorRanking
	var sectors []byte
	err := r.pool.QueryRow(ctx, query).Scan(
		&ranking.RunID, &ranking.AsOf, &ranking.FlowApplied, &ranking.ConfigHash, &sectors,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sector ranking: %w", err)
	}

	if err := json.Unmarshal(sectors, &ranking.Sectors); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sectors: %w", err)
	}
	return &ranking, nil
}
