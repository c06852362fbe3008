package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
)

// InvestorFlowRepository implements contracts.FlowFetcher over data.investor_flow
// ⭐ SSOT: 수급 데이터 저장소는 여기서만
type InvestorFlowRepository struct {
	pool *pgxpool.Pool
}

// NewInvestorFlowRepository creates a new investor flow repository
func NewInvestorFlowRepository(pool *pgxpool.Pool) *InvestorFlowRepository {
	return &InvestorFlowRepository{pool: pool}
}

// FetchInvestorFlow sums foreign and institutional net buying per code over [from, to].
// Codes without rows are absent from the result.
func (r *InvestorFlowRepository) FetchInvestorFlow(ctx context.Context, codes []string, from, to time.Time) (map[string]contracts.FlowAggregate, error) {
	out := make(map[string]contracts.FlowAggregate, len(codes))
	if len(codes) == 0 {
		return out, nil
	}

	query := `
		SELECT stock_code, SUM(foreign_net_value)::BIGINT, SUM(inst_net_value)::BIGINT
		FROM data.investor_flow
		WHERE stock_code = ANY($1) AND trade_date BETWEEN $2 AND $3
		GROUP BY stock_code
	`

	rows, err := r.pool.Query(ctx, query, codes, from, to)
	if err != nil {
		return nil, fmt.Errorf("query investor flow: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var code string
		var foreign, inst int64
		if err := rows.Scan(&code, &foreign, &inst); err != nil {
			return nil, fmt.Errorf("scan investor flow: %w", err)
		}
		out[code] = contracts.FlowAggregate{
			ForeignNet:     float64(foreign),
			InstitutionNet: float64(inst),
		}
	}
	return out, rows.Err()
}

// SaveFlow upserts one day of investor flow
func (r *InvestorFlowRepository) SaveFlow(ctx context.Context, code string, date time.Time, flow contracts.FlowAggregate, individualNet int64) error {
	query := `
		INSERT INTO data.investor_flow (stock_code, trade_date, foreign_net_value, inst_net_value, indiv_net_value)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (stock_code, trade_date) DO UPDATE SET
			foreign_net_value = EXCLUDED.foreign_net_value,
			inst_net_value = EXCLUDED.inst_net_value,
			indiv_net_value = EXCLUDED.indiv_net_value
	`

	_, err := r.pool.Exec(ctx, query, code, date, int64(flow.ForeignNet), int64(flow.InstitutionNet), individualNet)
	if err != nil {
		return fmt.Errorf("save investor flow %s: %w", code, err)
	}
	return nil
}
