package sector

import (
	"context"
	"fmt"
	"math"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
	"github.com/wonny/aegis-signal/backend/internal/strategyconfig"
	"github.com/wonny/aegis-signal/backend/internal/workpool"
)

// NeutralFlow is the flow component of a sector without flow data in a flow-applied run
const NeutralFlow = 0.5

// sectorFlow holds one sector's investor net buying per window
type sectorFlow struct {
	nets   []float64 // 외인+기관 순매수 (window 순서)
	values []float64 // 같은 구간 거래대금
	ok     bool
}

// FlowComponent maps net buying against traded value onto 0-1.
//
// Per window x = clamp(net/value/cap, -1, 1) is mapped with (x+1)/2; the windows are averaged.
// Flow magnitudes are judged against this absolute range, not against peer sectors.
func FlowComponent(cfg strategyconfig.SectorFlow, nets, values []float64) float64 {
	if len(nets) == 0 {
		return NeutralFlow
	}

	var sum float64
	for i, net := range nets {
		var x float64
		if i < len(values) && values[i] > 0 && cfg.Cap > 0 {
			x = clamp(net/values[i]/cfg.Cap, -1, 1)
		}
		sum += clamp((x+1)/2, 0, 1)
	}
	return sum / float64(len(nets))
}

// blend folds the flow component into a normalized score
func blend(weight float64, normalized int, flow float64) int {
	return int(math.Round((1-weight)*float64(normalized) + weight*100*flow))
}

// fetchFlows loads trailing-window investor flow for every computed sector.
// A sector whose fetch fails or returns nothing is marked !ok.
func (r *Ranker) fetchFlows(ctx context.Context, groups []memberGroup) []sectorFlow {
	windows := r.cfg.Flow.Windows

	results := workpool.Run(ctx, r.pool, groups, func(ctx context.Context, g memberGroup) (sectorFlow, error) {
		ref := g.reference()
		if len(ref) == 0 {
			return sectorFlow{}, nil
		}

		flow := sectorFlow{
			nets:   make([]float64, len(windows)),
			values: make([]float64, len(windows)),
		}
		to := ref[len(ref)-1].Date
		for i, w := range windows {
			if w <= 0 {
				continue
			}
			from := ref.Tail(w)[0].Date

			agg, err := r.flow.FetchInvestorFlow(ctx, g.symbols, from, to)
			if err != nil {
				return sectorFlow{}, fmt.Errorf("flow %s (%dd): %w", g.sector.ID, w, err)
			}
			if len(agg) == 0 {
				return sectorFlow{}, nil
			}

			for _, a := range agg {
				flow.nets[i] += a.Total()
			}
			for _, s := range g.series {
				flow.values[i] += TradedValue(s, w)
			}
		}
		flow.ok = true
		return flow, nil
	})

	out := make([]sectorFlow, len(groups))
	for i, res := range results {
		if res.Err != nil {
			r.logger.WithError(res.Err).Warn("Investor flow unavailable for sector")
			continue
		}
		out[i] = res.Value
	}
	return out
}

// applyFlow blends the flow term into normalized scores. Returns false (scores untouched)
// when no sector returned flow data.
func (r *Ranker) applyFlow(ctx context.Context, groups []memberGroup, scores []contracts.SectorScore) bool {
	flows := r.fetchFlows(ctx, groups)

	applied := false
	for _, f := range flows {
		if f.ok {
			applied = true
			break
		}
	}
	if !applied {
		return false
	}

	for i := range scores {
		component := NeutralFlow
		if f := flows[i]; f.ok {
			component = FlowComponent(r.cfg.Flow, f.nets, f.values)
			scores[i].InvestorNet5D = pick(f.nets, 0)
			scores[i].InvestorNet20D = pick(f.nets, 1)
		}
		scores[i].Score = blend(r.cfg.Flow.Weight, scores[i].Score, component)
	}
	return true
}
