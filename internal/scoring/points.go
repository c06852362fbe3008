package scoring

import (
	"math"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
)

// Breakdown is the per-component composition of a score
type Breakdown struct {
	AVWAP      float64 `json:"avwap"`
	RSI        float64 `json:"rsi"`
	ROC21      float64 `json:"roc21"`
	ROC14      float64 `json:"roc14"`
	Above50    float64 `json:"above50"`
	Slope      float64 `json:"slope"`
	ComboCount int     `json:"combo_count"`
	Combo      float64 `json:"combo"`
	Total      float64 `json:"total"` // 소수 2자리 반올림, 0~100
}

// Points computes the additive composite score from a factor snapshot and flags.
// Each component is clamped to its band before summing.
func (e *Engine) Points(f contracts.ScoreFactors, flags contracts.ScoreFlags) Breakdown {
	p := e.cfg.Points

	b := Breakdown{
		AVWAP: ramp(f.AVWAPSupport, 0, 100, 0, p.AVWAPMax),
		RSI:   ramp(f.RSI14, p.RSIFrom, p.RSITo, 0, p.RSIMax),
		ROC21: ramp(f.ROC21, 0, p.ROCLongTo, 0, p.ROCLongMax),
		ROC14: ramp(f.ROC14, 0, p.ROCShortTo, 0, p.ROCShortMax),
		Slope: e.slopePoints(f.SMA200Slope, f.SMA200),
	}
	if flags.Above50 {
		b.Above50 = p.Above50
	}

	b.ComboCount = e.comboCount(f, flags)
	b.Combo = e.comboBonus(b.ComboCount)

	total := b.AVWAP + b.RSI + b.ROC21 + b.ROC14 + b.Above50 + b.Slope + b.Combo
	b.Total = round2(clamp(total, 0, 100))
	return b
}

// slopePoints ramps floor→ceil over [0, ref*sma200]; a falling SMA200 earns nothing
func (e *Engine) slopePoints(slope, sma200 float64) float64 {
	p := e.cfg.Points
	if slope < 0 {
		return 0
	}
	ref := p.SlopeRefPct * sma200
	if ref <= 0 {
		return p.SlopeFloor
	}
	return p.SlopeFloor + (p.SlopeCeil-p.SlopeFloor)*math.Min(1, slope/ref)
}

func (e *Engine) comboCount(f contracts.ScoreFactors, flags contracts.ScoreFlags) int {
	c := e.cfg.Combo
	conditions := []bool{
		flags.Near20,
		f.AVWAPSupport >= c.AVWAPMin,
		flags.Above50,
		f.RSI14 >= c.RSIMin,
		f.ROC21 > 0,
		flags.VolSpike20,
	}

	n := 0
	for _, ok := range conditions {
		if ok {
			n++
		}
	}
	return n
}

func (e *Engine) comboBonus(count int) float64 {
	c := e.cfg.Combo
	switch {
	case count >= 5:
		return c.Bonus5
	case count == 4:
		return c.Bonus4
	case count == 3:
		return c.Bonus3
	default:
		return 0
	}
}

// ramp maps x linearly from [x0, x1] onto [y0, y1], flat outside the band
func ramp(x, x0, x1, y0, y1 float64) float64 {
	if x1 == x0 {
		if x >= x1 {
			return y1
		}
		return y0
	}
	t := clamp((x-x0)/(x1-x0), 0, 1)
	return y0 + t*(y1-y0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
