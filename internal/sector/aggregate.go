// Package sector ranks industry sectors from the bar series of their most liquid constituents.
package sector

import (
	"math"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
	"github.com/wonny/aegis-signal/backend/internal/indicator"
	"github.com/wonny/aegis-signal/backend/internal/strategyconfig"
)

// normalizeEpsilon guards the min-max denominator
const normalizeEpsilon = 1e-9

// memberStats is the per-symbol contribution to a sector aggregate
type memberStats struct {
	returns    []float64 // horizon 별 원 수익률
	momentum   float64   // squash 후 가중합
	roc21      float64
	hasROC     bool
	aboveSMA   bool
	quietSpike bool
	volatility float64 // 일간 로그수익률 RMS
	valueTrend float64
	hasTrend   bool
}

// Aggregate computes the raw (not normalized) score of one sector.
//
// Series shorter than cfg.MinBars are skipped and never counted. ok is false when
// no member is usable.
func Aggregate(cfg strategyconfig.Sector, sector contracts.Sector, members []contracts.Series) (contracts.SectorScore, bool) {
	out := contracts.SectorScore{SectorID: sector.ID, Name: sector.Name}

	stats := make([]memberStats, 0, len(members))
	for _, series := range members {
		bars := series.Sorted()
		if len(bars) < cfg.MinBars || len(bars) < 2 {
			continue
		}
		stats = append(stats, memberOf(cfg, bars))
	}
	if len(stats) == 0 {
		return out, false
	}

	cnt := float64(len(stats))
	horizons := len(cfg.Momentum.Horizons)
	rs := make([]float64, horizons)

	var momentum, above, quiet, vol float64
	var rocSum, trendSum float64
	var rocCnt, trendCnt int
	for _, s := range stats {
		momentum += s.momentum
		for i, r := range s.returns {
			rs[i] += r
		}
		if s.aboveSMA {
			above++
		}
		if s.quietSpike {
			quiet++
		}
		if s.hasROC {
			rocSum += s.roc21
			rocCnt++
		}
		if s.hasTrend {
			trendSum += s.valueTrend
			trendCnt++
		}
		vol += s.volatility
	}

	momentum /= cnt
	breadth := above / cnt
	quietRatio := quiet / cnt

	// RS는 % 단위로 보고
	for i := range rs {
		rs[i] = rs[i] / cnt * 100
	}
	out.RS1M, out.RS3M, out.RS6M, out.RS12M = pick(rs, 0), pick(rs, 1), pick(rs, 2), pick(rs, 3)
	if rocCnt > 0 {
		out.ROC21 = rocSum / float64(rocCnt)
	}
	if trendCnt > 0 {
		out.TradingValueTrend = trendSum / float64(trendCnt)
	}

	ex := cfg.Extras
	if ex.VolatilityScale > 0 {
		out.VolatilityPenalty = clamp((vol/cnt-ex.VolatilityFloor)/ex.VolatilityScale, 0, 1)
	}

	out.SMASupportRatio = breadth
	out.QuietSpikeRatio = quietRatio
	out.Constituents = len(stats)
	out.RawScore = momentum*cfg.Momentum.Points + breadth*cfg.Breadth.Points + quietRatio*cfg.QuietSpike.Points
	return out, true
}

func memberOf(cfg strategyconfig.Sector, bars contracts.Series) memberStats {
	closes := bars.Closes()
	last := len(closes) - 1
	lastBar := bars[last]

	var s memberStats

	// 1) multi-horizon 수익률 (가용 이력으로 offset 제한)
	s.returns = make([]float64, len(cfg.Momentum.Horizons))
	for i, h := range cfg.Momentum.Horizons {
		off := h
		if off > last {
			off = last
		}
		base := closes[last-off]
		if base <= 0 {
			continue
		}
		r := closes[last]/base - 1
		s.returns[i] = r
		if i < len(cfg.Momentum.Weights) {
			s.momentum += cfg.Momentum.Weights[i] * math.Tanh(cfg.Momentum.SquashGain*r)
		}
	}

	if v, ok := indicator.Last(indicator.ROC(closes, 21)); ok {
		s.roc21 = v
		s.hasROC = true
	}

	// 2) breadth: 자체 SMA 위
	if sma, ok := indicator.Last(indicator.SMA(closes, cfg.Breadth.SMAPeriod)); ok {
		s.aboveSMA = lastBar.Close > sma
	}

	// 3) quiet spike: 거래량 급증 + 좁은 일중 변동폭
	q := cfg.QuietSpike
	if q.Window > 0 && last >= q.Window && lastBar.Close > 0 {
		var sum float64
		for _, b := range bars[last-q.Window : last] {
			sum += float64(b.Volume)
		}
		avg := sum / float64(q.Window)
		rangePct := (lastBar.High - lastBar.Low) / lastBar.Close
		s.quietSpike = avg > 0 && float64(lastBar.Volume) >= q.VolumeMult*avg && rangePct <= q.RangePct
	}

	s.volatility = logReturnRMS(closes, cfg.Extras.VolatilityWindow)
	s.valueTrend, s.hasTrend = valueTrend(bars, cfg.Extras.ValueShort, cfg.Extras.ValueLong)
	return s
}

// logReturnRMS returns the root mean square of daily log returns over the trailing window
func logReturnRMS(closes []float64, window int) float64 {
	tail := closes
	if window > 0 && len(tail) > window {
		tail = tail[len(tail)-window:]
	}

	sq := make([]float64, 0, len(tail))
	for i := 1; i < len(tail); i++ {
		if tail[i] <= 0 || tail[i-1] <= 0 {
			continue
		}
		r := math.Log(tail[i] / tail[i-1])
		sq = append(sq, r*r)
	}
	return math.Sqrt(indicator.Mean(sq))
}

// valueTrend compares the short-window average traded value with the long-window one
func valueTrend(bars contracts.Series, short, long int) (float64, bool) {
	if short <= 0 || long <= 0 {
		return 0, false
	}
	longAvg := TradedValue(bars, long) / float64(min(long, len(bars)))
	if longAvg <= 0 {
		return 0, false
	}
	shortAvg := TradedValue(bars, short) / float64(min(short, len(bars)))
	return shortAvg/longAvg - 1, true
}

// TradedValue sums the traded value (close*volume) of the last window bars
func TradedValue(bars contracts.Series, window int) float64 {
	var sum float64
	for _, b := range bars.Tail(window) {
		if b.Amount > 0 {
			sum += b.Amount
			continue
		}
		sum += b.Close * float64(b.Volume)
	}
	return sum
}

// Normalize min-max scales raw scores of one run to 0-100 (rounded) in place.
// When all raw scores are equal every sector gets 0.
func Normalize(scores []contracts.SectorScore) {
	if len(scores) == 0 {
		return
	}

	lo, hi := scores[0].RawScore, scores[0].RawScore
	for _, s := range scores[1:] {
		lo = math.Min(lo, s.RawScore)
		hi = math.Max(hi, s.RawScore)
	}

	den := hi - lo
	for i := range scores {
		if den < normalizeEpsilon {
			scores[i].Score = 0
			continue
		}
		scores[i].Score = int(math.Round((scores[i].RawScore - lo) / den * 100))
	}
}

// gradeFor maps a normalized score to a letter grade
func gradeFor(g strategyconfig.Grades, score int) contracts.Grade {
	switch {
	case score >= g.A:
		return contracts.GradeA
	case score >= g.B:
		return contracts.GradeB
	default:
		return contracts.GradeC
	}
}

func pick(values []float64, i int) float64 {
	if i < len(values) {
		return values[i]
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
