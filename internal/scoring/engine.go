// Package scoring turns one symbol's daily bars into a 0-100 score, a discrete
// signal and execution price levels.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
	"github.com/wonny/aegis-signal/backend/internal/indicator"
	"github.com/wonny/aegis-signal/backend/internal/strategyconfig"
	"github.com/wonny/aegis-signal/backend/internal/workpool"
	"github.com/wonny/aegis-signal/backend/pkg/logger"
	"github.com/wonny/aegis-signal/backend/pkg/metrics"
)

// Neutral values used when a factor is undefined or its computation faults
const (
	NeutralRSI = 50.0
	NeutralROC = 0.0
)

// indicators are swappable so faults can be injected in tests
type indicators struct {
	sma   func(values []float64, period int) []float64
	rsi   func(closes []float64, period int) []float64
	roc   func(values []float64, period int) []float64
	avwap func(prices []float64, volumes []int64, anchors []int) [][]float64
}

// Engine computes per-symbol scores
// ⭐ SSOT: 종목 점수/시그널 계산은 여기서만
type Engine struct {
	cfg     strategyconfig.Scoring
	pool    *workpool.Pool
	metrics *metrics.Registry
	logger  *logger.Logger
	ind     indicators
}

// NewEngine creates a scoring engine. pool and m may be nil.
func NewEngine(cfg strategyconfig.Scoring, pool *workpool.Pool, m *metrics.Registry, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		cfg:     cfg,
		pool:    pool,
		metrics: m,
		logger:  log.WithModule("scoring"),
		ind: indicators{
			sma:   indicator.SMA,
			rsi:   indicator.RSIWilder,
			roc:   indicator.ROC,
			avwap: indicator.MultiAVWAP,
		},
	}
}

// MinBars returns the minimum series length that produces a score
func (e *Engine) MinBars() int {
	return e.cfg.MinBars
}

// Score evaluates a series at its last bar.
// Returns contracts.ErrInsufficientData (no score) when the series is shorter than MinBars.
func (e *Engine) Score(symbol string, series contracts.Series) (*contracts.Score, error) {
	bars := series.Sorted()
	if len(bars) < e.cfg.MinBars {
		e.metrics.RecordNoScore()
		return nil, fmt.Errorf("%s: %d bars < %d: %w", symbol, len(bars), e.cfg.MinBars, contracts.ErrInsufficientData)
	}

	lastBar, _ := bars.Last()
	closes := bars.Closes()
	volumes := bars.Volumes()

	factors := e.factors(symbol, closes, volumes)
	flags := e.flags(lastBar, factors, volumes)
	breakdown := e.Points(factors, flags)

	score := &contracts.Score{
		Symbol:  symbol,
		Date:    lastBar.Date,
		Score:   breakdown.Total,
		Signal:  e.signal(breakdown.Total, factors, flags),
		Factors: factors,
		Flags:   flags,
	}
	e.levels(score, lastBar.Close)
	score.SizeFactor = round2(ramp(score.Score, e.cfg.Sizing.ScoreLow, e.cfg.Sizing.ScoreHigh, e.cfg.Sizing.FactorMin, e.cfg.Sizing.FactorMax))

	e.metrics.RecordSignal(string(score.Signal))
	e.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"date":   lastBar.Date.Format("2006-01-02"),
		"score":  score.Score,
		"signal": score.Signal,
	}).Debug("Scored symbol")

	return score, nil
}

// factors computes the indicator snapshot at the last index.
// Every factor is isolated: a fault or an undefined value falls back to its neutral value.
func (e *Engine) factors(symbol string, closes []float64, volumes []int64) contracts.ScoreFactors {
	ind := e.cfg.Indicators
	last := len(closes) - 1
	lastClose := closes[last]

	var f contracts.ScoreFactors
	f.SMA20 = e.safe(symbol, "sma20", lastClose, func() float64 {
		return lastValue(e.ind.sma(closes, ind.SMAShort))
	})
	f.SMA50 = e.safe(symbol, "sma50", lastClose, func() float64 {
		return lastValue(e.ind.sma(closes, ind.SMAMid))
	})
	f.SMA200 = e.safe(symbol, "sma200", lastClose, func() float64 {
		return lastValue(e.ind.sma(closes, ind.SMALong))
	})
	// 20봉 전 SMA200이 없으면 (정확히 200봉) 기울기 0
	f.SMA200Slope = e.safe(symbol, "sma200_slope", 0, func() float64 {
		long := e.ind.sma(closes, ind.SMALong)
		now, ok1 := indicator.At(long, last)
		prev, ok2 := indicator.At(long, last-ind.SlopeLookback)
		if !ok1 || !ok2 {
			return 0
		}
		return now - prev
	})
	f.RSI14 = e.safe(symbol, "rsi14", NeutralRSI, func() float64 {
		return lastValue(e.ind.rsi(closes, ind.RSIPeriod))
	})
	f.ROC14 = e.safe(symbol, "roc14", NeutralROC, func() float64 {
		return lastValue(e.ind.roc(closes, ind.ROCShort))
	})
	f.ROC21 = e.safe(symbol, "roc21", NeutralROC, func() float64 {
		return lastValue(e.ind.roc(closes, ind.ROCLong))
	})
	f.AVWAPSupport = e.safe(symbol, "avwap_support", 0, func() float64 {
		return e.avwapSupport(closes, volumes)
	})
	return f
}

// avwapSupport returns the percentage of anchors whose final AVWAP is at or below the last close
func (e *Engine) avwapSupport(closes []float64, volumes []int64) float64 {
	anchors := indicator.Anchors(len(closes), e.cfg.AnchorFractions...)
	lastClose := closes[len(closes)-1]

	hits := 0
	for _, series := range e.ind.avwap(closes, volumes, anchors) {
		// 정의되지 않은 앵커는 미충족으로 간주
		if v, ok := indicator.Last(series); ok && lastClose >= v {
			hits++
		}
	}
	return 100 * float64(hits) / float64(len(anchors))
}

func (e *Engine) flags(lastBar contracts.Bar, f contracts.ScoreFactors, volumes []int64) contracts.ScoreFlags {
	var flags contracts.ScoreFlags
	if f.SMA20 > 0 {
		flags.Near20 = math.Abs(lastBar.Close/f.SMA20-1) <= e.cfg.Flags.Near20Pct
	}
	flags.Above50 = lastBar.Close > f.SMA50

	// 직전 N봉 평균 거래량 대비 (당일 제외)
	window := e.cfg.Indicators.VolumeWindow
	last := len(volumes) - 1
	if last >= window {
		var sum float64
		for _, v := range volumes[last-window : last] {
			sum += float64(v)
		}
		avg := sum / float64(window)
		flags.VolSpike20 = avg > 0 && float64(lastBar.Volume) >= e.cfg.Flags.VolSpikeMult*avg
	}
	return flags
}

func (e *Engine) signal(score float64, f contracts.ScoreFactors, flags contracts.ScoreFlags) contracts.Signal {
	s := e.cfg.Signal

	// A: 20일선 눌림 + AVWAP 지지 + 거래량 급증
	setup := flags.Near20 && f.AVWAPSupport >= s.SetupAVWAPMin && flags.VolSpike20 && f.RSI14 >= s.SetupRSIMin && f.ROC14 >= 0
	// B: 추세 지속
	trend := flags.Above50 && f.RSI14 >= s.TrendRSIMin && f.ROC21 >= 0

	switch {
	case setup || trend:
		return contracts.SignalBuy
	case score >= s.HoldMin:
		return contracts.SignalHold
	// 배타적 경계: 완전 횡보 시계열은 정확히 15점으로 none
	case score < s.SellBelow:
		return contracts.SignalSell
	default:
		return contracts.SignalNone
	}
}

// levels fills entry, stop and target prices rounded to the integer tick
func (e *Engine) levels(score *contracts.Score, lastClose float64) {
	l := e.cfg.Levels
	f := score.Factors

	buy := lastClose
	if score.Flags.Near20 {
		buy = math.Min(lastClose, f.SMA20*(1+l.EntryCapPct))
	}
	score.Entry.Buy = roundTick(buy)
	if score.Flags.Above50 {
		add := roundTick(f.SMA50)
		score.Entry.Add = &add
	}

	score.Stops = contracts.Stops{
		Hard:     roundTick(math.Min(f.SMA50*l.HardStopMult, lastClose*l.HardStopMult)),
		Trail:    roundTick(f.SMA50),
		TrailPct: l.TrailPct,
	}
	score.Targets = contracts.Targets{
		T1: roundTick(lastClose * l.Target1Mult),
		T2: roundTick(lastClose * l.Target2Mult),
	}
}

// safe runs one factor computation, recovering panics and undefined results to neutral
func (e *Engine) safe(symbol, factor string, neutral float64, fn func() float64) (v float64) {
	defer func() {
		if r := recover(); r != nil {
			e.metrics.RecordFactorFault(factor)
			e.logger.WithFields(map[string]interface{}{
				"symbol": symbol,
				"factor": factor,
				"panic":  fmt.Sprint(r),
			}).Warn("Factor fault, using neutral value")
			v = neutral
		}
	}()

	v = fn()
	if !indicator.Valid(v) {
		return neutral
	}
	return v
}

// ScoreMany fetches and scores symbols through the worker pool.
// Results are aligned with symbols; insufficient history surfaces as contracts.ErrInsufficientData.
func (e *Engine) ScoreMany(ctx context.Context, symbols []string, fetcher contracts.SeriesFetcher, lookback int) []workpool.Result[*contracts.Score] {
	if lookback < e.cfg.MinBars {
		lookback = e.cfg.MinBars
	}

	results := workpool.Run(ctx, e.pool, symbols, func(ctx context.Context, symbol string) (*contracts.Score, error) {
		series, err := fetcher.FetchSeries(ctx, symbol, lookback)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", symbol, err)
		}
		return e.Score(symbol, series)
	})

	e.logger.WithFields(map[string]interface{}{
		"symbols": len(symbols),
		"scored":  len(workpool.Succeeded(results)),
		"failed":  len(workpool.Failed(results)),
	}).Info("Batch scoring completed")

	return results
}

func lastValue(values []float64) float64 {
	v, _ := indicator.Last(values)
	return v
}
