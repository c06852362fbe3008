package strategyconfig

import (
	"errors"
	"fmt"
	"math"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Scoring ===
	s := cfg.Scoring
	ind := s.Indicators
	periods := map[string]int{
		"scoring.indicators.sma_short":      ind.SMAShort,
		"scoring.indicators.sma_mid":        ind.SMAMid,
		"scoring.indicators.sma_long":       ind.SMALong,
		"scoring.indicators.slope_lookback": ind.SlopeLookback,
		"scoring.indicators.rsi_period":     ind.RSIPeriod,
		"scoring.indicators.roc_short":      ind.ROCShort,
		"scoring.indicators.roc_long":       ind.ROCLong,
		"scoring.indicators.volume_window":  ind.VolumeWindow,
	}
	for field, p := range periods {
		if p <= 0 {
			return ValidationError{field, "must be > 0"}
		}
	}
	if !(ind.SMAShort < ind.SMAMid && ind.SMAMid < ind.SMALong) {
		return ValidationError{"scoring.indicators", "must satisfy sma_short < sma_mid < sma_long"}
	}
	if s.MinBars < ind.SMALong {
		return ValidationError{"scoring.min_bars", fmt.Sprintf("must be >= sma_long=%d", ind.SMALong)}
	}
	if len(s.AnchorFractions) == 0 {
		return ValidationError{"scoring.anchor_fractions", "required"}
	}
	for i, f := range s.AnchorFractions {
		if f <= 0 || f > 1 {
			return ValidationError{fmt.Sprintf("scoring.anchor_fractions[%d]", i), "must be in (0, 1]"}
		}
	}
	if err := validatePctRange(s.Flags.Near20Pct, "scoring.flags.near20_pct"); err != nil {
		return err
	}
	if s.Flags.VolSpikeMult <= 0 {
		return ValidationError{"scoring.flags.vol_spike_mult", "must be > 0"}
	}

	p := s.Points
	if p.RSIFrom >= p.RSITo {
		return ValidationError{"scoring.points", "rsi_from must be < rsi_to"}
	}
	if p.ROCLongTo <= 0 || p.ROCShortTo <= 0 {
		return ValidationError{"scoring.points", "roc ramp ranges must be > 0"}
	}
	if p.SlopeFloor > p.SlopeCeil {
		return ValidationError{"scoring.points", "slope_floor must be <= slope_ceil"}
	}
	if p.SlopeRefPct <= 0 {
		return ValidationError{"scoring.points.slope_ref_pct", "must be > 0"}
	}
	for field, v := range map[string]float64{
		"scoring.points.avwap_max":     p.AVWAPMax,
		"scoring.points.rsi_max":       p.RSIMax,
		"scoring.points.roc_long_max":  p.ROCLongMax,
		"scoring.points.roc_short_max": p.ROCShortMax,
		"scoring.points.above50":       p.Above50,
		"scoring.points.slope_floor":   p.SlopeFloor,
	} {
		if v < 0 {
			return ValidationError{field, "must be >= 0"}
		}
	}
	c := s.Combo
	if !(c.Bonus3 <= c.Bonus4 && c.Bonus4 <= c.Bonus5) {
		return ValidationError{"scoring.combo", "must satisfy bonus3 <= bonus4 <= bonus5"}
	}
	if s.Signal.SellBelow > s.Signal.HoldMin {
		return ValidationError{"scoring.signal", "sell_below must be <= hold_min"}
	}

	l := s.Levels
	if l.HardStopMult <= 0 || l.HardStopMult >= 1 {
		return ValidationError{"scoring.levels.hard_stop_mult", "must be in (0, 1)"}
	}
	if err := validatePctRange(l.TrailPct, "scoring.levels.trail_pct"); err != nil {
		return err
	}
	if l.Target1Mult <= 1 || l.Target2Mult < l.Target1Mult {
		return ValidationError{"scoring.levels", "must satisfy 1 < target1_mult <= target2_mult"}
	}

	z := s.Sizing
	if z.ScoreLow >= z.ScoreHigh {
		return ValidationError{"scoring.sizing", "score_low must be < score_high"}
	}
	if z.FactorMin <= 0 || z.FactorMin > z.FactorMax {
		return ValidationError{"scoring.sizing", "must satisfy 0 < factor_min <= factor_max"}
	}

	// === Sector ===
	sec := cfg.Sector
	if sec.PerSector <= 0 {
		return ValidationError{"sector.per_sector", "must be > 0"}
	}
	if sec.TopK <= 0 {
		return ValidationError{"sector.top_k", "must be > 0"}
	}
	if sec.MaxPerSector < sec.PerSector {
		return ValidationError{"sector.max_per_sector", fmt.Sprintf("must be >= per_sector=%d", sec.PerSector)}
	}
	if sec.MaxTopK < sec.TopK {
		return ValidationError{"sector.max_top_k", fmt.Sprintf("must be >= top_k=%d", sec.TopK)}
	}
	if sec.MinBars < 2 {
		return ValidationError{"sector.min_bars", "must be >= 2"}
	}
	if sec.Lookback < sec.MinBars {
		return ValidationError{"sector.lookback", fmt.Sprintf("must be >= min_bars=%d", sec.MinBars)}
	}

	// horizons와 weights 배열 길이 일치 확인
	m := sec.Momentum
	if len(m.Horizons) != len(m.Weights) {
		return ValidationError{"sector.momentum", "horizons length must match weights length"}
	}
	for i, h := range m.Horizons {
		if h <= 0 {
			return ValidationError{fmt.Sprintf("sector.momentum.horizons[%d]", i), "must be > 0"}
		}
	}
	if err := validateWeightsSum(m.Weights, 1.0, 1e-6); err != nil {
		return ValidationError{"sector.momentum.weights", err.Error()}
	}
	if m.SquashGain <= 0 {
		return ValidationError{"sector.momentum.squash_gain", "must be > 0"}
	}
	if sec.Breadth.SMAPeriod <= 0 || sec.QuietSpike.Window <= 0 {
		return ValidationError{"sector", "breadth.sma_period and quiet_spike.window must be > 0"}
	}
	if err := validatePctRange(sec.QuietSpike.RangePct, "sector.quiet_spike.range_pct"); err != nil {
		return err
	}

	if sec.Flow.Enable {
		if err := validatePctRange(sec.Flow.Weight, "sector.flow.weight"); err != nil {
			return err
		}
		if len(sec.Flow.Windows) == 0 {
			return ValidationError{"sector.flow.windows", "required when flow is enabled"}
		}
		for i, w := range sec.Flow.Windows {
			if w <= 0 {
				return ValidationError{fmt.Sprintf("sector.flow.windows[%d]", i), "must be > 0"}
			}
		}
		if sec.Flow.Cap <= 0 {
			return ValidationError{"sector.flow.cap", "must be > 0"}
		}
	}

	e := sec.Extras
	if e.VolatilityWindow < 2 || e.VolatilityScale <= 0 {
		return ValidationError{"sector.extras", "volatility_window must be >= 2 and volatility_scale > 0"}
	}
	if e.ValueShort <= 0 || e.ValueShort >= e.ValueLong {
		return ValidationError{"sector.extras", "must satisfy 0 < value_short < value_long"}
	}

	if sec.Grades.B > sec.Grades.A || sec.Grades.A > 100 || sec.Grades.B < 0 {
		return ValidationError{"sector.grades", "must satisfy 0 <= b <= a <= 100"}
	}
	if len(sec.Fallback) == 0 {
		return ValidationError{"sector.fallback", "required"}
	}

	// === Scan ===
	sc := cfg.Scan
	if sc.Universe <= 0 || sc.Limit <= 0 || sc.Leaders <= 0 {
		return ValidationError{"scan", "universe, limit and leaders must be > 0"}
	}
	if sc.RSIMin >= sc.RSIMax {
		return ValidationError{"scan", "rsi_min must be < rsi_max"}
	}
	if sc.GapMin >= sc.GapMax {
		return ValidationError{"scan", "gap_min must be < gap_max"}
	}
	if sc.MinTradedValue < 0 || sc.MinClose < 0 {
		return ValidationError{"scan", "min_traded_value and min_close must be >= 0"}
	}

	// === Pool ===
	if cfg.Pool.Width <= 0 {
		return ValidationError{"pool.width", "must be > 0"}
	}
	if cfg.Pool.RatePerSec < 0 {
		return ValidationError{"pool.rate_per_sec", "must be >= 0"}
	}
	if cfg.Pool.RatePerSec > 0 && cfg.Pool.Burst < 1 {
		return ValidationError{"pool.burst", "must be >= 1 when rate_per_sec is set"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 외부 소스 rate limit 우려
	if cfg.Pool.Width > 16 {
		warnings = append(warnings, Warning{
			Code:    "WIDE_POOL",
			Message: "pool.width > 16: 데이터 소스 rate limit 초과 우려",
		})
	}

	// 섹터당 종목이 적으면 breadth가 거칠어짐
	if cfg.Sector.PerSector < 5 {
		warnings = append(warnings, Warning{
			Code:    "THIN_SECTOR",
			Message: "per_sector < 5: breadth/quiet spike 비율 해상도 낮음",
		})
	}

	if cfg.Sector.Flow.Enable && cfg.Sector.Flow.Weight > 0.5 {
		warnings = append(warnings, Warning{
			Code:    "FLOW_DOMINANT",
			Message: "flow.weight > 0.5: 수급이 모멘텀보다 우세",
		})
	}

	// 12개월 수익률 계산에 필요한 길이
	if n := len(cfg.Sector.Momentum.Horizons); n > 0 && cfg.Sector.Lookback <= cfg.Sector.Momentum.Horizons[n-1] {
		warnings = append(warnings, Warning{
			Code:    "SHORT_LOOKBACK",
			Message: "lookback <= 최장 horizon: 장기 수익률이 가용 구간으로 축소됨",
		})
	}

	return warnings
}

// === Helper Functions ===

func validateWeightsSum(weights []float64, target float64, epsilon float64) error {
	if len(weights) == 0 {
		return errors.New("must not be empty")
	}
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if math.Abs(sum-target) > epsilon {
		return fmt.Errorf("must sum to %.2f, got %.4f", target, sum)
	}
	return nil
}

// validatePctRange는 퍼센트 값이 0~1 범위인지 검증
func validatePctRange(pct float64, field string) error {
	if pct < 0 || pct > 1 {
		return ValidationError{field, "must be in range [0, 1]"}
	}
	return nil
}
