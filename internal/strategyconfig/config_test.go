package strategyconfig

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.Empty(t, Warn(cfg))

	assert.Equal(t, 200, cfg.Scoring.MinBars)
	assert.Equal(t, 12, cfg.Sector.TopK)
	assert.Equal(t, 10, cfg.Sector.PerSector)
	assert.Equal(t, []float64{0.2, 0.5, 0.8}, cfg.Scoring.AnchorFractions)
}

func TestLoad(t *testing.T) {
	cfg, yamlData, err := Load("testdata/signal_engine.yaml")
	require.NoError(t, err)
	assert.NotEmpty(t, yamlData)

	assert.Equal(t, "aegis_signal_test", cfg.Meta.StrategyID)
	assert.Equal(t, 40.0, cfg.Scoring.Signal.HoldMin)
	assert.Equal(t, 8, cfg.Sector.PerSector)
	assert.False(t, cfg.Sector.Flow.Enable)
	assert.Equal(t, 6, cfg.Pool.Width)

	// 파일에 없는 값은 기본값 유지
	assert.Equal(t, 0.93, cfg.Scoring.Levels.HardStopMult)
	assert.Equal(t, []int{21, 63, 126, 252}, cfg.Sector.Momentum.Horizons)
}

func TestLoad_UnknownFieldFails(t *testing.T) {
	_, _, err := Load("testdata/typo.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "top_kk")
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = LoadOrDefault("testdata/missing.yaml")
	assert.Error(t, err)
}

func TestHash(t *testing.T) {
	a, err := Hash(Default())
	require.NoError(t, err)
	assert.Len(t, a, 64)

	// 동일 설정 → 동일 해시
	b, err := Hash(Default())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	changed := Default()
	changed.Sector.TopK = 5
	c, err := Hash(changed)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing strategy id", func(c *Config) { c.Meta.StrategyID = "" }, "meta.strategy_id"},
		{"min bars below sma_long", func(c *Config) { c.Scoring.MinBars = 150 }, "scoring.min_bars"},
		{"sma order", func(c *Config) { c.Scoring.Indicators.SMAMid = 10 }, "scoring.indicators"},
		{"anchor out of range", func(c *Config) { c.Scoring.AnchorFractions = []float64{0.5, 1.2} }, "scoring.anchor_fractions[1]"},
		{"rsi ramp", func(c *Config) { c.Scoring.Points.RSITo = 40 }, "scoring.points"},
		{"sell above hold", func(c *Config) { c.Scoring.Signal.SellBelow = 50 }, "scoring.signal"},
		{"target order", func(c *Config) { c.Scoring.Levels.Target2Mult = 1.1 }, "scoring.levels"},
		{"momentum weights", func(c *Config) { c.Sector.Momentum.Weights = []float64{0.5, 0.5, 0.5, 0.5} }, "sector.momentum.weights"},
		{"horizon length", func(c *Config) { c.Sector.Momentum.Horizons = []int{21} }, "sector.momentum"},
		{"top k", func(c *Config) { c.Sector.TopK = 0 }, "sector.top_k"},
		{"max top k", func(c *Config) { c.Sector.MaxTopK = 5 }, "sector.max_top_k"},
		{"max per sector", func(c *Config) { c.Sector.MaxPerSector = 2 }, "sector.max_per_sector"},
		{"flow cap", func(c *Config) { c.Sector.Flow.Cap = 0 }, "sector.flow.cap"},
		{"grades", func(c *Config) { c.Sector.Grades.B = 80 }, "sector.grades"},
		{"empty fallback", func(c *Config) { c.Sector.Fallback = nil }, "sector.fallback"},
		{"scan rsi", func(c *Config) { c.Scan.RSIMax = 30 }, "scan"},
		{"scan gap", func(c *Config) { c.Scan.GapMax = -0.05 }, "scan"},
		{"pool width", func(c *Config) { c.Pool.Width = 0 }, "pool.width"},
		{"pool burst", func(c *Config) { c.Pool.RatePerSec = 5; c.Pool.Burst = 0 }, "pool.burst"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)

			var ve ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestValidate_FlowDisabledSkipsFlowChecks(t *testing.T) {
	cfg := Default()
	cfg.Sector.Flow.Enable = false
	cfg.Sector.Flow.Cap = 0
	assert.NoError(t, Validate(cfg))
}

func TestWarn(t *testing.T) {
	cfg := Default()
	cfg.Pool.Width = 32
	cfg.Sector.PerSector = 3
	cfg.Sector.Lookback = 200

	codes := make([]string, 0)
	for _, w := range Warn(cfg) {
		codes = append(codes, w.Code)
	}
	assert.ElementsMatch(t, []string{"WIDE_POOL", "THIN_SECTOR", "SHORT_LOOKBACK"}, codes)
}
