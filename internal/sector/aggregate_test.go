package sector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
	"github.com/wonny/aegis-signal/backend/internal/strategyconfig"
)

var semis = contracts.Sector{ID: "G2510", Name: "반도체"}

func TestAggregate_ShortJump(t *testing.T) {
	// 22봉: 21봉 동안 100, 마지막 110 → 모든 horizon이 21로 제한되어 +10%
	s := flat(22)
	s[21] = contracts.NewBar(s[21].Date, 110, 110, 110, 110, 1000)

	got, ok := Aggregate(testSectorConfig(), semis, []contracts.Series{s})
	require.True(t, ok)

	momentum := math.Tanh(2 * 0.1)
	assert.InDelta(t, momentum*100+15, got.RawScore, 1e-9)
	assert.InDelta(t, 10.0, got.RS1M, 1e-9)
	assert.InDelta(t, 10.0, got.RS12M, 1e-9)
	assert.InDelta(t, 10.0, got.ROC21, 1e-9)
	assert.Equal(t, 1.0, got.SMASupportRatio)
	assert.Equal(t, 0.0, got.QuietSpikeRatio)
	assert.Equal(t, 1, got.Constituents)
	assert.Equal(t, "반도체", got.Name)
}

func TestAggregate_QuietSpike(t *testing.T) {
	s := flat(30)
	// 거래량 2.5배, 일중 변동폭 1%
	s[29] = contracts.NewBar(s[29].Date, 100, 100.5, 99.5, 100, 2500)

	got, ok := Aggregate(testSectorConfig(), semis, []contracts.Series{s})
	require.True(t, ok)
	assert.Equal(t, 1.0, got.QuietSpikeRatio)
	assert.Equal(t, 0.0, got.SMASupportRatio, "close equal to SMA is not above it")
	assert.InDelta(t, 12.0, got.RawScore, 1e-9)
}

func TestAggregate_WideRangeIsNotQuiet(t *testing.T) {
	s := flat(30)
	s[29] = contracts.NewBar(s[29].Date, 100, 103, 98, 100, 2500)

	got, ok := Aggregate(testSectorConfig(), semis, []contracts.Series{s})
	require.True(t, ok)
	assert.Equal(t, 0.0, got.QuietSpikeRatio)
}

func TestAggregate_ExcludesShortSeries(t *testing.T) {
	cfg := testSectorConfig()

	got, ok := Aggregate(cfg, semis, []contracts.Series{linear(260, 100, 200), flat(10), nil})
	require.True(t, ok)
	assert.Equal(t, 1, got.Constituents)
	assert.Equal(t, 1.0, got.SMASupportRatio)

	_, ok = Aggregate(cfg, semis, []contracts.Series{flat(cfg.MinBars - 1)})
	assert.False(t, ok)

	_, ok = Aggregate(cfg, semis, nil)
	assert.False(t, ok)
}

func TestAggregate_BreadthIsAFraction(t *testing.T) {
	got, ok := Aggregate(testSectorConfig(), semis, []contracts.Series{
		linear(100, 100, 150),
		linear(100, 150, 100),
		flat(100),
		linear(100, 50, 80),
	})
	require.True(t, ok)
	assert.Equal(t, 4, got.Constituents)
	assert.InDelta(t, 0.5, got.SMASupportRatio, 1e-9)
}

func TestAggregate_Extras(t *testing.T) {
	t.Run("flat series has no volatility penalty", func(t *testing.T) {
		got, _ := Aggregate(testSectorConfig(), semis, []contracts.Series{flat(100)})
		assert.Equal(t, 0.0, got.VolatilityPenalty)
		assert.InDelta(t, 0.0, got.TradingValueTrend, 1e-9)
	})

	t.Run("zigzag saturates the penalty", func(t *testing.T) {
		s := flat(100)
		for i := range s {
			c := 100.0
			if i%2 == 1 {
				c = 110
			}
			s[i] = contracts.NewBar(s[i].Date, c, c, c, c, 1000)
		}
		got, _ := Aggregate(testSectorConfig(), semis, []contracts.Series{s})
		assert.Equal(t, 1.0, got.VolatilityPenalty)
	})

	t.Run("recent value surge shows in trend", func(t *testing.T) {
		s := flat(60)
		for i := 55; i < 60; i++ {
			s[i] = contracts.NewBar(s[i].Date, 100, 100, 100, 100, 2000)
		}
		got, _ := Aggregate(testSectorConfig(), semis, []contracts.Series{s})
		// 5일 평균 200,000 / 60일 평균 (55*100,000 + 5*200,000)/60
		assert.InDelta(t, 200000/(6500000.0/60)-1, got.TradingValueTrend, 1e-9)
	})
}

func TestTradedValue(t *testing.T) {
	s := flat(10)
	assert.Equal(t, 5*100.0*1000, TradedValue(s, 5))
	assert.Equal(t, 10*100.0*1000, TradedValue(s, 50))
	assert.Equal(t, 0.0, TradedValue(nil, 5))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  []float64
		want []int
	}{
		{"max 100 min 0", []float64{10, 30, 20}, []int{0, 100, 50}},
		{"rounded", []float64{0, 1, 3}, []int{0, 33, 100}},
		{"negative raws", []float64{-5, 5}, []int{0, 100}},
		{"all equal", []float64{7, 7, 7}, []int{0, 0, 0}},
		{"single sector", []float64{42}, []int{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores := make([]contracts.SectorScore, len(tt.raw))
			for i, r := range tt.raw {
				scores[i].RawScore = r
			}
			Normalize(scores)

			got := make([]int, len(scores))
			for i, s := range scores {
				got[i] = s.Score
			}
			assert.Equal(t, tt.want, got)
		})
	}

	assert.NotPanics(t, func() { Normalize(nil) })
}

func TestGradeFor(t *testing.T) {
	g := strategyconfig.Default().Sector.Grades
	assert.Equal(t, contracts.GradeA, gradeFor(g, 70))
	assert.Equal(t, contracts.GradeB, gradeFor(g, 69))
	assert.Equal(t, contracts.GradeB, gradeFor(g, 55))
	assert.Equal(t, contracts.GradeC, gradeFor(g, 54))
}
