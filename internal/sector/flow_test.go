package sector

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
	"github.com/wonny/aegis-signal/backend/internal/strategyconfig"
)

func TestFlowComponent(t *testing.T) {
	cfg := strategyconfig.Default().Sector.Flow

	tests := []struct {
		name   string
		nets   []float64
		values []float64
		want   float64
	}{
		{"half of cap", []float64{50}, []float64{1000}, 0.75},
		{"capped outflow", []float64{-300}, []float64{1000}, 0},
		{"capped inflow", []float64{300}, []float64{1000}, 1},
		{"windows averaged", []float64{50, -300}, []float64{1000, 1000}, 0.375},
		{"no traded value is neutral", []float64{50}, []float64{0}, 0.5},
		{"no windows", nil, nil, NeutralFlow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, FlowComponent(cfg, tt.nets, tt.values), 1e-9)
		})
	}
}

func TestBlend(t *testing.T) {
	assert.Equal(t, 95, blend(0.2, 100, 0.75))
	assert.Equal(t, 10, blend(0.2, 0, NeutralFlow))
	assert.Equal(t, 50, blend(0, 50, 1))
}

func TestFlowLeaders(t *testing.T) {
	ranking := &contracts.SectorRanking{
		FlowApplied: true,
		Sectors: []contracts.SectorScore{
			{SectorID: "A", InvestorNet5D: 5e9},
			{SectorID: "B", InvestorNet5D: 3e10},
			{SectorID: "C", InvestorNet5D: 2e10},
			{SectorID: "D", InvestorNet5D: -1e10},
		},
	}

	assert.Equal(t, []string{"B", "C"}, ids(FlowLeaders(ranking, DefaultMinFlowNet)))
	assert.Equal(t, []string{"B", "C", "A"}, ids(FlowLeaders(ranking, 0)))

	ranking.FlowApplied = false
	assert.Empty(t, FlowLeaders(ranking, 0))
	assert.Empty(t, FlowLeaders(nil, 0))
}
