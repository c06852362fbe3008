package contracts

import "time"

// Grade is the letter grade of a sector score
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
)

// Sector identifies an industry sector
type Sector struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SectorScore is the per-sector result of one ranking run
// ⭐ SSOT: 섹터 랭킹 결과 전달
type SectorScore struct {
	SectorID string `json:"sector_id"`
	Name     string `json:"name"`

	// Momentum (평균 수익률, squash 전)
	RS1M  float64 `json:"rs_1m"`
	RS3M  float64 `json:"rs_3m"`
	RS6M  float64 `json:"rs_6m"`
	RS12M float64 `json:"rs_12m"`
	ROC21 float64 `json:"roc21"`

	// Breadth / participation
	SMASupportRatio float64 `json:"sma_support_ratio"`
	QuietSpikeRatio float64 `json:"quiet_spike_ratio"`

	// Flow (수급)
	TradingValueTrend float64 `json:"trading_value_trend"`
	InvestorNet5D     float64 `json:"investor_net_5d"`
	InvestorNet20D    float64 `json:"investor_net_20d"`

	VolatilityPenalty float64 `json:"volatility_penalty"`

	Constituents int     `json:"constituents"` // 집계에 포함된 종목 수
	RawScore     float64 `json:"raw_score"`
	Score        int     `json:"score"` // 0 ~ 100
	Grade        Grade   `json:"grade"`
}

// SectorRanking is the output of a ranking run
type SectorRanking struct {
	RunID       string        `json:"run_id"`
	AsOf        time.Time     `json:"as_of"`
	Sectors     []SectorScore `json:"sectors"`
	Fallback    bool          `json:"fallback"`     // true: placeholder list, no computed scores
	FlowApplied bool          `json:"flow_applied"` // 수급 가중 반영 여부
	Reason      string        `json:"reason,omitempty"`
	ConfigHash  string        `json:"config_hash,omitempty"`
}

// Count returns the number of ranked sectors
func (r *SectorRanking) Count() int {
	return len(r.Sectors)
}
