package contracts

import "time"

// Signal is the discrete trading signal of a Score
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalHold Signal = "hold"
	SignalSell Signal = "sell"
	SignalNone Signal = "none"
)

// ScoreFactors holds the indicator snapshot behind a score
type ScoreFactors struct {
	SMA20        float64 `json:"sma20"`
	SMA50        float64 `json:"sma50"`
	SMA200       float64 `json:"sma200"`
	SMA200Slope  float64 `json:"sma200_slope"`  // SMA200[last] - SMA200[last-20]
	RSI14        float64 `json:"rsi14"`         // 0 ~ 100
	ROC14        float64 `json:"roc14"`         // %
	ROC21        float64 `json:"roc21"`         // %
	AVWAPSupport float64 `json:"avwap_support"` // 0 ~ 100 (%)
}

// ScoreFlags are the boolean setup conditions derived from the factors
type ScoreFlags struct {
	Near20     bool `json:"near20"`
	Above50    bool `json:"above50"`
	VolSpike20 bool `json:"vol_spike20"`
}

// Entry holds entry price levels
type Entry struct {
	Buy float64  `json:"buy"`
	Add *float64 `json:"add,omitempty"` // 50일선 위일 때만
}

// Stops holds stop levels
type Stops struct {
	Hard     float64 `json:"hard"`
	Trail    float64 `json:"trail"`
	TrailPct float64 `json:"trail_pct"`
}

// Targets holds profit-taking levels
type Targets struct {
	T1 float64 `json:"t1"`
	T2 float64 `json:"t2"`
}

// Score is the per-symbol evaluation passed to persistence/rendering collaborators
// ⭐ SSOT: 종목 점수 결과 전달
type Score struct {
	Symbol     string       `json:"symbol"`
	Date       time.Time    `json:"date"`
	Score      float64      `json:"score"` // 0 ~ 100
	Signal     Signal       `json:"signal"`
	Factors    ScoreFactors `json:"factors"`
	Flags      ScoreFlags   `json:"flags"`
	Entry      Entry        `json:"entry"`
	Stops      Stops        `json:"stops"`
	Targets    Targets      `json:"targets"`
	SizeFactor float64      `json:"size_factor"` // 0.6 ~ 1.3
}

// RiskReward returns the reward/risk multiples of T1 and T2 against the hard stop.
// ok is false when the stop is not below the entry.
func (s *Score) RiskReward() (rr1, rr2 float64, ok bool) {
	risk := s.Entry.Buy - s.Stops.Hard
	if s.Entry.Buy <= 0 || risk <= 0 {
		return 0, 0, false
	}
	return (s.Targets.T1 - s.Entry.Buy) / risk, (s.Targets.T2 - s.Entry.Buy) / risk, true
}
