package strategyconfig

// Config는 시그널/랭킹 엔진의 전체 설정
// ⭐ SSOT: 점수 임계값/가중치는 여기서만 정의
type Config struct {
	Meta    Meta    `yaml:"meta" json:"meta"`
	Scoring Scoring `yaml:"scoring" json:"scoring"`
	Sector  Sector  `yaml:"sector" json:"sector"`
	Scan    Scan    `yaml:"scan" json:"scan"`
	Pool    Pool    `yaml:"pool" json:"pool"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Scoring 종목 점수 설정
type Scoring struct {
	MinBars    int        `yaml:"min_bars" json:"min_bars"`
	Indicators Indicators `yaml:"indicators" json:"indicators"`
	// AVWAP 앵커 위치 (시계열 길이 대비 비율)
	AnchorFractions []float64 `yaml:"anchor_fractions" json:"anchor_fractions"`
	Flags           Flags     `yaml:"flags" json:"flags"`
	Points          Points    `yaml:"points" json:"points"`
	Combo           Combo     `yaml:"combo" json:"combo"`
	Signal          Signal    `yaml:"signal" json:"signal"`
	Levels          Levels    `yaml:"levels" json:"levels"`
	Sizing          Sizing    `yaml:"sizing" json:"sizing"`
}

type Indicators struct {
	SMAShort      int `yaml:"sma_short" json:"sma_short"`
	SMAMid        int `yaml:"sma_mid" json:"sma_mid"`
	SMALong       int `yaml:"sma_long" json:"sma_long"`
	SlopeLookback int `yaml:"slope_lookback" json:"slope_lookback"`
	RSIPeriod     int `yaml:"rsi_period" json:"rsi_period"`
	ROCShort      int `yaml:"roc_short" json:"roc_short"`
	ROCLong       int `yaml:"roc_long" json:"roc_long"`
	VolumeWindow  int `yaml:"volume_window" json:"volume_window"`
}

type Flags struct {
	Near20Pct    float64 `yaml:"near20_pct" json:"near20_pct"`       // |close/SMA20 - 1|
	VolSpikeMult float64 `yaml:"vol_spike_mult" json:"vol_spike_mult"` // 평균 거래량 배수
}

// Points 항목별 배점 (선형 ramp)
type Points struct {
	AVWAPMax    float64 `yaml:"avwap_max" json:"avwap_max"`
	RSIFrom     float64 `yaml:"rsi_from" json:"rsi_from"`
	RSITo       float64 `yaml:"rsi_to" json:"rsi_to"`
	RSIMax      float64 `yaml:"rsi_max" json:"rsi_max"`
	ROCLongTo   float64 `yaml:"roc_long_to" json:"roc_long_to"` // %
	ROCLongMax  float64 `yaml:"roc_long_max" json:"roc_long_max"`
	ROCShortTo  float64 `yaml:"roc_short_to" json:"roc_short_to"` // %
	ROCShortMax float64 `yaml:"roc_short_max" json:"roc_short_max"`
	Above50     float64 `yaml:"above50" json:"above50"`
	SlopeFloor  float64 `yaml:"slope_floor" json:"slope_floor"`
	SlopeCeil   float64 `yaml:"slope_ceil" json:"slope_ceil"`
	SlopeRefPct float64 `yaml:"slope_ref_pct" json:"slope_ref_pct"` // SMA200 대비
}

// Combo 동시 충족 조건 보너스
type Combo struct {
	AVWAPMin float64 `yaml:"avwap_min" json:"avwap_min"`
	RSIMin   float64 `yaml:"rsi_min" json:"rsi_min"`
	Bonus3   float64 `yaml:"bonus3" json:"bonus3"`
	Bonus4   float64 `yaml:"bonus4" json:"bonus4"`
	Bonus5   float64 `yaml:"bonus5" json:"bonus5"` // 5개 이상
}

type Signal struct {
	SetupAVWAPMin float64 `yaml:"setup_avwap_min" json:"setup_avwap_min"`
	SetupRSIMin   float64 `yaml:"setup_rsi_min" json:"setup_rsi_min"`
	TrendRSIMin   float64 `yaml:"trend_rsi_min" json:"trend_rsi_min"`
	HoldMin       float64 `yaml:"hold_min" json:"hold_min"`
	SellBelow     float64 `yaml:"sell_below" json:"sell_below"` // score < sell_below
}

type Levels struct {
	EntryCapPct  float64 `yaml:"entry_cap_pct" json:"entry_cap_pct"`
	HardStopMult float64 `yaml:"hard_stop_mult" json:"hard_stop_mult"`
	TrailPct     float64 `yaml:"trail_pct" json:"trail_pct"`
	Target1Mult  float64 `yaml:"target1_mult" json:"target1_mult"`
	Target2Mult  float64 `yaml:"target2_mult" json:"target2_mult"`
}

type Sizing struct {
	ScoreLow  float64 `yaml:"score_low" json:"score_low"`
	ScoreHigh float64 `yaml:"score_high" json:"score_high"`
	FactorMin float64 `yaml:"factor_min" json:"factor_min"`
	FactorMax float64 `yaml:"factor_max" json:"factor_max"`
}

// Sector 섹터 랭킹 설정
type Sector struct {
	PerSector int `yaml:"per_sector" json:"per_sector"` // 섹터별 유동성 상위 N
	TopK      int `yaml:"top_k" json:"top_k"`
	Lookback  int `yaml:"lookback" json:"lookback"`
	MinBars   int `yaml:"min_bars" json:"min_bars"`

	// 요청별 per_sector/top_k 상한
	MaxPerSector int `yaml:"max_per_sector" json:"max_per_sector"`
	MaxTopK      int `yaml:"max_top_k" json:"max_top_k"`

	Momentum   SectorMomentum `yaml:"momentum" json:"momentum"`
	Breadth    Breadth        `yaml:"breadth" json:"breadth"`
	QuietSpike QuietSpike     `yaml:"quiet_spike" json:"quiet_spike"`
	Flow       SectorFlow     `yaml:"flow" json:"flow"`
	Extras     Extras         `yaml:"extras" json:"extras"`
	Grades     Grades         `yaml:"grades" json:"grades"`

	// 계산 가능한 섹터가 없을 때 노출할 기본 목록
	Fallback []string `yaml:"fallback" json:"fallback"`
}

type SectorMomentum struct {
	Horizons   []int     `yaml:"horizons" json:"horizons"` // 거래일 오프셋
	Weights    []float64 `yaml:"weights" json:"weights"`   // 합 = 1.0
	SquashGain float64   `yaml:"squash_gain" json:"squash_gain"`
	Points     float64   `yaml:"points" json:"points"`
}

type Breadth struct {
	SMAPeriod int     `yaml:"sma_period" json:"sma_period"`
	Points    float64 `yaml:"points" json:"points"`
}

type QuietSpike struct {
	Window     int     `yaml:"window" json:"window"`
	VolumeMult float64 `yaml:"volume_mult" json:"volume_mult"`
	RangePct   float64 `yaml:"range_pct" json:"range_pct"`
	Points     float64 `yaml:"points" json:"points"`
}

// SectorFlow 수급 가중 (절대 기준 정규화)
type SectorFlow struct {
	Enable  bool    `yaml:"enable" json:"enable"`
	Weight  float64 `yaml:"weight" json:"weight"`
	Windows []int   `yaml:"windows" json:"windows"` // 5, 20 세션
	Cap     float64 `yaml:"cap" json:"cap"`         // 거래대금 대비 순매수 비율 상한
}

// Extras 보고용 지표 (점수 미반영)
type Extras struct {
	VolatilityWindow int     `yaml:"volatility_window" json:"volatility_window"`
	VolatilityFloor  float64 `yaml:"volatility_floor" json:"volatility_floor"`
	VolatilityScale  float64 `yaml:"volatility_scale" json:"volatility_scale"`
	ValueShort       int     `yaml:"value_short" json:"value_short"`
	ValueLong        int     `yaml:"value_long" json:"value_long"`
}

type Grades struct {
	A int `yaml:"a" json:"a"`
	B int `yaml:"b" json:"b"`
}

// Scan 눌림목 스캐너 조건
type Scan struct {
	Universe       int     `yaml:"universe" json:"universe"`                 // 유동성 상위 N 종목만 스캔
	MinTradedValue float64 `yaml:"min_traded_value" json:"min_traded_value"` // 원
	MinClose       float64 `yaml:"min_close" json:"min_close"`               // 동전주 제외
	RSIMin         float64 `yaml:"rsi_min" json:"rsi_min"`
	RSIMax         float64 `yaml:"rsi_max" json:"rsi_max"`
	GapMin         float64 `yaml:"gap_min" json:"gap_min"` // close/SMA20 - 1, 배타적
	GapMax         float64 `yaml:"gap_max" json:"gap_max"`
	Limit          int     `yaml:"limit" json:"limit"`
	Leaders        int     `yaml:"leaders" json:"leaders"` // 섹터 대장주 목록 길이
}

// Pool 동시 fetch 설정
type Pool struct {
	Width      int     `yaml:"width" json:"width"`
	RatePerSec float64 `yaml:"rate_per_sec" json:"rate_per_sec"` // 0 = 무제한
	Burst      int     `yaml:"burst" json:"burst"`
}

// Default returns the built-in strategy
func Default() *Config {
	return &Config{
		Meta: Meta{StrategyID: "aegis_signal", Version: "1"},
		Scoring: Scoring{
			MinBars: 200,
			Indicators: Indicators{
				SMAShort:      20,
				SMAMid:        50,
				SMALong:       200,
				SlopeLookback: 20,
				RSIPeriod:     14,
				ROCShort:      14,
				ROCLong:       21,
				VolumeWindow:  20,
			},
			AnchorFractions: []float64{0.2, 0.5, 0.8},
			Flags:           Flags{Near20Pct: 0.03, VolSpikeMult: 1.5},
			Points: Points{
				AVWAPMax:    12,
				RSIFrom:     50,
				RSITo:       65,
				RSIMax:      10,
				ROCLongTo:   6,
				ROCLongMax:  8,
				ROCShortTo:  4,
				ROCShortMax: 5,
				Above50:     5,
				SlopeFloor:  3,
				SlopeCeil:   6,
				SlopeRefPct: 0.005,
			},
			Combo:  Combo{AVWAPMin: 66, RSIMin: 55, Bonus3: 4, Bonus4: 7, Bonus5: 10},
			Signal: Signal{SetupAVWAPMin: 66, SetupRSIMin: 50, TrendRSIMin: 55, HoldMin: 35, SellBelow: 15},
			Levels: Levels{
				EntryCapPct:  0.03,
				HardStopMult: 0.93,
				TrailPct:     0.08,
				Target1Mult:  1.20,
				Target2Mult:  1.25,
			},
			Sizing: Sizing{ScoreLow: 20, ScoreHigh: 60, FactorMin: 0.6, FactorMax: 1.3},
		},
		Sector: Sector{
			PerSector: 10,
			TopK:      12,
			Lookback:  260,
			MinBars:   21,

			MaxPerSector: 30,
			MaxTopK:      50,
			Momentum: SectorMomentum{
				Horizons:   []int{21, 63, 126, 252},
				Weights:    []float64{0.35, 0.30, 0.20, 0.15},
				SquashGain: 2,
				Points:     100,
			},
			Breadth:    Breadth{SMAPeriod: 20, Points: 15},
			QuietSpike: QuietSpike{Window: 20, VolumeMult: 2, RangePct: 0.02, Points: 12},
			Flow:       SectorFlow{Enable: true, Weight: 0.2, Windows: []int{5, 20}, Cap: 0.10},
			Extras: Extras{
				VolatilityWindow: 60,
				VolatilityFloor:  0.02,
				VolatilityScale:  0.05,
				ValueShort:       5,
				ValueLong:        60,
			},
			Grades:   Grades{A: 70, B: 55},
			Fallback: []string{"반도체", "2차전지", "자동차", "바이오", "인터넷"},
		},
		Scan: Scan{
			Universe:       500,
			MinTradedValue: 5e8,
			MinClose:       5000,
			RSIMin:         40,
			RSIMax:         70,
			GapMin:         -0.03,
			GapMax:         0.05,
			Limit:          10,
			Leaders:        10,
		},
		Pool: Pool{Width: 8, RatePerSec: 0, Burst: 1},
	}
}
