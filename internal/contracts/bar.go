package contracts

import (
	"math"
	"sort"
	"time"
)

// Bar is one trading day of OHLCV data for a symbol
// ⭐ SSOT: 일봉 데이터 구조는 여기서만 정의
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
	Amount float64   `json:"amount"` // 거래대금 (close * volume)
}

// NewBar builds a bar and fills Amount from close and volume
func NewBar(date time.Time, open, high, low, close float64, volume int64) Bar {
	return Bar{
		Date:   date,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: volume,
		Amount: close * float64(volume),
	}
}

// Series is an ordered sequence of bars for one symbol (ascending by date)
type Series []Bar

// Last returns the most recent bar
func (s Series) Last() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}

// IsSorted reports whether dates are strictly increasing
func (s Series) IsSorted() bool {
	for i := 1; i < len(s); i++ {
		if !s[i].Date.After(s[i-1].Date) {
			return false
		}
	}
	return true
}

// Usable reports whether the bar carries a finite, positive close
func (b Bar) Usable() bool {
	return b.Close > 0 && !math.IsInf(b.Close, 1) // NaN은 비교에서 걸러짐
}

// Sorted returns an ascending copy with duplicate dates collapsed (the later entry wins).
// Bars without a usable close are dropped. The receiver is never modified.
func (s Series) Sorted() Series {
	out := make(Series, 0, len(s))
	for _, b := range s {
		if b.Usable() {
			out = append(out, b)
		}
	}
	if out.IsSorted() {
		return out.withAmounts()
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})

	dedup := out[:0]
	for _, b := range out {
		if n := len(dedup); n > 0 && dedup[n-1].Date.Equal(b.Date) {
			dedup[n-1] = b
			continue
		}
		dedup = append(dedup, b)
	}
	return dedup.withAmounts()
}

func (s Series) withAmounts() Series {
	for i := range s {
		if s[i].Amount == 0 && s[i].Volume > 0 {
			s[i].Amount = s[i].Close * float64(s[i].Volume)
		}
	}
	return s
}

// Closes returns closing prices in series order
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Volumes returns volumes in series order
func (s Series) Volumes() []int64 {
	out := make([]int64, len(s))
	for i, b := range s {
		out[i] = b.Volume
	}
	return out
}

// Tail returns the last n bars (or the whole series when shorter)
func (s Series) Tail(n int) Series {
	if n <= 0 {
		return Series{}
	}
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}
