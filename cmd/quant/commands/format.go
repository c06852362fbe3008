package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	singleLine = "───────────────────────────────────────────────────────────"
	doubleLine = "═══════════════════════════════════════════════════════════"
)

// printHeader prints a titled block
func printHeader(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, doubleLine)
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintln(w, singleLine)
}

// printTableHeader prints a table header
func printTableHeader(w io.Writer, columns []string, widths []int) {
	printTableRow(w, columns, widths)

	total := 0
	for i, width := range widths {
		total += width
		if i < len(widths)-1 {
			total += 2 // spacing
		}
	}
	fmt.Fprintln(w, strings.Repeat("─", total))
}

// printTableRow prints a table row
func printTableRow(w io.Writer, values []string, widths []int) {
	for i, val := range values {
		fmt.Fprintf(w, "%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)
}

// printKeyValue prints key-value pairs
func printKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "   %-*s : %s\n", keyWidth, key, value)
}

func price(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}

// printScore renders one symbol's score and execution plan
func printScore(w io.Writer, s *contracts.Score) {
	printHeader(w, fmt.Sprintf("%s  %s", s.Symbol, s.Date.Format("2006-01-02")))

	printKeyValue(w, "Score", fmt.Sprintf("%.1f", s.Score), 12)
	printKeyValue(w, "Signal", strings.ToUpper(string(s.Signal)), 12)
	printKeyValue(w, "Size", fmt.Sprintf("x%.2f", s.SizeFactor), 12)
	fmt.Fprintln(w, singleLine)

	f := s.Factors
	printKeyValue(w, "SMA20/50/200", fmt.Sprintf("%s / %s / %s", price(f.SMA20), price(f.SMA50), price(f.SMA200)), 12)
	printKeyValue(w, "RSI14", fmt.Sprintf("%.1f", f.RSI14), 12)
	printKeyValue(w, "ROC14/21", fmt.Sprintf("%.2f%% / %.2f%%", f.ROC14, f.ROC21), 12)
	printKeyValue(w, "AVWAP", fmt.Sprintf("%.0f%%", f.AVWAPSupport), 12)
	fmt.Fprintln(w, singleLine)

	buy := price(s.Entry.Buy)
	if s.Entry.Add != nil {
		buy += " (add " + price(*s.Entry.Add) + ")"
	}
	printKeyValue(w, "Entry", buy, 12)
	printKeyValue(w, "Stop", fmt.Sprintf("%s (trail %s, %.0f%%)", price(s.Stops.Hard), price(s.Stops.Trail), s.Stops.TrailPct*100), 12)
	printKeyValue(w, "Targets", fmt.Sprintf("%s / %s", price(s.Targets.T1), price(s.Targets.T2)), 12)
	if rr1, rr2, ok := s.RiskReward(); ok {
		printKeyValue(w, "R/R", fmt.Sprintf("%.2f / %.2f", rr1, rr2), 12)
	}
	fmt.Fprintln(w, doubleLine)
}

// printRanking renders a sector ranking table
func printRanking(w io.Writer, r *contracts.SectorRanking) {
	title := fmt.Sprintf("Sector Ranking  %s", r.AsOf.Format("2006-01-02"))
	if r.FlowApplied {
		title += "  (flow)"
	}
	printHeader(w, title)

	if r.Fallback {
		fmt.Fprintf(w, "⚠️  %s\n", r.Reason)
	}

	widths := []int{4, 16, 6, 6, 8, 8, 8, 5}
	printTableHeader(w, []string{"#", "Sector", "Score", "Grade", "RS1M", "RS3M", "Breadth", "N"}, widths)
	for i, s := range r.Sectors {
		printTableRow(w, []string{
			strconv.Itoa(i + 1),
			s.Name,
			strconv.Itoa(s.Score),
			string(s.Grade),
			fmt.Sprintf("%.1f%%", s.RS1M),
			fmt.Sprintf("%.1f%%", s.RS3M),
			fmt.Sprintf("%.0f%%", s.SMASupportRatio*100),
			strconv.Itoa(s.Constituents),
		}, widths)
	}
	fmt.Fprintln(w, doubleLine)
}

// printScan renders screener hits
func printScan(w io.Writer, r *contracts.ScanResult) {
	scope := "전체 시장"
	if r.Sector != "" {
		scope = r.Sector + " 섹터"
	}
	printHeader(w, fmt.Sprintf("Scan  %s  (%d/%d scored)", scope, r.Scored, r.Scanned))

	if len(r.Candidates) == 0 {
		fmt.Fprintln(w, "조건에 맞는 종목이 없습니다")
		fmt.Fprintln(w, doubleLine)
		return
	}

	widths := []int{4, 8, 10, 6, 8, 10, 6}
	printTableHeader(w, []string{"#", "Code", "Close", "RSI", "Gap20", "Value(억)", "Score"}, widths)
	for i, c := range r.Candidates {
		printTableRow(w, []string{
			strconv.Itoa(i + 1),
			c.Symbol,
			price(c.Close),
			fmt.Sprintf("%.1f", c.RSI14),
			fmt.Sprintf("%+.1f%%", c.Gap20),
			fmt.Sprintf("%.0f", c.TradedValue/1e8),
			fmt.Sprintf("%.1f", c.Score),
		}, widths)
	}
	fmt.Fprintln(w, doubleLine)
}

// printLeaders renders a sector's liquidity leaders
func printLeaders(w io.Writer, l *contracts.SectorLeaders) {
	printHeader(w, fmt.Sprintf("Leaders  %s", l.Sector.Name))
	for i, code := range l.Symbols {
		fmt.Fprintf(w, "  %2d. %s\n", i+1, code)
	}
	fmt.Fprintln(w, doubleLine)
}
