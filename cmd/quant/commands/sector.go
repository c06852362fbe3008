package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
	"github.com/wonny/aegis-signal/backend/internal/sector"
)

var (
	sectorTop       int
	sectorPerSector int
	sectorJSON      bool
	sectorRefresh   bool
	sectorMinNet    float64
)

// sectorCmd represents the sector command
var sectorCmd = &cobra.Command{
	Use:   "sector",
	Short: "섹터 랭킹",
	Long: `섹터 랭킹을 계산하거나 수급 주도 섹터를 조회합니다.

Subcommands:
  rank    - 섹터 랭킹 계산
  flow    - 외국인+기관 5일 순매수 상위 섹터
  leaders - 섹터 유동성 상위 종목 (대장주 후보)

Example:
  go run ./cmd/quant sector rank --top 12 --per-sector 10
  go run ./cmd/quant sector flow --min-net 10000000000
  go run ./cmd/quant sector leaders 반도체`,
}

var (
	sectorRankCmd = &cobra.Command{
		Use:   "rank",
		Short: "섹터 랭킹 계산",
		RunE:  runSectorRank,
	}

	sectorFlowCmd = &cobra.Command{
		Use:   "flow",
		Short: "수급 주도 섹터",
		RunE:  runSectorFlow,
	}

	sectorLeadersCmd = &cobra.Command{
		Use:   "leaders <sector>",
		Short: "섹터 대장주 후보",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSectorLeaders,
	}
)

func init() {
	rootCmd.AddCommand(sectorCmd)
	sectorCmd.AddCommand(sectorRankCmd)
	sectorCmd.AddCommand(sectorFlowCmd)
	sectorCmd.AddCommand(sectorLeadersCmd)

	sectorRankCmd.Flags().IntVar(&sectorTop, "top", 0, "상위 섹터 수 (0 = 전략 설정)")
	sectorRankCmd.Flags().IntVar(&sectorPerSector, "per-sector", 0, "섹터별 종목 수 (0 = 전략 설정)")
	sectorRankCmd.Flags().BoolVar(&sectorJSON, "json", false, "JSON 출력")
	sectorRankCmd.Flags().BoolVar(&sectorRefresh, "refresh", false, "캐시 무시하고 재계산 후 저장")

	sectorFlowCmd.Flags().Float64Var(&sectorMinNet, "min-net", sector.DefaultMinFlowNet, "5일 순매수 하한 (원)")
}

func runSectorRank(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireSectors(); err != nil {
		return err
	}

	if sectorRefresh && (sectorTop > 0 || sectorPerSector > 0) {
		return fmt.Errorf("--refresh uses the strategy bounds; drop --top/--per-sector")
	}

	var ranking *contracts.SectorRanking
	if sectorRefresh {
		ranking, err = a.sectors.Refresh(ctx)
	} else {
		ranking, err = a.sectors.Ranking(ctx, sectorPerSector, sectorTop)
	}
	if err != nil {
		return err
	}

	if sectorJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(ranking)
	}
	printRanking(cmd.OutOrStdout(), ranking)
	return nil
}

func runSectorFlow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireSectors(); err != nil {
		return err
	}

	ranking, err := a.sectors.Ranking(ctx, 0, 0)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !ranking.FlowApplied {
		fmt.Fprintln(out, "⚠️  수급 데이터 없음 (flow disabled or unavailable)")
		return nil
	}

	leaders := sector.FlowLeaders(ranking, sectorMinNet)
	printHeader(out, fmt.Sprintf("Flow Leaders  %s  (> %.0f억)", ranking.AsOf.Format("2006-01-02"), sectorMinNet/1e8))
	widths := []int{4, 16, 14, 14, 6}
	printTableHeader(out, []string{"#", "Sector", "Net 5D(억)", "Net 20D(억)", "Score"}, widths)
	for i, s := range leaders {
		printTableRow(out, []string{
			fmt.Sprint(i + 1),
			s.Name,
			fmt.Sprintf("%.0f", s.InvestorNet5D/1e8),
			fmt.Sprintf("%.0f", s.InvestorNet20D/1e8),
			fmt.Sprint(s.Score),
		}, widths)
	}
	fmt.Fprintln(out, doubleLine)
	return nil
}

func runSectorLeaders(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireScanner(); err != nil {
		return err
	}

	leaders, err := a.scanner.Leaders(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	printLeaders(cmd.OutOrStdout(), leaders)
	return nil
}
