package commands

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"
)

var scanJSON bool

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [sector]",
	Short: "눌림목 스캔",
	Long: `정배열(50일선 > 200일선, 종가 > 200일선), 20일선 -3%~+5% 눌림,
RSI 40~70, ROC14 > 0 조건의 종목을 거래대금 순으로 찾습니다.
섹터를 지정하지 않으면 전체 시장 유동성 상위 종목을 스캔합니다.

Example:
  go run ./cmd/quant scan
  go run ./cmd/quant scan 반도체 --json`,
	Args: cobra.ArbitraryArgs,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "JSON 출력")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireScanner(); err != nil {
		return err
	}

	result, err := a.scanner.Scan(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	if scanJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printScan(cmd.OutOrStdout(), result)
	return nil
}
