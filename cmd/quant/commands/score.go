package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
)

var (
	scoreJSON bool
	scoreSave bool
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score <code>",
	Short: "종목 점수 계산",
	Long: `종목 하나의 점수, 시그널, 진입/손절/목표가를 계산합니다.

Example:
  go run ./cmd/quant score 005930
  go run ./cmd/quant score 005930 --json
  go run ./cmd/quant score 005930 --save`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "JSON 출력")
	scoreCmd.Flags().BoolVar(&scoreSave, "save", false, "결과를 DB에 저장")
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	code := args[0]

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	lookback := a.engine.MinBars()
	series, err := a.series.FetchSeries(ctx, code, lookback)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", code, err)
	}

	score, err := a.engine.Score(code, series)
	if errors.Is(err, contracts.ErrInsufficientData) {
		fmt.Fprintf(cmd.OutOrStdout(), "⚠️  %s: 데이터 부족 (%d bars < %d)\n", code, len(series), lookback)
		return nil
	}
	if err != nil {
		return err
	}

	if scoreSave {
		if a.scores == nil {
			return fmt.Errorf("--save requires a database")
		}
		if err := a.scores.SaveScore(ctx, score); err != nil {
			return err
		}
	}

	if scoreJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(score)
	}
	printScore(cmd.OutOrStdout(), score)
	return nil
}
