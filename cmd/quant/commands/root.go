package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyPath string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "Aegis Signal - 종목 점수 / 섹터 랭킹 엔진",
	Long: `Aegis Signal Unified CLI

일봉 기반 종목 점수와 섹터 랭킹을 계산합니다.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant score 005930
  go run ./cmd/quant sector rank --top 12 --per-sector 10
  go run ./cmd/quant api
  go run ./cmd/quant scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyPath, "strategy", "", "strategy YAML (default: STRATEGY_PATH or built-in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
