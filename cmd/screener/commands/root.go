package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	profilePath string
	verbose     bool
	noRetry     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "Aegis Screener - 저녁 KRX 종목 스크리너",
	Long: `Aegis Screener CLI

장 마감 후 최대 50종목을 순차 스캔하여 기술적 점수를 매기고,
단타/스윙으로 분류한 뒤 상위 5종목에 예산을 배분합니다.

Usage:
  go run ./cmd/screener [command]

Examples:
  go run ./cmd/screener scan --budget 50000000
  go run ./cmd/screener serve
  go run ./cmd/screener allocate --budget 30000000
  go run ./cmd/screener job evening_scan`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "scan profile YAML (default: SCAN_PROFILE or built-in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&noRetry, "no-retry", false, "일시적 HTTP 오류 재시도 끄기")
}
