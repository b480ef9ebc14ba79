package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "유니버스 스캔 실행",
	Long: `유니버스를 순차 스캔하고 결과와 예산 배분을 출력합니다.

Ctrl+C 시 현재 종목까지 처리한 부분 결과를 출력합니다.

Example:
  go run ./cmd/screener scan
  go run ./cmd/screener scan --budget 50000000 --limit 10`,
	RunE: runScan,
}

var (
	scanBudget int64
	scanLimit  int
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().Int64Var(&scanBudget, "budget", -1, "총 예산 (원, 기본: profile default_budget, 0이면 배분 생략)")
	scanCmd.Flags().IntVar(&scanLimit, "limit", 0, "스캔 종목 수 제한 (0 = 전체)")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	events, release := a.service.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			PrintProgress(ev)
		}
	}()

	report, err := a.service.Scan(ctx, scanLimit)
	release()
	<-done
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	PrintReport(report)

	budget := scanBudget
	if budget < 0 {
		budget = a.profile.Allocation.DefaultBudget
	}
	if budget == 0 {
		return nil
	}

	allocations, err := a.service.Allocate(ctx, budget)
	if err != nil {
		return fmt.Errorf("allocate: %w", err)
	}
	PrintAllocations(budget, allocations)

	return nil
}
