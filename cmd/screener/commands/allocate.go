package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-screener/internal/screener"
)

// allocateCmd represents the allocate command
var allocateCmd = &cobra.Command{
	Use:   "allocate",
	Short: "오늘 스캔 결과로 예산 재배분",
	Long: `저장된 오늘의 스캔 리포트에서 상위 종목에 예산을 다시 배분합니다.
스캔을 다시 실행하지 않습니다 (STORE_BACKEND=memory 에서는 같은 프로세스 외 결과 없음).

Example:
  go run ./cmd/screener allocate --budget 30000000`,
	RunE: runAllocate,
}

var allocateBudget int64

func init() {
	rootCmd.AddCommand(allocateCmd)

	allocateCmd.Flags().Int64Var(&allocateBudget, "budget", -1, "총 예산 (원, 기본: profile default_budget)")
}

func runAllocate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	budget := allocateBudget
	if budget < 0 {
		budget = a.profile.Allocation.DefaultBudget
	}

	allocations, err := a.service.Allocate(ctx, budget)
	if errors.Is(err, screener.ErrNoScan) {
		fmt.Println("오늘 스캔 결과가 없습니다. 먼저 'screener scan'을 실행하세요.")
		return err
	}
	if err != nil {
		return fmt.Errorf("allocate: %w", err)
	}

	PrintAllocations(budget, allocations)
	return nil
}
