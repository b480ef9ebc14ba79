package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-screener/internal/scheduler"
)

// jobCmd runs one scheduled job immediately
var jobCmd = &cobra.Command{
	Use:   "job <name>",
	Short: "스케줄 작업 즉시 실행",
	Long: `serve 에 등록되는 작업(evening_scan, store_purge)을 한 번 바로 실행합니다.
재시도 대기 없이 한 번만 시도합니다.

Example:
  go run ./cmd/screener job evening_scan
  go run ./cmd/screener job store_purge`,
	Args: cobra.ExactArgs(1),
	RunE: runJobNow,
}

func init() {
	rootCmd.AddCommand(jobCmd)
}

func runJobNow(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a, scheduler.WithRetry(0, 0))
	if err != nil {
		return err
	}

	result, err := sched.RunNow(ctx, args[0])
	if err != nil {
		return err
	}

	PrintJobResult(result)
	if !result.Success {
		return fmt.Errorf("job %s failed: %s", result.JobName, result.Error)
	}
	return nil
}
