package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/aegis-screener/internal/api"
	"github.com/wonny/aegis-screener/internal/api/handlers"
	"github.com/wonny/aegis-screener/internal/scheduler"
	"github.com/wonny/aegis-screener/internal/scheduler/jobs"
	"github.com/wonny/aegis-screener/pkg/kvstore"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "API 서버 + 저녁 스캔 스케줄러 시작",
	Long: `HTTP API 서버와 저녁 스캔 스케줄러를 함께 실행합니다.

Endpoints:
  GET    /health              - Health check
  POST   /api/scan            - 백그라운드 스캔 시작
  DELETE /api/scan            - 진행 중 스캔 취소
  GET    /api/scan/status     - 진행 상태
  GET    /api/scan/results    - 오늘 스캔 결과
  GET    /api/scan/stream     - 진행 이벤트 (websocket)
  POST   /api/allocate        - 예산 배분 {"total_budget": N}

Example:
  go run ./cmd/screener serve
  go run ./cmd/screener serve --port 8090`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (기본: PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if servePort != "" {
		a.cfg.Port = servePort
	}

	router := api.NewRouter(
		handlers.NewScanHandler(a.service, a.profile.Allocation.DefaultBudget, a.log),
		handlers.NewStreamHandler(a.service, a.log),
		a.log,
	)
	server := api.New(a.cfg, a.log, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx)
	})

	if a.cfg.Scan.ScheduleEnabled {
		sched, err := newScheduler(a)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return sched.Run(gctx)
		})
	}

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	if a.cfg.Scan.ScheduleEnabled {
		fmt.Printf("   Evening scan: %s (KST)\n", a.cfg.Scan.Schedule)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	err = g.Wait()
	// 진행 중 스캔은 현재 종목 후 중단
	a.service.Cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serve: %w", err)
	}
	a.log.Info("Server stopped")
	return nil
}

func newScheduler(a *app, opts ...scheduler.Option) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log, opts...)

	if err := sched.AddJob(jobs.NewEveningScanJob(a.service, a.cfg.Scan.Schedule, a.log)); err != nil {
		return nil, fmt.Errorf("schedule scan: %w", err)
	}

	if purger, ok := a.store.(kvstore.Purger); ok {
		if err := sched.AddJob(jobs.NewStorePurgeJob(purger, a.log)); err != nil {
			return nil, fmt.Errorf("schedule purge: %w", err)
		}
	}

	return sched, nil
}
