package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/internal/screener"
	"github.com/wonny/aegis-screener/pkg/logger"
)

// Scanner runs a blocking scan
type Scanner interface {
	Scan(ctx context.Context, limit int) (*contracts.ScanReport, error)
}

var _ Scanner = (*screener.Service)(nil)

// EveningScanJob runs the evening screen after the close
// ⭐ SSOT: 저녁 스캔 스케줄은 이 Job에서만
type EveningScanJob struct {
	scanner  Scanner
	schedule string
	logger   *logger.Logger
}

// NewEveningScanJob creates the scan job; schedule is a 6-field cron expression
func NewEveningScanJob(scanner Scanner, schedule string, log *logger.Logger) *EveningScanJob {
	return &EveningScanJob{
		scanner:  scanner,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *EveningScanJob) Name() string {
	return "evening_scan"
}

// Schedule returns the cron schedule (평일 21:00 KST by default)
func (j *EveningScanJob) Schedule() string {
	return j.schedule
}

// Run executes the scan. A scan already started by hand counts as done.
func (j *EveningScanJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled scan")

	report, err := j.scanner.Scan(ctx, 0)
	if errors.Is(err, screener.ErrScanInProgress) {
		j.logger.Warn("Scan already running, skipping scheduled run")
		return nil
	}
	if err != nil {
		return fmt.Errorf("evening scan: %w", err)
	}

	j.logger.WithRun(report.RunID).WithFields(map[string]interface{}{
		"accepted":  len(report.Accepted),
		"rejected":  len(report.Rejections),
		"cancelled": report.Cancelled,
	}).Info("Scheduled scan completed")

	return nil
}
