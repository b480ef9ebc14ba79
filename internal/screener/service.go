// Package screener owns scan runs, the last report of the day and budget allocation.
package screener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/aegis-screener/internal/allocation"
	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/internal/scan"
	"github.com/wonny/aegis-screener/pkg/kvstore"
	"github.com/wonny/aegis-screener/pkg/logger"
)

// ReportTTL bounds how long a persisted report survives in the store
const ReportTTL = 24 * time.Hour

var (
	// ErrScanInProgress is returned when a scan is requested while another runs
	ErrScanInProgress = errors.New("screener: scan already in progress")
	// ErrNoScan is returned when no report exists for the trading day
	ErrNoScan = errors.New("screener: no scan report for today")
)

// ReportKey returns the store key of the report of day (yyyymmdd)
func ReportKey(day string) string {
	return fmt.Sprintf("scan_report_%s", day)
}

// Status is a snapshot of the service state
type Status struct {
	Running    bool                `json:"running"`
	Progress   *contracts.Progress `json:"progress,omitempty"`
	LastRunID  string              `json:"last_run_id,omitempty"`
	LastDay    string              `json:"last_trading_day,omitempty"`
	Accepted   int                 `json:"accepted"`
	Rejected   int                 `json:"rejected"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
}

// Service serializes scans and keeps the latest report
// ⭐ SSOT: 동시 스캔 금지 + 마지막 리포트 보관은 여기서만
type Service struct {
	universe  contracts.UniverseProvider
	pipeline  *scan.Pipeline
	allocator *allocation.Allocator
	store     kvstore.Store
	logger    *logger.Logger
	now       func() time.Time

	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	progress *contracts.Progress
	last     *contracts.ScanReport

	subMu  sync.Mutex
	nextID int
	subs   map[int]chan contracts.Progress
}

// NewService wires the scan dependencies
func NewService(universe contracts.UniverseProvider, pipeline *scan.Pipeline, allocator *allocation.Allocator, store kvstore.Store, log *logger.Logger) *Service {
	return &Service{
		universe:  universe,
		pipeline:  pipeline,
		allocator: allocator,
		store:     store,
		logger:    log,
		now:       time.Now,
		subs:      make(map[int]chan contracts.Progress),
	}
}

// Scan runs a full scan and blocks until it finishes. limit > 0 truncates the universe.
func (s *Service) Scan(ctx context.Context, limit int) (*contracts.ScanReport, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, limit), nil
}

// Start launches a scan in the background and returns immediately
func (s *Service) Start(limit int) error {
	ctx, err := s.begin(context.Background())
	if err != nil {
		return err
	}
	go s.execute(ctx, limit)
	return nil
}

// Cancel stops the running scan after its current symbol; false if none runs
func (s *Service) Cancel() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running || s.cancel == nil {
		return false
	}
	s.cancel()
	return true
}

func (s *Service) begin(parent context.Context) (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil, ErrScanInProgress
	}

	ctx, cancel := context.WithCancel(parent)
	s.running = true
	s.cancel = cancel
	s.progress = nil
	return ctx, nil
}

func (s *Service) execute(ctx context.Context, limit int) *contracts.ScanReport {
	defer func() {
		s.mu.Lock()
		if s.cancel != nil {
			s.cancel()
		}
		s.running = false
		s.cancel = nil
		s.mu.Unlock()
	}()

	universe := s.universe.Universe(ctx)
	if limit > 0 && limit < len(universe) {
		universe = universe[:limit]
	}

	report := s.pipeline.Run(ctx, universe, s.onProgress)

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	// 취소된 스캔도 저장 (부분 결과)
	if err := s.persist(context.WithoutCancel(ctx), report); err != nil {
		s.logger.WithRun(report.RunID).WithError(err).Warn("Failed to persist scan report")
	}

	return report
}

func (s *Service) onProgress(p contracts.Progress) {
	s.mu.Lock()
	snapshot := p
	s.progress = &snapshot
	s.mu.Unlock()

	s.broadcast(p)
}

// Status returns the current state
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{Running: s.running}
	if s.progress != nil {
		p := *s.progress
		st.Progress = &p
	}
	if s.last != nil {
		finished := s.last.FinishedAt
		st.LastRunID = s.last.RunID
		st.LastDay = s.last.TradingDay
		st.Accepted = len(s.last.Accepted)
		st.Rejected = len(s.last.Rejections)
		st.FinishedAt = &finished
	}
	return st
}

// LastReport returns today's report, from memory or from the store
func (s *Service) LastReport(ctx context.Context) (*contracts.ScanReport, error) {
	day := contracts.TradingDay(s.now())

	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()

	if last != nil && last.TradingDay == day {
		return last, nil
	}

	report, err := s.load(ctx, day)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.last == nil || s.last.TradingDay != day {
		s.last = report
	}
	s.mu.Unlock()

	return report, nil
}

// Allocate splits totalBudget over today's accepted results
func (s *Service) Allocate(ctx context.Context, totalBudget int64) ([]allocation.Allocation, error) {
	report, err := s.LastReport(ctx)
	if err != nil {
		return nil, err
	}
	return s.allocator.Allocate(report.Accepted, totalBudget)
}

func (s *Service) persist(ctx context.Context, report *contracts.ScanReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := s.store.Put(ctx, ReportKey(report.TradingDay), data, ReportTTL); err != nil {
		return fmt.Errorf("store report: %w", err)
	}
	return nil
}

func (s *Service) load(ctx context.Context, day string) (*contracts.ScanReport, error) {
	data, found, err := s.store.Get(ctx, ReportKey(day))
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	if !found {
		return nil, ErrNoScan
	}

	var report contracts.ScanReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &report, nil
}
