package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/wonny/aegis-screener/internal/allocation"
	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/internal/screener"
	"github.com/wonny/aegis-screener/pkg/logger"
)

// ScanService is the part of screener.Service the API drives
type ScanService interface {
	Start(limit int) error
	Cancel() bool
	Status() screener.Status
	LastReport(ctx context.Context) (*contracts.ScanReport, error)
	Allocate(ctx context.Context, totalBudget int64) ([]allocation.Allocation, error)
	Subscribe() (<-chan contracts.Progress, func())
}

var _ ScanService = (*screener.Service)(nil)

// ScanHandler handles scan and allocation endpoints
// ⭐ SSOT: 스캔 API 핸들러는 여기서만
type ScanHandler struct {
	service       ScanService
	defaultBudget int64
	logger        *logger.Logger
}

// NewScanHandler creates a new scan handler; defaultBudget applies when a request omits it
func NewScanHandler(service ScanService, defaultBudget int64, log *logger.Logger) *ScanHandler {
	return &ScanHandler{
		service:       service,
		defaultBudget: defaultBudget,
		logger:        log,
	}
}

// StartScanRequest is the optional body of POST /api/scan
type StartScanRequest struct {
	Limit int `json:"limit"` // 0 = 전체 유니버스
}

// StartScan launches a background scan
// POST /api/scan
func (h *ScanHandler) StartScan(w http.ResponseWriter, r *http.Request) {
	var req StartScanRequest
	if err := decodeOptional(r.Body, &req); err != nil || req.Limit < 0 {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.Start(req.Limit); err != nil {
		if errors.Is(err, screener.ErrScanInProgress) {
			respondError(w, http.StatusConflict, "Scan already in progress")
			return
		}
		h.logger.WithError(err).Error("Failed to start scan")
		respondError(w, http.StatusInternalServerError, "Failed to start scan")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// CancelScan stops the running scan after its current symbol
// DELETE /api/scan
func (h *ScanHandler) CancelScan(w http.ResponseWriter, r *http.Request) {
	if !h.service.Cancel() {
		respondError(w, http.StatusNotFound, "No scan in progress")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

// GetStatus returns the progress snapshot
// GET /api/scan/status
func (h *ScanHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.Status())
}

// GetResults returns today's report
// GET /api/scan/results
func (h *ScanHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.LastReport(r.Context())
	if errors.Is(err, screener.ErrNoScan) {
		respondError(w, http.StatusNotFound, "No scan results for today")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to load scan report")
		respondError(w, http.StatusInternalServerError, "Failed to load scan results")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// AllocateRequest is the body of POST /api/allocate
type AllocateRequest struct {
	TotalBudget *int64 `json:"total_budget"`
}

// AllocationItem is one pick of the allocation response
type AllocationItem struct {
	Code       string             `json:"code"`
	Name       string             `json:"name"`
	Score      int                `json:"score"`
	Strategy   contracts.Strategy `json:"strategy"`
	Priority   contracts.Priority `json:"priority"`
	Signals    string             `json:"signals"`
	EntryPrice float64            `json:"entry_price"`
	StopLoss   int64              `json:"stop_loss"`
	Target1    int64              `json:"target1"`
	Target2    int64              `json:"target2"`
	Amount     int64              `json:"amount"`
	Quantity   int64              `json:"quantity"`
}

// AllocateResponse is the allocation over the top picks
type AllocateResponse struct {
	TotalBudget int64            `json:"total_budget"`
	Allocated   int64            `json:"allocated"`
	Items       []AllocationItem `json:"items"`
}

// Allocate splits a budget over today's top picks
// POST /api/allocate
func (h *ScanHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	var req AllocateRequest
	if err := decodeOptional(r.Body, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	budget := h.defaultBudget
	if req.TotalBudget != nil {
		budget = *req.TotalBudget
	}

	allocations, err := h.service.Allocate(r.Context(), budget)
	switch {
	case errors.Is(err, allocation.ErrInvalidBudget):
		respondError(w, http.StatusBadRequest, "total_budget must not be negative")
		return
	case errors.Is(err, screener.ErrNoScan):
		respondError(w, http.StatusNotFound, "No scan results for today")
		return
	case errors.Is(err, allocation.ErrZeroNominal):
		respondError(w, http.StatusUnprocessableEntity, "Nominal allocations sum to zero")
		return
	case err != nil:
		h.logger.WithError(err).Error("Failed to allocate budget")
		respondError(w, http.StatusInternalServerError, "Failed to allocate budget")
		return
	}

	resp := AllocateResponse{
		TotalBudget: budget,
		Allocated:   allocation.Total(allocations),
		Items:       make([]AllocationItem, 0, len(allocations)),
	}
	for _, a := range allocations {
		res := a.Result
		resp.Items = append(resp.Items, AllocationItem{
			Code:       res.Code(),
			Name:       res.Name(),
			Score:      res.Score,
			Strategy:   res.Strategy,
			Priority:   res.Priority,
			Signals:    res.SignalText(),
			EntryPrice: res.EntryPrice,
			StopLoss:   res.StopLoss,
			Target1:    res.Target1,
			Target2:    res.Target2,
			Amount:     a.Amount,
			Quantity:   a.Quantity,
		})
	}

	respondJSON(w, http.StatusOK, resp)
}

// decodeOptional decodes a JSON body; an empty body leaves v untouched
func decodeOptional(body io.Reader, v interface{}) error {
	if body == nil {
		return nil
	}
	err := json.NewDecoder(body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
