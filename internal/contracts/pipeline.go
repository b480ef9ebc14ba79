package contracts

import "time"

// Scan state 정의 (SSOT)
// 모든 로그, 진행 이벤트에서 이 상수를 사용해야 함
//
// 종목별 흐름:
//   FetchQuote → FetchHistory → ComputeIndicators → Score → Classify → Record

// ScanState is a per-symbol pipeline state
type ScanState string

const (
	// StateFetchQuote 현재가 조회
	StateFetchQuote ScanState = "FETCH_QUOTE"

	// StateFetchHistory 일봉 조회 (캐시 우선)
	StateFetchHistory ScanState = "FETCH_HISTORY"

	// StateComputeIndicators 기술적 지표 계산
	StateComputeIndicators ScanState = "COMPUTE_INDICATORS"

	// StateScore 점수 산출 (95점 미만 탈락)
	StateScore ScanState = "SCORE"

	// StateClassify 단타/스윙 분류
	StateClassify ScanState = "CLASSIFY"

	// StateRecord 최종 결과 기록 (Accepted / Rejected)
	StateRecord ScanState = "RECORD"
)

// String returns the state name
func (s ScanState) String() string {
	return string(s)
}

// AllScanStates returns states in execution order
func AllScanStates() []ScanState {
	return []ScanState{
		StateFetchQuote,
		StateFetchHistory,
		StateComputeIndicators,
		StateScore,
		StateClassify,
		StateRecord,
	}
}

// Progress is emitted after every state transition of the scan
type Progress struct {
	RunID     string    `json:"run_id"`
	Symbol    Symbol    `json:"symbol"`
	State     ScanState `json:"state"`
	Processed int       `json:"processed"` // 완료된 종목 수 (단조 증가)
	Total     int       `json:"total"`
	Outcome   *Outcome  `json:"outcome,omitempty"` // set only on StateRecord
	Timestamp time.Time `json:"timestamp"`
}

// Done reports whether every symbol has been processed
func (p Progress) Done() bool {
	return p.Total > 0 && p.Processed >= p.Total
}

// ScanReport is the outcome of one full (or cancelled) scan run
type ScanReport struct {
	RunID        string         `json:"run_id"`
	TradingDay   string         `json:"trading_day"` // yyyymmdd (KST)
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
	UniverseSize int            `json:"universe_size"`
	Processed    int            `json:"processed"`
	Accepted     []*ScoreResult `json:"accepted"` // score desc, scan order tie-break
	Rejections   []*Rejection   `json:"rejections"`
	Cancelled    bool           `json:"cancelled"`
}

// Duration returns the wall time of the run
func (r *ScanReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
