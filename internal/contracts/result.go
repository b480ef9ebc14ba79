package contracts

import (
	"fmt"
	"strings"
)

// Strategy is the holding horizon assigned to an accepted symbol
type Strategy string

const (
	StrategyShortTerm Strategy = "short_term" // 단타
	StrategySwing     Strategy = "swing"      // 스윙
)

// DisplayName returns the Korean label
func (s Strategy) DisplayName() string {
	switch s {
	case StrategyShortTerm:
		return "단타"
	case StrategySwing:
		return "스윙"
	default:
		return string(s)
	}
}

// Priority is the execution tier derived from the score
type Priority string

const (
	PriorityTop    Priority = "top"    // 최우선 (score ≥ 98)
	PriorityHigh   Priority = "high"   // 우선 (score ≥ 96)
	PriorityNormal Priority = "normal" // 일반
)

// DisplayName returns the Korean label
func (p Priority) DisplayName() string {
	switch p {
	case PriorityTop:
		return "최우선"
	case PriorityHigh:
		return "우선"
	case PriorityNormal:
		return "일반"
	default:
		return string(p)
	}
}

// DefaultSignalText is shown when no scoring rule produced a label
const DefaultSignalText = "안정매수"

// ScoreResult is an accepted symbol with its full trade plan
// ⭐ SSOT: Quote + IndicatorSet + score + strategy 에서만 파생, 생성 후 변경 금지
type ScoreResult struct {
	Seq        int          `json:"seq"` // scan order, sort tie-break
	Quote      Quote        `json:"quote"`
	Indicators IndicatorSet `json:"indicators"`
	Score      int          `json:"score"` // 0 ~ 100
	Signals    []string     `json:"signals"`
	Strategy   Strategy     `json:"strategy"`

	EntryPrice float64 `json:"entry_price"`
	StopLoss   int64   `json:"stop_loss"`
	Target1    int64   `json:"target1"`
	Target2    int64   `json:"target2"`

	NominalAllocation int64    `json:"nominal_allocation"` // 전략별 기준 투자금액
	SuggestedQuantity int64    `json:"suggested_quantity"`
	Priority          Priority `json:"priority"`
}

// Code returns the symbol code
func (r *ScoreResult) Code() string { return r.Quote.Symbol.Code }

// Name returns the symbol name
func (r *ScoreResult) Name() string { return r.Quote.Symbol.Name }

// SignalText joins signal labels for display
func (r *ScoreResult) SignalText() string {
	if len(r.Signals) == 0 {
		return DefaultSignalText
	}
	return strings.Join(r.Signals, " + ")
}

// VolumeRatioText formats the volume ratio with one decimal
func (r *ScoreResult) VolumeRatioText() string {
	return fmt.Sprintf("%.1f", r.Quote.VolumeRatio())
}

// RejectReason explains why a symbol was dropped from the scan
type RejectReason string

const (
	RejectNoQuote             RejectReason = "no quote"
	RejectInsufficientHistory RejectReason = "insufficient history"
	RejectIndicatorFailure    RejectReason = "indicator failure"
	RejectLowScore            RejectReason = "score <95"
	RejectAnalysisError       RejectReason = "analysis error"
)

// IsEarly reports whether the reason is followed by the short inter-symbol wait
func (r RejectReason) IsEarly() bool {
	return r == RejectNoQuote || r == RejectAnalysisError
}

// Rejection is produced instead of a ScoreResult when a stage fails
type Rejection struct {
	Seq    int          `json:"seq"`
	Symbol Symbol       `json:"symbol"`
	Reason RejectReason `json:"reason"`
	Detail string       `json:"detail,omitempty"` // e.g. score or recovered panic
}

// Outcome is the terminal result of one symbol: exactly one of Accepted or Rejected is set
type Outcome struct {
	Accepted *ScoreResult `json:"accepted,omitempty"`
	Rejected *Rejection   `json:"rejected,omitempty"`
}

// Accept wraps a result
func Accept(r *ScoreResult) Outcome {
	return Outcome{Accepted: r}
}

// Reject builds a rejection outcome
func Reject(seq int, sym Symbol, reason RejectReason, detail string) Outcome {
	return Outcome{Rejected: &Rejection{Seq: seq, Symbol: sym, Reason: reason, Detail: detail}}
}

// IsAccepted reports whether the symbol passed every stage
func (o Outcome) IsAccepted() bool {
	return o.Accepted != nil
}

// Symbol returns the symbol the outcome refers to
func (o Outcome) Symbol() Symbol {
	if o.Accepted != nil {
		return o.Accepted.Quote.Symbol
	}
	if o.Rejected != nil {
		return o.Rejected.Symbol
	}
	return Symbol{}
}
