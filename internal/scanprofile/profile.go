// Package scanprofile holds the tunable thresholds of the evening scan.
package scanprofile

import (
	"time"

	"github.com/wonny/aegis-screener/internal/contracts"
)

// Profile는 스캔 임계값/지연/배분 설정
type Profile struct {
	MinScore   int        `yaml:"min_score" json:"min_score"`
	Delays     Delays     `yaml:"delays" json:"delays"`
	Universe   Universe   `yaml:"universe" json:"universe"`
	Allocation Allocation `yaml:"allocation" json:"allocation"`
}

// Delays are the pauses between symbols
type Delays struct {
	EarlyReject time.Duration `yaml:"early_reject" json:"early_reject"` // 시세 없음 / 분석 오류
	Standard    time.Duration `yaml:"standard" json:"standard"`
}

// Universe 스캔 대상 풀
type Universe struct {
	MaxSize int            `yaml:"max_size" json:"max_size"`
	Static  []StaticSymbol `yaml:"static" json:"static"`
}

type StaticSymbol struct {
	Code string `yaml:"code" json:"code"`
	Name string `yaml:"name" json:"name"`
}

// Allocation 예산 배분
type Allocation struct {
	TopN          int   `yaml:"top_n" json:"top_n"`
	DefaultBudget int64 `yaml:"default_budget" json:"default_budget"`
}

// Default returns the built-in profile
// ⭐ SSOT: 기본 임계값은 여기서만 (95점, 500ms / 1000ms, 상위 5종목)
func Default() *Profile {
	return &Profile{
		MinScore: 95,
		Delays: Delays{
			EarlyReject: 500 * time.Millisecond,
			Standard:    1000 * time.Millisecond,
		},
		Universe: Universe{
			MaxSize: contracts.UniverseMaxSize,
		},
		Allocation: Allocation{
			TopN:          5,
			DefaultBudget: 50_000_000,
		},
	}
}

// StaticSymbols converts the configured static list; nil when unset
func (p *Profile) StaticSymbols() []contracts.Symbol {
	if len(p.Universe.Static) == 0 {
		return nil
	}
	out := make([]contracts.Symbol, 0, len(p.Universe.Static))
	for _, s := range p.Universe.Static {
		out = append(out, contracts.Symbol{Code: s.Code, Name: s.Name})
	}
	return out
}
