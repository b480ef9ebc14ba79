// Package universe produces the ordered list of symbols a scan processes.
package universe

import (
	"context"
	"fmt"

	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/pkg/logger"
)

// Config holds universe construction settings
type Config struct {
	MaxSize int                // 최대 종목 수 (기본 50)
	Static  []contracts.Symbol // 폴백 종목 (nil → 기본 50종목)
}

// Provider merges a ranked primary source with the static fallback list
// ⭐ SSOT: 스캔 유니버스 생성은 여기서만
type Provider struct {
	source  contracts.RankingSource
	static  []contracts.Symbol
	maxSize int
	logger  *logger.Logger
}

// NewProvider creates a universe provider. source may be nil (static only).
func NewProvider(source contracts.RankingSource, cfg Config, log *logger.Logger) *Provider {
	static := cfg.Static
	if len(static) == 0 {
		static = staticSymbols
	}
	maxSize := cfg.MaxSize
	if maxSize <= 0 || maxSize > contracts.UniverseMaxSize {
		maxSize = contracts.UniverseMaxSize
	}

	own := make([]contracts.Symbol, len(static))
	copy(own, static)

	return &Provider{
		source:  source,
		static:  own,
		maxSize: maxSize,
		logger:  log,
	}
}

// Universe returns ranked symbols followed by static ones, deduplicated by code
// and truncated. Any primary-source failure yields the static list in its own
// order, cut to the same size cap.
func (p *Provider) Universe(ctx context.Context) []contracts.Symbol {
	if p.source == nil {
		return p.fallback()
	}

	ranked, err := p.rank(ctx)
	if err != nil {
		p.logger.WithError(err).Warn("Ranking source failed, using static universe")
		return p.fallback()
	}
	if len(ranked) == 0 {
		p.logger.Warn("Ranking source returned no symbols, using static universe")
		return p.fallback()
	}

	merged := contracts.MergeSymbols(p.maxSize, ranked, p.static)

	p.logger.WithFields(map[string]interface{}{
		"ranked": len(ranked),
		"total":  len(merged),
	}).Info("Universe built")

	return merged
}

// rank calls the source, converting a panic into an error
func (p *Provider) rank(ctx context.Context) (symbols []contracts.Symbol, err error) {
	defer func() {
		if r := recover(); r != nil {
			symbols, err = nil, fmt.Errorf("ranking source panic: %v", r)
		}
	}()
	return p.source.Ranking(ctx)
}

func (p *Provider) fallback() []contracts.Symbol {
	n := min(len(p.static), p.maxSize)
	out := make([]contracts.Symbol, n)
	copy(out, p.static[:n])
	return out
}

var _ contracts.UniverseProvider = (*Provider)(nil)
