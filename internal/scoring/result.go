package scoring

import (
	"github.com/shopspring/decimal"

	"github.com/wonny/aegis-screener/internal/contracts"
)

// Plan holds the risk parameters of a strategy
type Plan struct {
	StopLoss          decimal.Decimal
	Target1           decimal.Decimal
	Target2           decimal.Decimal
	NominalAllocation int64
}

var plans = map[contracts.Strategy]Plan{
	contracts.StrategyShortTerm: {
		StopLoss:          decimal.RequireFromString("0.97"),
		Target1:           decimal.RequireFromString("1.05"),
		Target2:           decimal.RequireFromString("1.08"),
		NominalAllocation: 10_000_000,
	},
	contracts.StrategySwing: {
		StopLoss:          decimal.RequireFromString("0.95"),
		Target1:           decimal.RequireFromString("1.10"),
		Target2:           decimal.RequireFromString("1.15"),
		NominalAllocation: 20_000_000,
	},
}

// PlanFor returns the risk parameters of strategy (swing for unknown values)
func PlanFor(strategy contracts.Strategy) Plan {
	if p, ok := plans[strategy]; ok {
		return p
	}
	return plans[contracts.StrategySwing]
}

// PriorityFor maps a score to its execution tier
func PriorityFor(score int) contracts.Priority {
	switch {
	case score >= 98:
		return contracts.PriorityTop
	case score >= 96:
		return contracts.PriorityHigh
	default:
		return contracts.PriorityNormal
	}
}

// BuildResult derives stop/targets/quantity/priority. Prices round half away
// from zero to whole won; quantity is floor(nominal / price).
func BuildResult(seq int, q *contracts.Quote, ind *contracts.IndicatorSet, score int, signals []string, strategy contracts.Strategy) *contracts.ScoreResult {
	plan := PlanFor(strategy)
	price := decimal.NewFromFloat(q.Price)

	var quantity int64
	if q.Price > 0 {
		quantity = decimal.NewFromInt(plan.NominalAllocation).Div(price).Floor().IntPart()
	}

	sigs := make([]string, len(signals))
	copy(sigs, signals)

	return &contracts.ScoreResult{
		Seq:               seq,
		Quote:             *q,
		Indicators:        *ind,
		Score:             score,
		Signals:           sigs,
		Strategy:          strategy,
		EntryPrice:        q.Price,
		StopLoss:          price.Mul(plan.StopLoss).Round(0).IntPart(),
		Target1:           price.Mul(plan.Target1).Round(0).IntPart(),
		Target2:           price.Mul(plan.Target2).Round(0).IntPart(),
		NominalAllocation: plan.NominalAllocation,
		SuggestedQuantity: quantity,
		Priority:          PriorityFor(score),
	}
}
