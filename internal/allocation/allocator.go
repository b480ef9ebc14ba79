// Package allocation splits a budget across the top accepted results.
package allocation

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/wonny/aegis-screener/internal/contracts"
)

// DefaultTopN is the number of results that receive a share of the budget
const DefaultTopN = 5

var (
	// ErrZeroNominal is returned when the nominal allocations of the picks sum to zero
	ErrZeroNominal = errors.New("allocation: nominal allocation sum is zero")
	// ErrInvalidBudget is returned for a negative budget
	ErrInvalidBudget = errors.New("allocation: budget must not be negative")
)

// Allocation is one result's share of the budget
type Allocation struct {
	Result   *contracts.ScoreResult `json:"result"`
	Amount   int64                  `json:"amount"`   // floor(nominal × scale)
	Quantity int64                  `json:"quantity"` // floor(amount / entry price)
}

// Allocator distributes a budget proportionally to nominal allocations
// ⭐ SSOT: 예산 배분은 여기서만
type Allocator struct {
	topN int
}

// New creates an allocator over the top n results (n <= 0 → 5)
func New(topN int) *Allocator {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Allocator{topN: topN}
}

// Allocate scales the nominal allocation of the top results so they sum to at most totalBudget.
// An empty input returns an empty list and no error.
func (a *Allocator) Allocate(results []*contracts.ScoreResult, totalBudget int64) ([]Allocation, error) {
	if totalBudget < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBudget, totalBudget)
	}
	if len(results) == 0 {
		return []Allocation{}, nil
	}

	top := Top(results, a.topN)

	sum := decimal.Zero
	for _, r := range top {
		sum = sum.Add(decimal.NewFromInt(r.NominalAllocation))
	}
	if sum.Sign() <= 0 {
		return nil, ErrZeroNominal
	}

	budget := decimal.NewFromInt(totalBudget)

	allocations := make([]Allocation, 0, len(top))
	for _, r := range top {
		// floor(nominal × budget / sum), exact
		amount, _ := decimal.NewFromInt(r.NominalAllocation).Mul(budget).QuoRem(sum, 0)

		var quantity int64
		if r.EntryPrice > 0 {
			q, _ := amount.QuoRem(decimal.NewFromFloat(r.EntryPrice), 0)
			quantity = q.IntPart()
		}

		allocations = append(allocations, Allocation{
			Result:   r,
			Amount:   amount.IntPart(),
			Quantity: quantity,
		})
	}

	return allocations, nil
}

// Top returns the n best results by score, ties by scan order. The input is not modified.
func Top(results []*contracts.ScoreResult, n int) []*contracts.ScoreResult {
	sorted := make([]*contracts.ScoreResult, len(results))
	copy(sorted, results)
	SortResults(sorted)

	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// SortResults orders results by score descending, then by Seq ascending
func SortResults(results []*contracts.ScoreResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Seq < results[j].Seq
	})
}

// Total returns the sum of allocated amounts
func Total(allocations []Allocation) int64 {
	var total int64
	for _, a := range allocations {
		total += a.Amount
	}
	return total
}
