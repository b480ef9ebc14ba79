package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/wonny/aegis-screener/internal/allocation"
	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/internal/scheduler"
)

// ═══════════════════════════════════════════════════════════
// 공통 출력 포맷
// ═══════════════════════════════════════════════════════════

const (
	ruleHeavy = "═══════════════════════════════════════════════════════════"
	ruleLight = "───────────────────────────────────────────────────────────"
)

// won formats an amount as "12,345,678원"
func won(v int64) string {
	return humanize.Comma(v) + "원"
}

// PrintHeader prints a titled section header
func PrintHeader(title string) {
	fmt.Println()
	fmt.Println(ruleHeavy)
	fmt.Printf("  %s\n", title)
	fmt.Println(ruleLight)
}

// PrintProgress prints one recorded symbol
// Example: [Scan] 005930 삼성전자 → 97점 스윙 [3/50]
func PrintProgress(p contracts.Progress) {
	if p.State != contracts.StateRecord || p.Outcome == nil {
		return
	}

	var msg string
	if p.Outcome.IsAccepted() {
		r := p.Outcome.Accepted
		msg = fmt.Sprintf("→ %d점 %s", r.Score, r.Strategy.DisplayName())
	} else {
		msg = fmt.Sprintf("✗ %s", p.Outcome.Rejected.Reason)
	}
	fmt.Printf("[Scan] %s %s %s [%d/%d]\n", p.Symbol.Code, p.Symbol.Name, msg, p.Processed, p.Total)
}

// PrintReport prints the accepted picks and a rejection summary
func PrintReport(report *contracts.ScanReport) {
	PrintHeader(fmt.Sprintf("Scan %s (%s)", report.TradingDay, report.RunID))
	fmt.Printf("  Universe  : %d\n", report.UniverseSize)
	fmt.Printf("  Processed : %d\n", report.Processed)
	fmt.Printf("  Accepted  : %d\n", len(report.Accepted))
	fmt.Printf("  Duration  : %s\n", report.Duration().Round(1e6))
	if report.Cancelled {
		fmt.Println("  ⚠️  Cancelled (partial results)")
	}
	fmt.Println(ruleLight)

	for i, r := range report.Accepted {
		fmt.Printf("%2d. %s %-12s %3d점 %s/%s\n", i+1, r.Code(), r.Name(), r.Score, r.Strategy.DisplayName(), r.Priority.DisplayName())
		fmt.Printf("    진입 %s  손절 %s  1차 %s  2차 %s  거래량 %sx\n",
			won(int64(r.EntryPrice)), won(r.StopLoss), won(r.Target1), won(r.Target2), r.VolumeRatioText())
		fmt.Printf("    %s\n", r.SignalText())
	}

	if len(report.Rejections) > 0 {
		counts := map[contracts.RejectReason]int{}
		var order []contracts.RejectReason
		for _, rej := range report.Rejections {
			if counts[rej.Reason] == 0 {
				order = append(order, rej.Reason)
			}
			counts[rej.Reason]++
		}
		parts := make([]string, 0, len(order))
		for _, reason := range order {
			parts = append(parts, fmt.Sprintf("%s=%d", reason, counts[reason]))
		}
		fmt.Println(ruleLight)
		fmt.Printf("  Rejected  : %s\n", strings.Join(parts, ", "))
	}
	fmt.Println(ruleHeavy)
}

// PrintAllocations prints the budget split
func PrintAllocations(budget int64, allocations []allocation.Allocation) {
	PrintHeader(fmt.Sprintf("Allocation (budget %s)", won(budget)))
	if len(allocations) == 0 {
		fmt.Println("  No picks to allocate")
		fmt.Println(ruleHeavy)
		return
	}

	for i, a := range allocations {
		r := a.Result
		fmt.Printf("%2d. %s %-12s %s  %s주\n", i+1, r.Code(), r.Name(), won(a.Amount), humanize.Comma(a.Quantity))
	}
	fmt.Println(ruleLight)
	fmt.Printf("  Total     : %s\n", won(allocation.Total(allocations)))
	fmt.Println(ruleHeavy)
}

// PrintJobResult prints a manual job run
func PrintJobResult(r scheduler.JobResult) {
	PrintHeader("Job " + r.JobName)
	status := "✅ success"
	if !r.Success {
		status = "❌ failed"
	}
	fmt.Printf("  Status    : %s\n", status)
	fmt.Printf("  Attempts  : %d\n", r.Attempts)
	fmt.Printf("  Duration  : %s\n", r.Duration.Round(time.Millisecond))
	if r.Error != "" {
		fmt.Printf("  Error     : %s\n", r.Error)
	}
	fmt.Println(ruleHeavy)
}
