package scanprofile

import (
	"fmt"
	"regexp"

	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/internal/scoring"
)

// ValidationError 검증 실패
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var codeRe = regexp.MustCompile(`^\d{6}$`)

// Validate checks the profile constraints
func Validate(p *Profile) error {
	if p.MinScore < 0 || p.MinScore > scoring.MaxScore {
		return ValidationError{"min_score", fmt.Sprintf("must be in [0, %d]", scoring.MaxScore)}
	}

	if p.Delays.EarlyReject < 0 {
		return ValidationError{"delays.early_reject", "must be >= 0"}
	}
	if p.Delays.Standard < 0 {
		return ValidationError{"delays.standard", "must be >= 0"}
	}

	if p.Universe.MaxSize <= 0 || p.Universe.MaxSize > contracts.UniverseMaxSize {
		return ValidationError{"universe.max_size", fmt.Sprintf("must be in (0, %d]", contracts.UniverseMaxSize)}
	}
	if len(p.Universe.Static) > contracts.UniverseMaxSize {
		return ValidationError{"universe.static", fmt.Sprintf("at most %d symbols", contracts.UniverseMaxSize)}
	}
	seen := make(map[string]bool, len(p.Universe.Static))
	for i, s := range p.Universe.Static {
		field := fmt.Sprintf("universe.static[%d]", i)
		if !codeRe.MatchString(s.Code) {
			return ValidationError{field + ".code", "must be 6 digits"}
		}
		if s.Name == "" {
			return ValidationError{field + ".name", "required"}
		}
		if seen[s.Code] {
			return ValidationError{field + ".code", "duplicate " + s.Code}
		}
		seen[s.Code] = true
	}

	if p.Allocation.TopN <= 0 {
		return ValidationError{"allocation.top_n", "must be > 0"}
	}
	if p.Allocation.DefaultBudget < 0 {
		return ValidationError{"allocation.default_budget", "must be >= 0"}
	}

	return nil
}
