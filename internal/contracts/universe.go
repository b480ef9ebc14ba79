package contracts

// Symbol identifies a listed KRX stock
// ⭐ SSOT: 종목 식별자는 코드(6자리) 기준, 유니버스 내 중복 불가
type Symbol struct {
	Code string `json:"code"` // 종목코드 (e.g., "005930")
	Name string `json:"name"` // 종목명
}

// UniverseMaxSize is the largest universe a scan will process
const UniverseMaxSize = 50

// MergeSymbols concatenates lists in order, keeping the first occurrence of each code,
// and truncates to limit (limit <= 0 means no limit)
func MergeSymbols(limit int, lists ...[]Symbol) []Symbol {
	seen := make(map[string]struct{})
	merged := make([]Symbol, 0, limit)

	for _, list := range lists {
		for _, s := range list {
			if s.Code == "" {
				continue
			}
			if _, dup := seen[s.Code]; dup {
				continue
			}
			if limit > 0 && len(merged) >= limit {
				return merged
			}
			seen[s.Code] = struct{}{}
			merged = append(merged, s)
		}
	}

	return merged
}
