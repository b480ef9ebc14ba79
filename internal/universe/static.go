package universe

import "github.com/wonny/aegis-screener/internal/contracts"

// staticSymbols is the curated fallback universe (시가총액 상위 기준)
var staticSymbols = []contracts.Symbol{
	// 시총 Top 10
	{Code: "005930", Name: "삼성전자"},
	{Code: "000660", Name: "SK하이닉스"},
	{Code: "373220", Name: "LG에너지솔루션"},
	{Code: "207940", Name: "삼성바이오로직스"},
	{Code: "005380", Name: "현대차"},
	{Code: "035420", Name: "NAVER"},
	{Code: "000270", Name: "기아"},
	{Code: "051910", Name: "LG화학"},
	{Code: "005490", Name: "POSCO홀딩스"},
	{Code: "035720", Name: "카카오"},

	// IT/전자
	{Code: "006400", Name: "삼성SDI"},
	{Code: "009150", Name: "삼성전기"},
	{Code: "018260", Name: "삼성에스디에스"},
	{Code: "034730", Name: "SK"},
	{Code: "003550", Name: "LG"},

	// 자동차/부품
	{Code: "012330", Name: "현대모비스"},
	{Code: "086280", Name: "현대글로비스"},

	// 바이오/제약
	{Code: "068270", Name: "셀트리온"},
	{Code: "326030", Name: "SK바이오팜"},
	{Code: "128940", Name: "한미약품"},
	{Code: "196170", Name: "알테오젠"},

	// 금융
	{Code: "105560", Name: "KB금융"},
	{Code: "055550", Name: "신한지주"},
	{Code: "086790", Name: "하나금융지주"},
	{Code: "316140", Name: "우리금융지주"},
	{Code: "032830", Name: "삼성생명"},
	{Code: "024110", Name: "기업은행"},

	// 화학/에너지
	{Code: "009830", Name: "한화솔루션"},
	{Code: "010950", Name: "S-Oil"},
	{Code: "011170", Name: "롯데케미칼"},
	{Code: "010130", Name: "고려아연"},

	// 소비재
	{Code: "051900", Name: "LG생활건강"},
	{Code: "097950", Name: "CJ제일제당"},
	{Code: "271560", Name: "오리온"},
	{Code: "033780", Name: "KT&G"},

	// 엔터
	{Code: "035900", Name: "JYP Ent."},
	{Code: "041510", Name: "SM"},
	{Code: "352820", Name: "하이브"},

	// 건설/운송
	{Code: "028260", Name: "삼성물산"},
	{Code: "000720", Name: "현대건설"},
	{Code: "011200", Name: "HMM"},

	// 통신/유틸
	{Code: "030200", Name: "KT"},
	{Code: "017670", Name: "SK텔레콤"},
	{Code: "015760", Name: "한국전력"},

	// 기타
	{Code: "251270", Name: "넷마블"},
	{Code: "096770", Name: "SK이노베이션"},
	{Code: "036570", Name: "엔씨소프트"},
	{Code: "018880", Name: "한온시스템"},
	{Code: "009540", Name: "HD한국조선해양"},
	{Code: "042700", Name: "한미반도체"},
}

// StaticSymbols returns a copy of the curated 50-symbol list in its defined order
func StaticSymbols() []contracts.Symbol {
	out := make([]contracts.Symbol, len(staticSymbols))
	copy(out, staticSymbols)
	return out
}
