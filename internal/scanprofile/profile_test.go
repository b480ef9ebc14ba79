package scanprofile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	p := Default()
	require.NoError(t, Validate(p))

	assert.Equal(t, 95, p.MinScore)
	assert.Equal(t, 500*time.Millisecond, p.Delays.EarlyReject)
	assert.Equal(t, time.Second, p.Delays.Standard)
	assert.Equal(t, 50, p.Universe.MaxSize)
	assert.Equal(t, 5, p.Allocation.TopN)
	assert.Nil(t, p.StaticSymbols())
}

func TestParse_PartialKeepsDefaults(t *testing.T) {
	p, err := Parse([]byte(`
min_score: 90
delays:
  standard: 250ms
universe:
  static:
    - code: "005930"
      name: 삼성전자
`))
	require.NoError(t, err)

	assert.Equal(t, 90, p.MinScore)
	assert.Equal(t, 250*time.Millisecond, p.Delays.Standard)
	assert.Equal(t, 500*time.Millisecond, p.Delays.EarlyReject)
	assert.Equal(t, 50, p.Universe.MaxSize)

	static := p.StaticSymbols()
	require.Len(t, static, 1)
	assert.Equal(t, "005930", static[0].Code)
	assert.Equal(t, "삼성전자", static[0].Name)
}

func TestParse_UnknownFieldFails(t *testing.T) {
	_, err := Parse([]byte("min_scroe: 90\n"))
	assert.Error(t, err)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"score too high", "min_score: 101", "min_score"},
		{"negative delay", "delays:\n  early_reject: -1s", "delays.early_reject"},
		{"universe too large", "universe:\n  max_size: 51", "universe.max_size"},
		{"bad code", "universe:\n  static:\n    - {code: \"5930\", name: x}", "universe.static[0].code"},
		{"missing name", "universe:\n  static:\n    - {code: \"005930\"}", "universe.static[0].name"},
		{"duplicate", "universe:\n  static:\n    - {code: \"005930\", name: a}\n    - {code: \"005930\", name: b}", "universe.static[1].code"},
		{"top_n zero", "allocation:\n  top_n: 0", "allocation.top_n"},
		{"negative budget", "allocation:\n  default_budget: -1", "allocation.default_budget"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)

			var verr ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestParse_StaticListTooLong(t *testing.T) {
	var b strings.Builder
	b.WriteString("universe:\n  static:\n")
	for i := 0; i < 51; i++ {
		fmt.Fprintf(&b, "    - {code: \"%06d\", name: s%d}\n", i+1, i)
	}

	_, err := Parse([]byte(b.String()))

	var verr ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, "universe.static", verr.Field)
}

func TestLoadOrDefault(t *testing.T) {
	p, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), p)

	path := filepath.Join(t.TempDir(), "scan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("allocation:\n  default_budget: 30000000\n"), 0o600))

	p, err = LoadOrDefault(path)
	require.NoError(t, err)
	assert.Equal(t, int64(30_000_000), p.Allocation.DefaultBudget)

	_, err = LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
