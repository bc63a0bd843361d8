package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeSQL_StripsCodeFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain query",
			input: "SELECT count() FROM gateway.swaps",
			want:  "SELECT count() FROM gateway.swaps",
		},
		{
			name:  "fenced with language tag",
			input: "```sql\nSELECT count() FROM gateway.swaps\n```",
			want:  "SELECT count() FROM gateway.swaps",
		},
		{
			name:  "fenced without language tag",
			input: "```\nSELECT pair FROM gateway.swaps LIMIT 5\n```",
			want:  "SELECT pair FROM gateway.swaps LIMIT 5",
		},
		{
			name:  "trailing semicolon",
			input: "SELECT count() FROM gateway.swaps;",
			want:  "SELECT count() FROM gateway.swaps",
		},
		{
			name:  "surrounding whitespace",
			input: "\n\n  SELECT count() FROM gateway.swaps  \n",
			want:  "SELECT count() FROM gateway.swaps",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeSQL(tt.input))
		})
	}
}

func TestValidateSQL_AllowsSelectOnSwaps(t *testing.T) {
	require.NoError(t, validateSQL("SELECT count() FROM gateway.swaps"))
	require.NoError(t, validateSQL("select pair, sum(amount_in) from swaps group by pair"))
}

func TestValidateSQL_RejectsUnsafeQueries(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"non-select", "DROP TABLE gateway.swaps"},
		{"embedded mutation", "SELECT 1 FROM gateway.swaps WHERE 1=1 UNION ALL SELECT 1; DELETE FROM gateway.swaps"},
		{"insert keyword", "SELECT * FROM gateway.swaps WHERE pair = 'x' OR (SELECT 1) IN (INSERT INTO t VALUES (1))"},
		{"semicolon chaining", "SELECT count() FROM gateway.swaps; SELECT 1"},
		{"wrong table", "SELECT * FROM system.tables"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, validateSQL(tt.input))
		})
	}
}
