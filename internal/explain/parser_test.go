package explain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{
			name: "json object with text key",
			raw:  `{"text": "High income reduces risk."}`,
			want: "High income reduces risk.",
			ok:   true,
		},
		{
			name: "json object with explanation key",
			raw:  `{"explanation": "Grade D raises risk."}`,
			want: "Grade D raises risk.",
			ok:   true,
		},
		{
			name: "text key wins over explanation key",
			raw:  `{"text": "primary", "explanation": "secondary"}`,
			want: "primary",
			ok:   true,
		},
		{
			name: "bare json string",
			raw:  `"Short credit history raises risk."`,
			want: "Short credit history raises risk.",
			ok:   true,
		},
		{
			name: "labeled block",
			raw:  "REASONING: internal notes\nEXPLANATION: The applicant's debt load\nis the main driver.",
			want: "The applicant's debt load\nis the main driver.",
			ok:   true,
		},
		{
			name: "plain text",
			raw:  "  The loan amount is high relative to income.  ",
			want: "The loan amount is high relative to income.",
			ok:   true,
		},
		{
			name: "malformed json object falls through",
			raw:  `{"text": truncated`,
			ok:   false,
		},
		{
			name: "json array rejected",
			raw:  `["not", "an", "explanation"]`,
			ok:   false,
		},
		{
			name: "empty input",
			raw:  "   ",
			ok:   false,
		},
		{
			name: "json object without known keys",
			raw:  `{"result": "something"}`,
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseResponse(tt.raw)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParserChainOrder(t *testing.T) {
	// A JSON object that also contains an EXPLANATION: line must be
	// handled by the object strategy, not the labeled-block one.
	raw := "{\"text\": \"from object\", \"note\": \"EXPLANATION: from block\"}"
	got, ok := ParseResponse(raw)
	require.True(t, ok)
	assert.Equal(t, "from object", got)
}
