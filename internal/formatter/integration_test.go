package formatter

import (
	"testing"

	"github.com/mcncl/jsonedit/internal/models"
	"github.com/mcncl/jsonedit/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_ParserFormatterRoundTrip(t *testing.T) {
	inputs := []string{
		`{"user_id": 123, "username": "johndoe", "is_active": true,
		  "profile": {"full_name": "John Doe", "emails": ["a@x.io", "b@x.io"]},
		  "score": -1.25e-3, "nothing": null, "empty": {}, "list": []}`,
		`[1, [2, [3, [4]]], {"z": 1, "a": 2}]`,
		`"just a string with é and \"quotes\""`,
		`{"html": "<script>&</script>", "tab": "a\tb"}`,
	}

	f := NewFormatter()
	for _, input := range inputs {
		original, err := parser.ParseString(input)
		require.NoError(t, err)

		for _, indent := range []int{0, 2, 4} {
			text, err := NewFormatterWithIndent(indent).Format(original)
			require.NoError(t, err)

			decoded, err := parser.ParseString(text)
			require.NoError(t, err, text)
			assert.True(t, models.Equal(original, decoded), "round trip changed %s", text)
		}

		// Serializing twice yields the same text.
		once, err := f.Format(original)
		require.NoError(t, err)
		reparsed, err := parser.ParseString(once)
		require.NoError(t, err)
		twice, err := f.Format(reparsed)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}
