package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"collapses spaces and tabs", "Senior \t  Software    Engineer", "Senior Software Engineer"},
		{"collapses blank lines", "Line 1\n\n\n\nLine 2", "Line 1\nLine 2"},
		{"whitespace-only lines are blank", "Line 1\n   \n\t\nLine 2", "Line 1\nLine 2"},
		{"crlf line endings", "Line 1\r\n\r\nLine 2\rLine 3", "Line 1\nLine 2\nLine 3"},
		{"trims ends", "  \n Jane Doe \n ", "Jane Doe"},
		{"non-breaking space", "Colombo,\u00a0\u00a0Sri Lanka", "Colombo, Sri Lanka"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"a \n \n b",
		"  Jane Doe\n\n\nColombo,   Sri Lanka \r\n Senior Software Engineer\t\t\n",
		"\t\n\t\n",
		"x  \n\n  y",
		"Jan 2015 – Present\n\n• Built things   fast",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNonBlankLines(t *testing.T) {
	lines := NonBlankLines("  Jane Doe \n\n  \nEngineer\n")
	assert.Equal(t, []string{"Jane Doe", "Engineer"}, lines)
	assert.Empty(t, NonBlankLines(""))
}
