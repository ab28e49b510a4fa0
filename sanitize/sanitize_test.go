package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	cases := map[string]string{
		"  lunch  ":                         "lunch",
		"<b>Groceries</b>":                  "Groceries",
		"<script>alert(1)</script>coffee":   "coffee",
		"Fish & Chips":                      "Fish & Chips",
		"rent\x07 March":                    "rent March",
		`<a href="http://x">link</a> text`: "link text",
		"":                                  "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Text(in), in)
	}
}

func TestForSpreadsheet(t *testing.T) {
	assert.Equal(t, "'=SUM(A1:A2)", ForSpreadsheet("=SUM(A1:A2)"))
	assert.Equal(t, "'+1", ForSpreadsheet("+1"))
	assert.Equal(t, "'-2", ForSpreadsheet("-2"))
	assert.Equal(t, "'@cmd", ForSpreadsheet("@cmd"))
	assert.Equal(t, "'  =1", ForSpreadsheet("  =1"))
	assert.Equal(t, "Salary", ForSpreadsheet("Salary"))
	assert.Equal(t, "", ForSpreadsheet(""))
	assert.Equal(t, "   ", ForSpreadsheet("   "))
}

func TestStripUnprintable(t *testing.T) {
	assert.Equal(t, "a\tb\nc", StripUnprintable("a\tb\nc\x1b"))
}
