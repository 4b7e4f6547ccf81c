package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	t.Parallel()

	t.Run("case insensitive", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, Key("ACME BUILDERS"), Key("acme builders"))
	})

	t.Run("space insensitive", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, Key("Acme Builders"), Key("  Acme   Builders "))
		assert.Equal(t, Key("Acme Builders"), Key("Acme\tBuilders"))
	})

	t.Run("distinct names stay distinct", func(t *testing.T) {
		t.Parallel()
		assert.NotEqual(t, Key("Acme Builders"), Key("Acme Building"))
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", Key("   "))
	})
}

func TestSectionKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1A|GROUNDWORKS", SectionKey("1a", "Groundworks"))
	assert.Equal(t, "|GROUNDWORKS", SectionKey("", " groundworks "))
	assert.Equal(t, SectionKey("2", "Roofing"), SectionKey(" 2 ", "ROOFING"))
	assert.NotEqual(t, SectionKey("1", "Groundworks"), SectionKey("2", "Groundworks"))
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{raw: "ACME BUILDERS  LTD", want: "Acme Builders Ltd"},
		{raw: "smith and sons", want: "Smith And Sons"},
		{raw: "  Northgate   Construction ", want: "Northgate Construction"},
		{raw: "", want: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DisplayName(tt.raw), "raw=%q", tt.raw)
	}
}
