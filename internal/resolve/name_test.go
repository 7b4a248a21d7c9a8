package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Joe's Pizza Restaurant LLC", "joe s pizza"},
		{"Joe's Pizza", "joe s pizza"},
		{"The Rustic Corp.", "the rustic"},
		{"Blue Sushi Saki Grill", "blue sushi saki"},
		{"ACME Holdings Inc", "acme holdings"},
		{"Frank's Grill", "frank s"},
		{"  Mixed   Spacing  Cafe ", "mixed spacing"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeName(tt.in), "input %q", tt.in)
	}
}

func TestNameSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{
			name: "equal after normalization",
			a:    "Joe's Pizza Restaurant LLC",
			b:    "Joe's Pizza",
			want: 1.0,
		},
		{
			name: "substring bonus",
			a:    "Blue Sushi",
			b:    "Blue Sushi Saki Grill",
			want: 2.0/3.0 + 0.2,
		},
		{
			name: "disjoint",
			a:    "Taco Palace",
			b:    "Burger Barn",
			want: 0,
		},
		{
			name: "empty side",
			a:    "",
			b:    "Joe's Pizza",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, NameSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestNameSimilarity_BonusCappedAtOne(t *testing.T) {
	a := "alpha beta gamma delta epsilon zeta eta theta iota"
	b := a + " kappa"
	assert.InDelta(t, 1.0, NameSimilarity(a, b), 1e-9)
}

func TestNameSimilarity_Symmetry(t *testing.T) {
	names := []string{"Joe's Pizza", "Blue Sushi Saki Grill", "Taco Palace", ""}
	for _, a := range names {
		for _, b := range names {
			assert.InDelta(t, NameSimilarity(a, b), NameSimilarity(b, a), 1e-9)
		}
	}
}
