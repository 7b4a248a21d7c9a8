package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/openings-cli/internal/model"
)

func newTestClassifier() *Classifier {
	return NewClassifier(NewAddressParser())
}

func TestClassifier_Match(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name       string
		a, b       model.RawRecord
		wantMatch  bool
		wantReason string
	}{
		{
			name:       "normalized address equal despite formatting",
			a:          model.RawRecord{VenueName: "Taco Palace", Address: "123 Main St, Houston, TX 77002"},
			b:          model.RawRecord{VenueName: "TP Ventures LLC", Address: "123 Main Street, houston, TX 77002"},
			wantMatch:  true,
			wantReason: "normalized_address_equal",
		},
		{
			name:       "address equal suites aside",
			a:          model.RawRecord{VenueName: "Taco Palace", Address: "801 Congress St Suite 150, Houston, TX 77002"},
			b:          model.RawRecord{VenueName: "Different Name", Address: "801 Congress St #200, Houston, TX 77002"},
			wantMatch:  true,
			wantReason: "normalized_address_equal",
		},
		{
			name:       "phone last ten digits",
			a:          model.RawRecord{VenueName: "A", Address: "10 North Rd, Katy", Phone: "(713) 555-0101"},
			b:          model.RawRecord{VenueName: "B", Address: "99 South Ave, Spring", Phone: "1-713-555-0101"},
			wantMatch:  true,
			wantReason: "phone_equal",
		},
		{
			name:       "email case-insensitive",
			a:          model.RawRecord{VenueName: "A", Address: "10 North Rd, Katy", Email: "Owner@Example.com"},
			b:          model.RawRecord{VenueName: "B", Address: "99 South Ave, Spring", Email: "owner@example.com"},
			wantMatch:  true,
			wantReason: "email_equal",
		},
		{
			name:       "high address and name similarity",
			a:          model.RawRecord{VenueName: "Joe's Pizza", Address: "123 Main St, Houston, TX 77002"},
			b:          model.RawRecord{VenueName: "Joe's Pizza Restaurant", Address: "123 Main Street, Houston"},
			wantMatch:  true,
			wantReason: "address_name_similarity",
		},
		{
			name:      "short phones never match",
			a:         model.RawRecord{VenueName: "A", Address: "10 North Rd", Phone: "555-0101"},
			b:         model.RawRecord{VenueName: "B", Address: "99 South Ave", Phone: "555-0101"},
			wantMatch: false,
		},
		{
			name:      "unrelated records",
			a:         model.RawRecord{VenueName: "Taco Palace", Address: "123 Main St, Houston", Phone: "7135550101"},
			b:         model.RawRecord{VenueName: "Burger Barn", Address: "900 Oak Blvd, Katy", Phone: "2815550202"},
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Match(tt.a, tt.b)
			assert.Equal(t, tt.wantMatch, got.IsMatch)
			if tt.wantReason != "" {
				assert.Equal(t, []string{tt.wantReason}, got.Reasons)
			}
		})
	}
}

func TestClassifier_MatchConfidence(t *testing.T) {
	c := newTestClassifier()

	a := model.RawRecord{VenueName: "Joe's Pizza", Address: "123 Main St, Houston, TX 77002"}
	b := model.RawRecord{VenueName: "Joe's Pizza Restaurant", Address: "123 Main Street, Houston"}
	got := c.Match(a, b)
	assert.True(t, got.IsMatch)
	assert.InDelta(t, 0.95, got.Confidence, 1e-9)
}

func TestClassifier_Ambiguous(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name string
		a, b model.RawRecord
		want bool
	}{
		{
			name: "mid address similarity with related names",
			a:    model.RawRecord{VenueName: "Blue Sushi Saki", Address: "100 Main St, Houston"},
			b:    model.RawRecord{VenueName: "Blue Sushi", Address: "100 Main Street, Pasadena"},
			want: true,
		},
		{
			name: "agreeing source flags",
			a: model.RawRecord{
				VenueName: "A", Address: "10 North Rd",
				SourceFlags: map[string]string{model.FlagTABC: "MB123456", model.FlagHCPermit: "P-9"},
			},
			b: model.RawRecord{
				VenueName: "B", Address: "99 South Ave",
				SourceFlags: map[string]string{model.FlagTABC: "MB123456"},
			},
			want: true,
		},
		{
			name: "disagreeing source flags",
			a: model.RawRecord{
				VenueName: "A", Address: "10 North Rd",
				SourceFlags: map[string]string{model.FlagTABC: "MB123456"},
			},
			b: model.RawRecord{
				VenueName: "B", Address: "99 South Ave",
				SourceFlags: map[string]string{model.FlagTABC: "MB999999"},
			},
			want: false,
		},
		{
			name: "nothing in common",
			a:    model.RawRecord{VenueName: "Taco Palace", Address: "123 Main St, Houston"},
			b:    model.RawRecord{VenueName: "Burger Barn", Address: "900 Oak Blvd, Katy"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Ambiguous(tt.a, tt.b))
		})
	}
}
