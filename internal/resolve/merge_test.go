package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/openings-cli/internal/model"
)

func TestMerge_BaseHasMostFields(t *testing.T) {
	sparse := model.RawRecord{
		Source: "tabc", SourceID: "1",
		VenueName: "Joe's", Address: "123 Main St",
	}
	rich := model.RawRecord{
		Source: "hc_health", SourceID: "2",
		VenueName: "Joe's Pizza", LegalName: "Joe's Pizza LLC",
		Address: "123 Main St, Houston", City: "Houston", State: "TX",
		Zip: "77002", Phone: "7135550101",
	}

	merged := Merge([]model.RawRecord{sparse, rich})

	assert.Equal(t, "hc_health", merged.Source)
	assert.Equal(t, "2", merged.SourceID)
	assert.Equal(t, 2, merged.MergedFrom)
	assert.Equal(t, []string{"tabc:1", "hc_health:2"}, merged.SourceRecordIDs)
}

func TestMerge_TiePrefersEarlierRecord(t *testing.T) {
	first := model.RawRecord{Source: "tabc", SourceID: "1", VenueName: "Joe's", Address: "123 Main St"}
	second := model.RawRecord{Source: "hc_permit", SourceID: "2", VenueName: "Joe's", Address: "123 Main St"}

	merged := Merge([]model.RawRecord{first, second})
	assert.Equal(t, "tabc", merged.Source)
}

func TestMerge_CombinesFields(t *testing.T) {
	a := model.RawRecord{
		Source: "tabc", SourceID: "1",
		VenueName: "Joe's Pizza Restaurant",
		Address:   "123 Main Street, Houston, TX 77002",
		City:      "Houston", State: "TX", Zip: "77002",
		SourceFlags: map[string]string{model.FlagTABC: "MB123"},
	}
	b := model.RawRecord{
		Source: "hc_permit", SourceID: "2",
		VenueName: "Joe's Pizza",
		Address:   "123 Main St",
		Phone:     "7135550101",
		Email:     "joe@example.com",
		LegalName: "Joe's Pizza LLC",
		SourceFlags: map[string]string{
			model.FlagHCPermit: "P-9",
			model.FlagTABC:     "MB999", // base's value wins
		},
	}

	merged := Merge([]model.RawRecord{a, b})

	// a has more fields and stays base; b fills the gaps.
	assert.Equal(t, "Joe's Pizza Restaurant", merged.VenueName)
	assert.Equal(t, "123 Main Street, Houston, TX 77002", merged.Address)
	assert.Equal(t, "7135550101", merged.Phone)
	assert.Equal(t, "joe@example.com", merged.Email)
	assert.Equal(t, "Joe's Pizza LLC", merged.LegalName)
	assert.Equal(t, "MB123", merged.SourceFlags[model.FlagTABC])
	assert.Equal(t, "P-9", merged.SourceFlags[model.FlagHCPermit])
}

func TestMerge_LongestNameAndAddressWin(t *testing.T) {
	a := model.RawRecord{Source: "s", SourceID: "1", VenueName: "Joe's", Address: "123 Main St, Houston, TX", City: "Houston", State: "TX"}
	b := model.RawRecord{Source: "s", SourceID: "2", VenueName: "Joe's Pizza and Subs", Address: "123 Main St"}

	merged := Merge([]model.RawRecord{a, b})
	assert.Equal(t, "Joe's Pizza and Subs", merged.VenueName)
	assert.Equal(t, "123 Main St, Houston, TX", merged.Address)
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	a := model.RawRecord{
		Source: "s", SourceID: "1", VenueName: "Joe's",
		SourceFlags: map[string]string{model.FlagTABC: "MB123"},
	}
	b := model.RawRecord{
		Source: "s", SourceID: "2", VenueName: "Joe's Pizza",
		SourceFlags: map[string]string{model.FlagHCPermit: "P-9"},
	}

	merged := Merge([]model.RawRecord{a, b})
	require.Contains(t, merged.SourceFlags, model.FlagHCPermit)
	assert.NotContains(t, a.SourceFlags, model.FlagHCPermit)
}

func TestMerge_Empty(t *testing.T) {
	assert.Equal(t, model.ResolvedEntity{}, Merge(nil))
}

func TestRecordID(t *testing.T) {
	assert.Equal(t, "tabc:MB-42", RecordID(model.RawRecord{Source: "tabc", SourceID: "MB-42"}))
}
