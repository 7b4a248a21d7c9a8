package resolve

import (
	"github.com/sells-group/openings-cli/internal/model"
)

// Merge collapses a resolution group into one ResolvedEntity. The
// member with the most populated fields becomes the base, insertion
// order breaking ties; the rest contribute missing flags, the longest
// name and address, and any contact fields the base lacks.
func Merge(group []model.RawRecord) model.ResolvedEntity {
	if len(group) == 0 {
		return model.ResolvedEntity{}
	}

	base := group[0]
	best := fieldCount(base)
	for _, rec := range group[1:] {
		if n := fieldCount(rec); n > best {
			base = rec
			best = n
		}
	}

	merged := base
	merged.SourceFlags = make(map[string]string, len(base.SourceFlags))
	for k, v := range base.SourceFlags {
		merged.SourceFlags[k] = v
	}

	ids := make([]string, 0, len(group))
	for _, rec := range group {
		ids = append(ids, RecordID(rec))

		for k, v := range rec.SourceFlags {
			if v != "" && merged.SourceFlags[k] == "" {
				merged.SourceFlags[k] = v
			}
		}
		if len(rec.VenueName) > len(merged.VenueName) {
			merged.VenueName = rec.VenueName
		}
		if len(rec.Address) > len(merged.Address) {
			merged.Address = rec.Address
		}
		if merged.LegalName == "" {
			merged.LegalName = rec.LegalName
		}
		if merged.Phone == "" {
			merged.Phone = rec.Phone
		}
		if merged.Email == "" {
			merged.Email = rec.Email
		}
	}

	return model.ResolvedEntity{
		RawRecord:       merged,
		MergedFrom:      len(group),
		SourceRecordIDs: ids,
	}
}

// RecordID derives a stable identifier for a raw record from its origin.
func RecordID(rec model.RawRecord) string {
	return rec.Source + ":" + rec.SourceID
}

// fieldCount counts the populated scalar fields of a record.
func fieldCount(rec model.RawRecord) int {
	n := 0
	for _, f := range []string{
		rec.VenueName, rec.LegalName, rec.Address, rec.City,
		rec.State, rec.Zip, rec.Phone, rec.Email,
	} {
		if f != "" {
			n++
		}
	}
	return n
}
