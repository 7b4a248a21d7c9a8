// Package model defines the shared types flowing through the lead pipeline.
package model

// Source flag keys tracked across ingestion origins.
const (
	FlagTABC          = "tabc"
	FlagHCPermit      = "hc_permit"
	FlagHCHealth      = "hc_health"
	FlagHoustonPermit = "houston_permit"
)

// SignalData is the nested signal payload attached to a raw record.
// Maps may be nil; callers treat nil as empty.
type SignalData struct {
	TABCStatus     string            `json:"tabc_status,omitempty"`
	TABCDates      map[string]string `json:"tabc_dates,omitempty"`
	HealthStatus   string            `json:"health_status,omitempty"`
	PermitTypes    []string          `json:"permit_types,omitempty"`
	MilestoneDates map[string]string `json:"milestone_dates,omitempty"`
}

// RawRecord is a single business record as produced by one ingestion
// source. Immutable once ingested; the resolver copies before merging.
type RawRecord struct {
	Source      string            `json:"source"`
	SourceID    string            `json:"source_id"`
	VenueName   string            `json:"venue_name"`
	LegalName   string            `json:"legal_name,omitempty"`
	Address     string            `json:"address"`
	City        string            `json:"city"`
	State       string            `json:"state"`
	Zip         string            `json:"zip,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	Email       string            `json:"email,omitempty"`
	SourceFlags map[string]string `json:"source_flags,omitempty"`
	Signals     SignalData        `json:"signals"`
}

// ResolvedEntity is a deduplicated business entity: one merged record
// plus provenance. Every input record belongs to exactly one entity.
type ResolvedEntity struct {
	RawRecord
	MergedFrom      int      `json:"merged_from"`
	SourceRecordIDs []string `json:"source_record_ids"`
}

// MatchDecision is the outcome of comparing two records. Produced per
// pair during resolution, never persisted.
type MatchDecision struct {
	IsMatch    bool     `json:"is_match"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons,omitempty"`
}

// AddressComponents holds the structured parse of a free-text address.
type AddressComponents struct {
	StreetNumber string `json:"street_number,omitempty"`
	StreetName   string `json:"street_name,omitempty"`
	Suite        string `json:"suite,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	Zip          string `json:"zip,omitempty"`
	Normalized   string `json:"normalized,omitempty"`
}
