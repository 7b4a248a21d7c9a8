package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/openings-cli/internal/model"
)

// Three records where A~B share a phone, B~C share an email, and A and
// C have nothing in common directly.
func transitiveTrio() []model.RawRecord {
	return []model.RawRecord{
		{Source: "tabc", SourceID: "a", VenueName: "Joe's Pizza", Address: "123 Main St, Houston", Phone: "7135550101"},
		{Source: "hc_permit", SourceID: "b", VenueName: "JP Ventures", Address: "900 Oak Blvd, Katy", Phone: "(713) 555-0101", Email: "joe@example.com"},
		{Source: "hc_health", SourceID: "c", VenueName: "Totally Different", Address: "55 Elm Ct, Spring", Email: "JOE@example.com"},
	}
}

func newTestResolver(oracle MatchOracle, opts Options) *Resolver {
	return NewResolver(newTestClassifier(), oracle, opts)
}

func TestResolver_TransitiveMatchesLandInOneGroup(t *testing.T) {
	r := newTestResolver(nil, Options{})

	entities := r.Resolve(context.Background(), transitiveTrio())

	require.Len(t, entities, 1)
	assert.Equal(t, 3, entities[0].MergedFrom)
	assert.ElementsMatch(t,
		[]string{"tabc:a", "hc_permit:b", "hc_health:c"},
		entities[0].SourceRecordIDs,
	)
}

func TestResolver_SeedOnlySplitsTransitiveChain(t *testing.T) {
	r := newTestResolver(nil, Options{SeedOnly: true})

	// Seeded on A, the sweep picks up B but not C; C seeds its own group.
	entities := r.Resolve(context.Background(), transitiveTrio())

	require.Len(t, entities, 2)
	assert.Equal(t, 2, entities[0].MergedFrom)
	assert.Equal(t, 1, entities[1].MergedFrom)
}

func TestResolver_PartitionInvariant(t *testing.T) {
	records := []model.RawRecord{
		{Source: "tabc", SourceID: "1", VenueName: "Taco Palace", Address: "123 Main St, Houston"},
		{Source: "tabc", SourceID: "2", VenueName: "Burger Barn", Address: "900 Oak Blvd, Katy"},
		{Source: "hc_permit", SourceID: "3", VenueName: "Taco Palace LLC", Address: "123 Main Street, houston"},
		{Source: "hc_health", SourceID: "4", VenueName: "Noodle House", Address: "55 Elm Ct, Spring"},
	}

	for _, seedOnly := range []bool{false, true} {
		r := newTestResolver(nil, Options{SeedOnly: seedOnly})
		entities := r.Resolve(context.Background(), records)

		seen := map[string]int{}
		total := 0
		for _, e := range entities {
			for _, id := range e.SourceRecordIDs {
				seen[id]++
				total++
			}
		}
		assert.Equal(t, len(records), total, "seedOnly=%v", seedOnly)
		for id, n := range seen {
			assert.Equal(t, 1, n, "record %s appears %d times (seedOnly=%v)", id, n, seedOnly)
		}
	}
}

func TestResolver_EmptyInput(t *testing.T) {
	r := newTestResolver(nil, Options{})
	assert.Nil(t, r.Resolve(context.Background(), nil))
}

// Ambiguous pair: same street number and name, different city, related
// venue names. No deterministic rule fires.
func ambiguousPair() []model.RawRecord {
	return []model.RawRecord{
		{Source: "tabc", SourceID: "x", VenueName: "Blue Sushi Saki", Address: "100 Main St, Houston"},
		{Source: "hc_permit", SourceID: "y", VenueName: "Blue Sushi", Address: "100 Main Street, Pasadena"},
	}
}

func TestResolver_OracleMergesAmbiguousGroups(t *testing.T) {
	oracle := &stubOracle{eval: MatchEvaluation{SameEntity: true, Confidence: 0.9}}
	r := newTestResolver(oracle, Options{})

	entities := r.Resolve(context.Background(), ambiguousPair())

	require.Len(t, entities, 1)
	assert.Equal(t, 2, entities[0].MergedFrom)
	assert.Equal(t, 1, oracle.calls)
}

func TestResolver_OracleConfidenceAtThresholdDoesNotMerge(t *testing.T) {
	oracle := &stubOracle{eval: MatchEvaluation{SameEntity: true, Confidence: 0.7}}
	r := newTestResolver(oracle, Options{})

	entities := r.Resolve(context.Background(), ambiguousPair())

	assert.Len(t, entities, 2)
	assert.Equal(t, 1, oracle.calls)
}

func TestResolver_OracleSaysDifferent(t *testing.T) {
	oracle := &stubOracle{eval: MatchEvaluation{SameEntity: false, Confidence: 0.95}}
	r := newTestResolver(oracle, Options{})

	entities := r.Resolve(context.Background(), ambiguousPair())
	assert.Len(t, entities, 2)
}

func TestResolver_OracleErrorLeavesGroupsUnmerged(t *testing.T) {
	oracle := &stubOracle{err: errOracleDown}
	r := newTestResolver(oracle, Options{})

	entities := r.Resolve(context.Background(), ambiguousPair())
	assert.Len(t, entities, 2)
	assert.Equal(t, 1, oracle.calls)
}

func TestResolver_NoOracleSkipsArbitration(t *testing.T) {
	r := newTestResolver(nil, Options{})

	entities := r.Resolve(context.Background(), ambiguousPair())
	assert.Len(t, entities, 2)
}

func TestResolver_SingletonPassThrough(t *testing.T) {
	rec := model.RawRecord{Source: "tabc", SourceID: "1", VenueName: "Solo Cafe", Address: "1 First St, Houston"}
	r := newTestResolver(nil, Options{})

	entities := r.Resolve(context.Background(), []model.RawRecord{rec})

	require.Len(t, entities, 1)
	assert.Equal(t, 1, entities[0].MergedFrom)
	assert.Equal(t, []string{"tabc:1"}, entities[0].SourceRecordIDs)
	assert.Equal(t, "Solo Cafe", entities[0].VenueName)
}
