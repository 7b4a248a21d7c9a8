package resolve

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/openings-cli/internal/model"
)

// MatchEvaluation is the arbitration oracle's verdict on a record pair.
type MatchEvaluation struct {
	SameEntity  bool    `json:"same_entity"`
	Confidence  float64 `json:"confidence_0_1"`
	Explanation string  `json:"explanation"`
}

// MatchOracle arbitrates record pairs the deterministic classifier
// could not decide. Implementations must degrade to a non-match on any
// internal failure rather than abort the batch.
type MatchOracle interface {
	Evaluate(ctx context.Context, a, b model.RawRecord) (MatchEvaluation, error)
}

// oracleMergeThreshold is the minimum oracle confidence for a cross-group merge.
const oracleMergeThreshold = 0.7

// Options tunes resolver behavior.
type Options struct {
	// SeedOnly restores the legacy single-pass grouping that compares
	// candidates only to the group seed. Order-dependent and blind to
	// transitive matches; kept for migration verification only.
	SeedOnly bool
}

// Resolver groups raw records into entities, escalating ambiguous
// cross-group pairs to an arbitration oracle before merging.
type Resolver struct {
	classifier *Classifier
	oracle     MatchOracle
	opts       Options
}

// NewResolver creates a Resolver. oracle may be nil, in which case
// ambiguous pairs are left unmerged.
func NewResolver(classifier *Classifier, oracle MatchOracle, opts Options) *Resolver {
	return &Resolver{classifier: classifier, oracle: oracle, opts: opts}
}

// Resolve partitions records into resolved entities. Every input record
// lands in exactly one output entity; empty input yields empty output.
func (r *Resolver) Resolve(ctx context.Context, records []model.RawRecord) []model.ResolvedEntity {
	if len(records) == 0 {
		return nil
	}

	var groups [][]model.RawRecord
	if r.opts.SeedOnly {
		groups = r.seedGroups(records)
	} else {
		groups = r.componentGroups(records)
	}

	groups = r.arbitrate(ctx, groups)

	entities := make([]model.ResolvedEntity, 0, len(groups))
	for _, group := range groups {
		if len(group) == 0 {
			continue
		}
		if len(group) == 1 {
			entities = append(entities, model.ResolvedEntity{
				RawRecord:       group[0],
				MergedFrom:      1,
				SourceRecordIDs: []string{RecordID(group[0])},
			})
			continue
		}
		entities = append(entities, Merge(group))
	}

	zap.L().Info("resolve: batch complete",
		zap.Int("records", len(records)),
		zap.Int("entities", len(entities)),
	)
	return entities
}

// componentGroups runs the deterministic classifier over every record
// pair and takes connected components, so transitive matches (A~B, B~C)
// land in one group regardless of input order. Same O(n^2) comparison
// cost as the legacy pass.
func (r *Resolver) componentGroups(records []model.RawRecord) [][]model.RawRecord {
	parent := make([]int, len(records))
	for i := range parent {
		parent[i] = i
	}

	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(i, j int) {
		ri, rj := find(i), find(j)
		if ri != rj {
			if rj < ri {
				ri, rj = rj, ri
			}
			parent[rj] = ri
		}
	}

	for i := 0; i < len(records); i++ {
		for j := i + 1; j < len(records); j++ {
			if r.classifier.Match(records[i], records[j]).IsMatch {
				union(i, j)
			}
		}
	}

	index := make(map[int]int)
	var groups [][]model.RawRecord
	for i, rec := range records {
		root := find(i)
		gi, ok := index[root]
		if !ok {
			gi = len(groups)
			index[root] = gi
			groups = append(groups, nil)
		}
		groups[gi] = append(groups[gi], rec)
	}
	return groups
}

// seedGroups is the legacy grouping: pop a seed, sweep the remaining
// unassigned records against it, repeat.
func (r *Resolver) seedGroups(records []model.RawRecord) [][]model.RawRecord {
	unassigned := make([]model.RawRecord, len(records))
	copy(unassigned, records)

	var groups [][]model.RawRecord
	for len(unassigned) > 0 {
		seed := unassigned[0]
		group := []model.RawRecord{seed}

		var remaining []model.RawRecord
		for _, other := range unassigned[1:] {
			if r.classifier.Match(seed, other).IsMatch {
				group = append(group, other)
			} else {
				remaining = append(remaining, other)
			}
		}

		unassigned = remaining
		groups = append(groups, group)
	}
	return groups
}

// arbitrate scans cross-group record pairs for ambiguity and asks the
// oracle to break ties. One merge decision per group pair: the first
// ambiguous pair decides, whatever the verdict.
func (r *Resolver) arbitrate(ctx context.Context, groups [][]model.RawRecord) [][]model.RawRecord {
	if r.oracle == nil {
		return groups
	}

	for i := 0; i < len(groups); i++ {
		if len(groups[i]) == 0 {
			continue
		}
		for j := i + 1; j < len(groups); j++ {
			if len(groups[j]) == 0 {
				continue
			}

			a, b, found := firstAmbiguousPair(r.classifier, groups[i], groups[j])
			if !found {
				continue
			}

			eval, err := r.oracle.Evaluate(ctx, a, b)
			if err != nil {
				zap.L().Warn("resolve: oracle arbitration failed",
					zap.String("venue_a", a.VenueName),
					zap.String("venue_b", b.VenueName),
					zap.Error(err),
				)
				continue
			}

			if eval.SameEntity && eval.Confidence > oracleMergeThreshold {
				zap.L().Info("resolve: oracle merged groups",
					zap.String("venue_a", a.VenueName),
					zap.String("venue_b", b.VenueName),
					zap.Float64("confidence", eval.Confidence),
				)
				groups[i] = append(groups[i], groups[j]...)
				groups[j] = nil
			}
		}
	}

	var out [][]model.RawRecord
	for _, g := range groups {
		if len(g) > 0 {
			out = append(out, g)
		}
	}
	return out
}

func firstAmbiguousPair(c *Classifier, g1, g2 []model.RawRecord) (model.RawRecord, model.RawRecord, bool) {
	for _, a := range g1 {
		for _, b := range g2 {
			if c.Ambiguous(a, b) {
				return a, b, true
			}
		}
	}
	return model.RawRecord{}, model.RawRecord{}, false
}
