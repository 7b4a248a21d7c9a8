package resolve

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/openings-cli/internal/model"
)

// stubOracle returns a canned verdict for every pair and records how
// often it was consulted.
type stubOracle struct {
	eval  MatchEvaluation
	err   error
	calls int
}

func (s *stubOracle) Evaluate(_ context.Context, _, _ model.RawRecord) (MatchEvaluation, error) {
	s.calls++
	if s.err != nil {
		return MatchEvaluation{}, s.err
	}
	return s.eval, nil
}

var errOracleDown = eris.New("oracle unavailable")
