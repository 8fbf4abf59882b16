// Package reasoning identifies care gaps with deterministic rules. This is
// the "Therefore" step: the LLM extracts facts and explains results, but
// gap detection itself is pure code and cites its inputs on both sides.
package reasoning

import (
	"github.com/kmufti7/careflow/pkg/domain/model"
	"github.com/kmufti7/careflow/pkg/domain/types"
)

// Engine evaluates every care-gap rule for a patient. It is stateless and
// safe for concurrent use.
type Engine struct{}

// New creates a new reasoning engine
func New() *Engine {
	return &Engine{}
}

type rule func(facts *model.ExtractedFacts, patientID types.PatientID) model.GapResult

// rules lists every gap check in evaluation order. Output order follows
// this list, so downstream formatting is stable.
var rules = []rule{
	CheckA1CThreshold,
	CheckHTNACEARB,
	CheckBPControl,
}

// Evaluate runs all rules against the extracted facts. The same facts always
// produce the same result.
func (e *Engine) Evaluate(facts *model.ExtractedFacts, patientID types.PatientID) *model.ReasoningResult {
	gaps := make([]model.GapResult, 0, len(rules))
	for _, r := range rules {
		gaps = append(gaps, r(facts, patientID))
	}

	found := 0
	urgent := false
	for _, g := range gaps {
		if !g.GapDetected {
			continue
		}
		found++
		if g.Severity == types.SeverityHigh {
			urgent = true
		}
	}

	status := types.StatusGapsIdentified
	switch {
	case found == 0:
		status = types.StatusAllGapsClosed
	case urgent:
		status = types.StatusUrgentGaps
	}

	return &model.ReasoningResult{
		PatientID:     patientID,
		Gaps:          gaps,
		GapsFound:     found,
		GapsClosed:    len(gaps) - found,
		OverallStatus: status,
	}
}
