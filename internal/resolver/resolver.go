// Package resolver computes the dependencies between the analyses of a
// finished model: the pseudo-time axis of chained nonlinear analyses, the
// reuse of eigen bases, and the liveness of every analysis result.
//
// Analyses are processed in declaration order; that order is a hard
// precondition, not an optimization.
package resolver

import (
	"fmt"

	"astergen/pkg/model"
)

// Interval is the pseudo-time span of a nonlinear analysis.
type Interval struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Increments int     `json:"increments"`
}

// UseReason explains why a later analysis needs a result.
type UseReason string

// Reasons keeping a result alive.
const (
	UseContinuation UseReason = "continuation"
	UseBuckling     UseReason = "buckling"
	UseCombination  UseReason = "combination"
	UseReuse        UseReason = "reuse"
)

// Use records a later analysis depending on a result.
type Use struct {
	By     model.Ref `json:"by"`
	Reason UseReason `json:"reason"`
}

// Step is the resolved view of one analysis.
type Step struct {
	Analysis model.Analysis
	Index    int
	// Interval is set for nonlinear analyses only.
	Interval *Interval
	// Reuse is the earlier analysis whose eigen basis is borrowed.
	Reuse model.Analysis
	// Reusable is true when a later analysis borrows this basis.
	Reusable bool
	// Live is true when the result is referenced after this analysis.
	Live   bool
	KeptBy []Use
}

// Plan holds one step per analysis in declaration order.
type Plan struct {
	Steps  []*Step
	Cursor float64
	byID   map[int]*Step
}

// Step returns the step of an analysis id.
func (p *Plan) Step(id int) (*Step, bool) {
	s, ok := p.byID[id]
	return s, ok
}

// OrderError reports a dependency on an analysis that is not declared
// before its user.
type OrderError struct {
	Analysis model.Ref
	Target   model.Ref
	Reason   UseReason
}

func (e OrderError) Error() string {
	return fmt.Sprintf("%s uses %s (%s) which is not declared earlier", e.Analysis, e.Target, e.Reason)
}

// Resolve builds the plan of a finished model.
func Resolve(m *model.Model) (*Plan, error) {
	analyses := m.Analyses()
	p := &Plan{byID: make(map[int]*Step, len(analyses))}
	for i, a := range analyses {
		s := &Step{Analysis: a, Index: i}
		p.Steps = append(p.Steps, s)
		p.byID[a.Common().ID] = s
	}
	timeline := newTimeline()
	for _, s := range p.Steps {
		if err := p.checkDependencies(m, s); err != nil {
			return nil, err
		}
		if nl, ok := s.Analysis.(*model.NonLinearStatic); ok {
			iv, err := timeline.advance(m, nl)
			if err != nil {
				return nil, err
			}
			s.Interval = &iv
		}
		s.Reuse = ReusableAnalysisFor(m, s.Analysis)
		if s.Reuse != nil {
			root := p.byID[s.Reuse.Common().ID]
			root.Reusable = true
			root.KeptBy = append(root.KeptBy, Use{By: s.Analysis.Ref(), Reason: UseReuse})
		}
	}
	p.Cursor = timeline.cursor
	for _, s := range p.Steps {
		for _, dep := range dependencies(s.Analysis) {
			target := p.byID[dep.id]
			target.KeptBy = append(target.KeptBy, Use{By: s.Analysis.Ref(), Reason: dep.reason})
		}
	}
	for _, s := range p.Steps {
		s.Live = len(s.KeptBy) > 0
	}
	return p, nil
}

type dependency struct {
	id     int
	reason UseReason
}

func dependencies(a model.Analysis) []dependency {
	switch v := a.(type) {
	case *model.NonLinearStatic:
		if v.PreviousID != 0 {
			return []dependency{{id: v.PreviousID, reason: UseContinuation}}
		}
	case *model.LinearBuckling:
		return []dependency{{id: v.StaticID, reason: UseBuckling}}
	case *model.Combination:
		out := make([]dependency, 0, len(v.Terms))
		for _, t := range v.Terms {
			out = append(out, dependency{id: t.AnalysisID, reason: UseCombination})
		}
		return out
	}
	return nil
}

func (p *Plan) checkDependencies(m *model.Model, s *Step) error {
	for _, dep := range dependencies(s.Analysis) {
		ref := model.Ref{Kind: model.KindAnalysis, ID: dep.id}
		target, ok := p.byID[dep.id]
		if !ok {
			return fmt.Errorf("%s: %w", s.Analysis.Ref(), model.NotFoundError{Ref: ref})
		}
		if target.Index >= s.Index {
			return OrderError{Analysis: s.Analysis.Ref(), Target: ref, Reason: dep.reason}
		}
		if dep.reason == UseContinuation {
			if _, ok := target.Analysis.(*model.NonLinearStatic); !ok {
				return fmt.Errorf("%s: continuation predecessor %s is not a nonlinear analysis", s.Analysis.Ref(), ref)
			}
		}
	}
	return nil
}
