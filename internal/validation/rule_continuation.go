package validation

import (
	"context"
	"errors"

	"astergen/internal/graphcycle"
	"astergen/pkg/model"
)

// NewContinuationRule checks the predecessor chains of nonlinear analyses:
// every predecessor exists, is nonlinear, is declared earlier, and the chain
// is acyclic.
func NewContinuationRule() Rule { return continuationRule{} }

type continuationRule struct{}

func (continuationRule) Name() string { return "continuation" }

func (r continuationRule) Evaluate(_ context.Context, m *model.Model) (Result, error) {
	res := Result{}
	previous := make(map[int]int)
	var starts []int
	for _, a := range m.Analyses() {
		nl, ok := a.(*model.NonLinearStatic)
		if !ok || nl.PreviousID == 0 {
			continue
		}
		previous[nl.ID] = nl.PreviousID
		starts = append(starts, nl.ID)
		pred, err := m.Analysis(nl.PreviousID)
		if err != nil {
			res.add(r.Name(), SeverityBlock, nl.Ref(), "continuation predecessor %d not found", nl.PreviousID)
			continue
		}
		if _, ok := pred.(*model.NonLinearStatic); !ok {
			res.add(r.Name(), SeverityBlock, nl.Ref(), "continuation predecessor %d is a %s analysis", nl.PreviousID, pred.Kind())
		}
		if m.AnalysisPosition(nl.PreviousID) > m.AnalysisPosition(nl.ID) {
			res.add(r.Name(), SeverityBlock, nl.Ref(), "continuation predecessor %d is declared after its successor", nl.PreviousID)
		}
	}
	err := graphcycle.Detect(graphcycle.Config[int]{
		Starts: starts,
		Next: func(id int) []int {
			if p, ok := previous[id]; ok {
				return []int{p}
			}
			return nil
		},
	})
	var cycle graphcycle.CycleError[int]
	if errors.As(err, &cycle) {
		res.add(r.Name(), SeverityBlock, model.Ref{Kind: model.KindAnalysis, ID: cycle.Key},
			"continuation chain is cyclic: %v", cycle.Path)
	} else if err != nil {
		return Result{}, err
	}
	return res, nil
}
