package validation

import (
	"context"

	"astergen/pkg/model"
)

// NewAnalysisInputsRule checks the objectives and sub-analyses each analysis
// kind needs.
func NewAnalysisInputsRule() Rule { return analysisInputsRule{} }

type analysisInputsRule struct{}

func (analysisInputsRule) Name() string { return "analysis_inputs" }

func (r analysisInputsRule) Evaluate(_ context.Context, m *model.Model) (Result, error) {
	res := Result{}
	need := func(a model.Analysis, id int, what string, ok func(model.Objective) bool) {
		o, err := m.Objective(id)
		if err != nil || !ok(o) {
			res.add(r.Name(), SeverityBlock, a.Ref(), "%s %d not found", what, id)
		}
	}
	isSearch := func(o model.Objective) bool { _, ok := o.(*model.FrequencySearch); return ok }
	isExcit := func(o model.Objective) bool { _, ok := o.(*model.FrequencyExcitation); return ok }

	for _, a := range m.Analyses() {
		pos := m.AnalysisPosition(a.Common().ID)
		switch v := a.(type) {
		case *model.NonLinearStatic:
			s, err := model.Get[*model.NonLinearStrategy](m, model.KindObjective, v.StrategyID)
			if err != nil {
				res.add(r.Name(), SeverityBlock, a.Ref(), "nonlinear strategy %d not found", v.StrategyID)
			} else if s.Increments < 1 {
				res.add(r.Name(), SeverityBlock, a.Ref(), "nonlinear strategy %d needs at least one increment", s.ID)
			}
		case *model.LinearModal:
			need(a, v.SearchID, "frequency search", isSearch)
		case *model.LinearBuckling:
			need(a, v.SearchID, "frequency search", isSearch)
			static, err := m.Analysis(v.StaticID)
			switch {
			case err != nil:
				res.add(r.Name(), SeverityBlock, a.Ref(), "buckling prestress analysis %d not found", v.StaticID)
			case static.Kind() != model.KindLinearStatic:
				res.add(r.Name(), SeverityBlock, a.Ref(), "buckling prestress analysis %d is a %s analysis", v.StaticID, static.Kind())
			case m.AnalysisPosition(v.StaticID) > pos:
				res.add(r.Name(), SeverityBlock, a.Ref(), "buckling prestress analysis %d is declared later", v.StaticID)
			}
		case *model.DirectFrequency:
			need(a, v.ExcitationID, "excitation frequencies", isExcit)
		case *model.ModalFrequency:
			need(a, v.SearchID, "frequency search", isSearch)
			need(a, v.ExcitationID, "excitation frequencies", isExcit)
			if v.DampingID != 0 {
				need(a, v.DampingID, "modal damping", func(o model.Objective) bool { _, ok := o.(*model.ModalDamping); return ok })
			}
		case *model.Combination:
			if len(v.Terms) == 0 {
				res.add(r.Name(), SeverityBlock, a.Ref(), "combination has no terms")
			}
			for _, t := range v.Terms {
				tp := m.AnalysisPosition(t.AnalysisID)
				switch {
				case tp < 0:
					res.add(r.Name(), SeverityBlock, a.Ref(), "combined analysis %d not found", t.AnalysisID)
				case tp > pos:
					res.add(r.Name(), SeverityBlock, a.Ref(), "combined analysis %d is declared later", t.AnalysisID)
				}
			}
		}
		if model.IsStatic(a) && a.Kind() != model.KindCombination && len(a.Common().LoadSetIDs) == 0 {
			res.add(r.Name(), SeverityWarn, a.Ref(), "static analysis without load set")
		}
	}
	return res, nil
}
