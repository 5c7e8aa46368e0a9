package validation

import (
	"context"

	"astergen/internal/concept"
	"astergen/pkg/model"
)

// NewConceptNamesRule checks that every concept name minted from an entity
// id fits the solver name budget.
func NewConceptNamesRule() Rule { return conceptNamesRule{} }

type conceptNamesRule struct{}

func (conceptNamesRule) Name() string { return "concept_names" }

func (r conceptNamesRule) Evaluate(_ context.Context, m *model.Model) (Result, error) {
	res := Result{}
	check := func(ref model.Ref, names ...string) {
		for _, n := range names {
			if err := concept.Check(n); err != nil {
				res.add(r.Name(), SeverityBlock, ref, "%v", err)
				return
			}
		}
	}
	for _, v := range m.Values() {
		check(v.Ref(), concept.List(v.Common().ID), concept.Function(v.Common().ID))
	}
	for _, mat := range m.Materials() {
		check(mat.Ref(), concept.Material(mat.ID))
	}
	for _, ls := range m.LoadSets() {
		check(ls.Ref(), concept.Load(ls.ID, true))
	}
	for _, cs := range m.ConstraintSets() {
		check(cs.Ref(), concept.ConstraintLoad(cs.ID, true), concept.Contact(cs.ID))
	}
	for _, a := range m.Analyses() {
		check(a.Ref(), concept.ForAnalysis(a.Common().ID)...)
	}
	return res, nil
}
