package validation

import (
	"context"

	"astergen/pkg/model"
)

// NewReferencesRule checks that every id held by an entity resolves to an
// entity of the expected kind.
func NewReferencesRule() Rule { return referencesRule{} }

type referencesRule struct{}

func (referencesRule) Name() string { return "references" }

func (r referencesRule) Evaluate(_ context.Context, m *model.Model) (Result, error) {
	res := Result{}
	missing := func(owner model.Ref, kind model.Kind, id int, what string) {
		if _, ok := m.Find(model.Ref{Kind: kind, ID: id}); !ok {
			res.add(r.Name(), SeverityBlock, owner, "%s references missing %s %d", what, kind, id)
		}
	}
	for _, a := range m.Analyses() {
		c := a.Common()
		for _, id := range c.LoadSetIDs {
			missing(a.Ref(), model.KindLoadSet, id, "analysis")
		}
		for _, id := range c.ConstraintSetIDs {
			missing(a.Ref(), model.KindConstraintSet, id, "analysis")
		}
		for _, id := range c.ObjectiveIDs {
			missing(a.Ref(), model.KindObjective, id, "analysis")
		}
	}
	for _, ls := range m.LoadSets() {
		for _, id := range ls.LoadingIDs {
			missing(ls.Ref(), model.KindLoading, id, "load set")
		}
		for _, w := range ls.Embedded {
			missing(ls.Ref(), model.KindLoadSet, w.LoadSetID, "combined load set")
		}
	}
	for _, cs := range m.ConstraintSets() {
		for _, id := range cs.ConstraintIDs {
			missing(cs.Ref(), model.KindConstraint, id, "constraint set")
		}
	}
	for _, es := range m.ElementSets() {
		for _, id := range es.Common().MaterialIDs {
			missing(es.Ref(), model.KindMaterial, id, "element set")
		}
		if comp, ok := es.(*model.Composite); ok {
			for _, l := range comp.Layers {
				missing(es.Ref(), model.KindMaterial, l.MaterialID, "composite layer")
			}
		}
	}
	for _, l := range m.Loadings() {
		switch v := l.(type) {
		case *model.LineForce:
			missing(l.Ref(), model.KindValue, v.FunctionID, "line force")
		case *model.DynamicExcitation:
			missing(l.Ref(), model.KindLoadSet, v.LoadSetID, "dynamic excitation")
			missing(l.Ref(), model.KindValue, v.FunctionID, "dynamic excitation")
		}
	}
	for _, c := range m.Constraints() {
		if spc, ok := c.(*model.SinglePointConstraint); ok {
			for _, d := range spc.DOFs.List() {
				if id := spc.Functions[d]; id != 0 {
					missing(c.Ref(), model.KindValue, id, "single point constraint")
				}
			}
		}
	}
	for _, o := range m.Objectives() {
		switch v := o.(type) {
		case *model.FrequencySearch:
			missing(o.Ref(), model.KindValue, v.ValueID, "frequency search")
		case *model.FrequencyExcitation:
			missing(o.Ref(), model.KindValue, v.ValueID, "excitation frequencies")
		case *model.ModalDamping:
			missing(o.Ref(), model.KindValue, v.FunctionID, "modal damping")
		}
	}
	return res, nil
}
