package validation

import (
	"context"

	"astergen/pkg/model"
)

// NewEffectivenessRule logs entities left without geometry after finishing.
func NewEffectivenessRule() Rule { return effectivenessRule{} }

type effectivenessRule struct{}

func (effectivenessRule) Name() string { return "effectiveness" }

func (r effectivenessRule) Evaluate(_ context.Context, m *model.Model) (Result, error) {
	res := Result{}
	effective := 0
	for _, es := range m.ElementSets() {
		if es.Common().Effective() {
			effective++
			continue
		}
		res.add(r.Name(), SeverityLog, es.Ref(), "element set has no cells and is ignored")
	}
	if effective == 0 && m.Count(model.KindAnalysis) > 0 {
		res.add(r.Name(), SeverityBlock, model.Ref{}, "model has no effective element set")
	}
	for _, l := range m.Loadings() {
		if !l.Common().Effective() {
			res.add(r.Name(), SeverityLog, l.Ref(), "loading has no target and is ignored")
		}
	}
	for _, c := range m.Constraints() {
		if !c.Common().Effective() {
			res.add(r.Name(), SeverityLog, c.Ref(), "constraint has no target and is ignored")
		}
	}
	return res, nil
}
