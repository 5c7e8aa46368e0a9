package hclmodel

import (
	"github.com/hashicorp/hcl/v2"

	"astergen/pkg/model"
)

type termSpec struct {
	Analysis string  `hcl:"analysis"`
	Coef     float64 `hcl:"coef"`
}

type analysisSpec struct {
	Strategy       string      `hcl:"strategy,optional"`
	Previous       string      `hcl:"previous,optional"`
	Search         string      `hcl:"search,optional"`
	Static         string      `hcl:"static,optional"`
	Excitation     string      `hcl:"excitation,optional"`
	Damping        string      `hcl:"damping,optional"`
	ResidualVector bool        `hcl:"residual_vector,optional"`
	Terms          []*termSpec `hcl:"term,block"`
	Rest           hcl.Body    `hcl:",remain"`
}

func (b *builder) analysis(s *entitySpec, rng *hcl.Range) model.Entity {
	var spec analysisSpec
	if !b.decode(s.Body, &spec) {
		return nil
	}
	var common analysisCommon
	if !b.decode(spec.Rest, &common) {
		return nil
	}
	base := model.AnalysisBase{
		Label:            common.Label,
		LoadSetIDs:       b.refs(model.KindLoadSet, common.LoadSets, rng),
		ConstraintSetIDs: b.refs(model.KindConstraintSet, common.ConstraintSets, rng),
		ObjectiveIDs:     b.refs(model.KindObjective, common.Objectives, rng),
	}
	objective := func(name string) int { return b.ref(model.KindObjective, name, rng) }
	switch model.AnalysisKind(s.Type) {
	case model.KindLinearStatic:
		return &model.LinearStatic{AnalysisBase: base}
	case model.KindNonLinearStatic:
		return &model.NonLinearStatic{AnalysisBase: base, StrategyID: objective(spec.Strategy),
			PreviousID: b.ref(model.KindAnalysis, spec.Previous, rng)}
	case model.KindLinearModal:
		return &model.LinearModal{AnalysisBase: base, SearchID: objective(spec.Search)}
	case model.KindLinearBuckling:
		return &model.LinearBuckling{AnalysisBase: base, SearchID: objective(spec.Search),
			StaticID: b.ref(model.KindAnalysis, spec.Static, rng)}
	case model.KindDirectFrequency:
		return &model.DirectFrequency{AnalysisBase: base, ExcitationID: objective(spec.Excitation)}
	case model.KindModalFrequency:
		return &model.ModalFrequency{AnalysisBase: base, SearchID: objective(spec.Search),
			ExcitationID: objective(spec.Excitation), DampingID: objective(spec.Damping),
			ResidualVector: spec.ResidualVector}
	case model.KindCombination:
		c := &model.Combination{AnalysisBase: base}
		for _, t := range spec.Terms {
			c.Terms = append(c.Terms, model.CombinationTerm{AnalysisID: b.ref(model.KindAnalysis, t.Analysis, rng), Coef: t.Coef})
		}
		return c
	}
	return b.unsupported(s, rng, "analysis")
}
