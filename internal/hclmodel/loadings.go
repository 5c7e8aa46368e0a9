package hclmodel

import (
	"github.com/hashicorp/hcl/v2"

	"astergen/pkg/model"
)

type loadingSpec struct {
	Force        []float64          `hcl:"force,optional"`
	Moment       []float64          `hcl:"moment,optional"`
	Intensity    float64            `hcl:"intensity,optional"`
	DOFs         []string           `hcl:"dofs,optional"`
	Function     string             `hcl:"function,optional"`
	Edges        bool               `hcl:"edges,optional"`
	Acceleration float64            `hcl:"acceleration,optional"`
	Direction    []float64          `hcl:"direction,optional"`
	Speed        float64            `hcl:"speed,optional"`
	Axis         []float64          `hcl:"axis,optional"`
	Center       []float64          `hcl:"center,optional"`
	Values       map[string]float64 `hcl:"values,optional"`
	LoadSet      string             `hcl:"load_set,optional"`
	PhaseDeg     float64            `hcl:"phase_deg,optional"`
	Excitation   string             `hcl:"excitation,optional"`
	Rest         hcl.Body           `hcl:",remain"`
}

func (b *builder) loading(s *entitySpec, rng *hcl.Range) model.Entity {
	var spec loadingSpec
	if !b.decode(s.Body, &spec) {
		return nil
	}
	var sel selectionSpec
	if !b.decode(spec.Rest, &sel) {
		return nil
	}
	where := b.selection(sel, rng)
	switch s.Type {
	case "nodal_force":
		return &model.NodalForce{Nodes: where, Force: b.vector(spec.Force, rng), Moment: b.vector(spec.Moment, rng)}
	case "pressure":
		return &model.Pressure{Cells: where, Intensity: spec.Intensity}
	case "shell_pressure":
		return &model.ShellPressure{Cells: where, Intensity: spec.Intensity}
	case "surface_force":
		return &model.SurfaceForce{Cells: where, Force: b.vector(spec.Force, rng)}
	case "line_force":
		return &model.LineForce{Cells: where, DOFs: b.dofs(spec.DOFs, rng),
			FunctionID: b.ref(model.KindValue, spec.Function, rng), Edges: spec.Edges}
	case "gravity":
		return &model.Gravity{Acceleration: spec.Acceleration, Direction: b.vector(spec.Direction, rng)}
	case "rotation":
		return &model.Rotation{Speed: spec.Speed, Axis: b.vector(spec.Axis, rng), Center: b.vector(spec.Center, rng)}
	case "imposed_displacement":
		values, set := b.perDOF(spec.Values, rng)
		return &model.ImposedDisplacement{Nodes: where, DOFs: set, Values: values}
	case "dynamic_excitation":
		typ := model.ExciteLoad
		if spec.Excitation != "" {
			typ = model.ExcitationType(spec.Excitation)
		}
		return &model.DynamicExcitation{
			LoadSetID:  b.ref(model.KindLoadSet, spec.LoadSet, rng),
			FunctionID: b.ref(model.KindValue, spec.Function, rng),
			PhaseDeg:   spec.PhaseDeg,
			Type:       typ,
		}
	}
	return b.unsupported(s, rng, "loading")
}

func (b *builder) loadSet(s *loadSetSpec) {
	ls := &model.LoadSet{Type: model.LoadSetLoad, LoadingIDs: b.refs(model.KindLoading, s.Loadings, nil)}
	if s.Dynamic {
		ls.Type = model.LoadSetDLoad
	}
	for _, e := range s.Embedded {
		ls.Embedded = append(ls.Embedded, model.WeightedLoadSet{LoadSetID: b.ref(model.KindLoadSet, e.LoadSet, nil), Coef: e.Coef})
	}
	b.store(ls, model.KindLoadSet, s.Name, s.OriginalID)
}
