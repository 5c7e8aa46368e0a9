package hclmodel

import (
	"github.com/hashicorp/hcl/v2"

	"astergen/pkg/model"
)

type valueSpec struct {
	Values    []float64   `hcl:"values,optional"`
	All       bool        `hcl:"all,optional"`
	Start     *float64    `hcl:"start,optional"`
	End       *float64    `hcl:"end,optional"`
	Count     int         `hcl:"count,optional"`
	Points    [][]float64 `hcl:"points,optional"`
	ParamX    string      `hcl:"param_x,optional"`
	ParamY    string      `hcl:"param_y,optional"`
	Left      string      `hcl:"left,optional"`
	Right     string      `hcl:"right,optional"`
	MaxSearch int         `hcl:"max_search,optional"`
}

func (b *builder) value(s *entitySpec, rng *hcl.Range) model.Entity {
	var spec valueSpec
	if !b.decode(s.Body, &spec) {
		return nil
	}
	switch s.Type {
	case "list":
		return &model.ListValue{Values: spec.Values}
	case "set":
		return &model.SetValue{Values: spec.Values, All: spec.All}
	case "step_range":
		if spec.Start == nil || spec.Count <= 0 {
			b.errorf(rng, "Invalid range", "value %q needs a start and a positive count", s.Name)
			return nil
		}
		return &model.StepRange{Start: *spec.Start, End: spec.End, Count: spec.Count}
	case "function":
		f := &model.FunctionTable{
			ParamX: spec.ParamX, ParamY: spec.ParamY,
			Left:  extrapolation(spec.Left),
			Right: extrapolation(spec.Right),
		}
		for _, p := range spec.Points {
			if len(p) != 2 {
				b.errorf(rng, "Invalid point", "function %q has point %v; points are [x, y]", s.Name, p)
				continue
			}
			f.Points = append(f.Points, model.Point{X: p[0], Y: p[1]})
		}
		if len(f.Points) == 0 {
			b.errorf(rng, "Empty function", "function %q has no points", s.Name)
			return nil
		}
		return f
	case "band":
		return &model.BandRange{Start: spec.Start, End: spec.End, MaxSearch: spec.MaxSearch}
	}
	return b.unsupported(s, rng, "value")
}

func extrapolation(s string) model.Extrapolation {
	switch s {
	case "linear":
		return model.ExtrapolateLinear
	case "excluded":
		return model.ExtrapolateExcluded
	}
	return model.ExtrapolateConstant
}

type objectiveSpec struct {
	Increments     int      `hcl:"increments,optional"`
	Search         string   `hcl:"search,optional"`
	Mode           string   `hcl:"mode,optional"`
	Value          string   `hcl:"value,optional"`
	Norm           string   `hcl:"norm,optional"`
	PowerIteration bool     `hcl:"power_iteration,optional"`
	Spread         float64  `hcl:"spread,optional"`
	Function       string   `hcl:"function,optional"`
	Damping        string   `hcl:"damping,optional"`
	Node           int      `hcl:"node,optional"`
	Cell           int      `hcl:"cell,optional"`
	DOF            string   `hcl:"dof,optional"`
	Expected       *float64 `hcl:"expected,optional"`
	Real           float64  `hcl:"real,optional"`
	Imag           float64  `hcl:"imag,optional"`
	Frequency      float64  `hcl:"frequency,optional"`
	Tolerance      float64  `hcl:"tolerance,optional"`
	Instant        *float64 `hcl:"instant,optional"`
	Number         int      `hcl:"number,optional"`
	Cycles         float64  `hcl:"cycles,optional"`
	EigenValue     float64  `hcl:"eigen_value,optional"`
	GenMass        float64  `hcl:"generalized_mass,optional"`
	GenStiffness   float64  `hcl:"generalized_stiffness,optional"`
	Rest           hcl.Body `hcl:",remain"`
}

func (b *builder) objective(s *entitySpec, rng *hcl.Range) model.Entity {
	var spec objectiveSpec
	if !b.decode(s.Body, &spec) {
		return nil
	}
	var sel selectionSpec
	if !b.decode(spec.Rest, &sel) {
		return nil
	}
	tolerance := spec.Tolerance
	if tolerance == 0 {
		tolerance = 0.01
	}
	expected := func() float64 {
		if spec.Expected == nil {
			b.errorf(rng, "Missing value", "assertion %q needs an expected value", s.Name)
			return 0
		}
		return *spec.Expected
	}
	dof := func() model.DOF {
		d, err := model.ParseDOF(spec.DOF)
		if err != nil {
			b.errorf(rng, "Invalid DOF", "%v", err)
		}
		return d
	}
	switch s.Type {
	case "nonlinear_strategy":
		if spec.Increments <= 0 {
			b.errorf(rng, "Invalid strategy", "strategy %q needs a positive increment count", s.Name)
			return nil
		}
		return &model.NonLinearStrategy{Increments: spec.Increments}
	case "frequency_search":
		norm := model.NormMass
		if spec.Norm != "" {
			norm = model.ModeNorm(spec.Norm)
		}
		search := model.SearchBand
		if spec.Search != "" {
			search = model.SearchType(spec.Search)
		}
		return &model.FrequencySearch{Type: search, ValueID: b.ref(model.KindValue, spec.Value, rng),
			Norm: norm, PowerIteration: spec.PowerIteration}
	case "frequency_excitation":
		mode := model.FrequencyList
		if spec.Mode != "" {
			mode = model.ExcitationFrequencyType(spec.Mode)
		}
		return &model.FrequencyExcitation{Type: mode, ValueID: b.ref(model.KindValue, spec.Value, rng), Spread: spec.Spread}
	case "modal_damping":
		typ := model.DampingCritical
		if spec.Damping != "" {
			typ = model.DampingType(spec.Damping)
		}
		return &model.ModalDamping{FunctionID: b.ref(model.KindValue, spec.Function, rng), Type: typ}
	case "displacement_assertion":
		return &model.NodalDisplacementAssertion{Node: b.node(spec.Node, rng), DOF: dof(),
			Value: expected(), Tolerance: tolerance, Instant: spec.Instant}
	case "complex_displacement_assertion":
		return &model.NodalComplexDisplacementAssertion{Node: b.node(spec.Node, rng), DOF: dof(),
			Value: complex(spec.Real, spec.Imag), Frequency: spec.Frequency, Tolerance: tolerance}
	case "von_mises_assertion":
		cell, ok := b.m.Mesh.CellPosition(spec.Cell)
		if !ok {
			b.errorf(rng, "Unknown cell", "no cell with id %d", spec.Cell)
		}
		return &model.NodalCellVonMisesAssertion{Node: b.node(spec.Node, rng), Cell: cell,
			Value: expected(), Tolerance: tolerance, Instant: spec.Instant}
	case "frequency_assertion":
		return &model.FrequencyAssertion{Number: spec.Number, Cycles: spec.Cycles, EigenValue: spec.EigenValue,
			GeneralizedMass: spec.GenMass, GeneralizedStiffness: spec.GenStiffness, Tolerance: tolerance}
	case "displacement_output":
		return &model.NodalDisplacementOutput{Nodes: b.selection(sel, rng)}
	case "frequency_output":
		return &model.FrequencyOutput{ValueID: b.ref(model.KindValue, spec.Value, rng)}
	case "von_mises_output":
		return &model.VonMisesStressOutput{Cells: b.selection(sel, rng)}
	}
	return b.unsupported(s, rng, "objective")
}
