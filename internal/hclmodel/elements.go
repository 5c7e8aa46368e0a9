package hclmodel

import (
	"github.com/hashicorp/hcl/v2"

	"astergen/pkg/model"
)

func (b *builder) material(s *materialSpec) {
	mat := &model.Material{}
	if e := s.Elastic; e != nil {
		mat.Natures = append(mat.Natures, &model.ElasticNature{E: e.E, Nu: e.Nu, Rho: e.Rho, GE: e.GE})
	}
	if h := s.HyperElastic; h != nil {
		mat.Natures = append(mat.Natures, &model.HyperElasticNature{C10: h.C10, C01: h.C01, C20: h.C20, Rho: h.Rho, K: h.K})
	}
	if o := s.Orthotropic; o != nil {
		mat.Natures = append(mat.Natures, &model.OrthotropicNature{
			EL: o.EL, ET: o.ET, GLT: o.GLT, GTN: o.GTN, GLN: o.GLN, NuLT: o.NuLT, Rho: o.Rho,
			XC: o.XC, XT: o.XT, YC: o.YC, YT: o.YT, SLT: o.SLT,
		})
	}
	if l := s.Bilinear; l != nil {
		mat.Natures = append(mat.Natures, &model.BilinearElasticNature{SecondarySlope: l.SecondarySlope, ElasticLimit: l.ElasticLimit})
	}
	if len(mat.Natures) == 0 {
		b.errorf(nil, "Empty material", "material %q has no nature block", s.Name)
		return
	}
	b.store(mat, model.KindMaterial, s.Name, s.OriginalID)
}

type beamSpec struct {
	Theory    string   `hcl:"theory,optional"`
	Width     float64  `hcl:"width,optional"`
	Height    float64  `hcl:"height,optional"`
	Radius    float64  `hcl:"radius,optional"`
	Thickness float64  `hcl:"thickness,optional"`
	Area      float64  `hcl:"area,optional"`
	Iy        float64  `hcl:"iy,optional"`
	Iz        float64  `hcl:"iz,optional"`
	J         float64  `hcl:"j,optional"`
	ShearY    float64  `hcl:"shear_y,optional"`
	ShearZ    float64  `hcl:"shear_z,optional"`
	Offset    *float64 `hcl:"offset,optional"`
	Rest      hcl.Body `hcl:",remain"`
}

type layerSpec struct {
	Material    string  `hcl:"material"`
	Thickness   float64 `hcl:"thickness"`
	Orientation float64 `hcl:"orientation,optional"`
}

type compositeSpec struct {
	Layers  []*layerSpec `hcl:"layer,block"`
	Offset  *float64     `hcl:"offset,optional"`
	Failure string       `hcl:"failure,optional"`
	Rest    hcl.Body     `hcl:",remain"`
}

type discreteSpec struct {
	Stiffness []float64 `hcl:"stiffness,optional"`
	Damping   []float64 `hcl:"damping,optional"`
	Mass      []float64 `hcl:"mass,optional"`
	Symmetric bool      `hcl:"symmetric,optional"`
	Rotations bool      `hcl:"rotations,optional"`
	Diagonal  bool      `hcl:"diagonal,optional"`
	Rest      hcl.Body  `hcl:",remain"`
}

type massSpec struct {
	Mass float64  `hcl:"mass"`
	Ixx  float64  `hcl:"ixx,optional"`
	Iyy  float64  `hcl:"iyy,optional"`
	Izz  float64  `hcl:"izz,optional"`
	Ixy  float64  `hcl:"ixy,optional"`
	Iyz  float64  `hcl:"iyz,optional"`
	Ixz  float64  `hcl:"ixz,optional"`
	Ex   float64  `hcl:"ex,optional"`
	Ey   float64  `hcl:"ey,optional"`
	Ez   float64  `hcl:"ez,optional"`
	Rest hcl.Body `hcl:",remain"`
}

func (b *builder) elementBase(body hcl.Body, rng *hcl.Range) (model.ElementSetBase, bool) {
	var c elementCommon
	if !b.decode(body, &c) {
		return model.ElementSetBase{}, false
	}
	return model.ElementSetBase{
		Cells:       model.Container{All: c.All, Cells: b.cells(c.Cells, rng), CellGroups: c.CellGroups},
		MaterialIDs: b.refs(model.KindMaterial, c.Materials, rng),
	}, true
}

func (b *builder) elementSet(s *entitySpec, rng *hcl.Range) model.Entity {
	switch s.Type {
	case "rectangular_beam", "circular_beam", "tube_beam", "generic_beam", "truss", "shell":
		var spec beamSpec
		if !b.decode(s.Body, &spec) {
			return nil
		}
		base, ok := b.elementBase(spec.Rest, rng)
		if !ok {
			return nil
		}
		theory := model.BeamTheory(spec.Theory)
		if theory == "" {
			theory = model.Timoshenko
		}
		switch s.Type {
		case "rectangular_beam":
			return &model.RectangularBeam{ElementSetBase: base, Theory: theory, Width: spec.Width, Height: spec.Height}
		case "circular_beam":
			return &model.CircularBeam{ElementSetBase: base, Theory: theory, Radius: spec.Radius}
		case "tube_beam":
			return &model.TubeBeam{ElementSetBase: base, Theory: theory, Radius: spec.Radius, Thickness: spec.Thickness}
		case "generic_beam":
			return &model.GenericBeam{ElementSetBase: base, Theory: theory, Area: spec.Area, Iy: spec.Iy, Iz: spec.Iz,
				J: spec.J, ShearY: spec.ShearY, ShearZ: spec.ShearZ}
		case "truss":
			return &model.Truss{ElementSetBase: base, Area: spec.Area}
		default:
			return &model.Shell{ElementSetBase: base, Thickness: spec.Thickness, Offset: spec.Offset}
		}
	case "composite":
		var spec compositeSpec
		if !b.decode(s.Body, &spec) {
			return nil
		}
		base, ok := b.elementBase(spec.Rest, rng)
		if !ok {
			return nil
		}
		c := &model.Composite{ElementSetBase: base, Offset: spec.Offset, Failure: model.PlyFailure(spec.Failure)}
		for _, l := range spec.Layers {
			id := b.ref(model.KindMaterial, l.Material, rng)
			c.Layers = append(c.Layers, model.Layer{MaterialID: id, Thickness: l.Thickness, Orientation: l.Orientation})
			c.MaterialIDs = appendUnique(c.MaterialIDs, id)
		}
		return c
	case "discrete_point", "discrete_segment":
		var spec discreteSpec
		if !b.decode(s.Body, &spec) {
			return nil
		}
		base, ok := b.elementBase(spec.Rest, rng)
		if !ok {
			return nil
		}
		coefs := model.DiscreteCoefficients{Stiffness: spec.Stiffness, Damping: spec.Damping, Mass: spec.Mass, Symmetric: spec.Symmetric}
		if s.Type == "discrete_point" {
			return &model.DiscretePoint{ElementSetBase: base, DiscreteCoefficients: coefs, Rotations: spec.Rotations}
		}
		return &model.DiscreteSegment{ElementSetBase: base, DiscreteCoefficients: coefs, Rotations: spec.Rotations, Diagonal: spec.Diagonal}
	case "nodal_mass":
		var spec massSpec
		if !b.decode(s.Body, &spec) {
			return nil
		}
		base, ok := b.elementBase(spec.Rest, rng)
		if !ok {
			return nil
		}
		return &model.NodalMass{ElementSetBase: base, Mass: spec.Mass,
			Ixx: spec.Ixx, Iyy: spec.Iyy, Izz: spec.Izz, Ixy: spec.Ixy, Iyz: spec.Iyz, Ixz: spec.Ixz,
			Ex: spec.Ex, Ey: spec.Ey, Ez: spec.Ez}
	case "continuum", "skin":
		base, ok := b.elementBase(s.Body, rng)
		if !ok {
			return nil
		}
		if s.Type == "skin" {
			return &model.Skin{ElementSetBase: base}
		}
		return &model.Continuum{ElementSetBase: base}
	}
	return b.unsupported(s, rng, "element set")
}

func appendUnique(ids []int, id int) []int {
	if id == 0 {
		return ids
	}
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}
