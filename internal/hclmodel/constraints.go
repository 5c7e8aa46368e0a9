package hclmodel

import (
	"github.com/hashicorp/hcl/v2"

	"astergen/pkg/model"
)

type spcSpec struct {
	DOFs      []string           `hcl:"dofs"`
	Values    map[string]float64 `hcl:"values,optional"`
	Functions map[string]string  `hcl:"functions,optional"`
	Rest      hcl.Body           `hcl:",remain"`
}

type rigidSpec struct {
	Master int   `hcl:"master"`
	Slaves []int `hcl:"slaves"`
}

type quasiRigidSpec struct {
	Nodes []int    `hcl:"nodes"`
	DOFs  []string `hcl:"dofs,optional"`
}

type rbe3SlaveSpec struct {
	Node int      `hcl:"node"`
	DOFs []string `hcl:"dofs"`
	Coef float64  `hcl:"coef,optional"`
}

type rbe3Spec struct {
	Master     int              `hcl:"master"`
	MasterDOFs []string         `hcl:"master_dofs"`
	Slaves     []*rbe3SlaveSpec `hcl:"slave,block"`
}

type lmpcTermSpec struct {
	Node  int                `hcl:"node"`
	Coefs map[string]float64 `hcl:"coefs"`
}

type lmpcSpec struct {
	Terms   []*lmpcTermSpec `hcl:"term,block"`
	Imposed float64         `hcl:"imposed,optional"`
}

type gapParticipationSpec struct {
	Node      int       `hcl:"node"`
	Direction []float64 `hcl:"direction"`
}

type gapSpec struct {
	InitialOpening float64                 `hcl:"initial_opening,optional"`
	Participations []*gapParticipationSpec `hcl:"participation,block"`
}

type surfacesSpec struct {
	Master   string  `hcl:"master"`
	Slave    string  `hcl:"slave"`
	Friction float64 `hcl:"friction,optional"`
}

func (b *builder) constraint(s *entitySpec, rng *hcl.Range) model.Entity {
	switch s.Type {
	case "spc":
		var spec spcSpec
		if !b.decode(s.Body, &spec) {
			return nil
		}
		var sel selectionSpec
		if !b.decode(spec.Rest, &sel) {
			return nil
		}
		c := &model.SinglePointConstraint{Nodes: b.selection(sel, rng), DOFs: b.dofs(spec.DOFs, rng)}
		values, set := b.perDOF(spec.Values, rng)
		if !c.DOFs.ContainsAll(set) {
			b.errorf(rng, "Invalid value", "constraint %q has values on DOFs it does not block", s.Name)
		}
		c.Values = values
		for name, fn := range spec.Functions {
			d, err := model.ParseDOF(name)
			if err != nil {
				b.errorf(rng, "Invalid DOF", "%v", err)
				continue
			}
			if !c.DOFs.Contains(d) {
				b.errorf(rng, "Invalid function", "constraint %q has a function on unblocked DOF %s", s.Name, d)
			}
			c.Functions[d] = b.ref(model.KindValue, fn, rng)
		}
		return c
	case "rigid":
		var spec rigidSpec
		if !b.decode(s.Body, &spec) {
			return nil
		}
		return &model.RigidConstraint{Master: b.node(spec.Master, rng), Slaves: b.nodes(spec.Slaves, rng)}
	case "quasi_rigid":
		var spec quasiRigidSpec
		if !b.decode(s.Body, &spec) {
			return nil
		}
		dofs := model.AllDOFs
		if len(spec.DOFs) > 0 {
			dofs = b.dofs(spec.DOFs, rng)
		}
		return &model.QuasiRigidConstraint{Nodes: b.nodes(spec.Nodes, rng), DOFs: dofs}
	case "rbe3":
		var spec rbe3Spec
		if !b.decode(s.Body, &spec) {
			return nil
		}
		c := &model.RBE3{Master: b.node(spec.Master, rng), MasterDOFs: b.dofs(spec.MasterDOFs, rng)}
		for _, sl := range spec.Slaves {
			coef := sl.Coef
			if coef == 0 {
				coef = 1
			}
			c.Slaves = append(c.Slaves, model.RBE3Slave{Node: b.node(sl.Node, rng), DOFs: b.dofs(sl.DOFs, rng), Coef: coef})
		}
		return c
	case "lmpc":
		var spec lmpcSpec
		if !b.decode(s.Body, &spec) {
			return nil
		}
		c := &model.LinearMultiPointConstraint{Imposed: spec.Imposed}
		for _, t := range spec.Terms {
			coefs, _ := b.perDOF(t.Coefs, rng)
			c.Terms = append(c.Terms, model.LMPCTerm{Node: b.node(t.Node, rng), Coefs: coefs})
		}
		return c
	case "gap":
		var spec gapSpec
		if !b.decode(s.Body, &spec) {
			return nil
		}
		c := &model.Gap{InitialOpening: spec.InitialOpening}
		for _, p := range spec.Participations {
			c.Participations = append(c.Participations, model.GapParticipation{
				Node: b.node(p.Node, rng), Direction: b.vector(p.Direction, rng),
			})
		}
		return c
	case "slide_contact", "surface_contact", "zone_contact", "surface_slide":
		var spec surfacesSpec
		if !b.decode(s.Body, &spec) {
			return nil
		}
		for _, g := range []string{spec.Master, spec.Slave} {
			if _, ok := b.m.Mesh.CellGroup(g); !ok {
				b.errorf(rng, "Unknown cell group", "constraint %q refers to missing cell group %q", s.Name, g)
			}
		}
		switch s.Type {
		case "slide_contact":
			return &model.SlideContact{Master: spec.Master, Slave: spec.Slave, Friction: spec.Friction}
		case "surface_contact":
			return &model.SurfaceContact{Master: spec.Master, Slave: spec.Slave}
		case "zone_contact":
			return &model.ZoneContact{Master: spec.Master, Slave: spec.Slave}
		default:
			return &model.SurfaceSlide{Master: spec.Master, Slave: spec.Slave}
		}
	}
	return b.unsupported(s, rng, "constraint")
}
