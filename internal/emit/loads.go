package emit

import (
	"math"
	"sort"
	"strings"

	"astergen/internal/concept"
	"astergen/pkg/model"
)

// splitConstraints separates the constraints of a set into the part written
// with constant values and the single point constraints bound to functions.
// Contact constraints belong to neither.
func (w *writer) splitConstraints(cs *model.ConstraintSet) (constant []model.Constraint, functions []*model.SinglePointConstraint, contacts int) {
	for _, c := range w.m.ConstraintsOf(cs) {
		if !c.Common().Effective() {
			w.omit(c, "no node constrained")
			continue
		}
		if model.IsContact(c) {
			contacts++
			continue
		}
		if spc, ok := c.(*model.SinglePointConstraint); ok && spc.HasFunctions() {
			functions = append(functions, spc)
			if !constantDOFs(spc).Empty() {
				constant = append(constant, c)
			}
			continue
		}
		constant = append(constant, c)
	}
	return constant, functions, contacts
}

func constantDOFs(spc *model.SinglePointConstraint) model.DOFS {
	var s model.DOFS
	for _, d := range spc.DOFs.List() {
		if spc.Functions[d] == 0 {
			s = s.Add(d)
		}
	}
	return s
}

func (w *writer) constraintSets() {
	for _, cs := range w.m.ConstraintSets() {
		constant, functions, _ := w.splitConstraints(cs)
		if len(constant) == 0 && len(functions) == 0 {
			w.audit.MarkWritten(cs)
			continue
		}
		if o := cs.OriginalID; o != 0 {
			w.p("# ConstraintSet original id:%d\n", o)
		}
		if len(constant) > 0 {
			name := w.name(concept.ConstraintLoad(cs.ID, false))
			w.constraintLoads[cs.ID] = append(w.constraintLoads[cs.ID], name)
			w.p("%s=AFFE_CHAR_MECA(MODELE=MODMECA,\n", name)
			w.constantConstraints(constant)
			w.s("                   );\n\n")
		}
		if len(functions) > 0 {
			name := w.name(concept.ConstraintLoad(cs.ID, true))
			w.constraintLoads[cs.ID] = append(w.constraintLoads[cs.ID], name)
			w.p("%s=AFFE_CHAR_MECA_F(MODELE=MODMECA,\n", name)
			w.s("                   DDL_IMPO=(\n")
			for _, spc := range functions {
				w.p("                             _F(%s", EncodeNodes(w.mesh, spc.Nodes))
				for _, d := range spc.DOFs.List() {
					if f := spc.Functions[d]; f != 0 {
						w.p("%s=%s, ", component(d), concept.Function(f))
					}
				}
				w.s("),\n")
			}
			w.s("                             ),\n                   );\n\n")
		}
		w.audit.MarkWritten(cs)
	}
}

func (w *writer) constantConstraints(cs []model.Constraint) {
	var (
		spcs   []*model.SinglePointConstraint
		rigid  [][]int
		slides []*model.SurfaceSlide
		rbe3s  []*model.RBE3
		lmpcs  []*model.LinearMultiPointConstraint
	)
	for _, c := range cs {
		switch v := c.(type) {
		case *model.SinglePointConstraint:
			spcs = append(spcs, v)
		case *model.RigidConstraint:
			rigid = append(rigid, append([]int{v.Master}, v.Slaves...))
		case *model.QuasiRigidConstraint:
			if !v.CompletelyRigid() {
				w.warn(v, "quasi rigid constraint %d on %s only is written as a rigid body", v.ID, v.DOFs)
			}
			rigid = append(rigid, v.Nodes)
		case *model.SurfaceSlide:
			slides = append(slides, v)
		case *model.RBE3:
			rbe3s = append(rbe3s, v)
		case *model.LinearMultiPointConstraint:
			lmpcs = append(lmpcs, v)
		default:
			w.fail(unsupported(c, "constraint %T", c))
			return
		}
		w.audit.MarkWritten(c)
	}
	if len(spcs) > 0 {
		w.s("                   DDL_IMPO=(\n")
		for _, spc := range spcs {
			w.p("                             _F(%s", EncodeNodes(w.mesh, spc.Nodes))
			for _, d := range constantDOFs(spc).List() {
				w.p("%s=%s, ", component(d), num(spc.Values[d]))
			}
			w.s("),\n")
		}
		w.s("                             ),\n")
	}
	if len(rigid) > 0 {
		w.s("                   LIAISON_SOLIDE=(\n")
		for _, nodes := range rigid {
			w.s("                                   _F(NOEUD=(")
			for _, n := range nodes {
				w.p("'%s',", w.mesh.NodeName(n))
			}
			w.s("),\n                                      ),\n")
		}
		w.s("                                   ),\n")
	}
	if len(slides) > 0 {
		w.s("                   LIAISON_MAIL=(\n")
		for _, s := range slides {
			w.p("                                   _F(TYPE_RACCORD='MASSIF', DDL_MAIT='DNOR', DDL_ESCL='DNOR',GROUP_MA_MAIT='%s',GROUP_MA_ESCL='%s',),\n",
				s.Master, s.Slave)
		}
		w.s("                                   ),\n")
	}
	if len(rbe3s) > 0 {
		w.s("                   LIAISON_RBE3=(\n")
		for _, r := range rbe3s {
			w.rbe3(r)
		}
		w.s("                                   ),\n")
	}
	if len(lmpcs) > 0 {
		w.s("                   LIAISON_DDL=(\n")
		for _, l := range lmpcs {
			w.lmpc(l)
		}
		w.s("                               ),\n")
	}
}

func (w *writer) rbe3(r *model.RBE3) {
	var slaves, dofs, coefs strings.Builder
	for _, s := range r.Slaves {
		slaves.WriteString("'" + w.mesh.NodeName(s.Node) + "',")
		dofs.WriteString("'" + dashedComponents(s.DOFs) + "',")
		coefs.WriteString(num(s.Coef) + ",")
	}
	w.p("                                   _F(NOEUD_MAIT='%s',\n", w.mesh.NodeName(r.Master))
	w.p("                                      DDL_MAIT=(%s),\n", quotedComponents(r.MasterDOFs))
	w.p("                                      NOEUD_ESCL=(%s),\n", slaves.String())
	w.p("                                      DDL_ESCL=(%s),\n", dofs.String())
	w.p("                                      COEF_ESCL=(%s),\n", coefs.String())
	w.s("                                      ),\n")
}

func (w *writer) lmpc(l *model.LinearMultiPointConstraint) {
	var nodes, dofs, coefs strings.Builder
	for _, t := range l.Terms {
		for _, d := range t.DOFs().List() {
			nodes.WriteString("'" + w.mesh.NodeName(t.Node) + "', ")
			dofs.WriteString("'" + component(d) + "', ")
			coefs.WriteString(num(t.Coefs[d]) + ", ")
		}
	}
	w.p("                               _F(NOEUD=(%s),\n", nodes.String())
	w.p("                                  DDL=(%s),\n", dofs.String())
	w.p("                                  COEF_MULT=(%s),\n", coefs.String())
	w.p("                                  COEF_IMPO=%s),\n", num(l.Imposed))
}

func (w *writer) loadSets() {
	for _, ls := range w.m.LoadSets() {
		if ls.Type == model.LoadSetDLoad {
			continue
		}
		var constant, functions []model.Loading
		for _, l := range w.m.LoadingsOf(ls) {
			if !l.Common().Effective() {
				w.omit(l, "nothing loaded")
				continue
			}
			switch v := l.(type) {
			case *model.LineForce:
				if v.Edges {
					w.warn(v, "force_arete not implemented")
					continue
				}
				functions = append(functions, l)
			case *model.DynamicExcitation:
				w.fail(unsupported(l, "dynamic excitation in static load set %d", ls.ID))
				return
			default:
				constant = append(constant, l)
			}
		}
		if len(constant) == 0 && len(functions) == 0 {
			w.audit.MarkWritten(ls)
			continue
		}
		if o := ls.OriginalID; o != 0 {
			w.p("# LoadSet original id:%d\n", o)
		}
		if len(constant) > 0 {
			name := w.name(concept.Load(ls.ID, false))
			w.loads[ls.ID] = append(w.loads[ls.ID], name)
			w.p("%s=AFFE_CHAR_MECA(MODELE=MODMECA,\n", name)
			w.s("                 VERI_NORM='NON',\n")
			w.constantLoads(constant)
			w.s("                      );\n\n")
		}
		if len(functions) > 0 {
			name := w.name(concept.Load(ls.ID, true))
			w.loads[ls.ID] = append(w.loads[ls.ID], name)
			w.p("%s=AFFE_CHAR_MECA_F(MODELE=MODMECA,\n", name)
			w.s("                 FORCE_POUTRE=(\n")
			for _, l := range functions {
				lf := l.(*model.LineForce)
				w.s("                   _F(")
				for _, d := range lf.DOFs.List() {
					w.p("%s=%s,", forceComponents[d], concept.Function(lf.FunctionID))
				}
				w.p("%s          ),\n", EncodeCells(w.mesh, lf.Cells))
				w.audit.MarkWritten(l)
			}
			w.s("                      ),\n                      );\n\n")
		}
		w.audit.MarkWritten(ls)
	}
}

func (w *writer) constantLoads(ls []model.Loading) {
	for _, l := range ls {
		switch l.(type) {
		case *model.ImposedDisplacement, *model.Pressure, *model.ShellPressure, *model.NodalForce,
			*model.SurfaceForce, *model.Gravity, *model.Rotation:
		default:
			w.fail(unsupported(l, "loading %T", l))
			return
		}
	}
	group := func(keep func(model.Loading) bool) []model.Loading {
		var out []model.Loading
		for _, l := range ls {
			if keep(l) {
				out = append(out, l)
				w.audit.MarkWritten(l)
			}
		}
		return out
	}
	imposed := group(func(l model.Loading) bool { _, ok := l.(*model.ImposedDisplacement); return ok })
	pressures := group(func(l model.Loading) bool { _, ok := l.(*model.Pressure); return ok })
	shellPressures := group(func(l model.Loading) bool { _, ok := l.(*model.ShellPressure); return ok })
	nodal := group(func(l model.Loading) bool { _, ok := l.(*model.NodalForce); return ok })
	surface := group(func(l model.Loading) bool { _, ok := l.(*model.SurfaceForce); return ok })
	gravities := group(func(l model.Loading) bool { _, ok := l.(*model.Gravity); return ok })
	rotations := group(func(l model.Loading) bool { _, ok := l.(*model.Rotation); return ok })

	if len(imposed) > 0 {
		w.s("                 DDL_IMPO=(\n")
		for _, l := range imposed {
			v := l.(*model.ImposedDisplacement)
			w.p("                             _F(%s", EncodeNodes(w.mesh, v.Nodes))
			for _, d := range v.DOFs.List() {
				w.p("%s=%s, ", component(d), num(v.Values[d]))
			}
			w.s("),\n")
		}
		w.s("                             ),\n")
	}
	if len(pressures) > 0 {
		w.s("           PRES_REP=(\n")
		for _, l := range pressures {
			v := l.(*model.Pressure)
			w.p("                         _F(PRES= %s,%s                         ),\n", num(-v.Intensity), EncodeCells(w.mesh, v.Cells))
		}
		w.s("                      ),\n")
	}
	if len(shellPressures) > 0 {
		w.s("           FORCE_COQUE=(\n")
		for _, l := range shellPressures {
			v := l.(*model.ShellPressure)
			w.p("                         _F(PRES=%s,%s),\n", num(-v.Intensity), EncodeCells(w.mesh, v.Cells))
		}
		w.s("            ),\n")
	}
	if len(nodal) > 0 {
		w.nodalForces(nodal)
	}
	if len(surface) > 0 {
		w.s("           FORCE_FACE=(\n")
		for _, l := range surface {
			v := l.(*model.SurfaceForce)
			w.p("                         _F(%s", EncodeCells(w.mesh, v.Cells))
			for i, c := range v.Force.Components() {
				if c != 0 {
					w.p("%s=%s,", forceComponents[i], num(c))
				}
			}
			w.s("),\n")
		}
		w.s("                      ),\n")
	}
	for _, l := range gravities {
		v := l.(*model.Gravity)
		w.p("                 PESANTEUR=_F(GRAVITE=%s,\n", num(math.Abs(v.Acceleration)))
		w.p("                              DIRECTION=(%s),),\n", vec(v.Direction.Scale(sign(v.Acceleration))))
	}
	for _, l := range rotations {
		v := l.(*model.Rotation)
		w.p("                 ROTATION=_F(VITESSE=%s,\n", num(v.Speed))
		w.p("                             AXE=(%s),\n", vec(v.Axis))
		w.p("                             CENTRE=(%s),),\n", vec(v.Center))
	}
}

// nodalForces sums the forces and moments applied to each node.
func (w *writer) nodalForces(ls []model.Loading) {
	sums := make(map[int][6]float64)
	for _, l := range ls {
		v := l.(*model.NodalForce)
		for _, pos := range w.mesh.NodesOf(v.Nodes) {
			s := sums[pos]
			for i, c := range v.Force.Components() {
				s[i] += c
			}
			for i, c := range v.Moment.Components() {
				s[3+i] += c
			}
			sums[pos] = s
		}
	}
	positions := make([]int, 0, len(sums))
	for pos := range sums {
		positions = append(positions, pos)
	}
	sort.Ints(positions)
	w.s("           FORCE_NODALE=(\n")
	for _, pos := range positions {
		w.p("                                    _F(NOEUD='%s',", w.mesh.NodeName(pos))
		for i, c := range sums[pos] {
			if c != 0 {
				w.p("%s=%s,", forceComponents[i], num(c))
			}
		}
		w.s("),\n")
	}
	w.s("                                    ),\n")
}
