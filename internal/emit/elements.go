package emit

import (
	"math"

	"astergen/pkg/model"
)

const keywordIndent = "                    "

// characteristics writes the element characteristics of every element set.
func (w *writer) characteristics() {
	if !w.hasElements {
		return
	}
	var (
		discretes []model.ElementSet
		beams     []model.ElementSet
		trusses   []*model.Truss
		shells    []model.ElementSet
		solids    []model.ElementSet
	)
	for _, es := range w.m.ElementSets() {
		switch v := es.(type) {
		case *model.DiscretePoint, *model.DiscreteSegment, *model.NodalMass:
			discretes = append(discretes, es)
		case *model.RectangularBeam, *model.CircularBeam, *model.TubeBeam, *model.GenericBeam:
			beams = append(beams, es)
		case *model.Truss:
			trusses = append(trusses, v)
		case *model.Shell:
			shells = append(shells, es)
		case *model.Composite:
			shells = append(shells, es)
			w.calcSigm = true
		case *model.Continuum, *model.Skin:
			solids = append(solids, es)
		default:
			w.fail(unsupported(es, "element set %T", es))
			return
		}
	}

	w.s("CAEL=AFFE_CARA_ELEM(MODELE=MODMECA,\n")
	w.p("%s# writing %d discrets\n", keywordIndent, len(discretes))
	if len(discretes) > 0 {
		w.discretes(discretes)
	}
	w.p("%s# writing %d poutres\n", keywordIndent, len(beams))
	w.p("%s# writing %d barres\n", keywordIndent, len(trusses))
	if len(beams) > 0 || (w.largeDisplacements && len(trusses) > 0) {
		w.s(keywordIndent + "POUTRE=(\n")
		for _, es := range beams {
			w.beam(es)
		}
		if w.largeDisplacements {
			for _, t := range trusses {
				w.beam(t)
			}
		}
		w.s("                            ),\n")
	}
	if len(trusses) > 0 && !w.largeDisplacements {
		w.s(keywordIndent + "BARRE=(\n")
		for _, t := range trusses {
			if !w.effective(t) {
				continue
			}
			w.p("                            _F(%s\n", EncodeCells(w.mesh, t.Cells))
			w.s("                               SECTION='GENERALE',\n")
			w.p("                               CARA=('A',),\n                               VALE=(%s,),\n", num(t.Area))
			w.s("                               ),\n")
			w.audit.MarkWritten(t)
		}
		w.s("                            ),\n")
	}
	if len(shells) > 0 {
		w.p("%s# writing %d shells (ou composites)\n", keywordIndent, len(shells))
		w.s(keywordIndent + "COQUE=(\n")
		for _, es := range shells {
			w.shell(es)
		}
		w.s("                            ),\n")
	}
	if len(solids) > 0 {
		w.p("%s# writing %d solids/skins\n", keywordIndent, len(solids))
		w.s(keywordIndent + "MASSIF=(\n")
		for _, es := range solids {
			if !w.effective(es) {
				continue
			}
			w.p("                            _F(%s\n", EncodeCells(w.mesh, es.Common().Cells))
			w.s("                               ANGL_REP=(0.,0.,0.,),),\n")
			w.audit.MarkWritten(es)
		}
		w.s("                            ),\n")
	}
	if len(solids) < len(w.m.ElementSets()) {
		w.orientations()
	}
	w.s(keywordIndent + ");\n\n")
}

func (w *writer) effective(es model.ElementSet) bool {
	base := es.Common()
	return base.Effective() && !w.mesh.IsEmpty(base.Cells)
}

func (w *writer) discretes(sets []model.ElementSet) {
	w.s(keywordIndent + "DISCRET=(\n")
	for _, es := range sets {
		if !w.effective(es) {
			w.p("# WARN Finite Element : %s ignored because its GROUP_MA is empty.\n", es.Ref())
			w.audit.Omit(es.Ref(), "no cell assigned")
			continue
		}
		cells := EncodeCells(w.mesh, es.Common().Cells)
		switch v := es.(type) {
		case *model.DiscretePoint:
			w.discreteMatrices(cells, v.DiscreteCoefficients, translationsOrAll(v.Rotations)+"_N")
		case *model.DiscreteSegment:
			suffix := "_L"
			if v.Diagonal {
				suffix = "_D_L"
			}
			w.discreteMatrices(cells, v.DiscreteCoefficients, translationsOrAll(v.Rotations)+suffix)
		case *model.NodalMass:
			w.p("                             _F(%s\n", cells)
			if v.HasRotations() {
				w.p("                                CARA='M_TR_D_N',VALE=(%s),),\n",
					nums(v.Mass, v.Ixx, v.Iyy, v.Izz, v.Ixy, v.Iyz, v.Ixz, v.Ex, v.Ey, v.Ez))
			} else {
				w.p("                                CARA='M_T_D_N',VALE=(%s),),\n", num(v.Mass))
			}
		}
		w.audit.MarkWritten(es)
	}
	w.s("                             ),\n")
}

func translationsOrAll(rotations bool) string {
	if rotations {
		return "TR"
	}
	return "T"
}

// discreteMatrices writes the stiffness matrix and, when present, the
// damping and mass matrices of one discrete set.
func (w *writer) discreteMatrices(cells string, c model.DiscreteCoefficients, suffix string) {
	matrices := []struct {
		prefix string
		vals   []float64
	}{{"K_", c.Stiffness}, {"A_", c.Damping}, {"M_", c.Mass}}
	for i, mx := range matrices {
		if i > 0 && len(mx.vals) == 0 {
			continue
		}
		w.p("                             _F(%s\n", cells)
		w.s("                                ")
		if !c.Symmetric {
			w.s("SYME='NON',")
		}
		w.p("CARA='%s%s', VALE=(", mx.prefix, suffix)
		for _, v := range mx.vals {
			w.s(num(v) + ",")
		}
		w.s("),),\n")
	}
}

// minSectionArea keeps generic sections strictly positive.
const minSectionArea = 1e-12

func (w *writer) beam(es model.ElementSet) {
	if !w.effective(es) {
		return
	}
	w.p("                            _F(%s\n", EncodeCells(w.mesh, es.Common().Cells))
	w.s("                               VARI_SECT='CONSTANT',\n")
	switch v := es.(type) {
	case *model.RectangularBeam:
		w.s("                               SECTION='RECTANGLE',\n")
		w.s("                               CARA=('HY','HZ',),\n")
		w.p("                               VALE=(%s),\n", nums(v.Height, v.Width))
	case *model.CircularBeam:
		w.s("                               SECTION='CERCLE',\n")
		w.s("                               CARA=('R',),\n")
		w.p("                               VALE=(%s,),\n", num(v.Radius))
	case *model.TubeBeam:
		w.s("                               SECTION='CERCLE',\n")
		w.s("                               CARA=('R','EP',),\n")
		w.p("                               VALE=(%s),\n", nums(v.Radius, v.Thickness))
	case *model.GenericBeam:
		w.s("                               SECTION='GENERALE',\n")
		w.s("                               CARA=('A','IY','IZ','JX','AY','AZ',),\n")
		w.p("                               VALE=(%s),\n",
			nums(math.Max(minSectionArea, v.Area), v.Iy, v.Iz, v.J, v.ShearY, v.ShearZ))
	case *model.Truss:
		// a large displacement truss is a beam with negligible bending
		inertia := v.Area * v.Area / 12
		w.s("                               SECTION='GENERALE',\n")
		w.s("                               CARA=('A','IY','IZ','JX',),\n")
		w.p("                               VALE=(%s),\n",
			nums(math.Max(minSectionArea, v.Area), inertia, inertia, 2*inertia))
	}
	w.s("                               ),\n")
	w.audit.MarkWritten(es)
}

func (w *writer) shell(es model.ElementSet) {
	if !w.effective(es) {
		return
	}
	w.p("                            _F(%s\n", EncodeCells(w.mesh, es.Common().Cells))
	switch v := es.(type) {
	case *model.Shell:
		w.p("                               EPAIS=%s,\n", num(v.Thickness))
		w.offset(v.Offset)
		w.s("                               VECTEUR=(0.9,0.1,0.2)),\n")
	case *model.Composite:
		w.p("                               EPAIS=%s,\n", num(v.TotalThickness()))
		w.offset(v.Offset)
		w.p("                               COQUE_NCOU=%d,\n", len(v.Layers))
		w.s("                               VECTEUR=(0,0,1)),\n")
	}
	w.audit.MarkWritten(es)
}

func (w *writer) offset(o *float64) {
	if o == nil {
		return
	}
	w.p("                               EXCENTREMENT=%s,\n", num(*o))
	w.s("                               INER_ROTA='OUI',\n")
}

// orientations writes the local Y axis of every oriented cell group.
func (w *writer) orientations() {
	var groups []*model.Group
	for _, g := range w.mesh.CellGroups() {
		if g.Orientation != nil && !g.Empty() {
			groups = append(groups, g)
		}
	}
	if len(groups) == 0 {
		return
	}
	w.s(keywordIndent + "ORIENTATION=(\n")
	for _, g := range groups {
		w.p("                                 _F(CARA ='VECT_Y',VALE=(%s),GROUP_MA='%s'),\n", vec(*g.Orientation), g.Name)
	}
	w.s("                                 ),\n")
}
