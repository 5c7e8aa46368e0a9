package emit

import (
	"strings"

	"astergen/internal/concept"
	"astergen/pkg/model"
)

const (
	natureIndent = "                 "
	fieldIndent  = "                         "
)

func (w *writer) materials() {
	alpha, okAlpha := w.rayleigh(model.ParamGlobalRayleighStiffness)
	beta, okBeta := w.rayleigh(model.ParamGlobalRayleighMass)
	if w.err != nil {
		return
	}
	for _, mat := range w.m.Materials() {
		if o := mat.OriginalID; o != 0 {
			w.p("# Material original id %d\n", o)
		}
		w.p("%s=DEFI_MATERIAU(\n", w.name(concept.Material(mat.ID)))
		for _, n := range mat.Natures {
			switch v := n.(type) {
			case *model.ElasticNature:
				w.nature("ELAS")
				w.field("E", v.E)
				w.field("NU", v.Nu)
				w.field("RHO", v.Rho)
				w.optField("AMOR_HYST", v.GE)
				if okAlpha && alpha != 0 {
					w.field("AMOR_ALPHA", alpha)
				}
				if okBeta && beta != 0 {
					w.field("AMOR_BETA", beta)
				}
			case *model.HyperElasticNature:
				w.nature("ELAS_HYPER")
				w.field("C10", v.C10)
				w.field("C01", v.C01)
				w.field("C20", v.C20)
				w.field("RHO", v.Rho)
				w.field("K", v.K)
			case *model.OrthotropicNature:
				w.nature("ELAS_ORTH")
				w.field("E_L", v.EL)
				w.field("E_T", v.ET)
				w.field("G_LT", v.GLT)
				w.optField("G_TN", v.GTN)
				w.optField("G_LN", v.GLN)
				w.field("NU_LT", v.NuLT)
				w.field("RHO", v.Rho)
				w.optField("XC", v.XC)
				w.optField("XT", v.XT)
				w.optField("YC", v.YC)
				w.optField("YT", v.YT)
				w.optField("S_LT", v.SLT)
				w.optField("ALPHA_L", v.AlphaL)
				w.optField("ALPHA_T", v.AlphaT)
				w.optField("ALPHA_N", v.AlphaN)
				w.optField("TEMP_DEF_ALPHA", v.TempDefAlpha)
			case *model.BilinearElasticNature:
				w.nature("ECRO_LINE")
				w.field("D_SIGM_EPSI", v.SecondarySlope)
				w.field("SY", v.ElasticLimit)
			default:
				w.fail(unsupported(mat, "material nature %T", n))
				return
			}
			w.s(fieldIndent + "),\n")
		}
		w.s(natureIndent + ");\n\n")
		w.audit.MarkWritten(mat)
	}
	w.composites()
	w.materialField()
}

// rayleigh reads a global damping factor. Complex factors cannot be
// expressed on the material.
func (w *writer) rayleigh(p model.Parameter) (float64, bool) {
	raw, set := w.m.Parameter(p)
	if !set {
		return 0, false
	}
	v, ok := w.m.ParameterFloat(p)
	if !ok {
		w.fail(&UnsupportedError{What: "non real " + strings.ToLower(string(p)) + " " + raw})
	}
	return v, ok
}

func (w *writer) nature(keyword string) { w.p("%s%s=_F(\n", natureIndent, keyword) }

func (w *writer) field(keyword string, v float64) {
	w.p("%s%s=%s,\n", fieldIndent, keyword, num(v))
}

func (w *writer) optField(keyword string, v *float64) {
	if v != nil {
		w.field(keyword, *v)
	}
}

func (w *writer) compositeSets() []*model.Composite {
	var out []*model.Composite
	for _, es := range w.m.ElementSets() {
		if c, ok := es.(*model.Composite); ok {
			out = append(out, c)
		}
	}
	return out
}

func (w *writer) composites() {
	comps := w.compositeSets()
	if len(comps) == 0 {
		return
	}
	w.p("# writing %d composites\n", len(comps))
	for _, c := range comps {
		w.p("%s=DEFI_COMPOSITE(\n", w.name(concept.Composite(c.ID)))
		w.s("                 COUCHE=(\n")
		for _, l := range c.Layers {
			w.p("                     _F(EPAIS=%s,  MATER=%s, ORIENTATION=%s),\n",
				num(l.Thickness), concept.Material(l.MaterialID), num(l.Orientation))
		}
		w.s("                         ),\n                 );\n\n")
	}
}

func (w *writer) materialField() {
	if !w.hasMaterials {
		return
	}
	w.s("CHMAT=AFFE_MATERIAU(MAILLAGE=MAIL,\n                    AFFE=(\n")
	for _, es := range w.m.ElementSets() {
		base := es.Common()
		if !base.Effective() || w.mesh.IsEmpty(base.Cells) {
			continue
		}
		cells := EncodeCells(w.mesh, base.Cells)
		if c, ok := es.(*model.Composite); ok {
			w.p("                          _F(MATER=%s,%s),\n", concept.Composite(c.ID), cells)
			continue
		}
		for _, id := range base.MaterialIDs {
			w.p("                          _F(MATER=%s,%s),\n", concept.Material(id), cells)
		}
	}
	w.s("                          ),\n                    );\n\n")
}
