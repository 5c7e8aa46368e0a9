package emit

import (
	"fmt"
	"strings"

	"astergen/internal/concept"
	"astergen/pkg/model"
)

// qualityCheckMaxNodes bounds the meshes checked automatically in debug mode.
const qualityCheckMaxNodes = 100

func (w *writer) readMesh() {
	w.p("MAIL=LIRE_MAILLAGE(FORMAT='ASTER',UNITE=%d,", w.opts.MeshUnit)
	check, set := w.m.Parameter(model.ParamElementQualityCheck)
	switch {
	case set && strings.EqualFold(strings.TrimSpace(check), "NO"):
	case set:
		w.s("VERI_MAIL=_F(VERIF='OUI',),")
	case w.opts.Debug && w.mesh.NodeCount() < qualityCheckMaxNodes:
		w.s("VERI_MAIL=_F(VERIF='OUI',),")
	default:
		w.s("VERI_MAIL=_F(VERIF='NON',),")
	}
	if w.opts.Debug {
		w.s("INFO=2,")
	}
	w.s(");\n\n")
	w.orientSkins()
}

// orientSkins reorients the faces of contact and sliding surfaces so their
// normals are consistent.
func (w *writer) orientSkins() {
	var zones []*model.ZoneContact
	var slides []*model.SurfaceSlide
	for _, c := range w.m.Constraints() {
		switch v := c.(type) {
		case *model.ZoneContact:
			zones = append(zones, v)
		case *model.SurfaceSlide:
			slides = append(slides, v)
		}
	}
	if len(zones) > 0 {
		w.s("MAIL=MODI_MAILLAGE(reuse=MAIL,MAILLAGE=MAIL,\n")
		if w.planar(zones[0].Master) {
			w.s("         ORIE_PEAU_2D=(\n")
		} else {
			w.s("         ORIE_PEAU_3D=(\n")
		}
		for _, z := range zones {
			w.p("                             _F(%s),\n", EncodeCells(w.mesh, model.OnCellGroups(z.Master)))
			w.p("                             _F(%s),\n", EncodeCells(w.mesh, model.OnCellGroups(z.Slave)))
		}
		w.s("                             ),\n                   )\n\n")
	}
	if len(slides) > 0 {
		w.s("MAIL=MODI_MAILLAGE(reuse=MAIL,MAILLAGE=MAIL,\n         ORIE_PEAU_3D=(\n")
		for _, s := range slides {
			w.p("                             _F(GROUP_MA=('%s', '%s'),),\n", s.Master, s.Slave)
		}
		w.s("                             ),\n                   )\n\n")
	}
}

// planar reports whether the first node of a cell group carries all six
// degrees of freedom, which marks a shell surface.
func (w *writer) planar(group string) bool {
	g, ok := w.mesh.CellGroup(group)
	if !ok || g.Empty() {
		return false
	}
	cell := w.mesh.Cell(g.Members[0])
	if cell == nil || len(cell.Nodes) == 0 {
		return false
	}
	return w.mesh.Node(cell.Nodes[0]).DOFs.ContainsAll(model.AllDOFs)
}

func (w *writer) assignModel() {
	w.s("MODMECA=AFFE_MODELE(MAILLAGE=MAIL,\n                    AFFE=(\n")
	for _, es := range w.m.ElementSets() {
		if !es.Common().Effective() {
			w.p("#Skipping element set %d because no assignment\n", es.Common().ID)
			w.audit.Omit(es.Ref(), "no cell assigned")
			continue
		}
		mod, ok := modelisations(es, w.largeDisplacements)
		if !ok {
			w.fail(unsupported(es, "element set %T", es))
			return
		}
		w.p("                          _F(%s\n", EncodeCells(w.mesh, es.Common().Cells))
		w.s("                             PHENOMENE='MECANIQUE',\n")
		w.p("                             MODELISATION=%s),\n", mod)
		w.audit.MarkWritten(es)
	}
	w.s("                          ),\n                    );\n\n")
}

func (w *writer) values() {
	for _, v := range w.m.Values() {
		id := v.Common().ID
		switch val := v.(type) {
		case *model.ListValue:
			w.realList(id, val.Values, model.OriginalIDOf(v))
		case *model.SetValue:
			if val.All || len(val.Values) == 0 {
				continue
			}
			w.realList(id, val.Values, model.OriginalIDOf(v))
		case *model.StepRange:
			if val.End == nil {
				w.omit(val, "no end value")
				continue
			}
			w.p("%s=DEFI_LIST_REEL(\n", w.name(concept.List(id)))
			w.stepRange(val.Start, *val.End, val.Count)
			w.s("\n")
		case *model.FunctionTable:
			w.function(val)
		case *model.BandRange:
			// consumed by frequency searches
		default:
			w.fail(unsupported(v, "value %T", v))
			return
		}
		w.audit.MarkWritten(v)
	}
}

func (w *writer) realList(id int, vs []float64, original int) {
	w.p("%s=DEFI_LIST_REEL(\n", w.name(concept.List(id)))
	w.s("                        VALE = (")
	for _, v := range vs {
		w.s(num(v) + ",")
	}
	w.s("),\n                        );")
	if original != 0 {
		w.p("# Original id %d", original)
	}
	w.s("\n\n")
}

// stepRange writes the body of a DEFI_LIST_REEL subdividing [start,end].
func (w *writer) stepRange(start, end float64, count int) {
	w.p("                        DEBUT = %s,\n", num(start))
	w.p("                        INTERVALLE = _F(JUSQU_A = %s,\n", num(end))
	w.p("                                        NOMBRE = %d\n", count)
	w.s("                                        ),\n                        );\n")
}

func (w *writer) function(f *model.FunctionTable) {
	w.p("%s=DEFI_FONCTION(\n", w.name(concept.Function(f.ID)))
	if f.ParamX != "" {
		w.p("                       NOM_PARA='%s',\n", f.ParamX)
	}
	if f.ParamY != "" {
		w.p("                       NOM_RESU='%s',\n", f.ParamY)
	}
	w.s("                       VALE = (\n")
	for _, pt := range f.Points {
		w.p("                               %s, %s,\n", num(pt.X), num(pt.Y))
	}
	w.s("                               ),\n")
	w.s("                       INTERPOL = ('LIN','LIN'),\n")
	w.p("                       PROL_GAUCHE='%s',\n", extrapolation(f.Left))
	w.p("                       PROL_DROITE='%s',\n", extrapolation(f.Right))
	w.s("                       );")
	if o := f.OriginalID; o != 0 {
		w.p("# Original id:%d", o)
	}
	w.s("\n\n")
}

func extrapolation(e model.Extrapolation) model.Extrapolation {
	if e == "" {
		return model.ExtrapolateConstant
	}
	return e
}

// frequencyBand returns the cutoff frequencies; the upper one defaults to a
// bound no mode reaches.
func (w *writer) frequencyBand() (low, high float64) {
	low, _ = w.m.ParameterFloat(model.ParamLowerCutoffFrequency)
	high, ok := w.m.ParameterFloat(model.ParamUpperCutoffFrequency)
	if !ok {
		high = 1e30
	}
	return low, high
}

func (w *writer) value(id int) model.Value {
	v, err := w.m.Value(id)
	if err != nil {
		w.fail(fmt.Errorf("value %d: %w", id, err))
		return nil
	}
	return v
}
