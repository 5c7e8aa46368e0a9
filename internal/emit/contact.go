package emit

import (
	"astergen/internal/concept"
	"astergen/pkg/model"
)

// contactSets writes one DEFI_CONTACT per constraint set holding contacts.
// Gap, sliding and surface contacts cannot share a definition: the first
// kind found in the set selects the formulation.
func (w *writer) contactSets() {
	for _, cs := range w.m.ConstraintSets() {
		var gaps []*model.Gap
		var slides []*model.SlideContact
		var surfaces []*model.SurfaceContact
		var zones []*model.ZoneContact
		for _, c := range w.m.ConstraintsOf(cs) {
			if !c.Common().Effective() {
				continue
			}
			switch v := c.(type) {
			case *model.Gap:
				gaps = append(gaps, v)
			case *model.SlideContact:
				slides = append(slides, v)
			case *model.SurfaceContact:
				surfaces = append(surfaces, v)
			case *model.ZoneContact:
				zones = append(zones, v)
			}
		}
		if len(gaps)+len(slides)+len(surfaces)+len(zones) == 0 {
			continue
		}
		coefs := w.gapConstants(cs, gaps)
		if o := cs.OriginalID; o != 0 {
			w.p("# ConstraintSet original id:%d\n", o)
		}
		name := w.name(concept.Contact(cs.ID))
		w.contacts[cs.ID] = name
		w.p("%s=DEFI_CONTACT(MODELE=MODMECA,\n", name)
		switch {
		case len(gaps) > 0:
			w.s("                   FORMULATION='LIAISON_UNIL',\n")
		case len(slides) > 0:
			w.s("                   FORMULATION='CONTINUE',\n")
			w.s("                   FROTTEMENT='COULOMB',\n")
		case len(surfaces) > 0:
			w.s("                   FORMULATION='CONTINUE',\n")
		}
		w.s("                   ZONE=(\n")
		for i, g := range gaps {
			for j, p := range g.Participations {
				var mult, cmp string
				for k, c := range p.Direction.Components() {
					if c == 0 {
						continue
					}
					mult += coefs[i][j][k] + ","
					cmp += "'" + component(model.DOF(k)) + "',"
				}
				w.p("                             _F(NOEUD='%s',COEF_IMPO=%s,COEF_MULT=(%s),NOM_CMP=(%s),),\n",
					w.mesh.NodeName(p.Node), coefs[i][j][3], mult, cmp)
			}
			w.audit.MarkWritten(g)
		}
		for _, s := range slides {
			w.p("                             _F(GROUP_MA_MAIT='%s',GROUP_MA_ESCL='%s',COULOMB=%s,),\n",
				s.Master, s.Slave, num(s.Friction))
			w.audit.MarkWritten(s)
		}
		for _, s := range surfaces {
			w.p("                             _F(GROUP_MA_MAIT='%s',GROUP_MA_ESCL='%s',),\n", s.Master, s.Slave)
			w.audit.MarkWritten(s)
		}
		for _, z := range zones {
			w.p("                             _F(GROUP_MA_MAIT=('%s',),GROUP_MA_ESCL=('%s',),),\n", z.Master, z.Slave)
			w.audit.MarkWritten(z)
		}
		w.s("                             ),\n                   );\n\n")
	}
}

// gapConstants defines the opening and direction cosines of every gap
// participation. The result is indexed by gap, participation, then axis;
// index 3 holds the opening.
func (w *writer) gapConstants(cs *model.ConstraintSet, gaps []*model.Gap) [][][4]string {
	out := make([][][4]string, len(gaps))
	n := 0
	for i, g := range gaps {
		out[i] = make([][4]string, len(g.Participations))
		for j, p := range g.Participations {
			n++
			opening := w.name(concept.Gap(cs.ID, n))
			w.p("%s=DEFI_CONSTANTE(VALE=%s)\n", opening, num(g.InitialOpening))
			out[i][j][3] = opening
			for k, c := range p.Direction.Components() {
				if c == 0 {
					continue
				}
				name := w.name(concept.GapDirection(cs.ID, [...]string{"X", "Y", "Z"}[k], n))
				w.p("%s=DEFI_CONSTANTE(VALE=%s)\n", name, num(c))
				out[i][j][k] = name
			}
		}
	}
	if n > 0 {
		w.s("\n")
	}
	return out
}
