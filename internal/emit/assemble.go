package emit

import (
	"astergen/internal/concept"
	"astergen/pkg/model"
)

// matrices names the assembled operators of one analysis.
type matrices struct {
	numbering string
	stiffness string
	mass      string
	damping   string
	geometric string
}

func matricesOf(id int) matrices {
	return matrices{
		numbering: concept.Indexed("NDDL", id),
		stiffness: concept.Indexed("RIGI", id),
		mass:      concept.Indexed("MASS", id),
		damping:   concept.Indexed("AMOR", id),
		geometric: concept.Indexed("RIGE", id),
	}
}

// assemble writes the numbering and the assembled stiffness of analysis a,
// then either its geometric stiffness (buckling) or its mass and damping.
// Everything is released with the analysis unless keep is set.
func (w *writer) assemble(a model.Analysis, buckling, keep bool) matrices {
	id := a.Common().ID
	mx := matricesOf(id)
	var charges []string
	for _, cs := range w.m.ConstraintSetsOf(a) {
		charges = append(charges, w.constraintLoads[cs.ID]...)
	}
	w.p("%s=NUME_DDL(MODELE=MODMECA,\n", w.name(mx.numbering))
	w.s("           CHARGE=(\n")
	for _, c := range charges {
		w.p("                   %s,\n", c)
	}
	w.s("                   ),\n)\n\n")

	common := func() {
		w.common("                      ")
		w.s("                      CHARGE=(")
		for _, c := range charges {
			w.s(c + ",")
		}
		w.s("),\n")
	}
	stiffElem := w.ix("RIEL", a)
	w.p("%s=CALC_MATR_ELEM(OPTION='RIGI_MECA',\n", stiffElem)
	common()
	w.s("                      )\n\n")
	w.p("%s=ASSE_MATRICE(MATR_ELEM=%s,NUME_DDL=%s)\n\n", w.name(mx.stiffness), stiffElem, mx.numbering)
	created := []string{mx.numbering, stiffElem, mx.stiffness}

	if buckling {
		geomElem := w.ix("RGEL", a)
		w.p("%s=CALC_MATR_ELEM(OPTION='RIGI_GEOM',\n", geomElem)
		w.common("                      ")
		w.p("                      SIEF_ELGA=%s,\n                      )\n\n", w.ix("FSIG", a))
		w.p("%s=ASSE_MATRICE(MATR_ELEM=%s,NUME_DDL=%s)\n\n", w.name(mx.geometric), geomElem, mx.numbering)
		created = append(created, geomElem, mx.geometric)
	} else {
		massElem := w.ix("MAEL", a)
		w.p("%s=CALC_MATR_ELEM(OPTION='MASS_MECA',\n", massElem)
		common()
		w.s("                      )\n\n")
		w.p("%s=ASSE_MATRICE(MATR_ELEM=%s,NUME_DDL=%s)\n\n", w.name(mx.mass), massElem, mx.numbering)
		dampElem := w.ix("AMEL", a)
		w.p("%s=CALC_MATR_ELEM(OPTION='AMOR_MECA',\n", dampElem)
		common()
		w.p("                      RIGI_MECA=%s,\n", stiffElem)
		w.p("                      MASS_MECA=%s,\n", massElem)
		w.s("                      )\n\n")
		w.p("%s=ASSE_MATRICE(MATR_ELEM=%s,\n", w.name(mx.damping), dampElem)
		w.p("                   NUME_DDL=%s)\n\n", mx.numbering)
		created = append(created, massElem, mx.mass, dampElem, mx.damping)
	}
	if !keep {
		w.release(created...)
	}
	return mx
}
