package emit

import (
	"fmt"

	"astergen/internal/concept"
	"astergen/internal/resolver"
	"astergen/pkg/model"
)

// protocol writes the solver calls of one analysis kind.
type protocol func(w *writer, s *resolver.Step)

var protocols = map[model.AnalysisKind]protocol{
	model.KindLinearStatic:    (*writer).linearStatic,
	model.KindNonLinearStatic: (*writer).nonLinearStatic,
	model.KindLinearModal:     (*writer).linearModal,
	model.KindLinearBuckling:  (*writer).linearBuckling,
	model.KindDirectFrequency: (*writer).directFrequency,
	model.KindModalFrequency:  (*writer).modalFrequency,
	model.KindCombination:     (*writer).combination,
}

func (w *writer) analysis(s *resolver.Step) {
	a := s.Analysis
	write, ok := protocols[a.Kind()]
	if !ok {
		w.fail(unsupported(a, "analysis %T", a))
		return
	}
	if o := model.OriginalIDOf(a); o != 0 {
		w.p("# Analysis original id : %d\n", o)
	}
	write(w, s)
	if w.err != nil {
		return
	}
	w.audit.MarkWritten(a)
	w.postProcess(s)
	w.assertions(s)
	w.results(s)
	if _, ok := w.borrowed[a.Common().ID]; !ok && !s.Live {
		w.release(w.result(a))
	}
	if _, err := w.tracker.Flush(&w.buf); err != nil {
		w.fail(err)
	}
}

// result names the main result of an analysis.
func (w *writer) result(a model.Analysis) string {
	if b, ok := w.borrowed[a.Common().ID]; ok {
		return b
	}
	return w.name(concept.Result(a.Common().ID))
}

// ix names a concept indexed by analysis id.
func (w *writer) ix(prefix string, a model.Analysis) string {
	return w.name(concept.Indexed(prefix, a.Common().ID))
}

// cast asserts the concrete type expected by a protocol.
func cast[T model.Analysis](w *writer, a model.Analysis) (T, bool) {
	v, ok := a.(T)
	if !ok {
		w.fail(unsupported(a, "analysis %T for %s", a, a.Kind()))
	}
	return v, ok
}

func (w *writer) excit(names []string, extra string) {
	w.s("                    EXCIT=(\n")
	for _, n := range names {
		w.p("                           _F(CHARGE=%s%s),\n", n, extra)
	}
	w.s("                           ),\n")
}

// linearExcitations drops the contact definitions a linear solve ignores.
func (w *writer) linearExcitations(a model.Analysis) []string {
	for _, cs := range w.m.ConstraintSetsOf(a) {
		if _, ok := w.contacts[cs.ID]; ok {
			w.warn(a, "contact of constraint set %d ignored by linear analysis", cs.ID)
		}
	}
	return w.excitations(a)
}

func (w *writer) linearStatic(s *resolver.Step) {
	a, ok := cast[*model.LinearStatic](w, s.Analysis)
	if !ok {
		return
	}
	w.p("%s=MECA_STATIQUE(MODELE=MODMECA,\n", w.result(a))
	if w.hasMaterials {
		w.s("                    CHAM_MATER=CHMAT,\n")
	}
	if w.hasElements {
		w.s("                    CARA_ELEM=CAEL,\n")
	}
	w.excit(w.linearExcitations(a), "")
	w.s("                    SOLVEUR=_F(RENUM='PORD',METHODE='MUMPS',RESI_RELA=1E-4),\n")
	w.s("                    OPTION='SIEF_ELGA',\n")
	w.s("                    );\n\n")
}

func (w *writer) nonLinearStatic(s *resolver.Step) {
	a, ok := cast[*model.NonLinearStatic](w, s.Analysis)
	if !ok {
		return
	}
	if s.Interval == nil {
		w.fail(unsupported(a, "nonlinear analysis without pseudo-time interval"))
		return
	}
	iv := *s.Interval
	list := w.ix("LINST", a)
	auto := w.ix("LAUTO", a)
	ramp := w.ix("RAMP", a)
	w.p("%s=DEFI_LIST_REEL(\n", list)
	w.stepRange(iv.Start, iv.End, iv.Increments)
	w.s("\n")
	w.p("%s=DEFI_LIST_INST(METHODE='AUTO', DEFI_LIST=_F(LIST_INST=%s,),);\n\n", auto, list)
	w.p("%s=DEFI_FONCTION(NOM_PARA='INST', PROL_DROITE='LINEAIRE', VALE=(%s,));\n\n",
		ramp, nums(iv.Start, 0, iv.End, 1))

	var previous model.Analysis
	var iramp string
	if a.PreviousID != 0 {
		prev, err := w.m.Analysis(a.PreviousID)
		if err != nil {
			w.fail(err)
			return
		}
		previous = prev
		iramp = w.ix("IRAMP", a)
		w.p("%s=DEFI_FONCTION(NOM_PARA='INST', PROL_DROITE='CONSTANT', VALE=(%s,));\n\n",
			iramp, nums(iv.Start, 1, iv.End, 0))
	}

	w.p("%s=STAT_NON_LINE(MODELE=MODMECA,\n", w.result(a))
	if w.hasMaterials {
		w.s("                    CHAM_MATER=CHMAT,\n")
	}
	if w.hasElements {
		w.s("                    CARA_ELEM=CAEL,\n")
	}
	w.s("                    EXCIT=(\n")
	if previous != nil {
		for _, ls := range w.m.LoadSetsOf(previous) {
			for _, n := range w.loads[ls.ID] {
				w.p("                           _F(CHARGE=%s,FONC_MULT=%s,),\n", n, iramp)
			}
		}
	}
	for _, ls := range w.m.LoadSetsOf(a) {
		for _, n := range w.loads[ls.ID] {
			w.p("                           _F(CHARGE=%s,FONC_MULT=%s,),", n, ramp)
			if o := ls.OriginalID; o != 0 {
				w.p("# Original id:%d", o)
			}
			w.s("\n")
		}
	}
	var contacts []string
	for _, cs := range w.m.ConstraintSetsOf(a) {
		for _, n := range w.constraintLoads[cs.ID] {
			w.p("                           _F(CHARGE=%s),\n", n)
		}
		if c, ok := w.contacts[cs.ID]; ok {
			contacts = append(contacts, c)
		}
	}
	w.s("                           ),\n")
	if len(contacts) > 0 {
		w.p("                    CONTACT=%s,\n", contacts[0])
		if len(contacts) > 1 {
			w.warn(a, "only contact %s is solved, %d more ignored", contacts[0], len(contacts)-1)
		}
	}
	w.behaviours()
	w.p("                    INCREMENT=_F(LIST_INST=%s,),\n", auto)
	w.p("                    ARCHIVAGE=_F(LIST_INST=%s,),\n", list)
	w.s("                    NEWTON=_F(REAC_ITER=1,),\n")
	if previous != nil {
		w.p("                    ETAT_INIT=_F(EVOL_NOLI =%s),\n", concept.Result(previous.Common().ID))
	}
	w.s("                    SOLVEUR=_F(RENUM='PORD',METHODE='MUMPS'),\n")
	w.s("                    );\n\n")
}

// behaviours writes the constitutive relation of each material assignment.
func (w *writer) behaviours() {
	w.s("                    COMPORTEMENT=(\n")
	for _, es := range w.m.ElementSets() {
		base := es.Common()
		if !base.Effective() {
			continue
		}
		cells := EncodeCells(w.mesh, base.Cells)
		for _, id := range base.MaterialIDs {
			mat, err := w.m.Material(id)
			if err != nil {
				w.fail(err)
				return
			}
			_, bilinear := model.FindNature[*model.BilinearElasticNature](mat)
			_, hyper := model.FindNature[*model.HyperElasticNature](mat)
			_, truss := es.(*model.Truss)
			switch {
			case bilinear:
				w.p("                                 _F(%sRELATION='VMIS_ISOT_LINE',),\n", cells)
			case hyper:
				w.p("                                 _F(%sRELATION='ELAS_HYPER',DEFORMATION='GROT_GDEP',),\n", cells)
			case w.largeDisplacements && (model.IsBeam(es) || truss):
				w.p("                                 _F(%sRELATION='ELAS_POUTRE_GR',DEFORMATION='GROT_GDEP',),\n", cells)
			default:
				w.p("                                 _F(%sRELATION='ELAS',),\n", cells)
			}
		}
	}
	w.s("                                 ),\n")
}

func (w *writer) combination(s *resolver.Step) {
	a, ok := cast[*model.Combination](w, s.Analysis)
	if !ok {
		return
	}
	id := a.ID
	fields := make([]string, len(a.Terms))
	for i, t := range a.Terms {
		fields[i] = w.name(fmt.Sprintf("D%d_%d", id, t.AnalysisID))
		w.p("%s=CREA_CHAMP(TYPE_CHAM='NOEU_DEPL_R',\n", fields[i])
		w.s("          OPERATION='EXTR',\n")
		w.p("          RESULTAT=%s,\n", concept.Result(t.AnalysisID))
		w.s("          NOM_CHAM='DEPL',\n")
		w.s("          NUME_ORDRE=1,);\n\n")
	}
	dep := w.ix("DEP", a)
	w.p("%s=CREA_CHAMP(TYPE_CHAM='NOEU_DEPL_R',\n", dep)
	w.s("          OPTION='DEPL',\n")
	w.s("          OPERATION='ASSE',\n")
	w.s("          MODELE=MODMECA,\n")
	w.s("          ASSE=(\n")
	for i, t := range a.Terms {
		w.p("               _F(TOUT='OUI', CHAM_GD=%s, CUMUL='OUI', COEF_R=%s,),\n", fields[i], num(t.Coef))
	}
	w.s("               ),\n          );\n\n")
	w.p("%s=CREA_RESU(OPERATION='AFFE',\n", w.result(a))
	w.s("          TYPE_RESU='MULT_ELAS',\n")
	w.s("          NOM_CHAM='DEPL',\n")
	w.p("          AFFE=_F(CHAM_GD=%s,\n", dep)
	w.s("                  MODELE=MODMECA,\n")
	if w.hasMaterials {
		w.s("                  CHAM_MATER=CHMAT,\n")
	}
	w.s("                  ),\n          );\n\n")
	w.release(fields...)
	w.release(dep)
}
