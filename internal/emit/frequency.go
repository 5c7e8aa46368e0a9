package emit

import (
	"fmt"

	"astergen/internal/concept"
	"astergen/internal/resolver"
	"astergen/pkg/model"
)

// excitation pairs a dynamic excitation with its assembled load vector.
type excitation struct {
	load   *model.DynamicExcitation
	vector string
}

// dynamicLoads returns the dynamic excitations of the DLOAD sets of a.
func (w *writer) dynamicLoads(a model.Analysis) []*model.DynamicExcitation {
	var out []*model.DynamicExcitation
	for _, ls := range w.m.LoadSetsOf(a) {
		if ls.Type != model.LoadSetDLoad {
			continue
		}
		for _, l := range w.m.LoadingsOf(ls) {
			if d, ok := l.(*model.DynamicExcitation); ok && d.Effective() {
				out = append(out, d)
			}
		}
		w.audit.MarkWritten(ls)
	}
	return out
}

// loadVectors assembles the load vector of every dynamic excitation.
func (w *writer) loadVectors(a model.Analysis, numbering string) []excitation {
	id := a.Common().ID
	var out []excitation
	for _, d := range w.dynamicLoads(a) {
		elem := w.name(concept.ExcitationElem(id, d.ID))
		vector := w.name(concept.Excitation(id, d.ID))
		w.p("%s = CALC_VECT_ELEM(OPTION = 'CHAR_MECA',\n", elem)
		if w.hasMaterials {
			w.s("                       CHAM_MATER=CHMAT,\n")
		}
		if w.hasElements {
			w.s("                       CARA_ELEM=CAEL,\n")
		}
		w.s("                       CHARGE=(")
		for _, n := range w.loads[d.LoadSetID] {
			w.s(" " + n + ",")
		}
		w.s(" ),\n                       )\n\n")
		w.p("%s = ASSE_VECTEUR(VECT_ELEM = %s, NUME_DDL=%s)\n\n", vector, elem, numbering)
		w.release(elem, vector)
		w.audit.MarkWritten(d)
		out = append(out, excitation{load: d, vector: vector})
	}
	return out
}

func (w *writer) frequencyExcitation(a model.Analysis, id int) *model.FrequencyExcitation {
	fe, err := model.Get[*model.FrequencyExcitation](w.m, model.KindObjective, id)
	if err != nil {
		w.fail(fmt.Errorf("%s: %w", a.Ref(), err))
		return nil
	}
	w.audit.MarkWritten(fe)
	return fe
}

func (w *writer) directFrequency(s *resolver.Step) {
	a, ok := cast[*model.DirectFrequency](w, s.Analysis)
	if !ok {
		return
	}
	fe := w.frequencyExcitation(a, a.ExcitationID)
	if fe == nil {
		return
	}
	if fe.Type != model.FrequencyList && fe.Type != "" {
		w.fail(unsupported(fe, "%s excitation frequencies on a direct response", fe.Type))
		return
	}
	mx := w.assemble(a, false, false)
	damping := mx.damping
	g, okG := w.m.ParameterFloat(model.ParamStructuralDamping)
	omega, okW := w.m.ParameterFloat(model.ParamFrequencyOfInterest)
	if okG && okW && omega > 0 {
		damping = w.ix("AMST", a)
		w.p("%s = COMB_MATR_ASSE(COMB_R = _F ( MATR_ASSE = %s, COEF_R = %s))\n\n", damping, mx.stiffness, num(g/omega))
		w.release(damping)
	}
	vectors := w.loadVectors(a, mx.numbering)
	w.p("%s = DYNA_VIBRA(TYPE_CALCUL='HARM', BASE_CALCUL='PHYS',\n", w.result(a))
	w.p("                 MATR_MASS = %s,\n", mx.mass)
	w.p("                 MATR_RIGI = %s,\n", mx.stiffness)
	w.p("                 MATR_AMOR = %s,\n", damping)
	w.p("                 LIST_FREQ = %s,\n", concept.List(fe.ValueID))
	w.harmonicExcit("VECT_ASSE", vectors, func(e excitation) string { return e.vector })
	w.s("                 #SOLVEUR=_F(METHODE='MUMPS',),\n")
	w.s("                 );\n\n")
}

func (w *writer) harmonicExcit(keyword string, vectors []excitation, name func(excitation) string) {
	w.s("                 EXCIT = (\n")
	for _, e := range vectors {
		w.p("                          _F(%s = %s, FONC_MULT = %s, PHAS_DEG = %s,),\n",
			keyword, name(e), concept.Function(e.load.FunctionID), num(e.load.PhaseDeg))
	}
	w.s("                          ),\n")
}

var vectorTypes = map[model.ExcitationType]string{
	model.ExciteLoad:         "FORC",
	"":                       "FORC",
	model.ExciteDisplacement: "DEPL",
	model.ExciteVelocity:     "VITE",
	model.ExciteAcceleration: "ACCE",
}

func (w *writer) modalFrequency(s *resolver.Step) {
	a, ok := cast[*model.ModalFrequency](w, s.Analysis)
	if !ok {
		return
	}
	id := a.ID
	own := w.name(concept.Modes(id))
	basis, origin := w.modalBasis(s, own)
	if w.err != nil {
		return
	}
	if s.Reuse == nil && !s.Reusable {
		w.release(own)
	}
	mx := matricesOf(origin.Common().ID)
	fe := w.frequencyExcitation(a, a.ExcitationID)
	if fe == nil {
		return
	}

	modes := w.name(concept.ProjectionBasis(id))
	if a.ResidualVector {
		static := w.ix("MOSTA", a)
		w.p("%s=MODE_STATIQUE(MATR_RIGI=%s,\n", static, mx.stiffness)
		w.p("                    MATR_MASS=%s,\n", mx.mass)
		w.s("                    FORCE_NODALE=(")
		for _, d := range w.dynamicLoads(a) {
			w.residualForces(d)
		}
		w.s("),\n                    );\n\n")
		ritz := w.ix("RESVE", a)
		w.p("%s=DEFI_BASE_MODALE(RITZ =(_F(MODE_MECA=%s,), _F(MODE_INTF=%s,),),\n", ritz, basis, static)
		w.p("                   NUME_REF=%s,\n", mx.numbering)
		w.p("                   MATRICE=%s,\n", mx.stiffness)
		w.s("                   ORTHO='OUI',\n                   );\n\n")
		w.p("%s=%s\n\n", modes, ritz)
		w.release(static, ritz)
	} else {
		w.p("%s=%s\n\n", modes, basis)
	}

	vectors := w.loadVectors(a, mx.numbering)
	numbering, massG, stiffG, dampG := w.ix("NDDLG", a), w.ix("MASSG", a), w.ix("RIGIG", a), w.ix("AMORG", a)
	generalized := make(map[*model.DynamicExcitation]string, len(vectors))
	w.s("PROJ_BASE(BASE=" + modes + ",\n")
	w.p("          NUME_DDL_GENE=CO('%s'),\n", numbering)
	w.s("          MATR_ASSE_GENE=(\n")
	w.p("                          _F(MATRICE=CO('%s'), MATR_ASSE=%s,),\n", massG, mx.mass)
	w.p("                          _F(MATRICE=CO('%s'), MATR_ASSE=%s,),\n", stiffG, mx.stiffness)
	if a.DampingID == 0 {
		w.p("                          _F(MATRICE=CO('%s'), MATR_ASSE=%s,),\n", dampG, mx.damping)
	}
	w.s("                          ),\n")
	w.s("          VECT_ASSE_GENE=(\n")
	for _, e := range vectors {
		vg := w.name(fmt.Sprintf("VG%d_%d", id, e.load.ID))
		generalized[e.load] = vg
		w.p("                          _F(VECTEUR=CO('%s'), VECT_ASSE=%s, TYPE_VECT='%s',),\n", vg, e.vector, vectorTypes[e.load.Type])
		w.release(vg)
	}
	w.s("                          ),\n          );\n\n")
	w.release(numbering, massG, stiffG)
	if a.DampingID == 0 {
		w.release(dampG)
	}

	var modalDamping string
	if a.DampingID != 0 {
		modalDamping = w.modalDamping(a)
		if w.err != nil {
			return
		}
	}
	list := w.excitationFrequencies(a, fe)
	if w.err != nil {
		return
	}

	gene := w.ix("GENE", a)
	w.p("%s = DYNA_VIBRA(TYPE_CALCUL='HARM', BASE_CALCUL='GENE',\n", gene)
	w.p("                 MATR_MASS = %s,\n", massG)
	w.p("                 MATR_RIGI = %s,\n", stiffG)
	if modalDamping != "" {
		w.p("                 AMOR_MODAL=_F(AMOR_REDUIT = %s,),\n", modalDamping)
	} else {
		w.p("                 MATR_AMOR = %s,\n", dampG)
	}
	w.p("                 LIST_FREQ = %s,\n", list)
	w.harmonicExcit("VECT_ASSE_GENE", vectors, func(e excitation) string { return generalized[e.load] })
	w.s("                 );\n\n")
	w.release(gene)

	w.p("%s = REST_GENE_PHYS(RESU_GENE = %s,\n", w.result(a), gene)
	if out := w.frequencyOutput(a); out != nil && out.ValueID != 0 {
		w.p("                      LIST_FREQ = %s,\n", concept.List(out.ValueID))
	} else {
		w.s("                      TOUT_ORDRE = 'OUI',\n")
	}
	w.s("                      NOM_CHAM = ('DEPL',),\n                      );\n\n")
}

// residualForces lists the loaded nodes of the load set excited by d.
func (w *writer) residualForces(d *model.DynamicExcitation) {
	ls, err := w.m.LoadSet(d.LoadSetID)
	if err != nil {
		w.fail(err)
		return
	}
	for _, l := range w.m.LoadingsOf(ls) {
		f, ok := l.(*model.NodalForce)
		if !ok || !f.Effective() {
			continue
		}
		var cmps string
		force, moment := f.Force.Components(), f.Moment.Components()
		for i, c := range append(force[:], moment[:]...) {
			if c != 0 {
				cmps += "'" + component(model.DOF(i)) + "',"
			}
		}
		for _, pos := range w.mesh.NodesOf(f.Nodes) {
			w.p("_F(NOEUD='%s', AVEC_CMP=(%s)),", w.mesh.NodeName(pos), cmps)
		}
	}
}

// modalDamping writes the reduced damping of every extracted mode and
// returns the python list holding it.
func (w *writer) modalDamping(a *model.ModalFrequency) string {
	md, err := model.Get[*model.ModalDamping](w.m, model.KindObjective, a.DampingID)
	if err != nil {
		w.fail(fmt.Errorf("%s: %w", a.Ref(), err))
		return ""
	}
	w.audit.MarkWritten(md)
	id := a.ID
	interp, scaled, table := w.ix("AMMOI", a), w.ix("AMMOS", a), w.ix("AMMOT", a)
	w.p("%s=CALC_FONC_INTERP(FONCTION = %s, VALE_PARA = pfreq%d);\n\n", interp, concept.Function(md.FunctionID), id)
	switch md.Type {
	case model.DampingCritical, "":
		w.p("%s = %s\n\n", scaled, interp)
	case model.DampingG:
		// structural damping g is twice the critical ratio
		w.p("%s = CALC_FONCTION(COMB=_F(COEF=0.5, FONCTION=%s))\n\n", scaled, interp)
		w.release(scaled)
	default:
		w.fail(unsupported(md, "modal damping type %q", md.Type))
		return ""
	}
	w.p("%s=CREA_TABLE(FONCTION=_F(FONCTION = %s),);\n\n", table, scaled)
	damping := w.ix("AMMO", a)
	w.p("%s=%s.EXTR_TABLE().values()['TOUTRESU']\n\n", damping, table)
	w.release(interp, table)
	return damping
}

// excitationFrequencies returns the frequency list of a harmonic response,
// refining it around the eigen frequencies when requested.
func (w *writer) excitationFrequencies(a *model.ModalFrequency, fe *model.FrequencyExcitation) string {
	switch fe.Type {
	case model.FrequencyList, "":
		return concept.List(fe.ValueID)
	case model.FrequencySpread:
		band, ok := w.value(fe.ValueID).(*model.BandRange)
		if !ok || band.Start == nil || band.End == nil || band.MaxSearch <= 0 {
			w.fail(unsupported(fe, "spread over value %d", fe.ValueID))
			return ""
		}
		name := w.name(concept.Spread(fe.ValueID))
		w.p("%s=DEFI_LIST_FREQ(DEBUT=%s,\n", name, num(*band.Start))
		w.p("                   INTERVALLE=_F(JUSQU_A=%s, NOMBRE=%d),\n", num(*band.End), band.MaxSearch)
		w.p("                   RAFFINEMENT=_F(LIST_RAFFINE=pfreq%d, CRITERE='RELATIF', DISPERSION=%s),\n", a.ID, num(fe.Spread))
		w.s("                   );\n\n")
		w.release(name)
		return name
	case model.FrequencyInterpolate:
		band, ok := w.value(fe.ValueID).(*model.BandRange)
		if !ok || band.MaxSearch <= 0 {
			w.fail(unsupported(fe, "interpolation over value %d", fe.ValueID))
			return ""
		}
		name := w.name(concept.Interpolated(fe.ValueID))
		w.s("import numpy as np\n")
		w.p("efreq%d = np.concatenate([np.linspace(f1, f2, %d, endpoint=False) for f1, f2 in zip(pfreq%d[:-1], pfreq%d[1:])] + [pfreq%d[-1:]])\n",
			a.ID, band.MaxSearch, a.ID, a.ID, a.ID)
		w.p("%s = DEFI_LIST_REEL(VALE=efreq%d)\n\n", name, a.ID)
		w.release(name)
		return name
	}
	w.fail(unsupported(fe, "excitation frequencies %q", fe.Type))
	return ""
}

func (w *writer) frequencyOutput(a model.Analysis) *model.FrequencyOutput {
	for _, o := range w.m.ObjectivesOf(a) {
		if f, ok := o.(*model.FrequencyOutput); ok {
			w.audit.MarkWritten(f)
			return f
		}
	}
	return nil
}
