package emit

import (
	"strings"

	"astergen/internal/concept"
	"astergen/internal/resolver"
	"astergen/pkg/model"
)

// results prints the result of an analysis, exports it to the MED file and
// writes its displacement table.
func (w *writer) results(s *resolver.Step) {
	a := s.Analysis
	resu := w.result(a)
	_, harmonic := a.(*model.DirectFrequency)
	if _, ok := a.(*model.ModalFrequency); ok {
		harmonic = true
	}

	var printed string
	switch a.(type) {
	case *model.LinearStatic, *model.Combination, *model.NonLinearStatic:
		if v, ok := w.m.Parameter(model.ParamPrintMaxim); !ok || !strings.EqualFold(strings.TrimSpace(v), "NO") {
			printed = "_F(RESULTAT=" + resu + ", NOM_CHAM='DEPL', VALE_MAX='OUI', VALE_MIN='OUI',),"
		}
	case *model.LinearBuckling:
		printed = "_F(RESULTAT=" + resu + ", NOM_PARA='CHAR_CRIT', TOUT_CHAM='NON'),"
	case *model.DirectFrequency:
		printed = "_F(RESULTAT=" + resu + ", NOM_PARA='FREQ', TOUT_CHAM='NON'),"
	}
	if printed != "" {
		w.s("IMPR_RESU(FORMAT='RESULTAT',\n          RESU=(\n")
		w.p("                %s\n", printed)
		w.s("                ),\n          );\n\n")
	}

	w.s("IMPR_RESU(FORMAT='MED',UNITE=80,\n          RESU=(\n")
	switch a.(type) {
	case *model.LinearStatic, *model.Combination:
		fields := "'DEPL',"
		if w.calcSigm {
			fields += "'SIGM_ELNO',"
		}
		w.p("                _F(RESULTAT=%s, NOM_CHAM=(%s),),\n", resu, fields)
	case *model.DirectFrequency:
		w.p("                _F(RESULTAT=%s, NOM_CHAM='DEPL', PARTIE='REEL',),\n", resu)
	case *model.ModalFrequency:
		if s.Reuse == nil {
			w.p("                _F(RESULTAT=%s, NOM_CHAM = 'DEPL',),\n", concept.Modes(a.Common().ID))
		}
		w.p("                _F(RESULTAT=%s, NOM_CHAM='DEPL', PARTIE='REEL',),\n", resu)
	default:
		w.p("                _F(RESULTAT=%s, NOM_CHAM = 'DEPL',),\n", resu)
	}
	w.s("                ),\n          );\n\n")
	w.displacementTable(a, resu, harmonic)
}

// displacementTable extracts the requested nodal displacements, or every
// displacement when no output restricts them, to a CSV table.
func (w *writer) displacementTable(a model.Analysis, resu string, harmonic bool) {
	var outputs []*model.NodalDisplacementOutput
	for _, o := range w.m.ObjectivesOf(a) {
		if d, ok := o.(*model.NodalDisplacementOutput); ok {
			outputs = append(outputs, d)
		}
	}
	_, direct := a.(*model.DirectFrequency)
	if len(outputs) == 0 && direct {
		return
	}
	table := w.ix("RETB", a)
	if len(outputs) > 0 {
		order := "TOUT_ORDRE='OUI',"
		if f := w.frequencyOutput(a); f != nil && f.ValueID != 0 {
			order = "LIST_FREQ=" + concept.List(f.ValueID) + ","
		}
		w.p("%s=POST_RELEVE_T(ACTION=(\n", table)
		for _, o := range outputs {
			nodes := EncodeNodes(w.mesh, o.Nodes)
			w.p("                _F(INTITULE='DISP0R%d',FORMAT_C='REEL',OPERATION='EXTRACTION',RESULTAT=%s,\n", o.ID, resu)
			w.p("                   %s%sNOM_CHAM='DEPL',TOUT_CMP='OUI'),\n", nodes, order)
			if harmonic {
				w.p("                _F(INTITULE='DISP1I%d',FORMAT_C='IMAG',OPERATION='EXTRACTION',RESULTAT=%s,\n", o.ID, resu)
				w.p("                   %s%sNOM_CHAM='DEPL',TOUT_CMP='OUI'),\n", nodes, order)
			}
			w.audit.MarkWritten(o)
		}
		w.s("                ),)\n\n")
		w.p("%s=CALC_TABLE(TABLE=%s,reuse=%s,ACTION=(_F(OPERATION='TRI',NOM_PARA=('NUME_ORDRE')),),)\n\n", table, table, table)
	} else {
		source := resu
		if _, ok := a.(*model.ModalFrequency); ok {
			source = concept.Modes(a.Common().ID)
			if b, ok := w.basisOf(a); ok {
				source = b
			}
		}
		w.p("%s=CREA_TABLE(RESU=(_F(RESULTAT=%s,TOUT='OUI',NOM_CHAM='DEPL',TOUT_CMP='OUI'),),)\n\n", table, source)
	}
	unit := w.ix("unit", a)
	w.p("%s=DEFI_FICHIER(ACTION='ASSOCIER',\n             FICHIER='REPE_OUT/tbresu_%d.csv')\n\n", unit, a.Common().ID)
	w.p("IMPR_TABLE(TABLE=%s,\n           FORMAT='TABLEAU',\n           UNITE=%s,\n           SEPARATEUR=' ,',\n           TITRE='RESULTS',\n           )\n\n", table, unit)
	w.p("DEFI_FICHIER(ACTION='LIBERER', UNITE=%s,)\n\n", unit)
	w.release(table, unit)
}
