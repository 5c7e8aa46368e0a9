package emit

import (
	"strings"

	"astergen/internal/concept"
	"astergen/internal/resolver"
	"astergen/pkg/model"
)

// search returns the frequency search of an eigen analysis.
func (w *writer) search(a model.Analysis) *model.FrequencySearch {
	fs, err := model.Get[*model.FrequencySearch](w.m, model.KindObjective, model.SearchIDOf(a))
	if err != nil {
		w.fail(err)
		return nil
	}
	w.audit.MarkWritten(fs)
	return fs
}

// calcFreq writes the modal solver and eigen value selection keywords.
func (w *writer) calcFreq(a model.Analysis, fs *model.FrequencySearch, buckling bool) {
	suffix := "FREQ"
	if buckling {
		suffix = "CHAR_CRIT"
	}
	if !buckling {
		switch fs.Norm {
		case model.NormMass, "":
			w.s("               NORM_MODE=_F(NORME='MASS_GENE'),\n")
		case model.NormMax:
			w.s("               NORM_MODE=_F(NORME='TRAN_ROTA'),\n")
		default:
			w.fail(unsupported(fs, "mode norm %q", fs.Norm))
			return
		}
	}
	switch fs.Type {
	case model.SearchBand:
		band, ok := w.value(fs.ValueID).(*model.BandRange)
		if !ok {
			w.fail(unsupported(fs, "band search on value %d", fs.ValueID))
			return
		}
		low, _ := w.m.ParameterFloat(model.ParamLowerCutoffFrequency)
		start := low
		if band.Start != nil {
			start = *band.Start
		}
		option := "BANDE"
		switch {
		case fs.PowerIteration:
			option = "SEPARE"
		case buckling || band.MaxSearch > 0:
			option = "PLUS_PETITE"
		case band.End == nil:
			option = "CENTRE"
		}
		w.p("               OPTION='%s',\n", option)
		w.p("               CALC_%s=_F(\n", suffix)
		switch {
		case band.MaxSearch > 0:
			w.p("                                    NMAX_%s=%d,\n", suffix, band.MaxSearch)
		case buckling:
		case band.End == nil:
			w.p("                                    %s=(%s,),\n", suffix, num(start))
		default:
			w.p("                                    %s=(%s),\n", suffix, nums(start, *band.End))
		}
		w.s("                                    ),\n")
	case model.SearchStep, model.SearchList:
		freqs := w.searchFrequencies(fs)
		if w.err != nil {
			return
		}
		option := "CENTRE"
		if fs.PowerIteration {
			option = "SEPARE"
		}
		w.p("               OPTION='%s',\n", option)
		w.p("               CALC_%s=_F(\n", suffix)
		w.p("                                    %s=(%s,),\n", suffix, nums(freqs...))
		w.s("                                    ),\n")
	default:
		w.fail(unsupported(fs, "frequency search %q", fs.Type))
	}
}

func (w *writer) searchFrequencies(fs *model.FrequencySearch) []float64 {
	switch v := w.value(fs.ValueID).(type) {
	case *model.StepRange:
		if v.End == nil || v.Count <= 0 {
			w.fail(unsupported(fs, "open step search"))
			return nil
		}
		step := (*v.End - v.Start) / float64(v.Count)
		var out []float64
		for i := 0; i < v.Count; i++ {
			out = append(out, v.Start+float64(i)*step)
		}
		return out
	case *model.ListValue:
		return v.Values
	case *model.SetValue:
		return v.Values
	}
	w.fail(unsupported(fs, "search value %d", fs.ValueID))
	return nil
}

// modalSolver selects the eigen solver keywords of a search.
func modalSolver(fs *model.FrequencySearch) string {
	if fs.PowerIteration {
		return "SOLVEUR_MODAL=_F(OPTION_INV='DIRECT'),"
	}
	return "SOLVEUR_MODAL=_F(METHODE='TRI_DIAG'),"
}

// modalBasis writes or reuses the eigen basis of a modal analysis and
// returns its name and the analysis whose matrices built it.
func (w *writer) modalBasis(s *resolver.Step, name string) (string, model.Analysis) {
	a := s.Analysis
	if s.Reuse != nil {
		basis := concept.Result(s.Reuse.Common().ID)
		if _, ok := s.Reuse.(*model.ModalFrequency); ok {
			basis = concept.Modes(s.Reuse.Common().ID)
		}
		w.p("# Reusing previous results: %s for analysis %s\n", basis, a.Ref())
		w.audit.Warn(a.Ref(), "reusing eigen basis %s of %s", basis, s.Reuse.Ref())
		if _, ok := a.(*model.LinearModal); ok {
			w.borrowed[a.Common().ID] = basis
		}
		w.p("pfreq%d=%s.LIST_VARI_ACCES()['FREQ']\n\n", a.Common().ID, basis)
		return basis, s.Reuse
	}
	fs := w.search(a)
	if fs == nil {
		return "", nil
	}
	mx := w.assemble(a, false, s.Reusable)
	raw := w.name("U" + name)
	w.p("%s=CALC_MODES(MATR_RIGI=%s,\n", raw, mx.stiffness)
	w.p("               MATR_MASS=%s,\n", mx.mass)
	w.p("               %s\n", modalSolver(fs))
	w.calcFreq(a, fs, false)
	w.s("               VERI_MODE=_F(STOP_ERREUR='NON',),\n")
	w.s("               SOLVEUR=_F(METHODE='MUMPS',\n")
	w.s("                          RENUM='PORD',\n")
	w.s("                          NPREC=8,\n")
	w.s("                          ),\n")
	w.s("               )\n\n")
	low, high := w.frequencyBand()
	w.p("%s=EXTR_MODE(FILTRE_MODE=_F(MODE=%s, FREQ_MIN=%s, FREQ_MAX=%s),)\n\n", name, raw, num(low), num(high))

	table := w.name("I" + name)
	w.p("%s=RECU_TABLE(CO=%s,NOM_PARA = (%s))\n\n", table, name, modalParameters)
	w.p("IMPR_TABLE(TABLE=%s)\n\n", table)
	inertia := w.name("J" + name)
	w.p("%s=POST_ELEM(RESULTAT=%s, MASS_INER=_F(TOUT='OUI'))\n\n", inertia, name)
	w.p("IMPR_TABLE(TABLE=%s)\n\n", inertia)
	w.release(raw, table, inertia)
	w.p("pfreq%d=%s.LIST_VARI_ACCES()['FREQ']\n\n", a.Common().ID, name)
	return name, a
}

var modalParameters = "'" + strings.Join([]string{
	"FREQ", "MASS_GENE", "RIGI_GENE", "AMOR_GENE",
	"FACT_PARTICI_DX", "FACT_PARTICI_DY", "FACT_PARTICI_DZ",
	"MASS_EFFE_DX", "MASS_EFFE_DY", "MASS_EFFE_DZ",
	"MASS_EFFE_UN_DX", "MASS_EFFE_UN_DY", "MASS_EFFE_UN_DZ",
}, "','") + "',"

func (w *writer) linearModal(s *resolver.Step) {
	a, ok := cast[*model.LinearModal](w, s.Analysis)
	if !ok {
		return
	}
	w.modalBasis(s, w.result(a))
}

func (w *writer) linearBuckling(s *resolver.Step) {
	a, ok := cast[*model.LinearBuckling](w, s.Analysis)
	if !ok {
		return
	}
	fs := w.search(a)
	if fs == nil {
		return
	}
	stress := w.ix("FSIG", a)
	w.p("%s = CREA_CHAMP(OPERATION='EXTR',\n", stress)
	w.s("                 TYPE_CHAM='ELGA_SIEF_R',\n")
	w.p("                 RESULTAT=%s,\n", concept.Result(a.StaticID))
	w.s("                 NOM_CHAM='SIEF_ELGA',\n")
	w.s("                 )\n\n")
	mx := w.assemble(a, true, false)
	resu := w.result(a)
	w.p("%s=CALC_MODES(MATR_RIGI=%s,\n", resu, mx.stiffness)
	w.p("               MATR_RIGI_GEOM=%s,\n", mx.geometric)
	w.s("               TYPE_RESU='MODE_FLAMB',\n")
	w.p("               %s\n", modalSolver(fs))
	w.calcFreq(a, fs, true)
	w.s("               VERI_MODE=_F(STOP_ERREUR='NON',),\n")
	w.s("               SOLVEUR=_F(METHODE='MUMPS',),\n")
	w.s("               )\n\n")
	w.p("%s = NORM_MODE(reuse=%s,MODE=%s,NORME='TRAN_ROTA',)\n\n", resu, resu, resu)
	table := w.ix("TBCRT", a)
	w.p("%s = RECU_TABLE(CO=%s,NOM_PARA='CHAR_CRIT')\n\n", table, resu)
	w.p("IMPR_TABLE(TABLE=%s)\n\n", table)
	w.release(stress, table)
}
