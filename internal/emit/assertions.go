package emit

import (
	"math"
	"strconv"
	"strings"

	"astergen/internal/concept"
	"astergen/internal/resolver"
	"astergen/pkg/model"
)

// relativeThreshold is the smallest reference value compared relatively.
const relativeThreshold = 1e-7

// zeroReference replaces a null computed value, which the solver rejects.
const zeroReference = 1e-10

const testIndent = "                     "

// assertions writes a TEST_RESU block checking the assertions of an analysis.
func (w *writer) assertions(s *resolver.Step) {
	a := s.Analysis
	var body strings.Builder
	entry := func(lines ...string) {
		for _, l := range lines {
			body.WriteString(testIndent + l + "\n")
		}
	}
	resu := w.result(a)
	for _, o := range w.m.ObjectivesOf(a) {
		switch v := o.(type) {
		case *model.NodalDisplacementAssertion:
			body.WriteString("                  _F(RESULTAT=" + resu + ",\n")
			entry(criterion(v.Value),
				"NOEUD='"+w.mesh.NodeName(v.Node)+"',",
				"NOM_CMP = '"+component(v.DOF)+"',",
				"NOM_CHAM = 'DEPL',",
				instant(v.Instant),
				"REFERENCE = 'SOURCE_EXTERNE',",
				"PRECISION = "+num(v.Tolerance)+",",
				"VALE_REFE = "+num(v.Value)+",",
				"VALE_CALC = "+num(calculated(v.Value))+",",
				"TOLE_MACHINE = ("+nums(v.Tolerance, 1e-05)+"),",
				"),")
		case *model.NodalComplexDisplacementAssertion:
			body.WriteString("                  _F(RESULTAT=" + resu + ",\n")
			tole := 1e-05
			if cmplxRelative(v.Value) {
				tole = v.Tolerance
			}
			entry(criterion(math.Max(math.Abs(real(v.Value)), math.Abs(imag(v.Value)))),
				"NOEUD='"+w.mesh.NodeName(v.Node)+"',",
				"NOM_CMP = '"+component(v.DOF)+"',",
				"NOM_CHAM = 'DEPL',",
				"FREQ = "+num(v.Frequency)+",",
				"VALE_CALC_C = "+complexLiteral(v.Value)+",",
				"TOLE_MACHINE = ("+nums(tole, 1e-05)+"),",
				"),")
		case *model.NodalCellVonMisesAssertion:
			body.WriteString("                  _F(RESULTAT=" + resu + ",\n")
			entry(criterion(v.Value),
				"NOEUD='"+w.mesh.NodeName(v.Node)+"',",
				"MAILLE='"+w.mesh.CellName(v.Cell)+"',",
				"NOM_CMP = 'VMIS',",
				instant(v.Instant),
				"NOM_CHAM = 'SIEQ_ELNO',",
				"VALE_CALC = "+num(calculated(v.Value))+",",
				"TOLE_MACHINE = ("+nums(v.Tolerance, 1e-05)+"),",
				"),")
		case *model.FrequencyAssertion:
			if !w.frequencyAssertion(&body, a, v) {
				continue
			}
		default:
			continue
		}
		w.audit.MarkWritten(o)
	}
	if body.Len() == 0 {
		return
	}
	w.s("TEST_RESU(RESU = (\n")
	w.s(body.String())
	w.s("                  )\n          );\n\n")
}

// frequencyAssertion checks one eigen value. Frequencies outside the cutoff
// band are not extracted and are skipped.
func (w *writer) frequencyAssertion(body *strings.Builder, a model.Analysis, v *model.FrequencyAssertion) bool {
	_, buckling := a.(*model.LinearBuckling)
	if !buckling {
		low, high := w.frequencyBand()
		if v.Cycles < low || v.Cycles > high {
			w.audit.Omit(v.Ref(), "frequency %s outside of [%s, %s]", num(v.Cycles), num(low), num(high))
			return false
		}
	}
	resu := w.result(a)
	if _, ok := a.(*model.ModalFrequency); ok {
		resu = concept.Modes(a.Common().ID)
		if b, ok := w.basisOf(a); ok {
			resu = b
		}
	}
	line := func(s string) { body.WriteString(testIndent + s + "\n") }
	mode := "NUME_MODE = " + strconv.Itoa(v.Number) + ","
	if buckling {
		body.WriteString("                  _F(RESULTAT=" + resu + ",\n")
		line("PARA = 'CHAR_CRIT',")
		line(mode)
		line("VALE_CALC = " + num(v.EigenValue) + ",")
		line("TOLE_MACHINE = (" + nums(v.Tolerance, 1e-05) + "),")
		line("),")
		return true
	}
	body.WriteString("                  _F(RESULTAT=" + resu + ",\n")
	line(criterion(v.Cycles))
	line("PARA = 'FREQ',")
	line(mode)
	line("REFERENCE = 'SOURCE_EXTERNE',")
	line("PRECISION = " + num(v.Tolerance) + ",")
	line("VALE_REFE = " + num(v.Cycles) + ",")
	line("VALE_CALC = " + num(calculated(v.Cycles)) + ",")
	line("TOLE_MACHINE = (" + nums(v.Tolerance, 1e-05) + "),")
	line("),")
	if v.GeneralizedMass != 0 {
		body.WriteString("                  _F(RESULTAT=" + resu + ",\n")
		line("PARA = 'MASS_GENE',")
		line(mode)
		line("VALE_CALC = " + num(v.GeneralizedMass) + ",")
		line("TOLE_MACHINE = (" + nums(v.Tolerance, 1e-05) + "),")
		line("),")
	}
	if v.GeneralizedMass != 1 && v.GeneralizedStiffness != 0 {
		body.WriteString("                  _F(RESULTAT=" + resu + ",\n")
		line("PARA = 'RIGI_GENE',")
		line(mode)
		line("VALE_CALC = " + num(v.GeneralizedStiffness) + ",")
		line("TOLE_MACHINE = (" + nums(v.Tolerance, 1e-05) + "),")
		line("),")
	}
	return true
}

// basisOf returns the borrowed eigen basis of a modal frequency response.
func (w *writer) basisOf(a model.Analysis) (string, bool) {
	s, ok := w.plan.Step(a.Common().ID)
	if !ok || s.Reuse == nil {
		return "", false
	}
	if _, ok := s.Reuse.(*model.ModalFrequency); ok {
		return concept.Modes(s.Reuse.Common().ID), true
	}
	return concept.Result(s.Reuse.Common().ID), true
}

func criterion(v float64) string {
	if math.Abs(v) >= relativeThreshold {
		return "CRITERE = 'RELATIF',"
	}
	return "CRITERE = 'ABSOLU',"
}

func cmplxRelative(v complex128) bool {
	return math.Abs(real(v)) >= relativeThreshold || math.Abs(imag(v)) >= relativeThreshold
}

func calculated(v float64) float64 {
	if v == 0 {
		return zeroReference
	}
	return v
}

func instant(t *float64) string {
	if t != nil {
		return "INST = " + num(*t) + ","
	}
	return "NUME_ORDRE = 1,"
}

func complexLiteral(v complex128) string {
	im := imag(v)
	if im < 0 {
		return num(real(v)) + "-" + num(-im) + "j"
	}
	return num(real(v)) + "+" + num(im) + "j"
}
