package emit

import (
	"strconv"
	"strings"

	"astergen/pkg/model"
)

// num formats a real the way the solver reads it back without loss.
func num(v float64) string {
	return strconv.FormatFloat(v, 'g', 15, 64)
}

func nums(vs ...float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = num(v)
	}
	return strings.Join(parts, ",")
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// vec formats a vector as x,y,z.
func vec(v model.Vector) string { return nums(v.X, v.Y, v.Z) }

var dofComponents = [...]string{"DX", "DY", "DZ", "DRX", "DRY", "DRZ"}

// component returns the solver name of a degree of freedom.
func component(d model.DOF) string { return dofComponents[d] }

var forceComponents = [...]string{"FX", "FY", "FZ", "MX", "MY", "MZ"}

// quotedComponents lists the DOFs as 'DX','DY',...
func quotedComponents(s model.DOFS) string {
	var b strings.Builder
	for _, d := range s.List() {
		b.WriteString("'" + component(d) + "',")
	}
	return b.String()
}

// dashedComponents joins the DOFs as DX-DY-DRZ.
func dashedComponents(s model.DOFS) string {
	parts := make([]string, 0, s.Len())
	for _, d := range s.List() {
		parts = append(parts, component(d))
	}
	return strings.Join(parts, "-")
}

// modelisations returns the finite element formulations of an element set.
func modelisations(es model.ElementSet, largeDisplacements bool) (string, bool) {
	switch v := es.(type) {
	case *model.RectangularBeam:
		return beamModelisation(v.Theory, largeDisplacements), true
	case *model.CircularBeam:
		return beamModelisation(v.Theory, largeDisplacements), true
	case *model.TubeBeam:
		return beamModelisation(v.Theory, largeDisplacements), true
	case *model.GenericBeam:
		return beamModelisation(v.Theory, largeDisplacements), true
	case *model.Truss:
		if largeDisplacements {
			return "('POU_D_T_GD',)", true
		}
		return "('BARRE',)", true
	case *model.Shell, *model.Composite:
		return "('DKT',)", true
	case *model.DiscretePoint, *model.DiscreteSegment, *model.NodalMass:
		if model.NodalDOFs(es).HasRotations() {
			return "('DIS_TR',)", true
		}
		return "('DIS_T',)", true
	case *model.Continuum, *model.Skin:
		return "('3D',)", true
	}
	return "", false
}

func beamModelisation(theory model.BeamTheory, largeDisplacements bool) string {
	switch {
	case largeDisplacements:
		return "('POU_D_T_GD',)"
	case theory == model.EulerBeam:
		return "('POU_D_E',)"
	default:
		return "('POU_D_T',)"
	}
}
