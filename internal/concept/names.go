// Package concept mints the names of solver-side concepts.
//
// The solver limits concept names to eight characters: a short alphabetic
// prefix followed by a numeric id. Every name used in a command file is
// built here so the budget is enforced in one place.
package concept

import (
	"fmt"
	"regexp"
)

// MaxLen is the longest concept name accepted by the solver.
const MaxLen = 8

var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// NameError reports a name outside the solver budget.
type NameError struct {
	Name string
}

func (e NameError) Error() string {
	return fmt.Sprintf("concept name %q exceeds %d characters or is not alphanumeric", e.Name, MaxLen)
}

// Check validates a concept name.
func Check(name string) error {
	if len(name) == 0 || len(name) > MaxLen || !namePattern.MatchString(name) {
		return NameError{Name: name}
	}
	return nil
}

func List(valueID int) string      { return fmt.Sprintf("LST%05d", valueID) }
func Function(valueID int) string  { return fmt.Sprintf("FCT%05d", valueID) }
func Material(id int) string       { return fmt.Sprintf("M%d", id) }
func Composite(setID int) string   { return fmt.Sprintf("MC%d", setID) }
func Contact(setID int) string     { return fmt.Sprintf("CN%d", setID) }
func Result(analysisID int) string { return fmt.Sprintf("RESU%d", analysisID) }

// ConstraintLoad names the load built from a constraint set.
func ConstraintLoad(setID int, functions bool) string {
	if functions {
		return fmt.Sprintf("BLF%d", setID)
	}
	return fmt.Sprintf("BL%d", setID)
}

// Load names the load built from a load set.
func Load(setID int, functions bool) string {
	if functions {
		return fmt.Sprintf("CHMEF%d", setID)
	}
	return fmt.Sprintf("CHMEC%d", setID)
}

// Modes names the eigen basis of a modal frequency analysis.
func Modes(analysisID int) string { return fmt.Sprintf("MO%d", analysisID) }

// ProjectionBasis names the basis a modal frequency analysis projects on,
// with or without residual vectors.
func ProjectionBasis(analysisID int) string { return fmt.Sprintf("modes%d", analysisID) }

// Gap names the initial opening constant of one gap participation.
func Gap(setID, n int) string { return fmt.Sprintf("C%dI%d", setID, n) }

// GapDirection names the direction cosine constant of one gap participation
// along axis X, Y or Z.
func GapDirection(setID int, axis string, n int) string {
	return fmt.Sprintf("C%dM%s%d", setID, axis, n)
}

// Excitation names the assembled excitation vector of one dynamic load.
func Excitation(analysisID, loadingID int) string {
	return fmt.Sprintf("FX%d_%d", analysisID, loadingID)
}

// ExcitationElem names the elementary excitation vector of one dynamic load.
func ExcitationElem(analysisID, loadingID int) string {
	return fmt.Sprintf("VE%d_%d", analysisID, loadingID)
}

// Spread names the refined frequency list of an excitation.
func Spread(valueID int) string { return fmt.Sprintf("LSPR%04d", valueID) }

// Interpolated names the interpolated frequency list of an excitation.
func Interpolated(valueID int) string { return fmt.Sprintf("LSIP%04d", valueID) }

// Indexed appends an id to a fixed prefix, as in NDDL12 or RAMP3.
func Indexed(prefix string, id int) string { return fmt.Sprintf("%s%d", prefix, id) }

// Prefixes minted with the analysis id by the emission engine.
var analysisPrefixes = []string{
	"RESU", "NDDL", "RIEL", "RIGI", "MAEL", "MASS", "AMEL", "AMOR", "RGEL", "RIGE",
	"AMST", "LINST", "LAUTO", "RAMP", "IRAMP", "UMO", "IMO", "JMO", "URESU", "IRESU",
	"JRESU", "GENE", "DEP", "RETB", "unit", "uloc", "TBLO", "CRESU", "FSIG", "TBCRT",
	"NDDLG", "MASSG", "RIGIG", "AMORG", "AMMO", "AMMOI", "AMMOS", "AMMOT", "MOSTA",
	"RESVE",
}

// ForAnalysis lists the names the emission engine may mint for an analysis.
func ForAnalysis(analysisID int) []string {
	out := make([]string, 0, len(analysisPrefixes)+1)
	for _, p := range analysisPrefixes {
		out = append(out, Indexed(p, analysisID))
	}
	return append(out, Modes(analysisID), ProjectionBasis(analysisID))
}
