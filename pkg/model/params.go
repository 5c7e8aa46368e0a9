package model

import (
	"strconv"
	"strings"
)

// Parameter is a model-wide setting key.
type Parameter string

// Model parameters understood by the translator.
const (
	ParamElementQualityCheck     Parameter = "ELEMENT_QUALITY_CHECK"
	ParamPrintMaxim              Parameter = "PRINT_MAXIM"
	ParamLowerCutoffFrequency    Parameter = "LOWER_CUTOFF_FREQUENCY"
	ParamUpperCutoffFrequency    Parameter = "UPPER_CUTOFF_FREQUENCY"
	ParamStructuralDamping       Parameter = "STRUCTURAL_DAMPING"
	ParamFrequencyOfInterest     Parameter = "FREQUENCY_OF_INTEREST_RADIANS"
	ParamGlobalRayleighStiffness Parameter = "GLOBAL_RAYLEIGH_STIFFNESS_FACTOR"
	ParamGlobalRayleighMass      Parameter = "GLOBAL_RAYLEIGH_MASS_FACTOR"
	ParamLargeDisplacements      Parameter = "LARGE_DISPLACEMENTS"
)

// ParseParameter normalizes a parameter name.
func ParseParameter(s string) Parameter {
	return Parameter(strings.ToUpper(strings.TrimSpace(s)))
}

// SetParameter stores a parameter value.
func (m *Model) SetParameter(p Parameter, value string) {
	m.params[p] = value
}

// Parameter looks up a parameter value.
func (m *Model) Parameter(p Parameter) (string, bool) {
	v, ok := m.params[p]
	return v, ok
}

// ParameterFloat looks up a numeric parameter. Unparsable values are
// reported as missing.
func (m *Model) ParameterFloat(p Parameter) (float64, bool) {
	v, ok := m.params[p]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParameterBool reports whether a parameter is set to a true-like value.
func (m *Model) ParameterBool(p Parameter) bool {
	v, ok := m.params[p]
	if !ok {
		return false
	}
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "1", "TRUE", "YES", "OUI", "ON":
		return true
	}
	return false
}

// Parameters returns a copy of all parameters.
func (m *Model) Parameters() map[Parameter]string {
	out := make(map[Parameter]string, len(m.params))
	for k, v := range m.params {
		out[k] = v
	}
	return out
}
