package model

// Objective is a closed family of analysis parameters, assertions and
// requested outputs.
type Objective interface {
	Entity
	Common() *ObjectiveBase
}

// ObjectiveBase carries the fields shared by all objectives.
type ObjectiveBase struct {
	Base
}

func (o *ObjectiveBase) Ref() Ref               { return Ref{Kind: KindObjective, ID: o.ID} }
func (o *ObjectiveBase) Common() *ObjectiveBase { return o }

// NonLinearStrategy sets the increment count of a nonlinear analysis.
type NonLinearStrategy struct {
	ObjectiveBase
	Increments int `json:"increments"`
}

// SearchType selects how eigen frequencies are searched.
type SearchType string

// Frequency search types.
const (
	SearchBand SearchType = "band"
	SearchStep SearchType = "step"
	SearchList SearchType = "list"
)

// ModeNorm selects the normalization of extracted modes.
type ModeNorm string

// Mode normalizations.
const (
	NormMass ModeNorm = "mass"
	NormMax  ModeNorm = "max"
)

// FrequencySearch configures an eigen extraction.
type FrequencySearch struct {
	ObjectiveBase
	Type           SearchType `json:"type"`
	ValueID        int        `json:"value_id"`
	Norm           ModeNorm   `json:"norm"`
	PowerIteration bool       `json:"power_iteration,omitempty"`
}

// Equivalent reports whether two searches produce the same basis.
func (f *FrequencySearch) Equivalent(o *FrequencySearch) bool {
	if f == nil || o == nil {
		return f == o
	}
	return f.Type == o.Type && f.ValueID == o.ValueID && f.Norm == o.Norm &&
		f.PowerIteration == o.PowerIteration
}

// ExcitationFrequencyType selects how excitation frequencies are built.
type ExcitationFrequencyType string

// Excitation frequency list types.
const (
	FrequencyList        ExcitationFrequencyType = "list"
	FrequencySpread      ExcitationFrequencyType = "spread"
	FrequencyInterpolate ExcitationFrequencyType = "interpolate"
)

// FrequencyExcitation lists the frequencies of a harmonic response.
type FrequencyExcitation struct {
	ObjectiveBase
	Type    ExcitationFrequencyType `json:"type"`
	ValueID int                     `json:"value_id"`
	Spread  float64                 `json:"spread,omitempty"`
}

// DampingType selects the meaning of a modal damping function.
type DampingType string

// Modal damping types.
const (
	DampingCritical DampingType = "crit"
	DampingG        DampingType = "g"
)

// ModalDamping gives modal damping as a function of frequency.
type ModalDamping struct {
	ObjectiveBase
	FunctionID int         `json:"function_id"`
	Type       DampingType `json:"type"`
}

// NodalDisplacementAssertion checks a displacement component at a node.
type NodalDisplacementAssertion struct {
	ObjectiveBase
	Node      int      `json:"node"`
	DOF       DOF      `json:"dof"`
	Value     float64  `json:"value"`
	Tolerance float64  `json:"tolerance"`
	Instant   *float64 `json:"instant,omitempty"`
}

// NodalComplexDisplacementAssertion checks a harmonic displacement.
type NodalComplexDisplacementAssertion struct {
	ObjectiveBase
	Node      int        `json:"node"`
	DOF       DOF        `json:"dof"`
	Value     complex128 `json:"-"`
	Frequency float64    `json:"frequency"`
	Tolerance float64    `json:"tolerance"`
}

// NodalCellVonMisesAssertion checks the von Mises stress of a cell at a node.
type NodalCellVonMisesAssertion struct {
	ObjectiveBase
	Node      int      `json:"node"`
	Cell      int      `json:"cell"`
	Value     float64  `json:"value"`
	Tolerance float64  `json:"tolerance"`
	Instant   *float64 `json:"instant,omitempty"`
}

// FrequencyAssertion checks one eigen frequency and its generalized terms.
type FrequencyAssertion struct {
	ObjectiveBase
	Number               int     `json:"number"`
	Cycles               float64 `json:"cycles"`
	EigenValue           float64 `json:"eigen_value"`
	GeneralizedMass      float64 `json:"generalized_mass"`
	GeneralizedStiffness float64 `json:"generalized_stiffness"`
	Tolerance            float64 `json:"tolerance"`
}

// NodalDisplacementOutput requests a displacement table over nodes.
type NodalDisplacementOutput struct {
	ObjectiveBase
	Nodes Container `json:"nodes"`
}

// FrequencyOutput restricts result tables to the frequencies of a list
// value. A zero ValueID keeps every computed frequency.
type FrequencyOutput struct {
	ObjectiveBase
	ValueID int `json:"value_id,omitempty"`
}

// VonMisesStressOutput requests von Mises stresses over cells.
type VonMisesStressOutput struct {
	ObjectiveBase
	Cells Container `json:"cells"`
}

// IsAssertion reports whether the objective is checked by the solver.
func IsAssertion(o Objective) bool {
	switch o.(type) {
	case *NodalDisplacementAssertion, *NodalComplexDisplacementAssertion,
		*NodalCellVonMisesAssertion, *FrequencyAssertion:
		return true
	}
	return false
}

// IsOutput reports whether the objective requests a result table.
func IsOutput(o Objective) bool {
	switch o.(type) {
	case *NodalDisplacementOutput, *FrequencyOutput, *VonMisesStressOutput:
		return true
	}
	return false
}
