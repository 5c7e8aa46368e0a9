package model

// AnalysisKind names an analysis variant.
type AnalysisKind string

// Analysis kinds, one per concrete analysis type.
const (
	KindLinearStatic    AnalysisKind = "linear_static"
	KindNonLinearStatic AnalysisKind = "nonlinear_static"
	KindLinearModal     AnalysisKind = "linear_modal"
	KindLinearBuckling  AnalysisKind = "linear_buckling"
	KindDirectFrequency AnalysisKind = "direct_frequency"
	KindModalFrequency  AnalysisKind = "modal_frequency"
	KindCombination     AnalysisKind = "combination"
)

// AnalysisKinds lists every analysis kind the model can hold.
var AnalysisKinds = []AnalysisKind{
	KindLinearStatic, KindNonLinearStatic, KindLinearModal, KindLinearBuckling,
	KindDirectFrequency, KindModalFrequency, KindCombination,
}

// Analysis is a closed family: LinearStatic, NonLinearStatic, LinearModal,
// LinearBuckling, DirectFrequency, ModalFrequency and Combination.
type Analysis interface {
	Entity
	Common() *AnalysisBase
	Kind() AnalysisKind
}

// AnalysisBase carries the fields shared by all analyses.
type AnalysisBase struct {
	Base
	Label            string `json:"label,omitempty"`
	LoadSetIDs       []int  `json:"load_set_ids,omitempty"`
	ConstraintSetIDs []int  `json:"constraint_set_ids,omitempty"`
	ObjectiveIDs     []int  `json:"objective_ids,omitempty"`
}

func (a *AnalysisBase) Ref() Ref              { return Ref{Kind: KindAnalysis, ID: a.ID} }
func (a *AnalysisBase) Common() *AnalysisBase { return a }

// LinearStatic is a linear static solve.
type LinearStatic struct {
	AnalysisBase
}

// NonLinearStatic is an incremental solve, optionally continuing a
// previous nonlinear analysis.
type NonLinearStatic struct {
	AnalysisBase
	StrategyID int `json:"strategy_id"`
	PreviousID int `json:"previous_id,omitempty"`
}

// LinearModal extracts eigenmodes.
type LinearModal struct {
	AnalysisBase
	SearchID int `json:"search_id"`
}

// LinearBuckling computes critical load factors from the prestress of a
// preceding linear static analysis.
type LinearBuckling struct {
	AnalysisBase
	SearchID int `json:"search_id"`
	StaticID int `json:"static_id"`
}

// DirectFrequency is a harmonic response solved on the physical basis.
type DirectFrequency struct {
	AnalysisBase
	ExcitationID int `json:"excitation_id"`
}

// ModalFrequency is a harmonic response solved on a modal basis.
type ModalFrequency struct {
	AnalysisBase
	SearchID       int  `json:"search_id"`
	ExcitationID   int  `json:"excitation_id"`
	DampingID      int  `json:"damping_id,omitempty"`
	ResidualVector bool `json:"residual_vector,omitempty"`
}

// CombinationTerm weights the displacement field of another analysis.
type CombinationTerm struct {
	AnalysisID int     `json:"analysis_id"`
	Coef       float64 `json:"coef"`
}

// Combination superposes earlier analyses.
type Combination struct {
	AnalysisBase
	Terms []CombinationTerm `json:"terms"`
}

func (*LinearStatic) Kind() AnalysisKind    { return KindLinearStatic }
func (*NonLinearStatic) Kind() AnalysisKind { return KindNonLinearStatic }
func (*LinearModal) Kind() AnalysisKind     { return KindLinearModal }
func (*LinearBuckling) Kind() AnalysisKind  { return KindLinearBuckling }
func (*DirectFrequency) Kind() AnalysisKind { return KindDirectFrequency }
func (*ModalFrequency) Kind() AnalysisKind  { return KindModalFrequency }
func (*Combination) Kind() AnalysisKind     { return KindCombination }

// IsStatic reports whether the analysis produces a static displacement field.
func IsStatic(a Analysis) bool {
	switch a.(type) {
	case *LinearStatic, *NonLinearStatic, *Combination:
		return true
	}
	return false
}

// IsModal reports whether the analysis extracts an eigen basis.
func IsModal(a Analysis) bool {
	switch a.(type) {
	case *LinearModal, *ModalFrequency, *LinearBuckling:
		return true
	}
	return false
}

// SearchIDOf returns the frequency search of analyses that have one.
func SearchIDOf(a Analysis) int {
	switch v := a.(type) {
	case *LinearModal:
		return v.SearchID
	case *LinearBuckling:
		return v.SearchID
	case *ModalFrequency:
		return v.SearchID
	}
	return 0
}

// HasObjective reports whether the analysis lists an objective id.
func (a *AnalysisBase) HasObjective(id int) bool {
	for _, o := range a.ObjectiveIDs {
		if o == id {
			return true
		}
	}
	return false
}
