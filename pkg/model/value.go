package model

// Value is a closed family of named values: ListValue, SetValue, StepRange,
// FunctionTable and BandRange.
type Value interface {
	Entity
	Common() *ValueBase
}

// ValueBase carries the fields shared by all values.
type ValueBase struct {
	Base
}

func (v *ValueBase) Ref() Ref           { return Ref{Kind: KindValue, ID: v.ID} }
func (v *ValueBase) Common() *ValueBase { return v }

// ListValue is an ordered list of reals.
type ListValue struct {
	ValueBase
	Values []float64 `json:"values"`
}

// SetValue is a set of reals; All marks the set of every value.
type SetValue struct {
	ValueBase
	Values []float64 `json:"values,omitempty"`
	All    bool      `json:"all,omitempty"`
}

// StepRange is an evenly subdivided interval. A nil End means open ended.
type StepRange struct {
	ValueBase
	Start float64  `json:"start"`
	End   *float64 `json:"end,omitempty"`
	Count int      `json:"count"`
}

// Extrapolation selects the behaviour of a function outside its points.
type Extrapolation string

// Extrapolation modes.
const (
	ExtrapolateConstant Extrapolation = "CONSTANT"
	ExtrapolateLinear   Extrapolation = "LINEAIRE"
	ExtrapolateExcluded Extrapolation = "EXCLU"
)

// Point is one abscissa/ordinate pair of a function table.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FunctionTable is a tabulated function interpolated linearly.
type FunctionTable struct {
	ValueBase
	ParamX string        `json:"param_x"`
	ParamY string        `json:"param_y"`
	Points []Point       `json:"points"`
	Left   Extrapolation `json:"left"`
	Right  Extrapolation `json:"right"`
}

// BandRange is a frequency band with an optional mode count limit.
type BandRange struct {
	ValueBase
	Start     *float64 `json:"start,omitempty"`
	End       *float64 `json:"end,omitempty"`
	MaxSearch int      `json:"max_search,omitempty"`
}
