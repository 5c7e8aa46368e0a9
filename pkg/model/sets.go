package model

// LoadSetType distinguishes static loads from dynamic excitations.
type LoadSetType string

// Load set types.
const (
	LoadSetLoad  LoadSetType = "LOAD"
	LoadSetDLoad LoadSetType = "DLOAD"
)

// WeightedLoadSet embeds another load set with a coefficient.
type WeightedLoadSet struct {
	LoadSetID int     `json:"load_set_id"`
	Coef      float64 `json:"coef"`
}

// LoadSet is a named collection of loadings.
type LoadSet struct {
	Base
	Type       LoadSetType       `json:"type"`
	LoadingIDs []int             `json:"loading_ids,omitempty"`
	Embedded   []WeightedLoadSet `json:"embedded,omitempty"`
}

func (l *LoadSet) Ref() Ref { return Ref{Kind: KindLoadSet, ID: l.ID} }

// ConstraintSet is a named collection of constraints.
type ConstraintSet struct {
	Base
	ConstraintIDs []int `json:"constraint_ids,omitempty"`
}

func (c *ConstraintSet) Ref() Ref { return Ref{Kind: KindConstraintSet, ID: c.ID} }

func removeID(ids []int, id int) []int {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
