// Package model defines the structural model handled by astergen: the mesh,
// the typed entities attached to it and the store that owns them.
//
// Entities never hold pointers to one another. Every cross reference is an
// integer id (or a Ref) resolved through the Model at read time.
package model

import "fmt"

// Kind identifies the family of an entity stored in a Model.
type Kind string

// Supported entity kinds.
const (
	// KindElementSet identifies a set of cells sharing an element formulation.
	KindElementSet Kind = "element_set"
	// KindMaterial identifies a material definition.
	KindMaterial Kind = "material"
	// KindConstraint identifies a single boundary condition or coupling.
	KindConstraint Kind = "constraint"
	// KindConstraintSet identifies a named collection of constraints.
	KindConstraintSet Kind = "constraint_set"
	// KindLoading identifies a single load.
	KindLoading Kind = "loading"
	// KindLoadSet identifies a named collection of loads.
	KindLoadSet Kind = "load_set"
	// KindValue identifies a named value (list, range, function table).
	KindValue     Kind = "value"
	KindAnalysis  Kind = "analysis"
	KindObjective Kind = "objective"
)

// Kinds lists every entity kind in store order.
var Kinds = []Kind{
	KindValue, KindMaterial, KindElementSet, KindConstraint, KindConstraintSet,
	KindLoading, KindLoadSet, KindObjective, KindAnalysis,
}

// Ref is a typed reference to an entity. It is resolved through Model.Find.
type Ref struct {
	Kind Kind `json:"kind"`
	ID   int  `json:"id"`
}

func (r Ref) String() string { return fmt.Sprintf("%s#%d", r.Kind, r.ID) }

// IsZero reports whether the reference points nowhere.
func (r Ref) IsZero() bool { return r.Kind == "" && r.ID == 0 }

// Base contains the identity fields shared by every entity.
type Base struct {
	ID int `json:"id"`
	// OriginalID is the identifier used by the input format, zero when the
	// entity was synthesized.
	OriginalID int  `json:"original_id,omitempty"`
	Virtual    bool `json:"virtual,omitempty"`
}

func (b *Base) base() *Base { return b }

// Entity is implemented by every object owned by a Model.
type Entity interface {
	Ref() Ref
	base() *Base
}

// Identify sets the identifiers of an entity before it is added to a Model.
func Identify(e Entity, id, originalID int) {
	b := e.base()
	b.ID, b.OriginalID = id, originalID
}

// IDOf returns the identifier of an entity.
func IDOf(e Entity) int { return e.base().ID }

// OriginalIDOf returns the input-format identifier of an entity.
func OriginalIDOf(e Entity) int { return e.base().OriginalID }

// IsVirtual reports whether the entity was synthesized while finishing the model.
func IsVirtual(e Entity) bool { return e.base().Virtual }
