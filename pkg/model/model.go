package model

import (
	"fmt"
	"sort"
)

// Model owns the mesh and every entity of a structural model. Entities are
// keyed by (kind, id) and kept in insertion order per kind; analysis order is
// significant to the translator.
type Model struct {
	Name     string
	Mesh     *Mesh
	params   map[Parameter]string
	entities map[Ref]Entity
	order    map[Kind][]int
	next     map[Kind]int
}

// New returns an empty model with an empty mesh.
func New(name string) *Model {
	return &Model{
		Name:     name,
		Mesh:     NewMesh(),
		params:   make(map[Parameter]string),
		entities: make(map[Ref]Entity),
		order:    make(map[Kind][]int),
		next:     make(map[Kind]int),
	}
}

// Add stores an entity. A zero id is replaced by the next free id of its kind.
func (m *Model) Add(e Entity) error {
	b := e.base()
	kind := e.Ref().Kind
	if b.ID < 0 {
		return fmt.Errorf("%s: negative id %d", kind, b.ID)
	}
	if b.ID == 0 {
		b.ID = m.nextID(kind)
	}
	ref := e.Ref()
	if _, exists := m.entities[ref]; exists {
		return DuplicateError{Ref: ref}
	}
	m.entities[ref] = e
	m.order[kind] = append(m.order[kind], b.ID)
	if b.ID >= m.next[kind] {
		m.next[kind] = b.ID + 1
	}
	return nil
}

func (m *Model) nextID(kind Kind) int {
	if m.next[kind] == 0 {
		m.next[kind] = 1
	}
	return m.next[kind]
}

// MustAdd stores entities and panics on error. Intended for fixtures.
func (m *Model) MustAdd(es ...Entity) {
	for _, e := range es {
		if err := m.Add(e); err != nil {
			panic(err)
		}
	}
}

// Remove deletes an entity, returning whether it existed.
func (m *Model) Remove(ref Ref) bool {
	if _, ok := m.entities[ref]; !ok {
		return false
	}
	delete(m.entities, ref)
	m.order[ref.Kind] = removeID(m.order[ref.Kind], ref.ID)
	return true
}

// Find resolves a reference.
func (m *Model) Find(ref Ref) (Entity, bool) {
	e, ok := m.entities[ref]
	return e, ok
}

// Filter returns the entities of a kind in insertion order.
func (m *Model) Filter(kind Kind) []Entity {
	ids := m.order[kind]
	out := make([]Entity, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.entities[Ref{Kind: kind, ID: id}])
	}
	return out
}

// Count returns the number of entities of a kind.
func (m *Model) Count(kind Kind) int { return len(m.order[kind]) }

// All returns the entities of a kind whose Go type is T.
func All[T Entity](m *Model, kind Kind) []T {
	var out []T
	for _, e := range m.Filter(kind) {
		if v, ok := e.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// Get resolves an id of the given kind to an entity of type T.
func Get[T Entity](m *Model, kind Kind, id int) (T, error) {
	var zero T
	ref := Ref{Kind: kind, ID: id}
	e, ok := m.entities[ref]
	if !ok {
		return zero, NotFoundError{Ref: ref}
	}
	v, ok := e.(T)
	if !ok {
		return zero, KindMismatchError{Ref: ref, Want: fmt.Sprintf("%T", zero), Got: fmt.Sprintf("%T", e)}
	}
	return v, nil
}

func (m *Model) ElementSets() []ElementSet        { return All[ElementSet](m, KindElementSet) }
func (m *Model) Materials() []*Material           { return All[*Material](m, KindMaterial) }
func (m *Model) Constraints() []Constraint        { return All[Constraint](m, KindConstraint) }
func (m *Model) ConstraintSets() []*ConstraintSet { return All[*ConstraintSet](m, KindConstraintSet) }
func (m *Model) Loadings() []Loading              { return All[Loading](m, KindLoading) }
func (m *Model) LoadSets() []*LoadSet             { return All[*LoadSet](m, KindLoadSet) }
func (m *Model) Values() []Value                  { return All[Value](m, KindValue) }
func (m *Model) Analyses() []Analysis             { return All[Analysis](m, KindAnalysis) }
func (m *Model) Objectives() []Objective          { return All[Objective](m, KindObjective) }

func (m *Model) Analysis(id int) (Analysis, error)     { return Get[Analysis](m, KindAnalysis, id) }
func (m *Model) LoadSet(id int) (*LoadSet, error)      { return Get[*LoadSet](m, KindLoadSet, id) }
func (m *Model) Loading(id int) (Loading, error)       { return Get[Loading](m, KindLoading, id) }
func (m *Model) Constraint(id int) (Constraint, error) { return Get[Constraint](m, KindConstraint, id) }
func (m *Model) Material(id int) (*Material, error)    { return Get[*Material](m, KindMaterial, id) }
func (m *Model) Value(id int) (Value, error)           { return Get[Value](m, KindValue, id) }
func (m *Model) Objective(id int) (Objective, error)   { return Get[Objective](m, KindObjective, id) }

// ConstraintSet resolves a constraint set id.
func (m *Model) ConstraintSet(id int) (*ConstraintSet, error) {
	return Get[*ConstraintSet](m, KindConstraintSet, id)
}

// AnalysisPosition returns the index of an analysis in declaration order, or -1.
func (m *Model) AnalysisPosition(id int) int {
	for i, v := range m.order[KindAnalysis] {
		if v == id {
			return i
		}
	}
	return -1
}

// LoadSetsOf resolves the load sets of an analysis, skipping missing ones.
func (m *Model) LoadSetsOf(a Analysis) []*LoadSet {
	var out []*LoadSet
	for _, id := range a.Common().LoadSetIDs {
		if ls, err := m.LoadSet(id); err == nil {
			out = append(out, ls)
		}
	}
	return out
}

// ConstraintSetsOf resolves the constraint sets of an analysis, skipping missing ones.
func (m *Model) ConstraintSetsOf(a Analysis) []*ConstraintSet {
	var out []*ConstraintSet
	for _, id := range a.Common().ConstraintSetIDs {
		if cs, err := m.ConstraintSet(id); err == nil {
			out = append(out, cs)
		}
	}
	return out
}

// ObjectivesOf resolves the objectives of an analysis, skipping missing ones.
func (m *Model) ObjectivesOf(a Analysis) []Objective {
	var out []Objective
	for _, id := range a.Common().ObjectiveIDs {
		if o, err := m.Objective(id); err == nil {
			out = append(out, o)
		}
	}
	return out
}

// LoadingsOf resolves the loadings of a load set, skipping missing ones.
func (m *Model) LoadingsOf(ls *LoadSet) []Loading {
	var out []Loading
	for _, id := range ls.LoadingIDs {
		if l, err := m.Loading(id); err == nil {
			out = append(out, l)
		}
	}
	return out
}

// ConstraintsOf resolves the constraints of a constraint set, skipping missing ones.
func (m *Model) ConstraintsOf(cs *ConstraintSet) []Constraint {
	var out []Constraint
	for _, id := range cs.ConstraintIDs {
		if c, err := m.Constraint(id); err == nil {
			out = append(out, c)
		}
	}
	return out
}

// ConstraintSetsContaining lists the ids of constraint sets holding a constraint.
func (m *Model) ConstraintSetsContaining(constraintID int) []int {
	var out []int
	for _, cs := range m.ConstraintSets() {
		if containsID(cs.ConstraintIDs, constraintID) {
			out = append(out, cs.ID)
		}
	}
	return out
}

// DetachConstraint removes a constraint from the store and from every set.
func (m *Model) DetachConstraint(id int) {
	for _, cs := range m.ConstraintSets() {
		cs.ConstraintIDs = removeID(cs.ConstraintIDs, id)
	}
	m.Remove(Ref{Kind: KindConstraint, ID: id})
}

// DetachObjective removes an objective from the store and from every analysis.
func (m *Model) DetachObjective(id int) {
	for _, a := range m.Analyses() {
		a.Common().ObjectiveIDs = removeID(a.Common().ObjectiveIDs, id)
	}
	m.Remove(Ref{Kind: KindObjective, ID: id})
}

// Refs returns every stored reference sorted by kind then id.
func (m *Model) Refs() []Ref {
	out := make([]Ref, 0, len(m.entities))
	for r := range m.entities {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].ID < out[j].ID
	})
	return out
}
