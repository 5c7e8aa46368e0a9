package resolver

import (
	"sort"

	"astergen/pkg/model"
)

// ReusableAnalysisFor returns the earliest analysis declared before a whose
// eigen basis is equivalent to the one a would compute: same constraint sets
// and an equivalent frequency search. It returns nil when none exists or
// when a does not extract an eigen basis of its own.
func ReusableAnalysisFor(m *model.Model, a model.Analysis) model.Analysis {
	if !reusesBasis(a) {
		return nil
	}
	search := frequencySearch(m, a)
	if search == nil {
		return nil
	}
	id := a.Common().ID
	for _, candidate := range m.Analyses() {
		if candidate.Common().ID == id {
			return nil
		}
		if !reusesBasis(candidate) {
			continue
		}
		if !sameIDs(candidate.Common().ConstraintSetIDs, a.Common().ConstraintSetIDs) {
			continue
		}
		if search.Equivalent(frequencySearch(m, candidate)) {
			return candidate
		}
	}
	return nil
}

// CanBeReused reports whether a later analysis borrows the basis of a.
func CanBeReused(m *model.Model, a model.Analysis) bool {
	id := a.Common().ID
	for _, later := range m.Analyses()[m.AnalysisPosition(id)+1:] {
		if r := ReusableAnalysisFor(m, later); r != nil && r.Common().ID == id {
			return true
		}
	}
	return false
}

func reusesBasis(a model.Analysis) bool {
	switch a.(type) {
	case *model.LinearModal, *model.ModalFrequency:
		return true
	}
	return false
}

func frequencySearch(m *model.Model, a model.Analysis) *model.FrequencySearch {
	fs, err := model.Get[*model.FrequencySearch](m, model.KindObjective, model.SearchIDOf(a))
	if err != nil {
		return nil
	}
	return fs
}

func sameIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]int(nil), a...)
	y := append([]int(nil), b...)
	sort.Ints(x)
	sort.Ints(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
