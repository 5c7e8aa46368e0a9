package resolver

import (
	"fmt"

	"astergen/pkg/model"
)

// timeline is the pseudo-time axis shared by chained nonlinear analyses.
type timeline struct {
	cursor float64
	ends   map[int]float64
}

func newTimeline() *timeline {
	return &timeline{ends: make(map[int]float64)}
}

// advance computes the interval of a nonlinear analysis. Without a
// predecessor the cursor restarts at zero, otherwise it resumes from the
// predecessor's end.
func (t *timeline) advance(m *model.Model, a *model.NonLinearStatic) (Interval, error) {
	strategy, err := model.Get[*model.NonLinearStrategy](m, model.KindObjective, a.StrategyID)
	if err != nil {
		return Interval{}, fmt.Errorf("%s: nonlinear strategy: %w", a.Ref(), err)
	}
	if strategy.Increments < 1 {
		return Interval{}, fmt.Errorf("%s: nonlinear strategy %d has %d increments", a.Ref(), strategy.ID, strategy.Increments)
	}
	if a.PreviousID == 0 {
		t.cursor = 0
	} else {
		end, ok := t.ends[a.PreviousID]
		if !ok {
			return Interval{}, fmt.Errorf("%s: predecessor %d has no interval", a.Ref(), a.PreviousID)
		}
		t.cursor = end
	}
	iv := Interval{Start: t.cursor, End: t.cursor + 1.0, Increments: strategy.Increments}
	t.cursor = iv.End
	t.ends[a.ID] = iv.End
	return iv, nil
}
