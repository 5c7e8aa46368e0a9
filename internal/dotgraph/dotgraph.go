// Package dotgraph renders the entities an analysis depends on as a graphviz
// digraph.
package dotgraph

import (
	"fmt"
	"io"
	"strings"

	"astergen/internal/resolver"
	"astergen/pkg/model"
)

type graph struct {
	b     strings.Builder
	nodes map[model.Ref]bool
}

func (g *graph) node(e model.Entity, shape string) {
	ref := e.Ref()
	if g.nodes[ref] {
		return
	}
	g.nodes[ref] = true
	label := strings.TrimPrefix(fmt.Sprintf("%T", e), "*model.")
	if a, ok := e.(model.Analysis); ok {
		label = string(a.Kind())
	}
	label = fmt.Sprintf("%s %d", label, ref.ID)
	if o := model.OriginalIDOf(e); o != 0 {
		label += fmt.Sprintf("\\n(original %d)", o)
	}
	fmt.Fprintf(&g.b, "  %q [shape=%s, label=\"%s\"];\n", ref.String(), shape, label)
}

func (g *graph) edge(from, to model.Entity, label string) {
	if label == "" {
		fmt.Fprintf(&g.b, "  %q -> %q;\n", from.Ref().String(), to.Ref().String())
		return
	}
	fmt.Fprintf(&g.b, "  %q -> %q [label=%q];\n", from.Ref().String(), to.Ref().String(), label)
}

// Write renders analysis a with its load and constraint sets, their members,
// its objectives and the analyses it reads results from. plan may be nil, in
// which case eigen basis reuse is not shown.
func Write(out io.Writer, m *model.Model, plan *resolver.Plan, a model.Analysis) error {
	g := &graph{nodes: make(map[model.Ref]bool)}
	fmt.Fprintf(&g.b, "digraph analysis_%d {\n  rankdir=LR;\n", a.Common().ID)
	g.node(a, "doubleoctagon")

	for _, ls := range m.LoadSetsOf(a) {
		g.node(ls, "folder")
		g.edge(a, ls, "")
		for _, l := range m.LoadingsOf(ls) {
			g.node(l, "box")
			g.edge(ls, l, "")
		}
	}
	for _, cs := range m.ConstraintSetsOf(a) {
		g.node(cs, "folder")
		g.edge(a, cs, "")
		for _, c := range m.ConstraintsOf(cs) {
			g.node(c, "box")
			g.edge(cs, c, "")
		}
	}
	for _, o := range m.ObjectivesOf(a) {
		g.node(o, "note")
		g.edge(a, o, "")
	}

	deps := func(id int, label string) error {
		d, err := m.Analysis(id)
		if err != nil {
			return fmt.Errorf("%s: %w", a.Ref(), err)
		}
		g.node(d, "ellipse")
		g.edge(a, d, label)
		return nil
	}
	switch v := a.(type) {
	case *model.NonLinearStatic:
		if v.PreviousID != 0 {
			if err := deps(v.PreviousID, "continues"); err != nil {
				return err
			}
		}
	case *model.LinearBuckling:
		if err := deps(v.StaticID, "prestress"); err != nil {
			return err
		}
	case *model.Combination:
		for _, t := range v.Terms {
			if err := deps(t.AnalysisID, fmt.Sprintf("x%g", t.Coef)); err != nil {
				return err
			}
		}
	}
	if plan != nil {
		if s, ok := plan.Step(a.Common().ID); ok && s.Reuse != nil {
			g.node(s.Reuse, "ellipse")
			g.edge(a, s.Reuse, "reuses basis")
		}
	}
	g.b.WriteString("}\n")
	if _, err := io.WriteString(out, g.b.String()); err != nil {
		return fmt.Errorf("write graph: %w", err)
	}
	return nil
}
