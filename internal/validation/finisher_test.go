package validation

import (
	"context"
	"errors"
	"testing"

	"astergen/internal/graphcycle"
	"astergen/pkg/model"
)

// hexaModel builds a single HEXA8 continuum on nodes 50..57 (positions 0..7)
// assigned through cell group GM1.
func hexaModel(t *testing.T) *model.Model {
	t.Helper()
	m := model.New("hexa")
	coords := [][3]float64{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	}
	ids := []int{50, 51, 52, 53, 54, 55, 56, 57}
	for i, c := range coords {
		if _, err := m.Mesh.AddNode(ids[i], c[0], c[1], c[2]); err != nil {
			t.Fatalf("add node: %v", err)
		}
	}
	if _, err := m.Mesh.AddCell(1, model.Hexa8, ids); err != nil {
		t.Fatalf("add cell: %v", err)
	}
	if _, err := m.Mesh.AddCellGroup("GM1", []int{1}); err != nil {
		t.Fatalf("add group: %v", err)
	}
	mat := &model.Material{Natures: []model.Nature{&model.ElasticNature{E: 210000, Nu: 0.3}}}
	solid := &model.Continuum{}
	solid.Cells = model.OnCellGroups("GM1")
	m.MustAdd(mat)
	solid.MaterialIDs = []int{mat.ID}
	m.MustAdd(solid)
	return m
}

func mustFinish(t *testing.T, m *model.Model, opts Options) FinishReport {
	t.Helper()
	report, err := Finish(context.Background(), m, opts)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	return report
}

func nodalForce(force, moment model.Vector, positions ...int) *model.NodalForce {
	return &model.NodalForce{Nodes: model.OnNodes(positions...), Force: force, Moment: moment}
}

func TestFinishAddsVirtualDiscretesForMoments(t *testing.T) {
	m := hexaModel(t)
	f1 := nodalForce(model.Vector{}, model.Vec(1, 0, 0), 1)
	f2 := nodalForce(model.Vec(1, 0, 0), model.Vector{}, 2)
	f3 := nodalForce(model.Vector{}, model.Vec(1, 0, 1), 3)
	m.MustAdd(f1, f2, f3)
	ls := &model.LoadSet{Type: model.LoadSetLoad, LoadingIDs: []int{f1.ID, f2.ID, f3.ID}}
	m.MustAdd(ls)
	analysis := &model.LinearStatic{}
	analysis.LoadSetIDs = []int{ls.ID}
	m.MustAdd(analysis)

	report := mustFinish(t, m, Options{VirtualDiscretes: true})

	if report.VirtualCells != 2 {
		t.Fatalf("expected 2 virtual cells, got %d", report.VirtualCells)
	}
	var discretes []*model.DiscretePoint
	for _, es := range m.ElementSets() {
		if d, ok := es.(*model.DiscretePoint); ok {
			discretes = append(discretes, d)
		}
	}
	if len(discretes) != 1 || !discretes[0].Virtual || !discretes[0].Rotations {
		t.Fatalf("expected one virtual rotational discrete, got %+v", discretes)
	}
	for pos, want := range map[int]model.DOFS{1: model.AllDOFs, 2: model.Translations, 3: model.AllDOFs} {
		if got := m.Mesh.Node(pos).DOFs; got != want {
			t.Fatalf("node %d: expected dofs %s, got %s", pos, want, got)
		}
	}
	cs, err := m.ConstraintSet(report.VirtualConstraintSet.ID)
	if err != nil {
		t.Fatalf("virtual constraint set: %v", err)
	}
	if len(cs.ConstraintIDs) != 2 {
		t.Fatalf("expected one blocking spc per dof pattern, got %v", cs.ConstraintIDs)
	}
	blocked := map[model.DOFS][]int{}
	for _, c := range m.ConstraintsOf(cs) {
		spc := c.(*model.SinglePointConstraint)
		blocked[spc.DOFs] = spc.Nodes.Nodes
	}
	if got := blocked[model.DOFSOf(model.RY, model.RZ)]; len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected RY RZ blocked on node 1, got %v", blocked)
	}
	if got := blocked[model.DOFSOf(model.RY)]; len(got) != 1 || got[0] != 3 {
		t.Fatalf("expected RY blocked on node 3, got %v", blocked)
	}
	if ids := analysis.ConstraintSetIDs; len(ids) != 1 || ids[0] != cs.ID {
		t.Fatalf("expected virtual set attached to analysis, got %v", ids)
	}
}

func TestFinishWithoutVirtualDiscretesKeepsMesh(t *testing.T) {
	m := hexaModel(t)
	m.MustAdd(nodalForce(model.Vector{}, model.Vec(1, 0, 0), 1))
	report := mustFinish(t, m, Options{})
	if report.VirtualCells != 0 || m.Mesh.CellCount() != 1 {
		t.Fatalf("expected no virtual cells, got %d", m.Mesh.CellCount())
	}
	if got := m.Mesh.Node(1).DOFs; got != model.Translations {
		t.Fatalf("expected translations only, got %s", got)
	}
}

func TestFinishExpandsCombinedLoadSets(t *testing.T) {
	m := model.New("combined")
	if _, err := m.Mesh.AddNode(1, 0, 0, 0); err != nil {
		t.Fatalf("add node: %v", err)
	}
	force1 := nodalForce(model.Vec(1, 0, 0), model.Vector{}, 0)
	force3 := nodalForce(model.Vec(3, 0, 0), model.Vector{}, 0)
	force2 := nodalForce(model.Vec(2, 0, 0), model.Vector{}, 0)
	m.MustAdd(force1, force3, force2)
	ls1 := &model.LoadSet{Type: model.LoadSetLoad, LoadingIDs: []int{force1.ID, force3.ID}}
	ls1.ID = 1
	ls3 := &model.LoadSet{Type: model.LoadSetLoad, LoadingIDs: []int{force2.ID}}
	ls3.ID = 3
	combination := &model.LoadSet{Type: model.LoadSetLoad, Embedded: []model.WeightedLoadSet{
		{LoadSetID: 1, Coef: 5}, {LoadSetID: 3, Coef: 7},
	}}
	combination.ID = 10
	m.MustAdd(ls1, ls3, combination)

	report := mustFinish(t, m, Options{})

	if len(report.ExpandedLoadSets) != 1 || report.ExpandedLoadSets[0] != combination.Ref() {
		t.Fatalf("expected combination expanded, got %v", report.ExpandedLoadSets)
	}
	loadings := m.LoadingsOf(combination)
	if len(loadings) != 3 {
		t.Fatalf("expected 3 loadings, got %d", len(loadings))
	}
	want := []float64{5, 15, 14}
	for i, l := range loadings {
		nf := l.(*model.NodalForce)
		if nf.Force.X != want[i] {
			t.Fatalf("loading %d: expected %g, got %g", i, want[i], nf.Force.X)
		}
		if !nf.Virtual {
			t.Fatalf("loading %d: expected virtual copy", i)
		}
	}
	if combination.Embedded != nil {
		t.Fatalf("expected embedded list cleared")
	}
	if force1.Force.X != 1 {
		t.Fatalf("source loading modified: %g", force1.Force.X)
	}
}

func TestFinishRejectsCyclicCombinedLoadSets(t *testing.T) {
	m := model.New("cyclic")
	a := &model.LoadSet{Type: model.LoadSetLoad, Embedded: []model.WeightedLoadSet{{LoadSetID: 2, Coef: 1}}}
	a.ID = 1
	b := &model.LoadSet{Type: model.LoadSetLoad, Embedded: []model.WeightedLoadSet{{LoadSetID: 1, Coef: 1}}}
	b.ID = 2
	m.MustAdd(a, b)
	_, err := Finish(context.Background(), m, Options{})
	var cycle graphcycle.CycleError[int]
	if !errors.As(err, &cycle) {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestFinishAutoDetectsAnalysis(t *testing.T) {
	m := model.New("auto")
	report := mustFinish(t, m, Options{AutoDetectAnalysis: true})
	analyses := m.Analyses()
	if len(analyses) != 1 || analyses[0].Kind() != model.KindLinearStatic {
		t.Fatalf("expected one linear static analysis, got %v", analyses)
	}
	if report.AutoAnalysis != analyses[0].Ref() || !model.IsVirtual(analyses[0]) {
		t.Fatalf("expected virtual auto analysis reported, got %v", report.AutoAnalysis)
	}

	m = model.New("auto nonlinear")
	s := &model.NonLinearStrategy{Increments: 1}
	m.MustAdd(s)
	mustFinish(t, m, Options{AutoDetectAnalysis: true})
	analyses = m.Analyses()
	if len(analyses) != 1 || analyses[0].Kind() != model.KindNonLinearStatic {
		t.Fatalf("expected one nonlinear analysis, got %v", analyses)
	}
	if nl := analyses[0].(*model.NonLinearStatic); nl.StrategyID != s.ID {
		t.Fatalf("expected strategy %d, got %d", s.ID, nl.StrategyID)
	}
}

func TestFinishAutoDetectionSkippedWhenDisabled(t *testing.T) {
	m := model.New("manual")
	mustFinish(t, m, Options{})
	if n := m.Count(model.KindAnalysis); n != 0 {
		t.Fatalf("expected no analysis, got %d", n)
	}
}

func TestFinishRemovesAssertionsOnMissingDOFs(t *testing.T) {
	m := hexaModel(t)
	kept := &model.NodalDisplacementAssertion{Node: 0, DOF: model.DZ, Value: 1, Tolerance: 1e-4}
	dropped := &model.NodalDisplacementAssertion{Node: 1, DOF: model.RX, Value: 1, Tolerance: 1e-4}
	m.MustAdd(kept, dropped)
	analysis := &model.LinearStatic{}
	analysis.ObjectiveIDs = []int{kept.ID, dropped.ID}
	m.MustAdd(analysis)

	report := mustFinish(t, m, Options{})

	if m.Count(model.KindObjective) != 1 {
		t.Fatalf("expected one objective left, got %d", m.Count(model.KindObjective))
	}
	if ids := analysis.ObjectiveIDs; len(ids) != 1 || ids[0] != kept.ID {
		t.Fatalf("expected only kept assertion attached, got %v", ids)
	}
	if len(report.DetachedObjectives) != 1 || report.DetachedObjectives[0] != dropped.Ref() {
		t.Fatalf("unexpected detached objectives %v", report.DetachedObjectives)
	}
}

func TestFinishKeepsAssertionsOnRBE3Nodes(t *testing.T) {
	m := model.New("rbe3")
	m.Mesh.AddNode(100, 0, 0, 0)
	m.Mesh.AddNode(101, 1, 1, 1)
	rbe3 := &model.RBE3{Master: 0, MasterDOFs: model.AllDOFs, Slaves: []model.RBE3Slave{{Node: 1, DOFs: model.AllDOFs, Coef: 42}}}
	m.MustAdd(rbe3)
	cs := &model.ConstraintSet{ConstraintIDs: []int{rbe3.ID}}
	a1 := &model.NodalDisplacementAssertion{Node: 0, DOF: model.DZ, Value: 1, Tolerance: 1e-4}
	a2 := &model.NodalDisplacementAssertion{Node: 1, DOF: model.RX, Value: 1, Tolerance: 1e-4}
	m.MustAdd(cs, a1, a2)
	analysis := &model.LinearStatic{}
	analysis.ConstraintSetIDs = []int{cs.ID}
	analysis.ObjectiveIDs = []int{a1.ID, a2.ID}
	m.MustAdd(analysis)

	mustFinish(t, m, Options{})

	if len(analysis.ObjectiveIDs) != 2 || m.Count(model.KindObjective) != 2 {
		t.Fatalf("expected both assertions kept, got %v", analysis.ObjectiveIDs)
	}
}

func TestFinishStripsSPCDOFs(t *testing.T) {
	m := hexaModel(t)
	spc := &model.SinglePointConstraint{Nodes: model.OnNodes(0), DOFs: model.AllDOFs}
	m.MustAdd(spc)
	cs := &model.ConstraintSet{ConstraintIDs: []int{spc.ID}}
	m.MustAdd(cs)

	report := mustFinish(t, m, Options{})

	if spc.DOFs != model.Translations {
		t.Fatalf("expected translations, got %s", spc.DOFs)
	}
	if len(report.StrippedConstraints) != 1 || report.StrippedConstraints[0] != spc.Ref() {
		t.Fatalf("expected spc reported as stripped, got %v", report.StrippedConstraints)
	}
}

func TestFinishSplitsSPCByNodePattern(t *testing.T) {
	m := hexaModel(t)
	m.Mesh.AddNode(58, 2, 0, 0)
	m.Mesh.AddCell(2, model.Seg2, []int{51, 58})
	m.Mesh.AddCellGroup("BEAM", []int{2})
	beam := &model.CircularBeam{Theory: model.EulerBeam, Radius: 0.1}
	beam.Cells = model.OnCellGroups("BEAM")
	m.MustAdd(beam)
	spc := &model.SinglePointConstraint{Nodes: model.OnNodes(0, 8), DOFs: model.AllDOFs}
	m.MustAdd(spc)
	cs := &model.ConstraintSet{ConstraintIDs: []int{spc.ID}}
	m.MustAdd(cs)

	mustFinish(t, m, Options{})

	if spc.DOFs != model.AllDOFs || len(spc.Nodes.Nodes) != 1 || spc.Nodes.Nodes[0] != 8 {
		t.Fatalf("expected original spc on beam node with all dofs, got %s on %v", spc.DOFs, spc.Nodes.Nodes)
	}
	if len(cs.ConstraintIDs) != 2 {
		t.Fatalf("expected split constraint in the same set, got %v", cs.ConstraintIDs)
	}
	split, err := m.Constraint(cs.ConstraintIDs[1])
	if err != nil {
		t.Fatalf("split constraint: %v", err)
	}
	s := split.(*model.SinglePointConstraint)
	if s.DOFs != model.Translations || len(s.Nodes.Nodes) != 1 || s.Nodes.Nodes[0] != 0 {
		t.Fatalf("expected translations on solid node, got %s on %v", s.DOFs, s.Nodes.Nodes)
	}
}

func TestFinishDetachesConstraintsWithoutDOFs(t *testing.T) {
	m := hexaModel(t)
	m.Mesh.AddNode(99, 5, 5, 5)
	spc := &model.SinglePointConstraint{Nodes: model.OnNodes(8), DOFs: model.Rotations}
	lmpc := &model.LinearMultiPointConstraint{Terms: []model.LMPCTerm{
		{Node: 0, Coefs: [6]float64{1, 0, 0, 1, 0, 0}},
		{Node: 8, Coefs: [6]float64{1, 0, 0, 0, 0, 0}},
	}}
	m.MustAdd(spc, lmpc)
	cs := &model.ConstraintSet{ConstraintIDs: []int{spc.ID, lmpc.ID}}
	m.MustAdd(cs)

	report := mustFinish(t, m, Options{})

	if _, err := m.Constraint(spc.ID); err == nil {
		t.Fatalf("expected spc detached")
	}
	if len(cs.ConstraintIDs) != 1 || cs.ConstraintIDs[0] != lmpc.ID {
		t.Fatalf("expected only lmpc left, got %v", cs.ConstraintIDs)
	}
	if len(lmpc.Terms) != 1 || lmpc.Terms[0].DOFs() != model.DOFSOf(model.DX) {
		t.Fatalf("expected lmpc reduced to DX on node 0, got %+v", lmpc.Terms)
	}
	if len(report.DetachedConstraints) != 1 || len(report.StrippedConstraints) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestFinishNormalizesContainers(t *testing.T) {
	m := hexaModel(t)
	m.Mesh.AddNodeGroup("BASE", []int{50, 51})
	force := &model.NodalForce{
		Nodes: model.Container{NodeGroups: []string{"BASE"}, Nodes: []int{0, 1, 2, 2}},
		Force: model.Vec(0, 0, -1),
	}
	m.MustAdd(force)

	mustFinish(t, m, Options{})

	if got := force.Nodes.Nodes; len(got) != 1 || got[0] != 2 {
		t.Fatalf("expected only uncovered position 2, got %v", got)
	}
}

func TestFinishMarksIneffectiveEntities(t *testing.T) {
	m := hexaModel(t)
	m.Mesh.AddCellGroup("EMPTY", nil)
	shell := &model.Shell{Thickness: 1}
	shell.Cells = model.OnCellGroups("EMPTY")
	pressure := &model.ShellPressure{Cells: model.OnCellGroups("EMPTY"), Intensity: 1}
	gravity := &model.Gravity{Acceleration: 9.81, Direction: model.Vec(0, 0, -1)}
	contact := &model.SurfaceContact{Master: "GM1", Slave: "EMPTY"}
	m.MustAdd(shell, pressure, gravity, contact)

	report := mustFinish(t, m, Options{})

	if shell.Effective() || pressure.Effective() || contact.Effective() {
		t.Fatalf("expected empty assignments ineffective")
	}
	if !gravity.Effective() {
		t.Fatalf("gravity has no container and stays effective")
	}
	if len(report.Ineffective) != 3 {
		t.Fatalf("expected 3 ineffective entities, got %v", report.Ineffective)
	}
}

func TestFinishHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Finish(ctx, model.New("cancel"), Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}
