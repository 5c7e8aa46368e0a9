package validation

import (
	"context"
	"fmt"
	"sort"

	"astergen/internal/ctxlog"
	"astergen/internal/graphcycle"
	"astergen/pkg/model"
)

// Options tunes the finish pass.
type Options struct {
	// VirtualDiscretes adds zero-stiffness point elements on nodes that are
	// loaded or coupled on DOFs their elements do not provide.
	VirtualDiscretes bool
	// AutoDetectAnalysis creates a static analysis when the model has none.
	AutoDetectAnalysis bool
}

// FinishReport records what the finish pass changed.
type FinishReport struct {
	ExpandedLoadSets     []model.Ref
	AutoAnalysis         model.Ref
	VirtualElementSet    model.Ref
	VirtualConstraintSet model.Ref
	VirtualCells         int
	StrippedConstraints  []model.Ref
	DetachedConstraints  []model.Ref
	DetachedObjectives   []model.Ref
	Ineffective          []model.Ref
	Warnings             []string
}

// Finish prepares a freshly built model for translation. It must run exactly
// once, before validation and emission.
func Finish(ctx context.Context, m *model.Model, opts Options) (FinishReport, error) {
	f := &finisher{m: m, opts: opts}
	steps := []struct {
		name string
		run  func() error
	}{
		{"expand combined load sets", f.expandLoadSets},
		{"detect default analysis", f.detectAnalysis},
		{"assign node dofs", f.assignDOFs},
		{"add virtual discretes", f.addVirtualDiscretes},
		{"strip missing dofs", f.stripDOFs},
		{"drop assertions on missing dofs", f.dropAssertions},
		{"normalize containers", f.normalizeContainers},
		{"mark ineffective entities", f.markIneffective},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return f.report, err
		}
		if err := step.run(); err != nil {
			return f.report, fmt.Errorf("finish model: %s: %w", step.name, err)
		}
	}
	log := ctxlog.FromContext(ctx)
	for _, w := range f.report.Warnings {
		log.Warn(w)
	}
	log.Debug("model finished",
		"virtual_cells", f.report.VirtualCells,
		"stripped_constraints", len(f.report.StrippedConstraints),
		"detached_constraints", len(f.report.DetachedConstraints),
		"detached_objectives", len(f.report.DetachedObjectives),
		"ineffective", len(f.report.Ineffective))
	return f.report, nil
}

type finisher struct {
	m      *model.Model
	opts   Options
	report FinishReport
}

func (f *finisher) warn(format string, args ...any) {
	f.report.Warnings = append(f.report.Warnings, fmt.Sprintf(format, args...))
}

func (f *finisher) expandLoadSets() error {
	var starts []int
	for _, ls := range f.m.LoadSets() {
		if len(ls.Embedded) > 0 {
			starts = append(starts, ls.ID)
		}
	}
	if len(starts) == 0 {
		return nil
	}
	err := graphcycle.Detect(graphcycle.Config[int]{
		Starts: starts,
		Next: func(id int) []int {
			ls, err := f.m.LoadSet(id)
			if err != nil {
				return nil
			}
			out := make([]int, 0, len(ls.Embedded))
			for _, w := range ls.Embedded {
				out = append(out, w.LoadSetID)
			}
			return out
		},
		Exists: func(id int) bool {
			_, err := f.m.LoadSet(id)
			return err == nil
		},
		ReportMissing: true,
	})
	if err != nil {
		return err
	}
	for _, id := range starts {
		ls, _ := f.m.LoadSet(id)
		for _, w := range ls.Embedded {
			if err := f.embed(ls, w.LoadSetID, w.Coef); err != nil {
				return err
			}
		}
		ls.Embedded = nil
		f.report.ExpandedLoadSets = append(f.report.ExpandedLoadSets, ls.Ref())
	}
	return nil
}

// embed copies the loadings of src, scaled by coef, into dst.
func (f *finisher) embed(dst *model.LoadSet, src int, coef float64) error {
	ls, err := f.m.LoadSet(src)
	if err != nil {
		return err
	}
	for _, l := range f.m.LoadingsOf(ls) {
		scaled, ok := model.Scaled(l, coef)
		if !ok {
			if coef != 1 {
				f.warn("%s: %T cannot be scaled by %g in combined load set %d, used unscaled",
					l.Ref(), l, coef, dst.ID)
			}
			dst.LoadingIDs = appendUnique(dst.LoadingIDs, l.Common().ID)
			continue
		}
		base := scaled.Common()
		base.ID, base.OriginalID, base.Virtual = 0, 0, true
		if err := f.m.Add(scaled); err != nil {
			return err
		}
		dst.LoadingIDs = append(dst.LoadingIDs, base.ID)
	}
	for _, w := range ls.Embedded {
		if err := f.embed(dst, w.LoadSetID, coef*w.Coef); err != nil {
			return err
		}
	}
	return nil
}

func (f *finisher) detectAnalysis() error {
	if !f.opts.AutoDetectAnalysis || f.m.Count(model.KindAnalysis) > 0 {
		return nil
	}
	var a model.Analysis = &model.LinearStatic{}
	for _, o := range f.m.Objectives() {
		if s, ok := o.(*model.NonLinearStrategy); ok {
			a = &model.NonLinearStatic{StrategyID: s.ID}
			break
		}
	}
	c := a.Common()
	c.Virtual = true
	for _, ls := range f.m.LoadSets() {
		if ls.Type == model.LoadSetLoad {
			c.LoadSetIDs = append(c.LoadSetIDs, ls.ID)
		}
	}
	for _, cs := range f.m.ConstraintSets() {
		c.ConstraintSetIDs = append(c.ConstraintSetIDs, cs.ID)
	}
	for _, o := range f.m.Objectives() {
		if model.IsAssertion(o) || model.IsOutput(o) {
			c.ObjectiveIDs = append(c.ObjectiveIDs, o.Common().ID)
		}
	}
	if err := f.m.Add(a); err != nil {
		return err
	}
	f.report.AutoAnalysis = a.Ref()
	return nil
}

func (f *finisher) assignDOFs() error {
	mesh := f.m.Mesh
	nodes := mesh.Nodes()
	for i := range nodes {
		nodes[i].DOFs = model.NoDOFs
	}
	for _, es := range f.m.ElementSets() {
		dofs := model.NodalDOFs(es)
		for _, p := range mesh.NodesOf(es.Common().Cells) {
			nodes[p].DOFs = nodes[p].DOFs.Union(dofs)
		}
	}
	for _, c := range f.m.Constraints() {
		if _, ok := c.(*model.RBE3); !ok {
			continue
		}
		for p, d := range model.ConstrainedNodes(c, mesh) {
			if n := mesh.Node(p); n != nil {
				n.DOFs = n.DOFs.Union(d)
			}
		}
	}
	return nil
}

// requiredDOFs lists the DOFs each node must carry for loadings and
// couplings to be meaningful. Single point constraints are left out; their
// extra DOFs are stripped instead.
func (f *finisher) requiredDOFs() map[int]model.DOFS {
	out := make(map[int]model.DOFS)
	merge := func(in map[int]model.DOFS) {
		for p, d := range in {
			out[p] = out[p].Union(d)
		}
	}
	for _, l := range f.m.Loadings() {
		merge(model.LoadedNodes(l, f.m.Mesh))
	}
	for _, c := range f.m.Constraints() {
		if _, ok := c.(*model.SinglePointConstraint); ok || model.IsContact(c) {
			continue
		}
		merge(model.ConstrainedNodes(c, f.m.Mesh))
	}
	return out
}

func (f *finisher) addVirtualDiscretes() error {
	if !f.opts.VirtualDiscretes {
		return nil
	}
	mesh := f.m.Mesh
	required := f.requiredDOFs()
	positions := make([]int, 0, len(required))
	for p := range required {
		positions = append(positions, p)
	}
	sort.Ints(positions)

	var cells []int
	blocked := make(map[model.DOFS][]int)
	var patterns []model.DOFS
	for _, p := range positions {
		n := mesh.Node(p)
		if n == nil || n.DOFs.ContainsAll(required[p]) {
			continue
		}
		cell, err := mesh.AddCell(0, model.Point1, []int{n.ID})
		if err != nil {
			return err
		}
		cells = append(cells, cell)
		block := model.AllDOFs.Without(n.DOFs).Without(required[p])
		n.DOFs = model.AllDOFs
		if block.Empty() {
			continue
		}
		if _, seen := blocked[block]; !seen {
			patterns = append(patterns, block)
		}
		blocked[block] = append(blocked[block], p)
	}
	if len(cells) == 0 {
		return nil
	}
	discrete := &model.DiscretePoint{
		DiscreteCoefficients: model.DiscreteCoefficients{
			Stiffness: make([]float64, 21),
			Symmetric: true,
		},
		Rotations: true,
	}
	discrete.Virtual = true
	discrete.Cells = model.Container{Cells: cells}
	if err := f.m.Add(discrete); err != nil {
		return err
	}
	f.report.VirtualElementSet = discrete.Ref()
	f.report.VirtualCells = len(cells)
	if len(patterns) == 0 {
		return nil
	}

	cs := &model.ConstraintSet{}
	cs.Virtual = true
	for _, pattern := range patterns {
		spc := &model.SinglePointConstraint{
			Nodes: model.OnNodes(blocked[pattern]...),
			DOFs:  pattern,
		}
		spc.Virtual = true
		if err := f.m.Add(spc); err != nil {
			return err
		}
		cs.ConstraintIDs = append(cs.ConstraintIDs, spc.ID)
	}
	if err := f.m.Add(cs); err != nil {
		return err
	}
	for _, a := range f.m.Analyses() {
		a.Common().ConstraintSetIDs = append(a.Common().ConstraintSetIDs, cs.ID)
	}
	f.report.VirtualConstraintSet = cs.Ref()
	return nil
}

func (f *finisher) stripDOFs() error {
	for _, c := range f.m.Constraints() {
		var (
			changed, empty bool
			err            error
		)
		switch v := c.(type) {
		case *model.SinglePointConstraint:
			changed, empty, err = f.stripSPC(v)
		case *model.QuasiRigidConstraint:
			changed, empty = f.stripQuasiRigid(v)
		case *model.LinearMultiPointConstraint:
			changed, empty = f.stripLMPC(v)
		}
		if err != nil {
			return err
		}
		switch {
		case empty:
			f.m.DetachConstraint(c.Common().ID)
			f.report.DetachedConstraints = append(f.report.DetachedConstraints, c.Ref())
		case changed:
			f.report.StrippedConstraints = append(f.report.StrippedConstraints, c.Ref())
		}
	}
	return nil
}

// stripSPC restricts a single point constraint to the DOFs present on its
// nodes. Nodes left with a different DOF pattern move to new constraints
// placed in the same constraint sets.
func (f *finisher) stripSPC(spc *model.SinglePointConstraint) (changed, empty bool, err error) {
	mesh := f.m.Mesh
	byPattern := make(map[model.DOFS][]int)
	var patterns []model.DOFS
	for _, p := range mesh.NodesOf(spc.Nodes) {
		kept := spc.DOFs.Intersect(mesh.Node(p).DOFs)
		if kept != spc.DOFs {
			changed = true
		}
		if kept.Empty() {
			continue
		}
		if _, seen := byPattern[kept]; !seen {
			patterns = append(patterns, kept)
		}
		byPattern[kept] = append(byPattern[kept], p)
	}
	if !changed {
		return false, false, nil
	}
	if len(patterns) == 0 {
		return true, true, nil
	}
	sort.Slice(patterns, func(i, j int) bool { return patterns[i].Len() > patterns[j].Len() })
	spc.Nodes = model.OnNodes(byPattern[patterns[0]]...)
	spc.DOFs = patterns[0]
	sets := f.m.ConstraintSetsContaining(spc.ID)
	for _, pattern := range patterns[1:] {
		split := &model.SinglePointConstraint{
			Nodes:     model.OnNodes(byPattern[pattern]...),
			DOFs:      pattern,
			Values:    spc.Values,
			Functions: spc.Functions,
		}
		split.OriginalID = spc.OriginalID
		split.Virtual = spc.Virtual
		if err := f.m.Add(split); err != nil {
			return true, false, err
		}
		for _, id := range sets {
			cs, _ := f.m.ConstraintSet(id)
			cs.ConstraintIDs = append(cs.ConstraintIDs, split.ID)
		}
	}
	return true, false, nil
}

func (f *finisher) stripQuasiRigid(qr *model.QuasiRigidConstraint) (changed, empty bool) {
	common := qr.DOFs
	for _, p := range qr.Nodes {
		if n := f.m.Mesh.Node(p); n != nil {
			common = common.Intersect(n.DOFs)
		}
	}
	if common == qr.DOFs {
		return false, false
	}
	qr.DOFs = common
	return true, common.Empty()
}

func (f *finisher) stripLMPC(c *model.LinearMultiPointConstraint) (changed, empty bool) {
	terms := c.Terms[:0]
	for _, t := range c.Terms {
		n := f.m.Mesh.Node(t.Node)
		for d := model.DX; d <= model.RZ; d++ {
			if t.Coefs[d] != 0 && (n == nil || !n.DOFs.Contains(d)) {
				t.Coefs[d] = 0
				changed = true
			}
		}
		if t.DOFs().Empty() {
			changed = true
			continue
		}
		terms = append(terms, t)
	}
	c.Terms = terms
	return changed, len(terms) == 0
}

func (f *finisher) dropAssertions() error {
	rbe3Nodes := make(map[int]bool)
	for _, c := range f.m.Constraints() {
		if _, ok := c.(*model.RBE3); ok {
			for p := range model.ConstrainedNodes(c, f.m.Mesh) {
				rbe3Nodes[p] = true
			}
		}
	}
	for _, o := range f.m.Objectives() {
		var node int
		var dof model.DOF
		switch v := o.(type) {
		case *model.NodalDisplacementAssertion:
			node, dof = v.Node, v.DOF
		case *model.NodalComplexDisplacementAssertion:
			node, dof = v.Node, v.DOF
		default:
			continue
		}
		if rbe3Nodes[node] {
			continue
		}
		if n := f.m.Mesh.Node(node); n != nil && n.DOFs.Contains(dof) {
			continue
		}
		f.m.DetachObjective(o.Common().ID)
		f.report.DetachedObjectives = append(f.report.DetachedObjectives, o.Ref())
	}
	return nil
}

func (f *finisher) normalizeContainers() error {
	mesh := f.m.Mesh
	normalize := func(c *model.Container) {
		if c.All {
			c.CellGroups, c.Cells, c.NodeGroups, c.Nodes = nil, nil, nil, nil
			return
		}
		c.Cells = uncovered(c.Cells, func(p int) bool {
			for _, g := range c.CellGroups {
				if mesh.InCellGroup(g, p) {
					return true
				}
			}
			return false
		})
		c.Nodes = uncovered(c.Nodes, func(p int) bool {
			for _, g := range c.NodeGroups {
				if mesh.InNodeGroup(g, p) {
					return true
				}
			}
			return false
		})
	}
	for _, es := range f.m.ElementSets() {
		normalize(&es.Common().Cells)
	}
	for _, c := range f.m.Constraints() {
		if spc, ok := c.(*model.SinglePointConstraint); ok {
			normalize(&spc.Nodes)
		}
	}
	for _, l := range f.m.Loadings() {
		if c := loadingContainer(l); c != nil {
			normalize(c)
		}
	}
	for _, o := range f.m.Objectives() {
		switch v := o.(type) {
		case *model.NodalDisplacementOutput:
			normalize(&v.Nodes)
		case *model.VonMisesStressOutput:
			normalize(&v.Cells)
		}
	}
	return nil
}

func uncovered(positions []int, covered func(int) bool) []int {
	if len(positions) == 0 {
		return positions
	}
	out := positions[:0]
	seen := make(map[int]bool, len(positions))
	for _, p := range positions {
		if seen[p] || covered(p) {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (f *finisher) markIneffective() error {
	mesh := f.m.Mesh
	mark := func(flag *bool, ref model.Ref, empty bool) {
		*flag = empty
		if empty {
			f.report.Ineffective = append(f.report.Ineffective, ref)
		}
	}
	for _, es := range f.m.ElementSets() {
		base := es.Common()
		mark(&base.Ineffective, es.Ref(), len(mesh.CellsOf(base.Cells)) == 0)
	}
	for _, l := range f.m.Loadings() {
		empty := false
		if c := loadingContainer(l); c != nil {
			empty = mesh.IsEmpty(*c)
		}
		mark(&l.Common().Ineffective, l.Ref(), empty)
	}
	for _, c := range f.m.Constraints() {
		mark(&c.Common().Ineffective, c.Ref(), constraintEmpty(c, mesh))
	}
	return nil
}

func constraintEmpty(c model.Constraint, mesh *model.Mesh) bool {
	switch v := c.(type) {
	case *model.SinglePointConstraint:
		return mesh.IsEmpty(v.Nodes)
	case *model.RigidConstraint:
		return len(v.Slaves) == 0
	case *model.QuasiRigidConstraint:
		return len(v.Nodes) < 2 || v.DOFs.Empty()
	case *model.LinearMultiPointConstraint:
		return len(v.Terms) == 0
	case *model.RBE3:
		return len(v.Slaves) == 0
	case *model.Gap:
		return len(v.Participations) == 0
	case *model.SlideContact:
		return mesh.CellGroupSize(v.Master) == 0 || mesh.CellGroupSize(v.Slave) == 0
	case *model.SurfaceContact:
		return mesh.CellGroupSize(v.Master) == 0 || mesh.CellGroupSize(v.Slave) == 0
	case *model.ZoneContact:
		return mesh.CellGroupSize(v.Master) == 0 || mesh.CellGroupSize(v.Slave) == 0
	case *model.SurfaceSlide:
		return mesh.CellGroupSize(v.Master) == 0 || mesh.CellGroupSize(v.Slave) == 0
	}
	return false
}

func loadingContainer(l model.Loading) *model.Container {
	switch v := l.(type) {
	case *model.NodalForce:
		return &v.Nodes
	case *model.Pressure:
		return &v.Cells
	case *model.ShellPressure:
		return &v.Cells
	case *model.SurfaceForce:
		return &v.Cells
	case *model.LineForce:
		return &v.Cells
	case *model.ImposedDisplacement:
		return &v.Nodes
	}
	return nil
}

func appendUnique(ids []int, id int) []int {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

