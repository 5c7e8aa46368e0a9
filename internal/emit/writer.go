// Package emit writes the solver command file of a finished model.
//
// Sections are written in a fixed order: mesh, model assignment, values,
// materials, element characteristics, constraint and load sets, contact
// definitions, then one block per analysis followed by its post-processing.
// Everything is buffered; the destination only receives a complete file.
package emit

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"astergen/internal/audit"
	"astergen/internal/concept"
	"astergen/internal/ctxlog"
	"astergen/internal/lifecycle"
	"astergen/internal/resolver"
	"astergen/pkg/model"
)

// DefaultMeshUnit is the logical unit the mesh file is bound to.
const DefaultMeshUnit = 20

// Options tunes the command file.
type Options struct {
	Producer        string
	ProducerVersion string
	SolverVersion   string
	// Debug raises solver verbosity and checks the quality of small meshes.
	Debug bool
	// StressRecovery adds section stresses of beams to static results.
	StressRecovery bool
	// MeshUnit defaults to DefaultMeshUnit.
	MeshUnit int
}

// UnsupportedError reports an entity the command file cannot express.
type UnsupportedError struct {
	Ref  model.Ref
	What string
}

func (e *UnsupportedError) Error() string {
	if e.Ref.IsZero() {
		return "unsupported " + e.What
	}
	return fmt.Sprintf("%s: unsupported %s", e.Ref, e.What)
}

func unsupported(e model.Entity, format string, args ...any) error {
	return &UnsupportedError{Ref: e.Ref(), What: fmt.Sprintf(format, args...)}
}

// Comm writes the command file of a finished model to out. Nothing is
// written to out when an error is returned. The audit context lists the
// entities that reached the file and the notices raised on the way.
func Comm(ctx context.Context, m *model.Model, plan *resolver.Plan, out io.Writer, opts Options) (*audit.Context, error) {
	w := newWriter(m, plan, opts, audit.New(ctxlog.FromContext(ctx)))
	if err := w.comm(ctx); err != nil {
		return w.audit, fmt.Errorf("write command file: %w", err)
	}
	if _, err := w.buf.WriteTo(out); err != nil {
		return w.audit, fmt.Errorf("write command file: %w", err)
	}
	return w.audit, nil
}

type writer struct {
	m       *model.Model
	mesh    *model.Mesh
	plan    *resolver.Plan
	opts    Options
	audit   *audit.Context
	tracker *lifecycle.Tracker
	buf     bytes.Buffer
	err     error

	largeDisplacements bool
	hasMaterials       bool
	hasElements        bool
	// calcSigm is set once a composite requires layer stresses.
	calcSigm bool

	constraintLoads map[int][]string
	loads           map[int][]string
	contacts        map[int]string
	// borrowed maps an analysis to the earlier result it reads instead of
	// computing its own.
	borrowed map[int]string
}

func newWriter(m *model.Model, plan *resolver.Plan, opts Options, a *audit.Context) *writer {
	if opts.MeshUnit == 0 {
		opts.MeshUnit = DefaultMeshUnit
	}
	return &writer{
		m:                  m,
		mesh:               m.Mesh,
		plan:               plan,
		opts:               opts,
		audit:              a,
		tracker:            lifecycle.NewTracker(),
		largeDisplacements: m.ParameterBool(model.ParamLargeDisplacements),
		hasMaterials:       m.Count(model.KindMaterial) > 0,
		hasElements:        m.Count(model.KindElementSet) > 0,
		constraintLoads:    make(map[int][]string),
		loads:              make(map[int][]string),
		contacts:           make(map[int]string),
		borrowed:           make(map[int]string),
	}
}

func (w *writer) comm(ctx context.Context) error {
	sections := []struct {
		name string
		fn   func()
	}{
		{"header", w.header},
		{"mesh", w.readMesh},
		{"model", w.assignModel},
		{"values", w.values},
		{"materials", w.materials},
		{"element characteristics", w.characteristics},
		{"constraint sets", w.constraintSets},
		{"load sets", w.loadSets},
		{"contact", w.contactSets},
	}
	for _, s := range sections {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.fn()
		if w.err != nil {
			return fmt.Errorf("%s: %w", s.name, w.err)
		}
	}
	for _, step := range w.plan.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.analysis(step)
		if w.err != nil {
			return fmt.Errorf("%s: %w", step.Analysis.Ref(), w.err)
		}
	}
	w.p("FIN(RETASSAGE='OUI')\n")
	return w.err
}

func (w *writer) p(format string, args ...any) {
	fmt.Fprintf(&w.buf, format, args...)
}

func (w *writer) s(text string) {
	w.buf.WriteString(text)
}

func (w *writer) fail(err error) {
	if w.err == nil && err != nil {
		w.err = err
	}
}

// name validates a concept name before it is written.
func (w *writer) name(n string) string {
	w.fail(concept.Check(n))
	return n
}

// release schedules a concept for destruction once the analysis is closed.
func (w *writer) release(names ...string) {
	for _, n := range names {
		w.tracker.Register(n)
	}
}

// warn writes a comment and records a warning for e.
func (w *writer) warn(e model.Entity, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	w.p("# WARN %s\n", msg)
	w.audit.Warn(e.Ref(), "%s", msg)
}

// omit writes a comment and records that e was skipped.
func (w *writer) omit(e model.Entity, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	w.p("# Ignoring %s: %s\n", e.Ref(), msg)
	w.audit.Omit(e.Ref(), "%s", msg)
}

func (w *writer) header() {
	producer := w.opts.Producer
	if producer == "" {
		producer = "astergen"
	}
	w.p("#%s version %s\n", producer, w.opts.ProducerVersion)
	w.p("#Aster version %s\n", w.opts.SolverVersion)
	w.s("DEBUT(PAR_LOT='NON', IGNORE_ALARM=('SUPERVIS_1'))\n\n")
}

// excitations lists the CHARGE entries of an analysis: its static load sets
// then its constraint sets, contact-only sets excepted.
func (w *writer) excitations(a model.Analysis) []string {
	var out []string
	for _, ls := range w.m.LoadSetsOf(a) {
		out = append(out, w.loads[ls.ID]...)
	}
	for _, cs := range w.m.ConstraintSetsOf(a) {
		out = append(out, w.constraintLoads[cs.ID]...)
	}
	return out
}

// common writes the model, material field and element characteristics
// keywords shared by most operators.
func (w *writer) common(indent string) {
	w.p("%sMODELE=MODMECA,\n", indent)
	if w.hasMaterials {
		w.p("%sCHAM_MATER=CHMAT,\n", indent)
	}
	if w.hasElements {
		w.p("%sCARA_ELEM=CAEL,\n", indent)
	}
}
