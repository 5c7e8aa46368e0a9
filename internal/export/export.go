// Package export writes the control file that tells the solver launcher which
// files make up a job.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Masterminds/semver/v3"

	"astergen/pkg/model"
)

const (
	// DefaultSolverConstraint accepts the solver releases whose command
	// syntax the command file uses.
	DefaultSolverConstraint = ">= 13.0"
	DefaultSolverVersion    = "stable"
	DefaultMemjeveux        = 64.0
	DefaultTpmax            = 36000
)

// ErrSolverVersion reports a solver release outside of the accepted range.
var ErrSolverVersion = errors.New("unsupported solver version")

// Options describes the job.
type Options struct {
	// Job is the base name shared by every job file.
	Job             string
	ProducerVersion string
	// SolverVersion is either a release number or a launcher alias such as
	// "stable" or "testing"; only release numbers are checked.
	SolverVersion    string
	SolverConstraint string
	Memjeveux        float64
	Tpmax            int
	MeshUnit         int
}

func (o *Options) defaults() {
	if o.SolverVersion == "" {
		o.SolverVersion = DefaultSolverVersion
	}
	if o.SolverConstraint == "" {
		o.SolverConstraint = DefaultSolverConstraint
	}
	if o.Memjeveux == 0 {
		o.Memjeveux = DefaultMemjeveux
	}
	if o.Tpmax == 0 {
		o.Tpmax = DefaultTpmax
	}
	if o.MeshUnit == 0 {
		o.MeshUnit = 20
	}
}

// CheckSolverVersion validates a release number against a constraint.
// Launcher aliases are accepted as is.
func CheckSolverVersion(version, constraint string) error {
	if constraint == "" {
		constraint = DefaultSolverConstraint
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("solver constraint %q: %w", constraint, err)
	}
	if !numeric(version) {
		return nil
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("solver version %q: %w", version, err)
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrSolverVersion, version, constraint)
	}
	return nil
}

func numeric(version string) bool {
	v := strings.TrimPrefix(strings.TrimSpace(version), "v")
	return v != "" && v[0] >= '0' && v[0] <= '9'
}

// Write writes the export file of a job. The copy_result_alarm line is only
// present for a model without analysis.
func Write(out io.Writer, m *model.Model, opts Options) error {
	opts.defaults()
	if opts.Job == "" {
		opts.Job = m.Name
	}
	if err := CheckSolverVersion(opts.SolverVersion, opts.SolverConstraint); err != nil {
		return err
	}
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}
	line("P actions make_etude")
	line("P mem_aster 100.0")
	line("P mode interactif")
	if m.Count(model.KindAnalysis) == 0 {
		line("P copy_result_alarm no")
	}
	line("P nomjob %s", opts.Job)
	line("P origine astergen %s", opts.ProducerVersion)
	line("P version %s", opts.SolverVersion)
	line("A memjeveux %s", formatFloat(opts.Memjeveux))
	line("A args -max_base 300000")
	line("A tpmax %d", opts.Tpmax)
	line("F comm %s.comm D 1", opts.Job)
	line("F mail %s.mail D %d", opts.Job, opts.MeshUnit)
	line("F mess %s.mess R 6", opts.Job)
	line("F resu %s.resu R 8", opts.Job)
	line("F rmed %s.rmed R 80", opts.Job)
	line("R repe %s_repe_out R 0", opts.Job)
	if _, err := io.WriteString(out, b.String()); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	s := fmt.Sprintf("%g", v)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
