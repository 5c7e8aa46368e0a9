// Package audit records what a translation actually wrote.
//
// The emission engine marks every entity it outputs and reports every
// omission and warning it resolves locally. Once the command file is
// complete, Report lists the assertions and outputs that never reached it.
package audit

import (
	"fmt"
	"log/slog"
	"sort"

	"astergen/pkg/model"
)

// Severity classifies a notice.
type Severity string

// Notice severities.
const (
	// SeverityWarning flags a feature that was only partially translated.
	SeverityWarning Severity = "warning"
	// SeverityOmission flags an entity skipped because it is ineffective.
	SeverityOmission Severity = "omission"
)

// Notice is one diagnostic raised while writing.
type Notice struct {
	Ref      model.Ref `json:"ref"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
}

// Context is threaded through one emission pass.
type Context struct {
	written map[model.Ref]struct{}
	notices []Notice
	log     *slog.Logger
}

// New returns an empty audit context logging warnings to log.
func New(log *slog.Logger) *Context {
	if log == nil {
		log = slog.Default()
	}
	return &Context{written: make(map[model.Ref]struct{}), log: log}
}

// MarkWritten records that an entity was output.
func (c *Context) MarkWritten(e model.Entity) {
	c.written[e.Ref()] = struct{}{}
}

// Written reports whether an entity was output.
func (c *Context) Written(ref model.Ref) bool {
	_, ok := c.written[ref]
	return ok
}

// Warn records a warning and logs it.
func (c *Context) Warn(ref model.Ref, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.notices = append(c.notices, Notice{Ref: ref, Severity: SeverityWarning, Message: msg})
	c.log.Warn(msg, "entity", ref.String())
}

// Omit records an ineffective entity that was skipped.
func (c *Context) Omit(ref model.Ref, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.notices = append(c.notices, Notice{Ref: ref, Severity: SeverityOmission, Message: msg})
	c.log.Debug(msg, "entity", ref.String())
}

// Notices returns every recorded notice in order.
func (c *Context) Notices() []Notice {
	return append([]Notice(nil), c.notices...)
}

// Report summarizes a completed emission pass.
type Report struct {
	Written   int         `json:"written"`
	Unwritten []model.Ref `json:"unwritten,omitempty"`
	Warnings  []Notice    `json:"warnings,omitempty"`
	Omissions []Notice    `json:"omissions,omitempty"`
}

// Complete reports whether every assertion, output and analysis was written.
func (r Report) Complete() bool { return len(r.Unwritten) == 0 }

// Report lists analyses, assertions and outputs of m that were never
// written.
func (c *Context) Report(m *model.Model) Report {
	r := Report{Written: len(c.written)}
	for _, a := range m.Analyses() {
		if !c.Written(a.Ref()) {
			r.Unwritten = append(r.Unwritten, a.Ref())
		}
	}
	for _, o := range m.Objectives() {
		if !model.IsAssertion(o) && !model.IsOutput(o) {
			continue
		}
		if !c.Written(o.Ref()) {
			r.Unwritten = append(r.Unwritten, o.Ref())
		}
	}
	sort.Slice(r.Unwritten, func(i, j int) bool {
		if r.Unwritten[i].Kind != r.Unwritten[j].Kind {
			return r.Unwritten[i].Kind < r.Unwritten[j].Kind
		}
		return r.Unwritten[i].ID < r.Unwritten[j].ID
	})
	for _, n := range c.notices {
		switch n.Severity {
		case SeverityWarning:
			r.Warnings = append(r.Warnings, n)
		case SeverityOmission:
			r.Omissions = append(r.Omissions, n)
		}
	}
	return r
}
