package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"astergen/internal/audit"
	"astergen/internal/blob"
	"astergen/internal/ctxlog"
	"astergen/internal/dotgraph"
	"astergen/internal/emit"
	"astergen/internal/export"
	"astergen/internal/hclmodel"
	"astergen/internal/meshio"
	"astergen/internal/metrics"
	"astergen/internal/resolver"
	"astergen/internal/runlog"
	"astergen/internal/validation"
	"astergen/pkg/model"
)

// ErrModelTooLarge is returned for description files above model.max_bytes.
var ErrModelTooLarge = errors.New("model description too large")

// Deps are the collaborators of a Translator. Nil stores fall back to the
// in-memory drivers.
type Deps struct {
	Blobs   blob.Store
	History runlog.Store
	Metrics *metrics.Recorder
	Tracer  *metrics.Tracer
	Logger  *slog.Logger
	Version string
	Now     func() time.Time
	NewID   func() string
}

// Translator turns model descriptions into published solver jobs.
type Translator struct {
	cfg     Config
	blobs   blob.Store
	history runlog.Store
	metrics *metrics.Recorder
	tracer  *metrics.Tracer
	logger  *slog.Logger
	version string
	now     func() time.Time
	newID   func() string
	closers []io.Closer
}

// Result describes one translation.
type Result struct {
	Run        runlog.Run
	Finish     validation.FinishReport
	Validation validation.Result
	Audit      audit.Report
	Artifacts  []blob.Info
}

// New wires a Translator from explicit dependencies.
func New(cfg Config, deps Deps) *Translator {
	t := &Translator{
		cfg:     cfg,
		blobs:   deps.Blobs,
		history: deps.History,
		metrics: deps.Metrics,
		tracer:  deps.Tracer,
		logger:  deps.Logger,
		version: deps.Version,
		now:     deps.Now,
		newID:   deps.NewID,
	}
	if t.blobs == nil {
		t.blobs = blob.NewMemory()
	}
	if t.history == nil {
		t.history, _ = runlog.Open(context.Background(), runlog.Config{Driver: runlog.DriverMemory})
	}
	if t.metrics == nil {
		t.metrics = metrics.NewRecorder(false)
	}
	if t.tracer == nil {
		t.tracer = metrics.NewTracer(nil, t.metrics)
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	if t.version == "" {
		t.version = "dev"
	}
	if t.now == nil {
		t.now = time.Now
	}
	if t.newID == nil {
		t.newID = uuid.NewString
	}
	return t
}

// Open builds a Translator whose stores and exports follow cfg. Close
// releases them.
func Open(ctx context.Context, cfg Config, logger *slog.Logger, version string) (*Translator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	blobs, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		return nil, fmt.Errorf("open artifact store: %w", err)
	}
	history, err := runlog.Open(ctx, cfg.History)
	if err != nil {
		return nil, fmt.Errorf("open run history: %w", err)
	}
	rec := metrics.NewRecorder(cfg.Metrics.Listen != "")
	deps := Deps{Blobs: blobs, History: history, Metrics: rec, Logger: logger, Version: version}
	var closers []io.Closer
	if cfg.Metrics.Trace != "" {
		f, err := os.OpenFile(cfg.Metrics.Trace, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			_ = history.Close()
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		deps.Tracer = metrics.NewTracer(f, rec)
		closers = append(closers, f)
	}
	t := New(cfg, deps)
	t.closers = append(closers, history)
	return t, nil
}

// Close releases the run history and the trace file.
func (t *Translator) Close() error {
	var errs []error
	for _, c := range t.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// History returns the run history store.
func (t *Translator) History() runlog.Store { return t.history }

// Metrics returns the metric recorder.
func (t *Translator) Metrics() *metrics.Recorder { return t.metrics }

// Config returns the configuration in use.
func (t *Translator) Config() Config { return t.cfg }

// Translate loads the model at modelPath, writes its job files and publishes
// them. Nothing is published unless every stage succeeds. The run is
// recorded in the history whatever the outcome.
func (t *Translator) Translate(ctx context.Context, modelPath string) (Result, error) {
	res := Result{Run: runlog.Run{
		ID:        t.newID(),
		Model:     strings.TrimSuffix(filepath.Base(modelPath), filepath.Ext(modelPath)),
		Source:    modelPath,
		StartedAt: t.now().UTC(),
	}}
	logger := t.logger.With("run_id", res.Run.ID, "source", modelPath)
	ctx = ctxlog.WithLogger(ctx, logger)

	err := t.translate(ctx, modelPath, &res)
	res.Run.FinishedAt = t.now().UTC()
	res.Run.Violations = len(res.Validation.Violations)
	switch {
	case err == nil:
		res.Run.Status = runlog.StatusSucceeded
	case errors.As(err, new(validation.RuleViolationError)):
		res.Run.Status = runlog.StatusInvalid
		res.Run.Error = err.Error()
	default:
		res.Run.Status = runlog.StatusFailed
		res.Run.Error = err.Error()
	}
	t.finishRun(ctx, res.Run)

	if err != nil {
		logger.Error("translation failed", "error", err, "duration", res.Run.Duration())
		return res, err
	}
	logger.Info("translation published",
		"job", res.Run.Job,
		"analyses", res.Run.Analyses,
		"artifacts", len(res.Artifacts),
		"warnings", res.Run.Warnings,
		"duration", res.Run.Duration())
	return res, nil
}

func (t *Translator) translate(ctx context.Context, modelPath string, res *Result) error {
	m, plan, err := t.prepare(ctx, modelPath, res)
	if err != nil {
		return err
	}
	res.Run.Model, res.Run.Job = m.Name, m.Name
	res.Run.Analyses = m.Count(model.KindAnalysis)

	artifacts, err := t.render(ctx, m, plan, res)
	if err != nil {
		return err
	}

	span := t.tracer.Start(ctx, res.Run.ID, "publish")
	infos, err := blob.Publish(ctx, t.blobs, path.Join(t.cfg.Output.Prefix, m.Name), artifacts, map[string]string{
		"run_id":   res.Run.ID,
		"model":    m.Name,
		"producer": "astergen " + t.version,
	})
	span.End(err)
	if err != nil {
		return err
	}
	res.Artifacts = infos
	for _, info := range infos {
		res.Run.Artifacts = append(res.Run.Artifacts, info.Key)
	}
	return nil
}

// Check runs every stage except publishing and recording.
func (t *Translator) Check(ctx context.Context, modelPath string) (Result, error) {
	var res Result
	ctx = ctxlog.WithLogger(ctx, t.logger.With("source", modelPath))
	m, plan, err := t.prepare(ctx, modelPath, &res)
	if err != nil {
		return res, err
	}
	res.Run.Model, res.Run.Job = m.Name, m.Name
	res.Run.Analyses = m.Count(model.KindAnalysis)
	if _, err := t.render(ctx, m, plan, &res); err != nil {
		return res, err
	}
	return res, nil
}

// prepare loads, finishes, validates and resolves a model.
func (t *Translator) prepare(ctx context.Context, modelPath string, res *Result) (*model.Model, *resolver.Plan, error) {
	logger := ctxlog.FromContext(ctx)

	span := t.tracer.Start(ctx, res.Run.ID, "load")
	m, err := t.load(ctx, modelPath)
	span.End(err)
	if err != nil {
		return nil, nil, err
	}

	span = t.tracer.Start(ctx, res.Run.ID, "finish")
	res.Finish, err = validation.Finish(ctx, m, validation.Options{
		VirtualDiscretes:   t.cfg.Model.VirtualDiscretes,
		AutoDetectAnalysis: t.cfg.Model.AutoDetectAnalysis,
	})
	span.End(err)
	if err != nil {
		return nil, nil, err
	}

	span = t.tracer.Start(ctx, res.Run.ID, "validate")
	res.Validation, err = validation.Validate(ctx, m)
	if err == nil && res.Validation.HasBlocking() && t.cfg.Model.Strict {
		err = validation.RuleViolationError{Result: res.Validation}
	}
	span.End(err)
	for _, v := range res.Validation.Violations {
		switch v.Severity {
		case validation.SeverityBlock, validation.SeverityWarn:
			logger.Warn(v.Message, "rule", v.Rule, "severity", v.Severity, "entity", v.Entity.String())
		default:
			logger.Debug(v.Message, "rule", v.Rule, "entity", v.Entity.String())
		}
	}
	if err != nil {
		return nil, nil, err
	}

	span = t.tracer.Start(ctx, res.Run.ID, "resolve")
	plan, err := resolver.Resolve(m)
	span.End(err)
	if err != nil {
		return nil, nil, err
	}
	return m, plan, nil
}

func (t *Translator) load(ctx context.Context, modelPath string) (*model.Model, error) {
	info, err := os.Stat(modelPath)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", modelPath, err)
	}
	if info.Size() > t.cfg.Model.MaxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrModelTooLarge, modelPath, info.Size(), t.cfg.Model.MaxBytes)
	}
	return hclmodel.Load(ctx, modelPath)
}

// render writes every job file into memory.
func (t *Translator) render(ctx context.Context, m *model.Model, plan *resolver.Plan, res *Result) ([]blob.Artifact, error) {
	logger := ctxlog.FromContext(ctx)
	job := m.Name

	var comm bytes.Buffer
	span := t.tracer.Start(ctx, res.Run.ID, "emit")
	ac, err := emit.Comm(ctx, m, plan, &comm, emit.Options{
		Producer:        "astergen",
		ProducerVersion: t.version,
		SolverVersion:   t.cfg.Solver.Version,
		Debug:           t.cfg.Output.Debug,
		StressRecovery:  t.cfg.Output.StressRecovery,
		MeshUnit:        t.cfg.Solver.MeshUnit,
	})
	span.End(err)
	if err != nil {
		return nil, err
	}
	res.Audit = ac.Report(m)
	res.Run.Warnings = len(res.Audit.Warnings)
	res.Run.Omissions = len(res.Audit.Omissions)
	for _, ref := range res.Audit.Unwritten {
		logger.Warn("entity did not reach the command file", "entity", ref.String())
	}

	var exp bytes.Buffer
	span = t.tracer.Start(ctx, res.Run.ID, "export")
	err = export.Write(&exp, m, export.Options{
		Job:              job,
		ProducerVersion:  t.version,
		SolverVersion:    t.cfg.Solver.Version,
		SolverConstraint: t.cfg.Solver.Constraint,
		Memjeveux:        t.cfg.Solver.Memjeveux,
		Tpmax:            t.cfg.Solver.Tpmax,
		MeshUnit:         t.cfg.Solver.MeshUnit,
	})
	span.End(err)
	if err != nil {
		return nil, err
	}

	var mail bytes.Buffer
	span = t.tracer.Start(ctx, res.Run.ID, "mesh")
	err = meshio.WriteMail(ctx, &mail, m.Mesh, job)
	span.End(err)
	if err != nil {
		return nil, fmt.Errorf("write mesh file: %w", err)
	}

	artifacts := []blob.Artifact{
		{Name: job + ".comm", ContentType: "text/x-python", Data: comm.Bytes()},
		{Name: job + ".export", ContentType: "text/plain", Data: exp.Bytes()},
		{Name: job + ".mail", ContentType: "text/plain", Data: mail.Bytes()},
	}
	if !t.cfg.Output.Graphs {
		return artifacts, nil
	}
	for _, a := range m.Analyses() {
		var dot bytes.Buffer
		if err := dotgraph.Write(&dot, m, plan, a); err != nil {
			return nil, fmt.Errorf("write graph of %s: %w", a.Ref(), err)
		}
		artifacts = append(artifacts, blob.Artifact{
			Name:        job + "_" + strconv.Itoa(a.Ref().ID) + ".dot",
			ContentType: "text/vnd.graphviz",
			Data:        dot.Bytes(),
		})
	}
	return artifacts, nil
}

func (t *Translator) finishRun(ctx context.Context, run runlog.Run) {
	logger := ctxlog.FromContext(ctx)
	if err := t.history.Record(context.WithoutCancel(ctx), run); err != nil {
		logger.Error("record run", "error", err)
	}
	t.metrics.RecordRun(run)
	if t.cfg.Metrics.Textfile != "" {
		if err := t.metrics.WriteTextfile(t.cfg.Metrics.Textfile); err != nil {
			logger.Error("export metrics", "error", err)
		}
	}
}
