// Package hclmodel reads structural models written in HCL.
//
// A description holds one mesh block and named entity blocks. Entities refer
// to one another by name and to the mesh by node and cell ids; the loader
// turns names into model ids and mesh ids into positions.
//
//	mesh {
//	  nodes = [[1, 0, 0, 0], [2, 1, 0, 0]]
//	  cells "SEG2" {
//	    connectivity = [[1, 1, 2]]
//	  }
//	}
//
//	analysis "static" {
//	  type            = "linear_static"
//	  constraint_sets = ["clamp"]
//	}
package hclmodel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"astergen/internal/ctxlog"
	"astergen/pkg/model"
)

// Extension is the file extension of model descriptions.
const Extension = ".hcl"

// Load reads the model description at path.
func Load(ctx context.Context, path string) (*model.Model, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Parse(ctx, src, path, name)
}

// Parse decodes a model description. defaultName is used when the
// description does not name the model.
func Parse(ctx context.Context, src []byte, filename, defaultName string) (*model.Model, error) {
	logger := ctxlog.FromContext(ctx)
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	var root fileSpec
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	name := root.Name
	if name == "" {
		name = defaultName
	}
	b := newBuilder(model.New(name))
	b.parameters(root.Parameters)
	if root.Mesh != nil {
		b.mesh(root.Mesh)
	}
	if b.diags.HasErrors() {
		return nil, fmt.Errorf("failed to load model %s: %w", filename, b.diags)
	}
	b.declareAll(&root)
	b.buildAll(&root)
	if b.diags.HasErrors() {
		return nil, fmt.Errorf("failed to load model %s: %w", filename, b.diags)
	}
	logger.Debug("HCL model loaded.", "model", name,
		"nodes", b.m.Mesh.NodeCount(), "cells", b.m.Mesh.CellCount(),
		"analyses", b.m.Count(model.KindAnalysis))
	return b.m, nil
}

type builder struct {
	m     *model.Model
	ids   map[model.Kind]map[string]int
	diags hcl.Diagnostics
}

func newBuilder(m *model.Model) *builder {
	ids := make(map[model.Kind]map[string]int, len(model.Kinds))
	for _, k := range model.Kinds {
		ids[k] = make(map[string]int)
	}
	return &builder{m: m, ids: ids}
}

func (b *builder) errorf(subject *hcl.Range, summary, format string, args ...any) {
	b.diags = append(b.diags, &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   fmt.Sprintf(format, args...),
		Subject:  subject,
	})
}

// decode decodes a body into target and reports whether it succeeded.
func (b *builder) decode(body hcl.Body, target any) bool {
	diags := gohcl.DecodeBody(body, nil, target)
	b.diags = append(b.diags, diags...)
	return !diags.HasErrors()
}

// parameters reads the parameters object; every value is converted to its
// string form.
func (b *builder) parameters(expr hcl.Expression) {
	if expr == nil {
		return
	}
	val, diags := expr.Value(nil)
	b.diags = append(b.diags, diags...)
	if diags.HasErrors() || val.IsNull() {
		return
	}
	rng := expr.Range()
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		b.errorf(&rng, "Invalid parameters", "parameters must be an object, got %s", val.Type().FriendlyName())
		return
	}
	var keys []string
	values := make(map[string]cty.Value)
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		keys = append(keys, k.AsString())
		values[k.AsString()] = v
	}
	sort.Strings(keys)
	for _, k := range keys {
		s, err := convert.Convert(values[k], cty.String)
		if err != nil || s.IsNull() {
			b.errorf(&rng, "Invalid parameter", "parameter %s cannot be read as text", k)
			continue
		}
		b.m.SetParameter(model.ParseParameter(k), s.AsString())
	}
}

// declareAll assigns ids in declaration order so that blocks may refer to
// entities declared further down.
func (b *builder) declareAll(root *fileSpec) {
	declare := func(kind model.Kind, name string, rng *hcl.Range) {
		names := b.ids[kind]
		if _, dup := names[name]; dup {
			b.errorf(rng, "Duplicate name", "%s %q is declared twice", kind, name)
			return
		}
		names[name] = len(names) + 1
	}
	entities := func(kind model.Kind, specs []*entitySpec) {
		for _, s := range specs {
			rng := s.Body.MissingItemRange()
			declare(kind, s.Name, &rng)
		}
	}
	entities(model.KindValue, root.Values)
	for _, s := range root.Materials {
		declare(model.KindMaterial, s.Name, nil)
	}
	entities(model.KindElementSet, root.ElementSets)
	entities(model.KindConstraint, root.Constraints)
	for _, s := range root.ConstraintSets {
		declare(model.KindConstraintSet, s.Name, nil)
	}
	entities(model.KindLoading, root.Loadings)
	for _, s := range root.LoadSets {
		declare(model.KindLoadSet, s.Name, nil)
	}
	entities(model.KindObjective, root.Objectives)
	entities(model.KindAnalysis, root.Analyses)
}

func (b *builder) buildAll(root *fileSpec) {
	for _, s := range root.Values {
		b.add(model.KindValue, s, b.value)
	}
	for _, s := range root.Materials {
		b.material(s)
	}
	for _, s := range root.ElementSets {
		b.add(model.KindElementSet, s, b.elementSet)
	}
	for _, s := range root.Constraints {
		b.add(model.KindConstraint, s, b.constraint)
	}
	for _, s := range root.ConstraintSets {
		cs := &model.ConstraintSet{ConstraintIDs: b.refs(model.KindConstraint, s.Constraints, nil)}
		b.store(cs, model.KindConstraintSet, s.Name, s.OriginalID)
	}
	for _, s := range root.Loadings {
		b.add(model.KindLoading, s, b.loading)
	}
	for _, s := range root.LoadSets {
		b.loadSet(s)
	}
	for _, s := range root.Objectives {
		b.add(model.KindObjective, s, b.objective)
	}
	for _, s := range root.Analyses {
		b.add(model.KindAnalysis, s, b.analysis)
	}
}

// add builds a typed entity with fn and stores it under its declared id.
func (b *builder) add(kind model.Kind, s *entitySpec, fn func(*entitySpec, *hcl.Range) model.Entity) {
	rng := s.Body.MissingItemRange()
	e := fn(s, &rng)
	if e == nil {
		return
	}
	b.store(e, kind, s.Name, s.OriginalID)
}

func (b *builder) store(e model.Entity, kind model.Kind, name string, originalID int) {
	model.Identify(e, b.ids[kind][name], originalID)
	if err := b.m.Add(e); err != nil {
		b.errorf(nil, "Invalid entity", "%s %q: %v", kind, name, err)
	}
}

func (b *builder) unsupported(s *entitySpec, rng *hcl.Range, family string) model.Entity {
	b.errorf(rng, "Unsupported type", "%s %q has unsupported type %q", family, s.Name, s.Type)
	return nil
}

// ref resolves a name to the id of a declared entity. An empty name is the
// zero id.
func (b *builder) ref(kind model.Kind, name string, rng *hcl.Range) int {
	if name == "" {
		return 0
	}
	id, ok := b.ids[kind][name]
	if !ok {
		b.errorf(rng, "Unknown reference", "no %s named %q", kind, name)
	}
	return id
}

func (b *builder) refs(kind model.Kind, names []string, rng *hcl.Range) []int {
	if len(names) == 0 {
		return nil
	}
	out := make([]int, 0, len(names))
	for _, n := range names {
		if id := b.ref(kind, n, rng); id != 0 {
			out = append(out, id)
		}
	}
	return out
}
