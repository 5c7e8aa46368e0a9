package hclmodel

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"astergen/pkg/model"
)

func TestLoadCantilever(t *testing.T) {
	m, err := Load(context.Background(), filepath.Join("testdata", "cantilever.hcl"))
	require.NoError(t, err)
	require.Equal(t, "cantilever", m.Name)
	require.Equal(t, 3, m.Mesh.NodeCount())
	require.Equal(t, 2, m.Mesh.CellCount())

	beam, ok := m.Mesh.CellGroup("beam")
	require.True(t, ok)
	require.Equal(t, []int{0, 1}, beam.Members)
	require.NotNil(t, beam.Orientation)
	require.Equal(t, model.Vec(0, 1, 0), *beam.Orientation)

	mat, err := m.Material(1)
	require.NoError(t, err)
	require.Equal(t, 7, model.OriginalIDOf(mat))
	require.Len(t, mat.Natures, 1)

	sets := m.ElementSets()
	require.Len(t, sets, 1)
	section, ok := sets[0].(*model.RectangularBeam)
	require.True(t, ok)
	require.Equal(t, model.Timoshenko, section.Theory)
	require.Equal(t, []int{1}, section.MaterialIDs)
	require.Equal(t, []string{"beam"}, section.Cells.CellGroups)

	c, err := m.Constraint(1)
	require.NoError(t, err)
	spc, ok := c.(*model.SinglePointConstraint)
	require.True(t, ok)
	require.Equal(t, []int{0}, spc.Nodes.Nodes)
	require.Equal(t, model.AllDOFs, spc.DOFs)

	a, err := m.Analysis(1)
	require.NoError(t, err)
	require.Equal(t, model.KindLinearStatic, a.Kind())
	require.Equal(t, "tip load", a.Common().Label)
	require.Equal(t, []int{1}, a.Common().LoadSetIDs)
	require.Equal(t, []int{1}, a.Common().ConstraintSetIDs)
	require.Equal(t, []int{1, 2}, a.Common().ObjectiveIDs)

	o, err := m.Objective(1)
	require.NoError(t, err)
	check, ok := o.(*model.NodalDisplacementAssertion)
	require.True(t, ok)
	require.Equal(t, 2, check.Node)
	require.Equal(t, model.DZ, check.DOF)
	require.InDelta(t, -0.19, check.Value, 1e-12)

	comb, err := m.Analysis(2)
	require.NoError(t, err)
	require.Equal(t, []model.CombinationTerm{{AnalysisID: 1, Coef: 2}}, comb.(*model.Combination).Terms)
}

func TestParseConvertsParametersToText(t *testing.T) {
	src := `
parameters = {
  structural_damping = 0.02
  large_displacements = true
}
`
	m, err := Parse(context.Background(), []byte(src), "params.hcl", "params")
	require.NoError(t, err)
	require.Equal(t, "params", m.Name)
	v, ok := m.Parameter(model.ParamStructuralDamping)
	require.True(t, ok)
	require.Equal(t, "0.02", v)
	require.True(t, m.ParameterBool(model.ParamLargeDisplacements))
}

func TestParseResolvesForwardReferences(t *testing.T) {
	src := `
analysis "late" {
  type     = "linear_modal"
  search   = "modes"
}

objective "modes" {
  type   = "frequency_search"
  search = "band"
  value  = "band"
}

value "band" {
  type = "band"
  end  = 100
}
`
	m, err := Parse(context.Background(), []byte(src), "modal.hcl", "modal")
	require.NoError(t, err)
	a, err := m.Analysis(1)
	require.NoError(t, err)
	require.Equal(t, 1, a.(*model.LinearModal).SearchID)
	o, err := m.Objective(1)
	require.NoError(t, err)
	require.Equal(t, 1, o.(*model.FrequencySearch).ValueID)
	v, err := m.Value(1)
	require.NoError(t, err)
	band := v.(*model.BandRange)
	require.Nil(t, band.Start)
	require.NotNil(t, band.End)
	require.Equal(t, 100.0, *band.End)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "unknown reference",
			src: `
analysis "a" {
  type      = "linear_static"
  load_sets = ["missing"]
}`,
			want: `no load_set named "missing"`,
		},
		{
			name: "duplicate name",
			src: `
value "v" {
  type   = "list"
  values = [1]
}
value "v" {
  type   = "list"
  values = [2]
}`,
			want: `value "v" is declared twice`,
		},
		{
			name: "unsupported type",
			src: `
analysis "a" {
  type = "transient"
}`,
			want: `unsupported type "transient"`,
		},
		{
			name: "unknown node",
			src: `
mesh {
  nodes = [[1, 0, 0, 0]]
}
constraint "c" {
  type  = "spc"
  nodes = [2]
  dofs  = ["DX"]
}`,
			want: "no node with id 2",
		},
		{
			name: "bad cell row",
			src: `
mesh {
  nodes = [[1, 0, 0, 0], [2, 1, 0, 0]]
  cells "SEG2" {
    connectivity = [[1, 1]]
  }
}`,
			want: "SEG2 rows are [id, 2 node ids]",
		},
		{
			name: "material without nature",
			src: `
material "m" {
}`,
			want: `material "m" has no nature block`,
		},
		{
			name: "syntax",
			src:  `analysis "a" {`,
			want: "failed to parse HCL file",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(context.Background(), []byte(tc.src), "bad.hcl", "bad")
			require.Error(t, err)
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestParseContactNeedsCellGroups(t *testing.T) {
	src := `
mesh {
  nodes = [[1, 0, 0, 0], [2, 1, 0, 0]]
  cells "SEG2" {
    connectivity = [[1, 1, 2]]
  }
  cell_group "top" {
    members = [1]
  }
}
constraint "touch" {
  type   = "surface_contact"
  master = "top"
  slave  = "bottom"
}`
	_, err := Parse(context.Background(), []byte(src), "contact.hcl", "contact")
	require.ErrorContains(t, err, `missing cell group "bottom"`)
}

func TestParseLoadSetsAndExcitations(t *testing.T) {
	src := `
mesh {
  nodes = [[1, 0, 0, 0]]
}
value "curve" {
  type   = "function"
  points = [[0, 1], [100, 1]]
  left   = "linear"
}
loading "f" {
  type  = "nodal_force"
  nodes = [1]
  force = [1, 0, 0]
}
load_set "base" {
  loadings = ["f"]
}
load_set "twice" {
  embed {
    load_set = "base"
    coef     = 2
  }
}
loading "shake" {
  type       = "dynamic_excitation"
  load_set   = "base"
  function   = "curve"
  excitation = "acceleration"
}
load_set "dyn" {
  dynamic  = true
  loadings = ["shake"]
}`
	m, err := Parse(context.Background(), []byte(src), "loads.hcl", "loads")
	require.NoError(t, err)
	sets := m.LoadSets()
	require.Len(t, sets, 3)
	require.Equal(t, model.LoadSetLoad, sets[1].Type)
	require.Equal(t, []model.WeightedLoadSet{{LoadSetID: 1, Coef: 2}}, sets[1].Embedded)
	require.Equal(t, model.LoadSetDLoad, sets[2].Type)

	l, err := m.Loading(2)
	require.NoError(t, err)
	ex := l.(*model.DynamicExcitation)
	require.Equal(t, 1, ex.LoadSetID)
	require.Equal(t, 1, ex.FunctionID)
	require.Equal(t, model.ExciteAcceleration, ex.Type)

	v, err := m.Value(1)
	require.NoError(t, err)
	fn := v.(*model.FunctionTable)
	require.Equal(t, model.ExtrapolateLinear, fn.Left)
	require.Equal(t, model.ExtrapolateConstant, fn.Right)
	require.Len(t, fn.Points, 2)
}
