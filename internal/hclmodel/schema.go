package hclmodel

import "github.com/hashicorp/hcl/v2"

// fileSpec decodes every top-level block of a model description.
type fileSpec struct {
	Name           string               `hcl:"name,optional"`
	Parameters     hcl.Expression       `hcl:"parameters,optional"`
	Mesh           *meshSpec            `hcl:"mesh,block"`
	Values         []*entitySpec        `hcl:"value,block"`
	Materials      []*materialSpec      `hcl:"material,block"`
	ElementSets    []*entitySpec        `hcl:"element_set,block"`
	Constraints    []*entitySpec        `hcl:"constraint,block"`
	ConstraintSets []*constraintSetSpec `hcl:"constraint_set,block"`
	Loadings       []*entitySpec        `hcl:"loading,block"`
	LoadSets       []*loadSetSpec       `hcl:"load_set,block"`
	Objectives     []*entitySpec        `hcl:"objective,block"`
	Analyses       []*entitySpec        `hcl:"analysis,block"`
}

type meshSpec struct {
	// Nodes rows are [id, x, y, z].
	Nodes      [][]float64  `hcl:"nodes,optional"`
	Cells      []*cellsSpec `hcl:"cells,block"`
	CellGroups []*groupSpec `hcl:"cell_group,block"`
	NodeGroups []*groupSpec `hcl:"node_group,block"`
}

type cellsSpec struct {
	Type string `hcl:"type,label"`
	// Connectivity rows are [id, node ids...].
	Connectivity [][]int `hcl:"connectivity"`
}

type groupSpec struct {
	Name        string    `hcl:"name,label"`
	Members     []int     `hcl:"members"`
	Orientation []float64 `hcl:"orientation,optional"`
}

// entitySpec is the envelope of a typed entity; the remaining body is
// decoded by the builder of its type.
type entitySpec struct {
	Name       string   `hcl:"name,label"`
	Type       string   `hcl:"type"`
	OriginalID int      `hcl:"original_id,optional"`
	Body       hcl.Body `hcl:",remain"`
}

type materialSpec struct {
	Name         string           `hcl:"name,label"`
	OriginalID   int              `hcl:"original_id,optional"`
	Elastic      *elasticSpec     `hcl:"elastic,block"`
	HyperElastic *hyperSpec       `hcl:"hyperelastic,block"`
	Orthotropic  *orthotropicSpec `hcl:"orthotropic,block"`
	Bilinear     *bilinearSpec    `hcl:"bilinear,block"`
}

type elasticSpec struct {
	E   float64  `hcl:"e"`
	Nu  float64  `hcl:"nu"`
	Rho float64  `hcl:"rho,optional"`
	GE  *float64 `hcl:"ge,optional"`
}

type hyperSpec struct {
	C10 float64 `hcl:"c10"`
	C01 float64 `hcl:"c01,optional"`
	C20 float64 `hcl:"c20,optional"`
	Rho float64 `hcl:"rho,optional"`
	K   float64 `hcl:"k"`
}

type orthotropicSpec struct {
	EL   float64  `hcl:"e_l"`
	ET   float64  `hcl:"e_t"`
	GLT  float64  `hcl:"g_lt"`
	GTN  *float64 `hcl:"g_tn,optional"`
	GLN  *float64 `hcl:"g_ln,optional"`
	NuLT float64  `hcl:"nu_lt"`
	Rho  float64  `hcl:"rho,optional"`
	XC   *float64 `hcl:"xc,optional"`
	XT   *float64 `hcl:"xt,optional"`
	YC   *float64 `hcl:"yc,optional"`
	YT   *float64 `hcl:"yt,optional"`
	SLT  *float64 `hcl:"s_lt,optional"`
}

type bilinearSpec struct {
	SecondarySlope float64 `hcl:"secondary_slope"`
	ElasticLimit   float64 `hcl:"elastic_limit"`
}

type constraintSetSpec struct {
	Name        string   `hcl:"name,label"`
	OriginalID  int      `hcl:"original_id,optional"`
	Constraints []string `hcl:"constraints,optional"`
}

type loadSetSpec struct {
	Name       string          `hcl:"name,label"`
	OriginalID int             `hcl:"original_id,optional"`
	Dynamic    bool            `hcl:"dynamic,optional"`
	Loadings   []string        `hcl:"loadings,optional"`
	Embedded   []*weightedSpec `hcl:"embed,block"`
}

type weightedSpec struct {
	LoadSet string  `hcl:"load_set"`
	Coef    float64 `hcl:"coef"`
}

// selectionSpec is the geometric part of a body: mesh ids and group names.
type selectionSpec struct {
	All        bool     `hcl:"all,optional"`
	Nodes      []int    `hcl:"nodes,optional"`
	NodeGroups []string `hcl:"node_groups,optional"`
	Cells      []int    `hcl:"cells,optional"`
	CellGroups []string `hcl:"cell_groups,optional"`
}

type elementCommon struct {
	Materials  []string `hcl:"materials,optional"`
	All        bool     `hcl:"all,optional"`
	Cells      []int    `hcl:"cells,optional"`
	CellGroups []string `hcl:"cell_groups,optional"`
}

type analysisCommon struct {
	Label          string   `hcl:"label,optional"`
	LoadSets       []string `hcl:"load_sets,optional"`
	ConstraintSets []string `hcl:"constraint_sets,optional"`
	Objectives     []string `hcl:"objectives,optional"`
}
