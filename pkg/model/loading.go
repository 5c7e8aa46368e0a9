package model

// Loading is a closed family: NodalForce, Pressure, ShellPressure,
// SurfaceForce, LineForce, Gravity, Rotation, ImposedDisplacement and
// DynamicExcitation.
type Loading interface {
	Entity
	Common() *LoadingBase
}

// LoadingBase carries the fields shared by all loadings.
type LoadingBase struct {
	Base
	Ineffective bool `json:"-"`
}

func (l *LoadingBase) Ref() Ref             { return Ref{Kind: KindLoading, ID: l.ID} }
func (l *LoadingBase) Common() *LoadingBase { return l }
func (l *LoadingBase) Effective() bool      { return !l.Ineffective }

// NodalForce applies a force and a moment on each selected node.
type NodalForce struct {
	LoadingBase
	Nodes  Container `json:"nodes"`
	Force  Vector    `json:"force"`
	Moment Vector    `json:"moment"`
}

// Pressure is a normal pressure on solid faces.
type Pressure struct {
	LoadingBase
	Cells     Container `json:"cells"`
	Intensity float64   `json:"intensity"`
}

// ShellPressure is a normal pressure on shell elements.
type ShellPressure struct {
	LoadingBase
	Cells     Container `json:"cells"`
	Intensity float64   `json:"intensity"`
}

// SurfaceForce is a distributed force on faces.
type SurfaceForce struct {
	LoadingBase
	Cells Container `json:"cells"`
	Force Vector    `json:"force"`
}

// LineForce is a distributed force along beams whose components are
// function tables. Edges marks a force applied on element edges rather
// than on beam elements.
type LineForce struct {
	LoadingBase
	Cells      Container `json:"cells"`
	DOFs       DOFS      `json:"dofs"`
	FunctionID int       `json:"function_id"`
	Edges      bool      `json:"edges,omitempty"`
}

// Gravity is a uniform acceleration field.
type Gravity struct {
	LoadingBase
	Acceleration float64 `json:"acceleration"`
	Direction    Vector  `json:"direction"`
}

// Rotation is a centrifugal load from a rotation around an axis.
type Rotation struct {
	LoadingBase
	Speed  float64 `json:"speed"`
	Axis   Vector  `json:"axis"`
	Center Vector  `json:"center"`
}

// ImposedDisplacement imposes non-homogeneous nodal displacements.
type ImposedDisplacement struct {
	LoadingBase
	Nodes  Container  `json:"nodes"`
	DOFs   DOFS       `json:"dofs"`
	Values [6]float64 `json:"values"`
}

// ExcitationType selects the physical quantity of a dynamic excitation.
type ExcitationType string

// Dynamic excitation types.
const (
	ExciteLoad         ExcitationType = "load"
	ExciteDisplacement ExcitationType = "displacement"
	ExciteVelocity     ExcitationType = "velocity"
	ExciteAcceleration ExcitationType = "acceleration"
)

// DynamicExcitation modulates a static load set by a frequency function.
type DynamicExcitation struct {
	LoadingBase
	LoadSetID  int            `json:"load_set_id"`
	FunctionID int            `json:"function_id"`
	PhaseDeg   float64        `json:"phase_deg"`
	Type       ExcitationType `json:"type"`
}

// Scaled returns a copy of a scalable loading multiplied by coef. The second
// result is false for loadings that cannot be scaled linearly.
func Scaled(l Loading, coef float64) (Loading, bool) {
	switch v := l.(type) {
	case *NodalForce:
		c := *v
		c.Nodes = v.Nodes.Clone()
		c.Force, c.Moment = v.Force.Scale(coef), v.Moment.Scale(coef)
		return &c, true
	case *Pressure:
		c := *v
		c.Cells = v.Cells.Clone()
		c.Intensity *= coef
		return &c, true
	case *ShellPressure:
		c := *v
		c.Cells = v.Cells.Clone()
		c.Intensity *= coef
		return &c, true
	case *SurfaceForce:
		c := *v
		c.Cells = v.Cells.Clone()
		c.Force = v.Force.Scale(coef)
		return &c, true
	case *Gravity:
		c := *v
		c.Acceleration *= coef
		return &c, true
	case *ImposedDisplacement:
		c := *v
		c.Nodes = v.Nodes.Clone()
		for i := range c.Values {
			c.Values[i] *= coef
		}
		return &c, true
	}
	return nil, false
}

// LoadedNodes returns the node positions a loading acts on with the DOFs it
// loads.
func LoadedNodes(l Loading, mesh *Mesh) map[int]DOFS {
	out := make(map[int]DOFS)
	switch v := l.(type) {
	case *NodalForce:
		var d DOFS
		for i, c := range v.Force.Components() {
			if c != 0 {
				d = d.Add(DOF(i))
			}
		}
		for i, c := range v.Moment.Components() {
			if c != 0 {
				d = d.Add(RX + DOF(i))
			}
		}
		for _, p := range mesh.NodesOf(v.Nodes) {
			out[p] = out[p].Union(d)
		}
	case *ImposedDisplacement:
		for _, p := range mesh.NodesOf(v.Nodes) {
			out[p] = out[p].Union(v.DOFs)
		}
	}
	return out
}
