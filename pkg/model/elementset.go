package model

// ElementSet is implemented by every element formulation. The concrete types
// below form a closed family: RectangularBeam, CircularBeam, TubeBeam,
// GenericBeam, Truss, Shell, Composite, DiscretePoint, DiscreteSegment,
// NodalMass, Continuum and Skin.
type ElementSet interface {
	Entity
	Common() *ElementSetBase
}

// ElementSetBase carries the fields shared by all element sets.
type ElementSetBase struct {
	Base
	Cells       Container `json:"cells"`
	MaterialIDs []int     `json:"material_ids,omitempty"`
	// Ineffective is set while finishing the model when the assignment is empty.
	Ineffective bool `json:"-"`
}

func (e *ElementSetBase) Ref() Ref                { return Ref{Kind: KindElementSet, ID: e.ID} }
func (e *ElementSetBase) Common() *ElementSetBase { return e }

// Effective reports whether the element set reaches the command file.
func (e *ElementSetBase) Effective() bool { return !e.Ineffective }

// BeamTheory selects the beam kinematics.
type BeamTheory string

// Beam theories.
const (
	Timoshenko BeamTheory = "timoshenko"
	EulerBeam  BeamTheory = "euler"
)

// RectangularBeam is a beam with a solid rectangular section.
type RectangularBeam struct {
	ElementSetBase
	Theory BeamTheory `json:"theory"`
	Height float64    `json:"height"`
	Width  float64    `json:"width"`
}

// CircularBeam is a beam with a solid circular section.
type CircularBeam struct {
	ElementSetBase
	Theory BeamTheory `json:"theory"`
	Radius float64    `json:"radius"`
}

// TubeBeam is a beam with a hollow circular section.
type TubeBeam struct {
	ElementSetBase
	Theory    BeamTheory `json:"theory"`
	Radius    float64    `json:"radius"`
	Thickness float64    `json:"thickness"`
}

// GenericBeam is a beam described by its section properties.
type GenericBeam struct {
	ElementSetBase
	Theory BeamTheory `json:"theory"`
	Area   float64    `json:"area"`
	Iy     float64    `json:"iy"`
	Iz     float64    `json:"iz"`
	J      float64    `json:"j"`
	// Shear area factors; zero means not provided.
	ShearY float64 `json:"shear_y,omitempty"`
	ShearZ float64 `json:"shear_z,omitempty"`
}

// Truss carries axial load only.
type Truss struct {
	ElementSetBase
	Area float64 `json:"area"`
}

// Shell is a homogeneous plate or shell.
type Shell struct {
	ElementSetBase
	Thickness float64  `json:"thickness"`
	Offset    *float64 `json:"offset,omitempty"`
}

// PlyFailure selects a composite ply failure criterion.
type PlyFailure string

// Ply failure criteria.
const (
	NoPlyFailure PlyFailure = ""
	TsaiWu       PlyFailure = "tsai_wu"
)

// Layer is one ply of a composite shell.
type Layer struct {
	MaterialID  int     `json:"material_id"`
	Thickness   float64 `json:"thickness"`
	Orientation float64 `json:"orientation"`
}

// Composite is a layered shell.
type Composite struct {
	ElementSetBase
	Layers  []Layer    `json:"layers"`
	Offset  *float64   `json:"offset,omitempty"`
	Failure PlyFailure `json:"failure,omitempty"`
}

// TotalThickness sums the ply thicknesses.
func (c *Composite) TotalThickness() float64 {
	total := 0.0
	for _, l := range c.Layers {
		total += l.Thickness
	}
	return total
}

// DiscreteCoefficients holds the matrix coefficients of a discrete element
// in solver storage order (upper triangle by columns when symmetric).
type DiscreteCoefficients struct {
	Stiffness []float64 `json:"stiffness"`
	Damping   []float64 `json:"damping,omitempty"`
	Mass      []float64 `json:"mass,omitempty"`
	Symmetric bool      `json:"symmetric"`
}

// DiscretePoint is a spring/damper/mass attached to single nodes.
type DiscretePoint struct {
	ElementSetBase
	DiscreteCoefficients
	Rotations bool `json:"rotations"`
}

// DiscreteSegment is a spring/damper/mass between two nodes.
type DiscreteSegment struct {
	ElementSetBase
	DiscreteCoefficients
	Rotations bool `json:"rotations"`
	Diagonal  bool `json:"diagonal"`
}

// NodalMass is a lumped mass with optional rotational inertia and eccentricity.
type NodalMass struct {
	ElementSetBase
	Mass float64 `json:"mass"`
	Ixx  float64 `json:"ixx,omitempty"`
	Iyy  float64 `json:"iyy,omitempty"`
	Izz  float64 `json:"izz,omitempty"`
	Ixy  float64 `json:"ixy,omitempty"`
	Iyz  float64 `json:"iyz,omitempty"`
	Ixz  float64 `json:"ixz,omitempty"`
	Ex   float64 `json:"ex,omitempty"`
	Ey   float64 `json:"ey,omitempty"`
	Ez   float64 `json:"ez,omitempty"`
}

// HasRotations reports whether any rotational inertia is defined.
func (n *NodalMass) HasRotations() bool {
	return n.Ixx != 0 || n.Iyy != 0 || n.Izz != 0 || n.Ixy != 0 || n.Iyz != 0 || n.Ixz != 0
}

// Continuum is a 3D solid.
type Continuum struct {
	ElementSetBase
}

// Skin is a zero-stiffness face layer used to apply surface loads on solids.
type Skin struct {
	ElementSetBase
}

// IsBeam reports whether the element set is one of the beam formulations.
func IsBeam(es ElementSet) bool {
	switch es.(type) {
	case *RectangularBeam, *CircularBeam, *TubeBeam, *GenericBeam:
		return true
	}
	return false
}

// NodalDOFs returns the degrees of freedom an element set provides to its nodes.
func NodalDOFs(es ElementSet) DOFS {
	switch e := es.(type) {
	case *RectangularBeam, *CircularBeam, *TubeBeam, *GenericBeam, *Shell, *Composite:
		return AllDOFs
	case *DiscretePoint:
		if e.Rotations {
			return AllDOFs
		}
	case *DiscreteSegment:
		if e.Rotations {
			return AllDOFs
		}
	case *NodalMass:
		if e.HasRotations() {
			return AllDOFs
		}
	}
	return Translations
}
