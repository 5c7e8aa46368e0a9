package model

// Constraint is a closed family of boundary conditions and couplings:
// SinglePointConstraint, RigidConstraint, QuasiRigidConstraint,
// LinearMultiPointConstraint, RBE3, Gap, SlideContact, SurfaceContact,
// ZoneContact and SurfaceSlide.
type Constraint interface {
	Entity
	Common() *ConstraintBase
}

// ConstraintBase carries the fields shared by all constraints.
type ConstraintBase struct {
	Base
	Ineffective bool `json:"-"`
}

func (c *ConstraintBase) Ref() Ref                { return Ref{Kind: KindConstraint, ID: c.ID} }
func (c *ConstraintBase) Common() *ConstraintBase { return c }
func (c *ConstraintBase) Effective() bool         { return !c.Ineffective }

// SinglePointConstraint imposes values on nodal degrees of freedom. A non-zero
// entry in Functions makes the imposed value a function table.
type SinglePointConstraint struct {
	ConstraintBase
	Nodes     Container  `json:"nodes"`
	DOFs      DOFS       `json:"dofs"`
	Values    [6]float64 `json:"values"`
	Functions [6]int     `json:"functions,omitempty"`
}

// HasFunctions reports whether any imposed value is a function.
func (c *SinglePointConstraint) HasFunctions() bool {
	for _, d := range c.DOFs.List() {
		if c.Functions[d] != 0 {
			return true
		}
	}
	return false
}

// RigidConstraint ties slave nodes rigidly to a master node.
type RigidConstraint struct {
	ConstraintBase
	Master int   `json:"master"`
	Slaves []int `json:"slaves"`
}

// QuasiRigidConstraint ties the given DOFs of a node set together.
type QuasiRigidConstraint struct {
	ConstraintBase
	Nodes []int `json:"nodes"`
	DOFs  DOFS  `json:"dofs"`
}

// CompletelyRigid reports whether every DOF is tied.
func (c *QuasiRigidConstraint) CompletelyRigid() bool { return c.DOFs.ContainsAll(AllDOFs) }

// LMPCTerm is one node contribution to a linear relation.
type LMPCTerm struct {
	Node  int        `json:"node"`
	Coefs [6]float64 `json:"coefs"`
}

// DOFs returns the DOFs with a non-zero coefficient.
func (t LMPCTerm) DOFs() DOFS {
	var out DOFS
	for d := DX; d <= RZ; d++ {
		if t.Coefs[d] != 0 {
			out = out.Add(d)
		}
	}
	return out
}

// LinearMultiPointConstraint imposes sum(coef * dof) = Imposed.
type LinearMultiPointConstraint struct {
	ConstraintBase
	Terms   []LMPCTerm `json:"terms"`
	Imposed float64    `json:"imposed"`
}

// RBE3Slave is a weighted slave of an RBE3 interpolation.
type RBE3Slave struct {
	Node int     `json:"node"`
	DOFs DOFS    `json:"dofs"`
	Coef float64 `json:"coef"`
}

// RBE3 distributes the motion of a master node over weighted slaves.
type RBE3 struct {
	ConstraintBase
	Master     int         `json:"master"`
	MasterDOFs DOFS        `json:"master_dofs"`
	Slaves     []RBE3Slave `json:"slaves"`
}

// GapParticipation is a node taking part in a gap with its closing direction.
type GapParticipation struct {
	Node      int    `json:"node"`
	Direction Vector `json:"direction"`
}

// Gap is a node-to-ground unilateral contact.
type Gap struct {
	ConstraintBase
	InitialOpening float64            `json:"initial_opening"`
	Participations []GapParticipation `json:"participations"`
}

// SlideContact is a frictional contact between two cell groups.
type SlideContact struct {
	ConstraintBase
	Master   string  `json:"master"`
	Slave    string  `json:"slave"`
	Friction float64 `json:"friction"`
}

// SurfaceContact is a frictionless contact between two cell groups.
type SurfaceContact struct {
	ConstraintBase
	Master string `json:"master"`
	Slave  string `json:"slave"`
}

// ZoneContact is a contact between two boundary surfaces.
type ZoneContact struct {
	ConstraintBase
	Master string `json:"master"`
	Slave  string `json:"slave"`
}

// SurfaceSlide glues a slave surface onto a master volume.
type SurfaceSlide struct {
	ConstraintBase
	Master string `json:"master"`
	Slave  string `json:"slave"`
}

// IsContact reports whether the constraint is handled by the contact
// definition rather than by a mechanical load.
func IsContact(c Constraint) bool {
	switch c.(type) {
	case *Gap, *SlideContact, *SurfaceContact, *ZoneContact:
		return true
	}
	return false
}

// ConstrainedNodes returns the node positions a constraint acts on together
// with the DOFs involved at each node. Container based constraints are
// resolved through the mesh.
func ConstrainedNodes(c Constraint, mesh *Mesh) map[int]DOFS {
	out := make(map[int]DOFS)
	add := func(pos int, d DOFS) { out[pos] = out[pos].Union(d) }
	switch v := c.(type) {
	case *SinglePointConstraint:
		for _, p := range mesh.NodesOf(v.Nodes) {
			add(p, v.DOFs)
		}
	case *RigidConstraint:
		add(v.Master, AllDOFs)
		for _, s := range v.Slaves {
			add(s, AllDOFs)
		}
	case *QuasiRigidConstraint:
		for _, n := range v.Nodes {
			add(n, v.DOFs)
		}
	case *LinearMultiPointConstraint:
		for _, t := range v.Terms {
			add(t.Node, t.DOFs())
		}
	case *RBE3:
		add(v.Master, v.MasterDOFs)
		for _, s := range v.Slaves {
			add(s.Node, s.DOFs)
		}
	case *Gap:
		for _, p := range v.Participations {
			add(p.Node, Translations)
		}
	}
	return out
}
