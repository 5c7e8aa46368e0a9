package model

import (
	"fmt"
	"math/bits"
	"strings"
)

// DOF is a single nodal degree of freedom.
type DOF uint8

// Nodal degrees of freedom, translations first.
const (
	DX DOF = iota
	DY
	DZ
	RX
	RY
	RZ
)

var dofNames = [...]string{"DX", "DY", "DZ", "RX", "RY", "RZ"}

func (d DOF) String() string {
	if int(d) < len(dofNames) {
		return dofNames[d]
	}
	return fmt.Sprintf("DOF(%d)", d)
}

// IsRotation reports whether d is a rotational degree of freedom.
func (d DOF) IsRotation() bool { return d >= RX && d <= RZ }

// ParseDOF converts DX..RZ (case-insensitive, DRX accepted) to a DOF.
func ParseDOF(s string) (DOF, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	if strings.HasPrefix(up, "DR") {
		up = up[1:]
	}
	for i, n := range dofNames {
		if n == up {
			return DOF(i), nil
		}
	}
	return 0, fmt.Errorf("unknown degree of freedom %q", s)
}

// DOFS is a set of degrees of freedom.
type DOFS uint8

// Common DOF sets.
const (
	NoDOFs       DOFS = 0
	Translations DOFS = 1<<DX | 1<<DY | 1<<DZ
	Rotations    DOFS = 1<<RX | 1<<RY | 1<<RZ
	AllDOFs           = Translations | Rotations
)

// DOFSOf builds a set from individual DOFs.
func DOFSOf(ds ...DOF) DOFS {
	var out DOFS
	for _, d := range ds {
		out |= 1 << d
	}
	return out
}

func (s DOFS) Contains(d DOF) bool     { return s&(1<<d) != 0 }
func (s DOFS) ContainsAll(o DOFS) bool { return s&o == o }
func (s DOFS) Intersect(o DOFS) DOFS   { return s & o }
func (s DOFS) Union(o DOFS) DOFS       { return s | o }
func (s DOFS) Without(o DOFS) DOFS     { return s &^ o }
func (s DOFS) Empty() bool             { return s&AllDOFs == 0 }
func (s DOFS) Len() int                { return bits.OnesCount8(uint8(s & AllDOFs)) }
func (s DOFS) HasRotations() bool      { return s&Rotations != 0 }
func (s DOFS) Add(d DOF) DOFS          { return s | 1<<d }

// List returns the members in DX..RZ order.
func (s DOFS) List() []DOF {
	out := make([]DOF, 0, s.Len())
	for d := DX; d <= RZ; d++ {
		if s.Contains(d) {
			out = append(out, d)
		}
	}
	return out
}

func (s DOFS) String() string {
	parts := make([]string, 0, s.Len())
	for _, d := range s.List() {
		parts = append(parts, d.String())
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// ParseDOFS parses a list of DOF names.
func ParseDOFS(names []string) (DOFS, error) {
	var out DOFS
	for _, n := range names {
		d, err := ParseDOF(n)
		if err != nil {
			return 0, err
		}
		out = out.Add(d)
	}
	return out, nil
}
