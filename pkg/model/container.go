package model

// Container describes which part of the mesh an entity applies to: the whole
// mesh, named groups, or explicit node/cell positions.
type Container struct {
	All        bool     `json:"all,omitempty"`
	CellGroups []string `json:"cell_groups,omitempty"`
	Cells      []int    `json:"cells,omitempty"`
	NodeGroups []string `json:"node_groups,omitempty"`
	Nodes      []int    `json:"nodes,omitempty"`
}

// Everything returns a container covering the whole mesh.
func Everything() Container { return Container{All: true} }

// OnCellGroups returns a container over the named cell groups.
func OnCellGroups(names ...string) Container { return Container{CellGroups: names} }

// OnNodes returns a container over explicit node positions.
func OnNodes(positions ...int) Container { return Container{Nodes: positions} }

// IsZero reports whether nothing at all has been assigned, without looking
// at group contents.
func (c Container) IsZero() bool {
	return !c.All && len(c.CellGroups) == 0 && len(c.Cells) == 0 &&
		len(c.NodeGroups) == 0 && len(c.Nodes) == 0
}

// HasCellSelection reports whether the container selects cells rather than nodes.
func (c Container) HasCellSelection() bool {
	return c.All || len(c.CellGroups) > 0 || len(c.Cells) > 0
}

// Clone returns a deep copy.
func (c Container) Clone() Container {
	return Container{
		All:        c.All,
		CellGroups: append([]string(nil), c.CellGroups...),
		Cells:      append([]int(nil), c.Cells...),
		NodeGroups: append([]string(nil), c.NodeGroups...),
		Nodes:      append([]int(nil), c.Nodes...),
	}
}
