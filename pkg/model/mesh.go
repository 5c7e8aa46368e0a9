package model

import (
	"fmt"
	"sort"
)

// CellType names a cell topology using the solver's vocabulary.
type CellType string

// Supported cell topologies.
const (
	Point1  CellType = "POI1"
	Seg2    CellType = "SEG2"
	Seg3    CellType = "SEG3"
	Tria3   CellType = "TRIA3"
	Tria6   CellType = "TRIA6"
	Quad4   CellType = "QUAD4"
	Quad8   CellType = "QUAD8"
	Tetra4  CellType = "TETRA4"
	Tetra10 CellType = "TETRA10"
	Penta6  CellType = "PENTA6"
	Hexa8   CellType = "HEXA8"
	Hexa20  CellType = "HEXA20"
)

var cellNodeCounts = map[CellType]int{
	Point1: 1, Seg2: 2, Seg3: 3, Tria3: 3, Tria6: 6, Quad4: 4, Quad8: 8,
	Tetra4: 4, Tetra10: 10, Penta6: 6, Hexa8: 8, Hexa20: 20,
}

// NodeCount returns the number of nodes of the topology, or zero when unknown.
func (t CellType) NodeCount() int { return cellNodeCounts[t] }

// Node is a mesh node. Position is its zero-based index in the mesh.
type Node struct {
	ID       int     `json:"id"`
	Position int     `json:"position"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	DOFs     DOFS    `json:"dofs"`
}

// Cell is a mesh cell whose nodes are given by position.
type Cell struct {
	ID       int      `json:"id"`
	Position int      `json:"position"`
	Type     CellType `json:"type"`
	Nodes    []int    `json:"nodes"`
}

// Group is a named set of node or cell positions.
type Group struct {
	Name    string `json:"name"`
	Members []int  `json:"members"`
	// Orientation is the local Y axis assigned to the beam cells of a cell group.
	Orientation *Vector `json:"orientation,omitempty"`
	Virtual     bool    `json:"virtual,omitempty"`
}

// Empty reports whether the group has no members.
func (g *Group) Empty() bool { return g == nil || len(g.Members) == 0 }

// Contains reports whether a position belongs to the group.
func (g *Group) Contains(pos int) bool {
	if g == nil {
		return false
	}
	for _, m := range g.Members {
		if m == pos {
			return true
		}
	}
	return false
}

// Mesh holds nodes, cells and their groups.
type Mesh struct {
	nodes      []Node
	nodeIndex  map[int]int
	cells      []Cell
	cellIndex  map[int]int
	nodeGroups []*Group
	cellGroups []*Group
	groupIndex map[string]*Group
}

// NewMesh returns an empty mesh.
func NewMesh() *Mesh {
	return &Mesh{
		nodeIndex:  make(map[int]int),
		cellIndex:  make(map[int]int),
		groupIndex: make(map[string]*Group),
	}
}

// AddNode appends a node and returns its position.
func (m *Mesh) AddNode(id int, x, y, z float64) (int, error) {
	if _, ok := m.nodeIndex[id]; ok {
		return 0, fmt.Errorf("node %d already exists", id)
	}
	pos := len(m.nodes)
	m.nodes = append(m.nodes, Node{ID: id, Position: pos, X: x, Y: y, Z: z})
	m.nodeIndex[id] = pos
	return pos, nil
}

// AddCell appends a cell built on existing node ids and returns its position.
// A zero id is replaced by the next free cell id.
func (m *Mesh) AddCell(id int, typ CellType, nodeIDs []int) (int, error) {
	if id == 0 {
		id = m.nextCellID()
	}
	if _, ok := m.cellIndex[id]; ok {
		return 0, fmt.Errorf("cell %d already exists", id)
	}
	if n := typ.NodeCount(); n == 0 {
		return 0, fmt.Errorf("cell %d: unknown cell type %q", id, typ)
	} else if n != len(nodeIDs) {
		return 0, fmt.Errorf("cell %d: %s expects %d nodes, got %d", id, typ, n, len(nodeIDs))
	}
	positions := make([]int, len(nodeIDs))
	for i, nid := range nodeIDs {
		p, ok := m.nodeIndex[nid]
		if !ok {
			return 0, fmt.Errorf("cell %d: node %d not found", id, nid)
		}
		positions[i] = p
	}
	pos := len(m.cells)
	m.cells = append(m.cells, Cell{ID: id, Position: pos, Type: typ, Nodes: positions})
	m.cellIndex[id] = pos
	return pos, nil
}

func (m *Mesh) nextCellID() int {
	maxID := 0
	for id := range m.cellIndex {
		if id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}

// AddNodeGroup registers a node group from node ids.
func (m *Mesh) AddNodeGroup(name string, nodeIDs []int) (*Group, error) {
	members, err := m.positions(name, nodeIDs, m.nodeIndex, "node")
	if err != nil {
		return nil, err
	}
	g := &Group{Name: name, Members: members}
	if err := m.register(g); err != nil {
		return nil, err
	}
	m.nodeGroups = append(m.nodeGroups, g)
	return g, nil
}

// AddCellGroup registers a cell group from cell ids.
func (m *Mesh) AddCellGroup(name string, cellIDs []int) (*Group, error) {
	members, err := m.positions(name, cellIDs, m.cellIndex, "cell")
	if err != nil {
		return nil, err
	}
	g := &Group{Name: name, Members: members}
	if err := m.register(g); err != nil {
		return nil, err
	}
	m.cellGroups = append(m.cellGroups, g)
	return g, nil
}

func (m *Mesh) register(g *Group) error {
	if g.Name == "" {
		return fmt.Errorf("group name required")
	}
	if _, ok := m.groupIndex[g.Name]; ok {
		return fmt.Errorf("group %s already exists", g.Name)
	}
	m.groupIndex[g.Name] = g
	return nil
}

func (m *Mesh) positions(group string, ids []int, index map[int]int, what string) ([]int, error) {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		p, ok := index[id]
		if !ok {
			return nil, fmt.Errorf("group %s: %s %d not found", group, what, id)
		}
		out = append(out, p)
	}
	return out, nil
}

// NodePosition returns the position of a node id.
func (m *Mesh) NodePosition(id int) (int, bool) {
	p, ok := m.nodeIndex[id]
	return p, ok
}

// CellPosition returns the position of a cell id.
func (m *Mesh) CellPosition(id int) (int, bool) {
	p, ok := m.cellIndex[id]
	return p, ok
}

// Node returns the node at a position.
func (m *Mesh) Node(pos int) *Node {
	if pos < 0 || pos >= len(m.nodes) {
		return nil
	}
	return &m.nodes[pos]
}

// Cell returns the cell at a position.
func (m *Mesh) Cell(pos int) *Cell {
	if pos < 0 || pos >= len(m.cells) {
		return nil
	}
	return &m.cells[pos]
}

func (m *Mesh) NodeCount() int       { return len(m.nodes) }
func (m *Mesh) CellCount() int       { return len(m.cells) }
func (m *Mesh) Nodes() []Node        { return m.nodes }
func (m *Mesh) Cells() []Cell        { return m.cells }
func (m *Mesh) NodeGroups() []*Group { return m.nodeGroups }
func (m *Mesh) CellGroups() []*Group { return m.cellGroups }

// NodeGroup finds a node group by name.
func (m *Mesh) NodeGroup(name string) (*Group, bool) {
	for _, g := range m.nodeGroups {
		if g.Name == name {
			return g, true
		}
	}
	return nil, false
}

// CellGroup finds a cell group by name.
func (m *Mesh) CellGroup(name string) (*Group, bool) {
	for _, g := range m.cellGroups {
		if g.Name == name {
			return g, true
		}
	}
	return nil, false
}

// NodeName returns the canonical solver name of a node position.
func (m *Mesh) NodeName(pos int) string { return fmt.Sprintf("N%d", pos+1) }

// CellName returns the canonical solver name of a cell position.
func (m *Mesh) CellName(pos int) string { return fmt.Sprintf("M%d", pos+1) }

// CellGroupSize returns the member count of a cell group, zero when unknown.
func (m *Mesh) CellGroupSize(name string) int {
	g, _ := m.CellGroup(name)
	if g == nil {
		return 0
	}
	return len(g.Members)
}

// NodeGroupSize returns the member count of a node group, zero when unknown.
func (m *Mesh) NodeGroupSize(name string) int {
	g, _ := m.NodeGroup(name)
	if g == nil {
		return 0
	}
	return len(g.Members)
}

// InCellGroup reports whether a cell position belongs to the named group.
func (m *Mesh) InCellGroup(name string, pos int) bool {
	g, _ := m.CellGroup(name)
	return g.Contains(pos)
}

// InNodeGroup reports whether a node position belongs to the named group.
func (m *Mesh) InNodeGroup(name string, pos int) bool {
	g, _ := m.NodeGroup(name)
	return g.Contains(pos)
}

// CellsOf resolves a container to sorted cell positions. Node selections
// are ignored.
func (m *Mesh) CellsOf(c Container) []int {
	set := make(map[int]struct{})
	if c.All {
		for i := range m.cells {
			set[i] = struct{}{}
		}
	}
	for _, name := range c.CellGroups {
		if g, ok := m.CellGroup(name); ok {
			for _, p := range g.Members {
				set[p] = struct{}{}
			}
		}
	}
	for _, p := range c.Cells {
		if p >= 0 && p < len(m.cells) {
			set[p] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// NodesOf resolves a container to sorted node positions, including the
// nodes of every selected cell.
func (m *Mesh) NodesOf(c Container) []int {
	set := make(map[int]struct{})
	if c.All {
		for i := range m.nodes {
			set[i] = struct{}{}
		}
	}
	for _, p := range m.CellsOf(Container{CellGroups: c.CellGroups, Cells: c.Cells}) {
		for _, n := range m.cells[p].Nodes {
			set[n] = struct{}{}
		}
	}
	for _, name := range c.NodeGroups {
		if g, ok := m.NodeGroup(name); ok {
			for _, p := range g.Members {
				set[p] = struct{}{}
			}
		}
	}
	for _, p := range c.Nodes {
		if p >= 0 && p < len(m.nodes) {
			set[p] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// IsEmpty reports whether a container selects nothing in this mesh.
func (m *Mesh) IsEmpty(c Container) bool {
	if c.All {
		return len(m.nodes) == 0
	}
	for _, name := range c.CellGroups {
		if m.CellGroupSize(name) > 0 {
			return false
		}
	}
	for _, name := range c.NodeGroups {
		if m.NodeGroupSize(name) > 0 {
			return false
		}
	}
	return len(c.Cells) == 0 && len(c.Nodes) == 0
}

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
