package emit

import (
	"strings"

	"astergen/pkg/model"
)

// namesPerLine is the number of names written before a line continuation.
const namesPerLine = 6

const continuation = "\n                             "

// selection accumulates the names of one container so that line breaks are
// counted across all of its lists.
type selection struct {
	b     strings.Builder
	count int
}

func (s *selection) list(keyword string, names []string) {
	if len(names) == 0 {
		return
	}
	s.b.WriteString(keyword + "=(")
	for _, n := range names {
		s.count++
		s.b.WriteString("'" + n + "',")
		if s.count%namesPerLine == 0 {
			s.b.WriteString(continuation)
		}
	}
	s.b.WriteString("),")
}

// EncodeCells writes the cell part of a container: TOUT='OUI' when it covers
// the whole mesh, otherwise its non-empty groups then the cells that no
// written group already holds. An empty container encodes to "".
func EncodeCells(mesh *model.Mesh, c model.Container) string {
	if c.All {
		return "TOUT='OUI',"
	}
	var s selection
	s.cells(mesh, c)
	return s.b.String()
}

// EncodeNodes writes a node container: node groups, then nodes, then the
// cell part for containers that also select cells.
func EncodeNodes(mesh *model.Mesh, c model.Container) string {
	if c.All {
		return "TOUT='OUI',"
	}
	var s selection
	groups := nonEmpty(c.NodeGroups, mesh.NodeGroup)
	s.list("GROUP_NO", groups)
	var names []string
	for _, p := range c.Nodes {
		if p < 0 || p >= mesh.NodeCount() || coveredBy(groups, p, mesh.InNodeGroup) {
			continue
		}
		names = append(names, mesh.NodeName(p))
	}
	s.list("NOEUD", names)
	s.cells(mesh, c)
	return s.b.String()
}

func (s *selection) cells(mesh *model.Mesh, c model.Container) {
	groups := nonEmpty(c.CellGroups, mesh.CellGroup)
	s.list("GROUP_MA", groups)
	var names []string
	for _, p := range c.Cells {
		if p < 0 || p >= mesh.CellCount() || coveredBy(groups, p, mesh.InCellGroup) {
			continue
		}
		names = append(names, mesh.CellName(p))
	}
	s.list("MAILLE", names)
}

func nonEmpty(names []string, lookup func(string) (*model.Group, bool)) []string {
	var out []string
	for _, n := range names {
		if g, ok := lookup(n); ok && !g.Empty() {
			out = append(out, n)
		}
	}
	return out
}

func coveredBy(groups []string, pos int, in func(string, int) bool) bool {
	for _, g := range groups {
		if in(g, pos) {
			return true
		}
	}
	return false
}
