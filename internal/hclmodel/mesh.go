package hclmodel

import (
	"strings"

	"github.com/hashicorp/hcl/v2"

	"astergen/pkg/model"
)

func (b *builder) mesh(s *meshSpec) {
	mesh := b.m.Mesh
	for _, row := range s.Nodes {
		if len(row) != 4 {
			b.errorf(nil, "Invalid node", "node rows are [id, x, y, z], got %v", row)
			continue
		}
		if _, err := mesh.AddNode(int(row[0]), row[1], row[2], row[3]); err != nil {
			b.errorf(nil, "Invalid node", "%v", err)
		}
	}
	for _, cs := range s.Cells {
		typ := model.CellType(strings.ToUpper(cs.Type))
		if typ.NodeCount() == 0 {
			b.errorf(nil, "Unsupported cell type", "cell type %q is not supported", cs.Type)
			continue
		}
		for _, row := range cs.Connectivity {
			if len(row) != typ.NodeCount()+1 {
				b.errorf(nil, "Invalid cell", "%s rows are [id, %d node ids], got %v", typ, typ.NodeCount(), row)
				continue
			}
			if _, err := mesh.AddCell(row[0], typ, row[1:]); err != nil {
				b.errorf(nil, "Invalid cell", "%v", err)
			}
		}
	}
	for _, g := range s.NodeGroups {
		if _, err := mesh.AddNodeGroup(g.Name, g.Members); err != nil {
			b.errorf(nil, "Invalid node group", "%v", err)
		}
	}
	for _, g := range s.CellGroups {
		group, err := mesh.AddCellGroup(g.Name, g.Members)
		if err != nil {
			b.errorf(nil, "Invalid cell group", "%v", err)
			continue
		}
		if len(g.Orientation) > 0 {
			v := b.vector(g.Orientation, nil)
			group.Orientation = &v
		}
	}
}

// selection converts mesh ids to positions.
func (b *builder) selection(s selectionSpec, rng *hcl.Range) model.Container {
	return model.Container{
		All:        s.All,
		Nodes:      b.nodes(s.Nodes, rng),
		NodeGroups: s.NodeGroups,
		Cells:      b.cells(s.Cells, rng),
		CellGroups: s.CellGroups,
	}
}

func (b *builder) nodes(ids []int, rng *hcl.Range) []int {
	if len(ids) == 0 {
		return nil
	}
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		pos, ok := b.m.Mesh.NodePosition(id)
		if !ok {
			b.errorf(rng, "Unknown node", "no node with id %d", id)
			continue
		}
		out = append(out, pos)
	}
	return out
}

func (b *builder) node(id int, rng *hcl.Range) int {
	pos, ok := b.m.Mesh.NodePosition(id)
	if !ok {
		b.errorf(rng, "Unknown node", "no node with id %d", id)
	}
	return pos
}

func (b *builder) cells(ids []int, rng *hcl.Range) []int {
	if len(ids) == 0 {
		return nil
	}
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		pos, ok := b.m.Mesh.CellPosition(id)
		if !ok {
			b.errorf(rng, "Unknown cell", "no cell with id %d", id)
			continue
		}
		out = append(out, pos)
	}
	return out
}

func (b *builder) vector(vs []float64, rng *hcl.Range) model.Vector {
	switch len(vs) {
	case 0:
		return model.Vector{}
	case 3:
		return model.Vec(vs[0], vs[1], vs[2])
	}
	b.errorf(rng, "Invalid vector", "vectors have 3 components, got %d", len(vs))
	return model.Vector{}
}

func (b *builder) dofs(names []string, rng *hcl.Range) model.DOFS {
	s, err := model.ParseDOFS(names)
	if err != nil {
		b.errorf(rng, "Invalid DOF", "%v", err)
	}
	return s
}

// perDOF reads a map keyed by DOF name.
func (b *builder) perDOF(values map[string]float64, rng *hcl.Range) ([6]float64, model.DOFS) {
	var out [6]float64
	var set model.DOFS
	for name, v := range values {
		d, err := model.ParseDOF(name)
		if err != nil {
			b.errorf(rng, "Invalid DOF", "%v", err)
			continue
		}
		out[d] = v
		set = set.Add(d)
	}
	return out, set
}
