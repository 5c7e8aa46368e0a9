// Package meshio writes meshes in the solver's native text format.
package meshio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"astergen/pkg/model"
)

// ErrEmptyMesh is returned for a mesh without nodes.
var ErrEmptyMesh = errors.New("mesh has no node")

// MaxGroupName is the longest group name the format accepts.
const MaxGroupName = 24

// WriteMail writes the nodes, the cells grouped by consecutive topology and
// the non-empty groups of a mesh. Node and cell names follow the positions,
// so they match the names used in the command file.
func WriteMail(ctx context.Context, out io.Writer, mesh *model.Mesh, title string) error {
	if mesh.NodeCount() == 0 {
		return ErrEmptyMesh
	}
	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "TITRE\n%s\nFINSF\n%%\n", title)

	w.WriteString("COOR_3D\n")
	for i, n := range mesh.Nodes() {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "%s %s %s %s\n", mesh.NodeName(n.Position), coord(n.X), coord(n.Y), coord(n.Z))
	}
	w.WriteString("FINSF\n%\n")

	cells := mesh.Cells()
	for start := 0; start < len(cells); {
		if err := ctx.Err(); err != nil {
			return err
		}
		typ := cells[start].Type
		end := start
		for end < len(cells) && cells[end].Type == typ {
			end++
		}
		fmt.Fprintf(w, "%s\n", typ)
		for _, c := range cells[start:end] {
			if want := typ.NodeCount(); want != 0 && len(c.Nodes) != want {
				return fmt.Errorf("cell %d: %s expects %d nodes, got %d", c.ID, typ, want, len(c.Nodes))
			}
			w.WriteString(mesh.CellName(c.Position))
			for _, n := range c.Nodes {
				w.WriteString(" " + mesh.NodeName(n))
			}
			w.WriteByte('\n')
		}
		w.WriteString("FINSF\n%\n")
		start = end
	}

	if err := groups(w, "GROUP_NO", mesh.NodeGroups(), mesh.NodeName); err != nil {
		return err
	}
	if err := groups(w, "GROUP_MA", mesh.CellGroups(), mesh.CellName); err != nil {
		return err
	}
	w.WriteString("FIN\n")
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write mesh: %w", err)
	}
	return nil
}

func groups(w *bufio.Writer, keyword string, gs []*model.Group, name func(int) string) error {
	for _, g := range gs {
		if g.Empty() {
			continue
		}
		if len(g.Name) > MaxGroupName {
			return fmt.Errorf("group %q: name longer than %d characters", g.Name, MaxGroupName)
		}
		fmt.Fprintf(w, "%s\n%s\n", keyword, g.Name)
		for _, m := range g.Members {
			w.WriteString(name(m) + "\n")
		}
		w.WriteString("FINSF\n%\n")
	}
	return nil
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'g', 15, 64)
}
