package emit

import (
	"fmt"
	"strings"
	"testing"

	"astergen/pkg/model"
)

// lineMesh builds n two-node cells along X with ids 1..n.
func lineMesh(t *testing.T, n int) *model.Mesh {
	t.Helper()
	mesh := model.NewMesh()
	for i := 1; i <= n+1; i++ {
		if _, err := mesh.AddNode(i, float64(i-1), 0, 0); err != nil {
			t.Fatalf("add node: %v", err)
		}
	}
	for i := 1; i <= n; i++ {
		if _, err := mesh.AddCell(i, model.Seg2, []int{i, i + 1}); err != nil {
			t.Fatalf("add cell: %v", err)
		}
	}
	return mesh
}

func TestEncodeCellsSkipsEmptyGroupsAndCoveredCells(t *testing.T) {
	mesh := lineMesh(t, 10)
	if _, err := mesh.AddCellGroup("g1", nil); err != nil {
		t.Fatalf("add group: %v", err)
	}
	if _, err := mesh.AddCellGroup("g2", []int{1, 2, 3}); err != nil {
		t.Fatalf("add group: %v", err)
	}
	c := model.Container{CellGroups: []string{"g1", "g2"}, Cells: []int{1, 5, 9}}
	got := EncodeCells(mesh, c)
	want := "GROUP_MA=('g2',),MAILLE=('M6','M10',),"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEncodeCellsOutOfRangeAndEmpty(t *testing.T) {
	mesh := lineMesh(t, 3)
	if got := EncodeCells(mesh, model.Container{Cells: []int{-1, 3, 7}}); got != "" {
		t.Fatalf("expected no selection, got %q", got)
	}
	if got := EncodeCells(mesh, model.Everything()); got != "TOUT='OUI'," {
		t.Fatalf("unexpected selection of everything %q", got)
	}
}

func TestEncodeBreaksLinesEverySixNames(t *testing.T) {
	mesh := lineMesh(t, 13)
	positions := make([]int, 13)
	for i := range positions {
		positions[i] = i
	}
	got := EncodeCells(mesh, model.Container{Cells: positions})
	if n := strings.Count(got, continuation); n != 2 {
		t.Fatalf("expected 2 line breaks, got %d in %q", n, got)
	}
	if !strings.HasPrefix(got, "MAILLE=('M1','M2','M3','M4','M5','M6',"+continuation+"'M7',") {
		t.Fatalf("unexpected layout %q", got)
	}
}

func TestEncodeBreaksGroupNamesEverySixNames(t *testing.T) {
	mesh := lineMesh(t, 13)
	groups := make([]string, 13)
	for i := range groups {
		groups[i] = fmt.Sprintf("G%d", i+1)
		if _, err := mesh.AddCellGroup(groups[i], []int{i}); err != nil {
			t.Fatalf("add group: %v", err)
		}
	}
	got := EncodeCells(mesh, model.Container{CellGroups: groups})
	lines := strings.Split(got, continuation)
	if len(lines) != 3 {
		t.Fatalf("expected 2 line breaks, got %d in %q", len(lines)-1, got)
	}
	if lines[0] != "GROUP_MA=('G1','G2','G3','G4','G5','G6'," {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "'G12',") || lines[2] != "'G13',)," {
		t.Fatalf("expected breaks after the 6th and 12th names, got %q", got)
	}
}

func TestEncodeNodesSharesCounterAcrossLists(t *testing.T) {
	mesh := lineMesh(t, 6)
	if _, err := mesh.AddNodeGroup("ends", []int{1, 7}); err != nil {
		t.Fatalf("add group: %v", err)
	}
	c := model.Container{NodeGroups: []string{"ends"}, Nodes: []int{0, 1, 2, 3, 4, 5}}
	got := EncodeNodes(mesh, c)
	want := "GROUP_NO=('ends',),NOEUD=('N2','N3','N4','N5','N6',)," // node 0 is covered by the group
	want = strings.Replace(want, "'N6',", "'N6',"+continuation, 1)
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
