package model

import (
	"reflect"
	"testing"
)

func buildMesh(t *testing.T) *Mesh {
	t.Helper()
	m := NewMesh()
	for i := 1; i <= 4; i++ {
		if _, err := m.AddNode(100+i, float64(i), 0, 0); err != nil {
			t.Fatalf("add node: %v", err)
		}
	}
	if _, err := m.AddCell(10, Seg2, []int{101, 102}); err != nil {
		t.Fatalf("add cell: %v", err)
	}
	if _, err := m.AddCell(11, Seg2, []int{102, 103}); err != nil {
		t.Fatalf("add cell: %v", err)
	}
	if _, err := m.AddCellGroup("BEAM", []int{10, 11}); err != nil {
		t.Fatalf("add group: %v", err)
	}
	if _, err := m.AddCellGroup("EMPTY", nil); err != nil {
		t.Fatalf("add group: %v", err)
	}
	if _, err := m.AddNodeGroup("TIP", []int{104}); err != nil {
		t.Fatalf("add group: %v", err)
	}
	return m
}

func TestMeshCanonicalNames(t *testing.T) {
	m := buildMesh(t)
	pos, ok := m.NodePosition(103)
	if !ok || pos != 2 {
		t.Fatalf("unexpected node position %d %v", pos, ok)
	}
	if got := m.NodeName(pos); got != "N3" {
		t.Fatalf("expected N3, got %s", got)
	}
	if got := m.CellName(1); got != "M2" {
		t.Fatalf("expected M2, got %s", got)
	}
}

func TestMeshRejectsBadCells(t *testing.T) {
	m := buildMesh(t)
	if _, err := m.AddCell(12, Seg2, []int{101}); err == nil {
		t.Fatalf("expected node count error")
	}
	if _, err := m.AddCell(12, Seg2, []int{101, 999}); err == nil {
		t.Fatalf("expected missing node error")
	}
	if _, err := m.AddCell(10, Seg2, []int{101, 102}); err == nil {
		t.Fatalf("expected duplicate cell error")
	}
	pos, err := m.AddCell(0, Point1, []int{104})
	if err != nil {
		t.Fatalf("auto id cell: %v", err)
	}
	if m.Cell(pos).ID != 12 {
		t.Fatalf("expected auto cell id 12, got %d", m.Cell(pos).ID)
	}
}

func TestMeshResolvesContainers(t *testing.T) {
	m := buildMesh(t)
	c := Container{CellGroups: []string{"BEAM"}, NodeGroups: []string{"TIP"}}
	if got, want := m.NodesOf(c), []int{0, 1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Fatalf("NodesOf = %v, want %v", got, want)
	}
	if got := m.CellsOf(OnCellGroups("EMPTY", "MISSING")); len(got) != 0 {
		t.Fatalf("expected no cells, got %v", got)
	}
	if !m.IsEmpty(OnCellGroups("EMPTY", "MISSING")) {
		t.Fatalf("expected empty container")
	}
	if m.IsEmpty(OnNodes(3)) || m.IsEmpty(Everything()) {
		t.Fatalf("expected non empty containers")
	}
	if !m.InCellGroup("BEAM", 1) || m.InCellGroup("EMPTY", 1) {
		t.Fatalf("unexpected group membership")
	}
}

func TestDOFS(t *testing.T) {
	s := DOFSOf(DX, RZ)
	if !s.Contains(RZ) || s.Contains(DY) || s.Len() != 2 || !s.HasRotations() {
		t.Fatalf("unexpected set %v", s)
	}
	if got := AllDOFs.Without(Rotations); got != Translations {
		t.Fatalf("expected translations, got %v", got)
	}
	parsed, err := ParseDOFS([]string{"dx", "DRY"})
	if err != nil || parsed != DOFSOf(DX, RY) {
		t.Fatalf("unexpected parse %v %v", parsed, err)
	}
	if _, err := ParseDOF("DW"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestVector(t *testing.T) {
	v := Vec(3, 0, 4)
	if v.Norm() != 5 {
		t.Fatalf("norm = %v", v.Norm())
	}
	if n := v.Normalized(); n.X != 0.6 || n.Z != 0.8 {
		t.Fatalf("normalized = %+v", n)
	}
	if c := Vec(1, 0, 0).Cross(Vec(0, 1, 0)); c != Vec(0, 0, 1) {
		t.Fatalf("cross = %+v", c)
	}
	if !(Vector{}).Normalized().IsZero() {
		t.Fatalf("zero vector must stay zero")
	}
}
