package lifecycle

import (
	"strings"
	"testing"
)

func TestFlushWritesSingleBatchAndClears(t *testing.T) {
	tr := NewTracker()
	tr.Register("RIEL")
	tr.Register("RIGI")
	tr.Register("RIEL")
	tr.Register("")

	var b strings.Builder
	released, err := tr.Flush(&b)
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	want := "DETRUIRE(CONCEPT=(\n    _F(NOM=RIEL),\n    _F(NOM=RIGI),\n))\n\n"
	if b.String() != want {
		t.Fatalf("unexpected output:\n%s", b.String())
	}
	if len(released) != 2 || len(tr.Pending()) != 0 {
		t.Fatalf("expected two released names and empty pending list, got %v / %v", released, tr.Pending())
	}
	if tr.Released() != 2 {
		t.Fatalf("expected released counter 2, got %d", tr.Released())
	}
}

func TestFlushEmptyWritesNothing(t *testing.T) {
	tr := NewTracker()
	var b strings.Builder
	released, err := tr.Flush(&b)
	if err != nil || released != nil || b.Len() != 0 {
		t.Fatalf("expected no output, got %q %v %v", b.String(), released, err)
	}
}

func TestNameCanBeRegisteredAgainAfterFlush(t *testing.T) {
	tr := NewTracker()
	tr.Register("RESU")
	if _, err := tr.Flush(&strings.Builder{}); err != nil {
		t.Fatal(err)
	}
	tr.Register("RESU")
	if got := tr.Pending(); len(got) != 1 || got[0] != "RESU" {
		t.Fatalf("expected RESU pending again, got %v", got)
	}
}
