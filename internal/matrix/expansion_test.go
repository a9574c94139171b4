package matrix

import (
	"reflect"
	"testing"

	"github.com/jbonatakis/reqmatrix/internal/location"
)

func rowIDs(rows []Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID())
	}
	return out
}

func TestExpansion_Defaults(t *testing.T) {
	e := NewExpansion()
	if !e.IsExpanded(location.RootID) {
		t.Fatalf("root should start expanded")
	}
	if e.IsExpanded("usa") {
		t.Fatalf("countries should start collapsed")
	}
	var nilExpansion *Expansion
	if !nilExpansion.IsExpanded(location.RootID) || nilExpansion.IsExpanded("usa") {
		t.Fatalf("nil expansion should behave like the defaults")
	}
}

func TestFlatten_RespectsExpansion(t *testing.T) {
	h := sampleHierarchy()
	e := NewExpansion()

	if got := rowIDs(Flatten(h.Roots(), e)); !reflect.DeepEqual(got, []string{"all", "usa"}) {
		t.Fatalf("initial rows = %#v", got)
	}

	e.Toggle("usa")
	if got := rowIDs(Flatten(h.Roots(), e)); !reflect.DeepEqual(got, []string{"all", "usa", "ca", "tx"}) {
		t.Fatalf("rows after expanding usa = %#v", got)
	}

	e.Toggle("ca")
	rows := Flatten(h.Roots(), e)
	if got := rowIDs(rows); !reflect.DeepEqual(got, []string{"all", "usa", "ca", "la", "tx"}) {
		t.Fatalf("rows after expanding ca = %#v", got)
	}
	if rows[3].Level() != 3 || rows[3].HasChildren() {
		t.Fatalf("la row = %#v", rows[3])
	}
	if !rows[2].Expanded || !rows[2].HasChildren() {
		t.Fatalf("ca row = %#v", rows[2])
	}

	e.Toggle("usa")
	if got := rowIDs(Flatten(h.Roots(), e)); !reflect.DeepEqual(got, []string{"all", "usa"}) {
		t.Fatalf("collapsing usa should hide ca's expanded children too, got %#v", got)
	}

	e.Toggle(location.RootID)
	if got := rowIDs(Flatten(h.Roots(), e)); !reflect.DeepEqual(got, []string{"all"}) {
		t.Fatalf("collapsed root rows = %#v", got)
	}
}

func TestExpansion_ExpandAllAndLevel(t *testing.T) {
	h := sampleHierarchy()
	e := NewExpansion()

	e.ExpandAll(h)
	if got := rowIDs(Flatten(h.Roots(), e)); !reflect.DeepEqual(got, []string{"all", "usa", "ca", "la", "tx"}) {
		t.Fatalf("expand all rows = %#v", got)
	}

	e.CollapseAll()
	if got := rowIDs(Flatten(h.Roots(), e)); !reflect.DeepEqual(got, []string{"all", "usa"}) {
		t.Fatalf("collapse all rows = %#v", got)
	}

	e.ExpandLevel(h, location.LevelSubregion1)
	if got := rowIDs(Flatten(h.Roots(), e)); !reflect.DeepEqual(got, []string{"all", "usa", "ca", "tx"}) {
		t.Fatalf("expand to subregion1 rows = %#v", got)
	}
}
