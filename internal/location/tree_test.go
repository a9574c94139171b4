package location

import (
	"errors"
	"reflect"
	"testing"
)

func strPtr(s string) *string { return &s }

func sampleLocations() []*Location {
	return []*Location{
		{ID: "usa", Name: "United States"},
		{ID: "ca", Name: "California", ParentID: strPtr("usa")},
		{ID: "tx", Name: "Texas", ParentID: strPtr("usa")},
		{ID: "la", Name: "Los Angeles", ParentID: strPtr("ca")},
	}
}

func childIDs(n *Node) []string {
	out := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		out = append(out, c.ID)
	}
	return out
}

func TestBuild_AssignsLevels(t *testing.T) {
	h := Build(sampleLocations())

	wantDepth := map[string]int{"all": 0, "usa": 1, "ca": 2, "tx": 2, "la": 3}
	if !reflect.DeepEqual(h.Depth, wantDepth) {
		t.Fatalf("depth = %#v, want %#v", h.Depth, wantDepth)
	}
	roots := h.Roots()
	if len(roots) != 1 || roots[0].ID != RootID {
		t.Fatalf("roots = %#v, want single %q root", roots, RootID)
	}
	if got := childIDs(h.Root); !reflect.DeepEqual(got, []string{"usa"}) {
		t.Fatalf("all.children = %#v, want [usa]", got)
	}
	usa, ok := h.Node("usa")
	if !ok {
		t.Fatalf("expected usa node")
	}
	if got := childIDs(usa); !reflect.DeepEqual(got, []string{"ca", "tx"}) {
		t.Fatalf("usa.children = %#v, want [ca tx]", got)
	}
	if usa.Level != LevelCountry {
		t.Fatalf("usa level = %d, want %d", usa.Level, LevelCountry)
	}
	la, _ := h.Node("la")
	if la.ParentID != "ca" || la.Level != LevelSubregion2 {
		t.Fatalf("la = %#v, want parent ca level %d", la, LevelSubregion2)
	}
}

func TestBuild_IndexMaps(t *testing.T) {
	h := Build(sampleLocations())

	wantParent := map[string]string{"usa": "all", "ca": "usa", "tx": "usa", "la": "ca"}
	if !reflect.DeepEqual(h.Parent, wantParent) {
		t.Fatalf("parent = %#v, want %#v", h.Parent, wantParent)
	}
	wantChildren := map[string][]string{"all": {"usa"}, "usa": {"ca", "tx"}, "ca": {"la"}}
	if !reflect.DeepEqual(h.Children, wantChildren) {
		t.Fatalf("children = %#v, want %#v", h.Children, wantChildren)
	}
	if h.Len() != 4 {
		t.Fatalf("len = %d, want 4", h.Len())
	}
}

func TestBuild_SortsTopLevelCaseInsensitive(t *testing.T) {
	h := Build([]*Location{
		{ID: "z", Name: "zambia"},
		{ID: "b", Name: "Brazil"},
		{ID: "a", Name: "argentina"},
		{ID: "b2", Name: "brazil"},
	})

	want := []string{"a", "b", "b2", "z"}
	if got := h.TopLevel(); !reflect.DeepEqual(got, want) {
		t.Fatalf("top level = %#v, want %#v", got, want)
	}
}

func TestBuild_DeeperLevelsKeepSourceOrder(t *testing.T) {
	h := Build([]*Location{
		{ID: "usa", Name: "United States"},
		{ID: "wy", Name: "Wyoming", ParentID: strPtr("usa")},
		{ID: "al", Name: "Alabama", ParentID: strPtr("usa")},
	})

	if got := h.Children["usa"]; !reflect.DeepEqual(got, []string{"wy", "al"}) {
		t.Fatalf("usa children = %#v, want source order [wy al]", got)
	}
}

func TestBuild_ToleratesMalformedRows(t *testing.T) {
	records := append(sampleLocations(), nil, &Location{Name: "No ID"})
	h := Build(records)

	if h.Err != "" {
		t.Fatalf("expected no error message, got %q", h.Err)
	}
	if h.Skipped != 2 {
		t.Fatalf("skipped = %d, want 2", h.Skipped)
	}
	if h.Len() != 4 {
		t.Fatalf("len = %d, want 4", h.Len())
	}
	if h.Depth["la"] != 3 {
		t.Fatalf("la depth = %d, want 3", h.Depth["la"])
	}
}

func TestBuild_SkipsReservedAndDuplicateIDs(t *testing.T) {
	h := Build([]*Location{
		{ID: "all", Name: "Impostor"},
		{ID: "usa", Name: "United States"},
		{ID: "usa", Name: "Duplicate"},
	})

	if h.Skipped != 2 {
		t.Fatalf("skipped = %d, want 2", h.Skipped)
	}
	usa, _ := h.Node("usa")
	if usa.Name != "United States" {
		t.Fatalf("usa name = %q, want first declaration", usa.Name)
	}
	if h.Root.Name != RootName {
		t.Fatalf("root name = %q, want %q", h.Root.Name, RootName)
	}
}

func TestBuild_UnknownParentAttachesToRoot(t *testing.T) {
	h := Build([]*Location{
		{ID: "usa", Name: "United States"},
		{ID: "orphan", Name: "Orphan", ParentID: strPtr("missing")},
		{ID: "blank", Name: "Blank", ParentID: strPtr("  ")},
	})

	if h.Parent["orphan"] != RootID || h.Depth["orphan"] != LevelCountry {
		t.Fatalf("orphan parent=%q depth=%d, want root/1", h.Parent["orphan"], h.Depth["orphan"])
	}
	if h.Parent["blank"] != RootID {
		t.Fatalf("blank parent = %q, want root", h.Parent["blank"])
	}
}

func TestBuild_BreaksParentCycles(t *testing.T) {
	h := Build([]*Location{
		{ID: "a", Name: "A", ParentID: strPtr("b")},
		{ID: "b", Name: "B", ParentID: strPtr("a")},
		{ID: "c", Name: "C", ParentID: strPtr("c")},
	})

	if h.Parent["a"] != RootID || h.Parent["b"] != "a" {
		t.Fatalf("parents = %#v, want a under root and b under a", h.Parent)
	}
	if h.Parent["c"] != RootID {
		t.Fatalf("self-parented c = %q, want root", h.Parent["c"])
	}
	for id, depth := range h.Depth {
		if id == RootID {
			continue
		}
		if depth <= h.Depth[h.Parent[id]] {
			t.Fatalf("depth(%s)=%d not greater than parent depth", id, depth)
		}
	}
}

func TestBuild_RecoversFromFailingRecord(t *testing.T) {
	namer := func(loc Location) (string, error) {
		switch loc.ID {
		case "bad":
			return "", errors.New("unreadable name")
		case "boom":
			panic("corrupt record")
		}
		return DisplayName(loc)
	}
	records := append(sampleLocations(),
		&Location{ID: "bad", Name: "Bad"},
		&Location{ID: "boom", Name: "Boom"},
		&Location{ID: "sf", Name: "San Francisco", ParentID: strPtr("boom")},
	)

	h := BuildWith(records, BuildOptions{Namer: namer})
	if h.Err != ErrProcessLocationsMessage {
		t.Fatalf("err = %q, want %q", h.Err, ErrProcessLocationsMessage)
	}
	if len(h.Failures) != 2 {
		t.Fatalf("failures = %d, want 2", len(h.Failures))
	}
	if h.Contains("bad") || h.Contains("boom") {
		t.Fatalf("expected failing records to be dropped")
	}
	if h.Parent["sf"] != RootID {
		t.Fatalf("sf parent = %q, want root after its parent was dropped", h.Parent["sf"])
	}
	if h.Depth["la"] != 3 {
		t.Fatalf("remaining hierarchy lost: la depth = %d", h.Depth["la"])
	}
}

func TestBuild_NameFallsBackToCodeThenID(t *testing.T) {
	h := Build([]*Location{
		{ID: "de", Code: "DE"},
		{ID: "fr"},
	})

	de, _ := h.Node("de")
	fr, _ := h.Node("fr")
	if de.Name != "DE" || fr.Name != "fr" {
		t.Fatalf("names = %q/%q, want DE/fr", de.Name, fr.Name)
	}
}

func TestHierarchy_AncestorsAndDescendants(t *testing.T) {
	h := Build(sampleLocations())

	if got := h.Ancestors("la"); !reflect.DeepEqual(got, []string{"ca", "usa", "all"}) {
		t.Fatalf("ancestors(la) = %#v", got)
	}
	if got := h.Ancestors(RootID); got != nil {
		t.Fatalf("ancestors(all) = %#v, want nil", got)
	}
	if got := h.Ancestors("unknown"); got != nil {
		t.Fatalf("ancestors(unknown) = %#v, want nil", got)
	}
	if got := h.Descendants("usa"); !reflect.DeepEqual(got, []string{"ca", "la", "tx"}) {
		t.Fatalf("descendants(usa) = %#v", got)
	}
	if got := h.IDs(); !reflect.DeepEqual(got, []string{"all", "usa", "ca", "la", "tx"}) {
		t.Fatalf("ids = %#v", got)
	}
}

func TestBuild_EmptyInput(t *testing.T) {
	h := Build(nil)
	if h.Root == nil || h.Root.HasChildren() {
		t.Fatalf("expected bare root, got %#v", h.Root)
	}
	if h.Depth[RootID] != 0 {
		t.Fatalf("root depth = %d", h.Depth[RootID])
	}
}
