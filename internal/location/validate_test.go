package location

import (
	"strings"
	"testing"
)

func TestValidate_CleanCatalog(t *testing.T) {
	if errs := Validate(sampleLocations()); len(errs) != 0 {
		t.Fatalf("expected no errors, got %#v", errs)
	}
}

func TestValidate_ReportsProblems(t *testing.T) {
	records := []*Location{
		{ID: "usa", Name: "United States"},
		nil,
		{Name: "No ID"},
		{ID: "all", Name: "Reserved"},
		{ID: "usa", Name: "Again"},
		{ID: "ca", Name: "", ParentID: strPtr("usa")},
		{ID: "zz", Name: "Lost", ParentID: strPtr("nowhere")},
		{ID: "empty", Name: "Empty Parent", ParentID: strPtr("")},
	}

	errs := Validate(records)
	want := map[string]string{
		"$.locations[1]":          "null entry",
		"$.locations[2].id":       "required",
		"$.locations[3].id":       "reserved",
		"$.locations[4].id":       "duplicate id",
		"$.locations[5].name":     "required",
		"$.locations[6].parentId": "unknown parent id",
		"$.locations[7].parentId": "non-empty id",
	}
	if len(errs) != len(want) {
		t.Fatalf("got %d errors, want %d: %#v", len(errs), len(want), errs)
	}
	for _, e := range errs {
		fragment, ok := want[e.Path]
		if !ok {
			t.Fatalf("unexpected error %v", e)
		}
		if !strings.Contains(e.Message, fragment) {
			t.Fatalf("error %v does not mention %q", e, fragment)
		}
	}
}

func TestValidate_DetectsCycles(t *testing.T) {
	records := []*Location{
		{ID: "a", Name: "A", ParentID: strPtr("c")},
		{ID: "b", Name: "B", ParentID: strPtr("a")},
		{ID: "c", Name: "C", ParentID: strPtr("b")},
	}

	errs := Validate(records)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %#v", errs)
	}
	if errs[0].Error() != "$.locations: hierarchy cycle detected: a -> c -> b -> a" {
		t.Fatalf("unexpected cycle error %q", errs[0].Error())
	}
}
