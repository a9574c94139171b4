package matrix

import (
	"reflect"
	"testing"

	"github.com/jbonatakis/reqmatrix/internal/location"
)

func TestKeyRoundTrip(t *testing.T) {
	k := Key("us-ca", "req-1")
	if k != "us-ca___req-1" {
		t.Fatalf("key = %q", k)
	}
	loc, req, ok := SplitKey(k)
	if !ok || loc != "us-ca" || req != "req-1" {
		t.Fatalf("split = %q %q %v", loc, req, ok)
	}
	if _, _, ok := SplitKey("usa-req1"); ok {
		t.Fatalf("legacy key must not split as canonical")
	}
}

func TestIsRootKey(t *testing.T) {
	cases := map[string]bool{
		"all":           true,
		"all___req1":    true,
		"allentown___r": false,
		"usa___req1":    false,
	}
	for key, want := range cases {
		if got := IsRootKey(key); got != want {
			t.Fatalf("IsRootKey(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestNormalizeKeys_MigratesLegacyKeys(t *testing.T) {
	h := location.Build([]*location.Location{
		{ID: "usa", Name: "United States"},
		{ID: "us-ca", Name: "California", ParentID: strPtr("usa")},
	})
	in := map[string]bool{
		"usa___req-1":   true,
		"us-ca-req-1":   true,
		"usa-req-2":     false,
		"usa-req-1":     false,
		"mystery-thing": true,
		"nohyphen":      true,
	}

	out, m := NormalizeKeys(in, h, []string{"req-1", "req-2"})

	want := map[string]bool{
		"usa___req-1":     true,
		"us-ca___req-1":   true,
		"usa___req-2":     false,
		"mystery___thing": true,
		"nohyphen":        true,
	}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("normalized = %#v, want %#v", out, want)
	}
	if m.Migrated != 3 {
		t.Fatalf("migrated = %d, want 3", m.Migrated)
	}
	if !reflect.DeepEqual(m.Ambiguous, []string{"mystery-thing"}) {
		t.Fatalf("ambiguous = %#v", m.Ambiguous)
	}
	if !reflect.DeepEqual(m.Unresolved, []string{"nohyphen"}) {
		t.Fatalf("unresolved = %#v", m.Unresolved)
	}
	if !reflect.DeepEqual(m.Shadowed, []string{"usa-req-1"}) {
		t.Fatalf("shadowed = %#v", m.Shadowed)
	}
	if len(in) != 6 {
		t.Fatalf("input map was modified")
	}
	if !m.Changed() {
		t.Fatalf("expected migration to report a change")
	}
}

func TestNormalizeKeys_HyphenatedLocationWithRequirementOutsideService(t *testing.T) {
	h := location.Build([]*location.Location{
		{ID: "usa", Name: "United States"},
		{ID: "usa-ca", Name: "California", ParentID: strPtr("usa")},
	})
	in := map[string]bool{"usa-ca-fcra": true}

	serviceOnly, m := NormalizeKeys(in, h, []string{"ssn", "dob"})
	if !reflect.DeepEqual(serviceOnly, map[string]bool{"usa___ca-fcra": true}) || len(m.Ambiguous) != 1 {
		t.Fatalf("service-only split = %#v ambiguous=%#v", serviceOnly, m.Ambiguous)
	}

	out, m := NormalizeKeys(in, h, []string{"ssn", "dob", "consent", "fcra"})
	if !reflect.DeepEqual(out, map[string]bool{"usa-ca___fcra": true}) {
		t.Fatalf("normalized = %#v", out)
	}
	if len(m.Ambiguous) != 0 || m.Migrated != 1 {
		t.Fatalf("migration = %#v", m)
	}
}

func TestNormalizeKeys_CanonicalInputUnchanged(t *testing.T) {
	in := map[string]bool{"usa___req1": true, "all___req1": false}
	out, m := NormalizeKeys(in, location.Build(nil), nil)
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("normalized = %#v", out)
	}
	if m.Changed() {
		t.Fatalf("unexpected migration %#v", m)
	}
}
