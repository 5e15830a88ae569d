package principles

import "testing"

func TestCatalogHasTenEntries(t *testing.T) {
	all := All()
	if len(all) != 10 {
		t.Fatalf("expected 10 principles, got %d", len(all))
	}
	seen := make(map[string]bool)
	for _, p := range all {
		if p.ID == "" || p.Name == "" || p.Category == "" {
			t.Fatalf("incomplete principle: %+v", p)
		}
		if seen[p.ID] {
			t.Fatalf("duplicate principle id %q", p.ID)
		}
		seen[p.ID] = true
		if len(p.Examples) == 0 {
			t.Fatalf("principle %q has no examples", p.ID)
		}
	}
}

func TestGet(t *testing.T) {
	p, ok := Get("user-control")
	if !ok {
		t.Fatalf("expected user-control to exist")
	}
	if p.Category != "CONTROL" {
		t.Fatalf("expected CONTROL category, got %s", p.Category)
	}
	if _, ok := Get("no-such-principle"); ok {
		t.Fatalf("expected miss for unknown id")
	}
}
