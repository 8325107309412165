package usermemory

import "testing"

func TestForgetRequiresAtLeastOneCriterion(t *testing.T) {
	st, h := newStoreForTest(false)
	_, err := Forget(st, h, map[string]any{}, Runtime{})
	if err == nil {
		t.Fatal("expected error when no id/key/query supplied")
	}
}

func TestForgetRemovesExactlyOneByDefault(t *testing.T) {
	st, h := newStoreForTest(false)
	rt := Runtime{UserName: "Andrei"}
	Remember(st, h, map[string]any{"fact": "My phone is an iPhone 15"}, rt)
	Remember(st, h, map[string]any{"fact": "My phone is broken today"}, rt)

	out, err := Forget(st, h, map[string]any{"query": "phone"}, rt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["removed_count"] != 1 {
		t.Errorf("expected removed_count=1, got %v", out["removed_count"])
	}
	if out["remaining_count"] != 1 {
		t.Errorf("expected remaining_count=1, got %v", out["remaining_count"])
	}
}

func TestForgetAllMatchingRemovesBoth(t *testing.T) {
	st, h := newStoreForTest(false)
	rt := Runtime{UserName: "Andrei"}
	Remember(st, h, map[string]any{"fact": "My phone is an iPhone 15"}, rt)
	Remember(st, h, map[string]any{"fact": "My phone is broken today"}, rt)

	out, err := Forget(st, h, map[string]any{"query": "phone", "all_matching": true}, rt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["removed_count"] != 2 {
		t.Errorf("expected removed_count=2, got %v", out["removed_count"])
	}
	if out["remaining_count"] != 0 {
		t.Errorf("expected remaining_count=0, got %v", out["remaining_count"])
	}
}

func TestForgetByIDRemovesSpecificEntry(t *testing.T) {
	st, h := newStoreForTest(false)
	rt := Runtime{UserName: "Andrei"}
	Remember(st, h, map[string]any{"fact": "My city is Moscow"}, rt)

	entries := st.Load()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	out, err := Forget(st, h, map[string]any{"id": entries[0].ID}, rt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["removed_count"] != 1 {
		t.Errorf("expected removed_count=1, got %v", out["removed_count"])
	}
}

func TestForgetNoMatchRemovesNothing(t *testing.T) {
	st, h := newStoreForTest(false)
	rt := Runtime{UserName: "Andrei"}
	Remember(st, h, map[string]any{"fact": "My city is Moscow"}, rt)

	out, err := Forget(st, h, map[string]any{"query": "completely unrelated"}, rt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["removed_count"] != 0 {
		t.Errorf("expected removed_count=0, got %v", out["removed_count"])
	}
	if out["remaining_count"] != 1 {
		t.Errorf("expected remaining_count=1, got %v", out["remaining_count"])
	}
}
