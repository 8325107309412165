package usermemory

import (
	"testing"

	"github.com/kittclouds/usermemory/pkg/response"
)

func TestRecallFindsByKey(t *testing.T) {
	st, h := newStoreForTest(false)
	rt := Runtime{UserName: "Andrei"}
	Remember(st, h, map[string]any{"fact": "My phone is an iPhone 15"}, rt)
	Remember(st, h, map[string]any{"fact": "My city is Moscow"}, rt)

	out, err := Recall(st, h, map[string]any{"query": "phone"}, rt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mems := out["memories"].([]response.Memory)
	if len(mems) == 0 {
		t.Fatal("expected at least one result")
	}
	if mems[0].Key != "phone" {
		t.Errorf("expected top result key=phone, got %q", mems[0].Key)
	}
}

func TestRecallTransliteratedUserStillMatches(t *testing.T) {
	st, h := newStoreForTest(false)
	Remember(st, h, map[string]any{"fact": "My phone is an iPhone 15"}, Runtime{UserName: "Андрей"})

	out, err := Recall(st, h, map[string]any{"query": "phone"}, Runtime{UserName: "Andrei"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mems := out["memories"].([]response.Memory)
	if len(mems) == 0 {
		t.Fatal("expected transliteration-tolerant match to find the entry")
	}
}

func TestRecallGenericIntentReturnsAllForUser(t *testing.T) {
	st, h := newStoreForTest(false)
	rt := Runtime{UserName: "Andrei"}
	Remember(st, h, map[string]any{"fact": "My phone is an iPhone 15"}, rt)
	Remember(st, h, map[string]any{"fact": "My city is Moscow"}, rt)

	out, err := Recall(st, h, map[string]any{"query": "what do you remember about me"}, rt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mems := out["memories"].([]response.Memory)
	if len(mems) != 2 {
		t.Errorf("expected both memories returned for generic recall, got %d", len(mems))
	}
}

func TestRecallScopeAllIncludesUserName(t *testing.T) {
	st, h := newStoreForTest(false)
	Remember(st, h, map[string]any{"fact": "My phone is an iPhone 15"}, Runtime{UserName: "Andrei"})

	out, _ := Recall(st, h, map[string]any{"query": "phone", "scope": "all"}, Runtime{UserName: "Zhenya"})
	mems := out["memories"].([]response.Memory)
	if len(mems) == 0 {
		t.Fatal("expected scope=all to return entries regardless of identity")
	}
	if mems[0].UserName == "" {
		t.Error("expected user_name populated under scope=all")
	}
}

func TestRecallCurrentUserScopeOmitsUserName(t *testing.T) {
	st, h := newStoreForTest(false)
	rt := Runtime{UserName: "Andrei"}
	Remember(st, h, map[string]any{"fact": "My phone is an iPhone 15"}, rt)

	out, _ := Recall(st, h, map[string]any{"query": "phone"}, rt)
	mems := out["memories"].([]response.Memory)
	if len(mems) == 0 {
		t.Fatal("expected a result")
	}
	if mems[0].UserName != "" {
		t.Errorf("expected user_name omitted under scope=current_user, got %q", mems[0].UserName)
	}
}

func TestRecallUnrelatedQueryReturnsEmpty(t *testing.T) {
	st, h := newStoreForTest(false)
	rt := Runtime{UserName: "Andrei"}
	Remember(st, h, map[string]any{"fact": "My phone is an iPhone 15"}, rt)

	out, _ := Recall(st, h, map[string]any{"query": "completely unrelated pasta recipe"}, rt)
	mems := out["memories"].([]response.Memory)
	if len(mems) != 0 {
		t.Errorf("expected no results for unrelated query, got %d", len(mems))
	}
}

func TestSnippetForOmitsEmptySegments(t *testing.T) {
	e := MemoryEntry{Importance: 3}
	got := snippetFor(e, true)
	if got != "importance=3" {
		t.Errorf("expected only importance segment for a bare entry, got %q", got)
	}

	e = MemoryEntry{Key: "phone", Tags: []string{"device"}, Importance: 4, UserName: "Andrei", UpdatedAt: "2026-01-01T00:00:00Z"}
	got = snippetFor(e, true)
	want := "key=phone, tags=device, importance=4, user=Andrei, updated_at=2026-01-01T00:00:00Z"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRecallJSONMirrorOnlyParity(t *testing.T) {
	st, h := newStoreForTest(false)
	rt := Runtime{UserName: "Andrei"}
	Remember(st, h, map[string]any{"fact": "My device is a MacBook Pro"}, rt)

	out, err := Recall(st, h, map[string]any{"query": "device"}, rt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mems := out["memories"].([]response.Memory)
	if len(mems) == 0 {
		t.Fatal("expected json-mirror-only recall to still find the entry")
	}
}
