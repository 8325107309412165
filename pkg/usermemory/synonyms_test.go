package usermemory

import "testing"

func TestCanonicalizeKeyResolvesAliases(t *testing.T) {
	cases := map[string]string{
		"iphone":    "phone",
		"телефон":   "phone",
		"mobile":    "phone",
		"ноутбук":   "device",
		"something": "something",
	}
	for in, want := range cases {
		if got := canonicalizeKey(in); got != want {
			t.Errorf("canonicalizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanonicalizeKeyIsIdempotent(t *testing.T) {
	for _, in := range []string{"iphone", "phone", "unknown-thing"} {
		once := canonicalizeKey(in)
		twice := canonicalizeKey(once)
		if once != twice {
			t.Errorf("canonicalizeKey not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestExpandQueryTermsIncludesSynonyms(t *testing.T) {
	expanded := expandQueryTerms([]string{"phone"})
	found := false
	for _, t2 := range expanded {
		if t2 == "телефон" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected телефон among expanded terms, got %v", expanded)
	}
}

func TestExpandQueryTermsIsIdempotent(t *testing.T) {
	once := expandQueryTerms([]string{"phone", "device"})
	twice := expandQueryTerms(once)
	if len(once) != len(twice) {
		t.Fatalf("length changed: %v vs %v", once, twice)
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("mismatch at %d: %q vs %q", i, once[i], twice[i])
		}
	}
}

func TestInferSlotFromTextEmail(t *testing.T) {
	key, tags := inferSlotFromText("email me at a@b.co")
	if key != "email" {
		t.Errorf("expected key=email, got %q", key)
	}
	if !containsStr(tags, "contact") {
		t.Errorf("expected contact tag, got %v", tags)
	}
}

func TestInferSlotFromTextPhone(t *testing.T) {
	key, tags := inferSlotFromText("мой iPhone 15")
	if key != "phone" {
		t.Errorf("expected key=phone, got %q", key)
	}
	if !containsStr(tags, "device") || !containsStr(tags, "phone") {
		t.Errorf("expected device+phone tags, got %v", tags)
	}
}

func TestInferKeyFromTermsResolvesSynonym(t *testing.T) {
	got := inferKeyFromTerms([]string{"телефон"})
	if got != "phone" {
		t.Errorf("expected phone, got %q", got)
	}
}

func containsStr(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
