package security

import "testing"

func TestNewAdminSlugIsUniqueAndOpaque(t *testing.T) {
	first, err := NewAdminSlug()
	if err != nil {
		t.Fatalf("generate slug: %v", err)
	}
	second, err := NewAdminSlug()
	if err != nil {
		t.Fatalf("generate slug: %v", err)
	}

	if first == second {
		t.Fatalf("expected distinct slugs")
	}
	if len(first) < 40 {
		t.Fatalf("slug too short to be high-entropy: %d chars", len(first))
	}
}

func TestTokensEqual(t *testing.T) {
	slug, err := NewAdminSlug()
	if err != nil {
		t.Fatalf("generate slug: %v", err)
	}

	if !TokensEqual(slug, slug) {
		t.Fatalf("expected identical tokens to match")
	}
	mutated := []byte(slug)
	mutated[len(mutated)-1] ^= 1
	if TokensEqual(slug, string(mutated)) {
		t.Fatalf("expected single-character mutation to mismatch")
	}
	if TokensEqual("", "") {
		t.Fatalf("empty tokens must never match")
	}
	if TokensEqual(slug, "") {
		t.Fatalf("empty candidate must never match")
	}
}
