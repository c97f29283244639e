package storage

import (
	"strings"
	"testing"
)

type keyParams struct {
	Site   string   `json:"site"`
	Clicks int64    `json:"clicks"`
	Top    []string `json:"top"`
}

func TestDeriveKeyDeterministic(t *testing.T) {
	a, err := DeriveKey("ai", keyParams{Site: "https://example.com/", Clicks: 10, Top: []string{"seo"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := DeriveKey("ai", keyParams{Site: "https://example.com/", Clicks: 10, Top: []string{"seo"}})
	if a != b {
		t.Errorf("expected equal keys, got %s and %s", a, b)
	}
	if !strings.HasPrefix(a, "ai:") {
		t.Errorf("expected namespace prefix, got %s", a)
	}
}

func TestDeriveKeyMapOrderIndependent(t *testing.T) {
	a, _ := DeriveKey("ai", map[string]int{"clicks": 1, "impressions": 2})
	b, _ := DeriveKey("ai", map[string]int{"impressions": 2, "clicks": 1})
	if a != b {
		t.Errorf("map key order changed the key: %s vs %s", a, b)
	}
}

func TestDeriveKeyDistinguishesInputs(t *testing.T) {
	a, _ := DeriveKey("ai", keyParams{Clicks: 10})
	b, _ := DeriveKey("ai", keyParams{Clicks: 11})
	c, _ := DeriveKey("other", keyParams{Clicks: 10})
	if a == b || a == c {
		t.Error("different inputs produced the same key")
	}
}

func TestDeriveKeyUnsupportedValue(t *testing.T) {
	if _, err := DeriveKey("ai", make(chan int)); err == nil {
		t.Error("expected error for unserialisable params")
	}
}
