package utils

import "testing"

func TestNilIfBlank(t *testing.T) {
	blank := "  "
	value := "2025-01-01"
	if NilIfBlank(&blank) != nil {
		t.Fatalf("blank string should become nil")
	}
	if NilIfBlank(nil) != nil {
		t.Fatalf("nil should stay nil")
	}
	if got := NilIfBlank(&value); got == nil || *got != value {
		t.Fatalf("non-blank string should be kept, got %v", got)
	}
}

func TestDereferencePtr(t *testing.T) {
	var missing *string
	if DereferencePtr(missing, "fallback") != "fallback" {
		t.Fatalf("nil pointer should yield the default")
	}
	v := 3
	if DereferencePtr(&v) != 3 {
		t.Fatalf("pointer value should be returned")
	}
}
