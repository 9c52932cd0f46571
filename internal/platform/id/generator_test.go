package id

import "testing"

func TestUUIDGenerator_NewID(t *testing.T) {
	gen := NewUUIDGenerator()

	first, err := gen.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	second, err := gen.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct ids")
	}
	if !Valid(first) {
		t.Fatalf("expected valid uuid, got %q", first)
	}
}

func TestSequence_NewID(t *testing.T) {
	seq := NewSequence("a", "b")
	for _, want := range []string{"a", "b"} {
		got, err := seq.NewID()
		if err != nil || got != want {
			t.Fatalf("unexpected id: %q %v", got, err)
		}
	}
	if _, err := seq.NewID(); err == nil {
		t.Fatalf("expected exhausted sequence error")
	}
}
