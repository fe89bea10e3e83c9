package handle

import "testing"

func TestRegistryPutGetDel(t *testing.T) {
	r := New[string]()

	h1 := r.Put("alpha")
	h2 := r.Put("beta")
	if h1 == h2 {
		t.Fatal("expected distinct handles for distinct Put calls")
	}
	if r.Len() != 2 {
		t.Fatalf("expected Len 2, got %d", r.Len())
	}

	v, ok := r.Get(h1)
	if !ok || v != "alpha" {
		t.Fatalf("Get(h1) = %q, %v", v, ok)
	}

	r.Del(h1)
	if _, ok := r.Get(h1); ok {
		t.Fatal("expected h1 to be gone after Del")
	}
	if r.Len() != 1 {
		t.Fatalf("expected Len 1 after Del, got %d", r.Len())
	}

	// A handle must never be reused, even after the slot is freed.
	h3 := r.Put("gamma")
	if h3 == h1 {
		t.Fatal("expected a freed handle to never be reissued")
	}
}

func TestRegistryGetMissing(t *testing.T) {
	r := New[int]()
	if _, ok := r.Get(Handle(999)); ok {
		t.Fatal("expected Get of an unknown handle to report not-ok")
	}
}
