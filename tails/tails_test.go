package tails

import (
	"testing"

	"github.com/gravitational/trace"
)

type fakeGenerator struct {
	entries [][]byte
	i       int
}

func (g *fakeGenerator) Next() ([]byte, bool) {
	if g.i >= len(g.entries) {
		return nil, false
	}
	e := g.entries[g.i]
	g.i++
	return e, true
}

func entries(n, stride int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		e := make([]byte, stride)
		e[0] = byte(i + 1)
		out[i] = e
	}
	return out
}

func TestStoreAndReadBack(t *testing.T) {
	svc := New(t.TempDir())

	gen := &fakeGenerator{entries: entries(4, 8)}
	location, hash, err := svc.StoreFromGenerator(gen)
	if err != nil {
		t.Fatalf("StoreFromGenerator: %v", err)
	}
	if location != hash {
		t.Fatalf("expected content-addressed location == hash, got %q vs %q", location, hash)
	}

	reader, err := svc.OpenReader(hash, 8)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	entry, err := reader.Read(1)
	if err != nil {
		t.Fatalf("Read(1): %v", err)
	}
	if entry[0] != 1 {
		t.Fatalf("unexpected first entry: %v", entry)
	}
	entry, err = reader.Read(4)
	if err != nil {
		t.Fatalf("Read(4): %v", err)
	}
	if entry[0] != 4 {
		t.Fatalf("unexpected fourth entry: %v", entry)
	}
}

func TestReadRejectsZeroAndOutOfRange(t *testing.T) {
	svc := New(t.TempDir())
	gen := &fakeGenerator{entries: entries(2, 4)}
	_, hash, err := svc.StoreFromGenerator(gen)
	if err != nil {
		t.Fatalf("StoreFromGenerator: %v", err)
	}
	reader, err := svc.OpenReader(hash, 4)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	if _, err := reader.Read(0); err == nil {
		t.Fatal("expected error reading index 0")
	}
	if _, err := reader.Read(99); err == nil {
		t.Fatal("expected error reading out-of-range index")
	}
}

func TestOpenReaderDetectsHashMismatch(t *testing.T) {
	svc := New(t.TempDir())
	gen := &fakeGenerator{entries: entries(1, 4)}
	_, hash, err := svc.StoreFromGenerator(gen)
	if err != nil {
		t.Fatalf("StoreFromGenerator: %v", err)
	}
	if _, err := svc.OpenReader(hash[:len(hash)-1]+"1", 4); !trace.IsNotFound(err) {
		t.Fatalf("expected NotFound for an unknown hash, got %v", err)
	}
	if err := svc.d.Write(hash, []byte{9, 9, 9, 9}); err != nil {
		t.Fatalf("overwrite blob: %v", err)
	}
	if _, err := svc.OpenReader(hash, 4); !trace.IsCompareFailed(err) {
		t.Fatalf("expected CompareFailed for a blob whose content no longer matches its hash, got %v", err)
	}
}

func TestStoreFromGeneratorIsIdempotent(t *testing.T) {
	svc := New(t.TempDir())
	_, hash1, err := svc.StoreFromGenerator(&fakeGenerator{entries: entries(3, 4)})
	if err != nil {
		t.Fatalf("StoreFromGenerator: %v", err)
	}
	_, hash2, err := svc.StoreFromGenerator(&fakeGenerator{entries: entries(3, 4)})
	if err != nil {
		t.Fatalf("StoreFromGenerator: %v", err)
	}
	if hash1 != hash2 {
		t.Fatalf("expected identical content to hash identically: %q vs %q", hash1, hash2)
	}
}
