// Package tails is the append-only, content-addressed store of
// revocation-registry tails blobs. It is backed by peterbourgon/diskv, the
// same flat-file store record.DiskvStore uses for records.
package tails

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gravitational/trace"
	"github.com/gravitational/vcagent/crypto"
	"github.com/peterbourgon/diskv/v3"
)

// Service stores and serves tails blobs addressed by a hash over their
// full byte stream.
type Service struct {
	d *diskv.Diskv
}

// New opens (creating if absent) a tails store rooted at basePath.
func New(basePath string) *Service {
	return &Service{
		d: diskv.New(diskv.Options{
			BasePath:     basePath,
			Transform:    func(string) []string { return nil },
			CacheSizeMax: 1 << 24,
		}),
	}
}

// StoreFromGenerator reads gen to completion, computes a hash over the
// concatenated byte stream, and stores it. Storing twice under the same
// hash is a no-op (idempotent on hash).
func (s *Service) StoreFromGenerator(gen crypto.TailsGenerator) (location string, hash string, err error) {
	h := sha256.New()
	var buf []byte
	for {
		entry, ok := gen.Next()
		if !ok {
			break
		}
		h.Write(entry)
		buf = append(buf, entry...)
	}
	hash = hex.EncodeToString(h.Sum(nil))
	if s.d.Has(hash) {
		return hash, hash, nil
	}
	if err := s.d.Write(hash, buf); err != nil {
		return "", "", trace.Wrap(err)
	}
	return hash, hash, nil
}

// Accessor is a TailsAccessor over a fixed-stride blob.
type Accessor struct {
	blob   []byte
	stride int
}

// OpenReader validates that the blob stored at expectedHash exists and
// returns an Accessor over it. Fails TailsMismatch-shaped if the hash does
// not match what is on disk (spec §4.2).
func (s *Service) OpenReader(expectedHash string, stride int) (*Accessor, error) {
	if !s.d.Has(expectedHash) {
		return nil, trace.NotFound("tails blob %s not found", expectedHash)
	}
	blob, err := s.d.Read(expectedHash)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	actual := sha256.Sum256(blob)
	if hex.EncodeToString(actual[:]) != expectedHash {
		return nil, trace.CompareFailed("tails blob hash mismatch: expected %s", expectedHash)
	}
	return &Accessor{blob: blob, stride: stride}, nil
}

// Read returns the stride-sized entry at index, 1-based per the
// revocation-index convention used throughout the registry.
func (a *Accessor) Read(index uint32) ([]byte, error) {
	if index == 0 {
		return nil, trace.BadParameter("tails index must be >= 1")
	}
	start := int(index-1) * a.stride
	end := start + a.stride
	if end > len(a.blob) {
		return nil, trace.NotFound("tails index %d out of range", index)
	}
	return a.blob[start:end], nil
}
