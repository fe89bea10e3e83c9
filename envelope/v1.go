package envelope

import (
	"crypto/rand"
	"io"

	"github.com/gravitational/trace"
	"github.com/vmihailenco/msgpack/v4"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/nacl/box"
)

// sealedBoxNonce derives a deterministic nonce from the ephemeral and
// recipient public keys, following the libsodium crypto_box_seal
// construction so the nonce never has to travel on the wire.
func sealedBoxNonce(ephPub, recipientVK *[32]byte) *[24]byte {
	h := blake2b.Sum256(append(append([]byte{}, ephPub[:]...), recipientVK[:]...))
	var nonce [24]byte
	copy(nonce[:], h[:24])
	return &nonce
}

// v1Codec implements the V1 bundle wire format: messagepack-encoded
// {bundled: [msg1, msg2, ...]}, each msgI itself messagepack, wrapped by
// either authcrypt or anoncrypt over golang.org/x/crypto/nacl/box.
type v1Codec struct{}

type v1Bundle struct {
	Bundled [][]byte `msgpack:"bundled"`
}

func packBundle(msgs [][]byte) ([]byte, error) {
	return msgpack.Marshal(v1Bundle{Bundled: msgs})
}

func unpackBundle(data []byte) ([][]byte, error) {
	var bundle v1Bundle
	if err := msgpack.Unmarshal(data, &bundle); err != nil {
		return nil, trace.Wrap(err)
	}
	return bundle.Bundled, nil
}

func toKey32(b []byte) (*[32]byte, error) {
	if len(b) != 32 {
		return nil, trace.BadParameter("expected a 32-byte key, got %d bytes", len(b))
	}
	var k [32]byte
	copy(k[:], b)
	return &k, nil
}

func (v1Codec) PrepareAuth(senderPriv, senderVK, recipientVK []byte, msgs [][]byte) ([]byte, error) {
	bundle, err := packBundle(msgs)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	sk, err := toKey32(senderPriv)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	rk, err := toKey32(recipientVK)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, trace.Wrap(err)
	}
	sealed := box.Seal(nil, bundle, &nonce, rk, sk)

	return msgpack.Marshal(struct {
		SenderVK []byte `msgpack:"sender_vk"`
		Nonce    []byte `msgpack:"nonce"`
		Sealed   []byte `msgpack:"sealed"`
	}{SenderVK: senderVK, Nonce: nonce[:], Sealed: sealed})
}

func (v1Codec) ParseAuth(recipientPriv, recipientVK []byte, data []byte) ([]byte, [][]byte, error) {
	var wire struct {
		SenderVK []byte `msgpack:"sender_vk"`
		Nonce    []byte `msgpack:"nonce"`
		Sealed   []byte `msgpack:"sealed"`
	}
	if err := msgpack.Unmarshal(data, &wire); err != nil {
		return nil, nil, trace.Wrap(err)
	}
	rsk, err := toKey32(recipientPriv)
	if err != nil {
		return nil, nil, trace.Wrap(err)
	}
	svk, err := toKey32(wire.SenderVK)
	if err != nil {
		return nil, nil, trace.Wrap(err)
	}
	var nonce [24]byte
	copy(nonce[:], wire.Nonce)

	bundle, ok := box.Open(nil, wire.Sealed, &nonce, svk, rsk)
	if !ok {
		return nil, nil, trace.AccessDenied("failed to open authcrypt envelope")
	}
	msgs, err := unpackBundle(bundle)
	if err != nil {
		return nil, nil, trace.Wrap(err)
	}
	return wire.SenderVK, msgs, nil
}

func (v1Codec) PrepareAnon(recipientVK []byte, msgs [][]byte) ([]byte, error) {
	bundle, err := packBundle(msgs)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	rk, err := toKey32(recipientVK)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	ephPub, ephPriv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	nonce := sealedBoxNonce(ephPub, rk)
	sealed := box.Seal(nil, bundle, nonce, rk, ephPriv)

	return msgpack.Marshal(struct {
		EphemeralVK []byte `msgpack:"ephemeral_vk"`
		Sealed      []byte `msgpack:"sealed"`
	}{EphemeralVK: ephPub[:], Sealed: sealed})
}

func (v1Codec) ParseAnon(recipientPriv, recipientVK []byte, data []byte) ([][]byte, error) {
	var wire struct {
		EphemeralVK []byte `msgpack:"ephemeral_vk"`
		Sealed      []byte `msgpack:"sealed"`
	}
	if err := msgpack.Unmarshal(data, &wire); err != nil {
		return nil, trace.Wrap(err)
	}
	rsk, err := toKey32(recipientPriv)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	rvk, err := toKey32(recipientVK)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	eph, err := toKey32(wire.EphemeralVK)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	nonce := sealedBoxNonce(eph, rvk)
	bundle, ok := box.Open(nil, wire.Sealed, nonce, eph, rsk)
	if !ok {
		return nil, trace.AccessDenied("failed to open anoncrypt envelope")
	}
	return unpackBundle(bundle)
}
