package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"

	"github.com/gravitational/trace"
	"golang.org/x/crypto/nacl/box"
)

// v2Codec implements the V2 pack wire format: a JWE-like envelope over a
// single JSON message, with the content-encryption key established via
// golang.org/x/crypto/nacl/box key agreement and the payload sealed with
// AES-GCM.
type v2Codec struct{}

type v2Protected struct {
	Typ       string `json:"typ"`
	Alg       string `json:"alg"`
	SenderVK  string `json:"sender_vk,omitempty"`
	RecipVK   string `json:"recip_vk"`
	Ephemeral string `json:"epk"`
}

type v2Envelope struct {
	Protected  string `json:"protected"`
	IV         string `json:"iv"`
	Ciphertext string `json:"ciphertext"`
	Tag        string `json:"tag"`
}

func b64(b []byte) string      { return base64.RawURLEncoding.EncodeToString(b) }
func unb64(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	return b, trace.Wrap(err)
}

// deriveCEK runs nacl/box's X25519+HSalsa20 key agreement between priv and
// pub and returns the 32-byte shared secret used as the AES-GCM key.
func deriveCEK(priv, pub *[32]byte) ([]byte, error) {
	var peersKey [32]byte
	copy(peersKey[:], pub[:])
	shared, err := boxPrecompute(priv, &peersKey)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return shared[:], nil
}

func boxPrecompute(priv, pub *[32]byte) (*[32]byte, error) {
	var shared [32]byte
	box.Precompute(&shared, pub, priv)
	return &shared, nil
}

func sealAESGCM(key, plaintext []byte) (iv, ciphertext, tag []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, nil, trace.Wrap(err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, nil, trace.Wrap(err)
	}
	iv = make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, nil, nil, trace.Wrap(err)
	}
	sealed := gcm.Seal(nil, iv, plaintext, nil)
	ct := sealed[:len(sealed)-gcm.Overhead()]
	tg := sealed[len(sealed)-gcm.Overhead():]
	return iv, ct, tg, nil
}

func openAESGCM(key, iv, ciphertext, tag []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	sealed := append(append([]byte{}, ciphertext...), tag...)
	pt, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, trace.AccessDenied("failed to open v2 envelope: %v", err)
	}
	return pt, nil
}

func (v2Codec) PrepareAuth(senderPriv, senderVK, recipientVK []byte, msgs [][]byte) ([]byte, error) {
	if len(msgs) != 1 {
		return nil, trace.BadParameter("v2 pack carries exactly one message, got %d", len(msgs))
	}
	sk, err := toKey32(senderPriv)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	rk, err := toKey32(recipientVK)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	cek, err := deriveCEK(sk, rk)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	protected, err := json.Marshal(v2Protected{Typ: "JWM/1.0", Alg: "authcrypt", SenderVK: b64(senderVK), RecipVK: b64(recipientVK)})
	if err != nil {
		return nil, trace.Wrap(err)
	}
	iv, ct, tag, err := sealAESGCM(cek, msgs[0])
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return json.Marshal(v2Envelope{Protected: b64(protected), IV: b64(iv), Ciphertext: b64(ct), Tag: b64(tag)})
}

func (v2Codec) ParseAuth(recipientPriv, recipientVK []byte, data []byte) ([]byte, [][]byte, error) {
	var wire v2Envelope
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, nil, trace.Wrap(err)
	}
	protectedRaw, err := unb64(wire.Protected)
	if err != nil {
		return nil, nil, trace.Wrap(err)
	}
	var protected v2Protected
	if err := json.Unmarshal(protectedRaw, &protected); err != nil {
		return nil, nil, trace.Wrap(err)
	}
	senderVK, err := unb64(protected.SenderVK)
	if err != nil {
		return nil, nil, trace.Wrap(err)
	}
	rsk, err := toKey32(recipientPriv)
	if err != nil {
		return nil, nil, trace.Wrap(err)
	}
	svk, err := toKey32(senderVK)
	if err != nil {
		return nil, nil, trace.Wrap(err)
	}
	cek, err := deriveCEK(rsk, svk)
	if err != nil {
		return nil, nil, trace.Wrap(err)
	}
	iv, err := unb64(wire.IV)
	if err != nil {
		return nil, nil, trace.Wrap(err)
	}
	ct, err := unb64(wire.Ciphertext)
	if err != nil {
		return nil, nil, trace.Wrap(err)
	}
	tag, err := unb64(wire.Tag)
	if err != nil {
		return nil, nil, trace.Wrap(err)
	}
	pt, err := openAESGCM(cek, iv, ct, tag)
	if err != nil {
		return nil, nil, trace.Wrap(err)
	}
	return senderVK, [][]byte{pt}, nil
}

func (v2Codec) PrepareAnon(recipientVK []byte, msgs [][]byte) ([]byte, error) {
	if len(msgs) != 1 {
		return nil, trace.BadParameter("v2 pack carries exactly one message, got %d", len(msgs))
	}
	rk, err := toKey32(recipientVK)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	ephPub, ephPriv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	cek, err := deriveCEK(ephPriv, rk)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	protected, err := json.Marshal(v2Protected{Typ: "JWM/1.0", Alg: "anoncrypt", RecipVK: b64(recipientVK), Ephemeral: b64(ephPub[:])})
	if err != nil {
		return nil, trace.Wrap(err)
	}
	iv, ct, tag, err := sealAESGCM(cek, msgs[0])
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return json.Marshal(v2Envelope{Protected: b64(protected), IV: b64(iv), Ciphertext: b64(ct), Tag: b64(tag)})
}

func (v2Codec) ParseAnon(recipientPriv, recipientVK []byte, data []byte) ([][]byte, error) {
	var wire v2Envelope
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, trace.Wrap(err)
	}
	protectedRaw, err := unb64(wire.Protected)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	var protected v2Protected
	if err := json.Unmarshal(protectedRaw, &protected); err != nil {
		return nil, trace.Wrap(err)
	}
	ephPub, err := unb64(protected.Ephemeral)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	rsk, err := toKey32(recipientPriv)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	eph, err := toKey32(ephPub)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	cek, err := deriveCEK(rsk, eph)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	iv, err := unb64(wire.IV)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	ct, err := unb64(wire.Ciphertext)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	tag, err := unb64(wire.Tag)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	pt, err := openAESGCM(cek, iv, ct, tag)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return [][]byte{pt}, nil
}
