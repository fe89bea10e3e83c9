package envelope

import (
	"bytes"
	"crypto/rand"
	"testing"

	"golang.org/x/crypto/nacl/box"
)

func genKeypair(t *testing.T) (pub, priv []byte) {
	t.Helper()
	pk, sk, err := box.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return pk[:], sk[:]
}

func TestV1AuthRoundTrip(t *testing.T) {
	senderVK, senderSK := genKeypair(t)
	recipVK, recipSK := genKeypair(t)
	codec := New(V1)

	msgs := [][]byte{[]byte("hello"), []byte("world")}
	packed, err := codec.PrepareAuth(senderSK, senderVK, recipVK, msgs)
	if err != nil {
		t.Fatalf("PrepareAuth: %v", err)
	}
	gotSenderVK, gotMsgs, err := codec.ParseAuth(recipSK, recipVK, packed)
	if err != nil {
		t.Fatalf("ParseAuth: %v", err)
	}
	if !bytes.Equal(gotSenderVK, senderVK) {
		t.Fatalf("sender vk mismatch")
	}
	if len(gotMsgs) != 2 || !bytes.Equal(gotMsgs[0], msgs[0]) || !bytes.Equal(gotMsgs[1], msgs[1]) {
		t.Fatalf("messages mismatch: %v", gotMsgs)
	}
}

func TestV1AnonRoundTrip(t *testing.T) {
	recipVK, recipSK := genKeypair(t)
	codec := New(V1)

	msgs := [][]byte{[]byte("anon payload")}
	packed, err := codec.PrepareAnon(recipVK, msgs)
	if err != nil {
		t.Fatalf("PrepareAnon: %v", err)
	}
	gotMsgs, err := codec.ParseAnon(recipSK, recipVK, packed)
	if err != nil {
		t.Fatalf("ParseAnon: %v", err)
	}
	if len(gotMsgs) != 1 || !bytes.Equal(gotMsgs[0], msgs[0]) {
		t.Fatalf("messages mismatch: %v", gotMsgs)
	}
}

func TestV2AuthRoundTrip(t *testing.T) {
	senderVK, senderSK := genKeypair(t)
	recipVK, recipSK := genKeypair(t)
	codec := New(V2)

	msg := []byte(`{"@type":"test"}`)
	packed, err := codec.PrepareAuth(senderSK, senderVK, recipVK, [][]byte{msg})
	if err != nil {
		t.Fatalf("PrepareAuth: %v", err)
	}
	gotSenderVK, gotMsgs, err := codec.ParseAuth(recipSK, recipVK, packed)
	if err != nil {
		t.Fatalf("ParseAuth: %v", err)
	}
	if !bytes.Equal(gotSenderVK, senderVK) {
		t.Fatalf("sender vk mismatch")
	}
	if len(gotMsgs) != 1 || !bytes.Equal(gotMsgs[0], msg) {
		t.Fatalf("message mismatch: %v", gotMsgs)
	}
}

func TestV2RejectsMultipleMessages(t *testing.T) {
	_, senderSK := genKeypair(t)
	recipVK, _ := genKeypair(t)
	codec := New(V2)
	if _, err := codec.PrepareAuth(senderSK, recipVK, recipVK, [][]byte{[]byte("a"), []byte("b")}); err == nil {
		t.Fatalf("expected error for multi-message v2 pack")
	}
}

func TestV2AnonRoundTrip(t *testing.T) {
	recipVK, recipSK := genKeypair(t)
	codec := New(V2)

	msg := []byte(`{"@type":"test-anon"}`)
	packed, err := codec.PrepareAnon(recipVK, [][]byte{msg})
	if err != nil {
		t.Fatalf("PrepareAnon: %v", err)
	}
	gotMsgs, err := codec.ParseAnon(recipSK, recipVK, packed)
	if err != nil {
		t.Fatalf("ParseAnon: %v", err)
	}
	if len(gotMsgs) != 1 || !bytes.Equal(gotMsgs[0], msg) {
		t.Fatalf("message mismatch: %v", gotMsgs)
	}
}
