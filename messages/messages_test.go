package messages

import "testing"

func TestParseRoundTripsKnownType(t *testing.T) {
	msg := NewCreateKey("1", "did:sov:abc", "verkeyabc")
	data, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ck, ok := parsed.(*CreateKey)
	if !ok {
		t.Fatalf("expected *CreateKey, got %T", parsed)
	}
	if ck.ForDID != "did:sov:abc" {
		t.Fatalf("ForDID mismatch: %q", ck.ForDID)
	}
	if ck.TypeDescriptor().Family != FamilyPairwise {
		t.Fatalf("expected pairwise family, got %v", ck.TypeDescriptor().Family)
	}
}

func TestParseUnknownType(t *testing.T) {
	data := []byte(`{"@type":{"family":"bogus","name":"NOPE","version":"9.9"}}`)
	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	unk, ok := parsed.(Unknown)
	if !ok {
		t.Fatalf("expected Unknown, got %T", parsed)
	}
	if unk.Name != "NOPE" || unk.Version != "9.9" {
		t.Fatalf("unexpected unknown fields: %+v", unk)
	}
}

func TestUpdateMsgStatusRoundTrip(t *testing.T) {
	msg := NewUpdateMsgStatus("2", "MS-106", []string{"uid1", "uid2"})
	data, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ums, ok := parsed.(*UpdateMsgStatus)
	if !ok {
		t.Fatalf("expected *UpdateMsgStatus, got %T", parsed)
	}
	if len(ums.UIDs) != 2 || ums.StatusCode != "MS-106" {
		t.Fatalf("unexpected payload: %+v", ums)
	}
}
