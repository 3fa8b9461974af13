package chunkstore

import (
	"bytes"
	"testing"

	"blaze/internal/hasher"
)

func TestCreateDeltaApplyDeltaRoundTrip(t *testing.T) {
	base := bytes.Repeat([]byte("0123456789"), 100)
	new := append([]byte(nil), base...)
	new[5] = 'X'
	new[500] = 'Y'

	delta := createDelta(base, new)
	got, err := applyDelta(base, delta)
	if err != nil {
		t.Fatalf("apply delta: %v", err)
	}
	if !bytes.Equal(got, new) {
		t.Fatalf("delta round-trip mismatch")
	}
}

func TestCreateDeltaIdenticalInputsIsTiny(t *testing.T) {
	base := bytes.Repeat([]byte("same"), 1000)
	delta := createDelta(base, base)
	if len(delta) >= len(base) {
		t.Fatalf("expected delta of identical input to be much smaller than raw, got %d vs %d", len(delta), len(base))
	}
}

func TestDeltaRecordEncodeDecode(t *testing.T) {
	base := "abc123"
	payload := []byte{9, 9, 9}
	record := encodeDeltaRecord(hasher.Digest(base), payload)
	gotBase, gotPayload, err := decodeDeltaRecord(record[1:])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(gotBase) != base {
		t.Fatalf("expected base %q, got %q", base, gotBase)
	}
	if !bytes.Equal(gotPayload, payload) {
		t.Fatalf("expected payload %v, got %v", payload, gotPayload)
	}
}

func TestDeltaWorthwhile(t *testing.T) {
	raw := make([]byte, 1000)
	if !deltaWorthwhile(make([]byte, 700), raw) {
		t.Fatalf("expected 700/1000 delta to be worthwhile")
	}
	if deltaWorthwhile(make([]byte, 900), raw) {
		t.Fatalf("expected 900/1000 delta to not be worthwhile")
	}
}
