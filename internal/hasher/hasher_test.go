package hasher

import "testing"

func TestSumDeterministic(t *testing.T) {
	data := []byte("hello, blaze")
	d1 := Sum(data)
	d2 := Sum(data)
	if d1 != d2 {
		t.Fatalf("Sum not deterministic: %s vs %s", d1, d2)
	}
	if !Valid(d1) {
		t.Fatalf("digest %q not valid", d1)
	}
	if len(d1) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(d1))
	}
}

func TestSumEmpty(t *testing.T) {
	d := Sum(nil)
	if !Valid(d) {
		t.Fatalf("digest of empty input should still be valid, got %q", d)
	}
}

func TestStateMatchesSum(t *testing.T) {
	data := []byte("streamed content for the hasher state test")
	st := New()
	if _, err := st.Write(data[:10]); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := st.Write(data[10:]); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got, want := st.Sum(), Sum(data); got != want {
		t.Fatalf("streamed sum %s != one-shot sum %s", got, want)
	}
}

func TestHasPrefix(t *testing.T) {
	d := Sum([]byte("abc"))
	if !HasPrefix(d, string(d)[:8]) {
		t.Fatalf("expected prefix match")
	}
	if HasPrefix(d, "zzzzzzzz") {
		t.Fatalf("unexpected prefix match")
	}
	if HasPrefix(d, string(d)+"extra") {
		t.Fatalf("overlong prefix should not match")
	}
}

func TestValidRejectsMalformed(t *testing.T) {
	cases := []Digest{
		"",
		"abc",
		Digest(make([]byte, 64)),
	}
	for _, c := range cases {
		if Valid(c) {
			t.Errorf("expected %q to be invalid", c)
		}
	}
}
