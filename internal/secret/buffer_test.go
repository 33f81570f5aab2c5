package secret

import "testing"

func TestNewFromBytesZeroesSource(t *testing.T) {
	source := []byte("0123456789abcdef0123456789abcdef")
	want := string(source)

	buffer, err := NewFromBytes(source)
	if err != nil {
		t.Fatalf("NewFromBytes failed: %v", err)
	}
	defer buffer.Close()

	if string(buffer.Bytes()) != want {
		t.Errorf("buffer content mismatch: got %q, want %q", buffer.Bytes(), want)
	}
	for i, v := range source {
		if v != 0 {
			t.Fatalf("source byte %d not zeroed", i)
		}
	}
	if got := buffer.Array32(); string(got[:]) != want {
		t.Errorf("Array32 mismatch: got %q", got[:])
	}
}

func TestNewRejectsNonPositiveSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		if _, err := New(size); err == nil {
			t.Errorf("New(%d) should fail", size)
		}
	}
	if _, err := NewFromBytes(nil); err == nil {
		t.Error("NewFromBytes(nil) should fail")
	}
}

func TestCloseIsIdempotentAndPanicsOnRead(t *testing.T) {
	buffer, err := New(32)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic reading closed buffer")
		}
	}()
	buffer.Bytes()
}
