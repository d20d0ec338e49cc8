package sink

import "testing"

func TestDiscardDropsEverything(t *testing.T) {
	s := New(Discard, 0)
	n, err := s.Write(false, []byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("Write() = %d, %v, want 5, nil", n, err)
	}
	if len(s.Stdout()) != 0 {
		t.Fatalf("Stdout() = %q, want empty", s.Stdout())
	}
}

func TestSingleBufferSharesStdoutAndStderr(t *testing.T) {
	s := New(SingleBuffer, 64)
	if _, err := s.Write(false, []byte("out")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write(true, []byte("err")); err != nil {
		t.Fatal(err)
	}
	if got := string(s.Stdout()); got != "outerr" {
		t.Fatalf("Stdout() = %q, want %q", got, "outerr")
	}
	if got := string(s.Stderr()); got != "outerr" {
		t.Fatalf("Stderr() = %q, want %q", got, "outerr")
	}
}

func TestSplitBufferKeepsStreamsSeparate(t *testing.T) {
	s := New(SplitBuffer, 64)
	s.Write(false, []byte("out"))
	s.Write(true, []byte("err"))
	if got := string(s.Stdout()); got != "out" {
		t.Fatalf("Stdout() = %q, want %q", got, "out")
	}
	if got := string(s.Stderr()); got != "err" {
		t.Fatalf("Stderr() = %q, want %q", got, "err")
	}
}

func TestBufferTruncatesSilentlyAtCapacity(t *testing.T) {
	s := New(SingleBuffer, 4)
	n, err := s.Write(false, []byte("abcdefgh"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Fatalf("Write() returned %d, want 4", n)
	}
	if got := string(s.Stdout()); got != "abcd" {
		t.Fatalf("Stdout() = %q, want %q", got, "abcd")
	}

	// Further writes past capacity are dropped, not erroring.
	n, err = s.Write(false, []byte("more"))
	if err != nil || n != 0 {
		t.Fatalf("Write() past capacity = %d, %v, want 0, nil", n, err)
	}
}

func TestZeroCapacityBufferModeCoercesToDiscard(t *testing.T) {
	s := New(SplitBuffer, 0)
	if s.Mode() != Discard {
		t.Fatalf("Mode() = %v, want Discard", s.Mode())
	}
}

func TestWriteByte(t *testing.T) {
	s := New(SingleBuffer, 8)
	for _, b := range []byte(".") {
		if err := s.WriteByte(false, b); err != nil {
			t.Fatal(err)
		}
	}
	if got := string(s.Stdout()); got != "." {
		t.Fatalf("Stdout() = %q, want %q", got, ".")
	}
}
