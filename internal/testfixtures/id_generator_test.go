package testfixtures

import "testing"

func TestIDSequence(t *testing.T) {
	seq := NewIDSequence(0)
	if got := seq.Next(); got != 1 {
		t.Fatalf("expected first id 1, got %d", got)
	}
	next := seq.NextFunc()
	if got := next(); got != 2 {
		t.Fatalf("expected 2 from NextFunc, got %d", got)
	}
	seq.Reset(100)
	if got := seq.Next(); got != 100 {
		t.Fatalf("expected reset to 100, got %d", got)
	}

	var nilSeq *IDSequence
	if got := nilSeq.NextFunc()(); got != 0 {
		t.Fatalf("expected nil sequence to yield 0, got %d", got)
	}
}
