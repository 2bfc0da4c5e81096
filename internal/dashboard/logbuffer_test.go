package dashboard

import (
	"fmt"
	"testing"
)

func TestLogBufferRing(t *testing.T) {
	lb := NewLogBuffer()
	for i := 0; i < 1100; i++ {
		fmt.Fprintf(lb, "line %d", i)
	}

	lines := lb.Lines()
	if len(lines) != 1000 {
		t.Fatalf("got %d lines, want 1000", len(lines))
	}
	if lines[0] != "line 100" || lines[999] != "line 1099" {
		t.Errorf("window = [%q .. %q], want [line 100 .. line 1099]", lines[0], lines[999])
	}
}

func TestLogBufferSubscribe(t *testing.T) {
	lb := NewLogBuffer()
	ch, cancel := lb.Subscribe()

	lb.Write([]byte("hello"))
	if got := <-ch; got != "hello" {
		t.Errorf("got %q, want hello", got)
	}

	cancel()
	lb.Write([]byte("after cancel"))
	if _, ok := <-ch; ok {
		t.Error("channel still open after cancel")
	}
}

func TestLogBufferDropsSlowSubscribers(t *testing.T) {
	lb := NewLogBuffer()
	_, cancel := lb.Subscribe()
	defer cancel()

	// Fill well past the subscriber buffer; Write must never block.
	for i := 0; i < 200; i++ {
		lb.Write([]byte("x"))
	}
}
