package xid

import (
	"strings"
	"testing"
)

func TestNewIsPrefixedAndOrdered(t *testing.T) {
	prev := New("tx")
	if !strings.HasPrefix(prev, "tx-") {
		t.Fatalf("expected tx- prefix, got %q", prev)
	}
	for i := 0; i < 200; i++ {
		next := New("tx")
		if next <= prev {
			t.Fatalf("ids not increasing: %q then %q", prev, next)
		}
		prev = next
	}
}
