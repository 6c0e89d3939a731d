package rate

import (
	"context"
	"testing"
	"time"
)

func TestWaitNDefaultsToOneUnit(t *testing.T) {
	lim := NewQuotaLimiter(1000)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := lim.WaitN(ctx, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := lim.WaitN(ctx, -5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitHonorsCancellation(t *testing.T) {
	// Rate of 1 unit/sec with the bucket drained forces WaitN to block long
	// enough for cancellation to win.
	lim := NewQuotaLimiter(1)
	ctx := context.Background()
	if err := lim.WaitN(ctx, unitsPerSecond); err != nil {
		t.Fatalf("priming wait failed: %v", err)
	}

	canceled, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if err := lim.WaitN(canceled, UnitsBatchModify); err == nil {
		t.Fatal("expected cancellation error")
	}
}
