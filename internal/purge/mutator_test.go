package purge

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/joshsymonds/mailgc/internal/gmail"
)

type fakeModifier struct {
	batches [][]gmail.MessageID
	ops     []gmail.ModifyOps
	failOn  map[int]error // batch index -> error
}

func (f *fakeModifier) ListThreads(ctx context.Context, q gmail.Query, pageToken string, pageSize int) (gmail.ThreadPage, error) {
	_ = ctx
	_ = q
	_ = pageToken
	_ = pageSize
	return gmail.ThreadPage{}, nil
}

func (f *fakeModifier) GetThread(ctx context.Context, id gmail.ThreadID, headers []string) (gmail.Thread, error) {
	_ = ctx
	_ = headers
	return gmail.Thread{ID: id}, nil
}

func (f *fakeModifier) BatchModify(ctx context.Context, ids []gmail.MessageID, ops gmail.ModifyOps) error {
	_ = ctx
	idx := len(f.batches)
	f.batches = append(f.batches, append([]gmail.MessageID(nil), ids...))
	f.ops = append(f.ops, ops)
	if err, ok := f.failOn[idx]; ok {
		return err
	}
	return nil
}

func makeIDs(n int) []gmail.MessageID {
	ids := make([]gmail.MessageID, n)
	for i := range ids {
		ids[i] = gmail.MessageID(fmt.Sprintf("id-%04d", i))
	}
	return ids
}

func TestApplyChunking(t *testing.T) {
	tests := []struct {
		name       string
		count      int
		wantChunks []int
	}{
		{name: "empty", count: 0, wantChunks: nil},
		{name: "one", count: 1, wantChunks: []int{1}},
		{name: "exact-boundary", count: 1000, wantChunks: []int{1000}},
		{name: "boundary-plus-one", count: 1001, wantChunks: []int{1000, 1}},
		{name: "several", count: 2500, wantChunks: []int{1000, 1000, 500}},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeModifier{}
			m := &Mutator{Client: fake, Logger: slogDiscard()}
			res, err := m.Apply(context.Background(), OpTrash, makeIDs(tc.count))
			if err != nil {
				t.Fatalf("apply failed: %v", err)
			}
			if len(fake.batches) != len(tc.wantChunks) {
				t.Fatalf("chunk count: got %d want %d", len(fake.batches), len(tc.wantChunks))
			}
			for i, want := range tc.wantChunks {
				if len(fake.batches[i]) != want {
					t.Fatalf("chunk %d size: got %d want %d", i, len(fake.batches[i]), want)
				}
			}
			if res.Mutated != tc.count {
				t.Fatalf("mutated: got %d want %d", res.Mutated, tc.count)
			}

			// Union of chunks must be the input, no dupes, no omissions.
			seen := map[gmail.MessageID]struct{}{}
			for _, batch := range fake.batches {
				for _, id := range batch {
					if _, dup := seen[id]; dup {
						t.Fatalf("id %s mutated twice", id)
					}
					seen[id] = struct{}{}
				}
			}
			if len(seen) != tc.count {
				t.Fatalf("mutated id set size: got %d want %d", len(seen), tc.count)
			}
		})
	}
}

func TestApplyIsolatesChunkFailures(t *testing.T) {
	fake := &fakeModifier{failOn: map[int]error{1: fmt.Errorf("backend unavailable")}}
	m := &Mutator{Client: fake, Logger: slogDiscard()}

	res, err := m.Apply(context.Background(), OpTrash, makeIDs(2500))
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if len(fake.batches) != 3 {
		t.Fatalf("expected all 3 chunks attempted, got %d", len(fake.batches))
	}
	if res.Mutated != 1500 {
		t.Fatalf("mutated: got %d want 1500", res.Mutated)
	}
	if len(res.ChunkErrors) != 1 {
		t.Fatalf("chunk errors: got %d want 1", len(res.ChunkErrors))
	}
	ce := res.ChunkErrors[0]
	if ce.Offset != 1000 || ce.Size != 1000 {
		t.Fatalf("chunk error location: offset %d size %d", ce.Offset, ce.Size)
	}
}

func TestApplyLabelOps(t *testing.T) {
	fake := &fakeModifier{}
	m := &Mutator{Client: fake, Logger: slogDiscard()}

	if _, err := m.Apply(context.Background(), OpTrash, makeIDs(1)); err != nil {
		t.Fatalf("trash failed: %v", err)
	}
	if _, err := m.Apply(context.Background(), OpArchive, makeIDs(1)); err != nil {
		t.Fatalf("archive failed: %v", err)
	}

	trash := fake.ops[0]
	if len(trash.AddLabels) != 1 || trash.AddLabels[0] != "TRASH" {
		t.Fatalf("trash add labels: %v", trash.AddLabels)
	}
	archive := fake.ops[1]
	if len(archive.AddLabels) != 0 {
		t.Fatalf("archive must not add labels, got %v", archive.AddLabels)
	}
	if len(archive.RemoveLabels) != 1 || archive.RemoveLabels[0] != "INBOX" {
		t.Fatalf("archive remove labels: %v", archive.RemoveLabels)
	}
}

func TestApplyRejectsUnknownOperation(t *testing.T) {
	m := &Mutator{Client: &fakeModifier{}, Logger: slogDiscard()}
	if _, err := m.Apply(context.Background(), Operation("shred"), makeIDs(1)); err == nil {
		t.Fatal("expected error for unknown operation")
	}
}

func TestApplyRespectsCustomBatchSize(t *testing.T) {
	fake := &fakeModifier{}
	m := &Mutator{Client: fake, Logger: slogDiscard(), MaxBatch: 10}
	if _, err := m.Apply(context.Background(), OpArchive, makeIDs(25)); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if len(fake.batches) != 3 {
		t.Fatalf("expected 3 chunks of <=10, got %d", len(fake.batches))
	}
	// An oversized configured batch must still clamp to the API ceiling.
	fake = &fakeModifier{}
	m = &Mutator{Client: fake, Logger: slogDiscard(), MaxBatch: 5000}
	if _, err := m.Apply(context.Background(), OpArchive, makeIDs(1200)); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if len(fake.batches) != 2 {
		t.Fatalf("expected clamped chunking into 2 calls, got %d", len(fake.batches))
	}
}

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
