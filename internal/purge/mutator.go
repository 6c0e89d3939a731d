package purge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joshsymonds/mailgc/internal/gmail"
	"github.com/joshsymonds/mailgc/internal/rate"
)

// MaxBatchSize is the Gmail batchModify ceiling: 1000 message IDs per call.
const MaxBatchSize = 1000

// Operation is the state change a job applies to qualifying messages.
type Operation string

const (
	// OpTrash moves messages to the trash (reversible within Gmail's own
	// retention window).
	OpTrash Operation = "trash"
	// OpArchive removes messages from the inbox without trashing them.
	OpArchive Operation = "archive"
)

// labelOps translates an operation into the Gmail label change implementing
// it. Both rely on the remote side treating repeated label ops as no-ops,
// which is what makes re-running a job safe.
func (op Operation) labelOps() (gmail.ModifyOps, error) {
	switch op {
	case OpTrash:
		return gmail.ModifyOps{
			AddLabels:    []gmail.LabelID{"TRASH"},
			RemoveLabels: []gmail.LabelID{"INBOX"},
		}, nil
	case OpArchive:
		return gmail.ModifyOps{RemoveLabels: []gmail.LabelID{"INBOX"}}, nil
	default:
		return gmail.ModifyOps{}, fmt.Errorf("unknown operation %q", string(op))
	}
}

// ChunkError records a failed batchModify call. Offset and Size locate the
// chunk within the ids passed to Apply.
type ChunkError struct {
	Offset int
	Size   int
	Err    error
}

func (e ChunkError) Error() string {
	return fmt.Sprintf("chunk at %d (%d ids): %v", e.Offset, e.Size, e.Err)
}

func (e ChunkError) Unwrap() error { return e.Err }

// BatchResult reports what a single Apply achieved.
type BatchResult struct {
	Mutated     int
	ChunkErrors []ChunkError
}

// Mutator applies a state change to message IDs in bounded-size batches.
// A chunk failure is recorded and does not stop the remaining chunks; the
// caller folds ChunkErrors into its run summary.
type Mutator struct {
	Client   gmail.Client
	Limiter  rate.Limiter
	Logger   *slog.Logger
	MaxBatch int // defaults to MaxBatchSize; values above it are clamped
}

// Apply splits ids into chunks of at most MaxBatch and issues one
// batchModify per chunk. It returns an error only when the context is
// canceled; remote failures are isolated per chunk in the result.
func (m *Mutator) Apply(ctx context.Context, op Operation, ids []gmail.MessageID) (BatchResult, error) {
	var res BatchResult
	if len(ids) == 0 {
		return res, nil
	}
	ops, err := op.labelOps()
	if err != nil {
		return res, err
	}
	size := m.MaxBatch
	if size <= 0 || size > MaxBatchSize {
		size = MaxBatchSize
	}
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]
		if waitErr := m.wait(ctx); waitErr != nil {
			return res, waitErr
		}
		if modErr := m.Client.BatchModify(ctx, chunk, ops); modErr != nil {
			if ctx.Err() != nil {
				return res, fmt.Errorf("batch modify: %w", ctx.Err())
			}
			res.ChunkErrors = append(res.ChunkErrors, ChunkError{
				Offset: start,
				Size:   len(chunk),
				Err:    modErr,
			})
			m.log().WarnContext(ctx, "batch modify failed",
				slog.String("operation", string(op)),
				slog.Int("offset", start),
				slog.Int("size", len(chunk)),
				slog.Bool("rate_limited", gmail.IsRateLimited(modErr)),
				slog.Any("error", modErr),
			)
			continue
		}
		res.Mutated += len(chunk)
	}
	return res, nil
}

func (m *Mutator) wait(ctx context.Context) error {
	if m.Limiter == nil {
		return nil
	}
	if err := m.Limiter.WaitN(ctx, rate.UnitsBatchModify); err != nil {
		return fmt.Errorf("rate limit batch modify: %w", err)
	}
	return nil
}

func (m *Mutator) log() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}
