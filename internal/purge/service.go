// Package purge implements the paginated, batched, idempotent bulk state
// change engine behind mailgc's retention jobs. One Service drives the whole
// run: enumerate threads page by page, classify each thread's messages under
// the job's policy, and flush qualifying IDs through the batch mutator.
package purge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joshsymonds/mailgc/internal/gmail"
	"github.com/joshsymonds/mailgc/internal/policy"
	"github.com/joshsymonds/mailgc/internal/rate"
)

const (
	defaultPageSize = 100
	maxPageSize     = 500
)

// Job describes one retention run: which label to sweep, which messages
// qualify, and what happens to them. Jobs are static per deployment; a
// scheduler re-runs them and the mailbox's own label state is the only
// progress tracking between runs.
type Job struct {
	Label     string
	Policy    policy.Policy
	Operation Operation
	PageSize  int
	DryRun    bool
}

// Validate rejects jobs that would make no remote call worth making.
func (j Job) Validate() error {
	if j.Label == "" {
		return fmt.Errorf("job requires a label")
	}
	if j.Policy == nil {
		return fmt.Errorf("job requires a policy")
	}
	if _, err := j.Operation.labelOps(); err != nil {
		return fmt.Errorf("job operation: %w", err)
	}
	return nil
}

// Query builds the Gmail search narrowing the run to the job's label and, for
// age policies, to messages old enough to possibly qualify. Trashed messages
// never match a label query and archive jobs add in:inbox, so a completed
// run's messages drop out of the next run's enumeration — that query
// exclusion, plus Gmail's idempotent label ops, is what makes re-running
// safe.
func (j Job) Query() gmail.Query {
	q := fmt.Sprintf("label:%q", j.Label)
	if age, ok := j.Policy.(policy.AgeThreshold); ok && age.Days > 0 {
		q += fmt.Sprintf(" older_than:%dd", age.Days)
	}
	if j.Operation == OpArchive {
		q += " in:inbox"
	}
	return gmail.Query{Raw: q}
}

// Service runs retention jobs against a Gmail client.
type Service struct {
	Client  gmail.Client
	Limiter rate.Limiter
	Logger  *slog.Logger
	Clock   func() time.Time
}

// NewService constructs a Service with sane defaults.
func NewService(client gmail.Client, limiter rate.Limiter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Service{
		Client:  client,
		Limiter: limiter,
		Logger:  logger,
		Clock:   time.Now,
	}
}

// Run executes job to completion and reports everything that happened in the
// Summary. Remote failures land in Summary.Errors rather than the returned
// error: a page fetch failure aborts the run (the continuation token is no
// longer trustworthy), a thread fetch failure skips that thread, and batch
// failures are already isolated per chunk by the mutator. The error return
// is reserved for an invalid job or a canceled context.
func (s *Service) Run(ctx context.Context, job Job) (Summary, error) {
	sum := Summary{
		StartedAt: s.Clock(),
		Label:     job.Label,
		DryRun:    job.DryRun,
		Operation: job.Operation,
	}
	if err := job.Validate(); err != nil {
		return sum, err
	}
	sum.Policy = job.Policy.Describe()

	pageSize := job.PageSize
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	query := job.Query()
	now := s.Clock()
	mutator := &Mutator{Client: s.Client, Limiter: s.Limiter, Logger: s.Logger}

	s.Logger.InfoContext(ctx, "job started",
		slog.String("label", job.Label),
		slog.String("policy", sum.Policy),
		slog.String("operation", string(job.Operation)),
		slog.String("query", query.Raw),
		slog.Bool("dry_run", job.DryRun),
	)

	// seen guards the run invariant that an ID lands in at most one batch,
	// even if the listing hands us a thread twice across pages.
	seen := make(map[gmail.MessageID]struct{})
	var pending []gmail.MessageID

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if job.DryRun {
			s.Logger.InfoContext(ctx, "dry-run: skipping mutation",
				slog.Int("count", len(pending)))
			pending = pending[:0]
			return nil
		}
		res, err := mutator.Apply(ctx, job.Operation, pending)
		sum.MessagesMutated += res.Mutated
		for _, ce := range res.ChunkErrors {
			sum.Errors = append(sum.Errors, JobError{Stage: "batch", Message: ce.Error()})
		}
		pending = pending[:0]
		return err
	}

	token := ""
	for {
		page, err := s.listThreads(ctx, query, token, pageSize)
		if err != nil {
			if ctx.Err() != nil {
				sum.Aborted = true
				s.report(ctx, sum)
				return sum, fmt.Errorf("list threads: %w", ctx.Err())
			}
			// The continuation chain is broken; anything already flushed
			// stays applied and the next scheduled run picks up the rest.
			sum.Aborted = true
			sum.Errors = append(sum.Errors, JobError{Stage: "page", Message: err.Error()})
			s.report(ctx, sum)
			return sum, nil
		}
		sum.PagesFetched++

		for _, tid := range page.Threads {
			thread, err := s.getThread(ctx, tid)
			if err != nil {
				if ctx.Err() != nil {
					sum.Aborted = true
					s.report(ctx, sum)
					return sum, fmt.Errorf("get thread: %w", ctx.Err())
				}
				if gmail.IsNotFound(err) {
					// Listed on this page but gone by the time we fetched
					// it; the mailbox moved on underneath us.
					continue
				}
				sum.Errors = append(sum.Errors, JobError{
					Stage:   "thread",
					Thread:  string(tid),
					Message: err.Error(),
				})
				continue
			}
			sum.ThreadsVisited++
			for _, id := range job.Policy.Select(thread.Messages, now) {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				sum.MessagesMatched++
				pending = append(pending, id)
				if len(pending) >= MaxBatchSize {
					if err := flush(); err != nil {
						sum.Aborted = true
						s.report(ctx, sum)
						return sum, err
					}
				}
			}
		}

		if err := flush(); err != nil {
			sum.Aborted = true
			s.report(ctx, sum)
			return sum, err
		}
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}

	s.report(ctx, sum)
	return sum, nil
}

func (s *Service) listThreads(ctx context.Context, q gmail.Query, token string, pageSize int) (gmail.ThreadPage, error) {
	if err := s.wait(ctx, rate.UnitsThreadsList, "rate limit thread list"); err != nil {
		return gmail.ThreadPage{}, err
	}
	page, err := s.Client.ListThreads(ctx, q, token, pageSize)
	if err != nil {
		return gmail.ThreadPage{}, fmt.Errorf("list threads: %w", err)
	}
	s.Logger.DebugContext(ctx, "fetched page",
		slog.Int("threads", len(page.Threads)),
		slog.Int64("estimate", page.SizeEstimate),
		slog.Bool("more", page.NextPageToken != ""),
	)
	return page, nil
}

func (s *Service) getThread(ctx context.Context, id gmail.ThreadID) (gmail.Thread, error) {
	if err := s.wait(ctx, rate.UnitsThreadsGet, "rate limit thread get"); err != nil {
		return gmail.Thread{}, err
	}
	thread, err := s.Client.GetThread(ctx, id, nil)
	if err != nil {
		return gmail.Thread{}, fmt.Errorf("get thread %s: %w", id, err)
	}
	return thread, nil
}

func (s *Service) wait(ctx context.Context, units int, operation string) error {
	if s.Limiter == nil {
		return nil
	}
	if err := s.Limiter.WaitN(ctx, units); err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}

func (s *Service) report(ctx context.Context, sum Summary) {
	s.Logger.LogAttrs(ctx, slog.LevelInfo, "job finished", sum.LogAttrs()...)
}
