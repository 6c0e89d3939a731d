// Package report inventories what a retention job would touch, without
// mutating anything. Operators run it before adding a job to the deployment
// file to see how much mail a label has accumulated and who sends it.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joshsymonds/mailgc/internal/gmail"
	"github.com/joshsymonds/mailgc/internal/policy"
	"github.com/joshsymonds/mailgc/internal/rate"
)

const previewSubjectDisplayLimit = 60

func defaultHeaders() []string {
	return []string{"From", "Subject", "List-Id"}
}

// Options controls an inventory run.
type Options struct {
	Label         string
	OlderThanDays int
	TopN          int
	PageSize      int
}

// Service scans a label read-only and ranks its contents.
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

// Report summarizes a label's retention candidates.
type Report struct {
	GeneratedAt     time.Time    `json:"generated_at"`
	Label           string       `json:"label"`
	OlderThanDays   int          `json:"older_than_days"`
	ThreadsScanned  int          `json:"threads_scanned"`
	MessagesSeen    int          `json:"messages_seen"`
	MessagesMatched int          `json:"messages_matched"`
	TopSenders      []SenderStat `json:"top_senders"`
	OldestSeen      time.Time    `json:"oldest_seen,omitempty"`
}

// SenderStat ranks sender domains among qualifying messages.
type SenderStat struct {
	Domain         string `json:"domain"`
	Count          int    `json:"count"`
	PreviewSubject string `json:"preview_subject"`
}

// Run scans every page of the label and reports what an AgeThreshold job
// with the same settings would mutate.
func (s *Service) Run(ctx context.Context, opts Options) (Report, error) {
	if opts.Label == "" {
		return Report{}, fmt.Errorf("label must not be empty")
	}
	if opts.OlderThanDays <= 0 {
		return Report{}, fmt.Errorf("older-than-days must be positive")
	}
	topN := opts.TopN
	if topN <= 0 {
		topN = 20
	}
	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > 500 {
		pageSize = 100
	}

	pol := policy.AgeThreshold{Days: opts.OlderThanDays}
	query := gmail.Query{Raw: fmt.Sprintf("label:%q older_than:%dd", opts.Label, opts.OlderThanDays)}
	now := s.Clock()

	s.Logger.InfoContext(ctx, "running inventory",
		slog.String("label", opts.Label),
		slog.Int("older_than_days", opts.OlderThanDays),
	)

	rep := Report{
		GeneratedAt:   now,
		Label:         opts.Label,
		OlderThanDays: opts.OlderThanDays,
	}
	senders := map[string]*SenderStat{}

	token := ""
	for {
		if err := s.wait(ctx, rate.UnitsThreadsList, "rate limit thread list"); err != nil {
			return Report{}, err
		}
		page, err := s.Client.ListThreads(ctx, query, token, pageSize)
		if err != nil {
			return Report{}, fmt.Errorf("list threads: %w", err)
		}
		for _, tid := range page.Threads {
			if err := s.wait(ctx, rate.UnitsThreadsGet, "rate limit thread get"); err != nil {
				return Report{}, err
			}
			thread, err := s.Client.GetThread(ctx, tid, defaultHeaders())
			if err != nil {
				if gmail.IsNotFound(err) {
					continue
				}
				return Report{}, fmt.Errorf("get thread %s: %w", tid, err)
			}
			rep.ThreadsScanned++
			rep.MessagesSeen += len(thread.Messages)
			tally(&rep, senders, thread.Messages, pol.Select(thread.Messages, now))
		}
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}

	rep.TopSenders = rankSenders(senders, topN)
	return rep, nil
}

func tally(rep *Report, senders map[string]*SenderStat, msgs []gmail.Message, matched []gmail.MessageID) {
	qualifying := make(map[gmail.MessageID]struct{}, len(matched))
	for _, id := range matched {
		qualifying[id] = struct{}{}
	}
	for _, m := range msgs {
		if _, ok := qualifying[m.ID]; !ok {
			continue
		}
		rep.MessagesMatched++
		if rep.OldestSeen.IsZero() || m.InternalDate.Before(rep.OldestSeen) {
			rep.OldestSeen = m.InternalDate
		}
		domain := domainOf(m.Headers["From"])
		if domain == "" {
			continue
		}
		st := senders[domain]
		if st == nil {
			st = &SenderStat{Domain: domain}
			senders[domain] = st
		}
		st.Count++
		if st.PreviewSubject == "" {
			st.PreviewSubject = m.Headers["Subject"]
		}
	}
}

func rankSenders(m map[string]*SenderStat, topN int) []SenderStat {
	slice := make([]SenderStat, 0, len(m))
	for _, st := range m {
		slice = append(slice, *st)
	}
	sort.Slice(slice, func(i, j int) bool {
		if slice[i].Count == slice[j].Count {
			return slice[i].Domain < slice[j].Domain
		}
		return slice[i].Count > slice[j].Count
	})
	if topN < len(slice) {
		slice = slice[:topN]
	}
	return slice
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

// PrintHuman writes a readable report to the provided writer.
func PrintHuman(rep Report, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}
	var builder strings.Builder
	fmt.Fprintf(&builder, "mailgc inventory — label %q older than %dd\n", rep.Label, rep.OlderThanDays)
	fmt.Fprintf(&builder, "  threads scanned: %d\n", rep.ThreadsScanned)
	fmt.Fprintf(&builder, "  messages seen:   %d\n", rep.MessagesSeen)
	fmt.Fprintf(&builder, "  would mutate:    %d\n", rep.MessagesMatched)
	if !rep.OldestSeen.IsZero() {
		fmt.Fprintf(&builder, "  oldest message:  %s\n", rep.OldestSeen.Format(time.RFC3339))
	}
	if len(rep.TopSenders) > 0 {
		builder.WriteString("\nTop senders among candidates:\n")
		for _, s := range rep.TopSenders {
			fmt.Fprintf(
				&builder,
				"  %-30s %4d %s\n",
				s.Domain,
				s.Count,
				truncate(s.PreviewSubject, previewSubjectDisplayLimit),
			)
		}
	}
	if _, err := io.WriteString(w, builder.String()); err != nil {
		return fmt.Errorf("write human report: %w", err)
	}
	return nil
}

// WriteJSON serializes the report to disk.
func WriteJSON(rep Report, path string) error {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return fmt.Errorf("path must not be empty")
	}
	clean = filepath.Clean(clean)
	if filepath.IsAbs(clean) {
		return fmt.Errorf("output path must be relative, got %s", clean)
	}
	if strings.HasPrefix(clean, "..") {
		return fmt.Errorf("output path %s escapes working directory", clean)
	}
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determine working directory: %w", err)
	}
	abs := filepath.Join(wd, clean)
	f, err := os.OpenFile(abs, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) // #nosec G304
	if err != nil {
		return fmt.Errorf("create %s: %w", abs, err)
	}
	defer func() { _ = f.Close() }()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if encodeErr := enc.Encode(rep); encodeErr != nil {
		return fmt.Errorf("encode report: %w", encodeErr)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
