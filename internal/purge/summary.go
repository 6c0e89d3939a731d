package purge

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// JobError is one recorded failure from a run. Stage is "page", "thread" or
// "batch"; Thread is set for thread-level failures only.
type JobError struct {
	Stage   string `json:"stage"`
	Thread  string `json:"thread,omitempty"`
	Message string `json:"message"`
}

// Summary is the full outcome of one job run. Mutations already applied when
// a run aborts stay applied; there is no cross-page rollback, and a later
// re-run is safe because mutated messages drop out of the job's query.
type Summary struct {
	StartedAt       time.Time  `json:"started_at"`
	Label           string     `json:"label"`
	Policy          string     `json:"policy"`
	Operation       Operation  `json:"operation"`
	DryRun          bool       `json:"dry_run"`
	PagesFetched    int        `json:"pages_fetched"`
	ThreadsVisited  int        `json:"threads_visited"`
	MessagesMatched int        `json:"messages_matched"`
	MessagesMutated int        `json:"messages_mutated"`
	Aborted         bool       `json:"aborted"`
	Errors          []JobError `json:"errors,omitempty"`
}

// LogAttrs renders the summary as the run's single structured report line.
func (s Summary) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("label", s.Label),
		slog.String("policy", s.Policy),
		slog.String("operation", string(s.Operation)),
		slog.Bool("dry_run", s.DryRun),
		slog.Int("pages", s.PagesFetched),
		slog.Int("threads", s.ThreadsVisited),
		slog.Int("matched", s.MessagesMatched),
		slog.Int("mutated", s.MessagesMutated),
		slog.Bool("aborted", s.Aborted),
		slog.Int("errors", len(s.Errors)),
	}
}

// WriteJSON serializes the summary to a file under the working directory.
func WriteJSON(sum Summary, path string) error {
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
	if encodeErr := enc.Encode(sum); encodeErr != nil {
		return fmt.Errorf("encode summary: %w", encodeErr)
	}
	return nil
}
