// Package policy decides which messages in a thread qualify for a state
// change. Policies are pure: same messages, same clock, same answer.
package policy

import (
	"fmt"
	"time"

	"github.com/joshsymonds/mailgc/internal/gmail"
)

// Policy selects the message IDs within one thread that a retention job
// should mutate. Implementations must not reorder msgs: threads arrive
// oldest first and selection depends on that.
type Policy interface {
	Select(msgs []gmail.Message, now time.Time) []gmail.MessageID
	// Describe returns a short form for logs, e.g. "older-than:30d".
	Describe() string
}

// AgeThreshold selects messages received more than Days ago. The boundary is
// exclusive: a message exactly Days old does not qualify. A zero or negative
// threshold selects nothing — a misconfigured job must never drain a label.
type AgeThreshold struct {
	Days int
}

func (p AgeThreshold) Select(msgs []gmail.Message, now time.Time) []gmail.MessageID {
	if p.Days <= 0 {
		return nil
	}
	cutoff := now.Add(-time.Duration(p.Days) * 24 * time.Hour)
	var ids []gmail.MessageID
	for _, m := range msgs {
		if m.InternalDate.Before(cutoff) {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

func (p AgeThreshold) Describe() string {
	return fmt.Sprintf("older-than:%dd", p.Days)
}

// KeepFirst selects every message except the oldest, so a swept thread keeps
// its original message and loses the replies. Single-message threads are
// untouched.
type KeepFirst struct{}

func (KeepFirst) Select(msgs []gmail.Message, _ time.Time) []gmail.MessageID {
	if len(msgs) <= 1 {
		return nil
	}
	ids := make([]gmail.MessageID, 0, len(msgs)-1)
	for _, m := range msgs[1:] {
		ids = append(ids, m.ID)
	}
	return ids
}

func (KeepFirst) Describe() string { return "keep-first" }

var (
	_ Policy = AgeThreshold{}
	_ Policy = KeepFirst{}
)
