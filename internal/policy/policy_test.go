package policy

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/joshsymonds/mailgc/internal/gmail"
)

var now = time.Date(2024, time.March, 11, 9, 0, 0, 0, time.UTC)

func msgAt(id string, t time.Time) gmail.Message {
	return gmail.Message{ID: gmail.MessageID(id), InternalDate: t}
}

func msgAgeDays(id string, days int) gmail.Message {
	return msgAt(id, now.Add(-time.Duration(days)*24*time.Hour))
}

func TestAgeThresholdBoundary(t *testing.T) {
	tests := []struct {
		name      string
		ageDays   int
		threshold int
		qualifies bool
	}{
		{name: "older-qualifies", ageDays: 8, threshold: 7, qualifies: true},
		{name: "exact-boundary-excluded", ageDays: 8, threshold: 8, qualifies: false},
		{name: "newer-excluded", ageDays: 3, threshold: 7, qualifies: false},
		{name: "one-day-over", ageDays: 31, threshold: 30, qualifies: true},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			p := AgeThreshold{Days: tc.threshold}
			got := p.Select([]gmail.Message{msgAgeDays("m", tc.ageDays)}, now)
			if qualified := len(got) == 1; qualified != tc.qualifies {
				t.Fatalf("age %dd vs threshold %dd: qualified=%v want %v",
					tc.ageDays, tc.threshold, qualified, tc.qualifies)
			}
		})
	}
}

func TestAgeThresholdClampsNonPositive(t *testing.T) {
	msgs := []gmail.Message{
		msgAgeDays("ancient", 3650),
		msgAgeDays("old", 30),
	}
	for _, days := range []int{0, -1, -365} {
		p := AgeThreshold{Days: days}
		if got := p.Select(msgs, now); len(got) != 0 {
			t.Fatalf("threshold %d selected %v, want nothing", days, got)
		}
	}
}

func TestAgeThresholdPreservesOrder(t *testing.T) {
	msgs := []gmail.Message{
		msgAgeDays("a", 100),
		msgAgeDays("b", 50),
		msgAgeDays("c", 10),
	}
	got := AgeThreshold{Days: 30}.Select(msgs, now)
	want := []gmail.MessageID{"a", "b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}
}

func TestKeepFirst(t *testing.T) {
	tests := []struct {
		name string
		msgs []gmail.Message
		want []gmail.MessageID
	}{
		{
			name: "empty-thread",
			msgs: nil,
			want: nil,
		},
		{
			name: "single-message",
			msgs: []gmail.Message{msgAt("a", time.Unix(0, 0))},
			want: nil,
		},
		{
			name: "drops-replies",
			msgs: []gmail.Message{
				msgAt("a", time.UnixMilli(0)),
				msgAt("b", time.UnixMilli(1)),
				msgAt("c", time.UnixMilli(2)),
			},
			want: []gmail.MessageID{"b", "c"},
		},
	}
	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			got := KeepFirst{}.Select(tc.msgs, now)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("selection mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestKeepFirstCount(t *testing.T) {
	for n := 0; n <= 5; n++ {
		msgs := make([]gmail.Message, 0, n)
		for i := 0; i < n; i++ {
			msgs = append(msgs, msgAt(fmt.Sprintf("m%d", i), time.UnixMilli(int64(i))))
		}
		got := KeepFirst{}.Select(msgs, now)
		want := n - 1
		if want < 0 {
			want = 0
		}
		if len(got) != want {
			t.Fatalf("thread of %d messages: selected %d, want %d", n, len(got), want)
		}
		for _, id := range got {
			if n > 0 && id == msgs[0].ID {
				t.Fatalf("first message %s must never be selected", id)
			}
		}
	}
}

func TestDescribe(t *testing.T) {
	if got := (AgeThreshold{Days: 30}).Describe(); got != "older-than:30d" {
		t.Fatalf("unexpected describe: %q", got)
	}
	if got := (KeepFirst{}).Describe(); got != "keep-first" {
		t.Fatalf("unexpected describe: %q", got)
	}
}
