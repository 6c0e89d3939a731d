package gmail

import "time"

type MessageID string
type ThreadID string
type LabelID string

// Message is the per-message metadata a retention run needs: identity,
// receipt time, and enough headers for reporting.
type Message struct {
	ID       MessageID
	ThreadID ThreadID
	// Internal receipt time as recorded by the mail system. This is what
	// age policies compare against, not the Date header.
	InternalDate time.Time
	Labels       []LabelID
	Headers      map[string]string // From, Subject, List-Id when requested
}

// Thread is a conversation: its messages are ordered oldest first, as
// delivered by the threads.get API. Policies rely on that ordering.
type Thread struct {
	ID       ThreadID
	Messages []Message
}

// ThreadPage is one page of a thread listing. An empty NextPageToken means
// the listing is exhausted.
type ThreadPage struct {
	Threads       []ThreadID
	NextPageToken string
	// SizeEstimate is the server's guess at the total result count. Advisory
	// only; pagination must still run to an empty token.
	SizeEstimate int64
}

// ModifyOps is a bulk label change applied to a set of message IDs.
type ModifyOps struct {
	AddLabels    []LabelID
	RemoveLabels []LabelID
}

// Query is a raw Gmail search expression, already formed
// (e.g. `label:"newsletters" older_than:30d`).
type Query struct {
	Raw string
}
