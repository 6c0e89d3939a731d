package gmail

import "context"

// Client is the narrow Gmail surface required by mailgc.
//
// ListThreads is stateless with respect to prior calls: the caller feeds the
// token from the previous page back in. The listing is not a snapshot — mail
// arriving between pages may or may not appear — so a run observes a
// best-effort view and relies on the next scheduled run to catch stragglers.
type Client interface {
	ListThreads(ctx context.Context, q Query, pageToken string, pageSize int) (ThreadPage, error)
	GetThread(ctx context.Context, id ThreadID, headers []string) (Thread, error)
	BatchModify(ctx context.Context, ids []MessageID, ops ModifyOps) error
}
