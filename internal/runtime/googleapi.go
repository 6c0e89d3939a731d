// Package runtime wires mailgc's narrow interfaces to the real Google API
// surface and local OAuth credentials.
package runtime

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/gmail/v1"

	gc "github.com/joshsymonds/mailgc/internal/gmail"
)

type googleClient struct{ svc *gmail.Service }

// NewGoogleAPIClient adapts *gmail.Service to the mailgc client interface.
func NewGoogleAPIClient(svc *gmail.Service) gc.Client { return &googleClient{svc} }

func (g *googleClient) ListThreads(ctx context.Context, q gc.Query, pageToken string, pageSize int) (gc.ThreadPage, error) {
	call := g.svc.Users.Threads.List("me").Q(q.Raw).MaxResults(int64(pageSize))
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	res, err := call.Context(ctx).Do()
	if err != nil {
		return gc.ThreadPage{}, fmt.Errorf("threads.list: %w", err)
	}
	page := gc.ThreadPage{
		NextPageToken: res.NextPageToken,
		SizeEstimate:  res.ResultSizeEstimate,
	}
	for _, t := range res.Threads {
		page.Threads = append(page.Threads, gc.ThreadID(t.Id))
	}
	return page, nil
}

func (g *googleClient) GetThread(ctx context.Context, id gc.ThreadID, headers []string) (gc.Thread, error) {
	call := g.svc.Users.Threads.Get("me", string(id)).Format("metadata")
	if len(headers) > 0 {
		call = call.MetadataHeaders(headers...)
	}
	res, err := call.Context(ctx).Do()
	if err != nil {
		return gc.Thread{}, fmt.Errorf("threads.get %s: %w", id, err)
	}
	thread := gc.Thread{ID: id}
	// threads.get returns messages in chronological order, oldest first;
	// policies depend on that and we pass it through untouched.
	for _, m := range res.Messages {
		msg := gc.Message{
			ID:           gc.MessageID(m.Id),
			ThreadID:     id,
			InternalDate: time.UnixMilli(m.InternalDate),
			Labels:       toLabelIDs(m.LabelIds),
		}
		if m.Payload != nil && len(m.Payload.Headers) > 0 {
			msg.Headers = make(map[string]string, len(m.Payload.Headers))
			for _, h := range m.Payload.Headers {
				msg.Headers[h.Name] = h.Value
			}
		}
		thread.Messages = append(thread.Messages, msg)
	}
	return thread, nil
}

func (g *googleClient) BatchModify(ctx context.Context, ids []gc.MessageID, ops gc.ModifyOps) error {
	req := &gmail.BatchModifyMessagesRequest{Ids: toStrings(ids)}
	if len(ops.AddLabels) > 0 {
		req.AddLabelIds = toStringsL(ops.AddLabels)
	}
	if len(ops.RemoveLabels) > 0 {
		req.RemoveLabelIds = toStringsL(ops.RemoveLabels)
	}
	if err := g.svc.Users.Messages.BatchModify("me", req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("messages.batchModify: %w", err)
	}
	return nil
}

func toStrings(ids []gc.MessageID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func toStringsL(ids []gc.LabelID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func toLabelIDs(ids []string) []gc.LabelID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]gc.LabelID, len(ids))
	for i, id := range ids {
		out[i] = gc.LabelID(id)
	}
	return out
}
