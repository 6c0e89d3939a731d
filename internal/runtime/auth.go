package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mbrt/gmailctl/cmd/gmailctl/localcred"
	"google.golang.org/api/gmail/v1"

	gc "github.com/joshsymonds/mailgc/internal/gmail"
)

// Scope selects the OAuth scope requested on first run.
type Scope int

const (
	// ScopeReadonly is enough for report runs.
	ScopeReadonly Scope = iota
	// ScopeModify is required by trash and archive jobs.
	ScopeModify
)

// NewGmailClient authenticates against cfgDir's stored credentials and
// returns a ready client. localcred drives the browser consent flow on first
// use and caches the token after that.
func NewGmailClient(ctx context.Context, cfgDir string, scope Scope) (gc.Client, error) {
	var svc *gmail.Service
	var err error
	switch scope {
	case ScopeReadonly:
		svc, err = (localcred.Provider{}).ServiceWithScopes(ctx, cfgDir, gmail.GmailReadonlyScope)
	case ScopeModify:
		svc, err = (localcred.Provider{}).ServiceWithScopes(ctx, cfgDir, gmail.GmailModifyScope)
	default:
		return nil, fmt.Errorf("unknown scope %d", scope)
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate gmail: %w", err)
	}
	return NewGoogleAPIClient(svc), nil
}

// DefaultLogger is the process-wide logging setup shared by all binaries.
func DefaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
