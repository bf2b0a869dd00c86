package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/stockstage/internal/core"
)

// withRequestMetadata copies the client IP and User-Agent into ctx so core
// can attach them to the import session.
func withRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, r.RemoteAddr) // already reduced by TrustedRealIP
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}
