package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc/metadata"
)

type ctxKey string

const credentialKey ctxKey = "session_credential"

// WithCredential stores a raw credential for callers that resolve it outside gRPC.
func WithCredential(ctx context.Context, credential string) context.Context {
	return context.WithValue(ctx, credentialKey, credential)
}

// GetCredential returns the raw session credential for the call: an explicit
// context value first, then "authorization: Bearer ..." metadata, then the
// x-session-token header the web tier forwards from the session cookie.
func GetCredential(ctx context.Context) string {
	if val, ok := ctx.Value(credentialKey).(string); ok && val != "" {
		return val
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if val := md.Get("authorization"); len(val) > 0 {
		token := strings.TrimSpace(val[0])
		if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
			return strings.TrimSpace(token[7:])
		}
		return token
	}
	if val := md.Get("x-session-token"); len(val) > 0 {
		return strings.TrimSpace(val[0])
	}
	return ""
}
