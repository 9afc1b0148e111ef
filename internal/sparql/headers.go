package sparql

import "context"

// Mu header names understood by mu-authorization.
const (
	HeaderSessionID     = "mu-session-id"
	HeaderCallID        = "mu-call-id"
	HeaderAllowedGroups = "mu-auth-allowed-groups"
	HeaderSudo          = "mu-auth-sudo"
)

// Headers are the mu request headers forwarded with every store request.
type Headers struct {
	SessionID     string
	CallID        string
	AllowedGroups string
}

type headersKey struct{}

// WithHeaders returns a context carrying h.
func WithHeaders(ctx context.Context, h Headers) context.Context {
	return context.WithValue(ctx, headersKey{}, h)
}

// HeadersFrom returns the headers carried by ctx, if any.
func HeadersFrom(ctx context.Context) (Headers, bool) {
	h, ok := ctx.Value(headersKey{}).(Headers)
	return h, ok
}
