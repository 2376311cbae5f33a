package auth

import (
	"context"

	"membership/internal/model"
)

type sessionCtxKey struct{}

// WithSession returns a copy of ctx carrying session.
func WithSession(ctx context.Context, session *model.Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, session)
}

// SessionFromContext returns the live session attached to ctx.
func SessionFromContext(ctx context.Context) (*model.Session, bool) {
	session, ok := ctx.Value(sessionCtxKey{}).(*model.Session)
	return session, ok && session != nil
}

type sessionErrCtxKey struct{}

// WithSessionError records that the session behind the request could not be
// loaded because the store failed.
func WithSessionError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, sessionErrCtxKey{}, err)
}

// SessionError returns the store failure recorded by WithSessionError, if any.
func SessionError(ctx context.Context) error {
	err, _ := ctx.Value(sessionErrCtxKey{}).(error)
	return err
}
