package middleware

import "context"

type contextKey string

const (
	ctxSessionSubject contextKey = "session_subject"
	ctxAdminSubject   contextKey = "admin_subject"
)

// SessionSubjectFromContext returns the storefront session subject, if set.
func SessionSubjectFromContext(ctx context.Context) string {
	subject, _ := ctx.Value(ctxSessionSubject).(string)
	return subject
}

// AdminSubjectFromContext returns the authenticated admin subject, if set.
func AdminSubjectFromContext(ctx context.Context) string {
	subject, _ := ctx.Value(ctxAdminSubject).(string)
	return subject
}
