package sharedmw

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tipliga-club/tipliga-backend/app/shared/attr"
)

const (
	// CorrelationIDHeader carries the request correlation ID end to end.
	CorrelationIDHeader = "X-Correlation-ID"
	// AdminUserHeader names the admin acting on behalf of a request. The
	// gateway in front of this service authenticates it; here it only feeds
	// the audit trail.
	AdminUserHeader = "X-Admin-User"
)

// CorrelationID attaches a correlation ID to every request context, minting
// one when the caller did not send one, and echoes it on the response.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(CorrelationIDHeader, id)
		next.ServeHTTP(w, r.WithContext(attr.WithCorrelationID(r.Context(), id)))
	})
}

// AdminUser returns the acting admin from the request, or "unknown" when the
// header is absent.
func AdminUser(r *http.Request) string {
	if admin := r.Header.Get(AdminUserHeader); admin != "" {
		return admin
	}
	return "unknown"
}
