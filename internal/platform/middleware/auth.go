package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	dErrors "casedesk/pkg/domain-errors"
	"casedesk/pkg/platform/httputil"
	"casedesk/pkg/requestcontext"
)

// HeaderUserID carries the acting user id. The upstream gateway authenticates
// the caller and sets it; this service trusts it as-is.
const HeaderUserID = "X-User-ID"

// ActingUser reads the acting user from HeaderUserID into the request
// context. A missing header leaves the request anonymous; a malformed one is
// rejected.
func ActingUser(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(HeaderUserID))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || userID <= 0 {
				ctx := r.Context()
				logger.WarnContext(ctx, "rejected malformed acting user header",
					"header", HeaderUserID,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid "+HeaderUserID+" header"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithUserID(r.Context(), userID)))
		})
	}
}
