package testutil

import (
	"net/http"
	"strconv"

	"casedesk/internal/platform/middleware"
	"casedesk/pkg/requestcontext"
)

// AsUser sets the acting-user header the way a back-office client would.
func AsUser(req *http.Request, userID int64) *http.Request {
	req.Header.Set(middleware.HeaderUserID, strconv.FormatInt(userID, 10))
	return req
}

// WithUserID injects the acting user directly, bypassing the header
// middleware. Useful when a handler is called without the router.
func WithUserID(req *http.Request, userID int64) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}

