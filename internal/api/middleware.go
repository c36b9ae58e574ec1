package api

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
)

const cacheControlPrivate = "no-store, no-cache, must-revalidate, private"

// errorHandler turns a handler panic into a 500 response. http.ErrAbortHandler
// is passed through so the server can drop the connection quietly.
func (s *BudgetApp) errorHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			panicErr, ok := rec.(error)
			if !ok {
				panicErr = fmt.Errorf("%v", rec)
			}
			if errors.Is(panicErr, http.ErrAbortHandler) {
				panic(rec)
			}

			s.log.Printf("panic: %v %s %s\n%s", panicErr, r.Method, r.URL.Path, debug.Stack())
			errResp := NewInternalServerError(panicErr)
			w.Header().Set("Connection", "close")
			s.writeJson(w, errResp.StatusCode, errResp)
		}()

		next.ServeHTTP(w, r)
	})
}

// sessionToken reads the session token from the cookie, falling back to a
// bearer Authorization header for clients without a cookie jar.
func sessionToken(r *http.Request) (string, bool) {
	if c, err := r.Cookie(tokenCookieKey); err == nil && c.Value != "" {
		return c.Value, true
	}

	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

func (s *BudgetApp) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := sessionToken(r)
		if !ok {
			errResp := NewUnauthorizedError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		userId, err := s.extractUserIdFromToken(token)
		if err != nil {
			s.log.Printf("failed to extract user id from token: %v", err)
			errResp := NewUnauthorizedError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		w.Header().Set("Cache-Control", cacheControlPrivate)
		next(w, r.WithContext(WithUserId(r.Context(), userId)))
	}
}
