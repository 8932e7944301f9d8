package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestSessionMiddlewareIssuesAndReusesID(t *testing.T) {
	store := NewCookieStore("test-secret", false)
	var seen []string
	h := SessionMiddleware(store, zerolog.New(io.Discard))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := SessionID(r.Context())
		if !ok {
			t.Fatal("expected a session id in context")
		}
		seen = append(seen, id)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionName {
		t.Fatalf("expected session cookie, got %v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("expected no new cookie for a known session")
	}
	if len(seen) != 2 || seen[0] != seen[1] {
		t.Fatalf("expected the same id twice, got %v", seen)
	}
}

func TestSessionMiddlewareReplacesTamperedCookie(t *testing.T) {
	store := NewCookieStore("test-secret", false)
	h := SessionMiddleware(store, zerolog.New(io.Discard))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionName, Value: "garbage"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || len(rec.Result().Cookies()) != 1 {
		t.Fatalf("expected a fresh session, got status %d cookies %v", rec.Code, rec.Result().Cookies())
	}
}

func TestLoggerMiddlewarePassesThrough(t *testing.T) {
	h := LoggerMiddleware(zerolog.New(io.Discard))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected status to pass through, got %d", rec.Code)
	}
}
