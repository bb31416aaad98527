package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{name: "generated"},
		{name: "propagated", header: "abc-123", keep: true},
		{name: "malformed replaced", header: "bad id\n"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var seen string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("X-Request-ID", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if seen == "" || rec.Header().Get("X-Request-ID") != seen {
				t.Fatalf("expected request id in context and header, got %q / %q", seen, rec.Header().Get("X-Request-ID"))
			}
			if tc.keep && seen != tc.header {
				t.Fatalf("expected %q to be kept, got %q", tc.header, seen)
			}
			if !tc.keep && seen == tc.header {
				t.Fatal("expected a generated id")
			}
		})
	}
}
