package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name        string
		allowed     []string
		method      string
		origin      string
		preflight   bool
		wantStatus  int
		wantOrigin  string
		wantHeaders bool
	}{
		{name: "configured origin", allowed: []string{"https://app.domatch.test"}, method: http.MethodGet, origin: "https://app.domatch.test", wantStatus: http.StatusOK, wantOrigin: "https://app.domatch.test", wantHeaders: true},
		{name: "wildcard", allowed: []string{" * "}, method: http.MethodGet, origin: "https://other.test", wantStatus: http.StatusOK, wantOrigin: "*", wantHeaders: true},
		{name: "unknown origin passes through", allowed: []string{"https://app.domatch.test"}, method: http.MethodGet, origin: "https://evil.test", wantStatus: http.StatusOK},
		{name: "no origin", allowed: []string{"*"}, method: http.MethodGet, wantStatus: http.StatusOK},
		{name: "preflight allowed", allowed: []string{"https://app.domatch.test"}, method: http.MethodOptions, origin: "https://app.domatch.test", preflight: true, wantStatus: http.StatusNoContent, wantOrigin: "https://app.domatch.test", wantHeaders: true},
		{name: "preflight rejected", allowed: []string{"https://app.domatch.test"}, method: http.MethodOptions, origin: "https://evil.test", preflight: true, wantStatus: http.StatusForbidden},
		{name: "plain options reaches handler", allowed: []string{"https://app.domatch.test"}, method: http.MethodOptions, origin: "https://app.domatch.test", wantStatus: http.StatusOK, wantOrigin: "https://app.domatch.test", wantHeaders: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/v1/communities", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()

			CORS(tt.allowed, next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantHeaders {
				assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), internalJobTokenHeader)
				assert.Equal(t, corsAllowMethods, rec.Header().Get("Access-Control-Allow-Methods"))
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Methods"))
			}
		})
	}
}
