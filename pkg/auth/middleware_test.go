package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rhuss/keygate/pkg/api"
	"github.com/rhuss/keygate/pkg/credential"
)

func newTestMiddleware(strict bool) func(http.Handler) http.Handler {
	return Middleware(New(credential.NewVerifier(testSecrets()), strict), DefaultBypassEndpoints)
}

func TestMiddleware_BypassEndpoint(t *testing.T) {
	mw := Middleware(NewResolver(), []string{"/healthz"})

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFromContext(r.Context()) != nil {
			t.Error("bypassed request should carry no identity")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("bypass endpoint: status = %d, want 200", rec.Code)
	}
}

func TestMiddleware_NoAuth_Rejects(t *testing.T) {
	called := false
	handler := newTestMiddleware(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest("GET", "/customer-data", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if called {
		t.Error("handler must not run for rejected requests")
	}
	assertErrorBody(t, rec, http.StatusUnauthorized, "Unauthorized")
}

func TestMiddleware_RejectionMessages(t *testing.T) {
	tests := []struct {
		name    string
		strict  bool
		header  http.Header
		wantMsg string
	}{
		{"invalid bearer", false, headers("Authorization", "Bearer nope"), "Invalid bearer token"},
		{"invalid client", false, headers("clientid", testClientID, "clientsecret", "x"), "Invalid client credentials"},
		{"strict api key", true, headers("x-api-key", "wrong"), "Invalid API key"},
		{"strict basic", true, headers("Authorization", basicHeader(testUser, "x")), "Invalid basic credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestMiddleware(tt.strict)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler must not run for rejected requests")
			}))

			req := httptest.NewRequest("GET", "/items", nil)
			req.Header = tt.header
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assertErrorBody(t, rec, http.StatusUnauthorized, tt.wantMsg)
		})
	}
}

func TestMiddleware_ValidAuth_Passes(t *testing.T) {
	var got *Identity
	handler := newTestMiddleware(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/customer-data", nil)
	req.Header.Set("clientid", testClientID)
	req.Header.Set("clientsecret", testClientSecret)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("valid auth: status = %d, want 200", rec.Code)
	}
	if got == nil || got.Scheme != SchemeClient {
		t.Fatalf("identity = %+v, want scheme %q", got, SchemeClient)
	}
	if got.IssuedToken == "" {
		t.Error("client credential identity should carry a minted token")
	}
}

func TestDefaultBypassEndpoints(t *testing.T) {
	handler := newTestMiddleware(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/", "/healthz", "/metrics", "/token"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, rec.Code)
		}
	}
}

func assertErrorBody(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	if rec.Code != status {
		t.Errorf("status = %d, want %d", rec.Code, status)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var body api.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if body.Error != msg {
		t.Errorf("error = %q, want %q", body.Error, msg)
	}
}
