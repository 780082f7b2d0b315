package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rhuss/keygate/pkg/api"
	"github.com/rhuss/keygate/pkg/auth"
	"github.com/rhuss/keygate/pkg/credential"
	"github.com/rhuss/keygate/pkg/storage/memory"
	"github.com/rhuss/keygate/pkg/transport"
)

const (
	testAPIKey       = "sk-static"
	testUser         = "admin"
	testPass         = "s3cret"
	testClientID     = "ivr-client"
	testClientSecret = "top-secret"
)

func testVerifier() *credential.Verifier {
	return credential.NewVerifier(credential.Secrets{
		APIKey:        testAPIKey,
		BasicUsername: testUser,
		BasicPassword: testPass,
		ClientID:      testClientID,
		ClientSecret:  testClientSecret,
	})
}

// failingStore fails every operation.
type failingStore struct {
	err error
}

func (s *failingStore) FindCustomer(context.Context, string) (*api.Customer, error) {
	return nil, s.err
}
func (s *failingStore) ListCustomers(context.Context) ([]api.Customer, error) { return nil, s.err }
func (s *failingStore) InsertCustomer(context.Context, api.Customer) (*api.Customer, error) {
	return nil, s.err
}
func (s *failingStore) ListCallLogs(context.Context) ([]api.CallLog, error) { return nil, s.err }
func (s *failingStore) InsertCallLog(context.Context, api.CallLog) (*api.CallLog, error) {
	return nil, s.err
}
func (s *failingStore) ListItems(context.Context) ([]api.Item, error)           { return nil, s.err }
func (s *failingStore) InsertItem(context.Context, api.Item) (*api.Item, error) { return nil, s.err }
func (s *failingStore) HealthCheck(context.Context) error                       { return s.err }
func (s *failingStore) Close() error                                            { return nil }

func newTestHandler(t *testing.T, store transport.RecordStore, opts ...ServerOption) http.Handler {
	t.Helper()
	if store == nil {
		store = memory.New(0)
	}
	v := testVerifier()
	return NewServer(store, v, auth.New(v, false), opts...).Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal error: %v", err)
		}
		r = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func apiKey() http.Header {
	return http.Header{"X-Api-Key": {testAPIKey}}
}

func basic(user, pass string) http.Header {
	cred := base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
	return http.Header{"Authorization": {"Basic " + cred}}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode error: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, status, rec.Body.String())
	}
	got := decode[api.ErrorResponse](t, rec)
	if got.Error != msg {
		t.Errorf("error = %q, want %q", got.Error, msg)
	}
}

func TestBanner(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := do(t, h, "GET", "/", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != Banner {
		t.Errorf("body = %q, want %q", rec.Body.String(), Banner)
	}
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestHandler(t, nil), "GET", "/healthz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("healthy store: status = %d, want 200", rec.Code)
	}

	rec = do(t, newTestHandler(t, &failingStore{err: errors.New("down")}), "GET", "/healthz", nil, nil)
	assertError(t, rec, http.StatusServiceUnavailable, "store unavailable")
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestHandler(t, nil), "GET", "/metrics", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "keygate_requests_in_flight") {
		t.Error("metrics output missing keygate_requests_in_flight")
	}

	rec = do(t, newTestHandler(t, nil, WithMetrics(false)), "GET", "/metrics", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("disabled metrics: status = %d, want 404", rec.Code)
	}
}

func TestToken(t *testing.T) {
	h := newTestHandler(t, nil)

	tests := []struct {
		name   string
		body   any
		header http.Header
		status int
		errMsg string
	}{
		{
			name:   "body credentials",
			body:   api.TokenRequest{ClientID: testClientID, ClientSecret: testClientSecret},
			status: http.StatusOK,
		},
		{
			name:   "header credentials",
			header: http.Header{"Clientid": {testClientID}, "Clientsecret": {testClientSecret}},
			status: http.StatusOK,
		},
		{
			name:   "body id with header secret",
			body:   api.TokenRequest{ClientID: testClientID},
			header: http.Header{"Clientsecret": {testClientSecret}},
			status: http.StatusOK,
		},
		{
			name:   "missing secret",
			body:   api.TokenRequest{ClientID: testClientID},
			status: http.StatusBadRequest,
			errMsg: api.MsgClientPairRequired,
		},
		{
			name:   "no credentials",
			status: http.StatusBadRequest,
			errMsg: api.MsgClientPairRequired,
		},
		{
			name:   "wrong secret",
			body:   api.TokenRequest{ClientID: testClientID, ClientSecret: "nope"},
			status: http.StatusUnauthorized,
			errMsg: api.MsgInvalidClient,
		},
		{
			name:   "invalid json",
			body:   "{not json",
			status: http.StatusBadRequest,
			errMsg: api.MsgInvalidJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, "POST", "/token", tt.body, tt.header)
			if tt.status != http.StatusOK {
				assertError(t, rec, tt.status, tt.errMsg)
				return
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200 (body %q)", rec.Code, rec.Body.String())
			}
			got := decode[api.TokenResponse](t, rec)
			if got.AccessToken == "" {
				t.Error("access_token is empty")
			}
			if got.TokenType != "Bearer" {
				t.Errorf("token_type = %q, want Bearer", got.TokenType)
			}
			if got.ExpiresIn != 3600 {
				t.Errorf("expires_in = %d, want 3600", got.ExpiresIn)
			}
		})
	}
}

func TestToken_NonJSONBodyUsesHeaders(t *testing.T) {
	h := newTestHandler(t, nil)

	tests := []struct {
		name   string
		header http.Header
		status int
	}{
		{
			name:   "header credentials",
			header: http.Header{"Clientid": {testClientID}, "Clientsecret": {testClientSecret}},
			status: http.StatusOK,
		},
		{
			name:   "no header credentials",
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/token", strings.NewReader("clientId=x"))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			for k, vs := range tt.header {
				req.Header[k] = vs
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %q)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status == http.StatusBadRequest {
				if got := decode[api.ErrorResponse](t, rec); got.Error != api.MsgClientPairRequired {
					t.Errorf("error = %q, want %q", got.Error, api.MsgClientPairRequired)
				}
				return
			}
			if got := decode[api.TokenResponse](t, rec); got.AccessToken == "" {
				t.Error("access_token is empty")
			}
		})
	}
}

func TestCreate_UnsupportedContentType(t *testing.T) {
	h := newTestHandler(t, nil)

	req := httptest.NewRequest("POST", "/items", strings.NewReader("name=widget"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Api-Key", testAPIKey)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", rec.Code)
	}
}

func TestCustomerData_RequiresAuth(t *testing.T) {
	rec := do(t, newTestHandler(t, nil), "GET", "/customer-data", nil, nil)
	assertError(t, rec, http.StatusUnauthorized, "Unauthorized")
}

func TestCustomerData_AccessedVia(t *testing.T) {
	h := newTestHandler(t, nil)

	tokenRec := do(t, h, "POST", "/token", api.TokenRequest{ClientID: testClientID, ClientSecret: testClientSecret}, nil)
	token := decode[api.TokenResponse](t, tokenRec).AccessToken

	tests := []struct {
		name      string
		header    http.Header
		want      string
		wantToken bool
	}{
		{"api key", apiKey(), "api-key", false},
		{"basic", basic(testUser, testPass), "basic-auth", false},
		{"bearer", http.Header{"Authorization": {"Bearer " + token}}, "oauth2-bearer", false},
		{"client credentials", http.Header{"Clientid": {testClientID}, "Clientsecret": {testClientSecret}}, "oauth2-client", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, "GET", "/customer-data", nil, tt.header)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200 (body %q)", rec.Code, rec.Body.String())
			}
			got := decode[api.CustomerDataResponse](t, rec)
			if got.Status != "success" {
				t.Errorf("status = %q, want success", got.Status)
			}
			if got.AccessedVia != tt.want {
				t.Errorf("accessedVia = %q, want %q", got.AccessedVia, tt.want)
			}
			if (got.AccessToken != "") != tt.wantToken {
				t.Errorf("accessToken present = %v, want %v", got.AccessToken != "", tt.wantToken)
			}
		})
	}
}

func TestCustomerData_CreateAndFind(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := do(t, h, "POST", "/customer-data",
		map[string]string{"id": "cus_client_chosen", "customerId": "C-100", "name": "Ada", "accountStatus": "active"},
		apiKey())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, want 201 (body %q)", rec.Code, rec.Body.String())
	}
	created := decode[api.Customer](t, rec)
	if !api.ValidateCustomerID(created.ID) {
		t.Errorf("id = %q, want a generated customer id", created.ID)
	}
	if created.CreatedAt.IsZero() {
		t.Error("createdAt not set")
	}

	rec = do(t, h, "GET", "/customer-data?customerId=C-100", nil, apiKey())
	if rec.Code != http.StatusOK {
		t.Fatalf("find: status = %d, want 200", rec.Code)
	}
	var env struct {
		Data api.Customer `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if env.Data.Name != "Ada" || env.Data.ID != created.ID {
		t.Errorf("found %+v, want the created customer", env.Data)
	}

	rec = do(t, h, "GET", "/customer-data?customerId=C-404", nil, apiKey())
	assertError(t, rec, http.StatusNotFound, api.MsgCustomerNotFound)

	rec = do(t, h, "GET", "/customer-data", nil, apiKey())
	var list struct {
		Data []api.Customer `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(list.Data) != 1 {
		t.Errorf("listed %d customers, want 1", len(list.Data))
	}
}

func TestCreate_Validation(t *testing.T) {
	h := newTestHandler(t, nil)

	tests := []struct {
		path string
		body any
		msg  string
	}{
		{"/customer-data", map[string]string{"name": "no id"}, "customerId is required"},
		{"/log-call", map[string]string{"ivrPath": "1>2"}, "caller is required"},
		{"/items", map[string]string{"name": "  "}, "name is required"},
		{"/items", "[1,2", api.MsgInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(t, h, "POST", tt.path, tt.body, apiKey())
			assertError(t, rec, http.StatusBadRequest, tt.msg)
		})
	}
}

func TestCallLogs(t *testing.T) {
	h := newTestHandler(t, nil)

	for _, caller := range []string{"+4911", "+4922"} {
		rec := do(t, h, "POST", "/log-call", map[string]any{
			"caller":    caller,
			"ivrPath":   "main>billing",
			"callStart": "2026-01-02T03:04:05Z",
		}, basic(testUser, testPass))
		if rec.Code != http.StatusCreated {
			t.Fatalf("create: status = %d, want 201 (body %q)", rec.Code, rec.Body.String())
		}
	}

	rec := do(t, h, "GET", "/log-call", nil, basic(testUser, testPass))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d, want 200", rec.Code)
	}
	logs := decode[[]api.CallLog](t, rec)
	if len(logs) != 2 {
		t.Fatalf("listed %d call logs, want 2", len(logs))
	}
	if logs[0].Caller != "+4911" || logs[1].Caller != "+4922" {
		t.Errorf("order = %q, %q; want insertion order", logs[0].Caller, logs[1].Caller)
	}
	if logs[0].CallStart == nil || logs[0].CallStart.Year() != 2026 {
		t.Errorf("callStart = %v, want 2026-01-02", logs[0].CallStart)
	}
}

func TestItems(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := do(t, h, "GET", "/items", nil, apiKey())
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d, want 200", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty list body = %q, want []", rec.Body.String())
	}

	rec = do(t, h, "POST", "/items", map[string]string{"name": "widget"}, apiKey())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, want 201", rec.Code)
	}
	item := decode[api.Item](t, rec)
	if item.Name != "widget" || !api.ValidateItemID(item.ID) {
		t.Errorf("created %+v", item)
	}

	rec = do(t, h, "GET", "/items", nil, apiKey())
	if items := decode[[]api.Item](t, rec); len(items) != 1 {
		t.Errorf("listed %d items, want 1", len(items))
	}
}

func TestBodyTooLarge(t *testing.T) {
	h := newTestHandler(t, nil, WithMaxBodySize(32))

	rec := do(t, h, "POST", "/items", map[string]string{"name": strings.Repeat("x", 64)}, apiKey())
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestStoreFailure_HidesCause(t *testing.T) {
	h := newTestHandler(t, &failingStore{err: errors.New("connection refused to 10.0.0.5")})

	for _, path := range []string{"/customer-data", "/log-call", "/items"} {
		rec := do(t, h, "GET", path, nil, apiKey())
		assertError(t, rec, http.StatusInternalServerError, api.MsgInternalServerError)
	}
}

func TestRequestIDHeader(t *testing.T) {
	rec := do(t, newTestHandler(t, nil), "GET", "/", nil, http.Header{transport.HeaderRequestID: {"req-42"}})
	if got := rec.Header().Get(transport.HeaderRequestID); got != "req-42" {
		t.Errorf("X-Request-ID = %q, want req-42", got)
	}
}
