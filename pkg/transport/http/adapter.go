package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/keygate/pkg/api"
	"github.com/rhuss/keygate/pkg/auth"
	"github.com/rhuss/keygate/pkg/credential"
	"github.com/rhuss/keygate/pkg/observability"
	"github.com/rhuss/keygate/pkg/storage"
	"github.com/rhuss/keygate/pkg/transport"
)

// Banner is the plain-text body served on GET /.
const Banner = "keygate API is live and working\n"

// Adapter serves the keygate API over HTTP.
// It routes requests to the appropriate handler and serializes responses.
// Authentication is applied outside the adapter (see Server); handlers
// read the resolved identity from the request context.
type Adapter struct {
	store    transport.RecordStore
	verifier *credential.Verifier
	mux      *http.ServeMux
	config   Config
	logger   *slog.Logger
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize    int64
	MetricsEnabled bool
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize:    1 << 20, // 1 MB
		MetricsEnabled: true,
	}
}

// NewAdapter creates an HTTP adapter over the given store. The verifier is
// used by POST /token to check client credentials and mint tokens.
func NewAdapter(store transport.RecordStore, verifier *credential.Verifier, cfg Config, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}

	a := &Adapter{
		store:    store,
		verifier: verifier,
		mux:      http.NewServeMux(),
		config:   cfg,
		logger:   logger,
	}

	a.mux.HandleFunc("GET /{$}", a.handleBanner)
	a.mux.HandleFunc("GET /healthz", a.handleHealth)
	if cfg.MetricsEnabled {
		a.mux.Handle("GET /metrics", promhttp.Handler())
	}
	a.mux.HandleFunc("POST /token", a.handleToken)
	a.mux.HandleFunc("GET /customer-data", a.handleGetCustomerData)
	a.mux.HandleFunc("POST /customer-data", a.handleCreateCustomer)
	a.mux.HandleFunc("GET /log-call", a.handleListCallLogs)
	a.mux.HandleFunc("POST /log-call", a.handleCreateCallLog)
	a.mux.HandleFunc("GET /items", a.handleListItems)
	a.mux.HandleFunc("POST /items", a.handleCreateItem)

	return a
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest.
func (a *Adapter) Handler() http.Handler {
	return a.mux
}

// handleBanner handles GET /.
func (a *Adapter) handleBanner(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(Banner))
}

// handleHealth handles GET /healthz.
func (a *Adapter) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.store.HealthCheck(r.Context()); err != nil {
		a.logger.Warn("health check failed", "error", err)
		transport.WriteError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

// handleToken handles POST /token. Credentials come from the JSON body,
// falling back per field to the clientid and clientsecret headers. A
// non-JSON body is ignored.
func (a *Adapter) handleToken(w http.ResponseWriter, r *http.Request) {
	var req api.TokenRequest
	if !a.decodeBody(w, r, &req, true) {
		return
	}

	if req.ClientID == "" {
		req.ClientID = r.Header.Get(auth.HeaderClientID)
	}
	if req.ClientSecret == "" {
		req.ClientSecret = r.Header.Get(auth.HeaderClientSecret)
	}

	if req.ClientID == "" || req.ClientSecret == "" {
		transport.WriteError(w, http.StatusBadRequest, api.MsgClientPairRequired)
		return
	}

	if !a.verifier.ClientPair(req.ClientID, req.ClientSecret) {
		a.logger.Warn("token request rejected",
			"request_id", transport.RequestIDFromContext(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
		transport.WriteError(w, http.StatusUnauthorized, api.MsgInvalidClient)
		return
	}

	token, err := a.verifier.Issue(req.ClientID)
	if err != nil {
		a.writeStoreError(w, r, fmt.Errorf("issuing token: %w", err))
		return
	}
	observability.TokensIssuedTotal.WithLabelValues("token").Inc()

	transport.WriteJSON(w, http.StatusOK, api.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(a.verifier.TokenTTL().Seconds()),
	})
}

// handleGetCustomerData handles GET /customer-data[?customerId=].
func (a *Adapter) handleGetCustomerData(w http.ResponseWriter, r *http.Request) {
	resp := api.CustomerDataResponse{Status: "success"}
	if id := auth.IdentityFromContext(r.Context()); id != nil {
		resp.AccessedVia = string(id.Scheme)
		resp.AccessToken = id.IssuedToken
	}

	if customerID := r.URL.Query().Get("customerId"); customerID != "" {
		customer, err := a.store.FindCustomer(r.Context(), customerID)
		if errors.Is(err, storage.ErrNotFound) {
			transport.WriteError(w, http.StatusNotFound, api.MsgCustomerNotFound)
			return
		}
		if err != nil {
			a.writeStoreError(w, r, err)
			return
		}
		resp.Data = customer
		transport.WriteJSON(w, http.StatusOK, resp)
		return
	}

	customers, err := a.store.ListCustomers(r.Context())
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	resp.Data = customers
	transport.WriteJSON(w, http.StatusOK, resp)
}

// handleCreateCustomer handles POST /customer-data.
func (a *Adapter) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var c api.Customer
	if !a.decodeBody(w, r, &c, false) {
		return
	}
	if verr := api.ValidateCustomer(&c); verr != nil {
		transport.WriteError(w, http.StatusBadRequest, verr.Error())
		return
	}

	c.ID = ""
	saved, err := a.store.InsertCustomer(r.Context(), c)
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusCreated, saved)
}

// handleListCallLogs handles GET /log-call.
func (a *Adapter) handleListCallLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := a.store.ListCallLogs(r.Context())
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, logs)
}

// handleCreateCallLog handles POST /log-call.
func (a *Adapter) handleCreateCallLog(w http.ResponseWriter, r *http.Request) {
	var l api.CallLog
	if !a.decodeBody(w, r, &l, false) {
		return
	}
	if verr := api.ValidateCallLog(&l); verr != nil {
		transport.WriteError(w, http.StatusBadRequest, verr.Error())
		return
	}

	l.ID = ""
	saved, err := a.store.InsertCallLog(r.Context(), l)
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusCreated, saved)
}

// handleListItems handles GET /items.
func (a *Adapter) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := a.store.ListItems(r.Context())
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, items)
}

// handleCreateItem handles POST /items.
func (a *Adapter) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var item api.Item
	if !a.decodeBody(w, r, &item, false) {
		return
	}
	if verr := api.ValidateItem(&item); verr != nil {
		transport.WriteError(w, http.StatusBadRequest, verr.Error())
		return
	}

	// Only the name is accepted from clients.
	saved, err := a.store.InsertItem(r.Context(), api.Item{Name: item.Name})
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusCreated, saved)
}

// decodeBody decodes a JSON request body into v. It writes the error
// response and returns false when the body cannot be used. With optional,
// a missing or non-JSON body leaves v untouched.
func (a *Adapter) decodeBody(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			if optional {
				return true
			}
			transport.WriteError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return false
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) && optional {
			return true
		}
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize))
			return false
		}
		transport.WriteError(w, http.StatusBadRequest, api.MsgInvalidJSON)
		return false
	}
	return true
}

// writeStoreError maps err to a status and writes it. Server errors are
// logged with their cause; the client sees a generic message.
func (a *Adapter) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := transport.StatusFromError(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed",
			"request_id", transport.RequestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	transport.WriteError(w, status, msg)
}
