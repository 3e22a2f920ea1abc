// Package api is the HTTP layer over the ordering session. It only
// ingests requests, drives the session and serializes results; all
// selection logic lives in the core packages.
package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"staas-order/adapters/history"
	"staas-order/core/catalog"
	"staas-order/core/order"
	"staas-order/internal/errors"
	"staas-order/internal/logging"
)

// Server is the API server
type Server struct {
	mux     *http.ServeMux
	version string
	session *order.Session
	store   history.Store
	log     *zap.Logger

	// mu serializes session access; the session is not safe for
	// concurrent use.
	mu sync.Mutex
}

// NewServer creates a server without order history
func NewServer(version string, session *order.Session) *Server {
	return NewServerWithHistory(version, session, nil)
}

// NewServerWithHistory creates a server that records placed orders
func NewServerWithHistory(version string, session *order.Session, store history.Store) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		version: version,
		session: session,
		store:   store,
		log:     logging.Named("api"),
	}
	s.registerRoutes()
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Core endpoints
	s.mux.HandleFunc("POST /orders", s.handleCreateOrder)
	s.mux.HandleFunc("POST /orders/preview", s.handlePreviewOrder)
	s.mux.HandleFunc("GET /catalog/prices", s.handleListPrices)

	// History endpoints
	s.mux.HandleFunc("GET /orders", s.handleListOrders)
	s.mux.HandleFunc("GET /orders/{id}", s.handleGetOrder)
	s.mux.HandleFunc("DELETE /orders/{id}", s.handleDeleteOrder)

	// Supporting endpoints
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)
}

// handleCreateOrder handles POST /orders
func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeOrderRequest(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	result, err := s.session.Order(r.Context(), req.Params())
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := OrderResponse{
		OrderID:   result.Receipt.OrderID,
		OrderDate: result.Receipt.OrderDate,
		Container: result.Container,
		Estimate:  result.Estimate,
	}

	if s.store != nil {
		record := history.NewRecord(req.Name, req.Params(), result)
		if err := s.store.Save(r.Context(), record); err != nil {
			// The order is already placed; recording is best-effort
			s.log.Warn("saving order record", zap.Error(err))
		} else {
			resp.HistoryID = record.ID
		}
	}

	s.writeJSON(w, resp, http.StatusCreated)
}

// handlePreviewOrder handles POST /orders/preview
func (s *Server) handlePreviewOrder(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeOrderRequest(w, r)
	if !ok {
		return
	}

	// Pricing is local by default; verify=true also runs the remote
	// verifyOrder dry-run.
	run := s.session.Preview
	if r.URL.Query().Get("verify") == "true" {
		run = s.session.Verify
	}

	s.mu.Lock()
	preview, err := run(r.Context(), req.Params())
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, PreviewResponse{
		Container: preview.Container,
		Estimate:  preview.Estimate,
	}, http.StatusOK)
}

// handleListPrices handles GET /catalog/prices
func (s *Server) handleListPrices(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	pkg, err := s.session.Package(r.Context())
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}

	prices := pkg.ItemPrices
	category := r.URL.Query().Get("category")
	if category != "" {
		prices = catalog.PricesForCategory(prices, category)
	}
	if r.URL.Query().Get("standard") == "true" {
		prices = catalog.StandardPrices(prices)
	}
	if prices == nil {
		prices = []catalog.PriceEntry{}
	}

	s.writeJSON(w, map[string]interface{}{
		"package_id": pkg.ID,
		"category":   category,
		"count":      len(prices),
		"prices":     prices,
	}, http.StatusOK)
}

// handleListOrders handles GET /orders
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	if !s.requireHistory(w) {
		return
	}

	filter := &history.ListFilter{
		Region:      r.URL.Query().Get("region"),
		StorageType: r.URL.Query().Get("storage_type"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.writeError(w, errors.Input("limit must be a non-negative integer"))
			return
		}
		filter.Limit = limit
	}

	records, err := s.store.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if records == nil {
		records = []*history.Record{}
	}

	s.writeJSON(w, map[string]interface{}{
		"count":  len(records),
		"orders": records,
	}, http.StatusOK)
}

// handleGetOrder handles GET /orders/{id}
func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	if !s.requireHistory(w) {
		return
	}

	record, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, record, http.StatusOK)
}

// handleDeleteOrder handles DELETE /orders/{id}
func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	if !s.requireHistory(w) {
		return
	}

	if err := s.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version": s.version,
		"service": "staas-order",
	}, http.StatusOK)
}

func (s *Server) decodeOrderRequest(w http.ResponseWriter, r *http.Request) (*OrderRequest, bool) {
	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.TypeInput, "decoding order request", err))
		return nil, false
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return &req, true
}

func (s *Server) requireHistory(w http.ResponseWriter) bool {
	if s.store == nil {
		s.writeJSON(w, map[string]interface{}{
			"error": map[string]string{
				"code":    "HISTORY_DISABLED",
				"message": "order history is not enabled",
			},
		}, http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("encoding response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	payload := map[string]interface{}{
		"code":    string(errors.TypeInternal),
		"message": err.Error(),
	}

	var domainErr *errors.Error
	if stderrors.As(err, &domainErr) {
		status = statusFor(domainErr.Type)
		payload["code"] = string(domainErr.Type)
		if len(domainErr.Context) > 0 {
			payload["context"] = domainErr.Context
		}
	}

	s.writeJSON(w, map[string]interface{}{"error": payload}, status)
}

// statusFor maps the error taxonomy to HTTP statuses. Upstream failures
// are gateway errors; selection misses are unprocessable rather than bad
// requests because the request itself was well-formed.
func statusFor(t errors.Type) int {
	switch t {
	case errors.TypeInput, errors.TypeInvalidPerformanceType:
		return http.StatusBadRequest
	case errors.TypeNoMatchingPrice:
		return http.StatusUnprocessableEntity
	case errors.TypeEmptyCatalog, errors.TypeTransport, errors.TypeParsing:
		return http.StatusBadGateway
	case errors.TypeNotFound:
		return http.StatusNotFound
	case errors.TypeConfig:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the server
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
