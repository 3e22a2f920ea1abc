package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"staas-order/adapters/history"
	"staas-order/core/catalog"
	"staas-order/core/order"
	"staas-order/internal/errors"
)

type stubClient struct {
	packages    []catalog.Package
	packagesErr error
	placeErr    error

	placeCalls  int
	verifyCalls int
}

func (c *stubClient) PackagesByType(ctx context.Context, typeKey string) ([]catalog.Package, error) {
	return c.packages, c.packagesErr
}

func (c *stubClient) ActiveVMwareCustomer(ctx context.Context) (bool, error) {
	return false, nil
}

func (c *stubClient) FileBlockBetaAccess(ctx context.Context) (bool, error) {
	return false, nil
}

func (c *stubClient) PlaceOrder(ctx context.Context, container order.Container) (order.Receipt, error) {
	c.placeCalls++
	if c.placeErr != nil {
		return order.Receipt{}, c.placeErr
	}
	return order.Receipt{OrderID: 11493593, OrderDate: "2016-08-23T10:15:00-06:00"}, nil
}

func (c *stubClient) VerifyOrder(ctx context.Context, container order.Container) error {
	c.verifyCalls++
	return nil
}

func apiPackages() []catalog.Package {
	return []catalog.Package{{
		ID: 759,
		ItemPrices: []catalog.PriceEntry{
			{ID: 10, Categories: []catalog.Category{{CategoryCode: "storage_as_a_service"}}},
			{ID: 20, Categories: []catalog.Category{{CategoryCode: "storage_file"}}},
			{ID: 31, Categories: []catalog.Category{{CategoryCode: "storage_tier_level"}},
				RecurringFee:       decimal.RequireFromString("13.72"),
				HourlyRecurringFee: decimal.RequireFromString("0.021"),
				Item: catalog.Item{Attributes: []catalog.Attribute{
					{AttributeTypeKeyName: "STORAGE_TIER_LEVEL", Value: "200"},
				}}},
			{ID: 51, Categories: []catalog.Category{{CategoryCode: "performance_storage_space"}},
				CapacityRestrictionMinimum: "100", CapacityRestrictionMaximum: "300",
				CapacityRestrictionType:    "STORAGE_TIER_LEVEL",
				RecurringFee:               decimal.RequireFromString("55.20"),
				HourlyRecurringFee:         decimal.RequireFromString("0.084"),
				Item:                       catalog.Item{CapacityMinimum: "100", CapacityMaximum: "499"}},
		},
	}}
}

func newTestServer(client *stubClient, store history.Store) *Server {
	session := order.NewSession(client, order.Options{})
	return NewServerWithHistory("test", session, store)
}

func orderBody() map[string]interface{} {
	return map[string]interface{}{
		"name":              "db-primary",
		"size":              100,
		"storage_type":      "file",
		"performance_type":  "tier",
		"performance_value": 200,
		"region":            "DALLAS09",
	}
}

func doRequest(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
}

func assertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, status int, code string) string {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, status, w.Body.String())
	}
	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	decodeBody(t, w, &resp)
	if resp.Error.Code != code {
		t.Errorf("error code = %q, want %q", resp.Error.Code, code)
	}
	return resp.Error.Message
}

// TestCreateOrder tests order placement with history recording
func TestCreateOrder(t *testing.T) {
	client := &stubClient{packages: apiPackages()}
	store := history.NewMemoryStore()
	server := newTestServer(client, store)

	w := doRequest(t, server, http.MethodPost, "/orders", orderBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp OrderResponse
	decodeBody(t, w, &resp)
	if resp.OrderID != 11493593 {
		t.Errorf("order_id = %d, want 11493593", resp.OrderID)
	}
	if resp.Container.ComplexType != order.ContainerComplexType {
		t.Errorf("container complexType = %q", resp.Container.ComplexType)
	}
	wantPrices := []int{10, 20, 51, 31}
	if len(resp.Container.Prices) != len(wantPrices) {
		t.Fatalf("expected %d prices, got %d", len(wantPrices), len(resp.Container.Prices))
	}
	for i, id := range wantPrices {
		if resp.Container.Prices[i].ID != id {
			t.Errorf("prices[%d] = %d, want %d", i, resp.Container.Prices[i].ID, id)
		}
	}
	if got := resp.Estimate.Monthly.String(); got != "68.92" {
		t.Errorf("monthly estimate = %s, want 68.92", got)
	}
	if resp.HistoryID == "" {
		t.Fatal("expected a history id on the response")
	}

	// The record must be retrievable through the history endpoint
	w = doRequest(t, server, http.MethodGet, "/orders/"+resp.HistoryID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get record status = %d (body %s)", w.Code, w.Body.String())
	}
	var record history.Record
	decodeBody(t, w, &record)
	if record.OrderID != 11493593 {
		t.Errorf("record order_id = %d, want 11493593", record.OrderID)
	}
	if record.Name != "db-primary" {
		t.Errorf("record name = %q, want db-primary", record.Name)
	}
}

// TestCreateOrderWithoutHistory tests that ordering works with history disabled
func TestCreateOrderWithoutHistory(t *testing.T) {
	client := &stubClient{packages: apiPackages()}
	session := order.NewSession(client, order.Options{})
	server := NewServer("test", session)

	w := doRequest(t, server, http.MethodPost, "/orders", orderBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d (body %s)", w.Code, w.Body.String())
	}
	var resp OrderResponse
	decodeBody(t, w, &resp)
	if resp.HistoryID != "" {
		t.Errorf("history_id = %q, want empty", resp.HistoryID)
	}
}

// TestPreviewOrder tests that preview prices locally without submitting
func TestPreviewOrder(t *testing.T) {
	client := &stubClient{packages: apiPackages()}
	server := newTestServer(client, history.NewMemoryStore())

	w := doRequest(t, server, http.MethodPost, "/orders/preview", orderBody())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", w.Code, w.Body.String())
	}
	if client.placeCalls != 0 {
		t.Errorf("placeCalls = %d, want 0", client.placeCalls)
	}

	var resp PreviewResponse
	decodeBody(t, w, &resp)
	if got := resp.Estimate.Monthly.String(); got != "68.92" {
		t.Errorf("monthly estimate = %s, want 68.92", got)
	}
	if got := resp.Estimate.Hourly.String(); got != "0.105" {
		t.Errorf("hourly estimate = %s, want 0.105", got)
	}
	if client.verifyCalls != 0 {
		t.Errorf("verifyCalls = %d, want 0", client.verifyCalls)
	}

	w = doRequest(t, server, http.MethodPost, "/orders/preview?verify=true", orderBody())
	if w.Code != http.StatusOK {
		t.Fatalf("verify status = %d (body %s)", w.Code, w.Body.String())
	}
	if client.verifyCalls != 1 {
		t.Errorf("verifyCalls = %d, want 1", client.verifyCalls)
	}
	if client.placeCalls != 0 {
		t.Errorf("placeCalls = %d, want 0", client.placeCalls)
	}
}

// TestRequestValidation tests request shape checks
func TestRequestValidation(t *testing.T) {
	mutations := []struct {
		name     string
		mutate   func(body map[string]interface{})
		contains string
	}{
		{"missing size", func(b map[string]interface{}) { delete(b, "size") }, "size is required"},
		{"negative size", func(b map[string]interface{}) { b["size"] = -5 }, "size must be greater than 0"},
		{"bad storage type", func(b map[string]interface{}) { b["storage_type"] = "tape" }, "storage_type must be one of: file, block"},
		{"missing performance type", func(b map[string]interface{}) { delete(b, "performance_type") }, "performance_type is required"},
		{"missing region", func(b map[string]interface{}) { delete(b, "region") }, "region is required"},
	}

	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubClient{packages: apiPackages()}
			server := newTestServer(client, nil)

			body := orderBody()
			tt.mutate(body)
			w := doRequest(t, server, http.MethodPost, "/orders", body)
			message := assertErrorResponse(t, w, http.StatusBadRequest, string(errors.TypeInput))
			if !strings.Contains(message, tt.contains) {
				t.Errorf("message %q does not contain %q", message, tt.contains)
			}
			if client.placeCalls != 0 {
				t.Errorf("placeCalls = %d, want 0", client.placeCalls)
			}
		})
	}
}

// TestMalformedBody tests that invalid JSON is rejected as input
func TestMalformedBody(t *testing.T) {
	server := newTestServer(&stubClient{packages: apiPackages()}, nil)

	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	assertErrorResponse(t, w, http.StatusBadRequest, string(errors.TypeInput))
}

// TestInvalidPerformanceType tests that unknown performance types pass the
// shape check and come back classified by the selection pipeline
func TestInvalidPerformanceType(t *testing.T) {
	server := newTestServer(&stubClient{packages: apiPackages()}, nil)

	body := orderBody()
	body["performance_type"] = "bogus"
	w := doRequest(t, server, http.MethodPost, "/orders", body)
	assertErrorResponse(t, w, http.StatusBadRequest, string(errors.TypeInvalidPerformanceType))
}

// TestNoMatchingPrice tests the unprocessable status for selection misses
func TestNoMatchingPrice(t *testing.T) {
	server := newTestServer(&stubClient{packages: apiPackages()}, nil)

	body := orderBody()
	body["performance_value"] = 999
	w := doRequest(t, server, http.MethodPost, "/orders", body)
	message := assertErrorResponse(t, w, http.StatusUnprocessableEntity, string(errors.TypeNoMatchingPrice))
	if !strings.Contains(message, "performance_storage_space") {
		t.Errorf("message %q does not name the missing category", message)
	}
}

// TestUpstreamFailures tests gateway statuses for catalog and ordering failures
func TestUpstreamFailures(t *testing.T) {
	t.Run("empty catalog", func(t *testing.T) {
		server := newTestServer(&stubClient{packages: []catalog.Package{}}, nil)
		w := doRequest(t, server, http.MethodPost, "/orders", orderBody())
		assertErrorResponse(t, w, http.StatusBadGateway, string(errors.TypeEmptyCatalog))
	})

	t.Run("place order failure", func(t *testing.T) {
		client := &stubClient{
			packages: apiPackages(),
			placeErr: errors.Transport("Product_Order/placeOrder", fmt.Errorf("connection reset")),
		}
		server := newTestServer(client, nil)
		w := doRequest(t, server, http.MethodPost, "/orders", orderBody())
		assertErrorResponse(t, w, http.StatusBadGateway, string(errors.TypeTransport))
	})
}

// TestListPrices tests the catalog listing endpoint
func TestListPrices(t *testing.T) {
	server := newTestServer(&stubClient{packages: apiPackages()}, nil)

	var resp struct {
		PackageID int                  `json:"package_id"`
		Category  string               `json:"category"`
		Count     int                  `json:"count"`
		Prices    []catalog.PriceEntry `json:"prices"`
	}

	w := doRequest(t, server, http.MethodGet, "/catalog/prices", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", w.Code, w.Body.String())
	}
	decodeBody(t, w, &resp)
	if resp.PackageID != 759 {
		t.Errorf("package_id = %d, want 759", resp.PackageID)
	}
	if resp.Count != 4 {
		t.Errorf("count = %d, want 4", resp.Count)
	}

	w = doRequest(t, server, http.MethodGet, "/catalog/prices?category=storage_tier_level", nil)
	decodeBody(t, w, &resp)
	if resp.Count != 1 || len(resp.Prices) != 1 {
		t.Fatalf("count = %d, prices = %d, want 1 each", resp.Count, len(resp.Prices))
	}
	if resp.Prices[0].ID != 31 {
		t.Errorf("prices[0].id = %d, want 31", resp.Prices[0].ID)
	}

	w = doRequest(t, server, http.MethodGet, "/catalog/prices?category=no_such_category", nil)
	decodeBody(t, w, &resp)
	if resp.Count != 0 {
		t.Errorf("count = %d, want 0", resp.Count)
	}
}

// TestHistoryEndpoints tests listing, filtering and deleting records
func TestHistoryEndpoints(t *testing.T) {
	client := &stubClient{packages: apiPackages()}
	store := history.NewMemoryStore()
	server := newTestServer(client, store)

	dallas := orderBody()
	sanjose := orderBody()
	sanjose["name"] = "db-replica"
	sanjose["region"] = "SANJOSE01"
	for _, body := range []map[string]interface{}{dallas, sanjose} {
		if w := doRequest(t, server, http.MethodPost, "/orders", body); w.Code != http.StatusCreated {
			t.Fatalf("seeding order failed: %d (body %s)", w.Code, w.Body.String())
		}
	}

	var list struct {
		Count  int               `json:"count"`
		Orders []*history.Record `json:"orders"`
	}

	w := doRequest(t, server, http.MethodGet, "/orders", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d (body %s)", w.Code, w.Body.String())
	}
	decodeBody(t, w, &list)
	if list.Count != 2 {
		t.Fatalf("count = %d, want 2", list.Count)
	}

	w = doRequest(t, server, http.MethodGet, "/orders?region=SANJOSE01", nil)
	decodeBody(t, w, &list)
	if list.Count != 1 || list.Orders[0].Region != "SANJOSE01" {
		t.Fatalf("region filter returned %d records", list.Count)
	}

	w = doRequest(t, server, http.MethodGet, "/orders?limit=1", nil)
	decodeBody(t, w, &list)
	if list.Count != 1 {
		t.Fatalf("limit filter returned %d records", list.Count)
	}

	w = doRequest(t, server, http.MethodGet, "/orders?limit=nope", nil)
	assertErrorResponse(t, w, http.StatusBadRequest, string(errors.TypeInput))

	id := list.Orders[0].ID
	w = doRequest(t, server, http.MethodDelete, "/orders/"+id, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d (body %s)", w.Code, w.Body.String())
	}

	w = doRequest(t, server, http.MethodGet, "/orders/"+id, nil)
	assertErrorResponse(t, w, http.StatusNotFound, string(errors.TypeNotFound))
}

// TestHistoryDisabled tests the history endpoints without a store
func TestHistoryDisabled(t *testing.T) {
	server := newTestServer(&stubClient{packages: apiPackages()}, nil)

	for _, path := range []string{"/orders", "/orders/some-id"} {
		w := doRequest(t, server, http.MethodGet, path, nil)
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("GET %s status = %d, want %d", path, w.Code, http.StatusServiceUnavailable)
		}
		var resp struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		decodeBody(t, w, &resp)
		if resp.Error.Code != "HISTORY_DISABLED" {
			t.Errorf("GET %s error code = %q", path, resp.Error.Code)
		}
	}
}

// TestHealthAndVersion tests the supporting endpoints
func TestHealthAndVersion(t *testing.T) {
	server := newTestServer(&stubClient{packages: apiPackages()}, nil)

	w := doRequest(t, server, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d", w.Code)
	}
	var health map[string]string
	decodeBody(t, w, &health)
	if health["status"] != "healthy" {
		t.Errorf("status = %q, want healthy", health["status"])
	}
	if health["version"] != "test" {
		t.Errorf("version = %q, want test", health["version"])
	}

	w = doRequest(t, server, http.MethodGet, "/version", nil)
	var version map[string]string
	decodeBody(t, w, &version)
	if version["version"] != "test" {
		t.Errorf("version = %q, want test", version["version"])
	}
}
