// Package slapi is the SoftLayer-style REST client the ordering session
// runs against. Calls follow the {endpoint}/{Service}/{method}.json
// convention with HTTP basic auth.
package slapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"staas-order/core/catalog"
	"staas-order/core/order"
	"staas-order/internal/errors"
	"staas-order/internal/logging"
)

// DefaultEndpoint is the public REST endpoint
const DefaultEndpoint = "https://api.softlayer.com/rest/v3.1"

const defaultTimeout = 2 * time.Minute

// Services addressed by the client
const (
	servicePackage = "SoftLayer_Product_Package"
	serviceAccount = "SoftLayer_Account"
	serviceOrder   = "SoftLayer_Product_Order"
)

// packageMask requests exactly the price fields selection reads. Anything
// outside the mask comes back zero-valued.
const packageMask = "mask[id,itemPrices[id,locationGroupId,eligibilityStrategy," +
	"recurringFee,hourlyRecurringFee,categories[categoryCode]," +
	"capacityRestrictionMinimum,capacityRestrictionMaximum,capacityRestrictionType," +
	"item[description,capacity,capacityMinimum,capacityMaximum," +
	"attributes[attributeTypeKeyName,value]]]]"

// Config configures the client
type Config struct {
	// Endpoint is the REST base URL
	Endpoint string

	// Username and APIKey authenticate every request
	Username string
	APIKey   string

	// Timeout bounds each HTTP call
	Timeout time.Duration
}

// DefaultConfig returns the public endpoint with no credentials
func DefaultConfig() *Config {
	return &Config{
		Endpoint: DefaultEndpoint,
		Timeout:  defaultTimeout,
	}
}

// Client is the production implementation of the ordering session's
// remote surface
type Client struct {
	httpClient *http.Client
	endpoint   string
	username   string
	apiKey     string
	log        *zap.Logger
}

var _ order.Client = (*Client)(nil)

// NewClient creates a client. A nil config falls back to DefaultConfig.
func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		username:   cfg.Username,
		apiKey:     cfg.APIKey,
		log:        logging.Named("slapi"),
	}
}

// PackagesByType returns the product packages whose type key matches.
// The object filter runs server-side; an unknown type key yields an
// empty slice, not an error.
func (c *Client) PackagesByType(ctx context.Context, typeKey string) ([]catalog.Package, error) {
	filter := map[string]interface{}{
		"type": map[string]interface{}{
			"keyName": map[string]interface{}{"operation": typeKey},
		},
	}
	rawFilter, err := json.Marshal(filter)
	if err != nil {
		return nil, errors.Internal("encoding package filter", err)
	}

	query := url.Values{}
	query.Set("objectMask", packageMask)
	query.Set("objectFilter", string(rawFilter))

	var packages []catalog.Package
	if err := c.get(ctx, servicePackage+"/getAllObjects.json", query, &packages); err != nil {
		return nil, err
	}
	return packages, nil
}

// ActiveVMwareCustomer reports the account's VMware entitlement flag
func (c *Client) ActiveVMwareCustomer(ctx context.Context) (bool, error) {
	var flag bool
	err := c.get(ctx, serviceAccount+"/getActiveVmwareCustomerFlag.json", nil, &flag)
	return flag, err
}

// FileBlockBetaAccess reports the account's file/block beta flag
func (c *Client) FileBlockBetaAccess(ctx context.Context) (bool, error) {
	var flag bool
	err := c.get(ctx, serviceAccount+"/getFileBlockBetaAccessFlag.json", nil, &flag)
	return flag, err
}

// PlaceOrder submits the container and returns the order receipt
func (c *Client) PlaceOrder(ctx context.Context, container order.Container) (order.Receipt, error) {
	var receipt order.Receipt
	err := c.post(ctx, serviceOrder+"/placeOrder.json", container, &receipt)
	return receipt, err
}

// VerifyOrder runs the order service's dry-run check. The priced
// container the service returns is discarded; callers only need the
// pass/fail.
func (c *Client) VerifyOrder(ctx context.Context, container order.Container) error {
	return c.post(ctx, serviceOrder+"/verifyOrder.json", container, nil)
}

// parameters is the body envelope POST methods expect
type parameters struct {
	Parameters []interface{} `json:"parameters"`
}

// apiError is the body non-2xx responses carry
type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.call(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, param interface{}, out interface{}) error {
	body := &parameters{Parameters: []interface{}{param}}
	return c.call(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	operation := strings.TrimSuffix(path, ".json")

	endpoint := c.endpoint + "/" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Internal("encoding request body", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return errors.Transport(operation, err)
	}
	req.SetBasicAuth(c.username, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug("api call",
		zap.String("method", method),
		zap.String("operation", operation))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Transport(operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorFromResponse(operation, resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Parsing(fmt.Sprintf("decoding %s response", operation), err)
	}
	return nil
}

func (c *Client) errorFromResponse(operation string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body apiError
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return errors.Transport(operation, fmt.Errorf("%s", body.Error)).
			WithContext("status", resp.StatusCode).
			WithContext("api_code", body.Code)
	}
	return errors.Transport(operation, fmt.Errorf("status %d", resp.StatusCode)).
		WithContext("status", resp.StatusCode)
}
