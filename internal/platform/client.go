package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	searchOrderPath   = "/es/2.0/order/searchOrder/"
	getOrderPath      = "/es/2.0/order/getOrder/"
	confirmOrderPath  = "/es/2.0/order/confirmOrder/"
	inventoryPath     = "/es/2.1/inventories/manage-numbers/%s/variants/%s"
	bulkGetRangePath  = "/es/2.1/inventories/bulk-get/range"
	itemPath          = "/es/2.0/items/manage-numbers/%s"

	// getOrder accepts at most 100 order numbers per call.
	MaxOrdersPerFetch = 100

	searchPageSize = 1000
	datetimeLayout = "2006-01-02T15:04:05Z07:00"
)

// Client talks to the marketplace REST API for a single store.
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      Credentials
	maxRetries int
	retryWait  time.Duration
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithProxy routes requests through an HTTP proxy. Invalid URLs are
// ignored and the client connects directly.
func WithProxy(proxyURL string) Option {
	return func(c *Client) {
		if proxyURL == "" {
			return
		}
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return
		}
		c.httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(parsed)}
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithRetry(maxRetries int, wait time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryWait = wait
	}
}

// New builds a client for one store's credentials.
func New(baseURL string, creds Credentials, opts ...Option) (*Client, error) {
	if !creds.Valid() {
		return nil, ErrCredentialsMissing
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		creds:      creds,
		maxRetries: 3,
		retryWait:  time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// do performs one API call with retries. Network failures, 429 and 5xx
// are retried with doubling waits. 401 is terminal because the store
// credentials themselves are bad.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
	}

	wait := c.retryWait
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			wait *= 2
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", c.creds.AuthHeader())
		if payload != nil {
			req.Header.Set("Content-Type", "application/json; charset=utf-8")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("request %s %s: %w", method, path, err)
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("read response body: %w", readErr)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return ErrCredentialExpired
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if out != nil && len(respBody) > 0 {
				if err := json.Unmarshal(respBody, out); err != nil {
					return fmt.Errorf("decode response: %w", err)
				}
			}
			return nil
		default:
			apiErr := &APIError{Status: resp.StatusCode, Body: string(respBody)}
			if !apiErr.Transient() {
				return apiErr
			}
			lastErr = apiErr
		}
	}

	return fmt.Errorf("exhausted %d retries: %w", c.maxRetries, lastErr)
}

// SearchOrders returns the order numbers whose order datetime falls in
// [start, end], optionally filtered to the given progress statuses.
// Pagination is followed to exhaustion.
func (c *Client) SearchOrders(ctx context.Context, start, end time.Time, progresses []int) ([]string, error) {
	var all []string
	for page := 1; ; page++ {
		req := searchOrderRequest{
			OrderProgressList: progresses,
			DateType:          1,
			StartDatetime:     start.Format(datetimeLayout),
			EndDatetime:       end.Format(datetimeLayout),
			Pagination: searchPagination{
				RequestRecordsAmount: searchPageSize,
				RequestPage:          page,
			},
		}
		var resp searchOrderResponse
		if err := c.do(ctx, http.MethodPost, searchOrderPath, req, &resp); err != nil {
			return nil, fmt.Errorf("search orders page %d: %w", page, err)
		}
		all = append(all, resp.OrderNumberList...)
		if resp.Pagination == nil || page >= resp.Pagination.TotalPages || len(resp.OrderNumberList) == 0 {
			break
		}
	}
	return all, nil
}

// GetOrders fetches full order details for up to MaxOrdersPerFetch
// order numbers.
func (c *Client) GetOrders(ctx context.Context, orderNumbers []string) ([]Order, error) {
	if len(orderNumbers) == 0 {
		return nil, nil
	}
	if len(orderNumbers) > MaxOrdersPerFetch {
		return nil, fmt.Errorf("getOrder accepts at most %d order numbers, got %d", MaxOrdersPerFetch, len(orderNumbers))
	}
	req := getOrderRequest{OrderNumberList: orderNumbers, Version: 7}
	var resp getOrderResponse
	if err := c.do(ctx, http.MethodPost, getOrderPath, req, &resp); err != nil {
		return nil, fmt.Errorf("get orders: %w", err)
	}
	return resp.OrderModelList, nil
}

// ConfirmOrder acknowledges a new order on the marketplace.
func (c *Client) ConfirmOrder(ctx context.Context, orderNumber string) error {
	req := confirmOrderRequest{OrderNumberList: []string{orderNumber}}
	if err := c.do(ctx, http.MethodPost, confirmOrderPath, req, nil); err != nil {
		return fmt.Errorf("confirm order %s: %w", orderNumber, err)
	}
	return nil
}

// SetInventory overwrites the listed quantity of one variant.
func (c *Client) SetInventory(ctx context.Context, manageNumber, variantID string, quantity int) error {
	path := fmt.Sprintf(inventoryPath, url.PathEscape(manageNumber), url.PathEscape(variantID))
	req := setInventoryRequest{Mode: "ABSOLUTE", Amount: quantity}
	if err := c.do(ctx, http.MethodPut, path, req, nil); err != nil {
		return fmt.Errorf("set inventory %s/%s: %w", manageNumber, variantID, err)
	}
	return nil
}

// ListInventoryRange returns every inventory record whose quantity lies
// in [minQty, maxQty], following the cursor to exhaustion.
func (c *Client) ListInventoryRange(ctx context.Context, minQty, maxQty int) ([]InventoryRecord, error) {
	var all []InventoryRecord
	var cursor *string
	for {
		req := bulkGetRangeRequest{MinQuantity: minQty, MaxQuantity: maxQty, Cursor: cursor}
		var resp bulkGetRangeResponse
		if err := c.do(ctx, http.MethodPost, bulkGetRangePath, req, &resp); err != nil {
			return nil, fmt.Errorf("list inventory range [%d,%d]: %w", minQty, maxQty, err)
		}
		all = append(all, resp.Inventories...)
		if resp.Cursor == nil || *resp.Cursor == "" {
			break
		}
		cursor = resp.Cursor
	}
	return all, nil
}

// GetItem fetches the catalog entry for a manage number, including its
// variant to merchant SKU mapping.
func (c *Client) GetItem(ctx context.Context, manageNumber string) (*Item, error) {
	var item Item
	path := fmt.Sprintf(itemPath, url.PathEscape(manageNumber))
	if err := c.do(ctx, http.MethodGet, path, nil, &item); err != nil {
		return nil, fmt.Errorf("get item %s: %w", manageNumber, err)
	}
	return &item, nil
}

// TestAuth verifies the credentials with a minimal search call.
func (c *Client) TestAuth(ctx context.Context) error {
	now := time.Now().UTC()
	req := searchOrderRequest{
		DateType:      1,
		StartDatetime: now.Add(-time.Minute).Format(datetimeLayout),
		EndDatetime:   now.Format(datetimeLayout),
		Pagination:    searchPagination{RequestRecordsAmount: 1, RequestPage: 1},
	}
	var resp searchOrderResponse
	if err := c.do(ctx, http.MethodPost, searchOrderPath, req, &resp); err != nil {
		return fmt.Errorf("auth probe: %w", err)
	}
	return nil
}
