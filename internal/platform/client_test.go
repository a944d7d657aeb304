package platform

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCreds() Credentials {
	return Credentials{ServiceSecret: "SP000000", LicenseKey: "SL000000"}
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, testCreds(), WithRetry(2, time.Millisecond))
	require.NoError(t, err)
	return c, srv
}

func TestAuthHeader(t *testing.T) {
	creds := testCreds()
	want := "ESA " + base64.StdEncoding.EncodeToString([]byte("SP000000:SL000000"))
	assert.Equal(t, want, creds.AuthHeader())
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New("http://example.com", Credentials{})
	assert.ErrorIs(t, err, ErrCredentialsMissing)
}

func TestDoSendsAuthHeader(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(searchOrderResponse{})
	}))

	err := c.TestAuth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testCreds().AuthHeader(), gotAuth)
}

func TestDoRetriesOnRateLimit(t *testing.T) {
	attempts := 0
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(searchOrderResponse{OrderNumberList: []string{"100001-20260801-001"}})
	}))

	got, err := c.SearchOrders(context.Background(), time.Now().Add(-time.Hour), time.Now(), []int{100})
	require.NoError(t, err)
	assert.Equal(t, []string{"100001-20260801-001"}, got)
	assert.Equal(t, 3, attempts)
}

func TestDoGivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	err := c.ConfirmOrder(context.Background(), "100001-20260801-001")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	// initial attempt plus two retries
	assert.Equal(t, 3, attempts)
}

func TestDoUnauthorizedIsTerminal(t *testing.T) {
	attempts := 0
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))

	err := c.ConfirmOrder(context.Background(), "100001-20260801-001")
	assert.ErrorIs(t, err, ErrCredentialExpired)
	assert.Equal(t, 1, attempts)
}

func TestDoClientErrorIsTerminal(t *testing.T) {
	attempts := 0
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"errors":[{"code":"ORDER_NOT_FOUND"}]}`)
	}))

	err := c.ConfirmOrder(context.Background(), "missing")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCredentialExpired))
	assert.Equal(t, 1, attempts)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.False(t, apiErr.Transient())
}

func TestSearchOrdersFollowsPagination(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req searchOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := searchOrderResponse{
			OrderNumberList: []string{fmt.Sprintf("order-page-%d", req.Pagination.RequestPage)},
		}
		resp.Pagination = &struct {
			TotalRecordsAmount int `json:"totalRecordsAmount"`
			TotalPages         int `json:"totalPages"`
			RequestPage        int `json:"requestPage"`
		}{TotalRecordsAmount: 3, TotalPages: 3, RequestPage: req.Pagination.RequestPage}
		json.NewEncoder(w).Encode(resp)
	}))

	got, err := c.SearchOrders(context.Background(), time.Now().Add(-time.Hour), time.Now(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"order-page-1", "order-page-2", "order-page-3"}, got)
}

func TestGetOrdersRejectsOversizedBatch(t *testing.T) {
	c, err := New("http://example.invalid", testCreds())
	require.NoError(t, err)

	numbers := make([]string, MaxOrdersPerFetch+1)
	_, err = c.GetOrders(context.Background(), numbers)
	assert.Error(t, err)
}

func TestGetOrdersEmptyBatchSkipsCall(t *testing.T) {
	c, err := New("http://example.invalid", testCreds())
	require.NoError(t, err)

	got, err := c.GetOrders(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListInventoryRangeFollowsCursor(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req bulkGetRangeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.Cursor == nil {
			next := "page2"
			json.NewEncoder(w).Encode(bulkGetRangeResponse{
				Inventories: []InventoryRecord{{ManageNumber: "item-a", VariantID: "v1", Quantity: 5}},
				Cursor:      &next,
			})
			return
		}
		json.NewEncoder(w).Encode(bulkGetRangeResponse{
			Inventories: []InventoryRecord{{ManageNumber: "item-b", VariantID: "v1", Quantity: 9}},
		})
	}))

	got, err := c.ListInventoryRange(context.Background(), 0, 1000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "item-a", got[0].ManageNumber)
	assert.Equal(t, "item-b", got[1].ManageNumber)
}

func TestListOrOneUnmarshal(t *testing.T) {
	var single ListOrOne[OrderItem]
	require.NoError(t, json.Unmarshal([]byte(`{"itemNumber":"sku-1","units":2}`), &single))
	require.Len(t, single, 1)
	assert.Equal(t, 2, single[0].Units)

	var many ListOrOne[OrderItem]
	require.NoError(t, json.Unmarshal([]byte(`[{"itemNumber":"sku-1"},{"itemNumber":"sku-2"}]`), &many))
	assert.Len(t, many, 2)
}

func TestOrderItemsFlattensPackages(t *testing.T) {
	raw := `{
		"orderNumber": "100001-20260801-001",
		"orderProgress": 100,
		"PackageModelList": [
			{"ItemModelList": [{"itemNumber":"sku-a","units":1}]},
			{"ItemModelList": {"itemNumber":"sku-b","units":3}}
		]
	}`
	var o Order
	require.NoError(t, json.Unmarshal([]byte(raw), &o))

	items := o.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "sku-a", items[0].ItemNumber)
	assert.Equal(t, 3, items[1].Units)
	assert.Equal(t, "100", o.Status())
}
