package platform

import (
	"encoding/json"
	"time"
)

// ListOrOne unmarshals a JSON field that the API serves either as a
// single object or as a list of objects.
type ListOrOne[T any] []T

func (l *ListOrOne[T]) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*l = []T{one}
	return nil
}

// Order statuses on the marketplace side.
const (
	StatusNew       = "100"
	StatusConfirmed = "300"
	StatusCancelled = "900"
)

type searchOrderRequest struct {
	OrderProgressList []int            `json:"orderProgressList,omitempty"`
	DateType          int              `json:"dateType"`
	StartDatetime     string           `json:"startDatetime"`
	EndDatetime       string           `json:"endDatetime"`
	Pagination        searchPagination `json:"PaginationRequestModel"`
}

type searchPagination struct {
	RequestRecordsAmount int `json:"requestRecordsAmount"`
	RequestPage          int `json:"requestPage"`
}

type searchOrderResponse struct {
	OrderNumberList []string `json:"orderNumberList"`
	Pagination      *struct {
		TotalRecordsAmount int `json:"totalRecordsAmount"`
		TotalPages         int `json:"totalPages"`
		RequestPage        int `json:"requestPage"`
	} `json:"PaginationResponseModel"`
}

type getOrderRequest struct {
	OrderNumberList []string `json:"orderNumberList"`
	Version         int      `json:"version"`
}

type getOrderResponse struct {
	OrderModelList ListOrOne[Order] `json:"OrderModelList"`
}

// Order is the subset of the marketplace order payload the pipeline
// consumes.
type Order struct {
	OrderNumber   string                `json:"orderNumber"`
	OrderProgress json.Number           `json:"orderProgress"`
	OrderDatetime string                `json:"orderDatetime"`
	Packages      ListOrOne[Package]    `json:"PackageModelList"`
	Payment       *PaymentModel         `json:"SettlementModel,omitempty"`
}

// Status normalizes orderProgress to its string form.
func (o Order) Status() string {
	return o.OrderProgress.String()
}

type Package struct {
	Items ListOrOne[OrderItem] `json:"ItemModelList"`
}

type OrderItem struct {
	ManageNumber string `json:"manageNumber"`
	ItemNumber   string `json:"itemNumber"`
	SkuID        string `json:"merchantDefinedSkuId"`
	Units        int    `json:"units"`
	ItemName     string `json:"itemName"`
}

type PaymentModel struct {
	SettlementMethod string `json:"settlementMethod"`
}

// Items flattens every line item across the order's packages.
func (o Order) Items() []OrderItem {
	var items []OrderItem
	for _, pkg := range o.Packages {
		items = append(items, pkg.Items...)
	}
	return items
}

type confirmOrderRequest struct {
	OrderNumberList []string `json:"orderNumberList"`
}

type setInventoryRequest struct {
	Mode   string `json:"mode"`
	Amount int    `json:"quantity"`
}

type bulkGetRangeRequest struct {
	MinQuantity int     `json:"minQuantity"`
	MaxQuantity int     `json:"maxQuantity"`
	Cursor      *string `json:"cursor,omitempty"`
}

type bulkGetRangeResponse struct {
	Inventories []InventoryRecord `json:"inventories"`
	Cursor      *string           `json:"cursor"`
}

// InventoryRecord is one SKU-level quantity as the marketplace sees it.
type InventoryRecord struct {
	ManageNumber string `json:"manageNumber"`
	VariantID    string `json:"variantId"`
	Quantity     int    `json:"quantity"`
}

// Item is the catalog view of a manage number with its variants.
type Item struct {
	ManageNumber string             `json:"manageNumber"`
	Title        string             `json:"title"`
	Variants     map[string]Variant `json:"variants"`
	Created      time.Time          `json:"created,omitempty"`
}

type Variant struct {
	MerchantDefinedSkuID string `json:"merchantDefinedSkuId"`
	ArticleNumber        string `json:"articleNumber"`
}
