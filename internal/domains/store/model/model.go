package model

import "time"

// Store statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// APIConfig holds the per-store marketplace credentials as stored in
// the api_config JSON column.
type APIConfig struct {
	ServiceSecret string `json:"serviceSecret"`
	LicenseKey    string `json:"licenseKey"`
	ShopURL       string `json:"shopUrl,omitempty"`
}

// Configured reports whether the store carries its own credentials.
func (c APIConfig) Configured() bool {
	return c.ServiceSecret != "" && c.LicenseKey != ""
}

// Store is one marketplace account the service polls and pushes to.
type Store struct {
	StoreID       string     `json:"storeId"`
	StoreName     string     `json:"storeName"`
	Platform      string     `json:"platform"`
	APIConfig     APIConfig  `json:"apiConfig"`
	Environment   string     `json:"environment"`
	Status        string     `json:"status"`
	LastSKUSyncAt *time.Time `json:"lastSkuSyncAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (s *Store) Active() bool {
	return s.Status == StatusActive
}

// StoreSKU links a master SKU to a store listing. ManageNumber and
// VariantID identify the listing on the platform side.
type StoreSKU struct {
	StoreID      string     `json:"storeId"`
	SkuID        string     `json:"skuId"`
	PlatformSku  string     `json:"platformSku"`
	ManageNumber string     `json:"manageNumber"`
	VariantID    string     `json:"variantId"`
	Status       string     `json:"status"`
	RegisteredAt time.Time  `json:"registeredAt"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
}
