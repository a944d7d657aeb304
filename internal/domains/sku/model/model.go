package model

import "time"

// SKU statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// ExtraData is the free-form JSON column on a SKU. Aliases map a
// platform name to the identifier that platform knows the SKU by.
type ExtraData struct {
	Aliases map[string]string `json:"aliases,omitempty"`
	Note    string            `json:"note,omitempty"`
}

// SKU is the master record for one stock keeping unit. SkuID is the
// normalized internal identifier shared across stores.
type SKU struct {
	SkuID         string    `json:"skuId"`
	OriginalSku   string    `json:"originalSku"`
	SkuName       string    `json:"skuName"`
	AllowOversell bool      `json:"allowOversell"`
	Environment   string    `json:"environment"`
	Status        string    `json:"status"`
	ExtraData     ExtraData `json:"extraData"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PlatformAlias resolves the identifier to use when pushing this SKU
// to the given platform. Alias wins over the original SKU, which wins
// over the internal id.
func (s *SKU) PlatformAlias(platform string) string {
	if alias, ok := s.ExtraData.Aliases[platform]; ok && alias != "" {
		return alias
	}
	if s.OriginalSku != "" {
		return s.OriginalSku
	}
	return s.SkuID
}

// Active reports whether the SKU participates in polling and push.
func (s *SKU) Active() bool {
	return s.Status == StatusActive
}
