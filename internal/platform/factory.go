package platform

import (
	"stocksync-backend/internal/config"
	storemodel "stocksync-backend/internal/domains/store/model"
)

// Factory builds an API client for one store, resolving its
// credentials.
type Factory func(store *storemodel.Store) (API, error)

// NewFactory prefers the store's own api_config and falls back to the
// process-level default credentials. A store with neither gets
// ErrCredentialsMissing and is skipped by the pipelines.
func NewFactory(cfg config.PlatformConfig) Factory {
	return func(store *storemodel.Store) (API, error) {
		creds := Credentials{
			ServiceSecret: store.APIConfig.ServiceSecret,
			LicenseKey:    store.APIConfig.LicenseKey,
			ShopURL:       store.APIConfig.ShopURL,
		}
		if !creds.Valid() {
			creds = Credentials{
				ServiceSecret: cfg.ServiceSecret,
				LicenseKey:    cfg.LicenseKey,
			}
		}
		return New(cfg.BaseURL, creds,
			WithTimeout(cfg.Timeout),
			WithProxy(cfg.ProxyURL),
		)
	}
}
