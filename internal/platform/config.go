package platform

import (
	"encoding/base64"
	"fmt"
)

// Credentials authenticate one store against the marketplace API.
// They come from the store's api_config column, falling back to the
// process-level defaults.
type Credentials struct {
	ServiceSecret string `json:"serviceSecret"`
	LicenseKey    string `json:"licenseKey"`
	ShopURL       string `json:"shopUrl"`
}

// Valid reports whether both secret parts are present.
func (c Credentials) Valid() bool {
	return c.ServiceSecret != "" && c.LicenseKey != ""
}

// AuthHeader builds the ESA authorization header value.
func (c Credentials) AuthHeader() string {
	raw := fmt.Sprintf("%s:%s", c.ServiceSecret, c.LicenseKey)
	return "ESA " + base64.StdEncoding.EncodeToString([]byte(raw))
}
