package models

// Channel is a sales channel (scope). Channel-specific attribute values
// carry the channel code in their scope field.
type Channel struct {
	Code    string        `json:"code"`
	Labels  []LocaleValue `json:"labels,omitempty"`
	Locales []string      `json:"locales,omitempty"`
}

// Locale is a language/region entry in the tenant's reference table.
type Locale struct {
	Code    string `json:"code"`
	Enabled bool   `json:"enabled"`
}

// Currency is a currency entry in the tenant's reference table.
type Currency struct {
	Code    string `json:"code"`
	Enabled bool   `json:"enabled"`
}
