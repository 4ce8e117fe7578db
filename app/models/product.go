package models

// ValueEntry is one (scope, locale, value) cell of a product attribute.
// Scope and Locale stay empty for non-scopable and non-localizable
// attributes respectively.
type ValueEntry struct {
	Scope  string      `json:"scope,omitempty"`
	Locale string      `json:"locale,omitempty"`
	Value  interface{} `json:"value"`
}

// ProductAttributeValue is the EAV cell list for one attribute code.
type ProductAttributeValue struct {
	Code string       `json:"code"`
	Data []ValueEntry `json:"data"`
}

// Entry returns the data entry matching (scope, locale) exactly.
func (v ProductAttributeValue) Entry(scope, locale string) (ValueEntry, bool) {
	for _, e := range v.Data {
		if e.Scope == scope && e.Locale == locale {
			return e, true
		}
	}
	return ValueEntry{}, false
}

// Product is an independently owned catalog record keyed by SKU. The SKU
// is the tenant's identifier attribute value and never changes.
type Product struct {
	SKU        string                  `json:"sku"`
	Family     string                  `json:"family"`
	Parent     string                  `json:"parent,omitempty"`
	Enabled    bool                    `json:"enabled"`
	Groups     []string                `json:"groups,omitempty"`
	Categories []string                `json:"categories,omitempty"`
	Attributes []ProductAttributeValue `json:"attributes,omitempty"`
}

// Attribute returns the value list for code, if the product carries one.
func (p Product) Attribute(code string) (ProductAttributeValue, bool) {
	for _, v := range p.Attributes {
		if v.Code == code {
			return v, true
		}
	}
	return ProductAttributeValue{}, false
}

// ProductModel is a variant-axis parent. It has a code instead of a SKU
// and carries the values shared by its children.
type ProductModel struct {
	Code       string                  `json:"code"`
	Family     string                  `json:"family"`
	Variant    string                  `json:"variant"`
	Categories []string                `json:"categories,omitempty"`
	Attributes []ProductAttributeValue `json:"attributes,omitempty"`
}

// Attribute returns the value list for code, if the model carries one.
func (m ProductModel) Attribute(code string) (ProductAttributeValue, bool) {
	for _, v := range m.Attributes {
		if v.Code == code {
			return v, true
		}
	}
	return ProductAttributeValue{}, false
}
