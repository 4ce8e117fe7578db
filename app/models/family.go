package models

// FamilyAttribute links an attribute into a family, optionally requiring a
// non-empty value on specific channels.
type FamilyAttribute struct {
	Attribute        string   `json:"attribute"`
	RequiredChannels []string `json:"requiredChannels,omitempty"`
}

// FamilyVariant defines one variant level of a family. Axes must reference
// simpleselect or boolean attributes only.
type FamilyVariant struct {
	Code       string        `json:"code"`
	Labels     []LocaleValue `json:"labels,omitempty"`
	Axes       []string      `json:"axes"`
	Attributes []string      `json:"attributes,omitempty"`
}

// Family is the schema subset applicable to a class of products. The
// tenant's identifier attribute is implicitly its first attribute and the
// default attributeAsLabel.
type Family struct {
	Code             string            `json:"code"`
	Labels           []LocaleValue     `json:"labels,omitempty"`
	AttributeAsLabel string            `json:"attributeAsLabel"`
	AttributeAsImage string            `json:"attributeAsImage,omitempty"`
	Attributes       []FamilyAttribute `json:"attributes"`
	Variants         []FamilyVariant   `json:"variants,omitempty"`
}

// HasAttribute reports whether code is in the family's attribute list.
func (f Family) HasAttribute(code string) bool {
	for _, fa := range f.Attributes {
		if fa.Attribute == code {
			return true
		}
	}
	return false
}

// AttributeCodes returns the family's attribute codes in order.
func (f Family) AttributeCodes() []string {
	out := make([]string, 0, len(f.Attributes))
	for _, fa := range f.Attributes {
		out = append(out, fa.Attribute)
	}
	return out
}

// UsesAsAxis reports whether code is an axis of any variant.
func (f Family) UsesAsAxis(code string) bool {
	for _, variant := range f.Variants {
		for _, axis := range variant.Axes {
			if axis == code {
				return true
			}
		}
	}
	return false
}

// Variant returns the named variant definition.
func (f Family) Variant(code string) (FamilyVariant, bool) {
	for _, v := range f.Variants {
		if v.Code == code {
			return v, true
		}
	}
	return FamilyVariant{}, false
}
