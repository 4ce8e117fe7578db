package models

// CatalogSettings is the per-tenant catalog-settings aggregate: attribute
// schema, families, reference tables. It is mutated only through the
// registry service, under the optimistic-concurrency UpdateToken.
type CatalogSettings struct {
	Attributes []AttributeDefinition     `json:"attributes"`
	Groups     []AttributeGroup          `json:"groups"`
	Options    map[string][]SelectOption `json:"options,omitempty"` // attribute code → options
	Families   []Family                  `json:"families"`
	Channels   []Channel                 `json:"channels"`
	Currencies []Currency                `json:"currencies"`
	Locales    []Locale                  `json:"locales"`
	Profiles   []Profile                 `json:"profiles,omitempty"`

	UpdateToken string `json:"updateToken"`
}

// NewCatalogSettings returns an empty aggregate with the reserved "other"
// group present.
func NewCatalogSettings() CatalogSettings {
	return CatalogSettings{
		Groups:  []AttributeGroup{{Code: GroupOther}},
		Options: map[string][]SelectOption{},
	}
}

// ── Lookups (read-only schema surface used by validator and codec) ───────────

// Attribute returns the definition for code.
func (s CatalogSettings) Attribute(code string) (AttributeDefinition, bool) {
	for _, a := range s.Attributes {
		if a.Code == code {
			return a, true
		}
	}
	return AttributeDefinition{}, false
}

// IdentifierAttribute returns the tenant's single identifier attribute.
func (s CatalogSettings) IdentifierAttribute() (AttributeDefinition, bool) {
	for _, a := range s.Attributes {
		if a.Type == TypeIdentifier {
			return a, true
		}
	}
	return AttributeDefinition{}, false
}

// Group returns the attribute group for code.
func (s CatalogSettings) Group(code string) (AttributeGroup, bool) {
	for _, g := range s.Groups {
		if g.Code == code {
			return g, true
		}
	}
	return AttributeGroup{}, false
}

// Family returns the family for code.
func (s CatalogSettings) Family(code string) (Family, bool) {
	for _, f := range s.Families {
		if f.Code == code {
			return f, true
		}
	}
	return Family{}, false
}

// Channel returns the channel for code.
func (s CatalogSettings) Channel(code string) (Channel, bool) {
	for _, c := range s.Channels {
		if c.Code == code {
			return c, true
		}
	}
	return Channel{}, false
}

// Profile returns the export/import profile for code.
func (s CatalogSettings) Profile(code string) (Profile, bool) {
	for _, p := range s.Profiles {
		if p.Code == code {
			return p, true
		}
	}
	return Profile{}, false
}

// IsValidLocale reports whether code is an enabled locale.
func (s CatalogSettings) IsValidLocale(code string) bool {
	for _, l := range s.Locales {
		if l.Code == code && l.Enabled {
			return true
		}
	}
	return false
}

// IsValidCurrency reports whether code is an enabled currency.
func (s CatalogSettings) IsValidCurrency(code string) bool {
	for _, c := range s.Currencies {
		if c.Code == code && c.Enabled {
			return true
		}
	}
	return false
}

// AttributesUsed returns every attribute definition for the codes, keeping
// the input order and skipping unknown codes.
func (s CatalogSettings) AttributesUsed(codes []string) []AttributeDefinition {
	out := make([]AttributeDefinition, 0, len(codes))
	for _, code := range codes {
		if def, ok := s.Attribute(code); ok {
			out = append(out, def)
		}
	}
	return out
}
