package services

import (
	"regexp"

	"github.com/mosaicpim/mosaic/app/models"
	"github.com/mosaicpim/mosaic/app/repositories"
	"github.com/mosaicpim/mosaic/pkg/apperr"
	"github.com/mosaicpim/mosaic/pkg/collection"
)

// RegistryService owns every mutation of the per-tenant catalog-settings
// aggregate: attributes, groups, select options, families, variants,
// channels, currency/locale toggles and export/import profiles.
//
// Each mutation loads the aggregate, compares the caller's update token,
// applies the change, and saves — which regenerates the token. A token
// mismatch fails with StaleTokenError before anything is touched.
type RegistryService struct {
	settings *repositories.SettingsRepository
	products *repositories.ProductRepository
}

func NewRegistryService(settings *repositories.SettingsRepository, products *repositories.ProductRepository) *RegistryService {
	return &RegistryService{settings: settings, products: products}
}

var codeRE = regexp.MustCompile(`^[A-Za-z0-9_]{1,100}$`)

// Settings returns the tenant's aggregate for reading.
func (s *RegistryService) Settings(tenant string) (*models.CatalogSettings, error) {
	return s.settings.Load(tenant)
}

// load fetches the aggregate and enforces the caller's token.
func (s *RegistryService) load(tenant, expectedToken string) (*models.CatalogSettings, error) {
	settings, err := s.settings.Load(tenant)
	if err != nil {
		return nil, err
	}
	if settings.UpdateToken != expectedToken {
		return nil, &apperr.StaleTokenError{Resource: "catalog settings"}
	}
	return settings, nil
}

// ─────────────────────────────────────────────
// Attributes
// ─────────────────────────────────────────────

func (s *RegistryService) CreateAttribute(tenant string, def models.AttributeDefinition, expectedToken string) (*models.CatalogSettings, error) {
	settings, err := s.load(tenant, expectedToken)
	if err != nil {
		return nil, err
	}

	if err := checkAttributeShape(def); err != nil {
		return nil, err
	}
	if _, exists := settings.Attribute(def.Code); exists {
		return nil, apperr.Conflict("attribute %q already exists", def.Code)
	}
	if _, ok := settings.Group(def.Group); !ok {
		return nil, apperr.NotFound("attribute group", def.Group)
	}
	if def.Type == models.TypeIdentifier {
		if _, exists := settings.IdentifierAttribute(); exists {
			return nil, apperr.Conflict("an identifier attribute already exists")
		}
	}

	settings.Attributes = append(settings.Attributes, def)
	if def.IsSelect() {
		settings.Options[def.Code] = []models.SelectOption{}
	}

	if err := s.settings.Save(tenant, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *RegistryService) UpdateAttribute(tenant string, def models.AttributeDefinition, expectedToken string) (*models.CatalogSettings, error) {
	settings, err := s.load(tenant, expectedToken)
	if err != nil {
		return nil, err
	}

	current, exists := settings.Attribute(def.Code)
	if !exists {
		return nil, apperr.NotFound("attribute", def.Code)
	}
	if current.Type != def.Type {
		return nil, apperr.Conflict("attribute %q cannot change type", def.Code)
	}
	if err := checkAttributeShape(def); err != nil {
		return nil, err
	}
	if _, ok := settings.Group(def.Group); !ok {
		return nil, apperr.NotFound("attribute group", def.Group)
	}

	for i := range settings.Attributes {
		if settings.Attributes[i].Code == def.Code {
			settings.Attributes[i] = def
			break
		}
	}

	if err := s.settings.Save(tenant, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *RegistryService) DeleteAttribute(tenant, code, expectedToken string) (*models.CatalogSettings, error) {
	settings, err := s.load(tenant, expectedToken)
	if err != nil {
		return nil, err
	}

	def, exists := settings.Attribute(code)
	if !exists {
		return nil, apperr.NotFound("attribute", code)
	}
	if def.Type == models.TypeIdentifier {
		return nil, apperr.Conflict("the identifier attribute cannot be deleted")
	}

	for _, family := range settings.Families {
		if family.HasAttribute(code) {
			return nil, apperr.Conflict("attribute %q is used by family %q", code, family.Code)
		}
		if family.UsesAsAxis(code) {
			return nil, apperr.Conflict("attribute %q is a variant axis of family %q", code, family.Code)
		}
		if family.AttributeAsLabel == code || family.AttributeAsImage == code {
			return nil, apperr.Conflict("attribute %q labels family %q", code, family.Code)
		}
	}

	inUse, err := s.products.AttributeInUse(tenant, code)
	if err != nil {
		return nil, err
	}
	if inUse {
		return nil, apperr.Conflict("attribute %q has product values", code)
	}

	settings.Attributes = collection.Filter(settings.Attributes, func(a models.AttributeDefinition) bool {
		return a.Code != code
	})
	delete(settings.Options, code)

	if err := s.settings.Save(tenant, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func checkAttributeShape(def models.AttributeDefinition) error {
	if !codeRE.MatchString(def.Code) {
		return apperr.Invalid(def.Code, "code must match [A-Za-z0-9_]{1,100}")
	}
	if !def.Type.Valid() {
		return apperr.Invalid(def.Code, "unknown attribute type %q", def.Type)
	}
	if def.IsUnique && !def.CanBeUnique() {
		return apperr.Invalid(def.Code, "type %q cannot be unique", def.Type)
	}
	if def.IsUnique && (def.Scopable || def.Localizable) {
		return apperr.Invalid(def.Code, "a unique attribute cannot be scopable or localizable")
	}
	if def.IsLocaleSpecific && len(def.AvailableLocales) == 0 {
		return apperr.Invalid(def.Code, "locale-specific attribute needs availableLocales")
	}
	if def.Type == models.TypeBoolean && (def.Boolean == nil || def.Boolean.DefaultValue == nil) {
		return apperr.Invalid(def.Code, "boolean attribute needs a defaultValue")
	}
	if def.Type == models.TypeImage && def.Image != nil && def.Image.MaxFileSizeInMB > 5 {
		return apperr.Invalid(def.Code, "maxFileSizeInMB is capped at 5")
	}
	return nil
}

// ─────────────────────────────────────────────
// Attribute groups
// ─────────────────────────────────────────────

func (s *RegistryService) CreateGroup(tenant string, group models.AttributeGroup, expectedToken string) (*models.CatalogSettings, error) {
	settings, err := s.load(tenant, expectedToken)
	if err != nil {
		return nil, err
	}

	if !codeRE.MatchString(group.Code) {
		return nil, apperr.Invalid(group.Code, "code must match [A-Za-z0-9_]{1,100}")
	}
	if _, exists := settings.Group(group.Code); exists {
		return nil, apperr.Conflict("attribute group %q already exists", group.Code)
	}

	settings.Groups = append(settings.Groups, group)

	if err := s.settings.Save(tenant, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *RegistryService) DeleteGroup(tenant, code, expectedToken string) (*models.CatalogSettings, error) {
	settings, err := s.load(tenant, expectedToken)
	if err != nil {
		return nil, err
	}

	if code == models.GroupOther {
		return nil, apperr.Conflict("the %q group is reserved", models.GroupOther)
	}
	if _, exists := settings.Group(code); !exists {
		return nil, apperr.NotFound("attribute group", code)
	}
	for _, attr := range settings.Attributes {
		if attr.Group == code {
			return nil, apperr.Conflict("attribute group %q still has attributes", code)
		}
	}

	settings.Groups = collection.Filter(settings.Groups, func(g models.AttributeGroup) bool {
		return g.Code != code
	})

	if err := s.settings.Save(tenant, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// ─────────────────────────────────────────────
// Select options
// ─────────────────────────────────────────────

func (s *RegistryService) AddSelectOption(tenant, attribute string, option models.SelectOption, expectedToken string) (*models.CatalogSettings, error) {
	settings, err := s.load(tenant, expectedToken)
	if err != nil {
		return nil, err
	}

	def, exists := settings.Attribute(attribute)
	if !exists {
		return nil, apperr.NotFound("attribute", attribute)
	}
	if !def.IsSelect() {
		return nil, apperr.Invalid(attribute, "attribute does not carry options")
	}
	if !codeRE.MatchString(option.Code) {
		return nil, apperr.Invalid(option.Code, "code must match [A-Za-z0-9_]{1,100}")
	}
	for _, existing := range settings.Options[attribute] {
		if existing.Code == option.Code {
			return nil, apperr.Conflict("option %q already exists on %q", option.Code, attribute)
		}
	}

	if settings.Options == nil {
		settings.Options = map[string][]models.SelectOption{}
	}
	settings.Options[attribute] = append(settings.Options[attribute], option)

	if err := s.settings.Save(tenant, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// DeleteSelectOption removes the option from the attribute's list.
func (s *RegistryService) DeleteSelectOption(tenant, attribute, option, expectedToken string) (*models.CatalogSettings, error) {
	settings, err := s.load(tenant, expectedToken)
	if err != nil {
		return nil, err
	}

	def, exists := settings.Attribute(attribute)
	if !exists {
		return nil, apperr.NotFound("attribute", attribute)
	}
	if !def.IsSelect() {
		return nil, apperr.Invalid(attribute, "attribute does not carry options")
	}

	options := settings.Options[attribute]
	found := false
	for _, existing := range options {
		if existing.Code == option {
			found = true
			break
		}
	}
	if !found {
		return nil, apperr.NotFound("option", option)
	}

	settings.Options[attribute] = collection.Filter(options, func(o models.SelectOption) bool {
		return o.Code != option
	})

	if err := s.settings.Save(tenant, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// ─────────────────────────────────────────────
// Families and variants
// ─────────────────────────────────────────────

func (s *RegistryService) CreateFamily(tenant string, family models.Family, expectedToken string) (*models.CatalogSettings, error) {
	settings, err := s.load(tenant, expectedToken)
	if err != nil {
		return nil, err
	}

	if !codeRE.MatchString(family.Code) {
		return nil, apperr.Invalid(family.Code, "code must match [A-Za-z0-9_]{1,100}")
	}
	if _, exists := settings.Family(family.Code); exists {
		return nil, apperr.Conflict("family %q already exists", family.Code)
	}

	normalized, err := normalizeFamily(settings, family)
	if err != nil {
		return nil, err
	}

	settings.Families = append(settings.Families, normalized)

	if err := s.settings.Save(tenant, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *RegistryService) UpdateFamily(tenant string, family models.Family, expectedToken string) (*models.CatalogSettings, error) {
	settings, err := s.load(tenant, expectedToken)
	if err != nil {
		return nil, err
	}

	if _, exists := settings.Family(family.Code); !exists {
		return nil, apperr.NotFound("family", family.Code)
	}

	normalized, err := normalizeFamily(settings, family)
	if err != nil {
		return nil, err
	}

	for i := range settings.Families {
		if settings.Families[i].Code == family.Code {
			settings.Families[i] = normalized
			break
		}
	}

	if err := s.settings.Save(tenant, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *RegistryService) DeleteFamily(tenant, code, expectedToken string) (*models.CatalogSettings, error) {
	settings, err := s.load(tenant, expectedToken)
	if err != nil {
		return nil, err
	}

	if _, exists := settings.Family(code); !exists {
		return nil, apperr.NotFound("family", code)
	}

	inUse, err := s.products.FamilyInUse(tenant, code)
	if err != nil {
		return nil, err
	}
	if inUse {
		return nil, apperr.Conflict("family %q has products", code)
	}

	settings.Families = collection.Filter(settings.Families, func(f models.Family) bool {
		return f.Code != code
	})

	if err := s.settings.Save(tenant, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// normalizeFamily validates a family payload against the schema and makes
// the identifier attribute its implicit first attribute and default label.
func normalizeFamily(settings *models.CatalogSettings, family models.Family) (models.Family, error) {
	identifier, hasIdentifier := settings.IdentifierAttribute()

	for _, fa := range family.Attributes {
		if _, ok := settings.Attribute(fa.Attribute); !ok {
			return models.Family{}, apperr.NotFound("attribute", fa.Attribute)
		}
		for _, channel := range fa.RequiredChannels {
			if _, ok := settings.Channel(channel); !ok {
				return models.Family{}, apperr.NotFound("channel", channel)
			}
		}
	}

	if hasIdentifier && !family.HasAttribute(identifier.Code) {
		family.Attributes = append(
			[]models.FamilyAttribute{{Attribute: identifier.Code}},
			family.Attributes...,
		)
	}

	if family.AttributeAsLabel == "" && hasIdentifier {
		family.AttributeAsLabel = identifier.Code
	}
	if family.AttributeAsLabel != "" && !family.HasAttribute(family.AttributeAsLabel) {
		return models.Family{}, apperr.Invalid(family.AttributeAsLabel, "attributeAsLabel must be a family attribute")
	}
	if family.AttributeAsImage != "" && !family.HasAttribute(family.AttributeAsImage) {
		return models.Family{}, apperr.Invalid(family.AttributeAsImage, "attributeAsImage must be a family attribute")
	}

	for _, variant := range family.Variants {
		if err := checkVariant(settings, family, variant); err != nil {
			return models.Family{}, err
		}
	}
	return family, nil
}

func checkVariant(settings *models.CatalogSettings, family models.Family, variant models.FamilyVariant) error {
	if !codeRE.MatchString(variant.Code) {
		return apperr.Invalid(variant.Code, "code must match [A-Za-z0-9_]{1,100}")
	}
	if len(variant.Axes) == 0 {
		return apperr.Invalid(variant.Code, "variant needs at least one axis")
	}
	for _, axis := range variant.Axes {
		def, ok := settings.Attribute(axis)
		if !ok {
			return apperr.NotFound("attribute", axis)
		}
		if !family.HasAttribute(axis) {
			return apperr.Invalid(axis, "axis must be a family attribute")
		}
		if def.Type != models.TypeSimpleselect && def.Type != models.TypeBoolean {
			return apperr.Invalid(axis, "axis must be a simpleselect or boolean attribute")
		}
	}
	for _, code := range variant.Attributes {
		if !family.HasAttribute(code) {
			return apperr.Invalid(code, "variant attribute must belong to the family")
		}
	}
	return nil
}

func (s *RegistryService) CreateVariant(tenant, familyCode string, variant models.FamilyVariant, expectedToken string) (*models.CatalogSettings, error) {
	settings, err := s.load(tenant, expectedToken)
	if err != nil {
		return nil, err
	}

	family, exists := settings.Family(familyCode)
	if !exists {
		return nil, apperr.NotFound("family", familyCode)
	}
	if _, dup := family.Variant(variant.Code); dup {
		return nil, apperr.Conflict("variant %q already exists on family %q", variant.Code, familyCode)
	}
	if err := checkVariant(settings, family, variant); err != nil {
		return nil, err
	}

	for i := range settings.Families {
		if settings.Families[i].Code == familyCode {
			settings.Families[i].Variants = append(settings.Families[i].Variants, variant)
			break
		}
	}

	if err := s.settings.Save(tenant, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *RegistryService) DeleteVariant(tenant, familyCode, variantCode, expectedToken string) (*models.CatalogSettings, error) {
	settings, err := s.load(tenant, expectedToken)
	if err != nil {
		return nil, err
	}

	family, exists := settings.Family(familyCode)
	if !exists {
		return nil, apperr.NotFound("family", familyCode)
	}
	if _, ok := family.Variant(variantCode); !ok {
		return nil, apperr.NotFound("variant", variantCode)
	}

	for i := range settings.Families {
		if settings.Families[i].Code == familyCode {
			settings.Families[i].Variants = collection.Filter(settings.Families[i].Variants,
				func(v models.FamilyVariant) bool { return v.Code != variantCode })
			break
		}
	}

	if err := s.settings.Save(tenant, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// ─────────────────────────────────────────────
// Channels, currencies, locales
// ─────────────────────────────────────────────

func (s *RegistryService) CreateChannel(tenant string, channel models.Channel, expectedToken string) (*models.CatalogSettings, error) {
	settings, err := s.load(tenant, expectedToken)
	if err != nil {
		return nil, err
	}

	if !codeRE.MatchString(channel.Code) {
		return nil, apperr.Invalid(channel.Code, "code must match [A-Za-z0-9_]{1,100}")
	}
	if _, exists := settings.Channel(channel.Code); exists {
		return nil, apperr.Conflict("channel %q already exists", channel.Code)
	}
	for _, locale := range channel.Locales {
		if !settings.IsValidLocale(locale) {
			return nil, apperr.NotFound("locale", locale)
		}
	}

	settings.Channels = append(settings.Channels, channel)

	if err := s.settings.Save(tenant, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *RegistryService) DeleteChannel(tenant, code, expectedToken string) (*models.CatalogSettings, error) {
	settings, err := s.load(tenant, expectedToken)
	if err != nil {
		return nil, err
	}

	if _, exists := settings.Channel(code); !exists {
		return nil, apperr.NotFound("channel", code)
	}
	for _, family := range settings.Families {
		for _, fa := range family.Attributes {
			if contains(fa.RequiredChannels, code) {
				return nil, apperr.Conflict("channel %q is required by family %q", code, family.Code)
			}
		}
	}

	settings.Channels = collection.Filter(settings.Channels, func(c models.Channel) bool {
		return c.Code != code
	})

	if err := s.settings.Save(tenant, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// ToggleCurrency enables or disables a currency. The last enabled currency
// cannot be disabled.
func (s *RegistryService) ToggleCurrency(tenant, code string, enabled bool, expectedToken string) (*models.CatalogSettings, error) {
	settings, err := s.load(tenant, expectedToken)
	if err != nil {
		return nil, err
	}

	idx := -1
	enabledCount := 0
	for i, currency := range settings.Currencies {
		if currency.Code == code {
			idx = i
		}
		if currency.Enabled {
			enabledCount++
		}
	}
	if idx < 0 {
		return nil, apperr.NotFound("currency", code)
	}
	if !enabled && settings.Currencies[idx].Enabled && enabledCount == 1 {
		return nil, apperr.Conflict("at least one currency must stay enabled")
	}

	settings.Currencies[idx].Enabled = enabled

	if err := s.settings.Save(tenant, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// ToggleLocale enables or disables a locale. The last enabled locale cannot
// be disabled.
func (s *RegistryService) ToggleLocale(tenant, code string, enabled bool, expectedToken string) (*models.CatalogSettings, error) {
	settings, err := s.load(tenant, expectedToken)
	if err != nil {
		return nil, err
	}

	idx := -1
	enabledCount := 0
	for i, locale := range settings.Locales {
		if locale.Code == code {
			idx = i
		}
		if locale.Enabled {
			enabledCount++
		}
	}
	if idx < 0 {
		return nil, apperr.NotFound("locale", code)
	}
	if !enabled && settings.Locales[idx].Enabled && enabledCount == 1 {
		return nil, apperr.Conflict("at least one locale must stay enabled")
	}

	settings.Locales[idx].Enabled = enabled

	if err := s.settings.Save(tenant, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// ─────────────────────────────────────────────
// Export / import profiles
// ─────────────────────────────────────────────

func (s *RegistryService) CreateProfile(tenant string, profile models.Profile, expectedToken string) (*models.CatalogSettings, error) {
	settings, err := s.load(tenant, expectedToken)
	if err != nil {
		return nil, err
	}

	if err := checkProfileShape(settings, profile); err != nil {
		return nil, err
	}
	if _, exists := settings.Profile(profile.Code); exists {
		return nil, apperr.Conflict("profile %q already exists", profile.Code)
	}

	settings.Profiles = append(settings.Profiles, profile)

	if err := s.settings.Save(tenant, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *RegistryService) UpdateProfile(tenant string, profile models.Profile, expectedToken string) (*models.CatalogSettings, error) {
	settings, err := s.load(tenant, expectedToken)
	if err != nil {
		return nil, err
	}

	if _, exists := settings.Profile(profile.Code); !exists {
		return nil, apperr.NotFound("profile", profile.Code)
	}
	if err := checkProfileShape(settings, profile); err != nil {
		return nil, err
	}

	for i := range settings.Profiles {
		if settings.Profiles[i].Code == profile.Code {
			profile.CreatedAt = settings.Profiles[i].CreatedAt
			settings.Profiles[i] = profile
			break
		}
	}

	if err := s.settings.Save(tenant, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// RemoveProfile drops the profile from the aggregate. History and artifact
// cleanup is the job service's business; it calls this after its own work.
func (s *RegistryService) RemoveProfile(tenant, code, expectedToken string) (*models.CatalogSettings, error) {
	settings, err := s.load(tenant, expectedToken)
	if err != nil {
		return nil, err
	}

	if _, exists := settings.Profile(code); !exists {
		return nil, apperr.NotFound("profile", code)
	}

	settings.Profiles = collection.Filter(settings.Profiles, func(p models.Profile) bool {
		return p.Code != code
	})

	if err := s.settings.Save(tenant, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func checkProfileShape(settings *models.CatalogSettings, profile models.Profile) error {
	if !codeRE.MatchString(profile.Code) {
		return apperr.Invalid(profile.Code, "code must match [A-Za-z0-9_]{1,100}")
	}
	if !profile.Job.Valid() {
		return apperr.Invalid(profile.Code, "unknown job kind %q", profile.Job)
	}
	if profile.Connector != models.ConnectorCSV && profile.Connector != models.ConnectorXLSX {
		return apperr.Invalid(profile.Code, "unknown connector %q", profile.Connector)
	}

	content := profile.Settings.Content
	if content.Channel != "" {
		if _, ok := settings.Channel(content.Channel); !ok {
			return apperr.NotFound("channel", content.Channel)
		}
	}
	for _, locale := range content.Locales {
		if !settings.IsValidLocale(locale) {
			return apperr.NotFound("locale", locale)
		}
	}
	for _, code := range content.Attributes {
		if _, ok := settings.Attribute(code); !ok {
			return apperr.NotFound("attribute", code)
		}
	}
	return nil
}
