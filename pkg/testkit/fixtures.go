package testkit

import (
	"github.com/mosaicpim/mosaic/app/models"
)

// Tenant is the tenant code used across the service tests.
const Tenant = "acme"

// Settings builds a populated catalog: an identifier, one attribute per
// interesting shape, the "ecommerce" channel with two locales, and a
// "clothing" family wiring them together.
func Settings() *models.CatalogSettings {
	yes := true
	minW, maxW := 0.0, 500.0

	s := models.NewCatalogSettings()
	s.Attributes = []models.AttributeDefinition{
		{
			Code: "sku", Type: models.TypeIdentifier, Group: models.GroupOther,
			IsUnique: true,
			Text:     &models.TextConstraints{MaxCharacters: 64},
		},
		{
			Code: "name", Type: models.TypeText, Group: models.GroupOther,
			Localizable: true, Scopable: true,
			Text: &models.TextConstraints{MaxCharacters: 5},
		},
		{
			Code: "description", Type: models.TypeTextarea, Group: models.GroupOther,
			Localizable: true, Scopable: true,
			Textarea: &models.TextareaConstraints{MaxCharacters: 1000},
		},
		{
			Code: "contact", Type: models.TypeText, Group: models.GroupOther,
			Text: &models.TextConstraints{ValidationRule: models.RuleEmail},
		},
		{
			Code: "weight", Type: models.TypeNumber, Group: models.GroupOther,
			Number: &models.NumberConstraints{
				NegativeAllowed: false, DecimalsAllowed: true,
				MinNumber: &minW, MaxNumber: &maxW,
			},
		},
		{
			Code: "fragile", Type: models.TypeBoolean, Group: models.GroupOther,
			Boolean: &models.BooleanConstraints{DefaultValue: &yes},
		},
		{
			Code: "picture", Type: models.TypeImage, Group: models.GroupOther,
			Image: &models.ImageConstraints{MaxFileSizeInMB: 2, AllowedExtensions: []string{"jpg", "png"}},
		},
		{
			Code: "release_date", Type: models.TypeDate, Group: models.GroupOther,
			Date: &models.DateConstraints{MinDate: "2020-01-01", MaxDate: "2030-12-31"},
		},
		{
			Code: "color", Type: models.TypeSimpleselect, Group: models.GroupOther,
		},
		{
			Code: "tags", Type: models.TypeMultiselect, Group: models.GroupOther,
		},
		{
			Code: "slogan", Type: models.TypeText, Group: models.GroupOther,
			Localizable: true, IsLocaleSpecific: true,
			AvailableLocales: []string{"fr_FR"},
			Text:             &models.TextConstraints{MaxCharacters: 255},
		},
	}
	s.Options = map[string][]models.SelectOption{
		"color": {{Code: "red"}, {Code: "blue"}, {Code: "green"}},
		"tags":  {{Code: "summer"}, {Code: "sale"}},
	}
	s.Channels = []models.Channel{
		{Code: "ecommerce", Locales: []string{"en_US", "fr_FR"}},
		{Code: "print", Locales: []string{"en_US"}},
	}
	s.Locales = []models.Locale{
		{Code: "en_US", Enabled: true},
		{Code: "fr_FR", Enabled: true},
	}
	s.Currencies = []models.Currency{
		{Code: "USD", Enabled: true},
		{Code: "EUR", Enabled: true},
	}
	s.Families = []models.Family{
		{
			Code:             "clothing",
			AttributeAsLabel: "name",
			AttributeAsImage: "picture",
			Attributes: []models.FamilyAttribute{
				{Attribute: "sku"},
				{Attribute: "name", RequiredChannels: []string{"ecommerce"}},
				{Attribute: "description"},
				{Attribute: "contact"},
				{Attribute: "weight"},
				{Attribute: "fragile"},
				{Attribute: "picture"},
				{Attribute: "release_date"},
				{Attribute: "color"},
				{Attribute: "tags"},
				{Attribute: "slogan"},
			},
			Variants: []models.FamilyVariant{
				{Code: "by_color", Axes: []string{"color"}, Attributes: []string{"picture"}},
			},
		},
	}
	return &s
}

// Product builds a minimal valid product in the clothing family.
func Product(sku string) models.Product {
	return models.Product{
		SKU:     sku,
		Family:  "clothing",
		Enabled: true,
		Attributes: []models.ProductAttributeValue{
			{Code: "sku", Data: []models.ValueEntry{{Value: sku}}},
			{Code: "name", Data: []models.ValueEntry{
				{Scope: "ecommerce", Locale: "en_US", Value: "abcde"},
			}},
		},
	}
}

// ExportProfile builds a product export profile for the given connector.
func ExportProfile(code string, connector models.Connector) models.Profile {
	return models.Profile{
		Code:      code,
		Job:       models.KindProductExport,
		Connector: connector,
		Settings: models.ProfileSettings{
			Content: models.ContentSettings{
				Channel:    "ecommerce",
				Locales:    []string{"en_US"},
				Attributes: []string{"sku", "name", "weight", "fragile", "tags"},
			},
		},
	}
}
