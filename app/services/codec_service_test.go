package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosaicpim/mosaic/app/models"
	"github.com/mosaicpim/mosaic/pkg/testkit"
)

func exportSettings() models.ProfileSettings {
	return models.ProfileSettings{
		Content: models.ContentSettings{
			Channel: "ecommerce",
			Locales: []string{"en_US", "fr_FR"},
		},
	}
}

func TestColumnKeysFourCombinations(t *testing.T) {
	content := models.ContentSettings{Channel: "ecommerce", Locales: []string{"en_US", "fr_FR"}}

	cases := []struct {
		name string
		def  models.AttributeDefinition
		want []string
	}{
		{
			"plain",
			models.AttributeDefinition{Code: "weight"},
			[]string{"attribute-weight"},
		},
		{
			"scopable",
			models.AttributeDefinition{Code: "price", Scopable: true},
			[]string{"attribute-price-ecommerce"},
		},
		{
			"localizable",
			models.AttributeDefinition{Code: "slogan", Localizable: true},
			[]string{"attribute-slogan-en_US", "attribute-slogan-fr_FR"},
		},
		{
			"scopable and localizable",
			models.AttributeDefinition{Code: "name", Scopable: true, Localizable: true},
			[]string{"attribute-name-ecommerce-en_US", "attribute-name-ecommerce-fr_FR"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ColumnKeys(tc.def, content))
		})
	}
}

func TestProductHeaderRespectsFamilyOrderAndSelection(t *testing.T) {
	codec := NewCodecService()
	settings := testkit.Settings()
	family, _ := settings.Family("clothing")

	profile := models.ProfileSettings{
		Content: models.ContentSettings{
			Channel:    "ecommerce",
			Locales:    []string{"en_US"},
			Attributes: []string{"sku", "name", "weight"},
		},
	}

	header := codec.ProductHeader(family, settings, profile)
	assert.Equal(t, []string{
		"sku", "family", "enabled", "groups", "categories", "parent",
		"attribute-sku",
		"attribute-name-ecommerce-en_US",
		"attribute-weight",
	}, header)
}

func TestFlattenProduct(t *testing.T) {
	codec := NewCodecService()
	settings := testkit.Settings()

	product := models.Product{
		SKU:        "tee-001",
		Family:     "clothing",
		Enabled:    true,
		Groups:     []string{"promo"},
		Categories: []string{"men", "shirts"},
		Attributes: []models.ProductAttributeValue{
			value("sku", entry("", "", "tee-001")),
			value("name",
				entry("ecommerce", "en_US", "Tee"),
				entry("ecommerce", "fr_FR", "Té")),
			value("weight", entry("", "", 12.5)),
			value("fragile", entry("", "", false)),
			value("tags", entry("", "", []interface{}{"summer", "sale"})),
			value("release_date", entry("", "", "2024-06-15")),
		},
	}

	row, err := codec.FlattenProduct(product, settings, exportSettings())
	require.NoError(t, err)

	assert.Equal(t, "tee-001", row["sku"])
	assert.Equal(t, "clothing", row["family"])
	assert.Equal(t, "true", row["enabled"])
	assert.Equal(t, "promo", row["groups"])
	assert.Equal(t, "men,shirts", row["categories"])
	assert.Equal(t, "Tee", row["attribute-name-ecommerce-en_US"])
	assert.Equal(t, "Té", row["attribute-name-ecommerce-fr_FR"])
	assert.Equal(t, "12.5", row["attribute-weight"])
	assert.Equal(t, "false", row["attribute-fragile"])
	assert.Equal(t, "summer,sale", row["attribute-tags"])
	assert.Equal(t, "2024-06-15", row["attribute-release_date"])
}

func TestFlattenProductIsDeterministic(t *testing.T) {
	codec := NewCodecService()
	settings := testkit.Settings()
	product := testkit.Product("tee-001")

	first, err := codec.FlattenProduct(product, settings, exportSettings())
	require.NoError(t, err)
	second, err := codec.FlattenProduct(product, settings, exportSettings())
	require.NoError(t, err)

	// Flattening does not mutate its inputs, so repeat runs over the same
	// record produce identical rows.
	assert.Equal(t, first, second)
	assert.Equal(t, testkit.Product("tee-001"), product)
}

func TestFlattenProductEmptyCellsAndFormats(t *testing.T) {
	codec := NewCodecService()
	settings := testkit.Settings()

	product := models.Product{
		SKU:    "tee-002",
		Family: "clothing",
		Attributes: []models.ProductAttributeValue{
			value("name", entry("ecommerce", "en_US", "Tee")),
			value("weight", entry("", "", 12.5)),
			value("release_date", entry("", "", "2024-06-15")),
		},
	}

	profile := models.ProfileSettings{
		Content: models.ContentSettings{Channel: "ecommerce", Locales: []string{"en_US", "fr_FR"}},
		Format:  models.FormatSettings{DecimalSeparator: ",", DateFormat: "02/01/2006"},
	}

	row, err := codec.FlattenProduct(product, settings, profile)
	require.NoError(t, err)

	// A locale with no stored entry still materializes as an empty cell.
	assert.Equal(t, "Tee", row["attribute-name-ecommerce-en_US"])
	assert.Equal(t, "", row["attribute-name-ecommerce-fr_FR"])
	assert.Equal(t, "12,5", row["attribute-weight"])
	assert.Equal(t, "15/06/2024", row["attribute-release_date"])
}

func TestUnflattenProductRoundTrip(t *testing.T) {
	codec := NewCodecService()
	settings := testkit.Settings()
	profile := exportSettings()

	original := models.Product{
		SKU:        "tee-001",
		Family:     "clothing",
		Enabled:    true,
		Categories: []string{"men"},
		Attributes: []models.ProductAttributeValue{
			value("fragile", entry("", "", false)),
			value("name",
				entry("ecommerce", "en_US", "Tee"),
				entry("ecommerce", "fr_FR", "Té")),
			value("release_date", entry("", "", "2024-06-15")),
			value("sku", entry("", "", "tee-001")),
			value("tags", entry("", "", []interface{}{"summer", "sale"})),
			value("weight", entry("", "", 12.5)),
		},
	}

	row, err := codec.FlattenProduct(original, settings, profile)
	require.NoError(t, err)

	restored, err := codec.UnflattenProduct(row, settings, profile)
	require.NoError(t, err)

	assert.Equal(t, original.SKU, restored.SKU)
	assert.Equal(t, original.Family, restored.Family)
	assert.Equal(t, original.Enabled, restored.Enabled)
	assert.Equal(t, original.Categories, restored.Categories)

	// Column keys are consumed in sorted order, which matches the
	// alphabetical attribute order above.
	assert.Equal(t, original.Attributes, restored.Attributes)
}

func TestUnflattenProductRejectsMissingSKU(t *testing.T) {
	codec := NewCodecService()
	settings := testkit.Settings()

	_, err := codec.UnflattenProduct(map[string]string{"family": "clothing"}, settings, exportSettings())
	require.Error(t, err)
}

func TestUnflattenProductIgnoresUnknownColumns(t *testing.T) {
	codec := NewCodecService()
	settings := testkit.Settings()

	row := map[string]string{
		"sku":                "tee-003",
		"family":             "clothing",
		"enabled":            "true",
		"attribute-ghost":    "boo",       // unknown attribute
		"attribute-weight-x": "12",        // tail does not match the definition
		"mystery":            "ignore me", // not an attribute column at all
		"attribute-weight":   "42",
	}

	product, err := codec.UnflattenProduct(row, settings, exportSettings())
	require.NoError(t, err)

	require.Len(t, product.Attributes, 1)
	assert.Equal(t, "weight", product.Attributes[0].Code)
	assert.Equal(t, 42.0, product.Attributes[0].Data[0].Value)
}

func TestUnflattenProductParseErrors(t *testing.T) {
	codec := NewCodecService()
	settings := testkit.Settings()

	cases := map[string]map[string]string{
		"bad number":  {"sku": "x", "attribute-weight": "heavy"},
		"bad boolean": {"sku": "x", "attribute-fragile": "maybe"},
		"bad date":    {"sku": "x", "attribute-release_date": "June"},
	}

	for name, row := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := codec.UnflattenProduct(row, settings, exportSettings())
			assert.Error(t, err)
		})
	}
}

func TestFlattenProductModel(t *testing.T) {
	codec := NewCodecService()
	settings := testkit.Settings()

	model := models.ProductModel{
		Code:       "tee",
		Family:     "clothing",
		Variant:    "by_color",
		Categories: []string{"men"},
		Attributes: []models.ProductAttributeValue{
			value("name", entry("ecommerce", "en_US", "Tee")),
		},
	}

	row, err := codec.FlattenProductModel(model, settings, exportSettings())
	require.NoError(t, err)

	assert.Equal(t, "tee", row["code"])
	assert.Equal(t, "by_color", row["variant"])
	assert.Equal(t, "men", row["categories"])
	assert.Equal(t, "Tee", row["attribute-name-ecommerce-en_US"])
}

func TestFlattenCategories(t *testing.T) {
	codec := NewCodecService()

	categories := []models.Category{
		{Code: "men", Labels: []models.LocaleValue{{Locale: "en_US", Value: "Men"}}},
		{Code: "shirts", Parent: "men", Labels: []models.LocaleValue{{Locale: "en_US", Value: "Shirts"}}},
		{Code: "accessories", Parent: "men"},
		{Code: "women", Labels: []models.LocaleValue{{Locale: "fr_FR", Value: "Femmes"}}},
		{Code: "belts", Parent: "accessories"},
	}

	header, rows := codec.FlattenCategories(categories, []string{"en_US", "fr_FR"})

	assert.Equal(t, []string{"code", "label-en_US", "label-fr_FR"}, header)
	assert.Equal(t, [][]string{
		{"men", "Men", ""},
		{"men#accessories", "", ""},
		{"men#accessories#belts", "", ""},
		{"men#shirts", "Shirts", ""},
		{"women", "", "Femmes"},
	}, rows)
}

func TestFlattenCategoriesEmptyTree(t *testing.T) {
	codec := NewCodecService()
	header, rows := codec.FlattenCategories(nil, []string{"en_US"})
	assert.Equal(t, []string{"code", "label-en_US"}, header)
	assert.Empty(t, rows)
}
