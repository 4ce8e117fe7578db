package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosaicpim/mosaic/app/models"
	"github.com/mosaicpim/mosaic/app/repositories"
	"github.com/mosaicpim/mosaic/pkg/apperr"
	"github.com/mosaicpim/mosaic/pkg/testkit"
)

type registryFixture struct {
	svc      *RegistryService
	products *repositories.ProductRepository
	token    string
}

func seedRegistry(t *testing.T) registryFixture {
	t.Helper()

	states := testkit.NewMemoryStateStore()
	settings := repositories.NewSettingsRepository(states)
	products := repositories.NewProductRepository(states)

	catalog := testkit.Settings()
	require.NoError(t, settings.Save(testkit.Tenant, catalog))

	return registryFixture{
		svc:      NewRegistryService(settings, products),
		products: products,
		token:    catalog.UpdateToken,
	}
}

func textAttribute(code string) models.AttributeDefinition {
	return models.AttributeDefinition{
		Code:  code,
		Type:  models.TypeText,
		Group: models.GroupOther,
		Text:  &models.TextConstraints{MaxCharacters: 255},
	}
}

func TestMutationRotatesUpdateToken(t *testing.T) {
	f := seedRegistry(t)

	updated, err := f.svc.CreateAttribute(testkit.Tenant, textAttribute("material"), f.token)
	require.NoError(t, err)
	assert.NotEmpty(t, updated.UpdateToken)
	assert.NotEqual(t, f.token, updated.UpdateToken)
}

func TestStaleTokenRejectsMutation(t *testing.T) {
	f := seedRegistry(t)

	_, err := f.svc.CreateAttribute(testkit.Tenant, textAttribute("material"), f.token)
	require.NoError(t, err)

	// Replaying with the pre-mutation token must fail and leave the
	// aggregate untouched.
	_, err = f.svc.CreateAttribute(testkit.Tenant, textAttribute("lining"), f.token)
	var stale *apperr.StaleTokenError
	require.ErrorAs(t, err, &stale)

	current, err := f.svc.Settings(testkit.Tenant)
	require.NoError(t, err)
	_, exists := current.Attribute("lining")
	assert.False(t, exists)
}

func TestCreateAttribute(t *testing.T) {
	f := seedRegistry(t)

	t.Run("appends to the schema", func(t *testing.T) {
		updated, err := f.svc.CreateAttribute(testkit.Tenant, textAttribute("material"), f.token)
		require.NoError(t, err)
		_, exists := updated.Attribute("material")
		assert.True(t, exists)
		f.token = updated.UpdateToken
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		_, err := f.svc.CreateAttribute(testkit.Tenant, textAttribute("material"), f.token)
		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("rejects malformed codes", func(t *testing.T) {
		_, err := f.svc.CreateAttribute(testkit.Tenant, textAttribute("bad-code!"), f.token)
		var ve *apperr.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("rejects unknown groups", func(t *testing.T) {
		def := textAttribute("lining")
		def.Group = "nope"
		_, err := f.svc.CreateAttribute(testkit.Tenant, def, f.token)
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("rejects a second identifier", func(t *testing.T) {
		def := models.AttributeDefinition{
			Code: "ean", Type: models.TypeIdentifier, Group: models.GroupOther,
			IsUnique: true,
			Text:     &models.TextConstraints{MaxCharacters: 64},
		}
		_, err := f.svc.CreateAttribute(testkit.Tenant, def, f.token)
		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("initializes select options", func(t *testing.T) {
		def := models.AttributeDefinition{
			Code: "season", Type: models.TypeSimpleselect, Group: models.GroupOther,
		}
		updated, err := f.svc.CreateAttribute(testkit.Tenant, def, f.token)
		require.NoError(t, err)
		options, ok := updated.Options["season"]
		assert.True(t, ok)
		assert.Empty(t, options)
		f.token = updated.UpdateToken
	})
}

func TestAttributeShapeRules(t *testing.T) {
	f := seedRegistry(t)

	cases := map[string]models.AttributeDefinition{
		"unique on a date": {
			Code: "born", Type: models.TypeDate, Group: models.GroupOther, IsUnique: true,
		},
		"unique and scopable": {
			Code: "ref", Type: models.TypeText, Group: models.GroupOther,
			IsUnique: true, Scopable: true,
		},
		"locale specific without locales": {
			Code: "motto", Type: models.TypeText, Group: models.GroupOther,
			Localizable: true, IsLocaleSpecific: true,
		},
		"boolean without default": {
			Code: "active", Type: models.TypeBoolean, Group: models.GroupOther,
		},
		"image over size cap": {
			Code: "photo", Type: models.TypeImage, Group: models.GroupOther,
			Image: &models.ImageConstraints{MaxFileSizeInMB: 10},
		},
		"unknown type": {
			Code: "odd", Type: "hologram", Group: models.GroupOther,
		},
	}

	for name, def := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.CreateAttribute(testkit.Tenant, def, f.token)
			var ve *apperr.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestUpdateAttribute(t *testing.T) {
	f := seedRegistry(t)

	t.Run("type is immutable", func(t *testing.T) {
		def := models.AttributeDefinition{
			Code: "weight", Type: models.TypeText, Group: models.GroupOther,
			Text: &models.TextConstraints{},
		}
		_, err := f.svc.UpdateAttribute(testkit.Tenant, def, f.token)
		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("unknown attribute", func(t *testing.T) {
		_, err := f.svc.UpdateAttribute(testkit.Tenant, textAttribute("ghost"), f.token)
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("replaces constraints in place", func(t *testing.T) {
		def := textAttribute("slogan")
		def.Localizable = true
		def.IsLocaleSpecific = true
		def.AvailableLocales = []string{"fr_FR", "de_DE"}
		updated, err := f.svc.UpdateAttribute(testkit.Tenant, def, f.token)
		require.NoError(t, err)
		got, _ := updated.Attribute("slogan")
		assert.Equal(t, []string{"fr_FR", "de_DE"}, got.AvailableLocales)
	})
}

func TestDeleteAttribute(t *testing.T) {
	f := seedRegistry(t)

	t.Run("identifier is protected", func(t *testing.T) {
		_, err := f.svc.DeleteAttribute(testkit.Tenant, "sku", f.token)
		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("family membership blocks deletion", func(t *testing.T) {
		_, err := f.svc.DeleteAttribute(testkit.Tenant, "weight", f.token)
		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("free attribute goes away with its options", func(t *testing.T) {
		def := models.AttributeDefinition{
			Code: "season", Type: models.TypeSimpleselect, Group: models.GroupOther,
		}
		created, err := f.svc.CreateAttribute(testkit.Tenant, def, f.token)
		require.NoError(t, err)

		updated, err := f.svc.DeleteAttribute(testkit.Tenant, "season", created.UpdateToken)
		require.NoError(t, err)
		_, exists := updated.Attribute("season")
		assert.False(t, exists)
		_, hasOptions := updated.Options["season"]
		assert.False(t, hasOptions)
		f.token = updated.UpdateToken
	})

	t.Run("stored product values block deletion", func(t *testing.T) {
		created, err := f.svc.CreateAttribute(testkit.Tenant, textAttribute("note"), f.token)
		require.NoError(t, err)

		product := testkit.Product("tee-001")
		product.Attributes = append(product.Attributes, models.ProductAttributeValue{
			Code: "note", Data: []models.ValueEntry{{Value: "handle with care"}},
		})
		_, err = f.products.PutProduct(testkit.Tenant, product, "")
		require.NoError(t, err)

		_, err = f.svc.DeleteAttribute(testkit.Tenant, "note", created.UpdateToken)
		assert.True(t, apperr.IsConflict(err))
	})
}

func TestAttributeGroups(t *testing.T) {
	f := seedRegistry(t)

	updated, err := f.svc.CreateGroup(testkit.Tenant, models.AttributeGroup{Code: "marketing"}, f.token)
	require.NoError(t, err)

	_, err = f.svc.CreateGroup(testkit.Tenant, models.AttributeGroup{Code: "marketing"}, updated.UpdateToken)
	assert.True(t, apperr.IsConflict(err))

	_, err = f.svc.DeleteGroup(testkit.Tenant, models.GroupOther, updated.UpdateToken)
	assert.True(t, apperr.IsConflict(err))

	updated, err = f.svc.DeleteGroup(testkit.Tenant, "marketing", updated.UpdateToken)
	require.NoError(t, err)
	_, exists := updated.Group("marketing")
	assert.False(t, exists)
}

func TestDeleteGroupWithAttributes(t *testing.T) {
	f := seedRegistry(t)

	created, err := f.svc.CreateGroup(testkit.Tenant, models.AttributeGroup{Code: "marketing"}, f.token)
	require.NoError(t, err)

	def := textAttribute("tagline")
	def.Group = "marketing"
	created, err = f.svc.CreateAttribute(testkit.Tenant, def, created.UpdateToken)
	require.NoError(t, err)

	_, err = f.svc.DeleteGroup(testkit.Tenant, "marketing", created.UpdateToken)
	assert.True(t, apperr.IsConflict(err))
}

func TestSelectOptions(t *testing.T) {
	f := seedRegistry(t)

	t.Run("non-select attribute carries no options", func(t *testing.T) {
		_, err := f.svc.AddSelectOption(testkit.Tenant, "weight", models.SelectOption{Code: "heavy"}, f.token)
		var ve *apperr.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("duplicate option", func(t *testing.T) {
		_, err := f.svc.AddSelectOption(testkit.Tenant, "color", models.SelectOption{Code: "red"}, f.token)
		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("add then remove", func(t *testing.T) {
		updated, err := f.svc.AddSelectOption(testkit.Tenant, "color", models.SelectOption{Code: "black"}, f.token)
		require.NoError(t, err)
		assert.Len(t, updated.Options["color"], 4)

		updated, err = f.svc.DeleteSelectOption(testkit.Tenant, "color", "black", updated.UpdateToken)
		require.NoError(t, err)
		assert.Len(t, updated.Options["color"], 3)
		f.token = updated.UpdateToken
	})

	t.Run("missing option", func(t *testing.T) {
		_, err := f.svc.DeleteSelectOption(testkit.Tenant, "color", "chartreuse", f.token)
		assert.True(t, apperr.IsNotFound(err))
	})
}

func TestCreateFamily(t *testing.T) {
	f := seedRegistry(t)

	t.Run("identifier becomes the implicit first attribute", func(t *testing.T) {
		family := models.Family{
			Code: "shoes",
			Attributes: []models.FamilyAttribute{
				{Attribute: "name"},
				{Attribute: "weight"},
			},
		}
		updated, err := f.svc.CreateFamily(testkit.Tenant, family, f.token)
		require.NoError(t, err)

		got, _ := updated.Family("shoes")
		assert.Equal(t, []string{"sku", "name", "weight"}, got.AttributeCodes())
		assert.Equal(t, "sku", got.AttributeAsLabel)
		f.token = updated.UpdateToken
	})

	t.Run("duplicate family", func(t *testing.T) {
		_, err := f.svc.CreateFamily(testkit.Tenant, models.Family{Code: "shoes"}, f.token)
		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("unknown attribute", func(t *testing.T) {
		family := models.Family{
			Code:       "hats",
			Attributes: []models.FamilyAttribute{{Attribute: "brim"}},
		}
		_, err := f.svc.CreateFamily(testkit.Tenant, family, f.token)
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("unknown required channel", func(t *testing.T) {
		family := models.Family{
			Code: "hats",
			Attributes: []models.FamilyAttribute{
				{Attribute: "name", RequiredChannels: []string{"kiosk"}},
			},
		}
		_, err := f.svc.CreateFamily(testkit.Tenant, family, f.token)
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("label must belong to the family", func(t *testing.T) {
		family := models.Family{
			Code:             "hats",
			AttributeAsLabel: "description",
			Attributes:       []models.FamilyAttribute{{Attribute: "name"}},
		}
		_, err := f.svc.CreateFamily(testkit.Tenant, family, f.token)
		var ve *apperr.ValidationError
		assert.ErrorAs(t, err, &ve)
	})
}

func TestDeleteFamily(t *testing.T) {
	f := seedRegistry(t)

	t.Run("products block deletion", func(t *testing.T) {
		_, err := f.products.PutProduct(testkit.Tenant, testkit.Product("tee-001"), "")
		require.NoError(t, err)

		_, err = f.svc.DeleteFamily(testkit.Tenant, "clothing", f.token)
		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("unknown family", func(t *testing.T) {
		_, err := f.svc.DeleteFamily(testkit.Tenant, "furniture", f.token)
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("empty family deletes", func(t *testing.T) {
		created, err := f.svc.CreateFamily(testkit.Tenant, models.Family{Code: "shoes"}, f.token)
		require.NoError(t, err)

		updated, err := f.svc.DeleteFamily(testkit.Tenant, "shoes", created.UpdateToken)
		require.NoError(t, err)
		_, exists := updated.Family("shoes")
		assert.False(t, exists)
	})
}

func TestVariants(t *testing.T) {
	f := seedRegistry(t)

	t.Run("axis must be a select or boolean", func(t *testing.T) {
		variant := models.FamilyVariant{Code: "by_name", Axes: []string{"name"}}
		_, err := f.svc.CreateVariant(testkit.Tenant, "clothing", variant, f.token)
		var ve *apperr.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("axis must belong to the family", func(t *testing.T) {
		created, err := f.svc.CreateAttribute(testkit.Tenant, models.AttributeDefinition{
			Code: "season", Type: models.TypeSimpleselect, Group: models.GroupOther,
		}, f.token)
		require.NoError(t, err)
		f.token = created.UpdateToken

		variant := models.FamilyVariant{Code: "by_season", Axes: []string{"season"}}
		_, err = f.svc.CreateVariant(testkit.Tenant, "clothing", variant, f.token)
		var ve *apperr.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("duplicate variant", func(t *testing.T) {
		variant := models.FamilyVariant{Code: "by_color", Axes: []string{"color"}}
		_, err := f.svc.CreateVariant(testkit.Tenant, "clothing", variant, f.token)
		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("boolean axis is accepted", func(t *testing.T) {
		variant := models.FamilyVariant{
			Code: "by_fragility", Axes: []string{"fragile"}, Attributes: []string{"weight"},
		}
		updated, err := f.svc.CreateVariant(testkit.Tenant, "clothing", variant, f.token)
		require.NoError(t, err)

		family, _ := updated.Family("clothing")
		_, exists := family.Variant("by_fragility")
		assert.True(t, exists)

		updated, err = f.svc.DeleteVariant(testkit.Tenant, "clothing", "by_fragility", updated.UpdateToken)
		require.NoError(t, err)
		family, _ = updated.Family("clothing")
		_, exists = family.Variant("by_fragility")
		assert.False(t, exists)
	})
}

func TestChannels(t *testing.T) {
	f := seedRegistry(t)

	t.Run("locales must be enabled", func(t *testing.T) {
		channel := models.Channel{Code: "mobile", Locales: []string{"ja_JP"}}
		_, err := f.svc.CreateChannel(testkit.Tenant, channel, f.token)
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("required channel cannot be deleted", func(t *testing.T) {
		// The clothing family requires "name" on ecommerce.
		_, err := f.svc.DeleteChannel(testkit.Tenant, "ecommerce", f.token)
		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("unreferenced channel deletes", func(t *testing.T) {
		updated, err := f.svc.DeleteChannel(testkit.Tenant, "print", f.token)
		require.NoError(t, err)
		_, exists := updated.Channel("print")
		assert.False(t, exists)
	})
}

func TestToggleCurrencyAndLocale(t *testing.T) {
	f := seedRegistry(t)

	t.Run("disable one of two currencies", func(t *testing.T) {
		updated, err := f.svc.ToggleCurrency(testkit.Tenant, "EUR", false, f.token)
		require.NoError(t, err)
		assert.False(t, updated.IsValidCurrency("EUR"))
		f.token = updated.UpdateToken
	})

	t.Run("last currency stays enabled", func(t *testing.T) {
		_, err := f.svc.ToggleCurrency(testkit.Tenant, "USD", false, f.token)
		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("unknown currency", func(t *testing.T) {
		_, err := f.svc.ToggleCurrency(testkit.Tenant, "JPY", true, f.token)
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("disable one of two locales", func(t *testing.T) {
		updated, err := f.svc.ToggleLocale(testkit.Tenant, "fr_FR", false, f.token)
		require.NoError(t, err)
		assert.False(t, updated.IsValidLocale("fr_FR"))
		f.token = updated.UpdateToken
	})

	t.Run("last locale stays enabled", func(t *testing.T) {
		_, err := f.svc.ToggleLocale(testkit.Tenant, "en_US", false, f.token)
		assert.True(t, apperr.IsConflict(err))
	})
}

func TestProfiles(t *testing.T) {
	f := seedRegistry(t)

	t.Run("create", func(t *testing.T) {
		updated, err := f.svc.CreateProfile(testkit.Tenant,
			testkit.ExportProfile("weekly", models.ConnectorCSV), f.token)
		require.NoError(t, err)
		_, exists := updated.Profile("weekly")
		assert.True(t, exists)
		f.token = updated.UpdateToken
	})

	t.Run("duplicate", func(t *testing.T) {
		_, err := f.svc.CreateProfile(testkit.Tenant,
			testkit.ExportProfile("weekly", models.ConnectorCSV), f.token)
		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("unknown job kind", func(t *testing.T) {
		profile := testkit.ExportProfile("odd", models.ConnectorCSV)
		profile.Job = "telepathy"
		_, err := f.svc.CreateProfile(testkit.Tenant, profile, f.token)
		var ve *apperr.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("unknown connector", func(t *testing.T) {
		profile := testkit.ExportProfile("odd", "parquet")
		_, err := f.svc.CreateProfile(testkit.Tenant, profile, f.token)
		var ve *apperr.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("content must reference known pieces", func(t *testing.T) {
		profile := testkit.ExportProfile("odd", models.ConnectorCSV)
		profile.Settings.Content.Attributes = []string{"nonexistent"}
		_, err := f.svc.CreateProfile(testkit.Tenant, profile, f.token)
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("update swaps connector", func(t *testing.T) {
		profile := testkit.ExportProfile("weekly", models.ConnectorXLSX)
		updated, err := f.svc.UpdateProfile(testkit.Tenant, profile, f.token)
		require.NoError(t, err)
		got, _ := updated.Profile("weekly")
		assert.Equal(t, models.ConnectorXLSX, got.Connector)
		f.token = updated.UpdateToken
	})

	t.Run("remove", func(t *testing.T) {
		updated, err := f.svc.RemoveProfile(testkit.Tenant, "weekly", f.token)
		require.NoError(t, err)
		_, exists := updated.Profile("weekly")
		assert.False(t, exists)

		_, err = f.svc.RemoveProfile(testkit.Tenant, "weekly", updated.UpdateToken)
		assert.True(t, apperr.IsNotFound(err))
	})
}
