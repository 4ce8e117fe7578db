package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosaicpim/mosaic/app/models"
	"github.com/mosaicpim/mosaic/pkg/apperr"
	"github.com/mosaicpim/mosaic/pkg/testkit"
)

func value(code string, entries ...models.ValueEntry) models.ProductAttributeValue {
	return models.ProductAttributeValue{Code: code, Data: entries}
}

func entry(scope, locale string, v interface{}) models.ValueEntry {
	return models.ValueEntry{Scope: scope, Locale: locale, Value: v}
}

func validValues() []models.ProductAttributeValue {
	return []models.ProductAttributeValue{
		value("sku", entry("", "", "tee-001")),
		value("name", entry("ecommerce", "en_US", "abcde")),
	}
}

func newValidator() (*ValidatorService, *testkit.MemoryUniqueIndex) {
	index := testkit.NewMemoryUniqueIndex()
	return NewValidatorService(index), index
}

func TestValidateProductAttributesAcceptsValidProduct(t *testing.T) {
	v, _ := newValidator()
	settings := testkit.Settings()
	family, _ := settings.Family("clothing")

	err := v.ValidateProductAttributes(family, validValues(), settings)
	assert.NoError(t, err)
}

func TestValidateProductAttributesRequiredChannel(t *testing.T) {
	v, _ := newValidator()
	settings := testkit.Settings()
	family, _ := settings.Family("clothing")

	cases := map[string][]models.ProductAttributeValue{
		"missing entirely": {
			value("sku", entry("", "", "tee-001")),
		},
		"empty value on the required channel": {
			value("sku", entry("", "", "tee-001")),
			value("name", entry("ecommerce", "en_US", "")),
		},
		"value only on another channel": {
			value("sku", entry("", "", "tee-001")),
			value("name", entry("print", "en_US", "abcde")),
		},
	}

	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			err := v.ValidateProductAttributes(family, values, settings)
			var rce *apperr.RequiredChannelError
			require.ErrorAs(t, err, &rce)
			assert.Equal(t, "name", rce.Attribute)
			assert.Equal(t, "ecommerce", rce.Channel)
		})
	}
}

func TestValidateProductAttributesSkipsAbsentOptional(t *testing.T) {
	v, _ := newValidator()
	settings := testkit.Settings()
	family, _ := settings.Family("clothing")

	// Only the required attributes are supplied; weight, fragile, picture,
	// release_date, color, tags and slogan are all absent and must pass.
	err := v.ValidateProductAttributes(family, validValues(), settings)
	assert.NoError(t, err)
}

func TestValidateProductAttributesCardinality(t *testing.T) {
	v, _ := newValidator()
	settings := testkit.Settings()
	family, _ := settings.Family("clothing")

	t.Run("scope on non-scopable attribute", func(t *testing.T) {
		values := append(validValues(),
			value("weight", entry("ecommerce", "", 12.0)))
		err := v.ValidateProductAttributes(family, values, settings)
		var ce *apperr.CardinalityError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "weight", ce.Attribute)
	})

	t.Run("locale on non-localizable attribute", func(t *testing.T) {
		values := append(validValues(),
			value("weight", entry("", "en_US", 12.0)))
		err := v.ValidateProductAttributes(family, values, settings)
		var ce *apperr.CardinalityError
		require.ErrorAs(t, err, &ce)
	})
}

func TestValidateProductAttributesLocaleSpecific(t *testing.T) {
	v, _ := newValidator()
	settings := testkit.Settings()
	family, _ := settings.Family("clothing")

	t.Run("allowed locale passes", func(t *testing.T) {
		values := append(validValues(),
			value("slogan", entry("", "fr_FR", "toujours")))
		assert.NoError(t, v.ValidateProductAttributes(family, values, settings))
	})

	t.Run("other locale is rejected", func(t *testing.T) {
		values := append(validValues(),
			value("slogan", entry("", "en_US", "always")))
		err := v.ValidateProductAttributes(family, values, settings)
		var le *apperr.LocaleError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, "slogan", le.Attribute)
		assert.Equal(t, "en_US", le.Locale)
	})
}

func TestValidateProductAttributesTextBoundary(t *testing.T) {
	v, _ := newValidator()
	settings := testkit.Settings()
	family, _ := settings.Family("clothing")

	// name caps at 5 characters: "abcde" passes, "abcdef" does not.
	ok := []models.ProductAttributeValue{
		value("sku", entry("", "", "tee-001")),
		value("name", entry("ecommerce", "en_US", "abcde")),
	}
	assert.NoError(t, v.ValidateProductAttributes(family, ok, settings))

	tooLong := []models.ProductAttributeValue{
		value("sku", entry("", "", "tee-001")),
		value("name", entry("ecommerce", "en_US", "abcdef")),
	}
	err := v.ValidateProductAttributes(family, tooLong, settings)
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Attribute)
}

func TestValidateProductAttributesNumberRules(t *testing.T) {
	v, _ := newValidator()
	settings := testkit.Settings()
	family, _ := settings.Family("clothing")

	t.Run("zero is within bounds", func(t *testing.T) {
		values := append(validValues(), value("weight", entry("", "", 0.0)))
		assert.NoError(t, v.ValidateProductAttributes(family, values, settings))
	})

	t.Run("negative rejected", func(t *testing.T) {
		values := append(validValues(), value("weight", entry("", "", -1.0)))
		err := v.ValidateProductAttributes(family, values, settings)
		var ve *apperr.ValidationError
		require.ErrorAs(t, err, &ve)
	})

	t.Run("above maximum rejected", func(t *testing.T) {
		values := append(validValues(), value("weight", entry("", "", 500.5)))
		err := v.ValidateProductAttributes(family, values, settings)
		var ve *apperr.ValidationError
		require.ErrorAs(t, err, &ve)
	})

	t.Run("non-number rejected", func(t *testing.T) {
		values := append(validValues(), value("weight", entry("", "", "heavy")))
		err := v.ValidateProductAttributes(family, values, settings)
		var ve *apperr.ValidationError
		require.ErrorAs(t, err, &ve)
	})
}

func TestValidateProductAttributesEmailRule(t *testing.T) {
	v, _ := newValidator()
	settings := testkit.Settings()
	family, _ := settings.Family("clothing")

	good := append(validValues(), value("contact", entry("", "", "sales@example.com")))
	assert.NoError(t, v.ValidateProductAttributes(family, good, settings))

	bad := append(validValues(), value("contact", entry("", "", "not-an-email")))
	err := v.ValidateProductAttributes(family, bad, settings)
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "contact", ve.Attribute)
}

func TestValidateProductAttributesImageExtension(t *testing.T) {
	v, _ := newValidator()
	settings := testkit.Settings()
	family, _ := settings.Family("clothing")

	good := append(validValues(), value("picture", entry("", "", "front.JPG")))
	assert.NoError(t, v.ValidateProductAttributes(family, good, settings))

	bad := append(validValues(), value("picture", entry("", "", "front.gif")))
	err := v.ValidateProductAttributes(family, bad, settings)
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestValidateProductAttributesDateBounds(t *testing.T) {
	v, _ := newValidator()
	settings := testkit.Settings()
	family, _ := settings.Family("clothing")

	good := append(validValues(), value("release_date", entry("", "", "2024-06-15")))
	assert.NoError(t, v.ValidateProductAttributes(family, good, settings))

	for name, date := range map[string]string{
		"before minimum": "2019-12-31",
		"after maximum":  "2031-01-01",
		"not a date":     "June 15th",
	} {
		t.Run(name, func(t *testing.T) {
			values := append(validValues(), value("release_date", entry("", "", date)))
			err := v.ValidateProductAttributes(family, values, settings)
			var ve *apperr.ValidationError
			require.ErrorAs(t, err, &ve)
		})
	}
}

func TestValidateProductAttributesUnknownFamilyAttribute(t *testing.T) {
	v, _ := newValidator()
	settings := testkit.Settings()
	family := models.Family{
		Code:       "broken",
		Attributes: []models.FamilyAttribute{{Attribute: "ghost"}},
	}

	err := v.ValidateProductAttributes(family, nil, settings)
	assert.True(t, apperr.IsNotFound(err))
}

func TestValidateUniqueAttributes(t *testing.T) {
	ctx := context.Background()
	v, index := newValidator()
	settings := testkit.Settings()

	t.Run("free value passes", func(t *testing.T) {
		err := v.ValidateUniqueAttributes(ctx, testkit.Tenant,
			[]models.ProductAttributeValue{value("sku", entry("", "", "tee-001"))}, settings)
		assert.NoError(t, err)
	})

	t.Run("taken value is rejected", func(t *testing.T) {
		require.NoError(t, index.Record(ctx, testkit.Tenant, "sku", "tee-002"))

		err := v.ValidateUniqueAttributes(ctx, testkit.Tenant,
			[]models.ProductAttributeValue{value("sku", entry("", "", "tee-002"))}, settings)
		var de *apperr.DuplicateValueError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "sku", de.Attribute)
		assert.Equal(t, "tee-002", de.Value)
	})

	t.Run("same value for another tenant passes", func(t *testing.T) {
		err := v.ValidateUniqueAttributes(ctx, "globex",
			[]models.ProductAttributeValue{value("sku", entry("", "", "tee-002"))}, settings)
		assert.NoError(t, err)
	})

	t.Run("two entries rejected", func(t *testing.T) {
		err := v.ValidateUniqueAttributes(ctx, testkit.Tenant,
			[]models.ProductAttributeValue{
				value("sku", entry("", "", "a"), entry("", "", "b")),
			}, settings)
		var ce *apperr.CardinalityError
		require.ErrorAs(t, err, &ce)
	})

	t.Run("scoped entry rejected", func(t *testing.T) {
		err := v.ValidateUniqueAttributes(ctx, testkit.Tenant,
			[]models.ProductAttributeValue{
				value("sku", entry("ecommerce", "", "tee-003")),
			}, settings)
		var ce *apperr.CardinalityError
		require.ErrorAs(t, err, &ce)
	})

	t.Run("non-string entry rejected", func(t *testing.T) {
		err := v.ValidateUniqueAttributes(ctx, testkit.Tenant,
			[]models.ProductAttributeValue{value("sku", entry("", "", 42))}, settings)
		var ve *apperr.ValidationError
		require.ErrorAs(t, err, &ve)
	})

	t.Run("non-unique attributes are ignored", func(t *testing.T) {
		err := v.ValidateUniqueAttributes(ctx, testkit.Tenant,
			[]models.ProductAttributeValue{
				value("name", entry("ecommerce", "en_US", "abcde")),
			}, settings)
		assert.NoError(t, err)
	})
}

// The uniqueness probe and the later record are two separate calls. Two
// writers that both probe before either records therefore both pass; the
// first write wins silently. This pins down the window rather than hiding it.
func TestUniqueProbeThenRecordWindow(t *testing.T) {
	ctx := context.Background()
	v, index := newValidator()
	settings := testkit.Settings()

	values := func() []models.ProductAttributeValue {
		return []models.ProductAttributeValue{value("sku", entry("", "", "tee-100"))}
	}

	// Both probes run before either record, as two interleaved saves would.
	require.NoError(t, v.ValidateUniqueAttributes(ctx, testkit.Tenant, values(), settings))
	require.NoError(t, v.ValidateUniqueAttributes(ctx, testkit.Tenant, values(), settings))

	require.NoError(t, index.Record(ctx, testkit.Tenant, "sku", "tee-100"))
	require.NoError(t, index.Record(ctx, testkit.Tenant, "sku", "tee-100"))

	// Only afterwards does the index report the value as taken.
	err := v.ValidateUniqueAttributes(ctx, testkit.Tenant, values(), settings)
	var de *apperr.DuplicateValueError
	assert.ErrorAs(t, err, &de)
}
