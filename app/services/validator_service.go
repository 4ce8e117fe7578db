package services

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/mosaicpim/mosaic/app/models"
	"github.com/mosaicpim/mosaic/app/repositories"
	"github.com/mosaicpim/mosaic/pkg/apperr"
	"github.com/mosaicpim/mosaic/pkg/metrics"
	"github.com/mosaicpim/mosaic/pkg/validate"
)

// SchemaProvider is the read-only schema surface the validator and codec
// consume. models.CatalogSettings satisfies it; tests can hand in anything.
type SchemaProvider interface {
	Attribute(code string) (models.AttributeDefinition, bool)
	Channel(code string) (models.Channel, bool)
	IsValidLocale(code string) bool
}

// ValidatorService checks product attribute values against the attribute
// schema. It holds no schema itself; every call receives the provider, so
// the service is safe to share across tenants.
type ValidatorService struct {
	index repositories.UniqueIndex
}

func NewValidatorService(index repositories.UniqueIndex) *ValidatorService {
	return &ValidatorService{index: index}
}

const dateLayout = "2006-01-02"

// ValidateProductAttributes walks the family's attribute list and checks
// the supplied values: required channels first, then scope/locale
// cardinality, locale availability, and the per-type rule set. The first
// violation aborts the whole operation; nothing is partially applied.
func (s *ValidatorService) ValidateProductAttributes(family models.Family, values []models.ProductAttributeValue, schema SchemaProvider) error {
	for _, fa := range family.Attributes {
		def, ok := schema.Attribute(fa.Attribute)
		if !ok {
			return apperr.NotFound("attribute", fa.Attribute)
		}

		value, supplied := findValue(values, fa.Attribute)

		for _, channel := range fa.RequiredChannels {
			if !hasNonEmptyEntryForScope(value, supplied, channel) {
				s.countFailure(def)
				return &apperr.RequiredChannelError{Attribute: fa.Attribute, Channel: channel}
			}
		}

		if !supplied {
			continue
		}

		if err := checkCardinality(def, value); err != nil {
			s.countFailure(def)
			return err
		}

		if def.IsLocaleSpecific {
			for _, entry := range value.Data {
				if entry.Locale != "" && !contains(def.AvailableLocales, entry.Locale) {
					s.countFailure(def)
					return &apperr.LocaleError{Attribute: def.Code, Locale: entry.Locale}
				}
			}
		}

		if err := checkTypeRules(def, value); err != nil {
			s.countFailure(def)
			return err
		}
	}
	return nil
}

// ValidateUniqueAttributes enforces the shape and availability of every
// supplied unique-attribute value: exactly one bare entry holding a string,
// then an existence probe against the uniqueness index.
//
// The probe and the later Record call are two separate round trips; §-style
// serializability is explicitly not provided (see repositories.UniqueIndex).
func (s *ValidatorService) ValidateUniqueAttributes(ctx context.Context, tenant string, values []models.ProductAttributeValue, schema SchemaProvider) error {
	for _, value := range values {
		def, ok := schema.Attribute(value.Code)
		if !ok || !def.IsUnique {
			continue
		}

		str, err := UniqueValue(value)
		if err != nil {
			s.countFailure(def)
			return err
		}

		taken, err := s.index.Exists(ctx, tenant, def.Code, str)
		if err != nil {
			return err
		}
		if taken {
			s.countFailure(def)
			return &apperr.DuplicateValueError{Attribute: def.Code, Value: str}
		}
	}
	return nil
}

// UniqueValue extracts the single bare string entry a unique attribute
// value must carry.
func UniqueValue(value models.ProductAttributeValue) (string, error) {
	if len(value.Data) != 1 {
		return "", &apperr.CardinalityError{
			Attribute: value.Code,
			Detail:    fmt.Sprintf("unique attribute must have exactly one value, got %d", len(value.Data)),
		}
	}

	entry := value.Data[0]
	if entry.Scope != "" || entry.Locale != "" {
		return "", &apperr.CardinalityError{
			Attribute: value.Code,
			Detail:    "unique attribute value may not carry a scope or locale",
		}
	}

	str, ok := entry.Value.(string)
	if !ok {
		return "", apperr.Invalid(value.Code, "unique attribute value must be a string")
	}
	return str, nil
}

func (s *ValidatorService) countFailure(def models.AttributeDefinition) {
	metrics.ValidationFailures.WithLabelValues(string(def.Type)).Inc()
}

// ─────────────────────────────────────────────
// Rule checks
// ─────────────────────────────────────────────

func checkCardinality(def models.AttributeDefinition, value models.ProductAttributeValue) error {
	for _, entry := range value.Data {
		if !def.Scopable && entry.Scope != "" {
			return &apperr.CardinalityError{
				Attribute: def.Code,
				Detail:    fmt.Sprintf("attribute is not scopable but an entry carries scope %q", entry.Scope),
			}
		}
		if !def.Localizable && entry.Locale != "" {
			return &apperr.CardinalityError{
				Attribute: def.Code,
				Detail:    fmt.Sprintf("attribute is not localizable but an entry carries locale %q", entry.Locale),
			}
		}
	}
	return nil
}

// checkTypeRules dispatches on the type tag, one case per AttributeType.
func checkTypeRules(def models.AttributeDefinition, value models.ProductAttributeValue) error {
	switch def.Type {
	case models.TypeText, models.TypeIdentifier:
		return checkTextEntries(def, value, def.Text)
	case models.TypeTextarea:
		maxChars := 0
		if def.Textarea != nil {
			maxChars = def.Textarea.MaxCharacters
		}
		for _, entry := range value.Data {
			if err := checkLength(def.Code, entry.Value, maxChars); err != nil {
				return err
			}
		}
		return nil
	case models.TypeBoolean:
		// Schema-level rule: a boolean attribute must declare its default.
		if def.Boolean == nil || def.Boolean.DefaultValue == nil {
			return apperr.Invalid(def.Code, "boolean attribute has no defaultValue on its schema")
		}
		return nil
	case models.TypeNumber, models.TypePrice:
		return checkNumberEntries(def, value)
	case models.TypeImage:
		return checkImageEntries(def, value)
	case models.TypeDate:
		return checkDateEntries(def, value)
	case models.TypeMultiselect, models.TypeSimpleselect:
		// Option-code referential integrity is not checked here.
		return nil
	default:
		return apperr.Invalid(def.Code, "unknown attribute type %q", def.Type)
	}
}

func checkTextEntries(def models.AttributeDefinition, value models.ProductAttributeValue, c *models.TextConstraints) error {
	for _, entry := range value.Data {
		str, ok := entry.Value.(string)
		if !ok {
			return apperr.Invalid(def.Code, "value must be a string")
		}

		if c == nil {
			continue
		}

		if c.MaxCharacters > 0 && len([]rune(str)) > c.MaxCharacters {
			return apperr.Invalid(def.Code, "value exceeds %d characters", c.MaxCharacters)
		}

		switch c.ValidationRule {
		case models.RuleEmail:
			if !validate.Email(str) {
				return apperr.Invalid(def.Code, "value is not a valid email address")
			}
		case models.RuleURL:
			if !validate.URL(str) {
				return apperr.Invalid(def.Code, "value is not a valid URL")
			}
		case models.RuleRegexp:
			if c.ValidationRegexp == "" {
				return apperr.Invalid(def.Code, "validationRule is regexp but no pattern is set")
			}
			re, err := regexp.Compile(c.ValidationRegexp)
			if err != nil {
				return apperr.Invalid(def.Code, "invalid validation pattern: %v", err)
			}
			if !re.MatchString(str) {
				return apperr.Invalid(def.Code, "value does not match pattern %s", c.ValidationRegexp)
			}
		}
	}
	return nil
}

func checkLength(code string, v interface{}, maxChars int) error {
	str, ok := v.(string)
	if !ok {
		return apperr.Invalid(code, "value must be a string")
	}
	if maxChars > 0 && len([]rune(str)) > maxChars {
		return apperr.Invalid(code, "value exceeds %d characters", maxChars)
	}
	return nil
}

func checkNumberEntries(def models.AttributeDefinition, value models.ProductAttributeValue) error {
	c := def.Number
	for _, entry := range value.Data {
		num, ok := asFloat(entry.Value)
		if !ok {
			return apperr.Invalid(def.Code, "value must be a number")
		}

		if c == nil {
			continue
		}

		if !c.NegativeAllowed && num < 0 {
			return apperr.Invalid(def.Code, "negative values are not allowed")
		}
		if c.MinNumber != nil && num < *c.MinNumber {
			return apperr.Invalid(def.Code, "value is below the minimum of %v", *c.MinNumber)
		}
		if c.MaxNumber != nil && num > *c.MaxNumber {
			return apperr.Invalid(def.Code, "value is above the maximum of %v", *c.MaxNumber)
		}
		if !c.DecimalsAllowed && num != math.Trunc(num) {
			return apperr.Invalid(def.Code, "decimal values are not allowed")
		}
	}
	return nil
}

func checkImageEntries(def models.AttributeDefinition, value models.ProductAttributeValue) error {
	for _, entry := range value.Data {
		str, ok := entry.Value.(string)
		if !ok {
			return apperr.Invalid(def.Code, "value must be a file path")
		}

		if def.Image == nil || len(def.Image.AllowedExtensions) == 0 {
			continue
		}

		dot := strings.LastIndex(str, ".")
		if dot < 0 {
			return apperr.Invalid(def.Code, "file %q has no extension", str)
		}
		ext := strings.ToLower(str[dot+1:])
		if !contains(def.Image.AllowedExtensions, ext) {
			return apperr.Invalid(def.Code, "extension %q is not allowed", ext)
		}
	}
	return nil
}

func checkDateEntries(def models.AttributeDefinition, value models.ProductAttributeValue) error {
	for _, entry := range value.Data {
		str, ok := entry.Value.(string)
		if !ok {
			return apperr.Invalid(def.Code, "value must be a date string")
		}

		date, err := time.Parse(dateLayout, str)
		if err != nil {
			return apperr.Invalid(def.Code, "value %q is not a valid date", str)
		}

		if def.Date == nil {
			continue
		}

		if def.Date.MinDate != "" {
			min, err := time.Parse(dateLayout, def.Date.MinDate)
			if err == nil && date.Before(min) {
				return apperr.Invalid(def.Code, "date is before the minimum %s", def.Date.MinDate)
			}
		}
		if def.Date.MaxDate != "" {
			max, err := time.Parse(dateLayout, def.Date.MaxDate)
			if err == nil && date.After(max) {
				return apperr.Invalid(def.Code, "date is after the maximum %s", def.Date.MaxDate)
			}
		}
	}
	return nil
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

func findValue(values []models.ProductAttributeValue, code string) (models.ProductAttributeValue, bool) {
	for _, v := range values {
		if v.Code == code {
			return v, true
		}
	}
	return models.ProductAttributeValue{}, false
}

func hasNonEmptyEntryForScope(value models.ProductAttributeValue, supplied bool, channel string) bool {
	if !supplied {
		return false
	}
	for _, entry := range value.Data {
		if entry.Scope == channel && nonEmpty(entry.Value) {
			return true
		}
	}
	return false
}

func nonEmpty(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case []interface{}:
		return len(val) > 0
	case []string:
		return len(val) > 0
	default:
		return true
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
