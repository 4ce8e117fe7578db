package models

// AttributeType tags the variant of an AttributeDefinition. Validation and
// flattening switch exhaustively over this tag; adding a type means the
// compiler points at every switch that must learn about it.
type AttributeType string

const (
	TypeText         AttributeType = "text"
	TypeTextarea     AttributeType = "textarea"
	TypeBoolean      AttributeType = "boolean"
	TypeIdentifier   AttributeType = "identifier"
	TypeNumber       AttributeType = "number"
	TypeImage        AttributeType = "image"
	TypeMultiselect  AttributeType = "multiselect"
	TypeSimpleselect AttributeType = "simpleselect"
	TypeDate         AttributeType = "date"
	TypePrice        AttributeType = "price"
)

// AttributeTypes lists every valid type tag.
var AttributeTypes = []AttributeType{
	TypeText, TypeTextarea, TypeBoolean, TypeIdentifier, TypeNumber,
	TypeImage, TypeMultiselect, TypeSimpleselect, TypeDate, TypePrice,
}

// Valid reports whether t is a known type tag.
func (t AttributeType) Valid() bool {
	for _, known := range AttributeTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ValidationRule selects the pattern applied to text/identifier values.
type ValidationRule string

const (
	RuleRegexp ValidationRule = "regexp"
	RuleEmail  ValidationRule = "email"
	RuleURL    ValidationRule = "url"
)

// LocaleValue is a single localized label.
type LocaleValue struct {
	Locale string `json:"locale"`
	Value  string `json:"value"`
}

// GroupOther is the reserved default attribute group.
const GroupOther = "other"

// AttributeGroup partitions attributes; every attribute belongs to exactly
// one group.
type AttributeGroup struct {
	Code   string        `json:"code"`
	Labels []LocaleValue `json:"labels,omitempty"`
}

// SelectOption is one choice attached to a simpleselect/multiselect
// attribute.
type SelectOption struct {
	Code   string        `json:"code"`
	Labels []LocaleValue `json:"labels,omitempty"`
}

// TextConstraints holds the extra fields of text and identifier attributes.
type TextConstraints struct {
	MaxCharacters    int            `json:"maxCharacters,omitempty"`
	ValidationRule   ValidationRule `json:"validationRule,omitempty"`
	ValidationRegexp string         `json:"validationRegexp,omitempty"`
}

// TextareaConstraints holds the extra fields of textarea attributes.
type TextareaConstraints struct {
	MaxCharacters int `json:"maxCharacters,omitempty"`
}

// BooleanConstraints holds the extra fields of boolean attributes.
// DefaultValue must be set on the schema; the validator enforces this.
type BooleanConstraints struct {
	DefaultValue *bool `json:"defaultValue,omitempty"`
}

// NumberConstraints holds the extra fields of number and price attributes.
type NumberConstraints struct {
	NegativeAllowed bool     `json:"negativeAllowed"`
	DecimalsAllowed bool     `json:"decimalsAllowed"`
	MinNumber       *float64 `json:"minNumber,omitempty"`
	MaxNumber       *float64 `json:"maxNumber,omitempty"`
}

// ImageConstraints holds the extra fields of image attributes.
type ImageConstraints struct {
	MaxFileSizeInMB   int      `json:"maxFileSizeInMB,omitempty"` // capped at 5
	AllowedExtensions []string `json:"allowedExtensions,omitempty"`
}

// DateConstraints holds the extra fields of date attributes. Dates are
// ISO "2006-01-02" strings; empty means unbounded.
type DateConstraints struct {
	MinDate string `json:"minDate,omitempty"`
	MaxDate string `json:"maxDate,omitempty"`
}

// AttributeDefinition is the schema entry for one attribute. Exactly one
// of the constraint pointers matching Type is populated; the others stay
// nil. This is the Go rendition of a tagged union keyed by Type.
type AttributeDefinition struct {
	Code             string        `json:"code"`
	Type             AttributeType `json:"type"`
	Group            string        `json:"group"`
	Localizable      bool          `json:"localizable"`
	Scopable         bool          `json:"scopable"`
	Labels           []LocaleValue `json:"labels,omitempty"`
	IsLocaleSpecific bool          `json:"isLocaleSpecific"`
	AvailableLocales []string      `json:"availableLocales,omitempty"`
	IsUnique         bool          `json:"isUnique"`

	Text     *TextConstraints     `json:"text,omitempty"`
	Textarea *TextareaConstraints `json:"textarea,omitempty"`
	Boolean  *BooleanConstraints  `json:"boolean,omitempty"`
	Number   *NumberConstraints   `json:"number,omitempty"`
	Image    *ImageConstraints    `json:"image,omitempty"`
	Date     *DateConstraints     `json:"date,omitempty"`
}

// CanBeUnique reports whether the attribute type may carry isUnique.
// Only scalar, non-scoped, non-localized comparable types qualify.
func (a AttributeDefinition) CanBeUnique() bool {
	switch a.Type {
	case TypeText, TypeIdentifier, TypeNumber:
		return true
	case TypeTextarea, TypeBoolean, TypeImage, TypeMultiselect,
		TypeSimpleselect, TypeDate, TypePrice:
		return false
	}
	return false
}

// IsSelect reports whether the attribute carries an option list.
func (a AttributeDefinition) IsSelect() bool {
	return a.Type == TypeSimpleselect || a.Type == TypeMultiselect
}
