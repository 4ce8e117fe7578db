package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mosaicpim/mosaic/app/models"
	"github.com/mosaicpim/mosaic/pkg/apperr"
	"github.com/mosaicpim/mosaic/pkg/collection"
)

// CodecService converts between the EAV attribute representation and flat
// interchange rows. Both directions are pure: the schema and profile
// settings come in as arguments and nothing is cached between calls.
type CodecService struct{}

func NewCodecService() *CodecService { return &CodecService{} }

const attributeColumnPrefix = "attribute-"

// Fixed product columns, in header order.
var productFixedColumns = []string{"sku", "family", "enabled", "groups", "categories", "parent"}

// Fixed product-model columns, in header order.
var productModelFixedColumns = []string{"code", "family", "variant", "categories"}

// ─────────────────────────────────────────────
// Column keys
// ─────────────────────────────────────────────

// ColumnKeys expands one attribute definition into its flat column keys for
// the channel/locale selection. The shape follows the attribute's
// {localizable, scopable} pair.
func ColumnKeys(def models.AttributeDefinition, content models.ContentSettings) []string {
	switch {
	case def.Localizable && def.Scopable:
		keys := make([]string, 0, len(content.Locales))
		for _, locale := range content.Locales {
			keys = append(keys, fmt.Sprintf("%s%s-%s-%s", attributeColumnPrefix, def.Code, content.Channel, locale))
		}
		return keys
	case def.Localizable:
		keys := make([]string, 0, len(content.Locales))
		for _, locale := range content.Locales {
			keys = append(keys, fmt.Sprintf("%s%s-%s", attributeColumnPrefix, def.Code, locale))
		}
		return keys
	case def.Scopable:
		return []string{fmt.Sprintf("%s%s-%s", attributeColumnPrefix, def.Code, content.Channel)}
	default:
		return []string{attributeColumnPrefix + def.Code}
	}
}

// ProductHeader builds the ordered header for a product export: the fixed
// columns followed by the attribute columns in family order, restricted to
// the profile's attribute selection when one is set.
func (c *CodecService) ProductHeader(family models.Family, schema SchemaProvider, settings models.ProfileSettings) []string {
	header := append([]string{}, productFixedColumns...)
	for _, code := range selectedCodes(family, settings.Content) {
		def, ok := schema.Attribute(code)
		if !ok {
			continue
		}
		header = append(header, ColumnKeys(def, settings.Content)...)
	}
	return header
}

// ProductModelHeader is the product-model counterpart of ProductHeader.
func (c *CodecService) ProductModelHeader(family models.Family, schema SchemaProvider, settings models.ProfileSettings) []string {
	header := append([]string{}, productModelFixedColumns...)
	for _, code := range selectedCodes(family, settings.Content) {
		def, ok := schema.Attribute(code)
		if !ok {
			continue
		}
		header = append(header, ColumnKeys(def, settings.Content)...)
	}
	return header
}

func selectedCodes(family models.Family, content models.ContentSettings) []string {
	codes := family.AttributeCodes()
	if len(content.Attributes) == 0 {
		return codes
	}
	return collection.Filter(codes, func(code string) bool {
		return contains(content.Attributes, code)
	})
}

// ─────────────────────────────────────────────
// Flatten (export direction)
// ─────────────────────────────────────────────

// FlattenProduct renders one product into a column→value map. Attribute
// cells not present on the product come out as empty strings, so every row
// covers the full header.
func (c *CodecService) FlattenProduct(product models.Product, schema SchemaProvider, settings models.ProfileSettings) (map[string]string, error) {
	row := map[string]string{
		"sku":        product.SKU,
		"family":     product.Family,
		"enabled":    strconv.FormatBool(product.Enabled),
		"groups":     strings.Join(product.Groups, ","),
		"categories": strings.Join(product.Categories, ","),
		"parent":     product.Parent,
	}

	if err := c.flattenAttributes(row, product.Attributes, schema, settings); err != nil {
		return nil, err
	}
	return row, nil
}

// FlattenProductModel renders one product model into a column→value map.
func (c *CodecService) FlattenProductModel(model models.ProductModel, schema SchemaProvider, settings models.ProfileSettings) (map[string]string, error) {
	row := map[string]string{
		"code":       model.Code,
		"family":     model.Family,
		"variant":    model.Variant,
		"categories": strings.Join(model.Categories, ","),
	}

	if err := c.flattenAttributes(row, model.Attributes, schema, settings); err != nil {
		return nil, err
	}
	return row, nil
}

func (c *CodecService) flattenAttributes(row map[string]string, values []models.ProductAttributeValue, schema SchemaProvider, settings models.ProfileSettings) error {
	content := settings.Content

	for _, value := range values {
		def, ok := schema.Attribute(value.Code)
		if !ok {
			continue // attribute no longer in the schema, drop silently
		}

		switch {
		case def.Localizable && def.Scopable:
			for _, locale := range content.Locales {
				key := fmt.Sprintf("%s%s-%s-%s", attributeColumnPrefix, def.Code, content.Channel, locale)
				row[key] = c.renderEntry(def, value, content.Channel, locale, settings)
			}
		case def.Localizable:
			for _, locale := range content.Locales {
				key := fmt.Sprintf("%s%s-%s", attributeColumnPrefix, def.Code, locale)
				row[key] = c.renderEntry(def, value, "", locale, settings)
			}
		case def.Scopable:
			key := fmt.Sprintf("%s%s-%s", attributeColumnPrefix, def.Code, content.Channel)
			row[key] = c.renderEntry(def, value, content.Channel, "", settings)
		default:
			row[attributeColumnPrefix+def.Code] = c.renderEntry(def, value, "", "", settings)
		}
	}
	return nil
}

func (c *CodecService) renderEntry(def models.AttributeDefinition, value models.ProductAttributeValue, scope, locale string, settings models.ProfileSettings) string {
	entry, ok := value.Entry(scope, locale)
	if !ok {
		return ""
	}
	return renderValue(def, entry.Value, settings)
}

// renderValue turns one EAV cell into its string form, honoring the
// profile's decimal separator and date layout.
func renderValue(def models.AttributeDefinition, v interface{}, settings models.ProfileSettings) string {
	if v == nil {
		return ""
	}

	switch def.Type {
	case models.TypeNumber, models.TypePrice:
		num, ok := asFloat(v)
		if !ok {
			return fmt.Sprintf("%v", v)
		}
		s := strconv.FormatFloat(num, 'f', -1, 64)
		if sep := settings.Separator(); sep != "." {
			s = strings.Replace(s, ".", sep, 1)
		}
		return s
	case models.TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return fmt.Sprintf("%v", v)
		}
		return strconv.FormatBool(b)
	case models.TypeMultiselect:
		return strings.Join(asStrings(v), ",")
	case models.TypeDate:
		s, ok := v.(string)
		if !ok {
			return fmt.Sprintf("%v", v)
		}
		date, err := time.Parse(dateLayout, s)
		if err != nil {
			return s
		}
		return date.Format(settings.DateLayout())
	case models.TypeText, models.TypeTextarea, models.TypeIdentifier,
		models.TypeImage, models.TypeSimpleselect:
		return fmt.Sprintf("%v", v)
	}
	return fmt.Sprintf("%v", v)
}

// ─────────────────────────────────────────────
// Unflatten (import direction)
// ─────────────────────────────────────────────

// UnflattenProduct is the structural inverse of FlattenProduct: recognized
// attribute-* columns are parsed back into (code, channel?, locale?) cells;
// unrecognized columns are ignored. Empty cells produce no entry.
func (c *CodecService) UnflattenProduct(row map[string]string, schema SchemaProvider, settings models.ProfileSettings) (models.Product, error) {
	sku := row["sku"]
	if sku == "" {
		return models.Product{}, apperr.Invalid("sku", "row has no sku")
	}

	product := models.Product{
		SKU:     sku,
		Family:  row["family"],
		Parent:  row["parent"],
		Enabled: row["enabled"] == "true",
	}
	if row["groups"] != "" {
		product.Groups = strings.Split(row["groups"], ",")
	}
	if row["categories"] != "" {
		product.Categories = strings.Split(row["categories"], ",")
	}

	byCode := map[string]*models.ProductAttributeValue{}
	var order []string

	keys := make([]string, 0, len(row))
	for key := range row {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		cell := row[key]
		if cell == "" || !strings.HasPrefix(key, attributeColumnPrefix) {
			continue
		}

		code, scope, locale, def, ok := parseColumnKey(key, schema)
		if !ok {
			continue
		}

		parsed, err := parseValue(def, cell, settings)
		if err != nil {
			return models.Product{}, err
		}

		value, exists := byCode[code]
		if !exists {
			value = &models.ProductAttributeValue{Code: code}
			byCode[code] = value
			order = append(order, code)
		}
		value.Data = append(value.Data, models.ValueEntry{Scope: scope, Locale: locale, Value: parsed})
	}

	for _, code := range order {
		product.Attributes = append(product.Attributes, *byCode[code])
	}
	return product, nil
}

// parseColumnKey resolves attribute-{code}[-{channel}][-{locale}] against
// the schema. Attribute codes cannot contain hyphens, so the code is always
// the first hyphen-separated segment after the prefix; the definition's
// flags decide how the remaining segments bind.
func parseColumnKey(key string, schema SchemaProvider) (code, scope, locale string, def models.AttributeDefinition, ok bool) {
	rest := strings.TrimPrefix(key, attributeColumnPrefix)
	parts := strings.Split(rest, "-")
	code = parts[0]

	def, found := schema.Attribute(code)
	if !found {
		return "", "", "", models.AttributeDefinition{}, false
	}

	tail := parts[1:]
	switch {
	case def.Localizable && def.Scopable:
		if len(tail) != 2 {
			return "", "", "", models.AttributeDefinition{}, false
		}
		return code, tail[0], tail[1], def, true
	case def.Localizable:
		if len(tail) != 1 {
			return "", "", "", models.AttributeDefinition{}, false
		}
		return code, "", tail[0], def, true
	case def.Scopable:
		if len(tail) != 1 {
			return "", "", "", models.AttributeDefinition{}, false
		}
		return code, tail[0], "", def, true
	default:
		if len(tail) != 0 {
			return "", "", "", models.AttributeDefinition{}, false
		}
		return code, "", "", def, true
	}
}

// parseValue is the inverse of renderValue.
func parseValue(def models.AttributeDefinition, cell string, settings models.ProfileSettings) (interface{}, error) {
	switch def.Type {
	case models.TypeNumber, models.TypePrice:
		normalized := cell
		if sep := settings.Separator(); sep != "." {
			normalized = strings.Replace(cell, sep, ".", 1)
		}
		num, err := strconv.ParseFloat(normalized, 64)
		if err != nil {
			return nil, apperr.Invalid(def.Code, "cell %q is not a number", cell)
		}
		return num, nil
	case models.TypeBoolean:
		b, err := strconv.ParseBool(cell)
		if err != nil {
			return nil, apperr.Invalid(def.Code, "cell %q is not a boolean", cell)
		}
		return b, nil
	case models.TypeMultiselect:
		parts := strings.Split(cell, ",")
		out := make([]interface{}, 0, len(parts))
		for _, p := range parts {
			out = append(out, p)
		}
		return out, nil
	case models.TypeDate:
		date, err := time.Parse(settings.DateLayout(), cell)
		if err != nil {
			return nil, apperr.Invalid(def.Code, "cell %q is not a valid date", cell)
		}
		return date.Format(dateLayout), nil
	case models.TypeText, models.TypeTextarea, models.TypeIdentifier,
		models.TypeImage, models.TypeSimpleselect:
		return cell, nil
	}
	return cell, nil
}

// ─────────────────────────────────────────────
// Category export
// ─────────────────────────────────────────────

// FlattenCategories performs the pre-order tree flattening: each node's
// flat code is its parent's flat code joined with "#", roots keep their
// bare code. Returns the header and one row per node.
func (c *CodecService) FlattenCategories(categories []models.Category, locales []string) ([]string, [][]string) {
	header := append([]string{"code"}, collection.Map(locales, func(l string) string {
		return "label-" + l
	})...)

	children := map[string][]models.Category{}
	for _, cat := range categories {
		children[cat.Parent] = append(children[cat.Parent], cat)
	}
	for parent := range children {
		nodes := children[parent]
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].Code < nodes[j].Code })
	}

	var rows [][]string
	var walk func(parent models.Category, flatCode string)
	walk = func(parent models.Category, flatCode string) {
		row := make([]string, 0, len(header))
		row = append(row, flatCode)
		for _, locale := range locales {
			row = append(row, labelFor(parent.Labels, locale))
		}
		rows = append(rows, row)

		for _, child := range children[parent.Code] {
			walk(child, flatCode+"#"+child.Code)
		}
	}

	for _, root := range children[""] {
		walk(root, root.Code)
	}
	return header, rows
}

func labelFor(labels []models.LocaleValue, locale string) string {
	for _, label := range labels {
		if label.Locale == locale {
			return label.Value
		}
	}
	return ""
}

func asStrings(v interface{}) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	case string:
		return []string{list}
	default:
		return []string{fmt.Sprintf("%v", v)}
	}
}
