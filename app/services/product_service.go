package services

import (
	"context"

	"github.com/mosaicpim/mosaic/app/models"
	"github.com/mosaicpim/mosaic/app/repositories"
	"github.com/mosaicpim/mosaic/pkg/apperr"
	"github.com/mosaicpim/mosaic/pkg/collection"
	"github.com/mosaicpim/mosaic/pkg/event"
)

// ProductService owns the write path for products, product models and
// categories. Every save runs the attribute validation pipeline against the
// tenant's current schema before anything reaches the store.
type ProductService struct {
	settings  *repositories.SettingsRepository
	products  *repositories.ProductRepository
	validator *ValidatorService
	index     repositories.UniqueIndex
}

func NewProductService(
	settings *repositories.SettingsRepository,
	products *repositories.ProductRepository,
	validator *ValidatorService,
	index repositories.UniqueIndex,
) *ProductService {
	return &ProductService{settings: settings, products: products, validator: validator, index: index}
}

// ProductEvent is the payload fired on product.saved / product.deleted.
type ProductEvent struct {
	Tenant  string
	Product models.Product
}

// ProductModelEvent mirrors ProductEvent for variant parents.
type ProductModelEvent struct {
	Tenant string
	Model  models.ProductModel
}

// ─────────────────────────────────────────────
// Products
// ─────────────────────────────────────────────

// GetProduct returns the product and its update token. Values for
// attributes the product's family no longer carries are hidden.
func (s *ProductService) GetProduct(tenant, sku string) (models.Product, string, error) {
	product, version, err := s.products.GetProduct(tenant, sku)
	if err != nil {
		return models.Product{}, "", err
	}
	settings, err := s.settings.Load(tenant)
	if err != nil {
		return models.Product{}, "", err
	}
	if family, ok := settings.Family(product.Family); ok {
		product.Attributes = collection.Filter(product.Attributes, func(v models.ProductAttributeValue) bool {
			return family.HasAttribute(v.Code)
		})
	}
	return product, version, nil
}

func (s *ProductService) ListProducts(tenant string) ([]models.Product, error) {
	return s.products.ListProducts(tenant)
}

// SaveProduct validates and persists the product. An empty expectedToken
// means create; otherwise the token must match the stored version. The new
// update token is returned.
func (s *ProductService) SaveProduct(ctx context.Context, tenant string, product models.Product, expectedToken string) (string, error) {
	settings, err := s.settings.Load(tenant)
	if err != nil {
		return "", err
	}
	family, ok := settings.Family(product.Family)
	if !ok {
		return "", apperr.NotFound("family", product.Family)
	}
	if product.Parent != "" {
		if _, _, err := s.products.GetProductModel(tenant, product.Parent); err != nil {
			return "", err
		}
	}

	if err := s.validator.ValidateProductAttributes(family, product.Attributes, settings); err != nil {
		return "", err
	}

	var previous *models.Product
	if expectedToken != "" {
		stored, _, err := s.products.GetProduct(tenant, product.SKU)
		if err != nil {
			return "", err
		}
		previous = &stored
	}

	// Only values that actually changed go through the uniqueness probe,
	// so re-saving a record never collides with its own index entry.
	changed := changedUniqueValues(settings, previous, product.Attributes)
	if err := s.validator.ValidateUniqueAttributes(ctx, tenant, changed, settings); err != nil {
		return "", err
	}

	version, err := s.products.PutProduct(tenant, product, expectedToken)
	if err != nil {
		return "", err
	}

	if err := s.reindexUniques(ctx, tenant, settings, previous, product.Attributes); err != nil {
		return "", err
	}

	event.Fire(event.ProductSaved, ProductEvent{Tenant: tenant, Product: product})
	return version, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, tenant, sku string) error {
	product, _, err := s.products.GetProduct(tenant, sku)
	if err != nil {
		return err
	}
	settings, err := s.settings.Load(tenant)
	if err != nil {
		return err
	}

	if err := s.products.DeleteProduct(tenant, sku); err != nil {
		return err
	}
	for _, value := range product.Attributes {
		def, ok := settings.Attribute(value.Code)
		if !ok || !def.IsUnique {
			continue
		}
		if raw, err := UniqueValue(value); err == nil {
			if err := s.index.Remove(ctx, tenant, value.Code, raw); err != nil {
				return err
			}
		}
	}

	event.Fire(event.ProductDeleted, ProductEvent{Tenant: tenant, Product: product})
	return nil
}

// changedUniqueValues keeps the unique attribute values that differ from
// what the previous record carried. On create, previous is nil and every
// unique value qualifies.
func changedUniqueValues(settings *models.CatalogSettings, previous *models.Product, values []models.ProductAttributeValue) []models.ProductAttributeValue {
	var changed []models.ProductAttributeValue
	for _, value := range values {
		def, ok := settings.Attribute(value.Code)
		if !ok || !def.IsUnique {
			continue
		}
		if previous != nil {
			if old, ok := previous.Attribute(value.Code); ok {
				oldRaw, oldErr := UniqueValue(old)
				newRaw, newErr := UniqueValue(value)
				if oldErr == nil && newErr == nil && oldRaw == newRaw {
					continue
				}
			}
		}
		changed = append(changed, value)
	}
	return changed
}

// reindexUniques records the saved unique values and drops the superseded
// ones from the uniqueness index.
func (s *ProductService) reindexUniques(ctx context.Context, tenant string, settings *models.CatalogSettings, previous *models.Product, values []models.ProductAttributeValue) error {
	for _, value := range values {
		def, ok := settings.Attribute(value.Code)
		if !ok || !def.IsUnique {
			continue
		}
		raw, err := UniqueValue(value)
		if err != nil {
			continue
		}
		if previous != nil {
			if old, ok := previous.Attribute(value.Code); ok {
				if oldRaw, err := UniqueValue(old); err == nil && oldRaw != raw {
					if err := s.index.Remove(ctx, tenant, value.Code, oldRaw); err != nil {
						return err
					}
				}
			}
		}
		if err := s.index.Record(ctx, tenant, value.Code, raw); err != nil {
			return err
		}
	}
	return nil
}

// ─────────────────────────────────────────────
// Product models
// ─────────────────────────────────────────────

func (s *ProductService) GetProductModel(tenant, code string) (models.ProductModel, string, error) {
	model, version, err := s.products.GetProductModel(tenant, code)
	if err != nil {
		return models.ProductModel{}, "", err
	}
	settings, err := s.settings.Load(tenant)
	if err != nil {
		return models.ProductModel{}, "", err
	}
	if family, ok := settings.Family(model.Family); ok {
		model.Attributes = collection.Filter(model.Attributes, func(v models.ProductAttributeValue) bool {
			return family.HasAttribute(v.Code)
		})
	}
	return model, version, nil
}

func (s *ProductService) ListProductModels(tenant string) ([]models.ProductModel, error) {
	return s.products.ListProductModels(tenant)
}

func (s *ProductService) SaveProductModel(ctx context.Context, tenant string, model models.ProductModel, expectedToken string) (string, error) {
	settings, err := s.settings.Load(tenant)
	if err != nil {
		return "", err
	}
	family, ok := settings.Family(model.Family)
	if !ok {
		return "", apperr.NotFound("family", model.Family)
	}
	if _, ok := family.Variant(model.Variant); !ok {
		return "", apperr.NotFound("variant", model.Variant)
	}

	if err := s.validator.ValidateProductAttributes(family, model.Attributes, settings); err != nil {
		return "", err
	}

	version, err := s.products.PutProductModel(tenant, model, expectedToken)
	if err != nil {
		return "", err
	}

	event.Fire(event.ProductSaved, ProductModelEvent{Tenant: tenant, Model: model})
	return version, nil
}

func (s *ProductService) DeleteProductModel(ctx context.Context, tenant, code string) error {
	model, _, err := s.products.GetProductModel(tenant, code)
	if err != nil {
		return err
	}

	products, err := s.products.ListProducts(tenant)
	if err != nil {
		return err
	}
	for _, p := range products {
		if p.Parent == code {
			return apperr.Conflict("product model %q still has variants", code)
		}
	}

	if err := s.products.DeleteProductModel(tenant, code); err != nil {
		return err
	}
	event.Fire(event.ProductDeleted, ProductModelEvent{Tenant: tenant, Model: model})
	return nil
}

// ─────────────────────────────────────────────
// Categories
// ─────────────────────────────────────────────

func (s *ProductService) GetCategory(tenant, code string) (models.Category, string, error) {
	return s.products.GetCategory(tenant, code)
}

func (s *ProductService) ListCategories(tenant string) ([]models.Category, error) {
	return s.products.ListCategories(tenant)
}

func (s *ProductService) SaveCategory(tenant string, category models.Category, expectedToken string) (string, error) {
	if !codeRE.MatchString(category.Code) {
		return "", apperr.Invalid(category.Code, "code must match [A-Za-z0-9_]{1,100}")
	}
	if category.Parent != "" {
		if category.Parent == category.Code {
			return "", apperr.Invalid(category.Code, "category cannot be its own parent")
		}
		if _, _, err := s.products.GetCategory(tenant, category.Parent); err != nil {
			return "", err
		}
	}
	return s.products.PutCategory(tenant, category, expectedToken)
}

func (s *ProductService) DeleteCategory(tenant, code string) error {
	if _, _, err := s.products.GetCategory(tenant, code); err != nil {
		return err
	}

	categories, err := s.products.ListCategories(tenant)
	if err != nil {
		return err
	}
	for _, c := range categories {
		if c.Parent == code {
			return apperr.Conflict("category %q still has children", code)
		}
	}
	return s.products.DeleteCategory(tenant, code)
}
