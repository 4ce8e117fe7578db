package repositories

import (
	"encoding/json"
	"fmt"

	"github.com/mosaicpim/mosaic/app/models"
)

// ProductRepository persists products, product models and categories as
// individual state-store records, each carrying its own update token.
type ProductRepository struct {
	states StateStore
}

func NewProductRepository(states StateStore) *ProductRepository {
	return &ProductRepository{states: states}
}

// ─────────────────────────────────────────────
// Products
// ─────────────────────────────────────────────

func (r *ProductRepository) GetProduct(tenant, sku string) (models.Product, string, error) {
	state, err := r.states.Get(tenant, KindProduct, sku)
	if err != nil {
		return models.Product{}, "", err
	}

	var product models.Product
	if err := json.Unmarshal([]byte(state.Public), &product); err != nil {
		return models.Product{}, "", fmt.Errorf("repositories: decode product %s: %w", sku, err)
	}
	return product, state.Version, nil
}

func (r *ProductRepository) PutProduct(tenant string, product models.Product, expectedToken string) (string, error) {
	public, err := json.Marshal(product)
	if err != nil {
		return "", fmt.Errorf("repositories: encode product %s: %w", product.SKU, err)
	}
	return r.states.Put(tenant, KindProduct, product.SKU, public, nil, expectedToken)
}

func (r *ProductRepository) DeleteProduct(tenant, sku string) error {
	return r.states.Delete(tenant, KindProduct, sku)
}

func (r *ProductRepository) ListProducts(tenant string) ([]models.Product, error) {
	states, err := r.states.List(tenant, KindProduct)
	if err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(states))
	for _, state := range states {
		var product models.Product
		if err := json.Unmarshal([]byte(state.Public), &product); err != nil {
			return nil, fmt.Errorf("repositories: decode product %s: %w", state.RecordKey, err)
		}
		products = append(products, product)
	}
	return products, nil
}

// ─────────────────────────────────────────────
// Product models
// ─────────────────────────────────────────────

func (r *ProductRepository) GetProductModel(tenant, code string) (models.ProductModel, string, error) {
	state, err := r.states.Get(tenant, KindProductModel, code)
	if err != nil {
		return models.ProductModel{}, "", err
	}

	var model models.ProductModel
	if err := json.Unmarshal([]byte(state.Public), &model); err != nil {
		return models.ProductModel{}, "", fmt.Errorf("repositories: decode product model %s: %w", code, err)
	}
	return model, state.Version, nil
}

func (r *ProductRepository) PutProductModel(tenant string, model models.ProductModel, expectedToken string) (string, error) {
	public, err := json.Marshal(model)
	if err != nil {
		return "", fmt.Errorf("repositories: encode product model %s: %w", model.Code, err)
	}
	return r.states.Put(tenant, KindProductModel, model.Code, public, nil, expectedToken)
}

func (r *ProductRepository) DeleteProductModel(tenant, code string) error {
	return r.states.Delete(tenant, KindProductModel, code)
}

func (r *ProductRepository) ListProductModels(tenant string) ([]models.ProductModel, error) {
	states, err := r.states.List(tenant, KindProductModel)
	if err != nil {
		return nil, err
	}

	out := make([]models.ProductModel, 0, len(states))
	for _, state := range states {
		var model models.ProductModel
		if err := json.Unmarshal([]byte(state.Public), &model); err != nil {
			return nil, fmt.Errorf("repositories: decode product model %s: %w", state.RecordKey, err)
		}
		out = append(out, model)
	}
	return out, nil
}

// ─────────────────────────────────────────────
// Categories
// ─────────────────────────────────────────────

func (r *ProductRepository) GetCategory(tenant, code string) (models.Category, string, error) {
	state, err := r.states.Get(tenant, KindCategory, code)
	if err != nil {
		return models.Category{}, "", err
	}

	var category models.Category
	if err := json.Unmarshal([]byte(state.Public), &category); err != nil {
		return models.Category{}, "", fmt.Errorf("repositories: decode category %s: %w", code, err)
	}
	return category, state.Version, nil
}

func (r *ProductRepository) PutCategory(tenant string, category models.Category, expectedToken string) (string, error) {
	public, err := json.Marshal(category)
	if err != nil {
		return "", fmt.Errorf("repositories: encode category %s: %w", category.Code, err)
	}
	return r.states.Put(tenant, KindCategory, category.Code, public, nil, expectedToken)
}

func (r *ProductRepository) DeleteCategory(tenant, code string) error {
	return r.states.Delete(tenant, KindCategory, code)
}

func (r *ProductRepository) ListCategories(tenant string) ([]models.Category, error) {
	states, err := r.states.List(tenant, KindCategory)
	if err != nil {
		return nil, err
	}

	out := make([]models.Category, 0, len(states))
	for _, state := range states {
		var category models.Category
		if err := json.Unmarshal([]byte(state.Public), &category); err != nil {
			return nil, fmt.Errorf("repositories: decode category %s: %w", state.RecordKey, err)
		}
		out = append(out, category)
	}
	return out, nil
}

// ─────────────────────────────────────────────
// Usage probes for in-use deletion guards
// ─────────────────────────────────────────────

// AttributeInUse reports whether any product or product model carries a
// value for the attribute.
func (r *ProductRepository) AttributeInUse(tenant, code string) (bool, error) {
	products, err := r.ListProducts(tenant)
	if err != nil {
		return false, err
	}
	for _, p := range products {
		if _, ok := p.Attribute(code); ok {
			return true, nil
		}
	}

	productModels, err := r.ListProductModels(tenant)
	if err != nil {
		return false, err
	}
	for _, m := range productModels {
		if _, ok := m.Attribute(code); ok {
			return true, nil
		}
	}
	return false, nil
}

// FamilyInUse reports whether any product or product model belongs to the
// family.
func (r *ProductRepository) FamilyInUse(tenant, code string) (bool, error) {
	products, err := r.ListProducts(tenant)
	if err != nil {
		return false, err
	}
	for _, p := range products {
		if p.Family == code {
			return true, nil
		}
	}

	productModels, err := r.ListProductModels(tenant)
	if err != nil {
		return false, err
	}
	for _, m := range productModels {
		if m.Family == code {
			return true, nil
		}
	}
	return false, nil
}
