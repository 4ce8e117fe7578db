package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mosaicpim/mosaic/app/models"
	"github.com/mosaicpim/mosaic/app/services"
	"github.com/mosaicpim/mosaic/pkg/bind"
	"github.com/mosaicpim/mosaic/pkg/response"
)

// ProductController serves products, product models and categories.
type ProductController struct {
	products *services.ProductService
}

func NewProductController(products *services.ProductService) *ProductController {
	return &ProductController{products: products}
}

// versioned wraps a record with its current update token.
type versioned struct {
	Record      interface{} `json:"record"`
	UpdateToken string      `json:"updateToken"`
}

// ── Products ─────────────────────────────────────────────────────────────────

func (c *ProductController) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := c.products.ListProducts(tenantOf(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, products)
}

func (c *ProductController) ShowProduct(w http.ResponseWriter, r *http.Request) {
	product, version, err := c.products.GetProduct(tenantOf(r), chi.URLParam(r, "sku"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, versioned{Record: product, UpdateToken: version})
}

func (c *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if fields, err := bind.JSON(r, &product); err != nil {
		response.BadRequest(w, err.Error())
		return
	} else if fields != nil {
		response.ValidationFailed(w, fields)
		return
	}

	version, err := c.products.SaveProduct(r.Context(), tenantOf(r), product, "")
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, versioned{Record: product, UpdateToken: version})
}

func (c *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if fields, err := bind.JSON(r, &product); err != nil {
		response.BadRequest(w, err.Error())
		return
	} else if fields != nil {
		response.ValidationFailed(w, fields)
		return
	}
	product.SKU = chi.URLParam(r, "sku")

	version, err := c.products.SaveProduct(r.Context(), tenantOf(r), product, updateToken(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, versioned{Record: product, UpdateToken: version})
}

func (c *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := c.products.DeleteProduct(r.Context(), tenantOf(r), chi.URLParam(r, "sku")); err != nil {
		response.Error(w, err)
		return
	}
	response.NoContent(w)
}

// ── Product models ───────────────────────────────────────────────────────────

func (c *ProductController) ListProductModels(w http.ResponseWriter, r *http.Request) {
	productModels, err := c.products.ListProductModels(tenantOf(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, productModels)
}

func (c *ProductController) ShowProductModel(w http.ResponseWriter, r *http.Request) {
	model, version, err := c.products.GetProductModel(tenantOf(r), chi.URLParam(r, "code"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, versioned{Record: model, UpdateToken: version})
}

func (c *ProductController) CreateProductModel(w http.ResponseWriter, r *http.Request) {
	var model models.ProductModel
	if fields, err := bind.JSON(r, &model); err != nil {
		response.BadRequest(w, err.Error())
		return
	} else if fields != nil {
		response.ValidationFailed(w, fields)
		return
	}

	version, err := c.products.SaveProductModel(r.Context(), tenantOf(r), model, "")
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, versioned{Record: model, UpdateToken: version})
}

func (c *ProductController) UpdateProductModel(w http.ResponseWriter, r *http.Request) {
	var model models.ProductModel
	if fields, err := bind.JSON(r, &model); err != nil {
		response.BadRequest(w, err.Error())
		return
	} else if fields != nil {
		response.ValidationFailed(w, fields)
		return
	}
	model.Code = chi.URLParam(r, "code")

	version, err := c.products.SaveProductModel(r.Context(), tenantOf(r), model, updateToken(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, versioned{Record: model, UpdateToken: version})
}

func (c *ProductController) DeleteProductModel(w http.ResponseWriter, r *http.Request) {
	if err := c.products.DeleteProductModel(r.Context(), tenantOf(r), chi.URLParam(r, "code")); err != nil {
		response.Error(w, err)
		return
	}
	response.NoContent(w)
}

// ── Categories ───────────────────────────────────────────────────────────────

func (c *ProductController) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := c.products.ListCategories(tenantOf(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, categories)
}

func (c *ProductController) ShowCategory(w http.ResponseWriter, r *http.Request) {
	category, version, err := c.products.GetCategory(tenantOf(r), chi.URLParam(r, "code"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, versioned{Record: category, UpdateToken: version})
}

func (c *ProductController) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var category models.Category
	if fields, err := bind.JSON(r, &category); err != nil {
		response.BadRequest(w, err.Error())
		return
	} else if fields != nil {
		response.ValidationFailed(w, fields)
		return
	}

	version, err := c.products.SaveCategory(tenantOf(r), category, "")
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, versioned{Record: category, UpdateToken: version})
}

func (c *ProductController) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var category models.Category
	if fields, err := bind.JSON(r, &category); err != nil {
		response.BadRequest(w, err.Error())
		return
	} else if fields != nil {
		response.ValidationFailed(w, fields)
		return
	}
	category.Code = chi.URLParam(r, "code")

	version, err := c.products.SaveCategory(tenantOf(r), category, updateToken(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, versioned{Record: category, UpdateToken: version})
}

func (c *ProductController) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := c.products.DeleteCategory(tenantOf(r), chi.URLParam(r, "code")); err != nil {
		response.Error(w, err)
		return
	}
	response.NoContent(w)
}
