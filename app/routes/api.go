// Package routes wires every HTTP endpoint to its controller.
package routes

import (
	"github.com/mosaicpim/mosaic/app/controllers"
	"github.com/mosaicpim/mosaic/pkg/metrics"
	"github.com/mosaicpim/mosaic/pkg/middleware"
	"github.com/mosaicpim/mosaic/pkg/reqid"
	"github.com/mosaicpim/mosaic/pkg/router"
)

// Controllers carries the instantiated controllers into Register.
type Controllers struct {
	Auth     *controllers.AuthController
	Settings *controllers.SettingsController
	Products *controllers.ProductController
	Jobs     *controllers.JobController
}

// Register mounts the full API surface. Everything under /api requires a
// tenant token; /auth/token and /metrics do not.
func Register(r *router.Router, c Controllers) {
	r.Use(
		reqid.Middleware(),
		middleware.Logger,
		metrics.Middleware(),
		middleware.Recovery,
		middleware.CORS(middleware.DefaultCORSOptions()),
	)

	r.Post("/auth/token", "auth.token", c.Auth.Token)
	r.Get("/metrics", "metrics", metrics.Handler())

	api := r.Group("/api", middleware.Auth)

	// Catalog settings
	api.Get("/settings", "settings.show", c.Settings.Show)
	api.Post("/settings/attributes", "attributes.create", c.Settings.CreateAttribute)
	api.Put("/settings/attributes/{code}", "attributes.update", c.Settings.UpdateAttribute)
	api.Delete("/settings/attributes/{code}", "attributes.delete", c.Settings.DeleteAttribute)
	api.Post("/settings/attributes/{code}/options", "options.create", c.Settings.AddOption)
	api.Delete("/settings/attributes/{code}/options/{option}", "options.delete", c.Settings.DeleteOption)
	api.Post("/settings/groups", "groups.create", c.Settings.CreateGroup)
	api.Delete("/settings/groups/{code}", "groups.delete", c.Settings.DeleteGroup)
	api.Post("/settings/families", "families.create", c.Settings.CreateFamily)
	api.Put("/settings/families/{code}", "families.update", c.Settings.UpdateFamily)
	api.Delete("/settings/families/{code}", "families.delete", c.Settings.DeleteFamily)
	api.Post("/settings/families/{code}/variants", "variants.create", c.Settings.CreateVariant)
	api.Delete("/settings/families/{code}/variants/{variant}", "variants.delete", c.Settings.DeleteVariant)
	api.Post("/settings/channels", "channels.create", c.Settings.CreateChannel)
	api.Delete("/settings/channels/{code}", "channels.delete", c.Settings.DeleteChannel)
	api.Put("/settings/currencies/{code}", "currencies.toggle", c.Settings.ToggleCurrency)
	api.Put("/settings/locales/{code}", "locales.toggle", c.Settings.ToggleLocale)
	api.Post("/settings/profiles", "profiles.create", c.Settings.CreateProfile)
	api.Put("/settings/profiles/{code}", "profiles.update", c.Settings.UpdateProfile)
	api.Delete("/settings/profiles/{code}", "profiles.delete", c.Settings.DeleteProfile)

	// Products
	api.Get("/products", "products.index", c.Products.ListProducts)
	api.Post("/products", "products.create", c.Products.CreateProduct)
	api.Get("/products/{sku}", "products.show", c.Products.ShowProduct)
	api.Put("/products/{sku}", "products.update", c.Products.UpdateProduct)
	api.Delete("/products/{sku}", "products.delete", c.Products.DeleteProduct)

	// Product models
	api.Get("/product-models", "product_models.index", c.Products.ListProductModels)
	api.Post("/product-models", "product_models.create", c.Products.CreateProductModel)
	api.Get("/product-models/{code}", "product_models.show", c.Products.ShowProductModel)
	api.Put("/product-models/{code}", "product_models.update", c.Products.UpdateProductModel)
	api.Delete("/product-models/{code}", "product_models.delete", c.Products.DeleteProductModel)

	// Categories
	api.Get("/categories", "categories.index", c.Products.ListCategories)
	api.Post("/categories", "categories.create", c.Products.CreateCategory)
	api.Get("/categories/{code}", "categories.show", c.Products.ShowCategory)
	api.Put("/categories/{code}", "categories.update", c.Products.UpdateCategory)
	api.Delete("/categories/{code}", "categories.delete", c.Products.DeleteCategory)

	// Jobs
	api.Post("/profiles/{profile}/start", "jobs.start", c.Jobs.Start)
	api.Get("/profiles/{profile}/executions", "jobs.executions", c.Jobs.Executions)
	api.Get("/jobs/{uid}", "jobs.show", c.Jobs.Show)
	api.Get("/jobs/{uid}/artifact", "jobs.artifact", c.Jobs.Artifact)
}
