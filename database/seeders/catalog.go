// Package seeders populates a fresh installation with a usable catalog.
package seeders

import (
	"fmt"

	"github.com/mosaicpim/mosaic/app/models"
	"github.com/mosaicpim/mosaic/app/repositories"
)

// Seeder populates one part of the database.
type Seeder interface {
	Name() string
	Run() error
}

// Run executes every registered seeder in order.
func Run(seeders ...Seeder) error {
	for _, s := range seeders {
		fmt.Printf("  Seeding: %s\n", s.Name())
		if err := s.Run(); err != nil {
			return fmt.Errorf("seeder %s: %w", s.Name(), err)
		}
	}
	return nil
}

// CatalogSeeder bootstraps the demo tenant's catalog settings: an sku
// identifier, an ecommerce channel and the common reference tables.
type CatalogSeeder struct {
	Tenant   string
	Settings *repositories.SettingsRepository
}

func (s *CatalogSeeder) Name() string { return "catalog:" + s.Tenant }

func (s *CatalogSeeder) Run() error {
	settings, err := s.Settings.Load(s.Tenant)
	if err != nil {
		return err
	}
	if len(settings.Attributes) > 0 {
		return nil // already seeded
	}

	settings.Attributes = []models.AttributeDefinition{
		{
			Code:     "sku",
			Type:     models.TypeIdentifier,
			Group:    models.GroupOther,
			IsUnique: true,
		},
		{
			Code:        "name",
			Type:        models.TypeText,
			Group:       models.GroupOther,
			Localizable: true,
			Scopable:    true,
		},
	}
	settings.Channels = []models.Channel{
		{Code: "ecommerce", Locales: []string{"en_US", "fr_FR"}},
	}
	settings.Locales = []models.Locale{
		{Code: "en_US", Enabled: true},
		{Code: "fr_FR", Enabled: true},
		{Code: "de_DE", Enabled: false},
	}
	settings.Currencies = []models.Currency{
		{Code: "USD", Enabled: true},
		{Code: "EUR", Enabled: true},
	}

	return s.Settings.Save(s.Tenant, settings)
}
