package repositories

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mosaicpim/mosaic/app/models"
	"github.com/mosaicpim/mosaic/pkg/apperr"
)

const settingsKey = "catalog"

// SettingsRepository persists the per-tenant CatalogSettings aggregate as a
// single state-store record. The record version doubles as the aggregate's
// opaque update token.
type SettingsRepository struct {
	states StateStore
}

func NewSettingsRepository(states StateStore) *SettingsRepository {
	return &SettingsRepository{states: states}
}

// Load returns the tenant's catalog settings. A tenant that never saved
// anything gets a fresh aggregate with an empty update token, so the first
// Save creates the record.
func (r *SettingsRepository) Load(tenant string) (*models.CatalogSettings, error) {
	state, err := r.states.Get(tenant, KindSettings, settingsKey)

	var notFound *apperr.NotFoundError
	if errors.As(err, &notFound) {
		fresh := models.NewCatalogSettings()
		return &fresh, nil
	}
	if err != nil {
		return nil, err
	}

	var settings models.CatalogSettings
	if err := json.Unmarshal([]byte(state.Public), &settings); err != nil {
		return nil, fmt.Errorf("repositories: decode settings for %s: %w", tenant, err)
	}
	settings.UpdateToken = state.Version
	return &settings, nil
}

// Save writes the aggregate back guarded by its update token and stamps the
// regenerated token onto it.
func (r *SettingsRepository) Save(tenant string, settings *models.CatalogSettings) error {
	expected := settings.UpdateToken

	public, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("repositories: encode settings for %s: %w", tenant, err)
	}

	version, err := r.states.Put(tenant, KindSettings, settingsKey, public, nil, expected)
	if err != nil {
		return err
	}

	settings.UpdateToken = version
	return nil
}
