package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mosaicpim/mosaic/app/models"
	"github.com/mosaicpim/mosaic/app/services"
	"github.com/mosaicpim/mosaic/pkg/auth"
	"github.com/mosaicpim/mosaic/pkg/bind"
	"github.com/mosaicpim/mosaic/pkg/response"
)

// SettingsController exposes the catalog-settings aggregate over HTTP.
// Mutations carry the caller's update token in the If-Match header; the
// refreshed aggregate, with its new token, comes back in the response.
type SettingsController struct {
	registry *services.RegistryService
	jobs     *services.JobService
}

func NewSettingsController(registry *services.RegistryService, jobs *services.JobService) *SettingsController {
	return &SettingsController{registry: registry, jobs: jobs}
}

func tenantOf(r *http.Request) string { return auth.TenantFromCtx(r.Context()) }

func updateToken(r *http.Request) string { return r.Header.Get("If-Match") }

func (c *SettingsController) Show(w http.ResponseWriter, r *http.Request) {
	settings, err := c.registry.Settings(tenantOf(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, settings)
}

// ── Attributes ───────────────────────────────────────────────────────────────

func (c *SettingsController) CreateAttribute(w http.ResponseWriter, r *http.Request) {
	var def models.AttributeDefinition
	if fields, err := bind.JSON(r, &def); err != nil {
		response.BadRequest(w, err.Error())
		return
	} else if fields != nil {
		response.ValidationFailed(w, fields)
		return
	}

	settings, err := c.registry.CreateAttribute(tenantOf(r), def, updateToken(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, settings)
}

func (c *SettingsController) UpdateAttribute(w http.ResponseWriter, r *http.Request) {
	var def models.AttributeDefinition
	if fields, err := bind.JSON(r, &def); err != nil {
		response.BadRequest(w, err.Error())
		return
	} else if fields != nil {
		response.ValidationFailed(w, fields)
		return
	}
	def.Code = chi.URLParam(r, "code")

	settings, err := c.registry.UpdateAttribute(tenantOf(r), def, updateToken(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, settings)
}

func (c *SettingsController) DeleteAttribute(w http.ResponseWriter, r *http.Request) {
	settings, err := c.registry.DeleteAttribute(tenantOf(r), chi.URLParam(r, "code"), updateToken(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, settings)
}

// ── Groups ───────────────────────────────────────────────────────────────────

func (c *SettingsController) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var group models.AttributeGroup
	if fields, err := bind.JSON(r, &group); err != nil {
		response.BadRequest(w, err.Error())
		return
	} else if fields != nil {
		response.ValidationFailed(w, fields)
		return
	}

	settings, err := c.registry.CreateGroup(tenantOf(r), group, updateToken(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, settings)
}

func (c *SettingsController) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	settings, err := c.registry.DeleteGroup(tenantOf(r), chi.URLParam(r, "code"), updateToken(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, settings)
}

// ── Select options ───────────────────────────────────────────────────────────

func (c *SettingsController) AddOption(w http.ResponseWriter, r *http.Request) {
	var option models.SelectOption
	if fields, err := bind.JSON(r, &option); err != nil {
		response.BadRequest(w, err.Error())
		return
	} else if fields != nil {
		response.ValidationFailed(w, fields)
		return
	}

	settings, err := c.registry.AddSelectOption(tenantOf(r), chi.URLParam(r, "code"), option, updateToken(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, settings)
}

func (c *SettingsController) DeleteOption(w http.ResponseWriter, r *http.Request) {
	settings, err := c.registry.DeleteSelectOption(
		tenantOf(r),
		chi.URLParam(r, "code"),
		chi.URLParam(r, "option"),
		updateToken(r),
	)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, settings)
}

// ── Families and variants ────────────────────────────────────────────────────

func (c *SettingsController) CreateFamily(w http.ResponseWriter, r *http.Request) {
	var family models.Family
	if fields, err := bind.JSON(r, &family); err != nil {
		response.BadRequest(w, err.Error())
		return
	} else if fields != nil {
		response.ValidationFailed(w, fields)
		return
	}

	settings, err := c.registry.CreateFamily(tenantOf(r), family, updateToken(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, settings)
}

func (c *SettingsController) UpdateFamily(w http.ResponseWriter, r *http.Request) {
	var family models.Family
	if fields, err := bind.JSON(r, &family); err != nil {
		response.BadRequest(w, err.Error())
		return
	} else if fields != nil {
		response.ValidationFailed(w, fields)
		return
	}
	family.Code = chi.URLParam(r, "code")

	settings, err := c.registry.UpdateFamily(tenantOf(r), family, updateToken(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, settings)
}

func (c *SettingsController) DeleteFamily(w http.ResponseWriter, r *http.Request) {
	settings, err := c.registry.DeleteFamily(tenantOf(r), chi.URLParam(r, "code"), updateToken(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, settings)
}

func (c *SettingsController) CreateVariant(w http.ResponseWriter, r *http.Request) {
	var variant models.FamilyVariant
	if fields, err := bind.JSON(r, &variant); err != nil {
		response.BadRequest(w, err.Error())
		return
	} else if fields != nil {
		response.ValidationFailed(w, fields)
		return
	}

	settings, err := c.registry.CreateVariant(tenantOf(r), chi.URLParam(r, "code"), variant, updateToken(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, settings)
}

func (c *SettingsController) DeleteVariant(w http.ResponseWriter, r *http.Request) {
	settings, err := c.registry.DeleteVariant(
		tenantOf(r),
		chi.URLParam(r, "code"),
		chi.URLParam(r, "variant"),
		updateToken(r),
	)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, settings)
}

// ── Channels, currencies, locales ────────────────────────────────────────────

func (c *SettingsController) CreateChannel(w http.ResponseWriter, r *http.Request) {
	var channel models.Channel
	if fields, err := bind.JSON(r, &channel); err != nil {
		response.BadRequest(w, err.Error())
		return
	} else if fields != nil {
		response.ValidationFailed(w, fields)
		return
	}

	settings, err := c.registry.CreateChannel(tenantOf(r), channel, updateToken(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, settings)
}

func (c *SettingsController) DeleteChannel(w http.ResponseWriter, r *http.Request) {
	settings, err := c.registry.DeleteChannel(tenantOf(r), chi.URLParam(r, "code"), updateToken(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, settings)
}

type toggleRequest struct {
	Enabled bool `json:"enabled"`
}

func (c *SettingsController) ToggleCurrency(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if _, err := bind.JSON(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	settings, err := c.registry.ToggleCurrency(tenantOf(r), chi.URLParam(r, "code"), req.Enabled, updateToken(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, settings)
}

func (c *SettingsController) ToggleLocale(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if _, err := bind.JSON(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	settings, err := c.registry.ToggleLocale(tenantOf(r), chi.URLParam(r, "code"), req.Enabled, updateToken(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, settings)
}

// ── Profiles ─────────────────────────────────────────────────────────────────

func (c *SettingsController) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var profile models.Profile
	if fields, err := bind.JSON(r, &profile); err != nil {
		response.BadRequest(w, err.Error())
		return
	} else if fields != nil {
		response.ValidationFailed(w, fields)
		return
	}

	settings, err := c.registry.CreateProfile(tenantOf(r), profile, updateToken(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, settings)
}

func (c *SettingsController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var profile models.Profile
	if fields, err := bind.JSON(r, &profile); err != nil {
		response.BadRequest(w, err.Error())
		return
	} else if fields != nil {
		response.ValidationFailed(w, fields)
		return
	}
	profile.Code = chi.URLParam(r, "code")

	settings, err := c.registry.UpdateProfile(tenantOf(r), profile, updateToken(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, settings)
}

// DeleteProfile removes the profile plus its run history and artifacts.
func (c *SettingsController) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	settings, err := c.jobs.DeleteProfile(r.Context(), tenantOf(r), chi.URLParam(r, "code"), updateToken(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, settings)
}
