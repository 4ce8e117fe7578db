package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mosaicpim/mosaic/pkg/apperr"
	"github.com/mosaicpim/mosaic/pkg/orm"
)

// EntityState is one versioned record in the catalog state store. Public
// holds the JSON document served to readers; Private holds bookkeeping the
// API never returns (e.g. the normalized unique values a record claimed).
type EntityState struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Tenant    string `gorm:"size:64;not null;uniqueIndex:idx_entity_states_record,priority:1"`
	Kind      string `gorm:"size:32;not null;uniqueIndex:idx_entity_states_record,priority:2"`
	RecordKey string `gorm:"size:255;not null;uniqueIndex:idx_entity_states_record,priority:3;column:record_key"`
	Public    string `gorm:"type:text;not null"`
	Private   string `gorm:"type:text"`
	Version   string `gorm:"size:36;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (EntityState) TableName() string { return "entity_states" }

// Record kinds stored in entity_states.
const (
	KindSettings     = "settings"
	KindProduct      = "product"
	KindProductModel = "product_model"
	KindCategory     = "category"
)

// StateStore is the versioned Get/Put surface every aggregate sits on. Put
// with an empty expected version creates; otherwise the write only lands
// when the stored version still matches, and a miss surfaces as
// StaleTokenError.
type StateStore interface {
	Get(tenant, kind, key string) (EntityState, error)
	Put(tenant, kind, key string, public, private []byte, expectedVersion string) (string, error)
	Delete(tenant, kind, key string) error
	List(tenant, kind string) ([]EntityState, error)
}

// StateRepository implements StateStore on GORM.
type StateRepository struct {
	db *gorm.DB // nil → the process-wide connection
}

func NewStateRepository() *StateRepository { return &StateRepository{} }

// NewStateRepositoryWith binds the repository to an explicit connection,
// used by tests running on in-memory SQLite.
func NewStateRepositoryWith(db *gorm.DB) *StateRepository {
	return &StateRepository{db: db}
}

func (r *StateRepository) query() *orm.Query {
	if r.db != nil {
		return orm.With(r.db)
	}
	return orm.DB()
}

func (r *StateRepository) Get(tenant, kind, key string) (EntityState, error) {
	var state EntityState
	err := r.query().Model(&EntityState{}).
		Where("tenant = ? AND kind = ? AND record_key = ?", tenant, kind, key).
		First(&state)
	if orm.IsNotFound(err) {
		return EntityState{}, apperr.NotFound(kind, key)
	}
	if err != nil {
		return EntityState{}, fmt.Errorf("repositories: get state %s/%s/%s: %w", tenant, kind, key, err)
	}
	return state, nil
}

func (r *StateRepository) Put(tenant, kind, key string, public, private []byte, expectedVersion string) (string, error) {
	next := uuid.NewString()

	if expectedVersion == "" {
		state := EntityState{
			Tenant:    tenant,
			Kind:      kind,
			RecordKey: key,
			Public:    string(public),
			Private:   string(private),
			Version:   next,
		}
		if err := r.query().Create(&state); err != nil {
			return "", fmt.Errorf("repositories: create state %s/%s/%s: %w", tenant, kind, key, err)
		}
		return next, nil
	}

	affected, err := r.query().Model(&EntityState{}).
		Where("tenant = ? AND kind = ? AND record_key = ? AND version = ?", tenant, kind, key, expectedVersion).
		Updates(map[string]interface{}{
			"public":  string(public),
			"private": string(private),
			"version": next,
		})
	if err != nil {
		return "", fmt.Errorf("repositories: update state %s/%s/%s: %w", tenant, kind, key, err)
	}
	if affected == 0 {
		return "", &apperr.StaleTokenError{Resource: kind + " " + key}
	}
	return next, nil
}

func (r *StateRepository) Delete(tenant, kind, key string) error {
	err := r.query().
		Where("tenant = ? AND kind = ? AND record_key = ?", tenant, kind, key).
		Delete(&EntityState{})
	if err != nil {
		return fmt.Errorf("repositories: delete state %s/%s/%s: %w", tenant, kind, key, err)
	}
	return nil
}

func (r *StateRepository) List(tenant, kind string) ([]EntityState, error) {
	var states []EntityState
	err := r.query().Model(&EntityState{}).
		Where("tenant = ? AND kind = ?", tenant, kind).
		Get(&states)
	if err != nil {
		return nil, fmt.Errorf("repositories: list states %s/%s: %w", tenant, kind, err)
	}
	return states, nil
}
