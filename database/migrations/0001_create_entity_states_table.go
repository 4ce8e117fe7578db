// Package migrations holds the schema history. Each file registers itself
// with the runner in init(), so importing the package is enough.
package migrations

import (
	"gorm.io/gorm"

	"github.com/mosaicpim/mosaic/app/repositories"
	"github.com/mosaicpim/mosaic/pkg/migration"
)

func init() {
	migration.Register("20260301000000_create_entity_states_table", &CreateEntityStatesTable{})
}

// CreateEntityStatesTable creates the versioned record store every catalog
// aggregate lives in.
type CreateEntityStatesTable struct{}

func (CreateEntityStatesTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&repositories.EntityState{})
}

func (CreateEntityStatesTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&repositories.EntityState{})
}
