package migrations

import (
	"gorm.io/gorm"

	"github.com/mosaicpim/mosaic/pkg/migration"
	"github.com/mosaicpim/mosaic/pkg/queue"
)

func init() {
	migration.Register("20260301000001_create_failed_jobs_table", &CreateFailedJobsTable{})
}

// CreateFailedJobsTable creates the dead-letter table for queued jobs that
// exhausted their attempts.
type CreateFailedJobsTable struct{}

func (CreateFailedJobsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&queue.FailedJobRecord{})
}

func (CreateFailedJobsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&queue.FailedJobRecord{})
}
