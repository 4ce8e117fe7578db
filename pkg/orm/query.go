// Package orm is a thin fluent wrapper over GORM used by the repositories.
// It adds the one capability plain chaining hides: conditional updates that
// report how many rows matched, which is what the optimistic-concurrency
// token check is built on.
package orm

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mosaicpim/mosaic/pkg/database"
)

// ErrNotFound mirrors gorm.ErrRecordNotFound for callers that should not
// import gorm directly.
var ErrNotFound = gorm.ErrRecordNotFound

type Query struct {
	db *gorm.DB
}

func DB() *Query {
	return &Query{db: database.DB}
}

// With wraps an explicit *gorm.DB (used by tests with an in-memory sqlite).
func With(db *gorm.DB) *Query {
	return &Query{db: db}
}

func (q *Query) Model(v interface{}) *Query {
	return &Query{db: q.db.Model(v)}
}

func (q *Query) Where(query string, args ...interface{}) *Query {
	return &Query{db: q.db.Where(query, args...)}
}

func (q *Query) Get(dest interface{}) error {
	return q.db.Find(dest).Error
}

func (q *Query) First(dest interface{}) error {
	return q.db.First(dest).Error
}

func (q *Query) Create(v interface{}) error {
	return q.db.Create(v).Error
}

func (q *Query) Save(v interface{}) error {
	return q.db.Save(v).Error
}

func (q *Query) Delete(v interface{}) error {
	return q.db.Delete(v).Error
}

func (q *Query) Count(n *int64) error {
	return q.db.Count(n).Error
}

// Updates applies the column map to every row matched by the preceding
// Where chain and returns the number of rows touched. A zero count with a
// nil error means the guard condition did not hold.
func (q *Query) Updates(columns map[string]interface{}) (int64, error) {
	res := q.db.Updates(columns)
	return res.RowsAffected, res.Error
}

// IsNotFound reports whether err is the record-not-found condition.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
