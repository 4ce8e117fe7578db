package repositories

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mosaicpim/mosaic/app/models"
	"github.com/mosaicpim/mosaic/pkg/apperr"
	"github.com/mosaicpim/mosaic/pkg/mongodb"
)

// JobStore persists the execution history of export and import runs.
type JobStore interface {
	Insert(ctx context.Context, tenant string, job models.Job) error
	Update(ctx context.Context, tenant string, job models.Job) error
	Get(ctx context.Context, tenant, uid string) (models.Job, error)
	ListByProfile(ctx context.Context, tenant, profile string) ([]models.Job, error)
	DeleteByProfile(ctx context.Context, tenant, profile string) error
}

const jobCollection = "job_executions"

// jobDocument is the stored shape: part groups one profile's runs within a
// tenant, sort is a zero-padded start timestamp so a descending sort on it
// returns newest runs first.
type jobDocument struct {
	Part   string     `bson:"part"`
	Sort   string     `bson:"sort"`
	Tenant string     `bson:"tenant"`
	Data   models.Job `bson:"data"`
}

// JobRepository implements JobStore on MongoDB.
type JobRepository struct {
	col *mongo.Collection // nil → the process-wide connection
}

func NewJobRepository() *JobRepository { return &JobRepository{} }

// NewJobRepositoryWith binds the repository to an explicit collection.
func NewJobRepositoryWith(col *mongo.Collection) *JobRepository {
	return &JobRepository{col: col}
}

func (r *JobRepository) collection() *mongo.Collection {
	if r.col != nil {
		return r.col
	}
	return mongodb.Collection(jobCollection)
}

// EnsureIndexes creates the (part, sort) compound index and the uid lookup
// index. Call once at boot.
func (r *JobRepository) EnsureIndexes(ctx context.Context) error {
	col := r.collection()
	if col == nil {
		return fmt.Errorf("repositories: job store: mongo not connected")
	}

	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "part", Value: 1}, {Key: "sort", Value: -1}}},
		{Keys: bson.D{{Key: "tenant", Value: 1}, {Key: "data.uid", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("repositories: job store indexes: %w", err)
	}
	return nil
}

func partKey(tenant, profile string) string {
	return tenant + "|" + profile
}

func (r *JobRepository) Insert(ctx context.Context, tenant string, job models.Job) error {
	col := r.collection()
	if col == nil {
		return fmt.Errorf("repositories: job store: mongo not connected")
	}

	doc := jobDocument{
		Part:   partKey(tenant, job.Code),
		Sort:   fmt.Sprintf("%020d", job.StartedAt.UnixNano()),
		Tenant: tenant,
		Data:   job,
	}

	if _, err := col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("repositories: insert job %s: %w", job.UID, err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, tenant string, job models.Job) error {
	col := r.collection()
	if col == nil {
		return fmt.Errorf("repositories: job store: mongo not connected")
	}

	filter := bson.M{"tenant": tenant, "data.uid": job.UID}
	update := bson.M{"$set": bson.M{"data": job}}

	res, err := col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("repositories: update job %s: %w", job.UID, err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("job", job.UID)
	}
	return nil
}

func (r *JobRepository) Get(ctx context.Context, tenant, uid string) (models.Job, error) {
	col := r.collection()
	if col == nil {
		return models.Job{}, fmt.Errorf("repositories: job store: mongo not connected")
	}

	var doc jobDocument
	err := col.FindOne(ctx, bson.M{"tenant": tenant, "data.uid": uid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Job{}, apperr.NotFound("job", uid)
	}
	if err != nil {
		return models.Job{}, fmt.Errorf("repositories: get job %s: %w", uid, err)
	}
	return doc.Data, nil
}

func (r *JobRepository) ListByProfile(ctx context.Context, tenant, profile string) ([]models.Job, error) {
	col := r.collection()
	if col == nil {
		return nil, fmt.Errorf("repositories: job store: mongo not connected")
	}

	opts := options.Find().SetSort(bson.D{{Key: "sort", Value: -1}})
	cur, err := col.Find(ctx, bson.M{"part": partKey(tenant, profile)}, opts)
	if err != nil {
		return nil, fmt.Errorf("repositories: list jobs %s/%s: %w", tenant, profile, err)
	}
	defer cur.Close(ctx)

	var jobs []models.Job
	for cur.Next(ctx) {
		var doc jobDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("repositories: decode job: %w", err)
		}
		jobs = append(jobs, doc.Data)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("repositories: iterate jobs: %w", err)
	}
	return jobs, nil
}

func (r *JobRepository) DeleteByProfile(ctx context.Context, tenant, profile string) error {
	col := r.collection()
	if col == nil {
		return fmt.Errorf("repositories: job store: mongo not connected")
	}

	if _, err := col.DeleteMany(ctx, bson.M{"part": partKey(tenant, profile)}); err != nil {
		return fmt.Errorf("repositories: delete jobs %s/%s: %w", tenant, profile, err)
	}
	return nil
}
