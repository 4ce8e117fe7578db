package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosaicpim/mosaic/app/models"
	"github.com/mosaicpim/mosaic/app/repositories"
	"github.com/mosaicpim/mosaic/pkg/apperr"
	"github.com/mosaicpim/mosaic/pkg/event"
	"github.com/mosaicpim/mosaic/pkg/tabular"
	"github.com/mosaicpim/mosaic/pkg/testkit"
)

type jobFixture struct {
	svc      *JobService
	products *ProductService
	jobs     *testkit.MemoryJobStore
	lock     *testkit.MemoryLock
	disk     *testkit.MemoryDisk
	token    string
}

func importProfile(code string) models.Profile {
	return models.Profile{
		Code:      code,
		Job:       models.KindProductImport,
		Connector: models.ConnectorCSV,
		Settings: models.ProfileSettings{
			Content: models.ContentSettings{
				Channel: "ecommerce",
				Locales: []string{"en_US"},
			},
		},
	}
}

func seedJobs(t *testing.T, profiles ...models.Profile) *jobFixture {
	t.Helper()

	states := testkit.NewMemoryStateStore()
	settings := repositories.NewSettingsRepository(states)
	productRepo := repositories.NewProductRepository(states)
	index := testkit.NewMemoryUniqueIndex()
	validator := NewValidatorService(index)
	products := NewProductService(settings, productRepo, validator, index)
	registry := NewRegistryService(settings, productRepo)

	jobs := testkit.NewMemoryJobStore()
	lock := testkit.NewMemoryLock()
	disk := testkit.NewMemoryDisk()

	catalog := testkit.Settings()
	catalog.Profiles = profiles
	require.NoError(t, settings.Save(testkit.Tenant, catalog))

	return &jobFixture{
		svc:      NewJobService(settings, products, registry, NewCodecService(), jobs, lock, disk),
		products: products,
		jobs:     jobs,
		lock:     lock,
		disk:     disk,
		token:    catalog.UpdateToken,
	}
}

func readArtifact(t *testing.T, disk *testkit.MemoryDisk, path string) [][]string {
	t.Helper()
	content, err := disk.Get(path)
	require.NoError(t, err)
	records, err := tabular.ReadAll(bytes.NewReader(content), tabular.FormatCSV, tabular.Options{Delimiter: ';'})
	require.NoError(t, err)
	return records
}

func TestStartRejectsUnknownProfile(t *testing.T) {
	f := seedJobs(t)

	_, err := f.svc.Start(context.Background(), testkit.Tenant, "nope")
	assert.True(t, apperr.IsNotFound(err))
}

func TestStartIsSingleFlightPerTenant(t *testing.T) {
	ctx := context.Background()
	f := seedJobs(t, testkit.ExportProfile("weekly", models.ConnectorCSV))

	held, err := f.lock.Acquire(ctx, testkit.Tenant, "some-other-run")
	require.NoError(t, err)
	require.True(t, held)

	_, err = f.svc.Start(ctx, testkit.Tenant, "weekly")
	var running *apperr.AlreadyRunningError
	require.ErrorAs(t, err, &running)
	assert.Equal(t, testkit.Tenant, running.Tenant)

	// The rejected start leaves no trace in the run history.
	assert.Zero(t, f.jobs.Count(testkit.Tenant))

	// Another tenant is not affected.
	held, err = f.lock.Acquire(ctx, "globex", "uid")
	require.NoError(t, err)
	assert.True(t, held)
}

func TestStartWithDispatcherLeavesJobRunning(t *testing.T) {
	ctx := context.Background()
	f := seedJobs(t, testkit.ExportProfile("weekly", models.ConnectorCSV))

	var dispatched []string
	f.svc.SetDispatcher(func(tenant, profile, uid string) error {
		dispatched = append(dispatched, tenant+"/"+profile+"/"+uid)
		return nil
	})

	job, err := f.svc.Start(ctx, testkit.Tenant, "weekly")
	require.NoError(t, err)

	assert.Equal(t, models.JobRunning, job.Status)
	assert.Equal(t, []string{testkit.Tenant + "/weekly/" + job.UID}, dispatched)

	// The slot stays claimed until the worker runs Execute.
	assert.True(t, f.lock.Held(testkit.Tenant))

	require.NoError(t, f.svc.Execute(ctx, testkit.Tenant, "weekly", job.UID))
	assert.False(t, f.lock.Held(testkit.Tenant))

	finished, err := f.svc.Job(ctx, testkit.Tenant, job.UID)
	require.NoError(t, err)
	assert.Equal(t, models.JobDone, finished.Status)
}

func TestProductExportEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := seedJobs(t, testkit.ExportProfile("weekly", models.ConnectorCSV))

	first := testkit.Product("tee-001")
	first.Attributes = append(first.Attributes, models.ProductAttributeValue{
		Code: "weight", Data: []models.ValueEntry{{Value: 12.5}},
	})
	_, err := f.products.SaveProduct(ctx, testkit.Tenant, first, "")
	require.NoError(t, err)
	_, err = f.products.SaveProduct(ctx, testkit.Tenant, testkit.Product("tee-002"), "")
	require.NoError(t, err)

	job, err := f.svc.Start(ctx, testkit.Tenant, "weekly")
	require.NoError(t, err)

	assert.Equal(t, models.JobDone, job.Status)
	assert.Equal(t, 2, job.Total)
	assert.Equal(t, 2, job.Processed)
	assert.Zero(t, job.Failed)
	require.NotNil(t, job.FinishedAt)
	assert.False(t, f.lock.Held(testkit.Tenant))

	assert.Equal(t, "exports/"+testkit.Tenant+"/weekly-"+job.UID+".csv", job.Artifact)

	records := readArtifact(t, f.disk, job.Artifact)
	require.Len(t, records, 3)
	assert.Equal(t, []string{
		"sku", "family", "enabled", "groups", "categories", "parent",
		"attribute-sku",
		"attribute-name-ecommerce-en_US",
		"attribute-weight",
		"attribute-fragile",
		"attribute-tags",
	}, records[0])

	rows := map[string][]string{records[1][0]: records[1], records[2][0]: records[2]}
	require.Contains(t, rows, "tee-001")
	require.Contains(t, rows, "tee-002")
	assert.Equal(t, "12.5", rows["tee-001"][8])
	assert.Equal(t, "", rows["tee-002"][8])
}

func TestCategoryExport(t *testing.T) {
	ctx := context.Background()
	profile := models.Profile{
		Code:      "tree",
		Job:       models.KindCategoryExport,
		Connector: models.ConnectorCSV,
	}
	f := seedJobs(t, profile)

	_, err := f.products.SaveCategory(testkit.Tenant, models.Category{
		Code: "men", Labels: []models.LocaleValue{{Locale: "en_US", Value: "Men"}},
	}, "")
	require.NoError(t, err)
	_, err = f.products.SaveCategory(testkit.Tenant, models.Category{Code: "shirts", Parent: "men"}, "")
	require.NoError(t, err)

	job, err := f.svc.Start(ctx, testkit.Tenant, "tree")
	require.NoError(t, err)

	assert.Equal(t, models.JobDone, job.Status)
	assert.Equal(t, 2, job.Processed)

	records := readArtifact(t, f.disk, job.Artifact)
	// Locales were not set on the profile, so the enabled catalog locales
	// apply.
	assert.Equal(t, []string{"code", "label-en_US", "label-fr_FR"}, records[0])
	assert.Equal(t, []string{"men", "Men", ""}, records[1])
	assert.Equal(t, []string{"men#shirts", "", ""}, records[2])
}

func TestFailedRunFreesTheSlot(t *testing.T) {
	ctx := context.Background()
	f := seedJobs(t,
		importProfile("intake"),
		testkit.ExportProfile("weekly", models.ConnectorCSV))

	// No file was uploaded for the import profile, so the run aborts.
	_, err := f.svc.Start(ctx, testkit.Tenant, "intake")
	require.Error(t, err)

	runs, err := f.svc.ListExecutions(ctx, testkit.Tenant, "intake")
	require.NoError(t, err)
	require.Len(t, runs, 1)

	failed := runs[0]
	assert.Equal(t, models.JobFailed, failed.Status)
	assert.NotEmpty(t, failed.FailReason)
	assert.Equal(t, failed.Total, failed.Failed)
	assert.Zero(t, failed.Processed)
	require.NotNil(t, failed.FinishedAt)

	// The tenant is free to start the next job immediately.
	assert.False(t, f.lock.Held(testkit.Tenant))
	job, err := f.svc.Start(ctx, testkit.Tenant, "weekly")
	require.NoError(t, err)
	assert.Equal(t, models.JobDone, job.Status)
}

func TestProductImport(t *testing.T) {
	ctx := context.Background()
	f := seedJobs(t, importProfile("intake"))

	csv := strings.Join([]string{
		"sku;family;enabled;attribute-sku;attribute-name-ecommerce-en_US",
		"tee-009;clothing;true;tee-009;abcde",
		"tee-010;clothing;true;tee-010;toolong", // name exceeds maxCharacters
	}, "\n")
	require.NoError(t, f.disk.Put("imports/"+testkit.Tenant+"/intake.csv", []byte(csv)))

	job, err := f.svc.Start(ctx, testkit.Tenant, "intake")
	require.NoError(t, err)

	// A rejected row is counted, not fatal.
	assert.Equal(t, models.JobDone, job.Status)
	assert.Equal(t, 2, job.Total)
	assert.Equal(t, 1, job.Processed)
	assert.Equal(t, 1, job.Failed)

	stored, _, err := f.products.GetProduct(testkit.Tenant, "tee-009")
	require.NoError(t, err)
	assert.Equal(t, "clothing", stored.Family)
	assert.True(t, stored.Enabled)

	_, _, err = f.products.GetProduct(testkit.Tenant, "tee-010")
	assert.True(t, apperr.IsNotFound(err))
}

func TestProductImportMergesExistingRecords(t *testing.T) {
	ctx := context.Background()
	f := seedJobs(t, importProfile("intake"))

	existing := testkit.Product("tee-001")
	existing.Attributes = append(existing.Attributes, models.ProductAttributeValue{
		Code: "weight", Data: []models.ValueEntry{{Value: 12.5}},
	})
	_, err := f.products.SaveProduct(ctx, testkit.Tenant, existing, "")
	require.NoError(t, err)

	csv := strings.Join([]string{
		"sku;family;enabled;attribute-name-ecommerce-en_US",
		"tee-001;clothing;true;fresh",
	}, "\n")
	require.NoError(t, f.disk.Put("imports/"+testkit.Tenant+"/intake.csv", []byte(csv)))

	job, err := f.svc.Start(ctx, testkit.Tenant, "intake")
	require.NoError(t, err)
	assert.Equal(t, 1, job.Processed)

	stored, _, err := f.products.GetProduct(testkit.Tenant, "tee-001")
	require.NoError(t, err)

	name, ok := stored.Attribute("name")
	require.True(t, ok)
	entry, ok := name.Entry("ecommerce", "en_US")
	require.True(t, ok)
	assert.Equal(t, "fresh", entry.Value)

	// Values the row did not mention survive the merge.
	weight, ok := stored.Attribute("weight")
	require.True(t, ok)
	assert.Equal(t, 12.5, weight.Data[0].Value)
}

func TestFinishedRunNotifiesListeners(t *testing.T) {
	t.Cleanup(event.Flush)

	var finished []models.Job
	event.Listen(event.JobFinished, func(payload interface{}) {
		if job, ok := payload.(models.Job); ok {
			finished = append(finished, job)
		}
	})

	ctx := context.Background()
	f := seedJobs(t, testkit.ExportProfile("weekly", models.ConnectorCSV))
	job, err := f.svc.Start(ctx, testkit.Tenant, "weekly")
	require.NoError(t, err)

	require.Len(t, finished, 1)
	assert.Equal(t, job.UID, finished[0].UID)
	assert.Equal(t, models.JobDone, finished[0].Status)
}

func TestProductImportWithoutEnabledColumnKeepsFlag(t *testing.T) {
	ctx := context.Background()
	f := seedJobs(t, importProfile("intake"))

	existing := testkit.Product("tee-001")
	_, err := f.products.SaveProduct(ctx, testkit.Tenant, existing, "")
	require.NoError(t, err)

	csv := strings.Join([]string{
		"sku;family;attribute-name-ecommerce-en_US",
		"tee-001;clothing;fresh",
	}, "\n")
	require.NoError(t, f.disk.Put("imports/"+testkit.Tenant+"/intake.csv", []byte(csv)))

	job, err := f.svc.Start(ctx, testkit.Tenant, "intake")
	require.NoError(t, err)
	assert.Equal(t, models.JobDone, job.Status)
	assert.Equal(t, 1, job.Processed)
	assert.Equal(t, 0, job.Failed)

	// A file that never mentions the enabled flag must not flip it.
	stored, _, err := f.products.GetProduct(testkit.Tenant, "tee-001")
	require.NoError(t, err)
	assert.True(t, stored.Enabled)
}

func TestDeleteProfileClearsHistoryAndArtifacts(t *testing.T) {
	ctx := context.Background()
	f := seedJobs(t,
		testkit.ExportProfile("weekly", models.ConnectorCSV),
		testkit.ExportProfile("monthly", models.ConnectorCSV))

	weekly, err := f.svc.Start(ctx, testkit.Tenant, "weekly")
	require.NoError(t, err)
	monthly, err := f.svc.Start(ctx, testkit.Tenant, "monthly")
	require.NoError(t, err)

	settings, err := f.svc.DeleteProfile(ctx, testkit.Tenant, "weekly", f.token)
	require.NoError(t, err)
	_, exists := settings.Profile("weekly")
	assert.False(t, exists)

	runs, err := f.svc.ListExecutions(ctx, testkit.Tenant, "weekly")
	require.NoError(t, err)
	assert.Empty(t, runs)

	assert.False(t, f.disk.Exists(weekly.Artifact))
	assert.True(t, f.disk.Exists(monthly.Artifact))
}

func TestSweepArtifacts(t *testing.T) {
	f := seedJobs(t)

	fresh := "exports/" + testkit.Tenant + "/weekly-abc.csv"
	expired := "exports/" + testkit.Tenant + "/weekly-old.csv"
	require.NoError(t, f.disk.Put(fresh, []byte("a")))
	require.NoError(t, f.disk.Put(expired, []byte("b")))
	f.disk.SetLastModified(expired, time.Now().Add(-45*24*time.Hour))

	require.NoError(t, f.svc.SweepArtifacts())

	assert.True(t, f.disk.Exists(fresh))
	assert.False(t, f.disk.Exists(expired))
}
