package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mosaicpim/mosaic/app/models"
	"github.com/mosaicpim/mosaic/app/repositories"
	"github.com/mosaicpim/mosaic/config"
	"github.com/mosaicpim/mosaic/pkg/apperr"
	"github.com/mosaicpim/mosaic/pkg/cache"
	"github.com/mosaicpim/mosaic/pkg/event"
	"github.com/mosaicpim/mosaic/pkg/logger"
	"github.com/mosaicpim/mosaic/pkg/metrics"
	"github.com/mosaicpim/mosaic/pkg/storage"
	"github.com/mosaicpim/mosaic/pkg/tabular"
	"github.com/mosaicpim/mosaic/pkg/workerpool"
)

// flattenWorkers sizes the fan-out pool used when rendering export rows.
const flattenWorkers = 4

// Dispatcher hands a started job to a background worker. When nil, the
// service executes the job in the calling goroutine.
type Dispatcher func(tenant, profile, uid string) error

// JobService runs bulk exports and imports, one at a time per tenant.
//
// Start claims the tenant's execution slot, writes a RUNNING record and
// hands off to the dispatcher. Execute does the work and moves the record
// to DONE or FAILED exactly once; the slot is freed on every path out.
type JobService struct {
	settings *repositories.SettingsRepository
	products *ProductService
	registry *RegistryService
	codec    *CodecService
	jobs     repositories.JobStore
	lock     repositories.ExecutionLock
	disk     storage.Disk
	dispatch Dispatcher
}

func NewJobService(
	settings *repositories.SettingsRepository,
	products *ProductService,
	registry *RegistryService,
	codec *CodecService,
	jobs repositories.JobStore,
	lock repositories.ExecutionLock,
	disk storage.Disk,
) *JobService {
	return &JobService{
		settings: settings,
		products: products,
		registry: registry,
		codec:    codec,
		jobs:     jobs,
		lock:     lock,
		disk:     disk,
	}
}

// SetDispatcher wires the queue hand-off. Call before Start.
func (s *JobService) SetDispatcher(d Dispatcher) { s.dispatch = d }

// Start launches a job for the profile. It fails with AlreadyRunningError,
// without writing any record, when the tenant already has a job in flight.
func (s *JobService) Start(ctx context.Context, tenant, profileCode string) (models.Job, error) {
	settings, err := s.settings.Load(tenant)
	if err != nil {
		return models.Job{}, err
	}
	profile, ok := settings.Profile(profileCode)
	if !ok {
		return models.Job{}, apperr.NotFound("profile", profileCode)
	}

	job := models.Job{
		UID:       uuid.NewString(),
		Code:      profile.Code,
		Connector: profile.Connector,
		Status:    models.JobRunning,
		StartedAt: time.Now().UTC(),
	}

	acquired, err := s.lock.Acquire(ctx, tenant, job.UID)
	if err != nil {
		return models.Job{}, err
	}
	if !acquired {
		return models.Job{}, &apperr.AlreadyRunningError{Tenant: tenant}
	}

	if err := s.jobs.Insert(ctx, tenant, job); err != nil {
		if relErr := s.lock.Release(ctx, tenant); relErr != nil {
			logger.L.Error("release job lock", "tenant", tenant, "error", relErr)
		}
		return models.Job{}, err
	}

	if s.dispatch != nil {
		if err := s.dispatch(tenant, profile.Code, job.UID); err != nil {
			return models.Job{}, s.failAndRelease(ctx, tenant, job, err)
		}
		return job, nil
	}

	if err := s.Execute(ctx, tenant, profile.Code, job.UID); err != nil {
		return models.Job{}, err
	}
	return s.jobs.Get(ctx, tenant, job.UID)
}

// Job returns one execution record by uid.
func (s *JobService) Job(ctx context.Context, tenant, uid string) (models.Job, error) {
	return s.jobs.Get(ctx, tenant, uid)
}

// ListExecutions returns the profile's run history, newest first.
func (s *JobService) ListExecutions(ctx context.Context, tenant, profile string) ([]models.Job, error) {
	return s.jobs.ListByProfile(ctx, tenant, profile)
}

// Execute runs the job's work and finalises its record. The tenant's
// execution slot is released no matter how the run ends.
func (s *JobService) Execute(ctx context.Context, tenant, profileCode, uid string) error {
	start := time.Now()
	defer func() {
		if err := s.lock.Release(ctx, tenant); err != nil {
			logger.L.Error("release job lock", "tenant", tenant, "error", err)
		}
	}()

	job, err := s.jobs.Get(ctx, tenant, uid)
	if err != nil {
		return err
	}

	settings, err := s.settings.Load(tenant)
	if err != nil {
		return s.finishFailed(ctx, tenant, job, err, start)
	}
	profile, ok := settings.Profile(profileCode)
	if !ok {
		return s.finishFailed(ctx, tenant, job, apperr.NotFound("profile", profileCode), start)
	}

	if err := s.run(ctx, tenant, settings, profile, &job); err != nil {
		return s.finishFailed(ctx, tenant, job, err, start)
	}

	now := time.Now().UTC()
	job.Status = models.JobDone
	job.FinishedAt = &now
	if err := s.jobs.Update(ctx, tenant, job); err != nil {
		return err
	}
	metrics.RecordJob(job.Code, string(models.JobDone), start)
	event.Fire(event.JobFinished, job)
	return nil
}

// finishFailed records the terminal FAILED state: every row counts as
// failed, none as processed.
func (s *JobService) finishFailed(ctx context.Context, tenant string, job models.Job, cause error, start time.Time) error {
	now := time.Now().UTC()
	job.Status = models.JobFailed
	job.FailReason = cause.Error()
	job.Failed = job.Total
	job.Processed = 0
	job.FinishedAt = &now

	if err := s.jobs.Update(ctx, tenant, job); err != nil {
		logger.L.Error("record failed job", "tenant", tenant, "uid", job.UID, "error", err)
	}
	metrics.RecordJob(job.Code, string(models.JobFailed), start)
	return cause
}

// failAndRelease is finishFailed plus an immediate slot release, for
// failures that happen before Execute takes over.
func (s *JobService) failAndRelease(ctx context.Context, tenant string, job models.Job, cause error) error {
	err := s.finishFailed(ctx, tenant, job, cause, time.Now())
	if relErr := s.lock.Release(ctx, tenant); relErr != nil {
		logger.L.Error("release job lock", "tenant", tenant, "error", relErr)
	}
	return err
}

func (s *JobService) run(ctx context.Context, tenant string, settings *models.CatalogSettings, profile models.Profile, job *models.Job) error {
	switch profile.Job {
	case models.KindProductExport:
		return s.exportProducts(ctx, tenant, settings, profile, job)
	case models.KindProductModelExport:
		return s.exportProductModels(ctx, tenant, settings, profile, job)
	case models.KindCategoryExport:
		return s.exportCategories(tenant, settings, profile, job)
	case models.KindProductImport:
		return s.importProducts(ctx, tenant, profile, job)
	default:
		return apperr.Invalid(profile.Code, "unknown job kind %q", profile.Job)
	}
}

// ─────────────────────────────────────────────
// Exports
// ─────────────────────────────────────────────

func (s *JobService) exportProducts(ctx context.Context, tenant string, settings *models.CatalogSettings, profile models.Profile, job *models.Job) error {
	products, err := s.products.ListProducts(tenant)
	if err != nil {
		return err
	}
	job.Total = len(products)

	rows := make([]map[string]string, len(products))
	errs := make([]error, len(products))

	pool := workerpool.New(flattenWorkers)
	var header []string
	seen := map[string]bool{}

	for i := range products {
		i := i
		if err := pool.SubmitWait(func() {
			rows[i], errs[i] = s.codec.FlattenProduct(products[i], settings, profile.Settings)
		}); err != nil {
			pool.Shutdown()
			return err
		}
		s.bumpProgress(ctx, tenant, job.UID)

		family, ok := settings.Family(products[i].Family)
		if !ok {
			continue
		}
		for _, col := range s.codec.ProductHeader(family, settings, profile.Settings) {
			if !seen[col] {
				seen[col] = true
				header = append(header, col)
			}
		}
	}
	pool.Shutdown()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	table := [][]string{header}
	for _, row := range rows {
		line := make([]string, len(header))
		for j, col := range header {
			line[j] = row[col]
		}
		table = append(table, line)
	}

	path, err := s.writeArtifact(tenant, profile, job.UID, table)
	if err != nil {
		return err
	}
	job.Artifact = path
	job.Processed = len(products)
	metrics.ExportRows.WithLabelValues(string(profile.Job)).Add(float64(len(products)))
	return nil
}

func (s *JobService) exportProductModels(ctx context.Context, tenant string, settings *models.CatalogSettings, profile models.Profile, job *models.Job) error {
	productModels, err := s.products.ListProductModels(tenant)
	if err != nil {
		return err
	}
	job.Total = len(productModels)

	var header []string
	seen := map[string]bool{}
	rows := make([]map[string]string, len(productModels))

	for i, model := range productModels {
		rows[i], err = s.codec.FlattenProductModel(model, settings, profile.Settings)
		if err != nil {
			return err
		}
		s.bumpProgress(ctx, tenant, job.UID)

		family, ok := settings.Family(model.Family)
		if !ok {
			continue
		}
		for _, col := range s.codec.ProductModelHeader(family, settings, profile.Settings) {
			if !seen[col] {
				seen[col] = true
				header = append(header, col)
			}
		}
	}

	table := [][]string{header}
	for _, row := range rows {
		line := make([]string, len(header))
		for j, col := range header {
			line[j] = row[col]
		}
		table = append(table, line)
	}

	path, err := s.writeArtifact(tenant, profile, job.UID, table)
	if err != nil {
		return err
	}
	job.Artifact = path
	job.Processed = len(productModels)
	metrics.ExportRows.WithLabelValues(string(profile.Job)).Add(float64(len(productModels)))
	return nil
}

func (s *JobService) exportCategories(tenant string, settings *models.CatalogSettings, profile models.Profile, job *models.Job) error {
	categories, err := s.products.ListCategories(tenant)
	if err != nil {
		return err
	}
	job.Total = len(categories)

	locales := profile.Settings.Content.Locales
	if len(locales) == 0 {
		for _, l := range settings.Locales {
			if l.Enabled {
				locales = append(locales, l.Code)
			}
		}
	}

	header, rows := s.codec.FlattenCategories(categories, locales)
	table := append([][]string{header}, rows...)

	path, err := s.writeArtifact(tenant, profile, job.UID, table)
	if err != nil {
		return err
	}
	job.Artifact = path
	job.Processed = len(categories)
	metrics.ExportRows.WithLabelValues(string(profile.Job)).Add(float64(len(categories)))
	return nil
}

// writeArtifact renders the table through the profile's connector and
// stores it under the tenant's export prefix.
func (s *JobService) writeArtifact(tenant string, profile models.Profile, uid string, table [][]string) (string, error) {
	format, err := tabular.ParseFormat(profile.Connector.Extension())
	if err != nil {
		return "", &apperr.ArtifactError{Op: "format", Err: err}
	}

	var buf bytes.Buffer
	w, err := tabular.NewWriter(&buf, format, tabular.Options{Delimiter: profile.Settings.CSVDelimiter()})
	if err != nil {
		return "", &apperr.ArtifactError{Op: "open writer", Err: err}
	}
	for _, row := range table {
		if err := w.Write(row); err != nil {
			return "", &apperr.ArtifactError{Op: "write row", Err: err}
		}
	}
	if err := w.Close(); err != nil {
		return "", &apperr.ArtifactError{Op: "close writer", Err: err}
	}

	path := exportPath(tenant, profile.Code, uid, profile.Connector)
	if err := s.disk.Put(path, buf.Bytes()); err != nil {
		return "", &apperr.ArtifactError{Op: "store", Err: err}
	}
	return path, nil
}

func exportPath(tenant, profile, uid string, connector models.Connector) string {
	return fmt.Sprintf("exports/%s/%s-%s.%s", tenant, profile, uid, connector.Extension())
}

func importPath(tenant, profile string, connector models.Connector) string {
	return fmt.Sprintf("imports/%s/%s.%s", tenant, profile, connector.Extension())
}

// ─────────────────────────────────────────────
// Imports
// ─────────────────────────────────────────────

// importProducts reads the uploaded file and upserts one product per row.
// A bad row is counted and skipped; only infrastructure failures abort the
// whole run.
func (s *JobService) importProducts(ctx context.Context, tenant string, profile models.Profile, job *models.Job) error {
	path := importPath(tenant, profile.Code, profile.Connector)
	content, err := s.disk.Get(path)
	if err != nil {
		return &apperr.ArtifactError{Op: "read " + path, Err: err}
	}

	format, err := tabular.ParseFormat(profile.Connector.Extension())
	if err != nil {
		return &apperr.ArtifactError{Op: "format", Err: err}
	}
	records, err := tabular.ReadAll(bytes.NewReader(content), format, tabular.Options{Delimiter: profile.Settings.CSVDelimiter()})
	if err != nil {
		return &apperr.ArtifactError{Op: "parse " + path, Err: err}
	}
	if len(records) == 0 {
		return &apperr.ArtifactError{Op: "parse " + path, Err: fmt.Errorf("empty file")}
	}

	header := records[0]
	body := records[1:]
	job.Total = len(body)

	settings, err := s.settings.Load(tenant)
	if err != nil {
		return err
	}

	for _, record := range body {
		row := map[string]string{}
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}

		if err := s.importRow(ctx, tenant, settings, profile, row); err != nil {
			job.Failed++
			logger.L.Warn("import row rejected", "tenant", tenant, "uid", job.UID, "error", err)
		} else {
			job.Processed++
		}
		s.bumpProgress(ctx, tenant, job.UID)
	}
	return nil
}

func (s *JobService) importRow(ctx context.Context, tenant string, settings *models.CatalogSettings, profile models.Profile, row map[string]string) error {
	incoming, err := s.codec.UnflattenProduct(row, settings, profile.Settings)
	if err != nil {
		return err
	}

	stored, version, err := s.products.products.GetProduct(tenant, incoming.SKU)
	switch {
	case err == nil:
		_, enabledSet := row["enabled"]
		merged := mergeProduct(stored, incoming, enabledSet)
		_, err = s.products.SaveProduct(ctx, tenant, merged, version)
		return err
	case apperr.IsNotFound(err):
		_, err = s.products.SaveProduct(ctx, tenant, incoming, "")
		return err
	default:
		return err
	}
}

// mergeProduct overlays the imported row on the stored record: fixed fields
// and supplied attribute values win, everything else survives. enabledSet
// reports whether the row carried an enabled column at all; without it the
// stored flag is left alone.
func mergeProduct(stored, incoming models.Product, enabledSet bool) models.Product {
	merged := stored
	if incoming.Family != "" {
		merged.Family = incoming.Family
	}
	if enabledSet {
		merged.Enabled = incoming.Enabled
	}
	if incoming.Parent != "" {
		merged.Parent = incoming.Parent
	}
	if len(incoming.Groups) > 0 {
		merged.Groups = incoming.Groups
	}
	if len(incoming.Categories) > 0 {
		merged.Categories = incoming.Categories
	}

	for _, value := range incoming.Attributes {
		replaced := false
		for i := range merged.Attributes {
			if merged.Attributes[i].Code == value.Code {
				merged.Attributes[i] = value
				replaced = true
				break
			}
		}
		if !replaced {
			merged.Attributes = append(merged.Attributes, value)
		}
	}
	return merged
}

// ─────────────────────────────────────────────
// Profile removal and retention
// ─────────────────────────────────────────────

// DeleteProfile drops the profile from the catalog settings, then clears
// its run history and stored artifacts. Cleanup failures are logged, not
// returned, once the profile itself is gone.
func (s *JobService) DeleteProfile(ctx context.Context, tenant, code, expectedToken string) (*models.CatalogSettings, error) {
	settings, err := s.registry.RemoveProfile(tenant, code, expectedToken)
	if err != nil {
		return nil, err
	}

	if err := s.jobs.DeleteByProfile(ctx, tenant, code); err != nil {
		logger.L.Error("delete job history", "tenant", tenant, "profile", code, "error", err)
	}

	files, err := s.disk.AllFiles("exports/" + tenant)
	if err != nil {
		logger.L.Error("list artifacts", "tenant", tenant, "error", err)
		return settings, nil
	}
	for _, file := range files {
		base := file[strings.LastIndexByte(file, '/')+1:]
		if !strings.HasPrefix(base, code+"-") {
			continue
		}
		if err := s.disk.Delete(file); err != nil {
			logger.L.Error("delete artifact", "tenant", tenant, "file", file, "error", err)
		}
	}
	return settings, nil
}

// SweepArtifacts deletes export files older than the configured retention
// window. Wired into the scheduler at boot.
func (s *JobService) SweepArtifacts() error {
	maxAge := time.Duration(config.ArtifactMaxAgeDays()) * 24 * time.Hour
	cutoff := time.Now().Add(-maxAge)

	files, err := s.disk.AllFiles("exports")
	if err != nil {
		return err
	}
	for _, file := range files {
		modified, err := s.disk.LastModified(file)
		if err != nil {
			logger.L.Warn("stat artifact", "file", file, "error", err)
			continue
		}
		if modified.Before(cutoff) {
			if err := s.disk.Delete(file); err != nil {
				logger.L.Warn("delete expired artifact", "file", file, "error", err)
			}
		}
	}
	return nil
}

func (s *JobService) bumpProgress(ctx context.Context, tenant, uid string) {
	if cache.Client() == nil {
		return
	}
	if _, err := cache.Incr(ctx, "mosaic:jobs:progress:"+tenant+":"+uid); err != nil {
		logger.L.Debug("bump job progress", "tenant", tenant, "uid", uid, "error", err)
	}
}
