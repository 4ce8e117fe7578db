package controllers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mosaicpim/mosaic/app/services"
	"github.com/mosaicpim/mosaic/pkg/apperr"
	"github.com/mosaicpim/mosaic/pkg/response"
	"github.com/mosaicpim/mosaic/pkg/storage"
)

// JobController starts executions and serves their history.
type JobController struct {
	jobs *services.JobService
	disk storage.Disk
}

func NewJobController(jobs *services.JobService, disk storage.Disk) *JobController {
	return &JobController{jobs: jobs, disk: disk}
}

// Start launches the profile's job. 409 when the tenant already has one
// in flight.
func (c *JobController) Start(w http.ResponseWriter, r *http.Request) {
	job, err := c.jobs.Start(r.Context(), tenantOf(r), chi.URLParam(r, "profile"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusAccepted, job)
}

func (c *JobController) Show(w http.ResponseWriter, r *http.Request) {
	job, err := c.jobs.Job(r.Context(), tenantOf(r), chi.URLParam(r, "uid"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, job)
}

// Executions lists a profile's run history, newest first.
func (c *JobController) Executions(w http.ResponseWriter, r *http.Request) {
	jobs, err := c.jobs.ListExecutions(r.Context(), tenantOf(r), chi.URLParam(r, "profile"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, jobs)
}

// Artifact streams the export file of a finished job.
func (c *JobController) Artifact(w http.ResponseWriter, r *http.Request) {
	job, err := c.jobs.Job(r.Context(), tenantOf(r), chi.URLParam(r, "uid"))
	if err != nil {
		response.Error(w, err)
		return
	}
	if job.Artifact == "" || !c.disk.Exists(job.Artifact) {
		response.Error(w, apperr.NotFound("artifact", job.UID))
		return
	}

	stream, err := c.disk.GetStream(job.Artifact)
	if err != nil {
		response.Error(w, err)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment")
	_, _ = io.Copy(w, stream)
}
