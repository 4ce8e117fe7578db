package models

import "time"

// JobStatus is the lifecycle state of a job record.
type JobStatus string

const (
	JobRunning JobStatus = "RUNNING"
	JobFailed  JobStatus = "FAILED"
	JobDone    JobStatus = "DONE"
)

// Job records one bulk execution. It is created RUNNING, transitions once
// to DONE or FAILED, and is immutable afterward. Records are keyed by
// (tenant, profile code, uid).
type Job struct {
	UID        string     `json:"uid" bson:"uid"`
	Code       string     `json:"code" bson:"code"` // profile code
	Connector  Connector  `json:"connector" bson:"connector"`
	Status     JobStatus  `json:"status" bson:"status"`
	Total      int        `json:"total,omitempty" bson:"total,omitempty"`
	Processed  int        `json:"processed" bson:"processed"`
	Failed     int        `json:"failed" bson:"failed"`
	FailReason string     `json:"failReason,omitempty" bson:"failReason,omitempty"`
	Artifact   string     `json:"artifact,omitempty" bson:"artifact,omitempty"`
	StartedAt  time.Time  `json:"startedAt" bson:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty" bson:"finishedAt,omitempty"`
}

// Terminal reports whether the job has reached DONE or FAILED.
func (j Job) Terminal() bool {
	return j.Status == JobDone || j.Status == JobFailed
}
