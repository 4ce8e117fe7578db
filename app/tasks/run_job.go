// Package tasks holds the payload types pushed through the job queue.
package tasks

import (
	"context"
	"fmt"
)

// Runner executes a started job. The server wires it to the job service at
// boot; worker processes do the same before draining the queue.
var Runner func(ctx context.Context, tenant, profile, uid string) error

// RunJob carries one started export or import execution to a worker.
type RunJob struct {
	Tenant  string `json:"tenant"`
	Profile string `json:"profile"`
	UID     string `json:"uid"`
}

func (j *RunJob) Handle() error {
	if Runner == nil {
		return fmt.Errorf("tasks: no job runner wired")
	}
	return Runner(context.Background(), j.Tenant, j.Profile, j.UID)
}
