// Package testkit holds the in-memory collaborator fakes and catalog
// fixtures shared by the service tests. Nothing here touches the network.
package testkit

import (
	"bytes"
	"context"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mosaicpim/mosaic/app/models"
	"github.com/mosaicpim/mosaic/pkg/apperr"
)

// ─────────────────────────────────────────────
// Execution lock
// ─────────────────────────────────────────────

// MemoryLock is an in-process ExecutionLock with the same insert-if-absent
// contract as the Redis implementation.
type MemoryLock struct {
	mu      sync.Mutex
	holders map[string]string // tenant → job uid
}

func NewMemoryLock() *MemoryLock {
	return &MemoryLock{holders: map[string]string{}}
}

func (l *MemoryLock) Acquire(ctx context.Context, tenant, uid string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.holders[tenant]; held {
		return false, nil
	}
	l.holders[tenant] = uid
	return true, nil
}

func (l *MemoryLock) Release(ctx context.Context, tenant string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.holders, tenant)
	return nil
}

// Held reports whether the tenant's slot is currently taken.
func (l *MemoryLock) Held(tenant string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, held := l.holders[tenant]
	return held
}

// ─────────────────────────────────────────────
// Job store
// ─────────────────────────────────────────────

// MemoryJobStore is an in-process JobStore keyed the same way as the Mongo
// implementation: runs grouped per (tenant, profile), newest first.
type MemoryJobStore struct {
	mu   sync.Mutex
	jobs map[string][]models.Job // tenant|profile → runs
}

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: map[string][]models.Job{}}
}

func (s *MemoryJobStore) Insert(ctx context.Context, tenant string, job models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tenant + "|" + job.Code
	s.jobs[key] = append(s.jobs[key], job)
	return nil
}

func (s *MemoryJobStore) Update(ctx context.Context, tenant string, job models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, runs := range s.jobs {
		if !strings.HasPrefix(key, tenant+"|") {
			continue
		}
		for i, run := range runs {
			if run.UID == job.UID {
				runs[i] = job
				return nil
			}
		}
	}
	return apperr.NotFound("job", job.UID)
}

func (s *MemoryJobStore) Get(ctx context.Context, tenant, uid string) (models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, runs := range s.jobs {
		if !strings.HasPrefix(key, tenant+"|") {
			continue
		}
		for _, run := range runs {
			if run.UID == uid {
				return run, nil
			}
		}
	}
	return models.Job{}, apperr.NotFound("job", uid)
}

func (s *MemoryJobStore) ListByProfile(ctx context.Context, tenant, profile string) ([]models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs := s.jobs[tenant+"|"+profile]
	out := make([]models.Job, len(runs))
	copy(out, runs)

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

func (s *MemoryJobStore) DeleteByProfile(ctx context.Context, tenant, profile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, tenant+"|"+profile)
	return nil
}

// Count returns the total number of stored runs for the tenant.
func (s *MemoryJobStore) Count(tenant string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key, runs := range s.jobs {
		if strings.HasPrefix(key, tenant+"|") {
			n += len(runs)
		}
	}
	return n
}

// ─────────────────────────────────────────────
// Uniqueness index
// ─────────────────────────────────────────────

// MemoryUniqueIndex mimics the Redis sorted-set index, including its
// non-atomic probe-then-record shape.
type MemoryUniqueIndex struct {
	mu     sync.Mutex
	values map[string]struct{} // tenant|attribute|value
}

func NewMemoryUniqueIndex() *MemoryUniqueIndex {
	return &MemoryUniqueIndex{values: map[string]struct{}{}}
}

func uniqueKey(tenant, attribute, value string) string {
	return tenant + "|" + attribute + "|" + value
}

func (i *MemoryUniqueIndex) Exists(ctx context.Context, tenant, attribute, value string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.values[uniqueKey(tenant, attribute, value)]
	return ok, nil
}

func (i *MemoryUniqueIndex) Record(ctx context.Context, tenant, attribute, value string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.values[uniqueKey(tenant, attribute, value)] = struct{}{}
	return nil
}

func (i *MemoryUniqueIndex) Remove(ctx context.Context, tenant, attribute, value string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.values, uniqueKey(tenant, attribute, value))
	return nil
}

// ─────────────────────────────────────────────
// Blob storage
// ─────────────────────────────────────────────

// MemoryDisk is an in-process storage.Disk.
type MemoryDisk struct {
	mu    sync.Mutex
	files map[string][]byte
	mtime map[string]time.Time
}

func NewMemoryDisk() *MemoryDisk {
	return &MemoryDisk{files: map[string][]byte{}, mtime: map[string]time.Time{}}
}

func (d *MemoryDisk) Put(p string, content []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf := make([]byte, len(content))
	copy(buf, content)
	d.files[p] = buf
	d.mtime[p] = time.Now()
	return nil
}

func (d *MemoryDisk) Get(p string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	content, ok := d.files[p]
	if !ok {
		return nil, &apperr.ArtifactError{Op: "read " + p, Err: io.ErrUnexpectedEOF}
	}
	out := make([]byte, len(content))
	copy(out, content)
	return out, nil
}

func (d *MemoryDisk) GetStream(p string) (io.ReadCloser, error) {
	content, err := d.Get(p)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (d *MemoryDisk) Exists(p string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.files[p]
	return ok
}

func (d *MemoryDisk) Size(p string) (int64, error) {
	content, err := d.Get(p)
	if err != nil {
		return 0, err
	}
	return int64(len(content)), nil
}

func (d *MemoryDisk) LastModified(p string) (time.Time, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.mtime[p]
	if !ok {
		return time.Time{}, &apperr.ArtifactError{Op: "stat " + p, Err: io.ErrUnexpectedEOF}
	}
	return t, nil
}

// SetLastModified backdates a file, used by retention-sweep tests.
func (d *MemoryDisk) SetLastModified(p string, t time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mtime[p] = t
}

func (d *MemoryDisk) URL(p string) string {
	return "memory://" + p
}

func (d *MemoryDisk) Delete(p string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.files, p)
	delete(d.mtime, p)
	return nil
}

func (d *MemoryDisk) AllFiles(directory string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	prefix := strings.TrimSuffix(directory, "/") + "/"
	var out []string
	for p := range d.files {
		if strings.HasPrefix(p, prefix) || path.Dir(p) == directory {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (d *MemoryDisk) DeleteDirectory(directory string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	prefix := strings.TrimSuffix(directory, "/") + "/"
	for p := range d.files {
		if strings.HasPrefix(p, prefix) {
			delete(d.files, p)
			delete(d.mtime, p)
		}
	}
	return nil
}
