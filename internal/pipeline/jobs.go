package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/pagescan/internal/manifest"
	"github.com/dgallion1/pagescan/internal/report"
)

// JobStatus represents the state of a scan job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusOpening   JobStatus = "opening"
	StatusScanning  JobStatus = "scanning"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job tracks one uploaded document scanned against one manifest.
type Job struct {
	mu sync.Mutex

	ID       string    `json:"job_id"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Label    string    `json:"label"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	manifest *manifest.Manifest
	fileData []byte
	result   *report.DocumentScan
	errors   []string
}

// Progress summarizes a scan as it runs and once it finishes.
type Progress struct {
	TotalPages   int      `json:"total_pages"`
	PagesScanned int      `json:"pages_scanned"`
	PagesSkipped int      `json:"pages_skipped"`
	Topics       int      `json:"topics"`
	TopicsFound  int      `json:"topics_found"`
	Markers      int      `json:"markers"`
	Errors       []string `json:"errors"`
}

// NewJob creates a queued job for data scanned against m.
func NewJob(m *manifest.Manifest, filename, label string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:          uuid.NewString(),
		Status:      StatusQueued,
		Phase:       "queued",
		Filename:    filename,
		Label:       label,
		Progress:    Progress{Topics: len(m.Topics)},
		ContentHash: ContentHashHex(data),
		CreatedAt:   now,
		UpdatedAt:   now,
		manifest:    m,
		fileData:    data,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes jobs not updated within the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetTotalPages records the page count once the document is open.
func (j *Job) SetTotalPages(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalPages = n
	j.UpdatedAt = time.Now()
}

// SetResult stores the finished scan and its counters.
func (j *Job) SetResult(ds report.DocumentScan) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = &ds
	if ds.Result != nil {
		j.Progress.PagesScanned = ds.Result.PagesScanned
		j.Progress.PagesSkipped = ds.Result.PagesSkipped
		j.Progress.TopicsFound = len(ds.Result.Matches)
	}
	j.Progress.Markers = len(ds.Markers)
	j.UpdatedAt = time.Now()
}

// Result returns the finished scan, or false until the job completes.
func (j *Job) Result() (report.DocumentScan, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.result == nil || j.Status != StatusCompleted {
		return report.DocumentScan{}, false
	}
	return *j.result, true
}

// Manifest returns the manifest the job scans against.
func (j *Job) Manifest() *manifest.Manifest {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.manifest
}

// FileData returns the uploaded bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// ReleaseFileData drops the uploaded bytes once they are no longer needed.
func (j *Job) ReleaseFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	Label       string    `json:"label"`
	Manifest    string    `json:"manifest"`
	ContentHash string    `json:"content_hash,omitempty"`
	Progress    Progress  `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	progress := j.Progress
	progress.Errors = append([]string{}, j.Progress.Errors...)

	var name string
	if j.manifest != nil {
		name = j.manifest.Name
	}
	return JobSnapshot{
		ID:          j.ID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Label:       j.Label,
		Manifest:    name,
		ContentHash: j.ContentHash,
		Progress:    progress,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
