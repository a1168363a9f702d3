package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/pagescan/internal/source"
)

// Worker scans uploaded documents.
type Worker struct {
	runner  *Runner
	srcOpts source.Options
	log     *slog.Logger
}

func NewWorker(runner *Runner, srcOpts source.Options, log *slog.Logger) *Worker {
	return &Worker{
		runner:  runner,
		srcOpts: srcOpts,
		log:     log,
	}
}

// Process opens the job's upload and scans it against the job manifest.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename, "label", job.Label)

	// Phase 1: Open
	job.SetStatus(StatusOpening, "opening")
	src, err := source.OpenBytes(job.FileData(), job.Filename, job.Label, w.srcOpts)
	job.ReleaseFileData()
	if err != nil {
		log.Error("document unavailable", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "opening")
		return
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			log.Warn("close document", "error", cerr)
		}
	}()
	job.SetTotalPages(src.NumPages())

	// Phase 2: Scan
	job.SetStatus(StatusScanning, "scanning")
	ds, err := w.runner.ScanSource(ctx, job.Manifest(), src)
	if err != nil {
		log.Error("scan failed", "error", err)
		job.AddError(fmt.Sprintf("scan: %s", err))
		job.SetResult(ds)
		job.SetStatus(StatusFailed, "scanning")
		return
	}

	job.SetResult(ds)
	job.SetStatus(StatusCompleted, "done")
	log.Info("job complete", "topics_found", len(ds.Result.Matches))
}
