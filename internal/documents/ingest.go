package documents

import (
	"context"
	"path/filepath"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/casestudy-ai/cli/internal/api"
	"github.com/casestudy-ai/cli/internal/apierr"
	"github.com/casestudy-ai/cli/internal/logging"
	"github.com/casestudy-ai/cli/internal/validate"
)

// Uploader sends one local file to the backend
type Uploader interface {
	UploadFile(ctx context.Context, path string) (*api.UploadResult, error)
}

// Outcome of one file
type Outcome int

const (
	Ingested Outcome = iota
	Failed
	Unchanged
)

// Result describes what happened to one file
type Result struct {
	Path    string
	Info    *FileInfo
	Outcome Outcome
	// Message is the user-facing reason for a failure, or the server's
	// message on success
	Message string
}

// Failure names a file that could not be ingested
type Failure struct {
	Path    string
	Message string
}

// Summary tallies an ingestion run
type Summary struct {
	Ingested int
	Skipped  int
	Failed   int
	Failures []Failure
}

func (s *Summary) add(r Result) {
	switch r.Outcome {
	case Ingested:
		s.Ingested++
	case Failed:
		s.Failed++
		s.Failures = append(s.Failures, Failure{Path: r.Path, Message: r.Message})
	}
}

// Ingester uploads files one at a time
type Ingester struct {
	uploader Uploader
	files    *validate.Files
	logger   *zap.Logger
	onResult func(Result)

	// last uploaded content hash per path
	uploaded map[string]string
}

// NewIngester creates a new ingester. onResult, if set, is called after
// every file.
func NewIngester(uploader Uploader, files *validate.Files, logger *zap.Logger, onResult func(Result)) *Ingester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingester{
		uploader: uploader,
		files:    files,
		logger:   logger,
		onResult: onResult,
		uploaded: make(map[string]string),
	}
}

// Dir uploads every supported file under dir
func (i *Ingester) Dir(ctx context.Context, dir string) (Summary, error) {
	files, skipped, err := Collect(dir, i.files.Supported)
	if err != nil {
		return Summary{}, err
	}

	summary := i.Run(ctx, files)
	summary.Skipped = skipped
	return summary, nil
}

// Run uploads files sequentially until done or ctx ends
func (i *Ingester) Run(ctx context.Context, files []string) Summary {
	ctx = logging.WithAction(logging.ToContext(ctx, i.logger), "ingest")

	var summary Summary
	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		summary.add(i.one(ctx, path))
	}
	return summary
}

// Watch uploads supported files as they appear or change under dir until
// ctx ends. Files whose content was already uploaded are not sent again.
func (i *Ingester) Watch(ctx context.Context, dir string, settle time.Duration) (Summary, error) {
	watcher, err := NewWatcher(i.files.Supported, settle, i.logger)
	if err != nil {
		return Summary{}, err
	}
	ready, err := watcher.Watch(ctx, dir)
	if err != nil {
		watcher.Close()
		return Summary{}, err
	}

	ctx = logging.WithAction(logging.ToContext(ctx, i.logger), "watch")
	ctxzap.Info(ctx, "Watching folder", zap.String("dir", dir))

	var summary Summary
	for path := range ready {
		summary.add(i.one(ctx, path))
	}
	return summary, nil
}

func (i *Ingester) one(ctx context.Context, path string) Result {
	ctx = logging.AddFields(ctx, zap.String("file", filepath.Base(path)))
	result := i.upload(ctx, path)

	switch result.Outcome {
	case Ingested:
		ctxzap.Info(ctx, "File ingested", zap.String("message", result.Message))
	case Failed:
		ctxzap.Warn(ctx, "File not ingested", zap.String("reason", result.Message))
	case Unchanged:
		ctxzap.Debug(ctx, "File unchanged since last upload")
	}

	if i.onResult != nil {
		i.onResult(result)
	}
	return result
}

func (i *Ingester) upload(ctx context.Context, path string) Result {
	result := Result{Path: path, Outcome: Failed}

	if err := i.files.CheckPath(path); err != nil {
		result.Message = apierr.Message(err)
		return result
	}

	info, err := Inspect(path)
	if err != nil {
		result.Message = apierr.Message(err)
		return result
	}
	result.Info = info

	hash, err := computeFileHash(path)
	if err != nil {
		result.Message = apierr.Message(err)
		return result
	}
	if i.uploaded[path] == hash {
		result.Outcome = Unchanged
		return result
	}

	res, err := i.uploader.UploadFile(ctx, path)
	if err != nil {
		result.Message = apierr.Message(err)
		return result
	}
	if err := res.Err(); err != nil {
		result.Message = err.Error()
		return result
	}

	i.uploaded[path] = hash
	result.Outcome = Ingested
	result.Message = res.Message
	return result
}
