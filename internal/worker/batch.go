package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/longevityfoodlab/citegate/internal/model"
)

// Runner verifies one payload file. The verification pipeline satisfies this.
type Runner interface {
	VerifyFile(ctx context.Context, path string) ([]model.VerifiedCitation, *model.Report, error)
}

// VerifyJob runs one payload file through a Runner
type VerifyJob struct {
	Path   string
	Runner Runner
}

// Execute executes the verification job
func (j *VerifyJob) Execute(ctx context.Context) Result {
	verified, report, err := j.Runner.VerifyFile(ctx, j.Path)
	return &FileOutcome{
		Path:     j.Path,
		Verified: verified,
		Report:   report,
		Error:    err,
	}
}

// FileOutcome is the result of verifying one payload file
type FileOutcome struct {
	Path     string
	Verified []model.VerifiedCitation
	Report   *model.Report
	Error    error
}

// GetError returns the error from the file outcome
func (o *FileOutcome) GetError() error {
	return o.Error
}

// BatchProcessor verifies many payload files concurrently
type BatchProcessor struct {
	runner      Runner
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(runner Runner, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		runner:      runner,
		concurrency: concurrency,
	}
}

// ProcessFiles verifies the given payload files concurrently
func (b *BatchProcessor) ProcessFiles(ctx context.Context, paths []string) []*FileOutcome {
	if len(paths) == 0 {
		return []*FileOutcome{}
	}

	// The queue holds every file so submission never blocks on a busy pool
	pool := NewPoolWithQueue(b.concurrency, len(paths))
	pool.Start()

	// Propagate caller cancellation into the pool so in-flight jobs stop
	stop := context.AfterFunc(ctx, pool.cancelFunc)
	defer stop()

	for _, path := range paths {
		pool.Submit(&VerifyJob{
			Path:   path,
			Runner: b.runner,
		})
	}

	results := pool.Wait()

	outcomes := make([]*FileOutcome, len(results))
	for i, result := range results {
		outcomes[i] = result.(*FileOutcome)
	}

	return outcomes
}

// ProcessDir verifies every payload file found in dir
func (b *BatchProcessor) ProcessDir(ctx context.Context, dir string) ([]*FileOutcome, error) {
	paths, err := ListPayloadFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("list payload files: %w", err)
	}

	return b.ProcessFiles(ctx, paths), nil
}

// ListPayloadFiles returns the JSON payload files in dir, sorted by name.
// Dotfiles and non-JSON entries are skipped.
func ListPayloadFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !strings.EqualFold(filepath.Ext(name), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}

	sort.Strings(paths)
	return paths, nil
}
