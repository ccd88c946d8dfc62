package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/longevityfoodlab/citegate/internal/model"
)

// MockRunner implements the Runner interface
type MockRunner struct {
	ShouldError bool
}

func (m *MockRunner) VerifyFile(ctx context.Context, path string) ([]model.VerifiedCitation, *model.Report, error) {
	time.Sleep(10 * time.Millisecond) // Simulate work
	if m.ShouldError {
		return nil, nil, errors.New("verify error")
	}
	return []model.VerifiedCitation{
			{
				RawCitation: model.RawCitation{Journal: "Nutrients", Year: 2021},
				Status:      model.StatusVerified,
				Tier:        model.TierVerifiedPrimary,
			},
		}, &model.Report{
			Source: path,
			Total:  1,
		}, nil
}

func TestBatchProcessor_ProcessFiles(t *testing.T) {
	runner := &MockRunner{}
	processor := NewBatchProcessor(runner, 2)

	paths := []string{"a.json", "b.json", "c.json"}
	ctx := context.Background()

	outcomes := processor.ProcessFiles(ctx, paths)

	if len(outcomes) != 3 {
		t.Errorf("expected 3 outcomes, got %d", len(outcomes))
	}

	successCount := 0
	for _, o := range outcomes {
		if o.Error == nil {
			successCount++
			if o.Report == nil {
				t.Error("expected report for successful verification")
			}
			if len(o.Verified) != 1 {
				t.Errorf("expected 1 verified citation, got %d", len(o.Verified))
			}
		} else {
			t.Errorf("unexpected error for %s: %v", o.Path, o.Error)
		}
	}

	if successCount != 3 {
		t.Errorf("expected 3 successes, got %d", successCount)
	}
}

func TestBatchProcessor_ProcessFiles_Error(t *testing.T) {
	runner := &MockRunner{ShouldError: true}
	processor := NewBatchProcessor(runner, 2)

	outcomes := processor.ProcessFiles(context.Background(), []string{"a.json"})

	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(outcomes))
	}

	if outcomes[0].Error == nil {
		t.Error("expected error, got nil")
	}
	if outcomes[0].Report != nil {
		t.Error("expected nil report on error")
	}
}

func TestBatchProcessor_ProcessFiles_Empty(t *testing.T) {
	runner := &MockRunner{}
	processor := NewBatchProcessor(runner, 2)

	outcomes := processor.ProcessFiles(context.Background(), []string{})
	if len(outcomes) != 0 {
		t.Errorf("expected 0 outcomes, got %d", len(outcomes))
	}
}

func TestFileOutcome_GetError(t *testing.T) {
	o1 := &FileOutcome{Path: "a.json", Error: nil}
	if o1.GetError() != nil {
		t.Errorf("expected nil error, got %v", o1.GetError())
	}

	expected := errors.New("verify failed")
	o2 := &FileOutcome{Path: "a.json", Error: expected}
	if o2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, o2.GetError())
	}
}

func TestListPayloadFiles(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"b.json", "a.json", "notes.txt", ".hidden.json", "upper.JSON"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0755); err != nil {
		t.Fatal(err)
	}

	paths, err := ListPayloadFiles(dir)
	if err != nil {
		t.Fatalf("ListPayloadFiles failed: %v", err)
	}

	expected := []string{
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "b.json"),
		filepath.Join(dir, "upper.JSON"),
	}
	if len(paths) != len(expected) {
		t.Fatalf("expected %d paths, got %d: %v", len(expected), len(paths), paths)
	}

	for i, p := range paths {
		if p != expected[i] {
			t.Errorf("expected path %s at index %d, got %s", expected[i], i, p)
		}
	}
}

func TestListPayloadFiles_NonExistent(t *testing.T) {
	_, err := ListPayloadFiles("no_such_dir")
	if err == nil {
		t.Error("expected error for non-existent dir, got nil")
	}
}

func TestBatchProcessor_ProcessDir(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"one.json", "two.json", "skip.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	runner := &MockRunner{}
	processor := NewBatchProcessor(runner, 2)

	outcomes, err := processor.ProcessDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("ProcessDir failed: %v", err)
	}

	if len(outcomes) != 2 {
		t.Errorf("expected 2 outcomes, got %d", len(outcomes))
	}
}

func TestBatchProcessor_ProcessDir_NonExistent(t *testing.T) {
	runner := &MockRunner{}
	processor := NewBatchProcessor(runner, 2)

	_, err := processor.ProcessDir(context.Background(), "no_such_dir")
	if err == nil {
		t.Error("expected error for non-existent dir, got nil")
	}
}

func TestBatchProcessor_ProcessDir_Empty(t *testing.T) {
	dir := t.TempDir()

	runner := &MockRunner{}
	processor := NewBatchProcessor(runner, 2)

	outcomes, err := processor.ProcessDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("ProcessDir failed: %v", err)
	}
	if len(outcomes) != 0 {
		t.Errorf("expected 0 outcomes for empty dir, got %d", len(outcomes))
	}
}

func TestBatchProcessor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &MockRunner{}
	processor := NewBatchProcessor(runner, 2)

	// A cancelled context must not hang the batch; partial or empty
	// results are acceptable.
	done := make(chan struct{})
	go func() {
		processor.ProcessFiles(ctx, []string{"a.json", "b.json"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ProcessFiles did not return after context cancellation")
	}
}
