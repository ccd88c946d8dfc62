package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/longevityfoodlab/citegate/internal/pipeline"
	"github.com/longevityfoodlab/citegate/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	// noCache and noAudit are defined in verify.go and shared here
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Verify a directory of evidence payloads in parallel",
	Long: `Batch verifies every JSON payload file in a directory:
- Payload files are processed in parallel with a configurable worker count
- Each payload runs through the full verification pipeline
- A JSON and Markdown report is written per payload

Example:
  citegate batch ./payloads
  citegate batch ./payloads --concurrency 8 --output-dir ./reports
  citegate batch ./payloads --no-audit --timeout 5m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent payload files")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./citegate-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")

	// Shared verification flags
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable registry lookup cache")
	batchCmd.Flags().BoolVar(&noAudit, "no-audit", false, "skip the convenience URL audit")
}

func runBatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Citegate Batch Verification\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input dir:    %s\n", dir)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	// Build configuration
	cfg := loadConfig()
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noAudit {
		cfg.Audit.Enabled = false
	}

	// Create output directory
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	// Create pipeline and batch processor
	p := pipeline.NewPipeline(cfg)
	processor := worker.NewBatchProcessor(p, concurrency)

	fmt.Fprintf(os.Stderr, "⚙️  Verifying payloads with %d workers...\n", concurrency)
	fmt.Fprintf(os.Stderr, "\n")

	outcomes, err := processor.ProcessDir(ctx, dir)
	if err != nil {
		return fmt.Errorf("process dir: %w", err)
	}

	// Process results
	renderer := pipeline.NewRenderer()
	successCount := 0
	failureCount := 0

	for _, outcome := range outcomes {
		if outcome.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", outcome.Path, outcome.Error)
			continue
		}

		successCount++

		// Generate output file names from the payload file name
		slug := sanitizeFilename(outcome.Path)
		jsonPath := filepath.Join(outputDir, slug+".report.json")
		mdPath := filepath.Join(outputDir, slug+".report.md")

		if err := renderer.RenderJSON(outcome.Report, outcome.Verified, jsonPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", outcome.Path, err)
			continue
		}
		if err := renderer.RenderMarkdown(outcome.Report, outcome.Verified, mdPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", outcome.Path, err)
			continue
		}

		fmt.Fprintf(os.Stderr, "✓ %s: %d of %d released (index: %d/100)\n",
			outcome.Path, outcome.Report.Returned, outcome.Report.Total, outcome.Report.Score.Index)
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d payloads\n", len(outcomes))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// sanitizeFilename turns a payload path into a safe report file stem
func sanitizeFilename(path string) string {
	s := filepath.Base(path)
	s = strings.TrimSuffix(s, filepath.Ext(s))

	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(s)

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "payload"
	}

	return s
}
