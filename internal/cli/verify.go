package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/longevityfoodlab/citegate/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	outJSON       string
	outMD         string
	timeout       time.Duration
	userAgent     string
	noCache       bool
	noAudit       bool
	verifyWorkers int
	crossrefURL   string
	pubmedURL     string
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <payload.json>",
	Short: "Verify an evidence payload against the bibliographic registries",
	Long: `Verify reads an assistant evidence payload and checks every citation:
- Look up PMIDs in PubMed and DOIs in Crossref
- Cross-check journal, year, and first author against the registry record
- Confirm the identifier resolves at doi.org or pubmed.ncbi.nlm.nih.gov
- Classify identifier-less citations against the review allow-list
- Audit cited convenience URLs for accessibility

Citations that cannot be confirmed are dropped, never flagged and passed
along. The released set is printed to stdout in the payload envelope shape.

Use "-" as the path to read the payload from stdin.

Example:
  citegate verify evidence.json
  citegate verify evidence.json --json report.json --md report.md
  cat response.txt | citegate verify -`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	// Output flags
	verifyCmd.Flags().StringVar(&outJSON, "json", "", "report JSON path (optional)")
	verifyCmd.Flags().StringVar(&outMD, "md", "", "report Markdown path (optional)")

	// Verification flags
	verifyCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall verification timeout")
	verifyCmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent override")
	verifyCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable registry lookup cache")
	verifyCmd.Flags().BoolVar(&noAudit, "no-audit", false, "skip the convenience URL audit")
	verifyCmd.Flags().IntVar(&verifyWorkers, "workers", 0, "concurrent citations per batch (0 = config default)")

	// Registry endpoint overrides, mainly for testing against fixtures
	verifyCmd.Flags().StringVar(&crossrefURL, "crossref-url", "", "Crossref API base URL override")
	verifyCmd.Flags().StringVar(&pubmedURL, "pubmed-url", "", "PubMed E-utilities base URL override")
}

func runVerify(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg := loadConfig()
	if userAgent != "" {
		cfg.HTTP.UserAgent = userAgent
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noAudit {
		cfg.Audit.Enabled = false
	}
	if verifyWorkers > 0 {
		cfg.Verification.Workers = verifyWorkers
	}
	if crossrefURL != "" {
		cfg.Registry.CrossrefBaseURL = crossrefURL
	}
	if pubmedURL != "" {
		cfg.Registry.PubMedBaseURL = pubmedURL
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Verifying: %s\n", path)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", timeout)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintf(os.Stderr, "Audit: %v\n", cfg.Audit.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	// Create pipeline
	p := pipeline.NewPipeline(cfg)

	released, report, err := p.VerifyFile(ctx, path)
	if err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Checked %d citations\n", report.Total)
		fmt.Fprintf(os.Stderr, "✓ Released %d\n", report.Returned)
		fmt.Fprintf(os.Stderr, "✓ Quality index: %d/100\n", report.Score.Index)
		fmt.Fprintln(os.Stderr)
	}

	renderer := pipeline.NewRenderer()

	// The released set goes to stdout so it can be piped onward
	out, err := renderer.PayloadJSON(released)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Println(string(out))

	if outJSON != "" {
		if err := renderer.RenderJSON(report, released, outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(report, released, outMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", outMD)
		}
	}

	renderer.RenderSummary(os.Stderr, report)

	return nil
}
