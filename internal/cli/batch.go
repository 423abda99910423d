package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/EunoiaC/Verify/internal/worker"
)

var (
	batchWorkers int
	batchOutput  string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Check many posts from a JSON-lines file",
	Long: `Batch checks every post in a JSON-lines file:
- One {"id","title","body"} object per line; blank lines and # comments are skipped
- Posts without an id get a random uuid
- Posts are processed by a bounded worker pool
- One {"post_id","analysis"} or {"post_id","error"} line is written per post, in input order

Example:
  verify batch posts.jsonl
  verify batch posts.jsonl --workers 4 --output results.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "concurrent posts (default: concurrency.batch_workers)")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "output file (default: stdout)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
}

// batchFailure is the output record for a post that could not be checked
type batchFailure struct {
	PostID string `json:"post_id"`
	Error  string `json:"error"`
}

func runBatch(cmd *cobra.Command, args []string) (err error) {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	workers := batchWorkers
	if workers <= 0 {
		workers = appConfig.Concurrency.BatchWorkers
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Verify Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	p, err := buildPipeline(ctx, appConfig)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if batchOutput != "" {
		f, err := os.Create(batchOutput)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close output file: %w", closeErr)
			}
		}()
		out = f
	}

	processor := worker.NewBatchProcessor(p, workers)

	fmt.Fprintf(os.Stderr, "⚙️  Processing posts with %d workers...\n\n", workers)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	success, failures, err := writeBatchResults(out, results)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d posts\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", success)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failures)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// writeBatchResults writes one JSON line per result and reports the outcome counts
func writeBatchResults(w io.Writer, results []*worker.PostResult) (success, failures int, err error) {
	enc := json.NewEncoder(w)
	for _, r := range results {
		var line any
		if r.Error != nil {
			failures++
			line = batchFailure{PostID: r.PostID, Error: r.Error.Error()}
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.PostID, r.Error)
		} else {
			success++
			line = r.Analysis
			fmt.Fprintf(os.Stderr, "✓ %s (%d verdicts)\n", r.PostID, len(r.Analysis.Analysis))
		}
		if err := enc.Encode(line); err != nil {
			return success, failures, fmt.Errorf("write result: %w", err)
		}
	}
	return success, failures, nil
}
