package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"modtriage/internal/pipeline"
	"modtriage/internal/worker"
)

var (
	concurrency  int
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Process multiple mod identifiers from a file in parallel",
	Long: `Batch processes identifiers concurrently:
- Read identifiers from the input file (one per line)
- Lines may be mod page URLs, Notion page URLs, or "Name | Creator"
- Blank lines and lines starting with # are skipped
- Process identifiers in parallel with configurable worker count

Example:
  modtriage batch mods.txt
  modtriage batch mods.txt --concurrency 8 --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 4, "number of concurrent workers")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 15*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable content cache (force fresh fetch)")

	// LLM flags
	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  modtriage Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	p, err := buildPipeline()
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(p, concurrency)

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	successCount := 0
	ambiguousCount := 0
	failureCount := 0
	createdCount := 0

	for _, result := range results {
		pipeline.ReportResult(result.Identifier, result.Outcome, result.Error, verbose)
		switch {
		case result.Error == nil:
			successCount++
			if result.Outcome.Created {
				createdCount++
			}
		case pipeline.IsAmbiguous(result.Error):
			ambiguousCount++
		default:
			failureCount++
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:       %d identifiers\n", len(results))
	fmt.Fprintf(os.Stderr, "  Filed:       %d (%d created)\n", successCount, createdCount)
	fmt.Fprintf(os.Stderr, "  Ambiguous:   %d\n", ambiguousCount)
	fmt.Fprintf(os.Stderr, "  Failures:    %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 {
		return fmt.Errorf("%d of %d identifiers failed", failureCount, len(results))
	}
	return nil
}
