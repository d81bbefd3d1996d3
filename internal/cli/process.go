package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"modtriage/internal/model"
	"modtriage/internal/pipeline"
	"modtriage/internal/store"
)

var (
	creator        string
	processTimeout time.Duration
	llmProvider    string
	llmModel       string
	noCache        bool
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process <identifier>",
	Short: "Resolve, classify, and file a single mod",
	Long: `Process takes one mod identifier and runs the full triage:
- Resolve it to a database record (or decide to create one)
- Extract the mod page's text and images
- Classify priority, folder, and notes with a language model
- Write the result back to the database

The identifier may be a mod page URL, a Notion page URL, or a mod name
combined with --creator.

Example:
  modtriage process https://www.patreon.com/posts/better-build-buy-12345
  modtriage process https://www.notion.so/ws/Better-Build-Buy-0123456789abcdef0123456789abcdef
  modtriage process "Better Build/Buy" --creator TwistedMexi`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(&creator, "creator", "", "mod creator (required for name identifiers)")
	processCmd.Flags().DurationVar(&processTimeout, "timeout", 2*time.Minute, "overall processing timeout")
	processCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable content cache (force fresh fetch)")

	// LLM flags
	processCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama)")
	processCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runProcess(cmd *cobra.Command, args []string) error {
	id, err := model.ParseIdentifier(args[0], creator)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	p, err := buildPipeline()
	if err != nil {
		return err
	}

	outcome, err := p.Process(ctx, id)
	pipeline.ReportResult(id, outcome, err, verbose)
	if err != nil {
		return fmt.Errorf("process %s: %w", id.String(), err)
	}
	return nil
}

// buildPipeline assembles configuration and collaborators shared by the
// process and batch commands.
func buildPipeline() (*pipeline.Pipeline, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if err := loadLLMKey(cfg); err != nil {
		return nil, err
	}

	kb, err := store.NewNotion(cfg.Notion.APIKey, cfg.Notion.DatabaseID, cfg.Notion.Timeout, store.WithBaseURL(cfg.Notion.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("notion client: %w", err)
	}

	return pipeline.New(cfg, kb)
}
