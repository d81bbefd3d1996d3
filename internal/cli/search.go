package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"modtriage/internal/model"
	"modtriage/internal/resolve"
	"modtriage/internal/store"
)

var searchTimeout time.Duration

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <identifier>",
	Short: "Resolve an identifier against the database without classifying",
	Long: `Search runs only the resolution step and prints what it finds:
a unique record, a ranked candidate list, or nothing. No page is
fetched and nothing is written back.

Example:
  modtriage search https://www.patreon.com/posts/better-build-buy-12345
  modtriage search "Better Build/Buy" --creator TwistedMexi`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&creator, "creator", "", "mod creator (required for name identifiers)")
	searchCmd.Flags().DurationVar(&searchTimeout, "timeout", 30*time.Second, "resolution timeout")
}

func runSearch(cmd *cobra.Command, args []string) error {
	id, err := model.ParseIdentifier(args[0], creator)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	kb, err := store.NewNotion(cfg.Notion.APIKey, cfg.Notion.DatabaseID, cfg.Notion.Timeout, store.WithBaseURL(cfg.Notion.BaseURL))
	if err != nil {
		return fmt.Errorf("notion client: %w", err)
	}

	match, err := resolve.New(kb, cfg.Resolve).Resolve(ctx, id)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", id.String(), err)
	}

	switch match.Kind {
	case model.MatchUnique:
		printRecord(match.Record, match.Strategy)
	case model.MatchAmbiguous:
		fmt.Fprintf(os.Stderr, "? %s: %d candidates (%s):\n", id.String(), len(match.Candidates), match.Strategy)
		for _, c := range match.Candidates {
			fmt.Fprintf(os.Stderr, "    %s  %s by %s (edited %s)\n",
				c.ID, c.Name, c.Creator, c.LastEdited.Format(time.RFC3339))
		}
	case model.MatchNone:
		fmt.Fprintf(os.Stderr, "- %s: no record found\n", id.String())
	}

	return nil
}

func printRecord(rec *model.ModRecord, strategy string) {
	fmt.Fprintf(os.Stderr, "✓ %s by %s (%s)\n", rec.Name, rec.Creator, strategy)
	fmt.Fprintf(os.Stderr, "    id:       %s\n", rec.ID)
	if rec.Link != "" {
		fmt.Fprintf(os.Stderr, "    link:     %s\n", rec.Link)
	}
	if rec.Priority != nil {
		fmt.Fprintf(os.Stderr, "    priority: %d\n", *rec.Priority)
	}
	if rec.Folder != "" {
		fmt.Fprintf(os.Stderr, "    folder:   %s\n", rec.Folder)
	}
	fmt.Fprintf(os.Stderr, "    edited:   %s\n", rec.LastEdited.Format(time.RFC3339))
}
