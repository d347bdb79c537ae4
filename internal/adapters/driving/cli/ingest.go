package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

var ingestReplace bool

var ingestCmd = &cobra.Command{
	Use:   "ingest <repo-url>...",
	Short: "Ingest GitHub READMEs",
	Long: `Fetches the README of each repository, splits it into sections and
stores one embedded record per section.

Records accumulate across runs. Use --replace to drop the records of a
repository before storing the new ones.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestReplace, "replace", false, "replace existing records for each repository")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	opts := domain.IngestOptions{ReplaceExisting: ingestReplace}

	if len(args) == 1 {
		report, err := ingestService.Ingest(cmd.Context(), args[0], opts)
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		cmd.Printf("Ingested %s: %d of %d sections stored", report.SourceURL, report.Stored, report.Sections)
		if report.Replaced > 0 {
			cmd.Printf(" (%d earlier records replaced)", report.Replaced)
		}
		cmd.Println()
		return nil
	}

	results := ingestService.IngestBatch(cmd.Context(), args, opts)
	failed := 0
	for _, r := range results {
		mark := "ok"
		if !r.Success {
			mark = "FAILED"
			failed++
		}
		cmd.Printf("  [%s] %s\n", mark, r.Message)
	}
	cmd.Printf("%d of %d repositories ingested\n", len(results)-failed, len(results))

	if failed > 0 {
		return fmt.Errorf("%d repositories failed", failed)
	}
	return nil
}
