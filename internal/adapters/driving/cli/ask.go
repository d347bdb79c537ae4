package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about ingested READMEs",
	Long: `Retrieves the README sections closest to the question and asks the
language model to answer from them. The answer is followed by the sources
it was grounded on.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	question := strings.Join(args, " ")
	result := answerService.Answer(cmd.Context(), question)

	if askJSON {
		if err := outputAskJSON(cmd, result); err != nil {
			return err
		}
	} else {
		outputAskText(cmd, result)
	}

	if !result.IsSuccess() {
		return fmt.Errorf("query failed: %s", result.Error)
	}
	return nil
}

func outputAskJSON(cmd *cobra.Command, result domain.QueryResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAskText(cmd *cobra.Command, result domain.QueryResult) {
	cmd.Println(result.Answer)
	if len(result.Sources) == 0 {
		return
	}

	cmd.Println()
	cmd.Println("Sources:")
	for i, src := range result.Sources {
		title := src.Title
		if title == "" {
			title = src.URL
		}
		cmd.Printf("  [%d] %s\n", i+1, title)
		if src.URL != "" && src.URL != title {
			cmd.Printf("      %s\n", src.URL)
		}
	}
}
