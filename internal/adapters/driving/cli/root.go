// Package cli implements the docs-agent command line.
//
// Commands are registered on rootCmd from init functions. Services are
// injected once by main through SetServices; a command whose service is
// missing fails with a "not configured" error rather than panicking.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docs-agent/internal/core/ports/driving"
	"github.com/custodia-labs/docs-agent/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

// Injected services.
var (
	answerService   driving.AnswerService
	ingestService   driving.IngestService
	projectService  driving.ProjectService
	settingsService driving.SettingsService

	// watchPrompts hot-reloads prompt templates while a server runs. Optional.
	watchPrompts func(ctx context.Context) error
)

// Services holds everything the commands need.
type Services struct {
	Answer   driving.AnswerService
	Ingest   driving.IngestService
	Project  driving.ProjectService
	Settings driving.SettingsService

	// WatchPrompts is started in the background by long-running commands.
	WatchPrompts func(ctx context.Context) error
}

// SetServices injects the services used by every command.
func SetServices(s Services) {
	answerService = s.Answer
	ingestService = s.Ingest
	projectService = s.Project
	settingsService = s.Settings
	watchPrompts = s.WatchPrompts
}

var rootCmd = &cobra.Command{
	Use:   "docs-agent",
	Short: "Answer questions from GitHub READMEs",
	Long: `docs-agent ingests GitHub README files into a vector store and answers
questions about them with cited sources.

Ingest a repository, then ask away:
  docs-agent ingest https://github.com/owner/repo
  docs-agent ask "How do I install it?"`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// startPromptWatch runs watchPrompts until ctx is done. Failures are logged.
func startPromptWatch(ctx context.Context) {
	if watchPrompts == nil {
		return
	}
	go func() {
		if err := watchPrompts(ctx); err != nil {
			logger.Warn("prompt watcher stopped: %v", err)
		}
	}()
}
