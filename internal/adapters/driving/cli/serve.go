package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docs-agent/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the JSON HTTP API used by the web frontend.

Routes:
  POST /api/documents/process-github   ingest one repository
  POST /api/documents/process-multiple ingest several repositories
  POST /api/chat/query                 ask a question
  GET  /api/projects                   projects found in the vector store
  GET  /api/v1/projects                registered projects
  POST /api/v1/projects                register a project
  POST /api/settings/api-key           store the provider key
  GET  /health

Requests may carry "Authorization: Bearer sk-..." to use their own
provider key.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (default from settings, 8000)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := httpapi.ConfigFromSettings(serverSettings())
	if servePort > 0 {
		cfg.Port = servePort
	}

	server, err := httpapi.NewServer(&httpapi.Ports{
		Answer:   answerService,
		Ingest:   ingestService,
		Project:  projectService,
		Settings: settingsService,
	}, cfg)
	if err != nil {
		return err
	}

	startPromptWatch(cmd.Context())

	fmt.Fprintf(cmd.OutOrStdout(), "HTTP API listening on http://localhost%s\n", server.Addr())
	return server.Run(cmd.Context())
}

// serverSettings returns the configured server settings, or defaults.
func serverSettings() domain.ServerSettings {
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil {
			return s.Server
		}
	}
	return domain.DefaultAppSettings().Server
}
