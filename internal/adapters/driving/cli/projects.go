package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
)

var (
	projectName        string
	projectDescription string
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage known projects",
	Long: `List registered projects, register new ones, or discover projects
from the records already in the vector store.`,
	RunE: runProjectsList,
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered projects",
	RunE:  runProjectsList,
}

var projectsAddCmd = &cobra.Command{
	Use:   "add <readme-url>",
	Short: "Register a project",
	Long: `Registers a project by its GitHub URL. The URL is normalised to the
README on the main branch unless it already points at a README blob.`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectsAdd,
}

var projectsDiscoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List projects found in the vector store",
	RunE:  runProjectsDiscover,
}

func init() {
	projectsAddCmd.Flags().StringVar(&projectName, "name", "", "project name (default: repository name)")
	projectsAddCmd.Flags().StringVar(&projectDescription, "description", "", "project description")
	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsAddCmd)
	projectsCmd.AddCommand(projectsDiscoverCmd)
	rootCmd.AddCommand(projectsCmd)
}

func runProjectsList(cmd *cobra.Command, _ []string) error {
	if projectService == nil {
		return errors.New("project service not configured")
	}

	projects, err := projectService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}
	outputProjects(cmd, projects, "No projects registered.")
	return nil
}

func runProjectsAdd(cmd *cobra.Command, args []string) error {
	if projectService == nil {
		return errors.New("project service not configured")
	}

	project, err := projectService.Add(cmd.Context(), projectName, args[0], projectDescription)
	if err != nil {
		return fmt.Errorf("failed to add project: %w", err)
	}
	cmd.Printf("Added %s (%s)\n", project.Name, project.ReadmeURL)
	return nil
}

func runProjectsDiscover(cmd *cobra.Command, _ []string) error {
	if projectService == nil {
		return errors.New("project service not configured")
	}

	projects, err := projectService.Discover(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to discover projects: %w", err)
	}
	outputProjects(cmd, projects, "No projects found. Ingest a repository first.")
	return nil
}

func outputProjects(cmd *cobra.Command, projects []domain.Project, empty string) {
	if len(projects) == 0 {
		cmd.Println(empty)
		return
	}
	for _, p := range projects {
		cmd.Printf("  %s\n", p.Name)
		cmd.Printf("      %s\n", p.ReadmeURL)
		if p.Description != "" {
			cmd.Printf("      %s\n", p.Description)
		}
	}
}
