package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ddloads/networksync/pkg/cmdsupport"
)

var projectConfiguration struct {
	// bind is the local path to bind the newly created project to in the
	// calling peer's configuration.
	bind string
}

var projectHistoryConfiguration struct {
	branch string
	limit  int
}

var projectCommand = &cobra.Command{
	Use:   "project",
	Short: "Manage synchronized projects",
}

var projectCreateCommand = &cobra.Command{
	Use:   "create <name>",
	Short: "Register a new project",
	Args:  cobra.ExactArgs(1),
	Run:   cmdsupport.Mainify(projectCreateMain),
}

var projectListCommand = &cobra.Command{
	Use:   "list",
	Short: "List registered projects",
	Args:  cmdsupport.DisallowArguments,
	Run:   cmdsupport.Mainify(projectListMain),
}

var projectDeleteCommand = &cobra.Command{
	Use:   "delete <project-id>",
	Short: "Delete a project and its history",
	Args:  cobra.ExactArgs(1),
	Run:   cmdsupport.Mainify(projectDeleteMain),
}

var projectHistoryCommand = &cobra.Command{
	Use:   "history <project-id>",
	Short: "List a project's snapshots, newest first",
	Args:  cobra.ExactArgs(1),
	Run:   cmdsupport.Mainify(projectHistoryMain),
}

func init() {
	projectCreateCommand.Flags().StringVar(&projectConfiguration.bind, "bind", "", "Local path to bind the new project to in this peer's configuration")

	historyFlags := projectHistoryCommand.Flags()
	historyFlags.StringVarP(&projectHistoryConfiguration.branch, "branch", "b", "", "Branch name (default: all branches)")
	historyFlags.IntVarP(&projectHistoryConfiguration.limit, "limit", "n", 0, "Maximum number of snapshots to show (0 = unlimited)")

	projectCommand.AddCommand(projectCreateCommand, projectListCommand, projectDeleteCommand, projectHistoryCommand)
}

func projectCreateMain(_ *cobra.Command, arguments []string) error {
	name := arguments[0]

	e, cfg, cfgPath, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	project, err := e.CreateProject(context.Background(), name)
	if err != nil {
		printEngineError(err)
		return err
	}

	if projectConfiguration.bind != "" {
		cfg.BindProject(project.ID, projectConfiguration.bind)
		if err := cfg.Save(cfgPath, rootLogger()); err != nil {
			return err
		}
	}

	fmt.Printf("Created project %q with id %s\n", project.Name, project.ID)
	return nil
}

func projectListMain(_ *cobra.Command, _ []string) error {
	e, _, _, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	projects := e.ListProjects()
	if len(projects) == 0 {
		fmt.Println("No projects registered.")
		return nil
	}
	for _, p := range projects {
		lastSync := "never"
		if !p.LastSyncAt.IsZero() {
			lastSync = humanize.Time(p.LastSyncAt)
		}
		fmt.Printf("%s  %-20s  last synced %s\n", p.ID, p.Name, lastSync)
	}
	return nil
}

func projectDeleteMain(_ *cobra.Command, arguments []string) error {
	projectID := arguments[0]

	e, _, _, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.DeleteProject(context.Background(), projectID); err != nil {
		printEngineError(err)
		return err
	}

	fmt.Printf("Deleted project %s\n", projectID)
	return nil
}

func projectHistoryMain(_ *cobra.Command, arguments []string) error {
	projectID := arguments[0]

	e, _, _, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	snapshots, err := e.History(context.Background(), projectID, projectHistoryConfiguration.branch, projectHistoryConfiguration.limit)
	if err != nil {
		printEngineError(err)
		return err
	}

	if len(snapshots) == 0 {
		fmt.Println("No snapshots yet for this project.")
		return nil
	}
	for _, s := range snapshots {
		message := s.Message
		if message == "" {
			message = "(no message)"
		}
		fmt.Printf("%s  %-8s  %-20s  %-6d files  %-10s  %s  by %s\n",
			s.ID, s.Branch, humanize.Time(s.CreatedAt), s.FileCount, humanize.Bytes(uint64(s.TotalSize)), message, s.CreatedBy)
	}
	return nil
}
