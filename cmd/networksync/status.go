package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ddloads/networksync/pkg/cmdsupport"
)

var statusConfiguration struct {
	localPath string
	branch    string
}

var statusCommand = &cobra.Command{
	Use:   "status <project-id>",
	Short: "Show how a local checkout differs from the latest snapshot",
	Args:  cobra.ExactArgs(1),
	Run:   cmdsupport.Mainify(statusMain),
}

func init() {
	flags := statusCommand.Flags()
	flags.StringVarP(&statusConfiguration.localPath, "path", "p", "", "Local checkout path (defaults to the configured binding)")
	flags.StringVarP(&statusConfiguration.branch, "branch", "b", "", "Branch name (default \"main\")")
}

func statusMain(_ *cobra.Command, arguments []string) error {
	projectID := arguments[0]

	e, cfg, _, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	localPath, err := resolveLocalPath(cfg, projectID, statusConfiguration.localPath)
	if err != nil {
		return err
	}

	result, err := e.Status(context.Background(), projectID, localPath, statusConfiguration.branch)
	if err != nil {
		printEngineError(err)
		return err
	}

	if result.LatestSnapshotID == "" {
		fmt.Println("No snapshots yet for this project.")
	} else {
		fmt.Printf("Latest snapshot: %s\n", result.LatestSnapshotID)
	}

	diff := result.Diff
	fmt.Printf("%d added, %d modified, %d deleted, %d unchanged\n",
		len(diff.Added), len(diff.Modified), len(diff.Deleted), len(diff.Unchanged))
	for _, entry := range diff.Added {
		fmt.Printf("  + %s\n", entry.Path)
	}
	for _, entry := range diff.Modified {
		fmt.Printf("  ~ %s\n", entry.Path)
	}
	for _, entry := range diff.Deleted {
		fmt.Printf("  - %s\n", entry.Path)
	}
	return nil
}
