package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ddloads/networksync/pkg/cmdsupport"
	"github.com/ddloads/networksync/pkg/scan"
)

var pushConfiguration struct {
	localPath string
	message   string
	branch    string
}

var pushCommand = &cobra.Command{
	Use:   "push <project-id>",
	Short: "Push local changes to the shared mount as a new snapshot",
	Args:  cobra.ExactArgs(1),
	Run:   cmdsupport.Mainify(pushMain),
}

func init() {
	flags := pushCommand.Flags()
	flags.StringVarP(&pushConfiguration.localPath, "path", "p", "", "Local checkout path (defaults to the configured binding)")
	flags.StringVarP(&pushConfiguration.message, "message", "m", "", "Snapshot message")
	flags.StringVarP(&pushConfiguration.branch, "branch", "b", "", "Branch name (default \"main\")")
}

func pushMain(_ *cobra.Command, arguments []string) error {
	projectID := arguments[0]

	e, cfg, _, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	localPath, err := resolveLocalPath(cfg, projectID, pushConfiguration.localPath)
	if err != nil {
		return err
	}

	printer := &cmdsupport.StatusLinePrinter{}
	var scanned int
	progress := scan.ProgressFunc(func(filesScanned int, currentPath string) {
		scanned = filesScanned
		printer.Print(fmt.Sprintf("Scanning (%d): %s", scanned, currentPath))
	})

	result, err := e.Push(context.Background(), projectID, localPath, pushConfiguration.message, pushConfiguration.branch, progress)
	printer.Clear()
	if err != nil {
		printEngineError(err)
		return err
	}

	fmt.Printf(
		"Pushed snapshot %s: %d added, %d modified, %d deleted (%s transferred)\n",
		result.SnapshotID, result.Added, result.Modified, result.Deleted, humanize.Bytes(uint64(result.Bytes)),
	)
	return nil
}
