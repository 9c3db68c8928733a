package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ddloads/networksync/pkg/cmdsupport"
	"github.com/ddloads/networksync/pkg/scan"
)

var restoreConfiguration struct {
	selectiveSync selectiveSyncFlags
}

var restoreCommand = &cobra.Command{
	Use:   "restore <local-path> <snapshot-id>",
	Short: "Overwrite a local checkout to match a named snapshot exactly",
	Args:  cobra.ExactArgs(2),
	Run:   cmdsupport.Mainify(restoreMain),
}

func init() {
	restoreConfiguration.selectiveSync.Register(restoreCommand.Flags())
}

func restoreMain(_ *cobra.Command, arguments []string) error {
	localPath, snapshotID := arguments[0], arguments[1]

	e, _, _, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	printer := &cmdsupport.StatusLinePrinter{}
	progress := scan.ProgressFunc(func(filesScanned int, currentPath string) {
		printer.Print(fmt.Sprintf("Scanning (%d): %s", filesScanned, currentPath))
	})

	result, err := e.Restore(context.Background(), localPath, snapshotID, progress, restoreConfiguration.selectiveSync.Patterns())
	printer.Clear()
	if err != nil {
		printEngineError(err)
		return err
	}

	fmt.Printf("Restored: %d downloaded, %d deleted\n", result.Downloaded, result.Deleted)
	return nil
}
