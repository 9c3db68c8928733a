package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ddloads/networksync/pkg/cmdsupport"
	"github.com/ddloads/networksync/pkg/scan"
	"github.com/ddloads/networksync/pkg/transfer"
)

var pullConfiguration struct {
	localPath     string
	branch        string
	resolve       []string
	selectiveSync selectiveSyncFlags
}

var pullCommand = &cobra.Command{
	Use:   "pull <project-id>",
	Short: "Pull the latest snapshot from the shared mount into a local checkout",
	Args:  cobra.ExactArgs(1),
	Run:   cmdsupport.Mainify(pullMain),
}

func init() {
	flags := pullCommand.Flags()
	flags.StringVarP(&pullConfiguration.localPath, "path", "p", "", "Local checkout path (defaults to the configured binding)")
	flags.StringVarP(&pullConfiguration.branch, "branch", "b", "", "Branch name (default \"main\")")
	flags.StringArrayVar(&pullConfiguration.resolve, "resolve", nil, "Conflict resolution \"path=keep_local|keep_remote|keep_both\" (repeatable)")
	pullConfiguration.selectiveSync.Register(flags)
}

func parseResolutions(raw []string) (map[string]transfer.Resolution, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	resolutions := make(map[string]transfer.Resolution, len(raw))
	for _, entry := range raw {
		path, strategy, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --resolve value %q, expected path=strategy", entry)
		}
		switch transfer.Resolution(strategy) {
		case transfer.ResolutionKeepLocal, transfer.ResolutionKeepRemote, transfer.ResolutionKeepBoth:
			resolutions[path] = transfer.Resolution(strategy)
		default:
			return nil, fmt.Errorf("unrecognized resolution strategy %q for path %q", strategy, path)
		}
	}
	return resolutions, nil
}

func pullMain(_ *cobra.Command, arguments []string) error {
	projectID := arguments[0]

	e, cfg, _, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	localPath, err := resolveLocalPath(cfg, projectID, pullConfiguration.localPath)
	if err != nil {
		return err
	}

	resolutions, err := parseResolutions(pullConfiguration.resolve)
	if err != nil {
		return err
	}

	printer := &cmdsupport.StatusLinePrinter{}
	progress := scan.ProgressFunc(func(filesScanned int, currentPath string) {
		printer.Print(fmt.Sprintf("Scanning (%d): %s", filesScanned, currentPath))
	})

	result, err := e.Pull(context.Background(), projectID, localPath, pullConfiguration.branch, resolutions, progress, pullConfiguration.selectiveSync.Patterns())
	printer.Clear()
	if err != nil {
		printEngineError(err)
		return err
	}

	if !result.Success {
		fmt.Println("Pull has conflicts pending resolution:")
		for _, conflict := range result.Conflicts {
			fmt.Printf("  %s\n", conflict.Path)
		}
		fmt.Println("Re-run with --resolve path=keep_local|keep_remote|keep_both for each path listed above.")
		return nil
	}

	fmt.Printf("Pulled: %d downloaded, %d deleted\n", result.Downloaded, result.Deleted)
	return nil
}
