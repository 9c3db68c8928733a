package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ddloads/networksync/pkg/cmdsupport"
	"github.com/ddloads/networksync/pkg/lock"
)

var lockCommand = &cobra.Command{
	Use:   "lock",
	Short: "Manage advisory per-file locks and the exclusion lock",
}

var lockListCommand = &cobra.Command{
	Use:   "list <project-id>",
	Short: "List advisory file locks held on a project",
	Args:  cobra.ExactArgs(1),
	Run:   cmdsupport.Mainify(lockListMain),
}

var lockAcquireCommand = &cobra.Command{
	Use:   "acquire <project-id> <path>",
	Short: "Take an advisory lock on a path",
	Args:  cobra.ExactArgs(2),
	Run:   cmdsupport.Mainify(lockAcquireMain),
}

var lockReleaseCommand = &cobra.Command{
	Use:   "release <project-id> <path>",
	Short: "Release an advisory lock held by this machine",
	Args:  cobra.ExactArgs(2),
	Run:   cmdsupport.Mainify(lockReleaseMain),
}

var lockForceReleaseCommand = &cobra.Command{
	Use:   "force-release",
	Short: "Unconditionally clear the exclusion lock on the shared mount",
	Args:  cmdsupport.DisallowArguments,
	Run:   cmdsupport.Mainify(lockForceReleaseMain),
}

func init() {
	lockCommand.AddCommand(lockListCommand, lockAcquireCommand, lockReleaseCommand, lockForceReleaseCommand)
}

func lockListMain(_ *cobra.Command, arguments []string) error {
	projectID := arguments[0]

	e, _, _, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	locks := e.ListFileLocks(projectID)
	if len(locks) == 0 {
		fmt.Println("No file locks held.")
		return nil
	}
	for _, l := range locks {
		fmt.Printf("%-40s  %-20s  %s\n", l.Path, l.MachineName, humanize.Time(l.LockedAt))
	}
	return nil
}

func lockAcquireMain(_ *cobra.Command, arguments []string) error {
	projectID, path := arguments[0], arguments[1]

	e, _, _, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	ok, err := e.AcquireFileLock(context.Background(), projectID, path)
	if err != nil {
		printEngineError(err)
		return err
	}
	if !ok {
		fmt.Printf("%s is already locked by another machine\n", path)
		return nil
	}
	fmt.Printf("Locked %s\n", path)
	return nil
}

func lockReleaseMain(_ *cobra.Command, arguments []string) error {
	projectID, path := arguments[0], arguments[1]

	e, _, _, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	ok, err := e.ReleaseFileLock(context.Background(), projectID, path)
	if err != nil {
		printEngineError(err)
		return err
	}
	if !ok {
		fmt.Printf("%s is not locked by this machine\n", path)
		return nil
	}
	fmt.Printf("Released %s\n", path)
	return nil
}

func lockForceReleaseMain(_ *cobra.Command, _ []string) error {
	cfg, _, err := loadConfiguration()
	if err != nil {
		return err
	}
	if cfg.NASPath == "" {
		return fmt.Errorf("no shared mount configured")
	}

	cmdsupport.Warning("force-releasing the exclusion lock; only do this if you are certain no peer is mid-operation")
	if err := lock.ForceRelease(cfg.NASPath, rootLogger()); err != nil {
		return err
	}
	fmt.Println("Exclusion lock cleared.")
	return nil
}
