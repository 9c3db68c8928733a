package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ddloads/networksync/pkg/cmdsupport"
)

var configCommand = &cobra.Command{
	Use:   "config",
	Short: "Inspect the per-peer configuration",
}

var configShowCommand = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration file path and its current contents",
	Args:  cmdsupport.DisallowArguments,
	Run:   cmdsupport.Mainify(configShowMain),
}

func init() {
	configCommand.AddCommand(configShowCommand)
}

func configShowMain(_ *cobra.Command, _ []string) error {
	cfg, path, err := loadConfiguration()
	if err != nil {
		return err
	}

	fmt.Printf("Configuration file: %s\n", path)
	fmt.Printf("Shared mount:       %s\n", orNotSet(cfg.NASPath))
	fmt.Printf("Machine name:       %s\n", cfg.MachineName)
	if len(cfg.Projects) == 0 {
		fmt.Println("Bound projects:     none")
		return nil
	}
	fmt.Println("Bound projects:")
	for id, binding := range cfg.Projects {
		fmt.Printf("  %s -> %s\n", id, binding.LocalPath)
	}
	return nil
}

func orNotSet(value string) string {
	if value == "" {
		return "(not set)"
	}
	return value
}
