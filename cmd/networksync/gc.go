package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ddloads/networksync/pkg/cmdsupport"
)

var gcCommand = &cobra.Command{
	Use:   "gc",
	Short: "Remove object-store blobs no longer referenced by any snapshot",
	Args:  cmdsupport.DisallowArguments,
	Run:   cmdsupport.Mainify(gcMain),
}

func gcMain(_ *cobra.Command, _ []string) error {
	e, _, _, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	result, err := e.GC(context.Background())
	if err != nil {
		printEngineError(err)
		return err
	}

	fmt.Printf("Removed %d blobs, freed %s\n", result.BlobsRemoved, humanize.Bytes(uint64(result.BytesFreed)))
	return nil
}
