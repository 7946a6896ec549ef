package main

import (
	"context"
	"fmt"

	"github.com/daedaleanai/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "print index size and dependency graph statistics",
	RunE: handleError(func(cmd *cobra.Command, args []string) error {
		p, err := openProject()
		if err != nil {
			return err
		}
		defer p.Close()

		fmt.Printf("files indexed:    %d\n", len(p.indexes.Files()))
		fmt.Printf("symbols indexed:  %d\n", p.indexes.SymbolCount())
		fmt.Printf("headers tracked:  %d\n", p.tracker.GetProcessedCount())

		depStats, err := p.graph.GetDependencyStats(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("dependency edges: %d\n", depStats.EdgeCount)
		fmt.Printf("source files:     %d\n", depStats.SourceFileCount)
		fmt.Printf("included headers: %d\n", depStats.IncludedFileCount)
		return nil
	}),
}
