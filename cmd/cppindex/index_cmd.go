package main

import (
	"context"
	"fmt"

	"github.com/daedaleanai/cobra"

	"github.com/cppindex/cppindex/internal/filescan"
)

var fExcludeGlobs []string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "run a full index of the project",
	RunE: handleError(func(cmd *cobra.Command, args []string) error {
		p, err := openProject()
		if err != nil {
			return err
		}
		defer p.Close()

		scan, err := filescan.Scan(filescan.Options{
			Root:         p.cfg.ProjectRoot,
			ExcludeGlobs: fExcludeGlobs,
		})
		if err != nil {
			return err
		}

		result := p.az.AnalyzeFiles(context.Background(), p.db, scan.Sources)

		fmt.Printf("indexed %d files (%d failed) in %s, run %s\n",
			result.FilesAnalyzed, result.FilesFailed, result.Elapsed, result.RunID)
		if result.FilesFailed > 0 {
			fmt.Println(result.Errors)
		}
		return nil
	}),
}

func init() {
	indexCmd.Flags().StringSliceVar(&fExcludeGlobs, "exclude", nil, "doublestar glob to exclude from the scan, relative to --project (repeatable)")
}
