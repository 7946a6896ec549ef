package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/daedaleanai/cobra"

	"github.com/cppindex/cppindex/internal/changescan"
	"github.com/cppindex/cppindex/internal/incremental"
	"github.com/cppindex/cppindex/internal/watch"
)

var fWatch bool

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "re-scan the project and re-analyze only what changed",
	Long: `refresh detects added, removed, and modified files since the last run
and re-analyzes the minimal set needed to bring the index up to date. With
--watch it stays running and re-runs the same detection on every settled
burst of filesystem activity.`,
	RunE: handleError(func(cmd *cobra.Command, args []string) error {
		p, err := openProject()
		if err != nil {
			return err
		}
		defer p.Close()

		coord := &incremental.Coordinator{
			Analyzer: p.az,
			Scanner: &changescan.Scanner{
				Backend:             p.backend,
				ProjectRoot:         p.cfg.ProjectRoot,
				CompileCommandsPath: p.cfg.CompileCommands,
				Logger:              p.logger,
			},
			Graph:               p.graph,
			Tracker:             p.tracker,
			Cache:               p.backend,
			CompileCommandsPath: p.cfg.CompileCommands,
			Database:            p.db,
			Logger:              p.logger,
		}

		if !fWatch {
			result, err := coord.PerformIncrementalAnalysis(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("analyzed %d, removed %d, in %s\n", result.FilesAnalyzed, result.FilesRemoved, result.Elapsed)
			return nil
		}

		w := &watch.Watcher{
			Coordinator: coord,
			Root:        p.cfg.ProjectRoot,
			Logger:      p.logger,
		}
		if err := w.Start(context.Background()); err != nil {
			return err
		}
		defer w.Stop()

		fmt.Printf("watching %s for changes (ctrl-c to stop)\n", p.cfg.ProjectRoot)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		sig := <-sigChan
		fmt.Printf("\nreceived signal %v, stopping\n", sig)
		return nil
	}),
}

func init() {
	refreshCmd.Flags().BoolVar(&fWatch, "watch", false, "stay running and re-refresh on filesystem changes")
}
