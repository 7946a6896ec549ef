package main

import (
	"fmt"
	"os"
	"reflect"
	"runtime"
	"strings"

	"github.com/daedaleanai/cobra"
	"github.com/pkg/errors"

	"github.com/cppindex/cppindex/internal/diagnostics"
)

var (
	fProjectRoot string
	fConfigFile  string
	fVerbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "cppindex",
	Short: "cppindex indexes a C/C++ project's symbols for fast structural search",
	Long: `cppindex parses a C/C++ project's translation units via libclang, extracts
class, function, and template records with rich metadata, and answers
pattern queries against them without re-parsing on every call.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&fProjectRoot, "project", ".", "project root directory")
	rootCmd.PersistentFlags().StringVar(&fConfigFile, "config", "", "path to a cppindex.json config file (defaults to <project>/cppindex.json)")
	rootCmd.PersistentFlags().BoolVarP(&fVerbose, "verbose", "v", false, "enable debug-level diagnostics")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(searchClassesCmd)
	rootCmd.AddCommand(searchFunctionsCmd)
	rootCmd.AddCommand(searchSymbolsCmd)
	rootCmd.AddCommand(statsCmd)
}

func logLevel() diagnostics.Level {
	if fVerbose {
		return diagnostics.Debug
	}
	return diagnostics.Info
}

// handleError wraps a RunE function so a failure prints the error, wrapped
// with the handler's Go function name as the runtime reports it, to stderr
// and exits 1 instead of returning the error to cobra.
func handleError(runE func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := runE(cmd, args); err != nil {
			name := runtime.FuncForPC(reflect.ValueOf(runE).Pointer()).Name()
			name = name[strings.LastIndex(name, "/")+1:]
			fmt.Fprintln(os.Stderr, errors.Wrap(err, name))
			os.Exit(1)
		}
		return nil
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
