package main

import (
	"fmt"

	"github.com/daedaleanai/cobra"

	"github.com/cppindex/cppindex/internal/analyzer"
	"github.com/cppindex/cppindex/internal/search"
	"github.com/cppindex/cppindex/internal/suggest"
)

var (
	fProjectOnly      bool
	fFileName         string
	fNamespace        string
	fSignaturePattern string
	fMaxResults       int
)

func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&fProjectOnly, "project-only", false, "only match symbols from project sources, not system/third-party headers")
	cmd.Flags().StringVar(&fFileName, "file", "", "only match symbols contributed by files whose path ends in this suffix")
	cmd.Flags().StringVar(&fNamespace, "namespace", "", "only match symbols in this namespace (empty string means the global namespace); set to filter, leave unset to search every namespace")
	cmd.Flags().StringVar(&fSignaturePattern, "signature", "", "only match callables whose rendered signature contains this substring")
	cmd.Flags().IntVar(&fMaxResults, "max-results", 50, "cap the number of symbols returned; the count before truncation is still reported")
}

func searchFilters(cmd *cobra.Command) search.Filters {
	return search.Filters{
		ProjectOnly:      fProjectOnly,
		FileName:         fFileName,
		Namespace:        fNamespace,
		NamespaceActive:  cmd.Flags().Changed("namespace"),
		SignaturePattern: fSignaturePattern,
	}
}

// printResult reports the matches found, or, when nothing matched, the
// closest indexed names by spelling, so a typo doesn't just come back
// empty.
func printResult(result search.Result, pattern string, idx *analyzer.Indexes) {
	if len(result.Symbols) == 0 {
		fmt.Println("no matches")
		names := make([]string, 0, idx.SymbolCount())
		for _, s := range idx.AllSymbols() {
			names = append(names, s.QualifiedName)
		}
		if matches := suggest.Suggest(names, pattern, suggest.DefaultLimit); len(matches) > 0 {
			fmt.Println("did you mean:")
			for _, m := range matches {
				fmt.Printf("  %s\n", m.Candidate)
			}
		}
		return
	}
	for _, s := range result.Symbols {
		fmt.Printf("%s\t%s\t%s:%d\n", s.Kind, s.QualifiedName, s.File, s.Line)
	}
	if result.Total > len(result.Symbols) {
		fmt.Printf("(%d of %d total; raise --max-results to see more)\n", len(result.Symbols), result.Total)
	}
}

var searchClassesCmd = &cobra.Command{
	Use:   "search-classes PATTERN",
	Short: "search classes, structs, and class templates by name",
	Args:  cobra.ExactArgs(1),
	RunE: handleError(func(cmd *cobra.Command, args []string) error {
		p, err := openProject()
		if err != nil {
			return err
		}
		defer p.Close()

		eng := &search.Engine{Indexes: p.indexes}
		result, err := eng.SearchClasses(args[0], searchFilters(cmd), fMaxResults)
		if err != nil {
			return err
		}
		printResult(result, args[0], p.indexes)
		return nil
	}),
}

var searchFunctionsCmd = &cobra.Command{
	Use:   "search-functions PATTERN",
	Short: "search free functions and methods by name",
	Args:  cobra.ExactArgs(1),
	RunE: handleError(func(cmd *cobra.Command, args []string) error {
		p, err := openProject()
		if err != nil {
			return err
		}
		defer p.Close()

		eng := &search.Engine{Indexes: p.indexes}
		result, err := eng.SearchFunctions(args[0], searchFilters(cmd), fMaxResults)
		if err != nil {
			return err
		}
		printResult(result, args[0], p.indexes)
		return nil
	}),
}

var searchSymbolsCmd = &cobra.Command{
	Use:   "search-symbols PATTERN",
	Short: "search every indexed symbol kind by name",
	Args:  cobra.ExactArgs(1),
	RunE: handleError(func(cmd *cobra.Command, args []string) error {
		p, err := openProject()
		if err != nil {
			return err
		}
		defer p.Close()

		eng := &search.Engine{Indexes: p.indexes}
		result, err := eng.SearchSymbols(args[0], searchFilters(cmd), fMaxResults)
		if err != nil {
			return err
		}
		printResult(result, args[0], p.indexes)
		return nil
	}),
}

func init() {
	addSearchFlags(searchClassesCmd)
	addSearchFlags(searchFunctionsCmd)
	addSearchFlags(searchSymbolsCmd)
}
