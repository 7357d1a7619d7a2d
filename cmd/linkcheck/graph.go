package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the resolved dependency graph",
	Long: `Resolves the dependency graph of the root artifacts and prints every
artifact with the dependency path that introduced it, in traversal order.

Examples:
  linkcheck graph --bom bom.yaml --graph-file deps.yaml`,
	Run: runGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) {
	rt, err := newRuntime(args)
	if err != nil {
		fail(err)
	}

	for _, node := range rt.nodes {
		fmt.Println(node.Path)
	}

	excluded := rt.result.Excluded()
	if len(excluded) > 0 {
		fmt.Fprintln(os.Stderr, "\nExcluded edges:")
		for _, sup := range excluded {
			fmt.Fprintf(os.Stderr, "  %s (rule %s)\n", sup.Path, sup.Rule)
		}
	}
	os.Exit(exitOK)
}
