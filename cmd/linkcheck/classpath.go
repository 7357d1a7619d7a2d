package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"linkcheck/internal/classpath"
)

var classpathShowConflicts bool

var classpathCmd = &cobra.Command{
	Use:   "classpath",
	Short: "Print the resolved classpath and version conflicts",
	Long: `Resolves the dependency graph, applies version selection, and prints
the resulting classpath in order. With --conflicts, also lists the
module-equal artifacts that lost version selection.

Examples:
  linkcheck classpath --bom bom.yaml --graph-file deps.yaml
  linkcheck classpath --artifacts com.example:app:1.0 --graph-file deps.yaml --conflicts`,
	Run: runClasspath,
}

func init() {
	classpathCmd.Flags().BoolVar(&classpathShowConflicts, "conflicts", false,
		"Also list unselected module-equal artifacts")
	rootCmd.AddCommand(classpathCmd)
}

func runClasspath(cmd *cobra.Command, args []string) {
	rt, err := newRuntime(args)
	if err != nil {
		fail(err)
	}

	for _, entry := range rt.result.Entries() {
		fmt.Printf("%s\t%s\n", entry, entry.File)
	}

	for _, missing := range rt.result.Missing() {
		fmt.Fprintf(os.Stderr, "warning: no local archive for %s\n", missing)
	}

	if classpathShowConflicts {
		printConflicts(rt)
	}
	os.Exit(exitOK)
}

func printConflicts(rt *checkRuntime) {
	printed := false
	for _, entry := range rt.result.Entries() {
		if entry.Artifact.IsZero() {
			continue
		}
		alts := rt.result.Unselected(entry.Artifact)
		if len(alts) == 0 {
			continue
		}
		classpath.SortAlternatives(alts)

		if !printed {
			fmt.Println("\nVersion conflicts:")
			printed = true
		}
		for _, alt := range alts {
			fmt.Printf("  %s selected over %s\n", alt.Selected, alt.Candidate)
			fmt.Printf("    selected:   %s\n", alt.SelectedPath)
			fmt.Printf("    unselected: %s\n", alt.CandidatePath)
		}
	}
	if !printed {
		fmt.Println("\nNo version conflicts.")
	}
}
