package main

import (
	"github.com/spf13/cobra"

	"linkcheck/internal/version"
)

var (
	// shared flags across subcommands
	bomFlag       string
	artifactsFlag []string
	graphFileFlag string
	repoFlag      string
	rulesFlag     string
	logLevelFlag  string
	logFormatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "linkcheck",
	Short: "linkcheck - static linkage checker for Java class libraries",
	Long: `linkcheck verifies that every symbolic reference (class, method, field)
made by the class files on a resolved classpath binds to a definition
reachable from that classpath under the runtime's first-match rules.

Unresolved or incompatibly-resolved references are reported as linkage
problems, attributed to the class file that made the reference and the
artifact whose presence, absence, or version caused the failure.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("linkcheck version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&bomFlag, "bom", "",
		"BOM manifest file listing root artifacts (YAML)")
	rootCmd.PersistentFlags().StringSliceVarP(&artifactsFlag, "artifacts", "a", nil,
		"Root artifact coordinates (group:name:version), repeatable")
	rootCmd.PersistentFlags().StringVar(&graphFileFlag, "graph-file", "",
		"Dependency graph file describing direct dependencies (YAML)")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", "",
		"Local artifact repository root (default: ~/.m2/repository)")
	rootCmd.PersistentFlags().StringVar(&rulesFlag, "rules", "",
		"Exclusion rules file (TOML)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "",
		"Log format: human, json")
}
