package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"linkcheck/internal/archive"
	"linkcheck/internal/cause"
	"linkcheck/internal/linkage"
	"linkcheck/internal/report"
	"linkcheck/internal/repository"
	"linkcheck/internal/storage"
)

var (
	checkFormat        string
	checkOutput        string
	checkNoCause       bool
	checkReachableOnly bool
	checkMaxParsers    int
)

var checkCmd = &cobra.Command{
	Use:   "check [jar files...]",
	Short: "Find linkage problems on the resolved classpath",
	Long: `Resolves the dependency graph of the root artifacts, builds the
classpath, and verifies every symbolic reference made by its class files.

Jar files given as arguments are appended to the classpath after the
resolved artifacts.

Examples:
  linkcheck check --bom bom.yaml --graph-file deps.yaml
  linkcheck check --artifacts com.example:app:1.0 --graph-file deps.yaml
  linkcheck check app.jar lib.jar
  linkcheck check --bom bom.yaml --graph-file deps.yaml --format dot -o report.dot`,
	Run: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkFormat, "format", "text",
		"Report format: text, dot")
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", "",
		"Write the report to a file instead of stdout")
	checkCmd.Flags().BoolVar(&checkNoCause, "no-cause", false,
		"Skip cause attribution")
	checkCmd.Flags().BoolVar(&checkReachableOnly, "reachable-only", false,
		"Report only problems reachable from the root artifacts' classes")
	checkCmd.Flags().IntVar(&checkMaxParsers, "max-parsers", 0,
		"Parallel class parsers (default: configured value or CPU count)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) {
	rt, err := newRuntime(args)
	if err != nil {
		fail(err)
	}

	manager, err := archive.NewManager(rt.cfg.Parsing.MaxOpenArchives, rt.logger)
	if err != nil {
		fail(err)
	}
	defer manager.Close()

	repo, err := repository.New(manager, rt.result.Entries(), rt.cfg.Parsing.ClassCacheSize, rt.logger)
	if err != nil {
		fail(err)
	}

	opts := linkage.ScanOptions{MaxParsers: rt.cfg.EffectiveMaxParsers()}
	if checkMaxParsers > 0 {
		opts.MaxParsers = checkMaxParsers
	}
	if rt.cfg.SymbolCache.Enabled {
		db, err := storage.Open(rt.cfg.SymbolCache.Path, rt.logger)
		if err != nil {
			rt.logger.Warn("Symbol cache unavailable", map[string]interface{}{
				"path":  rt.cfg.SymbolCache.Path,
				"error": err.Error(),
			})
		} else {
			defer db.Close()
			opts.Store = storage.NewSymbolCache(db)
			opts.Digester = manager
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scan, err := linkage.FindProblems(ctx, repo, manager, opts, rt.logger)
	if err != nil {
		fail(err)
	}
	problems := scan.Problems.Problems()

	if checkReachableOnly {
		problems = linkage.FilterReachable(problems, scan.Graph, rootClasses(rt, repo))
	}

	if !checkNoCause {
		inspector := cause.NewArchiveInspector(rt.locator, manager)
		attributor := cause.NewAttributor(repo, rt.result, inspector, rt.logger)
		attributor.Annotate(problems)
	}

	var rendered string
	switch checkFormat {
	case "text":
		rendered = report.FormatProblems(problems, rt.result)
	case "dot":
		rendered = report.FormatGraphviz(problems)
	default:
		fail(fmt.Errorf("unknown format %q (want text or dot)", checkFormat))
	}

	if checkOutput != "" {
		if err := os.WriteFile(checkOutput, []byte(rendered), 0o644); err != nil {
			fail(err)
		}
	} else if rendered != "" {
		fmt.Print(rendered)
	}

	if len(problems) > 0 {
		rt.logger.Info("Linkage problems found", map[string]interface{}{
			"problems": len(problems),
		})
		os.Exit(exitProblems)
	}
	fmt.Fprintln(os.Stderr, "No linkage problems found.")
	os.Exit(exitOK)
}

// rootClasses lists the classes defined by the root artifacts' classpath
// entries and by the extra jar entries (those without coordinates), the
// entry points of the reachability filter.
func rootClasses(rt *checkRuntime, repo *repository.Repository) []string {
	rootKeys := make(map[string]bool)
	for _, root := range rt.roots {
		rootKeys[root.Key()] = true
	}

	var classes []string
	for _, entry := range repo.Entries() {
		if !entry.Artifact.IsZero() && !rootKeys[entry.Artifact.Key()] {
			continue
		}
		classes = append(classes, repo.ClassNamesIn(entry)...)
	}
	return classes
}
