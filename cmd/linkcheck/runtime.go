package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"linkcheck/internal/artifact"
	"linkcheck/internal/classpath"
	"linkcheck/internal/config"
	"linkcheck/internal/depgraph"
	"linkcheck/internal/errors"
	"linkcheck/internal/logging"
)

// checkRuntime bundles the pieces every subcommand needs: configuration,
// logger, resolved graph, and built classpath.
type checkRuntime struct {
	cfg     *config.Config
	logger  *logging.Logger
	roots   []artifact.Artifact
	nodes   []depgraph.Node
	result  *classpath.Result
	locator classpath.Locator
}

// newRuntime loads configuration, resolves the dependency graph from the
// command-line inputs, and builds the classpath.
func newRuntime(extraJars []string) (*checkRuntime, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig(workDir)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := newRunLogger(cfg)

	roots, err := resolveRoots()
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 && len(extraJars) == 0 {
		return nil, errors.Newf(errors.ResolutionFailed,
			"no input: provide --bom, --artifacts, or jar files")
	}

	var rules []depgraph.Rule
	if rulesFlag != "" {
		rules, err = depgraph.LoadRules(rulesFlag)
		if err != nil {
			return nil, err
		}
	}

	lister, err := resolveLister(roots)
	if err != nil {
		return nil, err
	}

	resolver := depgraph.NewGraphResolver(lister, rules, logger)
	nodes, err := resolver.Resolve(roots)
	if err != nil {
		return nil, err
	}

	repoRoot := repoFlag
	if repoRoot == "" {
		repoRoot = cfg.LocalRepository
	}
	locator, err := classpath.NewLocalRepository(repoRoot)
	if err != nil {
		return nil, err
	}

	builder := classpath.NewBuilder(locator, logger)
	result, err := builder.Build(nodes, resolver.Excluded(), extraJars)
	if err != nil {
		return nil, err
	}

	logger.Debug("Classpath built", map[string]interface{}{
		"entries":  len(result.Entries()),
		"missing":  len(result.Missing()),
		"excluded": len(result.Excluded()),
	})

	return &checkRuntime{
		cfg:     cfg,
		logger:  logger,
		roots:   roots,
		nodes:   nodes,
		result:  result,
		locator: locator,
	}, nil
}

func newRunLogger(cfg *config.Config) *logging.Logger {
	format := cfg.Logging.Format
	if logFormatFlag != "" {
		format = logFormatFlag
	}
	level := cfg.Logging.Level
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	if env := os.Getenv("LINKCHECK_LOG_LEVEL"); env != "" {
		level = env
	}
	return logging.NewLogger(logging.Config{
		Format: logging.Format(format),
		Level:  logging.LogLevel(level),
		RunID:  uuid.NewString(),
	})
}

// resolveRoots collects the root artifact set from --bom and --artifacts.
func resolveRoots() ([]artifact.Artifact, error) {
	var roots []artifact.Artifact

	if bomFlag != "" {
		manifest, err := depgraph.LoadManifest(bomFlag)
		if err != nil {
			return nil, err
		}
		roots = append(roots, manifest.Members...)
	}

	for _, coords := range artifactsFlag {
		a, err := artifact.Parse(coords)
		if err != nil {
			return nil, errors.New(errors.ResolutionFailed, "bad --artifacts value", err)
		}
		roots = append(roots, a)
	}

	return roots, nil
}

// resolveLister selects the dependency source. With --graph-file, roots
// must be described by the file; without one, roots are treated as leaves.
func resolveLister(roots []artifact.Artifact) (depgraph.DependencyLister, error) {
	if graphFileFlag == "" {
		return depgraph.EmptyLister{}, nil
	}

	lister, err := depgraph.LoadDependencyFile(graphFileFlag)
	if err != nil {
		return nil, err
	}
	for _, root := range roots {
		if !lister.Knows(root) {
			return nil, errors.Newf(errors.ResolutionFailed,
				"graph file does not describe root artifact %s", root)
		}
	}
	return lister, nil
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(exitError)
}
