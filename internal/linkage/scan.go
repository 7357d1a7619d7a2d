package linkage

import (
	"context"

	"golang.org/x/sync/errgroup"

	"linkcheck/internal/archive"
	"linkcheck/internal/classpath"
	"linkcheck/internal/errors"
	"linkcheck/internal/logging"
	"linkcheck/internal/repository"
	"linkcheck/internal/symbols"
)

// SourceRefs couples a source class name with its extracted references.
type SourceRefs struct {
	ClassName string             `json:"className"`
	Refs      symbols.References `json:"refs"`
}

// ExtractedStore persists extraction results keyed by archive digest, so
// repeated runs skip re-extracting unchanged archives.
type ExtractedStore interface {
	Get(digest string) ([]SourceRefs, bool, error)
	Put(digest string, refs []SourceRefs) error
}

// Digester computes the cache key of an archive.
type Digester interface {
	Digest(path string) (string, error)
}

// ScanOptions configures a classpath scan.
type ScanOptions struct {
	// MaxParsers bounds the parallel fan-out across classpath entries.
	// Values below 1 mean serial execution.
	MaxParsers int
	// Store, when non-nil, caches extraction results. Digester must be
	// set alongside it.
	Store    ExtractedStore
	Digester Digester
}

// ScanResult is the output of a classpath scan.
type ScanResult struct {
	Problems *ProblemSet
	// Graph holds the class-to-class references of every scanned source,
	// for the reachability filter.
	Graph *ClassReferenceGraph
}

// FindProblems scans every selected classpath entry, extracts the symbolic
// references of its classes, and resolves each reference. The returned set
// is identical for serial and parallel execution. Cancellation is
// cooperative: the context is checked at archive and per-class boundaries;
// in-flight parses complete.
func FindProblems(ctx context.Context, repo *repository.Repository, reader archive.Reader, opts ScanOptions, logger *logging.Logger) (*ScanResult, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	problems := NewProblemSet()
	graph := NewClassReferenceGraph()
	checker := NewChecker(repo)

	g, ctx := errgroup.WithContext(ctx)
	limit := opts.MaxParsers
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for _, entry := range repo.Entries() {
		entry := entry
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return errors.New(errors.Canceled, "scan canceled", err)
			}

			refs, err := extractEntry(repo, reader, entry, opts, logger)
			if err != nil {
				return err
			}

			for _, sr := range refs {
				if err := ctx.Err(); err != nil {
					return errors.New(errors.Canceled, "scan canceled", err)
				}
				graph.add(sr.ClassName, sr.Refs)
				source := SourceClass{Name: sr.ClassName, Entry: entry}
				for _, ref := range sr.Refs.ClassRefs {
					if p := checker.CheckClassRef(source, ref); p != nil {
						problems.Add(p)
					}
				}
				for _, m := range sr.Refs.MethodRefs {
					if p := checker.CheckMethodRef(source, m); p != nil {
						problems.Add(p)
					}
				}
				for _, f := range sr.Refs.FieldRefs {
					if p := checker.CheckFieldRef(source, f); p != nil {
						problems.Add(p)
					}
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &ScanResult{Problems: problems, Graph: graph}, nil
}

// extractEntry returns the references of every class whose first-match
// definition is this entry. Shadowed definitions are never scanned as
// sources. Malformed classes are logged and skipped.
func extractEntry(repo *repository.Repository, reader archive.Reader, entry classpath.Entry, opts ScanOptions, logger *logging.Logger) ([]SourceRefs, error) {
	var digest string
	if opts.Store != nil && opts.Digester != nil {
		d, err := opts.Digester.Digest(entry.File)
		if err == nil {
			digest = d
			if cached, ok, err := opts.Store.Get(digest); err == nil && ok {
				return cached, nil
			} else if err != nil {
				logger.Warn("Symbol cache read failed", map[string]interface{}{
					"archive": entry.File,
					"error":   err.Error(),
				})
			}
		}
	}

	names, err := reader.ClassNames(entry.File)
	if err != nil {
		return nil, err
	}

	var out []SourceRefs
	for _, name := range names {
		defining := repo.ShadowEntries(name)
		if len(defining) == 0 || defining[0] != entry {
			continue
		}

		cf, err := repo.FindIn(entry, name)
		if err != nil {
			logger.Warn("Skipping unreadable class", map[string]interface{}{
				"class":   name,
				"archive": entry.File,
				"error":   err.Error(),
			})
			continue
		}
		out = append(out, SourceRefs{ClassName: name, Refs: symbols.Extract(cf)})
	}

	if digest != "" {
		if err := opts.Store.Put(digest, out); err != nil {
			logger.Warn("Symbol cache write failed", map[string]interface{}{
				"archive": entry.File,
				"error":   err.Error(),
			})
		}
	}
	return out, nil
}
