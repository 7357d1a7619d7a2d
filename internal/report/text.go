// Package report renders linkage problems for humans and for downstream
// report consumers. The grouped listing and the Graphviz format follow the
// layout existing consumers already parse.
package report

import (
	"fmt"
	"strings"

	"linkcheck/internal/classpath"
	"linkcheck/internal/linkage"
)

// FormatProblems renders the grouped human-readable listing: one entry per
// (symbol, message) with the referring classes indented beneath it, then
// the dependency paths of every problematic artifact.
func FormatProblems(problems []*linkage.Problem, result *classpath.Result) string {
	var b strings.Builder

	// Abstract-method problems do not fit the "referenced by" grouping.
	var grouped []*linkage.Problem
	var abstract []*linkage.Problem
	for _, p := range problems {
		if p.Kind == linkage.KindAbstractMethod {
			abstract = append(abstract, p)
			continue
		}
		grouped = append(grouped, p)
	}

	var order []string
	bySymbolProblem := make(map[string][]*linkage.Problem)
	for _, p := range grouped {
		key := p.FormatSymbolProblem()
		if _, seen := bySymbolProblem[key]; !seen {
			order = append(order, key)
		}
		bySymbolProblem[key] = append(bySymbolProblem[key], p)
	}

	for _, key := range order {
		group := bySymbolProblem[key]
		plural := ""
		if len(group) > 1 {
			plural = "s"
		}
		fmt.Fprintf(&b, "%s;\n  referenced by %d class file%s\n", key, len(group), plural)

		var causes []string
		seenCause := make(map[string]bool)
		for _, p := range group {
			fmt.Fprintf(&b, "    %s (%s)\n", p.Source.BinaryName(), p.Source.Entry)
			if p.Cause != nil {
				if text := p.Cause.String(); !seenCause[text] {
					seenCause[text] = true
					causes = append(causes, text)
				}
			}
		}
		writeCauses(&b, causes)
	}

	for _, p := range abstract {
		fmt.Fprintf(&b, "%s; source class %s\n", p.FormatSymbolProblem(), p.Source)
		if p.Cause != nil {
			writeCauses(&b, []string{p.Cause.String()})
		}
	}

	if result != nil {
		if section := problematicArtifacts(result, problems); section != "" {
			b.WriteString(section)
		}
	}

	return b.String()
}

func writeCauses(b *strings.Builder, causes []string) {
	if len(causes) == 0 {
		return
	}
	b.WriteString("  Cause:\n")
	for _, cause := range causes {
		fmt.Fprintf(b, "    %s\n", strings.ReplaceAll(cause, "\n", "\n    "))
	}
}

// problematicArtifacts lists the dependency path of every archive that
// either made or was expected to satisfy a bad reference.
func problematicArtifacts(result *classpath.Result, problems []*linkage.Problem) string {
	var entries []classpath.Entry
	seen := make(map[string]bool)
	add := func(e classpath.Entry) {
		if !seen[e.String()] {
			seen[e.String()] = true
			entries = append(entries, e)
		}
	}
	for _, p := range problems {
		add(p.Source.Entry)
		if p.Target != nil {
			add(p.Target.Entry)
		}
	}

	paths := result.FormatDependencyPaths(entries)
	if paths == "" {
		return ""
	}
	return "Problematic artifacts in the dependency tree:\n" + paths
}
