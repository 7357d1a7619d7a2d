package report

import (
	"fmt"
	"sort"
	"strings"

	"linkcheck/internal/linkage"
	"linkcheck/internal/symbols"
)

// FormatGraphviz renders the problems as a Graphviz dot graph: one cluster
// per artifact, source classes as plaintext nodes, referenced symbols as
// ellipse nodes, edges styled by problem kind (dotted black for a missing
// class, orange for a missing symbol, red otherwise).
func FormatGraphviz(problems []*linkage.Problem) string {
	var b strings.Builder
	b.WriteString("digraph G {\n")
	b.WriteString("  rankdir=LR;")

	classesByArtifact := make(map[string][]string)
	symbolsByArtifact := make(map[string][]string)
	seenClass := make(map[string]bool)
	seenSymbol := make(map[string]bool)

	for _, p := range problems {
		sourceArtifact := p.Source.Entry.String()
		className := shortClassName(p.Source.BinaryName())
		if !seenClass[className] {
			seenClass[className] = true
			classesByArtifact[sourceArtifact] = append(classesByArtifact[sourceArtifact], className)
		}

		targetArtifact := "undefined"
		if p.Target != nil {
			targetArtifact = p.Target.Entry.String()
		}
		symbolName := shortSymbol(p.Symbol).String()
		if !seenSymbol[symbolName] {
			seenSymbol[symbolName] = true
			symbolsByArtifact[targetArtifact] = append(symbolsByArtifact[targetArtifact], symbolName)
		}
	}

	artifacts := make([]string, 0, len(classesByArtifact)+len(symbolsByArtifact))
	seenArtifact := make(map[string]bool)
	for coords := range classesByArtifact {
		if !seenArtifact[coords] {
			seenArtifact[coords] = true
			artifacts = append(artifacts, coords)
		}
	}
	for coords := range symbolsByArtifact {
		if !seenArtifact[coords] {
			seenArtifact[coords] = true
			artifacts = append(artifacts, coords)
		}
	}
	sort.Strings(artifacts)

	classID := make(map[string]string)
	symbolID := make(map[string]string)
	nodeCount := 0

	for clusterIndex, coords := range artifacts {
		fmt.Fprintf(&b, "  subgraph cluster_%d {\n", clusterIndex)
		b.WriteString("    color=lightgrey;\n")
		fmt.Fprintf(&b, "    label = \"%s\";\n", coords)

		for _, className := range classesByArtifact[coords] {
			id := fmt.Sprintf("class%d", nodeCount)
			nodeCount++
			fmt.Fprintf(&b, "    %s [shape=plaintext,fontsize=9,label=\"%s\"];\n", id, className)
			classID[className] = id
		}
		for _, symbolName := range symbolsByArtifact[coords] {
			id := fmt.Sprintf("sym%d", nodeCount)
			nodeCount++
			fmt.Fprintf(&b, "    %s [shape=ellipse,fontsize=9,label=\"%s\"];\n", id, strings.ReplaceAll(symbolName, `"`, `\"`))
			symbolID[symbolName] = id
		}

		b.WriteString("  }\n")
	}

	for _, p := range problems {
		from := classID[shortClassName(p.Source.BinaryName())]
		to := symbolID[shortSymbol(p.Symbol).String()]

		style, color := "solid", "red"
		switch p.Kind {
		case linkage.KindClassNotFound:
			style, color = "dotted", "black"
		case linkage.KindSymbolNotFound:
			color = "orange"
		}
		fmt.Fprintf(&b, "  %s -> %s [style=%s,color=%s];\n", from, to, style, color)
	}

	b.WriteString("}")
	return b.String()
}

// shortClassName abbreviates package segments to their initials:
// "com.google.Foo" becomes "c.g.Foo".
func shortClassName(binaryName string) string {
	segments := strings.Split(binaryName, ".")
	var b strings.Builder
	for i := 0; i < len(segments)-1; i++ {
		if segments[i] != "" {
			b.WriteByte(segments[i][0])
		}
		b.WriteByte('.')
	}
	b.WriteString(segments[len(segments)-1])
	return b.String()
}

func shortSymbol(s symbols.Symbol) symbols.Symbol {
	shortOwner := func(owner string) string {
		dotted := strings.ReplaceAll(owner, "/", ".")
		return strings.ReplaceAll(shortClassName(dotted), ".", "/")
	}
	switch sym := s.(type) {
	case symbols.Class:
		return symbols.Class{Owner: shortOwner(sym.Owner)}
	case symbols.Method:
		return symbols.Method{
			Owner:       shortOwner(sym.Owner),
			Name:        sym.Name,
			Descriptor:  sym.Descriptor,
			OnInterface: sym.OnInterface,
		}
	case symbols.Field:
		return symbols.Field{Owner: shortOwner(sym.Owner), Name: sym.Name, Descriptor: sym.Descriptor}
	default:
		return s
	}
}
