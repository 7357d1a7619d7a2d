// Package linkage applies JVM linkage rules to extracted references and
// accumulates the resulting problems. Problems are data, not errors: they
// are the checker's normal output.
package linkage

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"linkcheck/internal/classpath"
	"linkcheck/internal/symbols"
)

// Kind tags a linkage problem variant.
type Kind string

const (
	// KindClassNotFound means the referenced class is on no classpath entry
	KindClassNotFound Kind = "class-not-found"
	// KindSymbolNotFound means the owner exists but lacks the member
	KindSymbolNotFound Kind = "symbol-not-found"
	// KindInaccessibleClass means the referenced class is not visible to the source
	KindInaccessibleClass Kind = "inaccessible-class"
	// KindInaccessibleMember means the member is not visible to the source
	KindInaccessibleMember Kind = "inaccessible-member"
	// KindAbstractMethod means an abstract method has no implementation in a concrete receiver
	KindAbstractMethod Kind = "abstract-method-not-implemented"
	// KindIncompatibleClassChange means the reference's class/interface tag contradicts the owner
	KindIncompatibleClassChange Kind = "incompatible-class-change"
)

// SourceClass identifies the class file that made a reference.
type SourceClass struct {
	Name  string // internal name
	Entry classpath.Entry
}

// BinaryName returns the dotted name of the source class.
func (s SourceClass) BinaryName() string {
	return strings.ReplaceAll(s.Name, "/", ".")
}

func (s SourceClass) String() string {
	return s.BinaryName() + " (" + s.Entry.String() + ")"
}

// TargetClass identifies the class expected to contain the symbol. Nil on a
// problem iff the class itself was not found.
type TargetClass struct {
	Name  string
	Entry classpath.Entry
}

// Cause explains why the classpath lacks a symbol. Implementations live in
// the cause package; problems only render them.
type Cause interface {
	String() string
}

// Problem is one linkage error: an invalid reference from Source to Symbol.
type Problem struct {
	Kind    Kind
	Symbol  symbols.Symbol
	Source  SourceClass
	Target  *TargetClass
	Message string
	// Cause is set once by the attributor after resolution; it does not
	// participate in equality.
	Cause Cause
}

func (p *Problem) String() string {
	return p.FormatSymbolProblem() + " referenced by " + p.Source.String()
}

// FormatSymbolProblem describes the problem without the source class, the
// form problems are grouped under in reports.
func (p *Problem) FormatSymbolProblem() string {
	result := p.Symbol.String() + " " + p.Message
	if p.Target != nil {
		result = "(" + p.Target.Entry.String() + ") " + result
	}
	return result
}

// key is the equality triple: two problems are the same iff symbol, source,
// and target match. Kind and cause are informational.
type key struct {
	symbol string
	source SourceClass
	target TargetClass
}

func (p *Problem) key() key {
	k := key{symbol: symbolKey(p.Symbol), source: p.Source}
	if p.Target != nil {
		k.target = *p.Target
	}
	return k
}

func symbolKey(s symbols.Symbol) string {
	switch sym := s.(type) {
	case symbols.Class:
		return "C:" + sym.Owner
	case symbols.Method:
		tag := "M"
		if sym.OnInterface {
			tag = "IM"
		}
		return tag + ":" + sym.Owner + "#" + sym.Name + sym.Descriptor
	case symbols.Field:
		return "F:" + sym.Owner + "#" + sym.Name + ":" + sym.Descriptor
	default:
		return fmt.Sprintf("?:%v", s)
	}
}

// ProblemSet deduplicates problems by their equality triple. Safe for
// concurrent insertion.
type ProblemSet struct {
	mu       sync.Mutex
	problems map[key]*Problem
}

// NewProblemSet creates an empty set.
func NewProblemSet() *ProblemSet {
	return &ProblemSet{problems: make(map[key]*Problem)}
}

// Add inserts the problem unless an equal one is already present.
func (s *ProblemSet) Add(p *Problem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := p.key()
	if _, exists := s.problems[k]; !exists {
		s.problems[k] = p
	}
}

// Len returns the number of distinct problems.
func (s *ProblemSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.problems)
}

// Problems returns the problems sorted deterministically: by symbol, then
// source, then target.
func (s *ProblemSet) Problems() []*Problem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Problem, 0, len(s.problems))
	for _, p := range s.problems {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := out[i].key(), out[j].key()
		if ki.symbol != kj.symbol {
			return ki.symbol < kj.symbol
		}
		if ki.source != kj.source {
			if ki.source.Name != kj.source.Name {
				return ki.source.Name < kj.source.Name
			}
			return ki.source.Entry.String() < kj.source.Entry.String()
		}
		return ki.target.Name < kj.target.Name
	})
	return out
}

// Problem constructors. Messages are pure functions of the variant.

func newClassNotFound(source SourceClass, owner string) *Problem {
	return &Problem{
		Kind:    KindClassNotFound,
		Symbol:  symbols.Class{Owner: owner},
		Source:  source,
		Message: "is not found",
	}
}

func newSymbolNotFound(source SourceClass, symbol symbols.Symbol, target *TargetClass) *Problem {
	return &Problem{
		Kind:    KindSymbolNotFound,
		Symbol:  symbol,
		Source:  source,
		Target:  target,
		Message: "is not found",
	}
}

func newInaccessibleClass(source SourceClass, owner string, target *TargetClass) *Problem {
	return &Problem{
		Kind:    KindInaccessibleClass,
		Symbol:  symbols.Class{Owner: owner},
		Source:  source,
		Target:  target,
		Message: "is not accessible",
	}
}

func newInaccessibleMember(source SourceClass, symbol symbols.Symbol, target *TargetClass) *Problem {
	return &Problem{
		Kind:    KindInaccessibleMember,
		Symbol:  symbol,
		Source:  source,
		Target:  target,
		Message: "is not accessible",
	}
}

func newAbstractMethod(source SourceClass, symbol symbols.Method, target *TargetClass) *Problem {
	return &Problem{
		Kind:    KindAbstractMethod,
		Symbol:  symbol,
		Source:  source,
		Target:  target,
		Message: "is abstract and has no implementation in " + strings.ReplaceAll(symbol.Owner, "/", "."),
	}
}

func newIncompatibleClassChange(source SourceClass, symbol symbols.Symbol, target *TargetClass, ownerIsInterface bool) *Problem {
	message := "is expected to be an interface but is a class"
	if ownerIsInterface {
		message = "is expected to be a class but is an interface"
	}
	return &Problem{
		Kind:    KindIncompatibleClassChange,
		Symbol:  symbol,
		Source:  source,
		Target:  target,
		Message: message,
	}
}
