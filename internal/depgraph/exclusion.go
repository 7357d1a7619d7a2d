package depgraph

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"

	"linkcheck/internal/artifact"
	"linkcheck/internal/errors"
)

// Rule suppresses dependency edges. From matches the "group:name" of the
// declaring artifact, To matches the "group:name" of the dependency; an
// empty From matches every declaring artifact. Patterns use glob syntax
// ("com.google.*", "*:guava").
type Rule struct {
	From string `toml:"from"`
	To   string `toml:"to"`

	fromGlob glob.Glob
	toGlob   glob.Glob
}

// NewRule creates and compiles an exclusion rule.
func NewRule(from, to string) (Rule, error) {
	r := Rule{From: from, To: to}
	if err := r.compile(); err != nil {
		return Rule{}, err
	}
	return r, nil
}

func (r *Rule) compile() error {
	if r.To == "" {
		return errors.Newf(errors.ConfigInvalid, "exclusion rule needs a 'to' pattern")
	}
	if r.From != "" {
		g, err := glob.Compile(r.From)
		if err != nil {
			return errors.New(errors.ConfigInvalid, fmt.Sprintf("bad 'from' pattern %q", r.From), err)
		}
		r.fromGlob = g
	}
	g, err := glob.Compile(r.To)
	if err != nil {
		return errors.New(errors.ConfigInvalid, fmt.Sprintf("bad 'to' pattern %q", r.To), err)
	}
	r.toGlob = g
	return nil
}

// Matches reports whether the edge from parent to child is suppressed by
// this rule.
func (r Rule) Matches(parent, child artifact.Artifact) bool {
	if r.fromGlob != nil && !r.fromGlob.Match(moduleName(parent)) {
		return false
	}
	return r.toGlob != nil && r.toGlob.Match(moduleName(child))
}

// MatchesTarget reports whether the rule's To pattern matches the artifact,
// regardless of the declaring side.
func (r Rule) MatchesTarget(a artifact.Artifact) bool {
	return r.toGlob != nil && r.toGlob.Match(moduleName(a))
}

func (r Rule) String() string {
	from := r.From
	if from == "" {
		from = "*"
	}
	return from + " -> " + r.To
}

func moduleName(a artifact.Artifact) string {
	return a.Group + ":" + a.Name
}

// Suppressed records a dependency edge pruned by an exclusion rule. Path is
// the path the excluded artifact would have had.
type Suppressed struct {
	Rule     Rule
	Artifact artifact.Artifact
	Path     Path
}

type rulesFile struct {
	Rule []Rule `toml:"rule"`
}

// LoadRules reads exclusion rules from a TOML file:
//
//	[[rule]]
//	from = "com.example:*"
//	to   = "com.google.guava:*"
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.ConfigInvalid, "cannot read rules file", err)
	}

	var f rulesFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, errors.New(errors.ConfigInvalid, "cannot parse rules file", err)
	}

	rules := make([]Rule, 0, len(f.Rule))
	for i := range f.Rule {
		r, err := NewRule(f.Rule[i].From, f.Rule[i].To)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}
