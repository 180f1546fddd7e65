// Package pattern classifies log filenames with an ordered list of regex rules.
//
// Rules are tried in configuration order and the first rule whose regex
// matches the entire filename decides the tag and name of the file. Later
// rules are never consulted once one has matched, even if they would extract
// "better" metadata.
//
// Regexes use the regexp2 dialect (Perl/.NET style with look-arounds and
// backreferences) because rule files are commonly written against Python's
// re module. Each rule is matched with a timeout so a catastrophic pattern
// degrades to a non-match instead of stalling a discovery run.
//
// Group index policy:
//
//   - 1..n selects the capture group; 0 selects the whole filename.
//   - An index outside 0..n falls back to the filename stem (the name without
//     its final extension). Rule files in the wild rely on this to classify
//     files such as app.log with a rule written for richer names.
//   - A group that exists but did not take part in the match yields "".
package pattern

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

const matchTimeout = 250 * time.Millisecond

// Result is the metadata extracted from a matching filename.
type Result struct {
	Tag         string
	Name        string
	Description string
	RuleIndex   int
}

// CompileError reports a rule that could not be compiled. The rule stays in
// its Set but never matches.
type CompileError struct {
	Index int
	Rule  Rule
	Err   error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("rule %d (%q): %v", e.Index, e.Rule.Regex, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

var errEmptyRegex = errors.New("empty regex")

type compiled struct {
	rule   Rule
	re     *regexp2.Regexp
	groups int
}

// Set is an ordered, compiled list of rules. It is safe for concurrent use.
type Set struct {
	rules []compiled
}

// Compile prepares rules for matching. Rules with invalid regexes are kept as
// inert entries and reported in the returned errors, one *CompileError each.
func Compile(rules []Rule) (*Set, []error) {
	set := &Set{rules: make([]compiled, 0, len(rules))}
	var errs []error
	for i, rule := range rules {
		c := compiled{rule: rule}
		re, err := compileAnchored(rule.Regex)
		if err != nil {
			errs = append(errs, &CompileError{Index: i, Rule: rule, Err: err})
		} else {
			c.re = re
			c.groups = len(re.GetGroupNumbers()) - 1
		}
		set.rules = append(set.rules, c)
	}
	return set, errs
}

// MustCompile is Compile for rule lists known to be valid, such as defaults.
func MustCompile(rules []Rule) *Set {
	set, errs := Compile(rules)
	if len(errs) > 0 {
		panic(errors.Join(errs...))
	}
	return set
}

func compileAnchored(src string) (*regexp2.Regexp, error) {
	if strings.TrimSpace(src) == "" {
		return nil, errEmptyRegex
	}
	// Validate the rule on its own first so errors point at the user's text.
	if _, err := regexp2.Compile(src, regexp2.None); err != nil {
		return nil, err
	}
	re, err := regexp2.Compile(`\A(?:`+src+`)\z`, regexp2.None)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = matchTimeout
	return re, nil
}

// Len returns the number of rules, inert ones included.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Match classifies filename using the first matching rule.
func (s *Set) Match(filename string) (Result, bool) {
	if s == nil {
		return Result{}, false
	}
	stem := Stem(filename)
	for i, c := range s.rules {
		if c.re == nil {
			continue
		}
		m, err := c.re.FindStringMatch(filename)
		if err != nil || m == nil {
			continue
		}
		return Result{
			Tag:         c.group(m, c.rule.TagGroup, stem),
			Name:        c.group(m, c.rule.NameGroup, stem),
			Description: c.rule.Description,
			RuleIndex:   i,
		}, true
	}
	return Result{}, false
}

func (c compiled) group(m *regexp2.Match, idx int, stem string) string {
	if idx < 0 || idx > c.groups {
		return stem
	}
	g := m.GroupByNumber(idx)
	if g == nil {
		return stem
	}
	return g.String()
}

// Stem returns name without its final extension. Dotfiles such as ".log"
// are their own stem.
func Stem(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if stem == "" {
		return name
	}
	return stem
}
