package rules

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/c360studio/codeguardian/source"
)

// RuleSet is an ordered, deduplicated collection of rules and heuristics.
// It is immutable once built.
type RuleSet struct {
	rules      []Rule
	heuristics []Heuristic
}

// Rules returns every rule in declared order.
func (s *RuleSet) Rules() []Rule { return slices.Clone(s.rules) }

// Heuristics returns every heuristic in declared order.
func (s *RuleSet) Heuristics() []Heuristic { return slices.Clone(s.heuristics) }

// Len returns the number of rules.
func (s *RuleSet) Len() int { return len(s.rules) }

// For returns the rules that apply to lang, in declared order.
func (s *RuleSet) For(lang source.Language) []Rule {
	var out []Rule
	for _, r := range s.rules {
		if r.AppliesTo(lang) {
			out = append(out, r)
		}
	}
	return out
}

// HeuristicsFor returns the heuristics that apply to lang, in declared order.
func (s *RuleSet) HeuristicsFor(lang source.Language) []Heuristic {
	var out []Heuristic
	for _, h := range s.heuristics {
		if h.AppliesTo(lang) {
			out = append(out, h)
		}
	}
	return out
}

// Lookup returns the rule with the given ID.
func (s *RuleSet) Lookup(id string) (Rule, bool) {
	for _, r := range s.rules {
		if r.ID() == id {
			return r, true
		}
	}
	return nil, false
}

// Builder assembles a RuleSet. Rules keep the order in which they are added;
// adding an ID that is already present is ignored (first registration wins).
type Builder struct {
	rules      []Rule
	heuristics []Heuristic
	seen       map[string]bool
	disabled   map[string]bool
	only       map[string]bool
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		seen:     make(map[string]bool),
		disabled: make(map[string]bool),
	}
}

// Add appends rules.
func (b *Builder) Add(rules ...Rule) *Builder {
	for _, r := range rules {
		if b.seen[r.ID()] {
			continue
		}
		b.seen[r.ID()] = true
		b.rules = append(b.rules, r)
	}
	return b
}

// AddHeuristics appends heuristics.
func (b *Builder) AddHeuristics(hs ...Heuristic) *Builder {
	for _, h := range hs {
		if b.seen[h.ID()] {
			continue
		}
		b.seen[h.ID()] = true
		b.heuristics = append(b.heuristics, h)
	}
	return b
}

// AddSet appends everything in set.
func (b *Builder) AddSet(set *RuleSet) *Builder {
	return b.Add(set.rules...).AddHeuristics(set.heuristics...)
}

// Disable removes rules or heuristics by ID when the set is built.
func (b *Builder) Disable(ids ...string) *Builder {
	for _, id := range ids {
		b.disabled[id] = true
	}
	return b
}

// Only restricts the built set to the given rule or heuristic IDs.
// Calling Only with no IDs leaves the set unrestricted.
func (b *Builder) Only(ids ...string) *Builder {
	if len(ids) == 0 {
		return b
	}
	if b.only == nil {
		b.only = make(map[string]bool)
	}
	for _, id := range ids {
		b.only[id] = true
	}
	return b
}

// Build returns the RuleSet. It fails when Disable or Only name an ID that
// was never added.
func (b *Builder) Build() (*RuleSet, error) {
	var unknown []string
	for id := range b.disabled {
		if !b.seen[id] {
			unknown = append(unknown, id)
		}
	}
	for id := range b.only {
		if !b.seen[id] {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown rule ids: %s", strings.Join(unknown, ", "))
	}

	set := &RuleSet{}
	for _, r := range b.rules {
		if b.keep(r.ID()) {
			set.rules = append(set.rules, r)
		}
	}
	for _, h := range b.heuristics {
		if b.keep(h.ID()) {
			set.heuristics = append(set.heuristics, h)
		}
	}
	return set, nil
}

func (b *Builder) keep(id string) bool {
	if b.disabled[id] {
		return false
	}
	return b.only == nil || b.only[id]
}
