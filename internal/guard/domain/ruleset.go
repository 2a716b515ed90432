package domain

// Ruleset is the static policy handed to the classifier at construction time.
// Trusted and Blocked are meant to be disjoint; when a name appears in both,
// trust wins at decision time.
type Ruleset struct {
	Trusted  []DomainEntry
	Blocked  []DomainEntry
	Patterns []PatternRule
}

// Merge returns a new Ruleset holding r followed by other. Duplicate domain
// names (per set) and duplicate expressions keep their first occurrence.
func (r Ruleset) Merge(other Ruleset) Ruleset {
	return Ruleset{
		Trusted:  mergeEntries(r.Trusted, other.Trusted),
		Blocked:  mergeEntries(r.Blocked, other.Blocked),
		Patterns: mergePatterns(r.Patterns, other.Patterns),
	}
}

// Counts returns the size of each set.
func (r Ruleset) Counts() (trusted, blocked, patterns int) {
	return len(r.Trusted), len(r.Blocked), len(r.Patterns)
}

func mergeEntries(a, b []DomainEntry) []DomainEntry {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]DomainEntry, 0, len(a)+len(b))
	for _, list := range [][]DomainEntry{a, b} {
		for _, e := range list {
			if _, ok := seen[e.Name]; ok {
				continue
			}
			seen[e.Name] = struct{}{}
			out = append(out, e)
		}
	}
	return out
}

func mergePatterns(a, b []PatternRule) []PatternRule {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]PatternRule, 0, len(a)+len(b))
	for _, list := range [][]PatternRule{a, b} {
		for _, p := range list {
			if _, ok := seen[p.Expr]; ok {
				continue
			}
			seen[p.Expr] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
