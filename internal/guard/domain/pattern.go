package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidPattern is returned when a pattern rule does not compile.
var ErrInvalidPattern = errors.New("invalid pattern rule")

// PatternRule flags a full URL string as suspicious when the expression matches.
// Expressions use RE2 syntax; prefix with (?i) for case-insensitive matching.
type PatternRule struct {
	Expr   string
	Source string
	re     *regexp.Regexp
}

// NewPatternRule compiles expr.
func NewPatternRule(expr, source string) (PatternRule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return PatternRule{}, fmt.Errorf("%w: expression must not be empty", ErrInvalidPattern)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return PatternRule{}, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, expr, err)
	}
	return PatternRule{Expr: expr, Source: strings.TrimSpace(source), re: re}, nil
}

// MustPatternRule is NewPatternRule for static tables; it panics on error.
func MustPatternRule(expr, source string) PatternRule {
	p, err := NewPatternRule(expr, source)
	if err != nil {
		panic(err)
	}
	return p
}

// MatchString reports whether the rule matches the URL text. A zero-value rule
// never matches.
func (p PatternRule) MatchString(rawURL string) bool {
	if p.re == nil || rawURL == "" {
		return false
	}
	return p.re.MatchString(rawURL)
}

// String returns the source expression.
func (p PatternRule) String() string { return p.Expr }
