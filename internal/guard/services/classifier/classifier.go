// Package classifier maps URLs to verdicts using the Trusted and Blocked
// domain sets and the suspicious pattern rules of a Ruleset.
//
// Decision order, first match wins:
//
//	no host       -> trusted
//	trusted entry -> trusted
//	blocked entry -> blocked
//	pattern match -> suspicious
//	otherwise     -> neutral
package classifier

import (
	"github.com/haukened/popguard/internal/guard/common/log"
	"github.com/haukened/popguard/internal/guard/common/utils"
	"github.com/haukened/popguard/internal/guard/domain"
	"github.com/haukened/popguard/internal/guard/repos/domainset"
	"github.com/haukened/popguard/internal/guard/repos/verdictcache"
)

// Classifier is safe for concurrent use once constructed.
type Classifier struct {
	trusted  domainset.Set
	blocked  domainset.Set
	patterns []domain.PatternRule
	cache    verdictcache.Cache
	logger   log.Logger
}

type Options struct {
	Ruleset domain.Ruleset
	// FilterFactory builds the per-set prefilter; nil disables it.
	FilterFactory domainset.FilterFactory
	FPRate        float64
	// Cache memoises verdicts by URL; nil disables caching.
	Cache  verdictcache.Cache
	Logger log.Logger
}

func New(opts Options) *Classifier {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	cache := opts.Cache
	if cache == nil {
		cache, _ = verdictcache.New(0)
	}
	patterns := make([]domain.PatternRule, len(opts.Ruleset.Patterns))
	copy(patterns, opts.Ruleset.Patterns)
	return &Classifier{
		trusted:  domainset.New(opts.Ruleset.Trusted, opts.FilterFactory, opts.FPRate),
		blocked:  domainset.New(opts.Ruleset.Blocked, opts.FilterFactory, opts.FPRate),
		patterns: patterns,
		cache:    cache,
		logger:   logger,
	}
}

// Classify returns the verdict for rawURL. It never fails: a URL without a
// resolvable host is trusted.
func (c *Classifier) Classify(rawURL string) domain.Verdict {
	if v, ok := c.cache.Get(rawURL); ok {
		return v
	}
	v := c.classify(rawURL)
	c.cache.Put(rawURL, v)
	return v
}

func (c *Classifier) classify(rawURL string) domain.Verdict {
	rawURL = utils.NormalizeURL(rawURL)
	host := utils.HostFromURL(rawURL)
	if host == "" {
		return domain.VerdictTrusted
	}
	if v, ok := c.hostVerdict(host); ok {
		return v
	}
	for _, p := range c.patterns {
		if p.MatchString(rawURL) {
			c.logger.Debug(map[string]any{"url": rawURL, "pattern": p.Expr, "source": p.Source}, "pattern_matched")
			return domain.VerdictSuspicious
		}
	}
	return domain.VerdictNeutral
}

// ClassifyHost applies only the domain sets to an already-extracted host.
// Patterns need the full URL and are not consulted.
func (c *Classifier) ClassifyHost(host string) domain.Verdict {
	host = utils.CanonicalHost(host)
	if host == "" {
		return domain.VerdictTrusted
	}
	if v, ok := c.hostVerdict(host); ok {
		return v
	}
	return domain.VerdictNeutral
}

func (c *Classifier) hostVerdict(host string) (domain.Verdict, bool) {
	if _, ok := c.trusted.Match(host); ok {
		return domain.VerdictTrusted, true
	}
	if e, ok := c.blocked.Match(host); ok {
		c.logger.Debug(map[string]any{"host": host, "entry": e.Name, "source": e.Source}, "blocked_entry_matched")
		return domain.VerdictBlocked, true
	}
	return domain.VerdictNeutral, false
}

// Explanation describes how a verdict was reached.
type Explanation struct {
	URL     string
	Host    string
	Verdict domain.Verdict
	// Rule is the matched entry name or pattern expression; empty for
	// neutral and hostless URLs.
	Rule   string
	Source string
}

// Explain is Classify with the matching rule attached. It bypasses the cache.
func (c *Classifier) Explain(rawURL string) Explanation {
	ex := Explanation{URL: rawURL, Host: utils.HostFromURL(rawURL)}
	if ex.Host == "" {
		ex.Verdict = domain.VerdictTrusted
		return ex
	}
	if e, ok := c.trusted.Match(ex.Host); ok {
		ex.Verdict, ex.Rule, ex.Source = domain.VerdictTrusted, e.Name, e.Source
		return ex
	}
	if e, ok := c.blocked.Match(ex.Host); ok {
		ex.Verdict, ex.Rule, ex.Source = domain.VerdictBlocked, e.Name, e.Source
		return ex
	}
	for _, p := range c.patterns {
		if p.MatchString(utils.NormalizeURL(rawURL)) {
			ex.Verdict, ex.Rule, ex.Source = domain.VerdictSuspicious, p.Expr, p.Source
			return ex
		}
	}
	ex.Verdict = domain.VerdictNeutral
	return ex
}

// CacheStats exposes the verdict cache counters.
func (c *Classifier) CacheStats() verdictcache.Stats { return c.cache.Stats() }
