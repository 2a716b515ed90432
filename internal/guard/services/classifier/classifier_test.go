package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/popguard/internal/guard/domain"
	"github.com/haukened/popguard/internal/guard/repos/domainset/bloom"
	"github.com/haukened/popguard/internal/guard/repos/ruleset"
	"github.com/haukened/popguard/internal/guard/repos/verdictcache"
)

func testRuleset() domain.Ruleset {
	return domain.Ruleset{
		Trusted: []domain.DomainEntry{
			domain.MustDomainEntry("accounts.example.com", "test"),
			domain.MustDomainEntry("both.net", "test"),
		},
		Blocked: []domain.DomainEntry{
			domain.MustDomainEntry("example.com", "test"),
			domain.MustDomainEntry("both.net", "test"),
			domain.MustDomainEntry("popads.net", "test"),
		},
		Patterns: []domain.PatternRule{
			domain.MustPatternRule(`(?i)popunder`, "test"),
		},
	}
}

func newClassifier(t *testing.T, withCache bool) *Classifier {
	t.Helper()
	opts := Options{Ruleset: testRuleset(), FilterFactory: bloom.NewFactory(), FPRate: 0.01}
	if withCache {
		c, err := verdictcache.New(16)
		require.NoError(t, err)
		opts.Cache = c
	}
	return New(opts)
}

func TestClassify_DecisionOrder(t *testing.T) {
	tests := []struct {
		url  string
		want domain.Verdict
	}{
		{"https://accounts.example.com/login", domain.VerdictTrusted},
		{"https://x.accounts.example.com/popunder", domain.VerdictTrusted},
		{"https://example.com/", domain.VerdictBlocked},
		{"https://cdn.example.com/a.js", domain.VerdictBlocked},
		{"https://both.net/", domain.VerdictTrusted},
		{"https://sub.both.net/", domain.VerdictTrusted},
		{"https://popads.net/x", domain.VerdictBlocked},
		{"https://news.site.org/POPUNDER?id=1", domain.VerdictSuspicious},
		{"https://news.site.org/article", domain.VerdictNeutral},
		{"https://notexample.com/", domain.VerdictNeutral},
		{"HTTPS://EXAMPLE.COM./", domain.VerdictBlocked},
	}
	for _, withCache := range []bool{false, true} {
		c := newClassifier(t, withCache)
		for _, tt := range tests {
			t.Run(tt.url, func(t *testing.T) {
				assert.Equal(t, tt.want, c.Classify(tt.url))
			})
		}
	}
}

func TestClassify_UnparsableIsTrusted(t *testing.T) {
	c := newClassifier(t, false)
	for _, u := range []string{"", "::not a url", "/relative/popunder", "javascript:void(0)", "about:blank", "http://[::1"} {
		assert.Equal(t, domain.VerdictTrusted, c.Classify(u), u)
	}
}

func TestClassify_RecoverableHostIsNotFailOpen(t *testing.T) {
	tests := []struct {
		url  string
		want domain.Verdict
	}{
		{"https://popads.net/%", domain.VerdictBlocked},
		{"https://cdn.example.com/%zz", domain.VerdictBlocked},
		{"https://pop\tads.net/go", domain.VerdictBlocked},
		{"https://pop\r\nads.net/go", domain.VerdictBlocked},
		{"\x00 https://popads.net/ \x1f", domain.VerdictBlocked},
		{"https://popads.net\\go", domain.VerdictBlocked},
		{"\\\\popads.net\\x", domain.VerdictBlocked},
		{"https:///popads.net/", domain.VerdictBlocked},
		{"https://%70opads.net/", domain.VerdictBlocked},
		{"https://news.site.org/pop\tunder", domain.VerdictSuspicious},
		{"https://accounts.example.com/%", domain.VerdictTrusted},
		{"https://news.site.org/%", domain.VerdictNeutral},
	}
	for _, withCache := range []bool{false, true} {
		c := newClassifier(t, withCache)
		for _, tt := range tests {
			assert.Equal(t, tt.want, c.Classify(tt.url), "%q", tt.url)
		}
	}
}

func TestExplain_RecoverableHost(t *testing.T) {
	c := newClassifier(t, false)
	ex := c.Explain("https://pop\tads.net/%")
	assert.Equal(t, "popads.net", ex.Host)
	assert.Equal(t, domain.VerdictBlocked, ex.Verdict)
	assert.Equal(t, "popads.net", ex.Rule)
}

func TestClassify_Idempotent(t *testing.T) {
	c := newClassifier(t, true)
	u := "https://cdn.example.com/x"
	first := c.Classify(u)
	second := c.Classify(u)
	assert.Equal(t, first, second)
	st := c.CacheStats()
	assert.Equal(t, uint64(1), st.Hits)
	assert.Equal(t, uint64(1), st.Misses)
}

func TestClassify_NoPrefilter(t *testing.T) {
	c := New(Options{Ruleset: testRuleset()})
	assert.Equal(t, domain.VerdictBlocked, c.Classify("https://a.popads.net/"))
	assert.Equal(t, domain.VerdictTrusted, c.Classify("https://accounts.example.com/"))
	assert.Equal(t, verdictcache.Stats{}, c.CacheStats())
}

func TestClassifyHost(t *testing.T) {
	c := newClassifier(t, false)
	assert.Equal(t, domain.VerdictTrusted, c.ClassifyHost(""))
	assert.Equal(t, domain.VerdictTrusted, c.ClassifyHost("Accounts.Example.com."))
	assert.Equal(t, domain.VerdictBlocked, c.ClassifyHost("www.example.com"))
	assert.Equal(t, domain.VerdictNeutral, c.ClassifyHost("popunder.org"))
}

func TestExplain(t *testing.T) {
	c := newClassifier(t, false)

	ex := c.Explain("https://cdn.example.com/x")
	assert.Equal(t, domain.VerdictBlocked, ex.Verdict)
	assert.Equal(t, "example.com", ex.Rule)
	assert.Equal(t, "test", ex.Source)

	ex = c.Explain("https://both.net/")
	assert.Equal(t, domain.VerdictTrusted, ex.Verdict)
	assert.Equal(t, "both.net", ex.Rule)

	ex = c.Explain("https://site.org/popunder")
	assert.Equal(t, domain.VerdictSuspicious, ex.Verdict)
	assert.Equal(t, "(?i)popunder", ex.Rule)

	ex = c.Explain("not-a-url")
	assert.Equal(t, domain.VerdictTrusted, ex.Verdict)
	assert.Empty(t, ex.Rule)
}

func TestClassify_BuiltinRuleset(t *testing.T) {
	c := New(Options{Ruleset: ruleset.Default(), FilterFactory: bloom.NewFactory(), FPRate: 0.01})
	assert.Equal(t, domain.VerdictTrusted, c.Classify("https://accounts.google.com/o/oauth2/auth"))
	assert.Equal(t, domain.VerdictBlocked, c.Classify("https://c1.popads.net/pop.js"))
	assert.Equal(t, domain.VerdictSuspicious, c.Classify("https://unknown.site/exit-intent/offer"))
	assert.Equal(t, domain.VerdictNeutral, c.Classify("https://golang.org/doc"))
}
