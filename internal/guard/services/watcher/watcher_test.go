package watcher

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/haukened/popguard/internal/guard/common/utils"
	"github.com/haukened/popguard/internal/guard/domain"
	"github.com/haukened/popguard/internal/guard/services/classifier"
	"github.com/haukened/popguard/internal/guard/services/gate"
)

type baseResolver string

func (b baseResolver) Resolve(ref string) string { return utils.ResolveURL(string(b), ref) }

type MockReporter struct {
	mock.Mock
}

func (m *MockReporter) Report(category, detail string) {
	m.Called(category, detail)
}

type removalLog struct {
	removed []*domain.Element
	fail    bool
}

func (r *removalLog) Remove(el *domain.Element) error {
	if r.fail {
		return errors.New("node gone")
	}
	r.removed = append(r.removed, el)
	return nil
}

type fixture struct {
	w        *Watcher
	gate     *gate.Gate
	reporter *MockReporter
	remover  *removalLog
	root     *domain.Element
}

func newFixture(t *testing.T, scanInline bool) *fixture {
	t.Helper()
	rs := domain.Ruleset{
		Trusted:  []domain.DomainEntry{domain.MustDomainEntry("trusted.com", "test")},
		Blocked:  []domain.DomainEntry{domain.MustDomainEntry("popads.net", "test")},
		Patterns: []domain.PatternRule{domain.MustPatternRule(`(?i)/ads/`, "test")},
	}
	f := &fixture{
		gate:     gate.New(nil),
		reporter: &MockReporter{},
		remover:  &removalLog{},
		root:     domain.NewElement("html"),
	}
	f.w = New(Options{
		Classifier:        classifier.New(classifier.Options{Ruleset: rs}),
		Gate:              f.gate,
		Reporter:          f.reporter,
		Resolver:          baseResolver("https://news.site.org/a/page.html"),
		Remover:           f.remover,
		ScanInlineScripts: scanInline,
	})
	require.True(t, f.w.Attach(f.root))
	return f
}

func (f *fixture) insert(nodes ...*domain.Element) int {
	f.root.Append(nodes...)
	return f.w.HandleBatch(nodes)
}

func TestHandleBatch_HiddenIframeWithBlockedSource(t *testing.T) {
	f := newFixture(t, false)
	f.reporter.On("Report", domain.CategoryIframeAd, "https://popads.net/frame").Once()

	iframe := domain.NewElement("iframe", "src", "https://popads.net/frame", "width", "0", "height", "0")
	assert.Equal(t, 1, f.insert(iframe))
	assert.Equal(t, []*domain.Element{iframe}, f.remover.removed)
	assert.Nil(t, iframe.Parent)
	assert.Empty(t, f.root.Children)
	f.reporter.AssertExpectations(t)
}

func TestHandleBatch_ZeroSizeIframeWithoutSourceKept(t *testing.T) {
	f := newFixture(t, false)
	iframe := domain.NewElement("iframe", "width", "0", "height", "0")
	assert.Equal(t, 0, f.insert(iframe))
	assert.Empty(t, f.remover.removed)
	f.reporter.AssertNotCalled(t, "Report", mock.Anything, mock.Anything)
}

func TestHandleBatch_HiddenIframeVariants(t *testing.T) {
	tests := []struct {
		name   string
		iframe *domain.Element
		hidden bool
	}{
		{"width attr", domain.NewElement("iframe", "src", "https://cdn.example.org/t", "width", "0"), true},
		{"style height", domain.NewElement("iframe", "src", "https://cdn.example.org/t", "style", "height: 0px"), true},
		{"display none", domain.NewElement("iframe", "src", "https://cdn.example.org/t", "style", "display:none"), true},
		{"visibility hidden", domain.NewElement("iframe", "src", "https://cdn.example.org/t", "style", "visibility: hidden"), true},
		{"zero box", func() *domain.Element {
			el := domain.NewElement("iframe", "src", "https://cdn.example.org/t")
			el.Box = &domain.Box{}
			return el
		}(), true},
		{"visible", domain.NewElement("iframe", "src", "https://cdn.example.org/t", "width", "300", "height", "250"), false},
		{"half sized box", func() *domain.Element {
			el := domain.NewElement("iframe", "src", "https://cdn.example.org/t")
			el.Box = &domain.Box{Width: 0, Height: 20}
			return el
		}(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			if tt.hidden {
				f.reporter.On("Report", domain.CategoryIframeHidden, "https://cdn.example.org/t").Once()
			}
			got := f.insert(tt.iframe)
			if tt.hidden {
				assert.Equal(t, 1, got)
			} else {
				assert.Equal(t, 0, got)
			}
			f.reporter.AssertExpectations(t)
		})
	}
}

func TestHandleBatch_NestedDescendants(t *testing.T) {
	f := newFixture(t, false)
	f.reporter.On("Report", domain.CategoryScriptAd, "https://c.popads.net/pop.js").Once()
	f.reporter.On("Report", domain.CategoryIframeAd, "https://news.site.org/ads/banner").Once()

	script := domain.NewElement("script", "src", "https://c.popads.net/pop.js")
	iframe := domain.NewElement("iframe", "src", "/ads/banner")
	keep := domain.NewElement("script", "src", "https://trusted.com/ads/sdk.js")
	wrapper := domain.NewElement("div").Append(
		domain.NewElement("section").Append(script),
		domain.NewElement("span").Append(iframe),
		keep,
	)
	assert.Equal(t, 2, f.insert(wrapper))
	assert.ElementsMatch(t, []*domain.Element{script, iframe}, f.remover.removed)
	assert.Equal(t, wrapper, keep.Parent)
	assert.Equal(t, 2, f.w.Removed())
	f.reporter.AssertExpectations(t)
}

func TestHandleBatch_InlineScripts(t *testing.T) {
	inline := func() *domain.Element {
		el := domain.NewElement("script")
		el.Text = "setTimeout(function(){ window.open('https://x.example') }, 10)"
		return el
	}

	f := newFixture(t, false)
	assert.Equal(t, 0, f.insert(inline()))

	f = newFixture(t, true)
	f.reporter.On("Report", domain.CategoryScriptInline, domain.InlineScriptDetail).Once()
	assert.Equal(t, 1, f.insert(inline()))
	benign := domain.NewElement("script")
	benign.Text = "console.log('ok')"
	assert.Equal(t, 0, f.insert(benign))
	f.reporter.AssertExpectations(t)
}

func TestHandleBatch_MetaRefresh(t *testing.T) {
	f := newFixture(t, false)
	f.reporter.On("Report", domain.CategoryMetaRefresh, "https://popads.net/land").Once()
	assert.Equal(t, 1, f.insert(domain.NewElement("meta", "http-equiv", "Refresh", "content", "0; url=https://popads.net/land")))
	assert.Equal(t, 0, f.insert(domain.NewElement("meta", "http-equiv", "refresh", "content", "30")))
	assert.Equal(t, 0, f.insert(domain.NewElement("meta", "name", "viewport", "content", "url=https://popads.net/")))
	f.reporter.AssertExpectations(t)
}

func TestHandleBatch_IgnoredWhenDisabled(t *testing.T) {
	f := newFixture(t, false)
	f.gate.Set(false)
	assert.Equal(t, 0, f.insert(domain.NewElement("script", "src", "https://popads.net/x.js")))
	f.reporter.AssertNotCalled(t, "Report", mock.Anything, mock.Anything)
}

func TestHandleBatch_RemovalFailureNotReported(t *testing.T) {
	f := newFixture(t, false)
	f.remover.fail = true
	script := domain.NewElement("script", "src", "https://popads.net/x.js")
	assert.Equal(t, 0, f.insert(script))
	assert.Equal(t, f.root, script.Parent)
	f.reporter.AssertNotCalled(t, "Report", mock.Anything, mock.Anything)
}

func TestAttach_MissingRootNeverRetries(t *testing.T) {
	rep := &MockReporter{}
	w := New(Options{Classifier: classifier.New(classifier.Options{}), Reporter: rep})
	assert.False(t, w.Attach(nil))
	assert.False(t, w.Attach(domain.NewElement("html")))
	assert.False(t, w.Attached())
	assert.Equal(t, 0, w.HandleBatch([]*domain.Element{domain.NewElement("iframe", "src", "x", "width", "0")}))
	rep.AssertNotCalled(t, "Report", mock.Anything, mock.Anything)
}

func TestSweepMetaRefresh(t *testing.T) {
	f := newFixture(t, false)
	f.reporter.On("Report", domain.CategoryMetaRefresh, "https://news.site.org/ads/next").Once()
	head := domain.NewElement("head").Append(
		domain.NewElement("meta", "http-equiv", "refresh", "content", "5;url='/ads/next'"),
		domain.NewElement("meta", "http-equiv", "refresh", "content", "5;url=/a/next.html"),
		domain.NewElement("script", "src", "https://popads.net/x.js"),
	)
	f.root.Append(head)
	assert.Equal(t, 1, f.w.SweepMetaRefresh(f.root))
	assert.Len(t, head.Children, 2)
	assert.Equal(t, 0, f.w.SweepMetaRefresh(nil))
	f.reporter.AssertExpectations(t)
}
