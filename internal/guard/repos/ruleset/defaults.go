package ruleset

import "github.com/haukened/popguard/internal/guard/domain"

// BuiltinSource tags entries that ship with the binary.
const BuiltinSource = "builtin"

var builtinTrusted = []string{
	"google.com",
	"youtube.com",
	"gmail.com",
	"facebook.com",
	"twitter.com",
	"linkedin.com",
	"github.com",
	"microsoft.com",
	"apple.com",
	"amazon.com",
	"netflix.com",
	"spotify.com",
	"reddit.com",
	"wikipedia.org",
	"openai.com",
	"anthropic.com",
	"cloudflare.com",
	"stackoverflow.com",
	"medium.com",
	"notion.so",
}

var builtinBlocked = []string{
	"popads.net",
	"popcash.net",
	"propellerads.com",
	"exoclick.com",
	"adnxs.com",
	"taboola.com",
	"outbrain.com",
	"mgid.com",
	"revcontent.com",
	"content.ad",
	"adsterra.com",
	"hilltopads.net",
	"trafficjunky.com",
	"juicyads.com",
	"clickadu.com",
	"ad-maven.com",
	"admaven.com",
	"pushame.com",
	"pushnami.com",
	"richpush.co",
	"onclickmax.com",
	"poperblocker.com",
	"adf.ly",
	"linkbucks.com",
	"shorte.st",
}

var builtinPatterns = []string{
	`(?i)popunder`,
	`(?i)clickunder`,
	`(?i)/adserv`,
	`(?i)/ads/`,
	`(?i)/popup/`,
	`(?i)exit[-_]?intent`,
	`(?i)interstitial`,
	`(?i)/click\?.*track`,
}

// Default returns the built-in ruleset. Each call returns fresh slices.
func Default() domain.Ruleset {
	rs := domain.Ruleset{
		Trusted:  make([]domain.DomainEntry, 0, len(builtinTrusted)),
		Blocked:  make([]domain.DomainEntry, 0, len(builtinBlocked)),
		Patterns: make([]domain.PatternRule, 0, len(builtinPatterns)),
	}
	for _, n := range builtinTrusted {
		rs.Trusted = append(rs.Trusted, domain.MustDomainEntry(n, BuiltinSource))
	}
	for _, n := range builtinBlocked {
		rs.Blocked = append(rs.Blocked, domain.MustDomainEntry(n, BuiltinSource))
	}
	for _, p := range builtinPatterns {
		rs.Patterns = append(rs.Patterns, domain.MustPatternRule(p, BuiltinSource))
	}
	return rs
}
