package ruleset

import (
	"bufio"
	"io"
	"net"
	"strings"

	logpkg "github.com/haukened/popguard/internal/guard/common/log"
	"github.com/haukened/popguard/internal/guard/domain"
)

// ParseList parses a newline-delimited domain list into DomainEntry values.
// Lines may be bare domains ("ads.example.com", "*.ads.example.com") or
// hosts-file lines ("0.0.0.0 ads.example.com tracker.example.com").
//
// Behavior:
// - Supports comments starting with '#' (inline or whole-line)
// - Strips a leading BOM and surrounding whitespace
// - Skips tokens that are not registrable domains (localhost, bare TLDs, emails)
// - De-duplicates by canonical name while preserving first-seen order
// - Each entry is attributed to the provided source
func ParseList(r io.Reader, source string, logger logpkg.Logger) ([]domain.DomainEntry, error) {
	scanner := bufio.NewScanner(r)

	seen := make(map[string]struct{})
	out := make([]domain.DomainEntry, 0, 256)
	logger.Debug(map[string]any{"source": source}, "parse_list_start")

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimPrefix(scanner.Text(), "\uFEFF")

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			logger.Debug(map[string]any{"line": lineNum}, "skip_comment")
			continue
		}
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}

		fields := strings.Fields(line)
		if len(fields) > 1 && net.ParseIP(fields[0]) != nil {
			// hosts-file line: ignore the address
			fields = fields[1:]
		}

		for _, raw := range fields {
			if strings.Contains(raw, "@") {
				logger.Debug(map[string]any{"line": lineNum, "raw": raw}, "skip_invalid_token")
				continue
			}
			e, err := domain.NewDomainEntry(raw, source)
			if err != nil {
				logger.Debug(map[string]any{"line": lineNum, "raw": raw, "error": err.Error()}, "skip_invalid_entry")
				continue
			}
			if _, ok := seen[e.Name]; ok {
				logger.Debug(map[string]any{"line": lineNum, "name": e.Name}, "skip_duplicate")
				continue
			}
			seen[e.Name] = struct{}{}
			out = append(out, e)
		}
	}

	if err := scanner.Err(); err != nil {
		logger.Debug(map[string]any{"source": source, "error": err.Error()}, "parse_list_scan_error")
		return nil, err
	}
	logger.Debug(map[string]any{"source": source, "count": len(out)}, "parse_list_done")
	return out, nil
}
