// Package ruleset assembles the classifier policy: the built-in lists, optional
// ruleset files (YAML/JSON/TOML) and optional plain or hosts-style domain lists.
// A ruleset is loaded once at startup and never mutated afterwards.
package ruleset

import (
	"fmt"
	"os"

	logpkg "github.com/haukened/popguard/internal/guard/common/log"
	"github.com/haukened/popguard/internal/guard/domain"
)

// Options selects the sources merged over the built-in defaults.
type Options struct {
	// SkipDefaults starts from an empty ruleset instead of the built-in lists.
	SkipDefaults bool
	// Directory holds ruleset files; empty disables directory loading.
	Directory string
	// TrustedLists and BlockedLists are plain/hosts list files.
	TrustedLists []string
	BlockedLists []string
}

// Load builds the ruleset described by opts.
func Load(opts Options, logger logpkg.Logger) (domain.Ruleset, error) {
	if logger == nil {
		logger = logpkg.NewNoopLogger()
	}

	var rs domain.Ruleset
	if !opts.SkipDefaults {
		rs = Default()
	}

	if opts.Directory != "" {
		part, err := LoadDirectory(opts.Directory)
		if err != nil {
			return domain.Ruleset{}, fmt.Errorf("failed to load ruleset directory: %w", err)
		}
		rs = rs.Merge(part)
	}

	for _, path := range opts.TrustedLists {
		list, err := loadList(path, logger)
		if err != nil {
			return domain.Ruleset{}, err
		}
		rs = rs.Merge(domain.Ruleset{Trusted: list})
	}
	for _, path := range opts.BlockedLists {
		list, err := loadList(path, logger)
		if err != nil {
			return domain.Ruleset{}, err
		}
		rs = rs.Merge(domain.Ruleset{Blocked: list})
	}

	trusted, blocked, patterns := rs.Counts()
	logger.Info(map[string]any{
		"trusted":  trusted,
		"blocked":  blocked,
		"patterns": patterns,
	}, "Ruleset loaded")
	return rs, nil
}

func loadList(path string, logger logpkg.Logger) ([]domain.DomainEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open list %s: %w", path, err)
	}
	defer f.Close()
	list, err := ParseList(f, path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to parse list %s: %w", path, err)
	}
	return list, nil
}
