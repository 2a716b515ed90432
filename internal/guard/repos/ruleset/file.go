package ruleset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"

	"github.com/haukened/popguard/internal/guard/domain"
)

// fileRuleset is the on-disk shape of a ruleset file:
//
//	trusted:  [accounts.example.com]
//	blocked:  [ads.example.net, "*.popunder.example"]
//	patterns: ['(?i)/promo/redirect']
type fileRuleset struct {
	Trusted  []string `koanf:"trusted" validate:"dive,required"`
	Blocked  []string `koanf:"blocked" validate:"dive,required"`
	Patterns []string `koanf:"patterns" validate:"dive,required"`
}

// parserFor picks a koanf parser by file extension; nil means unsupported.
func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return json.Parser()
	case ".toml":
		return toml.Parser()
	default:
		return nil
	}
}

// LoadFile parses a single YAML, JSON or TOML ruleset file. Unlike plain
// lists, any invalid entry fails the whole file.
func LoadFile(path string) (domain.Ruleset, error) {
	parser := parserFor(path)
	if parser == nil {
		return domain.Ruleset{}, fmt.Errorf("unsupported ruleset file type: %s", path)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return domain.Ruleset{}, fmt.Errorf("failed to load ruleset file %s: %w", path, err)
	}

	var raw fileRuleset
	if err := k.Unmarshal("", &raw); err != nil {
		return domain.Ruleset{}, fmt.Errorf("failed to decode ruleset file %s: %w", path, err)
	}
	if err := validator.New().Struct(&raw); err != nil {
		return domain.Ruleset{}, fmt.Errorf("invalid ruleset file %s: %w", path, err)
	}

	var rs domain.Ruleset
	for _, n := range raw.Trusted {
		e, err := domain.NewDomainEntry(n, path)
		if err != nil {
			return domain.Ruleset{}, fmt.Errorf("trusted entry in %s: %w", path, err)
		}
		rs.Trusted = append(rs.Trusted, e)
	}
	for _, n := range raw.Blocked {
		e, err := domain.NewDomainEntry(n, path)
		if err != nil {
			return domain.Ruleset{}, fmt.Errorf("blocked entry in %s: %w", path, err)
		}
		rs.Blocked = append(rs.Blocked, e)
	}
	for _, expr := range raw.Patterns {
		p, err := domain.NewPatternRule(expr, path)
		if err != nil {
			return domain.Ruleset{}, fmt.Errorf("pattern in %s: %w", path, err)
		}
		rs.Patterns = append(rs.Patterns, p)
	}
	return rs, nil
}

// LoadDirectory walks dir in lexical order and merges every supported ruleset
// file. Files with other extensions are ignored.
func LoadDirectory(dir string) (domain.Ruleset, error) {
	var rs domain.Ruleset
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if parserFor(path) == nil {
			return nil
		}
		part, err := LoadFile(path)
		if err != nil {
			return err
		}
		rs = rs.Merge(part)
		return nil
	})
	if err != nil {
		return domain.Ruleset{}, err
	}
	return rs, nil
}
