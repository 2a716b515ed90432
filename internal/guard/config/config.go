package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variable names.
const EnvPrefix = "POPGUARD_"

// BrowserConfig selects the Chrome instance pages are guarded in.
type BrowserConfig struct {
	// Remote is the DevTools URL of a running browser. Empty launches one.
	Remote string `koanf:"remote" validate:"omitempty,devtools_url"`

	Headless bool `koanf:"headless"`

	// Stealth masks automation fingerprints on opened pages.
	Stealth bool `koanf:"stealth"`
}

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// InteractionWindow is how long a genuine input keeps script navigation
	// plausibly user-initiated.
	InteractionWindow time.Duration `koanf:"interaction_window" validate:"gte=1s,lte=10s"`

	// RulesetDir holds yaml/json/toml ruleset files merged over the built-in lists.
	RulesetDir string `koanf:"ruleset_dir"`

	BlockedLists []string `koanf:"blocked_lists" validate:"dive,required"`
	TrustedLists []string `koanf:"trusted_lists" validate:"dive,required"`

	// CacheSize bounds the verdict cache; 0 disables it.
	CacheSize int `koanf:"cache_size" validate:"gte=0"`

	BloomFPRate float64 `koanf:"bloom_fp_rate" validate:"gt=0,lt=1"`

	// StorePath is the bbolt file holding settings and counters.
	StorePath string `koanf:"store_path" validate:"required"`

	ScanInlineScripts bool `koanf:"scan_inline_scripts"`
	ScanStringTimers  bool `koanf:"scan_string_timers"`

	Browser BrowserConfig `koanf:"browser"`

	// Pages are opened and guarded by the run command.
	Pages []string `koanf:"pages" validate:"dive,url"`
}

// DEFAULT_APP_CONFIG defines the default application configuration.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:               "prod",
	LogLevel:          "info",
	InteractionWindow: 3 * time.Second,
	CacheSize:         1024,
	BloomFPRate:       0.01,
	StorePath:         "/var/lib/popguard/state.db",
	ScanInlineScripts: false,
	ScanStringTimers:  true,
	Browser: BrowserConfig{
		Headless: true,
	},
}

// validDevtoolsURL accepts ws, wss, http and https URLs with a host.
func validDevtoolsURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil || u.Host == "" {
		return false
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
		return true
	}
	return false
}

// envKey maps POPGUARD_BROWSER_REMOTE to browser.remote and POPGUARD_CACHE_SIZE
// to cache_size.
func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if rest, ok := strings.CutPrefix(key, "browser_"); ok {
		return "browser." + rest
	}
	return key
}

// envLoader loads environment variables with the prefix "POPGUARD_".
// Values holding spaces or commas become lists. It can be mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = envKey(key)
			value = strings.TrimSpace(value)

			if value == "" {
				return key, value
			}

			if strings.Contains(value, " ") || strings.Contains(value, ",") {
				parts := strings.FieldsFunc(value, func(r rune) bool {
					return r == ' ' || r == ','
				})
				return key, parts
			}

			return key, value
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG through the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the "devtools_url" tag.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("devtools_url", validDevtoolsURL)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *AppConfig) error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := registerValidation(validate); err != nil {
		return fmt.Errorf("error registering validation: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
