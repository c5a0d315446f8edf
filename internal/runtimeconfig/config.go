package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrSchedulingFeatureRequiresVersioning ensures scheduled transitions stay behind the versioning flag.
var ErrSchedulingFeatureRequiresVersioning = errors.New("lifecycle config: scheduling feature requires versioning to be enabled")

// ErrTranslationsFeatureRequired indicates inconsistent translation configuration.
var ErrTranslationsFeatureRequired = errors.New("lifecycle config: translations feature must be enabled to configure translation orders")

// ErrAdvancedCacheRequiresEnabledCache ensures the cached repository layer only builds when cache is enabled.
var ErrAdvancedCacheRequiresEnabledCache = errors.New("lifecycle config: advanced cache feature requires cache to be enabled")

// ErrCommandsCronRequiresScheduling ensures automatic cron wiring only runs when scheduling is enabled.
var ErrCommandsCronRequiresScheduling = errors.New("lifecycle config: command cron auto-registration requires scheduling to be enabled")
var ErrMassToolCeilingInvalid = errors.New("lifecycle config: mass tool ceiling must be positive")
var ErrTranslationThresholdInvalid = errors.New("lifecycle config: translation error threshold must be positive")
var ErrSweepBatchSizeInvalid = errors.New("lifecycle config: sweep batch size must be positive")
var ErrSweepWriteGroupInvalid = errors.New("lifecycle config: sweep write group size must be positive")
var ErrLoggingProviderRequired = errors.New("lifecycle config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("lifecycle config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("lifecycle config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("lifecycle config: logging format is invalid")

// Config aggregates feature flags and adapter bindings for the lifecycle module.
// Fields intentionally use simple types so host applications can extend them later.
type Config struct {
	Enabled         bool
	DefaultLanguage string
	Storage         StorageConfig
	Cache           CacheConfig
	MassTool        MassToolConfig
	Translation     TranslationConfig
	Sweep           SweepConfig
	Features        Features
	Commands        CommandsConfig
	Logging         LoggingConfig
}

// StorageConfig lists identifiers for storage-related dependencies.
type StorageConfig struct {
	Provider string
}

// CacheConfig captures read cache behaviour toggles.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// MassToolConfig bounds bulk operations.
type MassToolConfig struct {
	// MaxLanguageVersions caps how many language versions a single bulk
	// request may target.
	MaxLanguageVersions int
}

// TranslationConfig tunes the translation order lifecycle.
type TranslationConfig struct {
	Enabled bool
	// ErrorThreshold is how many consecutive vendor errors escalate an order
	// to fail_for_investigation.
	ErrorThreshold int
}

// SweepConfig controls the due-transition sweep.
type SweepConfig struct {
	BatchSize      int
	WriteGroupSize int
	// CronSpec drives the sweeper binary; empty keeps sweeps manual.
	CronSpec string
}

// Features toggles module functionality.
type Features struct {
	Versioning    bool
	Scheduling    bool
	Translations  bool
	MassTool      bool
	History       bool
	AdvancedCache bool
	Logger        bool
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// CommandsConfig captures optional command-layer behaviour.
type CommandsConfig struct {
	Enabled                bool
	AutoRegisterDispatcher bool
	AutoRegisterCron       bool
}

// DefaultConfig returns opinionated defaults for a full-featured deployment.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		DefaultLanguage: "fi",
		Storage: StorageConfig{
			Provider: "bun",
		},
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: time.Minute,
		},
		MassTool: MassToolConfig{
			MaxLanguageVersions: 500,
		},
		Translation: TranslationConfig{
			Enabled:        true,
			ErrorThreshold: 3,
		},
		Sweep: SweepConfig{
			BatchSize:      200,
			WriteGroupSize: 25,
		},
		Features: Features{
			Versioning:   true,
			Scheduling:   true,
			Translations: true,
			MassTool:     true,
			History:      true,
		},
		Commands: CommandsConfig{},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
			Format:   "",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if cfg.Features.Scheduling && !cfg.Features.Versioning {
		return ErrSchedulingFeatureRequiresVersioning
	}
	if cfg.Translation.Enabled && !cfg.Features.Translations {
		return ErrTranslationsFeatureRequired
	}
	if cfg.Features.MassTool && cfg.MassTool.MaxLanguageVersions <= 0 {
		return ErrMassToolCeilingInvalid
	}
	if cfg.Features.Translations && cfg.Translation.ErrorThreshold <= 0 {
		return ErrTranslationThresholdInvalid
	}
	if cfg.Sweep.BatchSize <= 0 {
		return ErrSweepBatchSizeInvalid
	}
	if cfg.Sweep.WriteGroupSize <= 0 || cfg.Sweep.WriteGroupSize > cfg.Sweep.BatchSize {
		return ErrSweepWriteGroupInvalid
	}
	if cfg.Commands.AutoRegisterCron && !cfg.Features.Scheduling {
		return ErrCommandsCronRequiresScheduling
	}
	if cfg.Features.AdvancedCache && !cfg.Cache.Enabled {
		return ErrAdvancedCacheRequiresEnabledCache
	}
	if cfg.Features.Logger {
		provider := normalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
