package lifecycle

import "github.com/goliatone/go-lifecycle/internal/runtimeconfig"

var (
	ErrSchedulingFeatureRequiresVersioning = runtimeconfig.ErrSchedulingFeatureRequiresVersioning
	ErrTranslationsFeatureRequired         = runtimeconfig.ErrTranslationsFeatureRequired
	ErrAdvancedCacheRequiresEnabledCache   = runtimeconfig.ErrAdvancedCacheRequiresEnabledCache
	ErrCommandsCronRequiresScheduling      = runtimeconfig.ErrCommandsCronRequiresScheduling
	ErrMassToolCeilingInvalid              = runtimeconfig.ErrMassToolCeilingInvalid
	ErrTranslationThresholdInvalid         = runtimeconfig.ErrTranslationThresholdInvalid
	ErrSweepBatchSizeInvalid               = runtimeconfig.ErrSweepBatchSizeInvalid
	ErrSweepWriteGroupInvalid              = runtimeconfig.ErrSweepWriteGroupInvalid
	ErrLoggingProviderRequired             = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown              = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid                 = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid                = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config            = runtimeconfig.Config
	StorageConfig     = runtimeconfig.StorageConfig
	CacheConfig       = runtimeconfig.CacheConfig
	MassToolConfig    = runtimeconfig.MassToolConfig
	TranslationConfig = runtimeconfig.TranslationConfig
	SweepConfig       = runtimeconfig.SweepConfig
	Features          = runtimeconfig.Features
	CommandsConfig    = runtimeconfig.CommandsConfig
	LoggingConfig     = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
