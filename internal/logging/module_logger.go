package logging

import (
	"context"

	"github.com/goliatone/go-lifecycle/pkg/interfaces"
)

const (
	rootModule        = "lifecycle"
	publishModule     = "lifecycle.publish"
	scheduleModule    = "lifecycle.schedule"
	masstoolModule    = "lifecycle.masstool"
	translationModule = "lifecycle.translation"
	versionModule     = "lifecycle.version"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(map[string]any{
			"module": module,
		})
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// PublishLogger returns the logger namespace reserved for the publishing coordinator.
func PublishLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, publishModule)
}

// ScheduleLogger returns the logger namespace reserved for the scheduling engine.
func ScheduleLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, scheduleModule)
}

// MasstoolLogger returns the logger namespace reserved for batch operations.
func MasstoolLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, masstoolModule)
}

// TranslationLogger returns the logger namespace reserved for translation orders.
func TranslationLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, translationModule)
}

// VersionLogger returns the logger namespace reserved for the version registry.
func VersionLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, versionModule)
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (noopLogger) WithContext(context.Context) interfaces.Logger { return noopLogger{} }
