package lifecycle

import (
	"github.com/goliatone/go-lifecycle/internal/di"
	"github.com/goliatone/go-lifecycle/internal/history"
	"github.com/goliatone/go-lifecycle/internal/lock"
	"github.com/goliatone/go-lifecycle/internal/masstool"
	"github.com/goliatone/go-lifecycle/internal/publish"
	"github.com/goliatone/go-lifecycle/internal/sweep"
	"github.com/goliatone/go-lifecycle/internal/translation"
	"github.com/goliatone/go-lifecycle/internal/version"
	"github.com/goliatone/go-lifecycle/pkg/interfaces"
)

// Registry exports the version registry contract for consumers of the module.
type Registry = version.Registry

// Coordinator exports the publishing coordinator contract.
type Coordinator = publish.Coordinator

// MassToolService exports the bulk operation contract.
type MassToolService = masstool.Service

// TranslationService exports the translation order contract.
type TranslationService = translation.Service

// SweepEngine exports the due-transition engine.
type SweepEngine = *sweep.Engine

// LockManager exports the entity lock manager.
type LockManager = *lock.Manager

// HistoryRecorder exports the audit trail contract.
type HistoryRecorder = history.Recorder

// Module is the top level lifecycle runtime facade.
type Module struct {
	container *di.Container
}

// New constructs a lifecycle module using the provided configuration and
// optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Versions returns the version registry.
func (m *Module) Versions() Registry {
	return m.container.Registry()
}

// Publishing returns the publishing coordinator.
func (m *Module) Publishing() Coordinator {
	return m.container.Coordinator()
}

// MassTool returns the bulk operation service, nil when the feature is off.
func (m *Module) MassTool() MassToolService {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.MassTool()
}

// Translations returns the translation order service, nil when the feature is off.
func (m *Module) Translations() TranslationService {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.TranslationService()
}

// Sweeper returns the due-transition engine, nil when scheduling is off.
func (m *Module) Sweeper() SweepEngine {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Sweeper()
}

// Locks returns the entity lock manager.
func (m *Module) Locks() LockManager {
	return m.container.LockManager()
}

// History returns the audit recorder, nil when the feature is off.
func (m *Module) History() HistoryRecorder {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.History()
}

// Scheduler returns the job queue used for scheduled transitions.
func (m *Module) Scheduler() interfaces.Scheduler {
	return m.container.Scheduler()
}

// TranslationsEnabled reports whether translation orders are globally enabled.
func (m *Module) TranslationsEnabled() bool {
	if m == nil || m.container == nil {
		return false
	}
	return m.container.Config.Features.Translations && m.container.Config.Translation.Enabled
}
