package di

import (
	"strings"
	"time"

	"github.com/goliatone/go-lifecycle/internal/history"
	"github.com/goliatone/go-lifecycle/internal/lock"
	"github.com/goliatone/go-lifecycle/internal/logging"
	"github.com/goliatone/go-lifecycle/internal/logging/console"
	"github.com/goliatone/go-lifecycle/internal/logging/gologger"
	"github.com/goliatone/go-lifecycle/internal/masstool"
	"github.com/goliatone/go-lifecycle/internal/publish"
	"github.com/goliatone/go-lifecycle/internal/runtimeconfig"
	"github.com/goliatone/go-lifecycle/internal/schedule"
	"github.com/goliatone/go-lifecycle/internal/sweep"
	"github.com/goliatone/go-lifecycle/internal/translation"
	"github.com/goliatone/go-lifecycle/internal/version"
	"github.com/goliatone/go-lifecycle/pkg/interfaces"
	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Container wires module dependencies. Repositories default to in-memory
// implementations until a bun DB is supplied.
type Container struct {
	Config runtimeconfig.Config

	bunDB          *bun.DB
	cacheService   repocache.CacheService
	keySerializer  repocache.KeySerializer
	loggerProvider interfaces.LoggerProvider
	scheduler      interfaces.Scheduler
	vendor         interfaces.TranslationVendor
	validator      interfaces.EntityValidator
	clock          func() time.Time
	idGenerator    func() uuid.UUID

	roots       version.RootRepository
	versions    version.VersionRepository
	connections version.ConnectionRepository
	lockRepo    lock.Repository
	orders      translation.OrderRepository
	recorder    history.Recorder

	registry       version.Registry
	lockManager    *lock.Manager
	coordinator    publish.Coordinator
	massTool       masstool.Service
	translationSvc translation.Service
	sweeper        *sweep.Engine
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithBunDB binds repositories to the supplied bun instance.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache enables cached reads on repositories that support it.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithLoggerProvider overrides the logging provider built from config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithScheduler overrides the default in-memory scheduler.
func WithScheduler(scheduler interfaces.Scheduler) Option {
	return func(c *Container) {
		c.scheduler = scheduler
	}
}

// WithTranslationVendor installs the outbound translation transport.
func WithTranslationVendor(vendor interfaces.TranslationVendor) Option {
	return func(c *Container) {
		c.vendor = vendor
	}
}

// WithValidator installs the pre-publish entity validator.
func WithValidator(validator interfaces.EntityValidator) Option {
	return func(c *Container) {
		c.validator = validator
	}
}

// WithClock overrides time.Now for all services, used in tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithIDGenerator overrides uuid.New for all services.
func WithIDGenerator(generator func() uuid.UUID) Option {
	return func(c *Container) {
		c.idGenerator = generator
	}
}

// WithHistoryRecorder overrides the default history recorder.
func WithHistoryRecorder(recorder history.Recorder) Option {
	return func(c *Container) {
		c.recorder = recorder
	}
}

// NewContainer validates the configuration and wires every enabled service.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		Config: cfg,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.configureLogging(); err != nil {
		return nil, err
	}
	c.configureRepositories()
	c.configureServices()

	return c, nil
}

func (c *Container) configureLogging() error {
	if c.loggerProvider != nil {
		return nil
	}
	if !c.Config.Features.Logger {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(c.Config.Logging.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     c.Config.Logging.Level,
			Format:    c.Config.Logging.Format,
			AddSource: c.Config.Logging.AddSource,
			Focus:     c.Config.Logging.Focus,
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	default:
		level := consoleLevel(c.Config.Logging.Level)
		c.loggerProvider = console.NewProvider(console.Options{MinLevel: &level})
	}
	return nil
}

func consoleLevel(level string) console.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return console.LevelTrace
	case "debug":
		return console.LevelDebug
	case "warn", "warning":
		return console.LevelWarn
	case "error":
		return console.LevelError
	case "fatal":
		return console.LevelFatal
	default:
		return console.LevelInfo
	}
}

func (c *Container) configureRepositories() {
	useBun := c.bunDB != nil && strings.EqualFold(c.Config.Storage.Provider, "bun")

	if useBun {
		if c.roots == nil {
			if c.cacheEnabled() {
				c.roots = version.NewBunRootRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
			} else {
				c.roots = version.NewBunRootRepository(c.bunDB)
			}
		}
		if c.versions == nil {
			c.versions = version.NewBunVersionRepository(c.bunDB)
		}
		if c.connections == nil {
			c.connections = version.NewBunConnectionRepository(c.bunDB)
		}
		if c.lockRepo == nil {
			c.lockRepo = lock.NewBunRepository(c.bunDB)
		}
		if c.orders == nil {
			c.orders = translation.NewBunOrderRepository(c.bunDB)
		}
		if c.recorder == nil && c.Config.Features.History {
			c.recorder = history.NewBunRecorder(c.bunDB)
		}
		return
	}

	if c.roots == nil {
		c.roots = version.NewMemoryRootRepository()
	}
	if c.versions == nil {
		c.versions = version.NewMemoryVersionRepository()
	}
	if c.connections == nil {
		c.connections = version.NewMemoryConnectionRepository()
	}
	if c.lockRepo == nil {
		c.lockRepo = lock.NewMemoryRepository()
	}
	if c.orders == nil {
		c.orders = translation.NewMemoryOrderRepository()
	}
	if c.recorder == nil && c.Config.Features.History {
		c.recorder = history.NewInMemoryRecorder()
	}
}

func (c *Container) cacheEnabled() bool {
	return c.Config.Cache.Enabled && c.cacheService != nil
}

func (c *Container) configureServices() {
	c.lockManager = lock.NewManager(c.lockRepo, lock.WithClock(c.clock))

	registryOpts := []version.RegistryOption{
		version.WithClock(c.clock),
		version.WithLogger(c.moduleLogger("version")),
	}
	if c.idGenerator != nil {
		registryOpts = append(registryOpts, version.WithIDGenerator(c.idGenerator))
	}
	c.registry = version.NewRegistry(c.roots, c.versions, c.connections, registryOpts...)

	if c.scheduler == nil {
		if c.Config.Features.Scheduling {
			c.scheduler = schedule.NewInMemory(schedule.WithClock(c.clock))
		} else {
			c.scheduler = schedule.NewNoOp()
		}
	}

	coordinatorOpts := []publish.Option{
		publish.WithClock(c.clock),
		publish.WithLogger(c.moduleLogger("publish")),
	}
	if c.validator != nil {
		coordinatorOpts = append(coordinatorOpts, publish.WithValidator(c.validator))
	}
	if c.Config.Features.Scheduling {
		coordinatorOpts = append(coordinatorOpts, publish.WithScheduler(c.scheduler))
	}
	if c.recorder != nil {
		coordinatorOpts = append(coordinatorOpts, publish.WithHistory(c.recorder))
	}
	c.coordinator = publish.NewCoordinator(c.versions, c.roots, c.connections, c.lockManager, coordinatorOpts...)

	if c.Config.Features.MassTool {
		massToolOpts := []masstool.Option{
			masstool.WithMaxLanguageVersions(c.Config.MassTool.MaxLanguageVersions),
			masstool.WithLogger(c.moduleLogger("masstool")),
		}
		if c.validator != nil {
			massToolOpts = append(massToolOpts, masstool.WithValidator(c.validator))
		}
		c.massTool = masstool.NewService(c.coordinator, c.registry, c.versions, c.lockManager, massToolOpts...)
	}

	if c.Config.Features.Translations && c.Config.Translation.Enabled {
		translationOpts := []translation.Option{
			translation.WithClock(c.clock),
			translation.WithErrorThreshold(c.Config.Translation.ErrorThreshold),
			translation.WithLogger(c.moduleLogger("translation")),
		}
		if c.idGenerator != nil {
			translationOpts = append(translationOpts, translation.WithIDGenerator(c.idGenerator))
		}
		if c.vendor != nil {
			translationOpts = append(translationOpts, translation.WithVendor(c.vendor))
		}
		if c.recorder != nil {
			translationOpts = append(translationOpts, translation.WithHistory(c.recorder))
		}
		c.translationSvc = translation.NewService(c.orders, c.versions, translationOpts...)
	}

	if c.Config.Features.Scheduling {
		c.sweeper = sweep.NewEngine(c.versions, c.coordinator,
			sweep.WithClock(c.clock),
			sweep.WithBatchSize(c.Config.Sweep.BatchSize),
			sweep.WithWriteGroupSize(c.Config.Sweep.WriteGroupSize),
			sweep.WithScheduler(c.scheduler),
			sweep.WithLogger(c.moduleLogger("sweep")),
		)
	}
}

func (c *Container) moduleLogger(name string) interfaces.Logger {
	if c.loggerProvider == nil {
		return logging.NoOp()
	}
	return logging.ModuleLogger(c.loggerProvider, "lifecycle."+name)
}

// BunDB exposes the bound database, if any.
func (c *Container) BunDB() *bun.DB {
	return c.bunDB
}

// Registry returns the version registry.
func (c *Container) Registry() version.Registry {
	return c.registry
}

// RootRepository returns the configured root repository.
func (c *Container) RootRepository() version.RootRepository {
	return c.roots
}

// VersionRepository returns the configured version repository.
func (c *Container) VersionRepository() version.VersionRepository {
	return c.versions
}

// ConnectionRepository returns the configured connection repository.
func (c *Container) ConnectionRepository() version.ConnectionRepository {
	return c.connections
}

// LockManager returns the entity lock manager.
func (c *Container) LockManager() *lock.Manager {
	return c.lockManager
}

// Coordinator returns the publishing coordinator.
func (c *Container) Coordinator() publish.Coordinator {
	return c.coordinator
}

// MassTool returns the bulk operation service, nil when the feature is off.
func (c *Container) MassTool() masstool.Service {
	return c.massTool
}

// TranslationService returns the translation order service, nil when the
// feature is off.
func (c *Container) TranslationService() translation.Service {
	return c.translationSvc
}

// Sweeper returns the due-transition engine, nil when scheduling is off.
func (c *Container) Sweeper() *sweep.Engine {
	return c.sweeper
}

// Scheduler returns the job queue used for scheduled transitions.
func (c *Container) Scheduler() interfaces.Scheduler {
	return c.scheduler
}

// History returns the audit recorder, nil when the feature is off.
func (c *Container) History() history.Recorder {
	return c.recorder
}

// LoggerProvider returns the configured logging provider, if any.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}
