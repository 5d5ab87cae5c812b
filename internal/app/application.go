package app

import (
	"context"
	"fmt"

	"github.com/collabsuite/marketplace_layer/internal/app/services/applications"
	"github.com/collabsuite/marketplace_layer/internal/app/services/migration"
	"github.com/collabsuite/marketplace_layer/internal/app/storage"
	"github.com/collabsuite/marketplace_layer/internal/app/storage/memory"
	"github.com/collabsuite/marketplace_layer/internal/app/system"
	"github.com/collabsuite/marketplace_layer/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Applications storage.ApplicationStore
	Legacy       storage.LegacyApplicationStore
}

// Collaborators groups the external services the core talks to. All of them
// are optional: a missing role directory projects every caller as non-admin,
// a missing registrar or dispatcher disables the corresponding side effects.
type Collaborators struct {
	Roles      applications.RoleDirectory
	Registrar  applications.PluginRegistrar
	Dispatcher applications.NotificationDispatcher
}

// Options tunes optional behavior of the assembled application.
type Options struct {
	// MigrationPolicy overrides the default always-replace, abort-on-failure
	// policy.
	MigrationPolicy *migration.Policy
	// MigrationSchedule, when set, registers a cron-driven re-run of the
	// migration pipeline.
	MigrationSchedule string
}

// Application ties the marketplace services together and manages their
// lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Applications *applications.Service
	Migration    *migration.Pipeline
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, collab Collaborators, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Applications == nil {
		stores.Applications = mem
	}
	if stores.Legacy == nil {
		stores.Legacy = mem
	}

	var svcOpts []applications.Option
	if collab.Registrar != nil {
		svcOpts = append(svcOpts, applications.WithRegistrar(collab.Registrar))
	}
	if collab.Dispatcher != nil {
		svcOpts = append(svcOpts, applications.WithDispatcher(collab.Dispatcher))
	}
	appService := applications.New(stores.Applications, collab.Roles, log, svcOpts...)

	policy := migration.DefaultPolicy()
	if opts.MigrationPolicy != nil {
		policy = *opts.MigrationPolicy
	}
	pipeline := migration.New(stores.Legacy, stores.Applications, policy, log)

	manager := system.NewManager()
	if err := manager.Register(system.NoopService{ServiceName: "applications"}); err != nil {
		return nil, fmt.Errorf("register applications service: %w", err)
	}
	if opts.MigrationSchedule != "" {
		scheduler := migration.NewScheduler(pipeline, opts.MigrationSchedule, log)
		if err := manager.Register(scheduler); err != nil {
			return nil, fmt.Errorf("register %s: %w", scheduler.Name(), err)
		}
	}

	return &Application{
		manager:      manager,
		log:          log,
		Applications: appService,
		Migration:    pipeline,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
