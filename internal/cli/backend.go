package cli

import (
	"context"

	"github.com/zatekoja/regen-tracker/internal/adapters/database"
	"github.com/zatekoja/regen-tracker/internal/application/services"
	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	"github.com/zatekoja/regen-tracker/internal/domain/repositories"
	"github.com/zatekoja/regen-tracker/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/regen-tracker/pkg/config"
)

// FacilityCreator stores one validated facility
type FacilityCreator interface {
	Create(ctx context.Context, facility *entities.Facility) error
}

// Reconciler recomputes profile totals from the entry log
type Reconciler interface {
	ReconcileAll(ctx context.Context) (*services.ReconcileSummary, error)
	ReconcileUser(ctx context.Context, userID string) (*repositories.ReconcileResult, error)
}

// Backend is what the database commands operate on
type Backend struct {
	Migrate    func(ctx context.Context) error
	Facilities FacilityCreator
	WasteLogs  repositories.WasteLogRepository
	Reconciler Reconciler
	Close      func() error
}

// BackendFactory opens a Backend. It is only called by commands that need
// the database, so API commands work without database configuration.
type BackendFactory func(ctx context.Context) (*Backend, error)

// OpenBackend connects to PostgreSQL using the environment configuration.
// Events are not published; open streams pick up changes on their next
// reconciliation or entry event.
func OpenBackend(ctx context.Context) (*Backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	client, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	users := database.NewUserAdapter(client)
	ledger := database.NewLedgerAdapter(client)

	return &Backend{
		Migrate: func(ctx context.Context) error {
			return database.Migrate(ctx, client)
		},
		Facilities: services.NewFacilityService(database.NewFacilityAdapter(client), nil),
		WasteLogs:  database.NewWasteLogAdapter(client),
		Reconciler: services.NewReconciliationService(users, ledger, nil, nil),
		Close:      client.Close,
	}, nil
}

func (o *rootOptions) withBackend(ctx context.Context, fn func(*Backend) error) error {
	backend, err := o.backend(ctx)
	if err != nil {
		return err
	}
	if backend.Close != nil {
		defer backend.Close()
	}
	return fn(backend)
}
