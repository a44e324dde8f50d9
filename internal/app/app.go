// Package app assembles the rental engine from configuration. Both the API
// server and the standalone job runner start from here.
package app

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"rental-engine-backend/internal/config"
	"rental-engine-backend/internal/customer"
	"rental-engine-backend/internal/domain"
	"rental-engine-backend/internal/fees"
	"rental-engine-backend/internal/inventory"
	"rental-engine-backend/internal/logger"
	"rental-engine-backend/internal/payment"
	"rental-engine-backend/internal/pricing"
	"rental-engine-backend/internal/repository"
	"rental-engine-backend/internal/repository/memory"
	"rental-engine-backend/internal/repository/postgres"
	"rental-engine-backend/internal/service"
	"rental-engine-backend/internal/storage"
)

type Repositories struct {
	Items      repository.ItemRepository
	Customers  repository.CustomerRepository
	Agreements repository.AgreementRepository
	Ledger     repository.LedgerRepository
}

type App struct {
	Config *config.Config

	Repos     Repositories
	Inventory *inventory.Store
	Customers *customer.Directory
	Pricing   *pricing.Engine
	Fees      *fees.Engine
	Notifier  service.Notifier
	Rentals   *service.Orchestrator

	db          *sql.DB
	pgs         *postgres.Store
	redis       *redis.Client
	notifyQueue *service.NotifyQueue
}

// New connects the configured backends, builds the engine and restores its
// state from the repositories.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	if err := a.openStorage(ctx); err != nil {
		a.Close()
		return nil, err
	}
	locker, err := a.openLocker(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Pricing = pricing.NewEngine(baseRates(cfg.Pricing.BaseRates))
	a.Fees = fees.NewEngine(a.Pricing)
	a.Inventory = inventory.NewStore(a.Pricing)
	a.Customers = customer.NewDirectory()

	a.Notifier = a.openNotifier()

	a.Rentals, err = service.NewOrchestrator(service.Deps{
		Inventory:     a.Inventory,
		Customers:     a.Customers,
		Pricing:       a.Pricing,
		Fees:          a.Fees,
		Damage:        fees.NewTableAssessor(a.Pricing),
		Gateway:       payment.NewSimulatedGateway(cfg.Payment.MaxCharge, cfg.Payment.DeclinedCustomers),
		Items:         a.Repos.Items,
		CustomerStore: a.Repos.Customers,
		Agreements:    a.Repos.Agreements,
		LedgerStore:   a.Repos.Ledger,
		Locker:        locker,
		LockTimeout:   cfg.LockWaitTimeout(),
		Notifier:      a.Notifier,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build rental service: %w", err)
	}

	if err := a.Rentals.Restore(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("restore rental state: %w", err)
	}
	return a, nil
}

func (a *App) openStorage(ctx context.Context) error {
	cfg := a.Config
	if cfg.Storage.Type != config.StoragePostgres {
		logger.Info("Using in-memory storage")
		s := memory.NewStore()
		a.Repos = Repositories{s.ItemRepository, s.CustomerRepository, s.AgreementRepository, s.LedgerRepository}
		return nil
	}

	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.db = db
	a.pgs = postgres.NewStore(db)
	if err := a.pgs.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	logger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		if err := a.pgs.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		logger.Info("Database schema is up to date")
	}
	a.Repos = Repositories{a.pgs.ItemRepository, a.pgs.CustomerRepository, a.pgs.AgreementRepository, a.pgs.LedgerRepository}
	return nil
}

// openNotifier picks the mail provider and puts it behind the delivery queue.
func (a *App) openNotifier() service.Notifier {
	cfg := a.Config.Notify
	var mailer service.Notifier
	switch {
	case cfg.SendGridAPIKey != "":
		logger.Info("Using SendGrid notifier", "from", cfg.FromEmail, "workers", cfg.Workers)
		mailer = service.NewSendGridNotifier(cfg.SendGridAPIKey, cfg.FromEmail, cfg.FromName)
	case cfg.SMTPHost != "":
		logger.Info("Using SMTP notifier", "host", cfg.SMTPHost, "port", cfg.SMTPPort, "workers", cfg.Workers)
		mailer = service.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.FromEmail, cfg.FromName)
	default:
		logger.Info("No mail provider configured, notifications are logged only")
		return service.NewLogNotifier()
	}
	a.notifyQueue = service.NewNotifyQueue(mailer, cfg.Workers, cfg.QueueSize, cfg.MaxRetries)
	a.notifyQueue.Start()
	return a.notifyQueue
}

func (a *App) openLocker(ctx context.Context) (storage.ItemLocker, error) {
	cfg := a.Config
	if cfg.Locking.Backend != config.LockRedis {
		logger.Info("Using in-process item locks")
		return storage.NewLocalLocker(), nil
	}

	a.redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := a.redis.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Redis.Addr, err)
	}
	logger.Info("Using Redis item locks", "addr", cfg.Redis.Addr, "prefix", cfg.Locking.KeyPrefix)
	return storage.NewRedisLocker(a.redis, storage.Config{
		Type:      config.LockRedis,
		KeyPrefix: cfg.Locking.KeyPrefix,
		TTL:       cfg.LockTTL(),
	}), nil
}

// Ping checks every external backend the engine depends on.
func (a *App) Ping(ctx context.Context) error {
	if a.pgs != nil {
		if err := a.pgs.Ping(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (a *App) Close() {
	if a.notifyQueue != nil {
		a.notifyQueue.Stop()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.Warn("Failed to close redis client", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logger.Warn("Failed to close database", "error", err)
		}
	}
}

func baseRates(raw map[string]float64) map[domain.ItemCategory]float64 {
	rates := make(map[domain.ItemCategory]float64, len(raw))
	for name, rate := range raw {
		category := domain.ItemCategory(name)
		if !category.Valid() {
			logger.Warn("Ignoring base rate for unknown category", "category", name)
			continue
		}
		rates[category] = rate
	}
	return rates
}
