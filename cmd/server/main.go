package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bankledger/internal/config"
	"bankledger/internal/events/kafka"
	"bankledger/internal/interfaces"
	"bankledger/internal/ledger"
	"bankledger/internal/logging"
	"bankledger/internal/metrics"
	"bankledger/internal/models"
	"bankledger/internal/money"
	"bankledger/internal/server"
	"bankledger/internal/storage/memory"
	"bankledger/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logging.NewLogger(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	store, cleanup, err := buildStore(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize store", zap.Error(err))
	}
	defer cleanup()

	var publisher interfaces.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafka.NewPublisher(cfg.KafkaBrokers)
		defer kp.Close()
		publisher = kp
		log.Info("kafka publisher enabled", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector("bankledger")
	if err := collector.Register(registry); err != nil {
		log.Fatal("failed to register metrics", zap.Error(err))
	}

	engine := ledger.NewEngine(store, ledger.Config{
		Events:   publisher,
		Logger:   log,
		Metrics:  collector,
		LockWait: cfg.LockWait,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.New(engine, log, registry),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info("starting server", zap.String("addr", cfg.HTTPAddr))
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

// buildStore selects postgres when a DSN is configured, otherwise an
// in-memory store seeded with a demo user and the standard account types.
func buildStore(cfg config.Config, log *logging.Logger) (interfaces.LedgerStore, func(), error) {
	if cfg.PostgresDSN != "" {
		store, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		log.Info("using postgres store")
		return store, func() { store.Close() }, nil
	}

	store := memory.NewMemoryLedgerStore()
	seedDemoData(store)
	log.Info("using in-memory store")
	return store, func() {}, nil
}

// seedDemoData gives the in-memory store a user and account types so the
// service is usable out of the box. Real deployments manage these rows
// through an administrative process.
func seedDemoData(store *memory.MemoryLedgerStore) {
	store.PutUser(models.User{
		ID:        "demo-user",
		FirstName: "Demo",
		LastName:  "User",
		Email:     "demo@example.com",
		Role:      models.RoleUser,
		CreatedAt: time.Now(),
	})
	store.PutAccountType(models.AccountType{
		ID:             "checking",
		Name:           "Checking",
		Description:    "Everyday checking account",
		MinimumBalance: money.Zero("USD"),
		InterestRate:   decimal.Zero,
		MonthlyFee:     money.Zero("USD"),
	})
	store.PutAccountType(models.AccountType{
		ID:             "savings",
		Name:           "Savings",
		Description:    "Interest-bearing savings account",
		MinimumBalance: money.MustParse("100.00", "USD"),
		InterestRate:   decimal.RequireFromString("0.002"),
		MonthlyFee:     money.MustParse("5.00", "USD"),
	})
}
