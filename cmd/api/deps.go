package main

import (
	"context"
	"log"

	"budgie/internal/domain/banksync"
	"budgie/internal/domain/budget"
	"budgie/internal/domain/connection"
	"budgie/internal/domain/user"
	"budgie/internal/infrastructure/crypto"
	"budgie/internal/infrastructure/postgres"
	"budgie/internal/infrastructure/truelayer"
	"budgie/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	UserRepo        *postgres.UserRepository
	AccountRepo     *postgres.AccountRepository
	TransactionRepo *postgres.TransactionRepository

	Users       *user.Service
	Connections *connection.Manager
	Engine      *banksync.Engine
	Budgets     *budget.Service
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	key, err := crypto.LoadOrCreateKey(cfg.Encryption.Key, cfg.Encryption.KeyFile)
	if err != nil {
		db.Close()
		return nil, err
	}
	vault, err := crypto.NewEncryptor(key)
	if err != nil {
		db.Close()
		return nil, err
	}

	userRepo := postgres.NewUserRepository(db)
	connectionRepo := postgres.NewConnectionRepository(db)
	accountRepo := postgres.NewAccountRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	budgetRepo := postgres.NewBudgetRepository(db)
	syncStore := postgres.NewSyncStore(db)

	client := truelayer.NewClient(truelayer.Config{
		AuthBaseURL:    cfg.TrueLayer.AuthBaseURL,
		APIBaseURL:     cfg.TrueLayer.APIBaseURL,
		ClientID:       cfg.TrueLayer.ClientID,
		ClientSecret:   cfg.TrueLayer.ClientSecret,
		ProviderFilter: cfg.TrueLayer.ProviderFilter,
	})

	connections := connection.NewManager(connectionRepo, accountRepo, client, vault)
	engine := banksync.NewEngine(connections, accountRepo, client, syncStore)

	return &Dependencies{
		DB:              db,
		UserRepo:        userRepo,
		AccountRepo:     accountRepo,
		TransactionRepo: transactionRepo,
		Users:           user.NewService(userRepo),
		Connections:     connections,
		Engine:          engine,
		Budgets:         budget.NewService(budgetRepo, transactionRepo),
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
