// Command sync runs a one-shot transaction sync from the terminal. Useful for
// backfills and for debugging a single account without the API running.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"budgie/internal/domain/banksync"
	"budgie/internal/domain/connection"
	"budgie/internal/infrastructure/crypto"
	"budgie/internal/infrastructure/postgres"
	"budgie/internal/infrastructure/truelayer"
	"budgie/internal/shared/config"
)

func main() {
	userID := flag.Int64("user", 0, "user id to sync (required)")
	accountID := flag.String("account", "", "sync only this account")
	full := flag.Bool("full", false, "force a full 365-day re-scan")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall sync timeout")
	flag.Parse()

	if *userID == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*userID, *accountID, *full, *timeout); err != nil {
		log.Fatalf("Sync failed: %v", err)
	}
}

func run(userID int64, accountID string, full bool, timeout time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	key, err := crypto.LoadOrCreateKey(cfg.Encryption.Key, cfg.Encryption.KeyFile)
	if err != nil {
		return err
	}
	vault, err := crypto.NewEncryptor(key)
	if err != nil {
		return err
	}

	client := truelayer.NewClient(truelayer.Config{
		AuthBaseURL:    cfg.TrueLayer.AuthBaseURL,
		APIBaseURL:     cfg.TrueLayer.APIBaseURL,
		ClientID:       cfg.TrueLayer.ClientID,
		ClientSecret:   cfg.TrueLayer.ClientSecret,
		ProviderFilter: cfg.TrueLayer.ProviderFilter,
	})

	accountRepo := postgres.NewAccountRepository(db)
	connections := connection.NewManager(postgres.NewConnectionRepository(db), accountRepo, client, vault)
	engine := banksync.NewEngine(connections, accountRepo, client, postgres.NewSyncStore(db))

	var out any
	if accountID != "" {
		out, err = engine.SyncAccountByID(ctx, userID, accountID, full)
	} else {
		out, err = engine.SyncAllAccounts(ctx, userID, full)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to print summary: %w", err)
	}
	return nil
}
