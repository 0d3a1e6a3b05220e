package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"budgie/internal/domain/account"
	"budgie/internal/domain/connection"
	"budgie/internal/domain/transaction"
	"budgie/internal/domain/user"
)

// testDB connects to the database named by TEST_DATABASE_URL and runs the
// migrations. Tests that need a live database skip when it is unset.
func testDB(t *testing.T) *DB {
	t.Helper()

	connStr := os.Getenv("TEST_DATABASE_URL")
	if connStr == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping database test")
	}

	db, err := New(connStr)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

// seedAccount creates a user, an active connection, and one account. Every
// call uses fresh ids so tests stay isolated in a shared database.
func seedAccount(t *testing.T, db *DB) (*connection.Connection, *account.Account) {
	t.Helper()
	ctx := context.Background()

	usr, err := NewUserRepository(db).Create(ctx, user.CreateParams{
		Email:        fmt.Sprintf("sync-%s@example.com", uuid.NewString()),
		PasswordHash: "not-a-real-hash",
	})
	if err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}

	conn := &connection.Connection{
		ID:           "truelayer-" + uuid.NewString(),
		UserID:       usr.ID,
		Provider:     connection.ProviderTrueLayer,
		AccessToken:  "ciphertext-access",
		RefreshToken: "ciphertext-refresh",
		Status:       connection.StatusActive,
	}
	if err := NewConnectionRepository(db).Create(ctx, conn); err != nil {
		t.Fatalf("Failed to seed connection: %v", err)
	}

	acct, err := NewAccountRepository(db).Upsert(ctx, account.UpsertParams{
		ID:               "acc-" + uuid.NewString(),
		ConnectionID:     conn.ID,
		UserID:           usr.ID,
		Name:             "Current Account",
		AccountType:      "TRANSACTION",
		Currency:         "GBP",
		Balance:          decimal.NewFromFloat(100),
		AvailableBalance: decimal.NewFromFloat(100),
	})
	if err != nil {
		t.Fatalf("Failed to seed account: %v", err)
	}

	return conn, acct
}

func seedUpsert(acct *account.Account, id string) transaction.UpsertParams {
	return transaction.UpsertParams{
		ID:             id,
		AccountID:      acct.ID,
		UserID:         acct.UserID,
		Date:           time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		Description:    "TESCO STORES",
		Merchant:       "Tesco",
		Amount:         decimal.NewFromFloat(12.50),
		Currency:       "GBP",
		Type:           transaction.TypeExpense,
		Category:       "groceries",
		CategorySource: transaction.SourceHeuristic,
		RawData:        []byte(`{"transaction_id":"` + id + `"}`),
	}
}

func TestSyncStore_ReapplyingBatchUpdatesInsteadOfDuplicating(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_, acct := seedAccount(t, db)

	store := NewSyncStore(db)
	transactions := NewTransactionRepository(db)

	up := seedUpsert(acct, "tx-1")
	if err := store.ApplyBatch(ctx, acct.ConnectionID, []transaction.UpsertParams{up}, time.Now()); err != nil {
		t.Fatalf("Failed to apply batch: %v", err)
	}

	// Providers re-serve recent transactions with drifting details; the
	// second observation must land on the same row.
	up.Description = "TESCO STORES 2041"
	up.Amount = decimal.NewFromFloat(13.00)
	if err := store.ApplyBatch(ctx, acct.ConnectionID, []transaction.UpsertParams{up}, time.Now()); err != nil {
		t.Fatalf("Failed to re-apply batch: %v", err)
	}

	count, err := transactions.CountByUserID(ctx, acct.UserID)
	if err != nil {
		t.Fatalf("Failed to count transactions: %v", err)
	}
	if count != 1 {
		t.Fatalf("Expected 1 transaction after re-sync, got %d", count)
	}

	got, err := transactions.GetByID(ctx, acct.ID, "tx-1")
	if err != nil {
		t.Fatalf("Failed to get transaction: %v", err)
	}
	if got.Description != "TESCO STORES 2041" {
		t.Errorf("Expected re-sync to refresh the description, got %q", got.Description)
	}
	if !got.Amount.Equal(decimal.NewFromFloat(13.00)) {
		t.Errorf("Expected re-sync to refresh the amount, got %s", got.Amount)
	}
}

func TestSyncStore_UserCategorySurvivesResync(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_, acct := seedAccount(t, db)

	store := NewSyncStore(db)
	transactions := NewTransactionRepository(db)

	up := seedUpsert(acct, "tx-2")
	if err := store.ApplyBatch(ctx, acct.ConnectionID, []transaction.UpsertParams{up}, time.Now()); err != nil {
		t.Fatalf("Failed to apply batch: %v", err)
	}

	if _, err := transactions.OverrideCategory(ctx, acct.ID, "tx-2", "eating-out"); err != nil {
		t.Fatalf("Failed to override category: %v", err)
	}

	up.Category = "shopping"
	up.CategorySource = transaction.SourceProvider
	if err := store.ApplyBatch(ctx, acct.ConnectionID, []transaction.UpsertParams{up}, time.Now()); err != nil {
		t.Fatalf("Failed to re-apply batch: %v", err)
	}

	got, err := transactions.GetByID(ctx, acct.ID, "tx-2")
	if err != nil {
		t.Fatalf("Failed to get transaction: %v", err)
	}
	if got.Category != "eating-out" {
		t.Errorf("Expected user category to survive re-sync, got %q", got.Category)
	}
	if got.CategorySource != transaction.SourceUser {
		t.Errorf("Expected category source to stay 'user', got %q", got.CategorySource)
	}
}

func TestSyncStore_EmptyBatchAdvancesWatermark(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	conn, _ := seedAccount(t, db)

	syncedAt := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	if err := NewSyncStore(db).ApplyBatch(ctx, conn.ID, nil, syncedAt); err != nil {
		t.Fatalf("Failed to apply empty batch: %v", err)
	}

	got, err := NewConnectionRepository(db).GetByID(ctx, conn.ID)
	if err != nil {
		t.Fatalf("Failed to get connection: %v", err)
	}
	if got.LastSync == nil || !got.LastSync.Equal(syncedAt) {
		t.Errorf("Expected watermark %v, got %v", syncedAt, got.LastSync)
	}
}
