package banksync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"budgie/internal/domain/account"
	"budgie/internal/domain/connection"
	"budgie/internal/domain/transaction"
	"budgie/internal/infrastructure/truelayer"
)

// TokenSource supplies connections and usable access tokens. Satisfied by
// *connection.Manager.
type TokenSource interface {
	Get(ctx context.Context, id string) (*connection.Connection, error)
	List(ctx context.Context, userID int64) ([]*connection.Connection, error)
	EnsureValidToken(ctx context.Context, conn *connection.Connection) (string, error)
}

// Store applies one account-sync batch: every transaction upsert plus the
// connection watermark advance commit in a single database transaction, so a
// partial failure never moves last_sync past unsynced data.
type Store interface {
	ApplyBatch(ctx context.Context, connectionID string, upserts []transaction.UpsertParams, syncedAt time.Time) error
}

// Result reports one sync outcome, normally per account. A connection whose
// accounts could not even be listed yields a single connection-level entry
// with an empty AccountID. ReauthRequired and Retryable classify the failure
// so the caller can decide between "prompt reconnect" and "show retry".
type Result struct {
	AccountID          string `json:"accountId,omitempty"`
	ConnectionID       string `json:"connectionId"`
	Success            bool   `json:"success"`
	TransactionsSynced int    `json:"transactionsSynced"`
	ReauthRequired     bool   `json:"reauthRequired,omitempty"`
	Retryable          bool   `json:"retryable,omitempty"`
	Error              string `json:"error,omitempty"`
}

// Summary aggregates a multi-account sync run.
type Summary struct {
	TotalAccounts     int      `json:"totalAccounts"`
	SuccessfulSyncs   int      `json:"successfulSyncs"`
	FailedSyncs       int      `json:"failedSyncs"`
	TotalTransactions int      `json:"totalTransactions"`
	Accounts          []Result `json:"accounts"`
}

// Engine fetches, deduplicates, categorizes and persists transactions. It is
// transport-agnostic: callable from a CLI, a scheduled job, or an HTTP
// handler.
type Engine struct {
	connections TokenSource
	accounts    account.Repository
	client      truelayer.API
	store       Store
	now         func() time.Time
}

func NewEngine(connections TokenSource, accounts account.Repository, client truelayer.API, store Store) *Engine {
	return &Engine{
		connections: connections,
		accounts:    accounts,
		client:      client,
		store:       store,
		now:         time.Now,
	}
}

// SyncAccount runs one full sync pass for a single account: compute the
// window, fetch, normalize, upsert, advance the watermark. An empty provider
// response is a successful sync and still advances the watermark.
func (e *Engine) SyncAccount(ctx context.Context, acct *account.Account, forceFull bool) (*Result, error) {
	conn, err := e.connections.Get(ctx, acct.ConnectionID)
	if err != nil {
		return nil, err
	}

	accessToken, err := e.connections.EnsureValidToken(ctx, conn)
	if err != nil {
		return nil, err
	}

	now := e.now()
	from, to := syncWindow(conn.LastSync, forceFull, now)

	raw, err := e.fetchWindow(ctx, accessToken, acct.ID, from, to)
	if err != nil {
		return nil, err
	}

	upserts := make([]transaction.UpsertParams, 0, len(raw))
	for i := range raw {
		upserts = append(upserts, buildUpsert(acct, &raw[i]))
	}

	if err := e.store.ApplyBatch(ctx, conn.ID, upserts, now); err != nil {
		return nil, fmt.Errorf("failed to apply sync batch: %w", err)
	}

	log.Printf("Account %s: synced %d transactions (window %s to %s)",
		acct.ID, len(upserts), from.Format("2006-01-02"), to.Format("2006-01-02"))

	return &Result{
		AccountID:          acct.ID,
		ConnectionID:       conn.ID,
		Success:            true,
		TransactionsSynced: len(upserts),
	}, nil
}

// SyncAccountByID resolves the account first; used by the trigger-sync entry
// point when the caller names a single account.
func (e *Engine) SyncAccountByID(ctx context.Context, userID int64, accountID string, forceFull bool) (*Result, error) {
	acct, err := e.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if acct == nil || acct.UserID != userID {
		return nil, fmt.Errorf("%w: account %s not found", transaction.ErrValidation, accountID)
	}
	return e.SyncAccount(ctx, acct, forceFull)
}

// SyncAllAccounts syncs every account of every one of the user's connections.
// Accounts are independent: one failure is recorded and classified without
// aborting the siblings.
func (e *Engine) SyncAllAccounts(ctx context.Context, userID int64, forceFull bool) (*Summary, error) {
	conns, err := e.connections.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}

	summary := &Summary{Accounts: []Result{}}
	for _, conn := range conns {
		accts, err := e.accounts.ListByConnectionID(ctx, conn.ID)
		if err != nil {
			// The whole connection is unreachable. Report it as a failed
			// unit rather than dropping it from the summary.
			summary.FailedSyncs++
			summary.Accounts = append(summary.Accounts,
				classifyFailure("", conn.ID, fmt.Errorf("failed to list accounts: %w", err)))
			log.Printf("Connection %s: failed to list accounts: %v", conn.ID, err)
			continue
		}

		for _, acct := range accts {
			summary.TotalAccounts++

			result, err := e.SyncAccount(ctx, acct, forceFull)
			if err != nil {
				summary.FailedSyncs++
				summary.Accounts = append(summary.Accounts, classifyFailure(acct.ID, conn.ID, err))
				log.Printf("Account %s: sync failed: %v", acct.ID, err)
				continue
			}

			summary.SuccessfulSyncs++
			summary.TotalTransactions += result.TransactionsSynced
			summary.Accounts = append(summary.Accounts, *result)
		}
	}

	log.Printf("User %d: sync complete - accounts=%d ok=%d failed=%d transactions=%d",
		userID, summary.TotalAccounts, summary.SuccessfulSyncs, summary.FailedSyncs, summary.TotalTransactions)

	return summary, nil
}

// fetchWindow pulls transactions for [from, to], chunking into the provider's
// maximum date window per call.
func (e *Engine) fetchWindow(ctx context.Context, accessToken, accountID string, from, to time.Time) ([]truelayer.Transaction, error) {
	var all []truelayer.Transaction

	for chunkFrom := from; chunkFrom.Before(to); {
		chunkTo := chunkFrom.Add(truelayer.MaxWindow)
		if chunkTo.After(to) {
			chunkTo = to
		}

		batch, err := e.client.Transactions(ctx, accessToken, accountID, chunkFrom, chunkTo)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch transactions (%s to %s): %w",
				chunkFrom.Format("2006-01-02"), chunkTo.Format("2006-01-02"), err)
		}
		all = append(all, batch...)

		chunkFrom = chunkTo
	}

	return all, nil
}

// buildUpsert normalizes one raw provider transaction into upsert params:
// deterministic identity, non-negative magnitude with a direction type, and a
// category from the provider or the keyword heuristic.
func buildUpsert(acct *account.Account, raw *truelayer.Transaction) transaction.UpsertParams {
	id := raw.TransactionID
	if id == "" {
		id = deriveID(acct.ID, raw)
	}

	txType := transaction.TypeIncome
	if raw.Amount.IsNegative() || strings.EqualFold(raw.TransactionType, "DEBIT") {
		txType = transaction.TypeExpense
	}

	category := strings.ToLower(strings.TrimSpace(raw.TransactionCategory))
	source := transaction.SourceProvider
	if category == "" {
		category = transaction.Categorize(raw.Description)
		source = transaction.SourceHeuristic
	}

	merchant := raw.MerchantName
	if merchant == "" {
		merchant = raw.Description
	}

	return transaction.UpsertParams{
		ID:             id,
		AccountID:      acct.ID,
		UserID:         acct.UserID,
		Date:           raw.Timestamp,
		Description:    raw.Description,
		Merchant:       merchant,
		Amount:         raw.Amount.Abs(),
		Currency:       raw.Currency,
		Type:           txType,
		Category:       category,
		CategorySource: source,
		RawData:        raw.Raw,
	}
}

// deriveID builds a deterministic transaction id from stable fields when the
// provider omits one. A random id here would break idempotence: every re-fetch
// of the same event would insert a duplicate row.
func deriveID(accountID string, raw *truelayer.Transaction) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s",
		accountID,
		raw.Timestamp.Format("2006-01-02"),
		raw.Description,
		raw.Amount.String(),
	)
	return "drv-" + hex.EncodeToString(h.Sum(nil))
}

// classifyFailure maps a sync error onto the result flags the UI layer keys
// off: reconnect prompt, retry affordance, or plain failure.
func classifyFailure(accountID, connectionID string, err error) Result {
	return Result{
		AccountID:      accountID,
		ConnectionID:   connectionID,
		Success:        false,
		ReauthRequired: errors.Is(err, connection.ErrReauthRequired) || errors.Is(err, truelayer.ErrAuthRejected),
		Retryable:      errors.Is(err, truelayer.ErrProviderUnavailable),
		Error:          err.Error(),
	}
}
