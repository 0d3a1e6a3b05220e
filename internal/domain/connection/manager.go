package connection

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"budgie/internal/domain/account"
	"budgie/internal/infrastructure/crypto"
	"budgie/internal/infrastructure/truelayer"
)

// ErrReauthRequired means this connection's credentials can no longer be used
// and the user must reconnect their bank. Callers surface this as a "reconnect
// your bank" call to action, never as a generic error.
var ErrReauthRequired = errors.New("reauthentication required")

// Manager owns the connection lifecycle: OAuth completion, token
// refresh-before-expiry, account snapshots, disconnect.
type Manager struct {
	repo     Repository
	accounts account.Repository
	client   truelayer.API
	vault    *crypto.Encryptor
	now      func() time.Time

	// refreshLocks serializes token refresh per connection: refresh tokens are
	// single-use server-side, so two concurrent syncs must not both redeem the
	// same one.
	mu           sync.Mutex
	refreshLocks map[string]*sync.Mutex
}

func NewManager(repo Repository, accounts account.Repository, client truelayer.API, vault *crypto.Encryptor) *Manager {
	return &Manager{
		repo:         repo,
		accounts:     accounts,
		client:       client,
		vault:        vault,
		now:          time.Now,
		refreshLocks: make(map[string]*sync.Mutex),
	}
}

// Initiate builds the OAuth consent URL and a fresh anti-CSRF state token. The
// caller must stash the state and verify it round-trips on the callback.
func (m *Manager) Initiate(redirectURI string) (authURL, state string) {
	state = uuid.NewString()
	return m.client.AuthCodeURL(redirectURI, state), state
}

// Complete exchanges the authorization code, persists the encrypted grant and
// pulls the initial account snapshots. The code is single-use; exchange
// failures propagate as truelayer.ErrTokenExchange and are never retried here.
func (m *Manager) Complete(ctx context.Context, userID int64, code, redirectURI string) (*Connection, error) {
	token, err := m.client.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}
	if token.RefreshToken == "" {
		return nil, fmt.Errorf("provider returned no refresh token")
	}

	encAccess, err := m.vault.Encrypt(token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}
	encRefresh, err := m.vault.Encrypt(token.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	conn := &Connection{
		ID:           fmt.Sprintf("%s-%s", ProviderTrueLayer, uuid.NewString()),
		UserID:       userID,
		Provider:     ProviderTrueLayer,
		AccessToken:  encAccess,
		RefreshToken: encRefresh,
		TokenExpiry:  m.expiryFrom(token.ExpiresIn),
		Status:       StatusActive,
	}

	if err := m.repo.Create(ctx, conn); err != nil {
		return nil, fmt.Errorf("failed to persist connection: %w", err)
	}

	// Initial account snapshot. Best-effort: the grant is already stored, so a
	// fetch hiccup here is recovered by the next sync.
	if _, err := m.refreshAccounts(ctx, conn, token.AccessToken); err != nil {
		log.Printf("Connection %s: initial account fetch failed: %v", conn.ID, err)
	}

	return conn, nil
}

// Get loads one connection.
func (m *Manager) Get(ctx context.Context, id string) (*Connection, error) {
	conn, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load connection: %w", err)
	}
	if conn == nil {
		return nil, fmt.Errorf("connection %s not found", id)
	}
	return conn, nil
}

// List returns all of the user's connections regardless of token validity;
// validity is checked lazily at use time.
func (m *Manager) List(ctx context.Context, userID int64) ([]*Connection, error) {
	return m.repo.ListByUserID(ctx, userID)
}

// Disconnect deletes the connection and cascades to its accounts and
// transactions. Destructive and non-reversible.
func (m *Manager) Disconnect(ctx context.Context, id string) error {
	if err := m.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	log.Printf("Disconnected bank connection %s", id)
	return nil
}

// EnsureValidToken returns a usable plaintext access token for the
// connection, refreshing it first when the stored expiry has passed. On a
// rejected refresh the connection is marked revoked and ErrReauthRequired is
// returned; transient provider failures propagate unclassified so callers can
// retry.
func (m *Manager) EnsureValidToken(ctx context.Context, conn *Connection) (string, error) {
	if conn.Status == StatusRevoked {
		return "", fmt.Errorf("connection %s is revoked: %w", conn.ID, ErrReauthRequired)
	}

	if !m.tokenExpired(conn) {
		access, err := m.vault.Decrypt(conn.AccessToken)
		if err != nil {
			// Key mismatch: the stored credential is unrecoverable.
			return "", fmt.Errorf("connection %s: %v: %w", conn.ID, err, ErrReauthRequired)
		}
		return access, nil
	}

	return m.refreshLocked(ctx, conn)
}

func (m *Manager) refreshLocked(ctx context.Context, conn *Connection) (string, error) {
	lock := m.lockFor(conn.ID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock: a concurrent flight may have refreshed already,
	// in which case its token is reused instead of redeeming the now-stale
	// refresh token a second time.
	fresh, err := m.repo.GetByID(ctx, conn.ID)
	if err != nil {
		return "", fmt.Errorf("failed to reload connection: %w", err)
	}
	if fresh == nil {
		return "", fmt.Errorf("connection %s disappeared during refresh", conn.ID)
	}
	*conn = *fresh

	if conn.Status == StatusRevoked {
		return "", fmt.Errorf("connection %s is revoked: %w", conn.ID, ErrReauthRequired)
	}
	if !m.tokenExpired(conn) {
		access, err := m.vault.Decrypt(conn.AccessToken)
		if err != nil {
			return "", fmt.Errorf("connection %s: %v: %w", conn.ID, err, ErrReauthRequired)
		}
		return access, nil
	}

	refreshToken, err := m.vault.Decrypt(conn.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("connection %s: %v: %w", conn.ID, err, ErrReauthRequired)
	}

	token, err := m.client.RefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, truelayer.ErrTokenRefresh) {
			// The provider rejected the grant, typically because the user
			// revoked access at the bank.
			if updateErr := m.repo.UpdateStatus(ctx, conn.ID, StatusRevoked); updateErr != nil {
				log.Printf("Connection %s: failed to mark revoked: %v", conn.ID, updateErr)
			}
			conn.Status = StatusRevoked
			return "", fmt.Errorf("connection %s: %v: %w", conn.ID, err, ErrReauthRequired)
		}
		// Transient (network/5xx): leave the connection intact.
		return "", fmt.Errorf("token refresh for connection %s: %w", conn.ID, err)
	}

	newRefresh := token.RefreshToken
	if newRefresh == "" {
		// Some providers omit the refresh token when it is still valid.
		newRefresh = refreshToken
	}

	encAccess, err := m.vault.Encrypt(token.AccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt access token: %w", err)
	}
	encRefresh, err := m.vault.Encrypt(newRefresh)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	expiry := m.expiryFrom(token.ExpiresIn)
	if err := m.repo.UpdateTokens(ctx, conn.ID, encAccess, encRefresh, expiry); err != nil {
		return "", fmt.Errorf("failed to persist refreshed tokens: %w", err)
	}

	conn.AccessToken = encAccess
	conn.RefreshToken = encRefresh
	conn.TokenExpiry = expiry

	log.Printf("Refreshed token for connection %s", conn.ID)
	return token.AccessToken, nil
}

// RefreshAccounts re-fetches the connection's accounts and balances and
// upserts the snapshots. Returns the number of accounts stored.
func (m *Manager) RefreshAccounts(ctx context.Context, conn *Connection) (int, error) {
	access, err := m.EnsureValidToken(ctx, conn)
	if err != nil {
		return 0, err
	}
	return m.refreshAccounts(ctx, conn, access)
}

func (m *Manager) refreshAccounts(ctx context.Context, conn *Connection, accessToken string) (int, error) {
	apiAccounts, err := m.client.Accounts(ctx, accessToken)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch accounts: %w", err)
	}

	saved := 0
	for _, apiAccount := range apiAccounts {
		balance := decimal.Zero
		available := decimal.Zero
		if b, err := m.client.Balance(ctx, accessToken, apiAccount.AccountID); err != nil {
			log.Printf("Connection %s: failed to fetch balance for account %s: %v", conn.ID, apiAccount.AccountID, err)
		} else {
			balance = b.Current
			available = b.Available
		}

		name := apiAccount.DisplayName
		if name == "" {
			name = fmt.Sprintf("Account %s", apiAccount.AccountNumber.Number)
		}

		_, err := m.accounts.Upsert(ctx, account.UpsertParams{
			ID:               apiAccount.AccountID,
			ConnectionID:     conn.ID,
			UserID:           conn.UserID,
			Name:             name,
			AccountType:      apiAccount.AccountType,
			Currency:         apiAccount.Currency,
			Balance:          balance,
			AvailableBalance: available,
		})
		if err != nil {
			log.Printf("Connection %s: failed to upsert account %s: %v", conn.ID, apiAccount.AccountID, err)
			continue
		}
		saved++
	}

	return saved, nil
}

func (m *Manager) tokenExpired(conn *Connection) bool {
	return conn.TokenExpiry != nil && !conn.TokenExpiry.After(m.now())
}

func (m *Manager) expiryFrom(expiresIn int) *time.Time {
	if expiresIn <= 0 {
		return nil
	}
	expiry := m.now().Add(time.Duration(expiresIn) * time.Second)
	return &expiry
}

func (m *Manager) lockFor(connectionID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.refreshLocks[connectionID]
	if !ok {
		lock = &sync.Mutex{}
		m.refreshLocks[connectionID] = lock
	}
	return lock
}
