package truelayer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultTimeout = 60 * time.Second

	// oauthScopes is the consent scope requested on every connection.
	oauthScopes = "info accounts balance cards transactions"

	// MaxWindow is the widest date range the transactions endpoint serves in a
	// single call. Callers chunk longer ranges.
	MaxWindow = 90 * 24 * time.Hour
)

var (
	// ErrTokenExchange: the authorization code was rejected. Codes are
	// single-use; retrying with a consumed code fails upstream, so this is
	// never retried blindly.
	ErrTokenExchange = errors.New("token exchange rejected")

	// ErrTokenRefresh: the refresh token was rejected, usually because the user
	// revoked access at the bank. Requires reconnection, not retry.
	ErrTokenRefresh = errors.New("token refresh rejected")

	// ErrAuthRejected: a data call came back 401/403, meaning the access token
	// is no longer honored.
	ErrAuthRejected = errors.New("provider rejected access token")

	// ErrProviderUnavailable: network failure or provider 5xx. Transient; safe
	// to retry with backoff.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// Client is a stateless HTTP wrapper around the TrueLayer auth and data APIs.
type Client struct {
	httpClient     *http.Client
	authBaseURL    string
	apiBaseURL     string
	clientID       string
	clientSecret   string
	providerFilter string
}

var _ API = (*Client)(nil)

type Config struct {
	AuthBaseURL    string
	APIBaseURL     string
	ClientID       string
	ClientSecret   string
	ProviderFilter string
}

func NewClient(cfg Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		authBaseURL:    strings.TrimRight(cfg.AuthBaseURL, "/"),
		apiBaseURL:     strings.TrimRight(cfg.APIBaseURL, "/"),
		clientID:       cfg.ClientID,
		clientSecret:   cfg.ClientSecret,
		providerFilter: cfg.ProviderFilter,
	}
}

// Token is the response of both the code exchange and the refresh grant.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Account is an account as returned by /data/v1/accounts.
type Account struct {
	AccountID     string `json:"account_id"`
	AccountType   string `json:"account_type"`
	DisplayName   string `json:"display_name"`
	Currency      string `json:"currency"`
	AccountNumber struct {
		Number   string `json:"number"`
		SortCode string `json:"sort_code"`
	} `json:"account_number"`
	Provider struct {
		DisplayName string `json:"display_name"`
		ProviderID  string `json:"provider_id"`
	} `json:"provider"`
}

// Balance is the current snapshot for one account.
type Balance struct {
	Current   decimal.Decimal `json:"current"`
	Available decimal.Decimal `json:"available"`
	Currency  string          `json:"currency"`
}

// Transaction is a raw provider transaction. Amount keeps the provider's sign;
// normalization happens in the sync engine. Raw preserves the untouched
// payload for audit.
type Transaction struct {
	TransactionID       string          `json:"transaction_id"`
	Timestamp           time.Time       `json:"timestamp"`
	Description         string          `json:"description"`
	Amount              decimal.Decimal `json:"amount"`
	Currency            string          `json:"currency"`
	TransactionType     string          `json:"transaction_type"` // "DEBIT" or "CREDIT"
	TransactionCategory string          `json:"transaction_category"`
	MerchantName        string          `json:"merchant_name"`
	Raw                 json.RawMessage `json:"-"`
}

// AuthCodeURL constructs the OAuth consent redirect. The caller supplies an
// anti-CSRF state token and must verify it round-trips on the callback.
func (c *Client) AuthCodeURL(redirectURI, state string) string {
	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", c.clientID)
	params.Set("scope", oauthScopes)
	params.Set("redirect_uri", redirectURI)
	params.Set("providers", c.providerFilter)
	params.Set("state", state)

	return c.authBaseURL + "/connect/authorize?" + params.Encode()
}

// ExchangeCode swaps an authorization code for tokens. One-shot: the code is
// single-use, so a failure here is propagated as ErrTokenExchange rather than
// masked as transient.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*Token, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("client_id", c.clientID)
	data.Set("client_secret", c.clientSecret)
	data.Set("code", code)
	data.Set("redirect_uri", redirectURI)

	return c.tokenRequest(ctx, data, ErrTokenExchange)
}

// RefreshToken exchanges a refresh token for a fresh token pair. Rejection
// here is the common "user revoked access at the bank" path and is surfaced as
// ErrTokenRefresh so callers prompt reconnection instead of retrying.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*Token, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("client_id", c.clientID)
	data.Set("client_secret", c.clientSecret)
	data.Set("refresh_token", refreshToken)

	return c.tokenRequest(ctx, data, ErrTokenRefresh)
}

func (c *Client) tokenRequest(ctx context.Context, data url.Values, rejection error) (*Token, error) {
	endpoint := c.authBaseURL + "/connect/token"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", rejection, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var token Token
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: response missing access_token", rejection)
	}

	return &token, nil
}

// Accounts lists the accounts visible through an access token.
func (c *Client) Accounts(ctx context.Context, accessToken string) ([]Account, error) {
	var envelope struct {
		Results []Account `json:"results"`
	}
	if err := c.getJSON(ctx, accessToken, "/data/v1/accounts", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Results, nil
}

// Balance fetches the current balance snapshot for one account.
func (c *Client) Balance(ctx context.Context, accessToken, accountID string) (*Balance, error) {
	var envelope struct {
		Results []Balance `json:"results"`
	}
	path := fmt.Sprintf("/data/v1/accounts/%s/balance", url.PathEscape(accountID))
	if err := c.getJSON(ctx, accessToken, path, nil, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Results) == 0 {
		return nil, fmt.Errorf("balance response for account %s is empty", accountID)
	}
	return &envelope.Results[0], nil
}

// Transactions fetches transactions for one account within [from, to]. The
// provider serves at most MaxWindow per call; callers chunk longer ranges.
func (c *Client) Transactions(ctx context.Context, accessToken, accountID string, from, to time.Time) ([]Transaction, error) {
	query := url.Values{}
	query.Set("from", from.Format("2006-01-02"))
	query.Set("to", to.Format("2006-01-02"))

	var envelope struct {
		Results []json.RawMessage `json:"results"`
	}
	path := fmt.Sprintf("/data/v1/accounts/%s/transactions", url.PathEscape(accountID))
	if err := c.getJSON(ctx, accessToken, path, query, &envelope); err != nil {
		return nil, err
	}

	transactions := make([]Transaction, 0, len(envelope.Results))
	for _, raw := range envelope.Results {
		var tx Transaction
		if err := json.Unmarshal(raw, &tx); err != nil {
			return nil, fmt.Errorf("failed to decode transaction: %w", err)
		}
		tx.Raw = raw
		transactions = append(transactions, tx)
	}

	return transactions, nil
}

func (c *Client) getJSON(ctx context.Context, accessToken, path string, query url.Values, out any) error {
	endpoint := c.apiBaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrAuthRejected, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("provider request %s failed with status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}
