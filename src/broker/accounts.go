// backend/src/broker/accounts.go
package broker

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/username/optionvisor/backend/src/logger"
	"github.com/username/optionvisor/backend/src/models"
	"github.com/username/optionvisor/backend/src/utils"
)

// accountNumber is one entry of the broker's account list; HashValue is the
// opaque identifier all account-scoped endpoints are keyed on.
type accountNumber struct {
	AccountNumber string `json:"accountNumber"`
	HashValue     string `json:"hashValue"`
}

// AccountsClient implements services.TransactionDataProvider against the
// broker's trader API.
type AccountsClient struct {
	client       *Client
	baseURL      string
	accountIndex int

	mu          sync.Mutex
	accountHash string
}

// NewAccountsClient creates a transaction provider for the account at
// accountIndex of the authenticated user's account list.
func NewAccountsClient(client *Client, baseURL string, accountIndex int) *AccountsClient {
	return &AccountsClient{
		client:       client,
		baseURL:      baseURL,
		accountIndex: accountIndex,
	}
}

// resolveAccountHash fetches the account list once and caches the hash of the
// configured account.
func (a *AccountsClient) resolveAccountHash() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.accountHash != "" {
		return a.accountHash, nil
	}

	var accounts []accountNumber
	if err := a.client.GetJSON(a.baseURL+"/accounts/accountNumbers", nil, &accounts); err != nil {
		return "", fmt.Errorf("resolving account hash: %w", err)
	}
	if len(accounts) == 0 {
		return "", fmt.Errorf("broker returned no accounts")
	}
	if a.accountIndex < 0 || a.accountIndex >= len(accounts) {
		return "", fmt.Errorf("account index %d out of range (have %d accounts)", a.accountIndex, len(accounts))
	}

	a.accountHash = accounts[a.accountIndex].HashValue
	logger.L.Info("Resolved broker account hash", "accountIndex", a.accountIndex)
	return a.accountHash, nil
}

// FetchTransactions returns all account transactions whose trade date falls in
// [startDate, endDate] (YYYY-MM-DD). An empty window is an empty slice, not an
// error; the feed is not pre-filtered by instrument type.
func (a *AccountsClient) FetchTransactions(startDate, endDate string) ([]models.Transaction, error) {
	hash, err := a.resolveAccountHash()
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("startDate", utils.ToISO8601(startDate))
	params.Set("endDate", utils.ToISO8601(endDate))

	var transactions []models.Transaction
	endpoint := fmt.Sprintf("%s/accounts/%s/transactions", a.baseURL, hash)
	if err := a.client.GetJSON(endpoint, params, &transactions); err != nil {
		return nil, fmt.Errorf("fetching transactions %s..%s: %w", startDate, endDate, err)
	}

	logger.L.Info("Fetched broker transactions", "start", startDate, "end", endDate, "count", len(transactions))
	return transactions, nil
}
