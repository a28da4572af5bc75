// backend/src/broker/client.go
package broker

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/username/optionvisor/backend/src/logger"
)

// tokenFile mirrors the on-disk token produced by the broker's OAuth flow.
// Refreshing it is handled outside this process; the client only reads it.
type tokenFile struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Client is a thin authenticated GET client for the broker REST API.
type Client struct {
	httpClient *http.Client
	tokenPath  string

	mu          sync.Mutex
	accessToken string
}

// NewClient creates a broker API client reading its bearer token from tokenPath.
func NewClient(tokenPath string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		tokenPath:  tokenPath,
	}
}

// loadToken reads the access token from disk. Called lazily and again after a
// 401, so an externally refreshed token is picked up without a restart.
func (c *Client) loadToken() (string, error) {
	data, err := os.ReadFile(c.tokenPath)
	if err != nil {
		return "", fmt.Errorf("reading broker token file %s: %w", c.tokenPath, err)
	}
	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return "", fmt.Errorf("parsing broker token file %s: %w", c.tokenPath, err)
	}
	if tf.AccessToken == "" {
		return "", fmt.Errorf("broker token file %s has no access_token", c.tokenPath)
	}
	return tf.AccessToken, nil
}

func (c *Client) token(forceReload bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken == "" || forceReload {
		token, err := c.loadToken()
		if err != nil {
			return "", err
		}
		c.accessToken = token
	}
	return c.accessToken, nil
}

// GetJSON performs an authenticated GET against rawURL with the given query
// parameters and decodes the JSON response into out. On 401 the token file is
// re-read once before failing.
func (c *Client) GetJSON(rawURL string, params url.Values, out interface{}) error {
	body, err := c.get(rawURL, params, false)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding broker response from %s: %w", rawURL, err)
	}
	return nil
}

func (c *Client) get(rawURL string, params url.Values, tokenReloaded bool) ([]byte, error) {
	token, err := c.token(tokenReloaded)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building broker request: %w", err)
	}
	if params != nil {
		req.URL.RawQuery = params.Encode()
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling broker API %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading broker response from %s: %w", rawURL, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized && !tokenReloaded:
		logger.L.Warn("Broker token rejected, re-reading token file", "url", rawURL)
		return c.get(rawURL, params, true)
	default:
		return nil, fmt.Errorf("broker API %s returned status %d: %s", rawURL, resp.StatusCode, string(body))
	}
}
