// Package admin provides a client for the admin API of a running Conduit
// deployment. Other commands use it to authenticate and bootstrap the CLI's
// security client.
package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultURL is the admin endpoint of a local demo deployment.
const DefaultURL = "http://localhost:3000"

// Security client identity registered by the CLI.
const (
	clientPlatform = "LINUX"
	clientAlias    = "CLI"
	clientNotes    = "Conduit CLI Test Client"
)

var (
	// ErrClientValidationDisabled is returned by security client operations
	// when the deployment does not validate clients.
	ErrClientValidationDisabled = errors.New("security clients are disabled")

	// ErrNoToken is returned when the login response carries no token.
	ErrNoToken = errors.New("login response has no token")
)

// APIError is returned for any non-2xx response.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Config holds admin client configuration.
type Config struct {
	BaseURL   string // e.g. "http://localhost:3000"
	MasterKey string // sent as the masterkey header on every request
	Timeout   time.Duration
}

// SecurityClient is a registered client credential pair.
type SecurityClient struct {
	ID           string `json:"_id,omitempty"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret,omitempty"`
	Platform     string `json:"platform"`
	Alias        string `json:"alias,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// Client talks to the Conduit admin API.
type Client struct {
	baseURL    string
	masterKey  string
	httpClient *http.Client
	logger     *slog.Logger

	token             string
	validationEnabled bool
	securityClient    *SecurityClient
}

// NewClient creates a new admin client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		masterKey: cfg.MasterKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Token returns the session token, empty before Login.
func (c *Client) Token() string {
	return c.token
}

// HealthCheck reports whether the deployment answers its health endpoint.
func (c *Client) HealthCheck(ctx context.Context) bool {
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil, nil); err != nil {
		c.logger.Debug("health check failed", "error", err)
		return false
	}
	return true
}

// Login authenticates an admin user and keeps the returned token for
// subsequent requests.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{"username": username, "password": password}
	var result struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/admin/login", nil, body, &result); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if result.Token == "" {
		return "", ErrNoToken
	}
	c.token = result.Token
	return c.token, nil
}

// GetModuleConfig returns the config object of the named module.
func (c *Client) GetModuleConfig(ctx context.Context, module string) (json.RawMessage, error) {
	var result struct {
		Config json.RawMessage `json:"config"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/config/"+url.PathEscape(module), nil, nil, &result); err != nil {
		return nil, fmt.Errorf("get %s config: %w", module, err)
	}
	return result.Config, nil
}

// GetAdminModules returns the raw module listing.
func (c *Client) GetAdminModules(ctx context.Context) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/admin/config/modules", nil, nil, &result); err != nil {
		return nil, fmt.Errorf("get admin modules: %w", err)
	}
	return result, nil
}

// GetSchemas returns one page of database schemas.
func (c *Client) GetSchemas(ctx context.Context, skip, limit int) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("skip", strconv.Itoa(skip))
	query.Set("limit", strconv.Itoa(limit))

	var result json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/admin/database/schemas", query, nil, &result); err != nil {
		return nil, fmt.Errorf("get schemas: %w", err)
	}
	return result, nil
}

// GetSecurityClients lists registered security clients.
func (c *Client) GetSecurityClients(ctx context.Context) ([]SecurityClient, error) {
	if !c.validationEnabled {
		return nil, ErrClientValidationDisabled
	}
	var result struct {
		Clients []SecurityClient `json:"clients"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/security/client", nil, nil, &result); err != nil {
		return nil, fmt.Errorf("get security clients: %w", err)
	}
	return result.Clients, nil
}

// CreateSecurityClient registers the CLI's security client.
func (c *Client) CreateSecurityClient(ctx context.Context) (*SecurityClient, error) {
	if !c.validationEnabled {
		return nil, ErrClientValidationDisabled
	}
	body := SecurityClient{
		Platform: clientPlatform,
		Alias:    clientAlias,
		Notes:    clientNotes,
	}
	var created SecurityClient
	if err := c.do(ctx, http.MethodPost, "/admin/security/client", nil, body, &created); err != nil {
		return nil, fmt.Errorf("create security client: %w", err)
	}
	return &created, nil
}

// Initialize logs in, reads the security module config and, when client
// validation is enabled, finds or creates the CLI security client.
func (c *Client) Initialize(ctx context.Context, username, password string) error {
	if _, err := c.Login(ctx, username, password); err != nil {
		return err
	}

	raw, err := c.GetModuleConfig(ctx, "security")
	if err != nil {
		return fmt.Errorf("retrieve security configuration: %w", err)
	}
	var security struct {
		ClientValidation struct {
			Enabled bool `json:"enabled"`
		} `json:"clientValidation"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &security); err != nil {
			return fmt.Errorf("decode security configuration: %w", err)
		}
	}

	c.validationEnabled = security.ClientValidation.Enabled
	c.securityClient = nil
	if !c.validationEnabled {
		return nil
	}

	clients, err := c.GetSecurityClients(ctx)
	if err != nil {
		return err
	}
	for i := range clients {
		if clients[i].Platform == clientPlatform && clients[i].Alias == clientAlias {
			c.securityClient = &clients[i]
			c.logger.Debug("reusing security client", "client_id", clients[i].ClientID)
			return nil
		}
	}

	created, err := c.CreateSecurityClient(ctx)
	if err != nil {
		return err
	}
	c.logger.Info("created security client", "client_id", created.ClientID)
	c.securityClient = created
	return nil
}

// SecurityClient returns the CLI's security client, nil when client
// validation is disabled or Initialize has not run.
func (c *Client) SecurityClient() *SecurityClient {
	if !c.validationEnabled || c.securityClient == nil {
		return nil
	}
	sc := *c.securityClient
	return &sc
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.masterKey != "" {
		req.Header.Set("masterkey", c.masterKey)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "JWT "+c.token)
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return &APIError{Method: method, Path: path, Status: resp.StatusCode, Body: string(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
