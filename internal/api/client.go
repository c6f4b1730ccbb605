package api

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/balena-io/resin-preload/internal/fault"
	"github.com/balena-io/resin-preload/internal/paths"
)

const (

	// Timeout applied to individual API requests.
	requestTimeout = 30 * time.Second

	// Filename of the cached session token inside the state directory.
	tokenFile = "token"
)

// Configures a [Client].
type Config struct {
	Endpoint     string   // API endpoint URL; empty resolves via [ResolveEndpoint].
	Token        string   // Session token credential; empty when key auth is used.
	APIKey       string   // API key credential; empty when token auth is used.
	StateDir     string   // Private directory for cached session state.
	Certificates []string // Extra CA certificate files (PEM) to trust.
}

// Authenticated client for the balena API.
type Client struct {
	http     *http.Client // HTTP client with proxy and CA configuration.
	endpoint string       // API endpoint URL, no trailing slash.
	token    string       // Session token; empty for key-only clients.
	apiKey   string       // API key; empty for token clients.
	stateDir string       // Private state directory for this run.
}

// Creates a client from the given configuration.
//
// The HTTP transport honors the standard proxy environment variables and
// trusts the system roots extended with any configured certificates. The
// state directory must already exist and be private to this run.
func NewClient(cfg Config) (*Client, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = ResolveEndpoint()
	}

	pool, err := certPool(cfg.Certificates)
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{RootCAs: pool},
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   requestTimeout,
		},
		endpoint: strings.TrimSuffix(endpoint, "/"),
		token:    cfg.Token,
		apiKey:   cfg.APIKey,
		stateDir: cfg.StateDir,
	}, nil
}

// Returns the API endpoint this client talks to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Exchanges the token credential for a verified session.
//
// The token is checked against the whoami endpoint and cached in the
// client's private state directory. Any failure is an auth fault and is
// never retried.
func (c *Client) Login(ctx context.Context) error {
	var who struct {
		ID       int    `json:"id"`
		Username string `json:"username"`
	}

	if err := c.get(ctx, "/user/v1/whoami", &who); err != nil {
		return fault.Wrapf(fault.Auth, err, "login failed")
	}

	if err := c.storeToken(); err != nil {
		return fault.Wrapf(fault.Auth, err, "login failed")
	}

	slog.Debug("logged in", "user", who.Username, "id", who.ID)
	return nil
}

// Caches the session token in the private state directory.
func (c *Client) storeToken() error {
	return os.WriteFile(filepath.Join(c.stateDir, tokenFile), []byte(c.token), paths.PrivateFileMode)
}

// Performs a GET request against the API and decodes the JSON response.
//
// The token credential travels as a bearer header; an API key travels as
// a query parameter on every request. Non-200 responses become errors
// carrying the status and a truncated body.
func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return err
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else if c.apiKey != "" {
		q := req.URL.Query()
		q.Set("apikey", c.apiKey)
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// Builds the root CA pool for the HTTP transport.
//
// Returns nil when no extra certificates are configured, which leaves the
// transport on its default (system) roots.
func certPool(files []string) (*x509.CertPool, error) {
	if len(files) == 0 {
		return nil, nil
	}

	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}

	for _, file := range files {
		pem, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading certificate %s: %w", file, err)
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("certificate %s contains no PEM data", file)
		}
	}

	return pool, nil
}
