// Package github adapts the GitHub REST API to the two things a run needs:
// the files a push changed and tag refs on the head commit.
package github

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v72/github"

	"github.com/flarebyte/chartship/internal/secret"
)

// DefaultBaseURL is the public GitHub API root.
const DefaultBaseURL = "https://api.github.com"

// Config configures a Client.
type Config struct {
	// BaseURL defaults to DefaultBaseURL and must use HTTPS. Enterprise
	// roots include their /api/v3 suffix, as GITHUB_API_URL does.
	BaseURL    string
	Token      secret.Value
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is a token-authenticated go-github client bound to one API root.
type Client struct {
	api    *gh.Client
	logger *slog.Logger
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("github: API client requires HTTPS (got %q)", baseURL)
	}
	if cfg.Token.IsZero() {
		return nil, errors.New("github: no token configured")
	}
	root, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("github: base URL: %w", err)
	}
	api := gh.NewClient(cfg.HTTPClient).WithAuthToken(cfg.Token.Reveal())
	api.BaseURL = root

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{api: api, logger: logger}, nil
}
