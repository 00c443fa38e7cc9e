// Package github lists published release tags of the Conduit projects.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v69/github"
	"golang.org/x/oauth2"

	"github.com/conduitplatform/conduit-cli/internal/core/release"
)

// ErrInvalidProject is returned for a project not in "owner/repo" form.
var ErrInvalidProject = errors.New("project must be owner/repo")

// ErrNoReleases is returned when a project has no published releases.
var ErrNoReleases = errors.New("project has no releases")

// perPage is the GitHub maximum page size.
const perPage = 100

// Client provides methods for reading a project's releases.
type Client struct {
	gh     *gh.Client
	logger *slog.Logger
}

// Config holds release index client configuration.
type Config struct {
	BaseURL string // API base URL; empty for api.github.com
	Token   string // Optional personal access token
	Timeout time.Duration
}

// NewClient creates a new release index client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: &oauth2.Transport{Source: ts},
		}
	}

	client := gh.NewClient(httpClient)
	if cfg.BaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse github base url: %w", err)
		}
		client.BaseURL = base
	}

	return &Client{gh: client, logger: logger}, nil
}

// ListTags returns the tag names of every release of project ("owner/repo"),
// ordered stable releases first (newest first), then prereleases, then
// "latest".
func (c *Client) ListTags(ctx context.Context, project string) ([]string, error) {
	owner, repo, ok := strings.Cut(project, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProject, project)
	}

	var tags []string
	opts := &gh.ListOptions{PerPage: perPage}
	for {
		releases, resp, err := c.gh.Repositories.ListReleases(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list releases of %s: %w", project, err)
		}
		for _, r := range releases {
			if r.GetDraft() || r.GetTagName() == "" {
				continue
			}
			tags = append(tags, r.GetTagName())
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if len(tags) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoReleases, project)
	}

	c.logger.Debug("fetched releases", "project", project, "count", len(tags))
	return release.SortTags(tags), nil
}
