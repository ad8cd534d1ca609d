// Package github provides authenticated GitHub API clients.
package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	gogithub "github.com/google/go-github/v68/github"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
)

const publicAPIURL = "https://api.github.com"

// Client is a GitHub API client that can also hand out a token for git
// operations over HTTPS.
type Client struct {
	*gogithub.Client

	token func(ctx context.Context) (string, error)
}

// GitToken returns a token usable as the password of an x-access-token
// basic auth.
func (c *Client) GitToken(ctx context.Context) (string, error) {
	return c.token(ctx)
}

// NewAppClient creates a client authenticated as a GitHub App installation.
// The ghinstallation transport renews the installation token as needed.
func NewAppClient(appID, installationID int64, privateKeyPEM, apiURL string) (*Client, error) {
	transport, err := ghinstallation.New(otelhttp.NewTransport(http.DefaultTransport), appID, installationID, []byte(privateKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("creating github installation transport: %w", err)
	}
	if !isPublic(apiURL) {
		transport.BaseURL = strings.TrimSuffix(apiURL, "/")
	}

	api, err := withBaseURL(gogithub.NewClient(&http.Client{Transport: transport}), apiURL)
	if err != nil {
		return nil, err
	}
	return &Client{Client: api, token: transport.Token}, nil
}

// NewTokenClient creates a client authenticated with a static token, such
// as the workflow GITHUB_TOKEN.
func NewTokenClient(ctx context.Context, token, apiURL string) (*Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Transport = otelhttp.NewTransport(httpClient.Transport)

	api, err := withBaseURL(gogithub.NewClient(httpClient), apiURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		Client: api,
		token:  func(context.Context) (string, error) { return token, nil },
	}, nil
}

func withBaseURL(client *gogithub.Client, apiURL string) (*gogithub.Client, error) {
	if isPublic(apiURL) {
		return client, nil
	}
	enterprise, err := client.WithEnterpriseURLs(apiURL, apiURL)
	if err != nil {
		return nil, fmt.Errorf("setting github api url %q: %w", apiURL, err)
	}
	return enterprise, nil
}

func isPublic(apiURL string) bool {
	return apiURL == "" || strings.TrimSuffix(apiURL, "/") == publicAPIURL
}
