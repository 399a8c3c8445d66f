// Package github is a content source backed by the GitHub GraphQL search API.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/samber/oops"

	"github.com/senpro-it/wassup/sources"
)

const (
	DefaultEndpoint = "https://api.github.com/graphql"

	EnvUsername = "GITHUB_USERNAME"
	EnvAPIKey   = "GITHUB_API_KEY"
	EnvEndpoint = "GITHUB_GRAPHQL_URL"
)

var (
	logger = log.Default()

	ErrStatus  = errors.New("unexpected HTTP status")
	ErrGraphQL = errors.New("GraphQL query returned errors")
)

// Client posts GraphQL queries with basic auth.
type Client struct {
	endpoint string
	username string
	token    string
	client   *http.Client
}

func NewClient(endpoint, username, token string) *Client {
	return &Client{
		endpoint: endpoint,
		username: username,
		token:    token,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientFromEnv reads GITHUB_USERNAME and GITHUB_API_KEY. Both are
// required; GITHUB_GRAPHQL_URL optionally points at another endpoint.
func NewClientFromEnv() (*Client, error) {
	creds, err := sources.Credentials(EnvUsername, EnvAPIKey)
	if err != nil {
		return nil, oops.In("github.NewClientFromEnv").Wrap(err)
	}
	endpoint := strings.TrimSpace(os.Getenv(EnvEndpoint))
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return NewClient(endpoint, creds[0], creds[1]), nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Query runs one GraphQL request and decodes its data field into into.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any, into any) error {
	oopsBuilder := oops.In("github.Client.Query").With("endpoint", c.endpoint)

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return oopsBuilder.Wrap(err)
	}
	res, err := c.doRequest(ctx, body)
	if err != nil {
		return oopsBuilder.Wrap(err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return oopsBuilder.Hint("reading response body").Wrap(err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return oopsBuilder.
			With("statusCode", res.StatusCode).
			With("body", truncate(string(raw), 512)).
			Wrap(ErrStatus)
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return oopsBuilder.Hint("response is not JSON").Wrap(err)
	}
	if len(envelope.Errors) > 0 {
		messages := make([]string, len(envelope.Errors))
		for i, e := range envelope.Errors {
			messages[i] = e.Message
		}
		return oopsBuilder.With("messages", messages).Wrap(ErrGraphQL)
	}
	if err := json.Unmarshal(envelope.Data, into); err != nil {
		return oopsBuilder.Hint("unexpected data shape").Wrap(err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		logger.Error("Could not create request", "err", err)
		return nil, err
	}
	req.SetBasicAuth(c.username, c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	logger.Debug("Creating request", "method", req.Method, "url", c.endpoint)
	res, err := c.client.Do(req)
	if err != nil {
		logger.Error("Could not do request", "err", err)
		return nil, err
	}
	logger.Debug("Response", "statusCode", res.StatusCode)
	return res, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
