// Package grafana is a content source listing Grafana dashboards.
package grafana

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-openapi/strfmt"
	goapi "github.com/grafana/grafana-openapi-client-go/client"
	"github.com/grafana/grafana-openapi-client-go/client/dashboards"
	"github.com/grafana/grafana-openapi-client-go/client/search"
	"github.com/grafana/grafana-openapi-client-go/models"
	"github.com/samber/oops"

	"github.com/senpro-it/wassup/sources"
	"github.com/senpro-it/wassup/tools"
)

const (
	EnvURL      = "GRAFANA_URL"
	EnvUsername = "GRAFANA_USERNAME"
	EnvPassword = "GRAFANA_PASSWORD"

	hitTypeDashboard = "dash-db"
	hitTypeFolder    = "dash-folder"
)

var logger = log.Default()

type Client struct {
	client *goapi.GrafanaHTTPAPI
	public url.URL
}

// MakeClient connects to a Grafana instance with basic auth. baseUrl is the
// public Grafana address; the API path is derived from it.
func MakeClient(baseUrl string, username string, password string) (*Client, error) {
	gurl, err := url.Parse(strings.TrimSpace(baseUrl))
	if err != nil || gurl.Host == "" {
		builder := oops.
			In("grafana.MakeClient").
			User(username).
			With("baseUrl", baseUrl)
		if err != nil {
			return nil, builder.Wrap(err)
		}
		return nil, builder.Errorf("Grafana URL has no host")
	}
	public := *gurl
	public.Path = strings.TrimSuffix(strings.TrimSuffix(gurl.Path, "/"), "/api")

	scheme := gurl.Scheme
	if scheme == "" {
		scheme = "https"
	}
	cfg := &goapi.TransportConfig{
		Host:      gurl.Host,
		BasePath:  public.Path + "/api",
		Schemes:   []string{scheme},
		BasicAuth: url.UserPassword(username, password),
	}
	return &Client{
		client: goapi.NewHTTPClientWithConfig(strfmt.Default, cfg),
		public: public,
	}, nil
}

// NewClientFromEnv reads GRAFANA_URL, GRAFANA_USERNAME and GRAFANA_PASSWORD.
func NewClientFromEnv() (*Client, error) {
	creds, err := sources.Credentials(EnvURL, EnvUsername, EnvPassword)
	if err != nil {
		return nil, oops.In("grafana.NewClientFromEnv").Wrap(err)
	}
	return MakeClient(creds[0], creds[1], creds[2])
}

// SearchDashboards returns matching dashboards in the order Grafana ranks
// them. Folders are dropped.
func (c *Client) SearchDashboards(ctx context.Context, query string, tags []string, limit int64) ([]*models.Hit, error) {
	oopsBuilder := oops.In("SearchDashboards").With("query", query).With("tags", tags)

	params := search.NewSearchParamsWithContext(ctx)
	params.Type = tools.PtrOf(hitTypeDashboard)
	if query != "" {
		params.Query = &query
	}
	if len(tags) > 0 {
		params.Tag = tags
	}
	if limit > 0 {
		params.Limit = &limit
	}

	res, err := c.client.Search.Search(params)
	if err != nil {
		return nil, oopsBuilder.
			Hint("client.Search != nil").
			Wrap(err)
	}
	if !res.IsSuccess() {
		return nil, oopsBuilder.
			Hint("client.Search.IsSuccess()").
			With("res", res).
			Errorf("search request was not successful")
	}

	var hits []*models.Hit
	for _, hit := range res.GetPayload() {
		if hit == nil || string(hit.Type) == hitTypeFolder {
			continue
		}
		hits = append(hits, hit)
	}
	logger.Debug("Dashboards found.", "query", query, "hits", len(hits))
	return hits, nil
}

// GetVariablesInDashboard reads the current value of every template variable.
func (c *Client) GetVariablesInDashboard(ctx context.Context, dashUid string) (map[string]string, error) {
	oopsBuilder := oops.In("GetVariablesInDashboard").With("uid", dashUid)
	params := dashboards.NewGetDashboardByUIDParamsWithContext(ctx).WithUID(dashUid)
	dashReq, err := c.client.Dashboards.GetDashboardByUIDWithParams(params)
	if err != nil {
		if dashReq != nil {
			oopsBuilder = oopsBuilder.With("dashReq", dashReq)
		}
		return nil, oopsBuilder.Wrap(err)
	}
	if !dashReq.IsSuccess() {
		return nil, oopsBuilder.
			With("dashReq", dashReq).
			Errorf("dashboard request was not successful")
	}
	return templateVariables(dashReq.GetPayload().Dashboard), nil
}

// templateVariables walks templating.list of a dashboard model. Multi-value
// selections are joined with commas.
func templateVariables(dash any) map[string]string {
	vars := make(map[string]string)
	root, _ := dash.(map[string]any)
	templating, _ := root["templating"].(map[string]any)
	list, _ := templating["list"].([]any)
	for _, entry := range list {
		v, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		name, _ := v["name"].(string)
		if name == "" {
			continue
		}
		var value string
		if current, ok := v["current"].(map[string]any); ok {
			switch text := current["text"].(type) {
			case string:
				value = text
			case []any:
				parts := make([]string, 0, len(text))
				for _, t := range text {
					if s, ok := t.(string); ok {
						parts = append(parts, s)
					}
				}
				value = strings.Join(parts, ",")
			}
		}
		vars[name] = value
	}
	return vars
}

// DashboardURL turns a hit's relative URL into an absolute one. Grafana
// already includes any sub path in hit.URL.
func (c *Client) DashboardURL(hit *models.Hit) string {
	u := url.URL{Scheme: c.public.Scheme, Host: c.public.Host}
	return u.String() + hit.URL
}

func sortedAssignments(vars map[string]string) []string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = name + "=" + vars[name]
	}
	return out
}
