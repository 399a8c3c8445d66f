package grafana

import (
	"context"
	"slices"
	"strings"

	gmodels "github.com/grafana/grafana-openapi-client-go/models"
	"github.com/samber/oops"
	"github.com/sourcegraph/conc/iter"

	"github.com/senpro-it/wassup/models"
)

const openImage = "square.and.arrow.up"

// DashboardQuery lists Grafana dashboards as content items.
type DashboardQuery struct {
	query     string
	tags      []string
	limit     int64
	variables bool
	client    *Client
}

func Dashboards(query string) *DashboardQuery {
	return &DashboardQuery{query: query}
}

func (q *DashboardQuery) clone() *DashboardQuery {
	c := *q
	c.tags = slices.Clone(q.tags)
	return &c
}

func (q *DashboardQuery) Tags(tags ...string) *DashboardQuery {
	c := q.clone()
	c.tags = append(c.tags, tags...)
	return c
}

func (q *DashboardQuery) Limit(n int64) *DashboardQuery {
	c := q.clone()
	c.limit = n
	return c
}

// WithVariables lists each dashboard's template variables as extras. This
// costs one extra request per dashboard.
func (q *DashboardQuery) WithVariables() *DashboardQuery {
	c := q.clone()
	c.variables = true
	return c
}

func (q *DashboardQuery) WithClient(client *Client) *DashboardQuery {
	c := q.clone()
	c.client = client
	return c
}

func (q *DashboardQuery) Items(ctx context.Context) ([]models.ContentItem, error) {
	oopsBuilder := oops.In("grafana.Dashboards").With("query", q.query)

	client := q.client
	if client == nil {
		var err error
		if client, err = NewClientFromEnv(); err != nil {
			return nil, oopsBuilder.Wrap(err)
		}
	}

	hits, err := client.SearchDashboards(ctx, q.query, q.tags, q.limit)
	if err != nil {
		return nil, oopsBuilder.Wrap(err)
	}

	items, err := iter.MapErr(hits, func(hitPtr **gmodels.Hit) (models.ContentItem, error) {
		hit := *hitPtr
		item := client.contentItem(hit)
		if !q.variables {
			return item, nil
		}
		vars, err := client.GetVariablesInDashboard(ctx, hit.UID)
		if err != nil {
			return item, oops.With("dashboard", hit.Title).Wrap(err)
		}
		item.Extras = append(item.Extras, sortedAssignments(vars)...)
		return item, nil
	})
	if err != nil {
		return nil, oopsBuilder.Wrap(err)
	}
	return items, nil
}

func (c *Client) contentItem(hit *gmodels.Hit) models.ContentItem {
	folder := hit.FolderTitle
	if folder == "" {
		folder = "General"
	}
	image := openImage
	extras := []string{}
	if len(hit.Tags) > 0 {
		extras = append(extras, "Tags - "+strings.Join(hit.Tags, ", "))
	}
	return models.ContentItem{
		Title:    hit.Title,
		Subtitle: &folder,
		Extras:   extras,
		Actions:  []models.Action{{Image: &image, Value: models.URL(c.DashboardURL(hit))}},
		Origin:   hit,
	}
}
