package github

import (
	"context"
	"slices"

	"github.com/samber/oops"

	"github.com/senpro-it/wassup/models"
)

const searchReposQuery = `query($q: String!) {
  search(query: $q, type: REPOSITORY, first: 100) {
    nodes {
      ... on Repository {
        id
        name
        url
        owner { login }
        releases(first: 1, orderBy: {field: CREATED_AT, direction: DESC}) {
          nodes { name tagName url }
        }
      }
    }
  }
}`

type Release struct {
	Name    string `json:"name"`
	TagName string `json:"tagName"`
	URL     string `json:"url"`
}

type Repository struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Owner    Login  `json:"owner"`
	Releases struct {
		Nodes []Release `json:"nodes"`
	} `json:"releases"`
}

type repoSearch struct {
	Search struct {
		Nodes []Repository `json:"nodes"`
	} `json:"search"`
}

// RepoQuery is a repository search.
type RepoQuery struct {
	q       string
	actions []Action[Repository]
	client  *Client
}

func Repos(q string) *RepoQuery {
	return &RepoQuery{
		q: q,
		actions: []Action[Repository]{
			newAction("", DefaultImage, func(r Repository) models.ActionValue { return models.URL(r.URL) }),
		},
	}
}

func (r *RepoQuery) clone() *RepoQuery {
	c := *r
	c.actions = slices.Clone(r.actions)
	return &c
}

func (r *RepoQuery) Action(label, image string, value func(Repository) models.ActionValue) *RepoQuery {
	c := r.clone()
	c.actions = append(c.actions, newAction(label, image, value))
	return c
}

func (r *RepoQuery) ClearActions() *RepoQuery {
	c := r.clone()
	c.actions = nil
	return c
}

func (r *RepoQuery) WithClient(client *Client) *RepoQuery {
	c := r.clone()
	c.client = client
	return c
}

func (r *RepoQuery) Items(ctx context.Context) ([]models.ContentItem, error) {
	oopsBuilder := oops.In("github.Repos").With("query", r.q)

	client := r.client
	if client == nil {
		var err error
		if client, err = NewClientFromEnv(); err != nil {
			return nil, oopsBuilder.Wrap(err)
		}
	}

	var res repoSearch
	if err := client.Query(ctx, searchReposQuery, map[string]any{"q": r.q}, &res); err != nil {
		return nil, oopsBuilder.Wrap(err)
	}

	items := make([]models.ContentItem, 0, len(res.Search.Nodes))
	for _, node := range res.Search.Nodes {
		item := node.ContentItem()
		item.Actions = mapActions(r.actions, node)
		items = append(items, item)
	}
	return items, nil
}

func (r Repository) ContentItem() models.ContentItem {
	owner := r.Owner.Login
	extras := []string{}
	if len(r.Releases.Nodes) > 0 {
		rel := r.Releases.Nodes[0]
		label := rel.TagName
		if rel.Name != "" && rel.Name != rel.TagName {
			label += " (" + rel.Name + ")"
		}
		extras = append(extras, "Latest release "+label)
	}
	return models.ContentItem{
		Title:    r.Name,
		Subtitle: &owner,
		Extras:   extras,
		Origin:   r,
	}
}
