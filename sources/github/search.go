package github

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-openapi/strfmt"
	"github.com/samber/oops"

	"github.com/senpro-it/wassup/models"
)

const searchIssuesQuery = `query($q: String!) {
  search(query: $q, type: ISSUE, first: 100) {
    nodes {
      ... on PullRequest {
        id
        author { login }
        title
        number
        url
        updatedAt
        createdAt
        repository { name owner { login } }
        authorAssociation
        latestReviews(first: 100) { nodes { state author { login } } }
        commits(last: 1) { nodes { commit { status { state } } } }
      }
      ... on Issue {
        id
        author { login }
        title
        number
        url
        updatedAt
        createdAt
        repository { name owner { login } }
        authorAssociation
      }
    }
  }
}`

type Login struct {
	Login string `json:"login"`
}

type RepositoryRef struct {
	Name  string `json:"name"`
	Owner Login  `json:"owner"`
}

type Review struct {
	State  string `json:"state"`
	Author *Login `json:"author"`
}

type CommitStatus struct {
	State string `json:"state"`
}

// Issue is one issue or pull request search hit. Commits and LatestReviews
// are only present on pull requests.
type Issue struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	Number            int             `json:"number"`
	URL               string          `json:"url"`
	Author            *Login          `json:"author"`
	CreatedAt         strfmt.DateTime `json:"createdAt"`
	UpdatedAt         strfmt.DateTime `json:"updatedAt"`
	AuthorAssociation string          `json:"authorAssociation"`
	Repository        RepositoryRef   `json:"repository"`
	Commits           *struct {
		Nodes []struct {
			Commit struct {
				Status *CommitStatus `json:"status"`
			} `json:"commit"`
		} `json:"nodes"`
	} `json:"commits,omitempty"`
	LatestReviews *struct {
		Nodes []Review `json:"nodes"`
	} `json:"latestReviews,omitempty"`
}

type issueSearch struct {
	Search struct {
		Nodes []Issue `json:"nodes"`
	} `json:"search"`
}

// SearchQuery is an issue and pull request search. Nothing is fetched until
// Items is called.
type SearchQuery struct {
	q          string
	qualifiers []Qualifier
	showExtras bool
	actions    []Action[Issue]
	client     *Client
	now        func() time.Time
}

// Search builds a query from free text plus qualifiers. By default each
// result gets one action opening its URL.
func Search(q string, qualifiers ...Qualifier) *SearchQuery {
	return &SearchQuery{
		q:          q,
		qualifiers: qualifiers,
		actions: []Action[Issue]{
			newAction("", DefaultImage, func(i Issue) models.ActionValue { return models.URL(i.URL) }),
		},
		now: time.Now,
	}
}

func (s *SearchQuery) clone() *SearchQuery {
	c := *s
	c.qualifiers = slices.Clone(s.qualifiers)
	c.actions = slices.Clone(s.actions)
	return &c
}

// ShowExtras adds CI status and review tallies to each item.
func (s *SearchQuery) ShowExtras() *SearchQuery {
	c := s.clone()
	c.showExtras = true
	return c
}

// Action appends an action. Empty label or image means none.
func (s *SearchQuery) Action(label, image string, value func(Issue) models.ActionValue) *SearchQuery {
	c := s.clone()
	c.actions = append(c.actions, newAction(label, image, value))
	return c
}

func (s *SearchQuery) ClearActions() *SearchQuery {
	c := s.clone()
	c.actions = nil
	return c
}

func (s *SearchQuery) WithClient(client *Client) *SearchQuery {
	c := s.clone()
	c.client = client
	return c
}

func (s *SearchQuery) WithClock(now func() time.Time) *SearchQuery {
	c := s.clone()
	c.now = now
	return c
}

// Query is the search string sent upstream.
func (s *SearchQuery) Query() string {
	now := s.now()
	parts := []string{s.q}
	for _, q := range s.qualifiers {
		parts = append(parts, q.Clause(now))
	}
	return strings.Join(parts, " ")
}

func (s *SearchQuery) Items(ctx context.Context) ([]models.ContentItem, error) {
	query := s.Query()
	oopsBuilder := oops.In("github.Search").With("query", query)

	client := s.client
	if client == nil {
		var err error
		if client, err = NewClientFromEnv(); err != nil {
			return nil, oopsBuilder.Wrap(err)
		}
	}

	var res issueSearch
	if err := client.Query(ctx, searchIssuesQuery, map[string]any{"q": query}, &res); err != nil {
		return nil, oopsBuilder.Wrap(err)
	}

	now := s.now()
	items := make([]models.ContentItem, 0, len(res.Search.Nodes))
	for _, node := range res.Search.Nodes {
		item := node.ContentItem(now)
		if !s.showExtras {
			item.Extras = []string{}
		}
		item.Actions = mapActions(s.actions, node)
		items = append(items, item)
	}
	logger.Debug("Search done.", "query", query, "results", len(items))
	return items, nil
}

// ContentItem maps the hit without actions.
func (i Issue) ContentItem(now time.Time) models.ContentItem {
	author := "UNKNOWN"
	if i.Author != nil && i.Author.Login != "" {
		author = i.Author.Login
	}
	subtitle := fmt.Sprintf("%s by %s on %s/%s",
		humanize.RelTime(time.Time(i.CreatedAt), now, "ago", "from now"),
		author,
		i.Repository.Owner.Login,
		i.Repository.Name,
	)
	return models.ContentItem{
		Title:    fmt.Sprintf("#%d - %s", i.Number, i.Title),
		Subtitle: &subtitle,
		Extras:   i.Extras(),
		Origin:   i,
	}
}

// Extras lists the last commit's status and the review states, counted and
// sorted by state.
func (i Issue) Extras() []string {
	extras := []string{}
	if i.Commits != nil && len(i.Commits.Nodes) > 0 {
		if status := i.Commits.Nodes[0].Commit.Status; status != nil {
			extras = append(extras, "Tests - "+status.State)
		}
	}

	if i.LatestReviews != nil {
		tally := map[string]int{}
		for _, r := range i.LatestReviews.Nodes {
			tally[r.State]++
		}
		states := make([]string, 0, len(tally))
		for state := range tally {
			states = append(states, state)
		}
		sort.Strings(states)
		counts := make([]string, len(states))
		for n, state := range states {
			counts[n] = fmt.Sprintf("%d %s", tally[state], state)
		}
		if len(counts) > 0 {
			extras = append(extras, strings.Join(counts, ", "))
		}
	}
	return extras
}
