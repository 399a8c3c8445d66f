package grafana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senpro-it/wassup/models"
	"github.com/senpro-it/wassup/sources"
)

func grafanaServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/search", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "dash-db", r.URL.Query().Get("type"))
		assert.Equal(t, "ops", r.URL.Query().Get("query"))
		writeJSON(w, []map[string]any{
			{"id": 1, "uid": "abc", "title": "Ops Overview", "url": "/d/abc/ops-overview", "type": "dash-db",
				"folderTitle": "Ops", "tags": []string{"prod", "sre"}},
			{"id": 2, "uid": "fld", "title": "Ops Folder", "url": "/dashboards/f/fld", "type": "dash-folder"},
			{"id": 3, "uid": "def", "title": "Ops Latency", "url": "/d/def/ops-latency", "type": "dash-db"},
		})
	})
	mux.HandleFunc("/api/dashboards/uid/abc", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"meta": map[string]any{"isFolder": false},
			"dashboard": map[string]any{
				"templating": map[string]any{"list": []any{
					map[string]any{"name": "region", "current": map[string]any{"text": "eu-west"}},
					map[string]any{"name": "env", "current": map[string]any{"text": []any{"prod", "stage"}}},
				}},
			},
		})
	})
	mux.HandleFunc("/api/dashboards/uid/def", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"meta": map[string]any{}, "dashboard": map[string]any{}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestDashboardsItems(t *testing.T) {
	srv := grafanaServer(t)
	t.Setenv(EnvURL, srv.URL)
	t.Setenv(EnvUsername, "admin")
	t.Setenv(EnvPassword, " secret ")

	items, err := Dashboards("ops").WithVariables().Items(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Ops Overview", items[0].Title)
	assert.Equal(t, "Ops", *items[0].Subtitle)
	assert.Equal(t, []string{"Tags - prod, sre", "env=prod,stage", "region=eu-west"}, items[0].Extras)
	assert.Equal(t, models.URL(srv.URL+"/d/abc/ops-overview"), items[0].Actions[0].Value)

	assert.Equal(t, "Ops Latency", items[1].Title)
	assert.Equal(t, "General", *items[1].Subtitle)
	assert.Empty(t, items[1].Extras)
}

func TestDashboardsMissingCredentials(t *testing.T) {
	t.Setenv(EnvURL, "http://localhost:3000")
	t.Setenv(EnvUsername, "")
	t.Setenv(EnvPassword, "")

	_, err := Dashboards("ops").Items(context.Background())
	assert.ErrorIs(t, err, sources.ErrMissingCredential)
}

func TestDashboardsUnauthorized(t *testing.T) {
	srv := grafanaServer(t)
	client, err := MakeClient(srv.URL, "admin", "wrong")
	require.NoError(t, err)

	_, err = Dashboards("ops").WithClient(client).Items(context.Background())
	assert.Error(t, err)
}

func TestMakeClientRejectsBadURL(t *testing.T) {
	_, err := MakeClient("not a url", "u", "p")
	assert.Error(t, err)
}

func TestMakeClientStripsAPISuffix(t *testing.T) {
	client, err := MakeClient("https://grafana.example.com/api/", "u", "p")
	require.NoError(t, err)
	assert.Equal(t, "", client.public.Path)
}

func TestTemplateVariablesToleratesOddShapes(t *testing.T) {
	assert.Empty(t, templateVariables(nil))
	assert.Empty(t, templateVariables("nope"))
	vars := templateVariables(map[string]any{"templating": map[string]any{"list": []any{
		"garbage",
		map[string]any{"name": ""},
		map[string]any{"name": "host"},
	}}})
	assert.Equal(t, map[string]string{"host": ""}, vars)
}

func TestVariablesFetchHonoursContext(t *testing.T) {
	srv := grafanaServer(t)
	client, err := MakeClient(srv.URL, "admin", "secret")
	require.NoError(t, err)

	vars, err := client.GetVariablesInDashboard(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "eu-west", vars["region"])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.GetVariablesInDashboard(ctx, "abc")
	assert.ErrorIs(t, err, context.Canceled)
}
