package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senpro-it/wassup/models"
)

func TestCredentialTrimsWhitespace(t *testing.T) {
	t.Setenv("WASSUP_TEST_TOKEN", "  ghp_secret\n")

	v, err := Credential("WASSUP_TEST_TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "ghp_secret", v)
}

func TestCredentialMissing(t *testing.T) {
	t.Setenv("WASSUP_TEST_BLANK", "   ")

	_, err := Credential("WASSUP_TEST_BLANK")
	assert.ErrorIs(t, err, ErrMissingCredential)

	_, err = Credential("WASSUP_TEST_DEFINITELY_UNSET")
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestCredentialsStopsAtFirstMissing(t *testing.T) {
	t.Setenv("WASSUP_TEST_USER", "octocat")

	_, err := Credentials("WASSUP_TEST_USER", "WASSUP_TEST_DEFINITELY_UNSET")
	assert.ErrorIs(t, err, ErrMissingCredential)

	t.Setenv("WASSUP_TEST_KEY", "key")
	values, err := Credentials("WASSUP_TEST_USER", "WASSUP_TEST_KEY")
	require.NoError(t, err)
	assert.Equal(t, []string{"octocat", "key"}, values)
}

func TestFunc(t *testing.T) {
	src := Func(func(ctx context.Context) ([]models.ContentItem, error) {
		return []models.ContentItem{{Title: "static"}}, nil
	})
	items, err := src.Items(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "static", items[0].Title)
}
