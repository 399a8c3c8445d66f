// Package sources holds what content source adapters share: credential
// lookup and a function adapter.
package sources

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/samber/oops"

	"github.com/senpro-it/wassup/models"
)

var ErrMissingCredential = errors.New("missing credential")

// Credential reads name from the process environment, trimmed of surrounding
// whitespace. Unset and blank values are both missing.
func Credential(name string) (string, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return "", oops.
			In("Credential").
			With("variable", name).
			Hint("add " + name + "=... to the secrets").
			Wrap(ErrMissingCredential)
	}
	return value, nil
}

// Credentials looks up several variables, failing on the first missing one.
func Credentials(names ...string) ([]string, error) {
	values := make([]string, 0, len(names))
	for _, name := range names {
		v, err := Credential(name)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// Func turns a plain function into a content source.
type Func func(ctx context.Context) ([]models.ContentItem, error)

func (f Func) Items(ctx context.Context) ([]models.ContentItem, error) {
	return f(ctx)
}
