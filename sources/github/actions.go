package github

import "github.com/senpro-it/wassup/models"

// DefaultImage is the presentation hint of the default "open" action.
const DefaultImage = "square.and.arrow.up"

// Action maps one search result of type N to an action. Label and Image are
// optional.
type Action[N any] struct {
	Label *string
	Image *string
	Value func(node N) models.ActionValue
}

func newAction[N any](label, image string, value func(N) models.ActionValue) Action[N] {
	a := Action[N]{Value: value}
	if label != "" {
		a.Label = &label
	}
	if image != "" {
		a.Image = &image
	}
	return a
}

func mapActions[N any](actions []Action[N], node N) []models.Action {
	out := make([]models.Action, 0, len(actions))
	for _, a := range actions {
		if a.Value == nil {
			continue
		}
		out = append(out, models.Action{Name: a.Label, Image: a.Image, Value: a.Value(node)})
	}
	return out
}
