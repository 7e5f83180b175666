package ops

import (
	"fmt"
	"time"

	"github.com/lattice-kb/lattice/internal/errors"
	"github.com/lattice-kb/lattice/internal/node"
)

// UpdateNodeInput contains parameters for the UpdateNode operation. Only set
// fields are applied; payload fields must match the node's kind.
type UpdateNodeInput struct {
	ID string `json:"id"`

	Title    *string `json:"title,omitempty"`
	IsPublic *bool   `json:"is_public,omitempty"`

	// Note
	Content *string `json:"content,omitempty"`

	// Link
	URL     *string           `json:"url,omitempty"`
	Crawled *node.CrawledPage `json:"crawled,omitempty"`

	// Tag
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`

	// Flashcard
	Front *string `json:"front,omitempty"`
	Back  *string `json:"back,omitempty"`
}

// UpdateNode applies a patch as an immutable copy with the version bumped,
// persists it, and re-indexes. Fields belonging to a different kind than the
// node's fail with Validation.
func UpdateNode(env *Env, input UpdateNodeInput) (*node.Node, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	current, err := env.Store.FindByID(input.ID, false)
	if err != nil {
		return nil, err
	}

	detail, err := patchDetail(current, input)
	if err != nil {
		return nil, err
	}

	updated := current.NextVersion(time.Now().Truncate(time.Second))
	updated.Detail = detail
	if input.Title != nil {
		updated.Title = *input.Title
	}
	if input.IsPublic != nil {
		updated.IsPublic = *input.IsPublic
	}

	if err := env.Store.Update(&updated); err != nil {
		return nil, err
	}
	if err := env.Index.IndexNode(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// patchDetail builds the node's new payload from the patch, rejecting fields
// that belong to another variant.
func patchDetail(current *node.Node, input UpdateNodeInput) (node.Detail, error) {
	wrongKind := func(field string) error {
		return errors.NewValidation(fmt.Sprintf("field %s does not apply to a %s node", field, current.Kind))
	}

	if current.Kind != node.KindNote && input.Content != nil {
		return nil, wrongKind("content")
	}
	if current.Kind != node.KindLink && (input.URL != nil || input.Crawled != nil) {
		return nil, wrongKind("url/crawled")
	}
	if current.Kind != node.KindTag && (input.Name != nil || input.Description != nil) {
		return nil, wrongKind("name/description")
	}
	if current.Kind != node.KindFlashcard && (input.Front != nil || input.Back != nil) {
		return nil, wrongKind("front/back")
	}

	switch d := current.Detail.(type) {
	case *node.Note:
		patched := *d
		if input.Content != nil {
			patched.Content = *input.Content
		}
		return &patched, nil
	case *node.Link:
		patched := *d
		if input.URL != nil {
			if *input.URL == "" {
				return nil, errors.NewValidation("link url must not be empty")
			}
			patched.URL = *input.URL
		}
		if input.Crawled != nil {
			patched.Crawled = *input.Crawled
		}
		return &patched, nil
	case *node.Tag:
		patched := *d
		if input.Name != nil {
			if *input.Name == "" {
				return nil, errors.NewValidation("tag name must not be empty")
			}
			patched.Name = *input.Name
		}
		if input.Description != nil {
			patched.Description = *input.Description
		}
		return &patched, nil
	case *node.Flashcard:
		patched := *d
		if input.Front != nil {
			if *input.Front == "" {
				return nil, errors.NewValidation("flashcard front must not be empty")
			}
			patched.Front = *input.Front
		}
		if input.Back != nil {
			if *input.Back == "" {
				return nil, errors.NewValidation("flashcard back must not be empty")
			}
			patched.Back = *input.Back
		}
		return &patched, nil
	default:
		return nil, errors.NewUnknownVariant(string(current.Kind))
	}
}
