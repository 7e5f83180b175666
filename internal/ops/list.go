package ops

import (
	"fmt"

	"github.com/lattice-kb/lattice/internal/errors"
	"github.com/lattice-kb/lattice/internal/node"
)

// ListNodesInput contains parameters for the ListNodes operation.
type ListNodesInput struct {
	// Kind filters to one variant when set.
	Kind *node.Kind `json:"kind,omitempty"`

	// PublicOnly keeps only nodes marked public.
	PublicOnly bool `json:"public_only,omitempty"`
}

// ListNodesOutput contains the result of the ListNodes operation.
type ListNodesOutput struct {
	Items []*node.Node `json:"items"`
	Total int          `json:"total"`
}

// ListNodes returns every node, hydrated, without relation expansion.
// Expansion at this scale is the caller's explicit per-node choice.
func ListNodes(env *Env, input ListNodesInput) (*ListNodesOutput, error) {
	if input.Kind != nil {
		valid := false
		for _, k := range node.Kinds() {
			if *input.Kind == k {
				valid = true
				break
			}
		}
		if !valid {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown kind: %s", *input.Kind))
		}
	}

	all, err := env.Store.FindAll()
	if err != nil {
		return nil, err
	}

	items := make([]*node.Node, 0, len(all))
	for _, n := range all {
		if input.Kind != nil && n.Kind != *input.Kind {
			continue
		}
		if input.PublicOnly && !n.IsPublic {
			continue
		}
		items = append(items, n)
	}

	return &ListNodesOutput{Items: items, Total: len(items)}, nil
}
