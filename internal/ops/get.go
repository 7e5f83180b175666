package ops

import (
	"github.com/lattice-kb/lattice/internal/errors"
	"github.com/lattice-kb/lattice/internal/node"
)

// GetNodeInput contains parameters for the GetNode operation.
type GetNodeInput struct {
	ID string `json:"id"`

	// ExpandRelations loads the one-hop neighborhood. Off by default.
	ExpandRelations bool `json:"expand_relations,omitempty"`
}

// GetNode retrieves a hydrated node by id.
func GetNode(env *Env, input GetNodeInput) (*node.Node, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	return env.Store.FindByID(input.ID, input.ExpandRelations)
}
