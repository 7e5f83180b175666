package ops

import (
	"github.com/lattice-kb/lattice/internal/errors"
	"github.com/lattice-kb/lattice/internal/graph"
	"github.com/lattice-kb/lattice/internal/node"
)

// LinkNodesInput contains parameters for the LinkNodes operation. Type and
// Bidirectional may be omitted together to get the default policy.
type LinkNodesInput struct {
	FromID        string        `json:"from_id"`
	ToID          string        `json:"to_id"`
	Type          *node.RelType `json:"type,omitempty"`
	Bidirectional *bool         `json:"is_bidirectional,omitempty"`
}

// LinkNodes creates one edge. The default policy: a flashcard linking to the
// note or link it came from gets derived_from, directed; everything else gets
// related_to, bidirectional. An explicit type or direction always wins.
func LinkNodes(env *Env, input LinkNodesInput) (*graph.Edge, error) {
	if input.FromID == "" || input.ToID == "" {
		return nil, errors.NewInvalidRequest("from_id and to_id are required")
	}

	relType, bidirectional, err := resolveLinkPolicy(env, input)
	if err != nil {
		return nil, err
	}
	return env.Graph.Link(input.FromID, input.ToID, relType, bidirectional)
}

func resolveLinkPolicy(env *Env, input LinkNodesInput) (node.RelType, bool, error) {
	if input.Type != nil && input.Bidirectional != nil {
		return *input.Type, *input.Bidirectional, nil
	}

	// Defaults depend on the endpoint kinds.
	relType := node.RelRelatedTo
	bidirectional := true

	from, err := env.Store.FindByID(input.FromID, false)
	if err != nil {
		return "", false, err
	}
	to, err := env.Store.FindByID(input.ToID, false)
	if err != nil {
		return "", false, err
	}
	if from.Kind == node.KindFlashcard && (to.Kind == node.KindNote || to.Kind == node.KindLink) {
		relType = node.RelDerivedFrom
		bidirectional = false
	}

	if input.Type != nil {
		relType = *input.Type
	}
	if input.Bidirectional != nil {
		bidirectional = *input.Bidirectional
	}
	return relType, bidirectional, nil
}
