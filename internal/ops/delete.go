package ops

import (
	"github.com/lattice-kb/lattice/internal/errors"
)

// DeleteNodeInput contains parameters for the DeleteNode operation.
type DeleteNodeInput struct {
	ID string `json:"id"`
}

// DeleteNodeOutput contains the result of the DeleteNode operation.
type DeleteNodeOutput struct {
	ID           string `json:"id"`
	EdgesRemoved int64  `json:"edges_removed"`
}

// DeleteNode removes the node's rows and its search entry, then cleans up
// edges touching it. Edge cleanup is best effort: a failure there does not
// undo the deletion, it is surfaced to the caller with the node already gone.
func DeleteNode(env *Env, input DeleteNodeInput) (*DeleteNodeOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	if err := env.Store.Delete(input.ID); err != nil {
		return nil, err
	}
	if err := env.Index.RemoveNode(input.ID); err != nil {
		return nil, err
	}

	removed, err := env.Graph.RemoveTouching(input.ID)
	if err != nil {
		return nil, err
	}

	return &DeleteNodeOutput{ID: input.ID, EdgesRemoved: removed}, nil
}
