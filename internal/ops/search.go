package ops

import (
	"github.com/lattice-kb/lattice/internal/errors"
	"github.com/lattice-kb/lattice/internal/node"
	"github.com/lattice-kb/lattice/internal/search"
)

// SearchNodesInput contains parameters for the SearchNodes operation.
type SearchNodesInput struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// SearchHit pairs a ranked index hit with the resolved node.
type SearchHit struct {
	search.Hit
	Node *node.Node `json:"node"`
}

// SearchNodesOutput contains the result of the SearchNodes operation.
type SearchNodesOutput struct {
	Items []SearchHit `json:"items"`
	Total int         `json:"total"`
}

// SearchNodes runs a ranked search and resolves each hit back to its full
// entity. Hits whose node has vanished (stale index entry) are dropped. An
// empty query yields an empty result, not an error.
func SearchNodes(env *Env, input SearchNodesInput) (*SearchNodesOutput, error) {
	limit := input.Limit
	if limit <= 0 || limit > env.Cfg.SearchLimit {
		limit = env.Cfg.SearchLimit
	}

	hits, err := env.Index.Search(input.Query, limit)
	if err != nil {
		return nil, err
	}

	items := make([]SearchHit, 0, len(hits))
	for _, h := range hits {
		n, err := env.Store.FindByID(h.ID, false)
		if errors.Is(err, errors.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, SearchHit{Hit: h, Node: n})
	}

	return &SearchNodesOutput{Items: items, Total: len(items)}, nil
}
