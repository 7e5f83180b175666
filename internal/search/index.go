// Package search maintains the FTS5 index mirroring each node's derived
// title and searchable content. Sync with the node store is an explicit
// caller obligation: Index after every create/update, Remove on delete.
package search

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lattice-kb/lattice/internal/errors"
	"github.com/lattice-kb/lattice/internal/node"
)

// DefaultLimit caps how many hits a search returns.
const DefaultLimit = 25

// Snippet markers and context window, passed to FTS5 snippet().
const (
	snippetOpen    = "["
	snippetClose   = "]"
	snippetGap     = "…"
	snippetContext = 20 // tokens of context around the match
)

// Hit is one ranked search result. Score is normalized so that higher means
// more relevant; results come back best first.
type Hit struct {
	ID      string    `json:"id"`
	Kind    node.Kind `json:"kind"`
	Title   string    `json:"title"`
	Snippet string    `json:"snippet"`
	Score   float64   `json:"score"`
}

// Index holds the rank-capable text index.
type Index struct {
	db *sql.DB
}

// New creates an Index over the given database.
func New(db *sql.DB) *Index {
	return &Index{db: db}
}

// IndexNode upserts the node's search entry: any existing entry for the id is
// removed first, then the freshly derived title and content are inserted.
func (ix *Index) IndexNode(n *node.Node) error {
	tx, err := ix.db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM node_search WHERE id = ?`, n.ID); err != nil {
		return errors.NewInternal(err)
	}
	_, err = tx.Exec(`INSERT INTO node_search (id, title, content, kind) VALUES (?, ?, ?, ?)`,
		n.ID, n.DerivedTitle(), n.Detail.SearchText(), string(n.Kind))
	if err != nil {
		return errors.NewInternal(err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// RemoveNode deletes the node's search entry. Removing an id that was never
// indexed is not an error.
func (ix *Index) RemoveNode(id string) error {
	if _, err := ix.db.Exec(`DELETE FROM node_search WHERE id = ?`, id); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Search runs a ranked prefix match against titles (weighted 5x) and content
// (weighted 1x). An empty or whitespace-only query returns an empty result
// set without touching storage. Limit values <= 0 fall back to DefaultLimit.
func (ix *Index) Search(query string, limit int) ([]Hit, error) {
	match := buildMatch(query)
	if match == "" {
		return []Hit{}, nil
	}
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}

	// bm25 returns lower-is-better; weights per column are id, title,
	// content, kind. The id and kind columns are excluded from ranking.
	rows, err := ix.db.Query(fmt.Sprintf(`
		SELECT id, kind, title,
		       snippet(node_search, -1, '%s', '%s', '%s', %d),
		       bm25(node_search, 0.0, 5.0, 1.0, 0.0) AS rank
		FROM node_search
		WHERE node_search MATCH ?
		ORDER BY rank
		LIMIT ?`,
		snippetOpen, snippetClose, snippetGap, snippetContext),
		match, limit,
	)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	hits := make([]Hit, 0, limit)
	for rows.Next() {
		var h Hit
		var kind string
		var rank float64
		if err := rows.Scan(&h.ID, &kind, &h.Title, &h.Snippet, &rank); err != nil {
			return nil, errors.NewInternal(err)
		}
		h.Kind = node.Kind(kind)
		// Flip the engine convention so callers can rely on descending-is-better.
		h.Score = -rank
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return hits, nil
}

// buildMatch tokenizes the query on whitespace and turns each token into a
// quoted prefix term. Returns "" for an empty or whitespace-only query.
func buildMatch(query string) string {
	tokens := strings.Fields(query)
	if len(tokens) == 0 {
		return ""
	}
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		// Double embedded quotes so user input cannot break the match syntax.
		escaped := strings.ReplaceAll(tok, `"`, `""`)
		terms = append(terms, `"`+escaped+`"*`)
	}
	return strings.Join(terms, " ")
}
