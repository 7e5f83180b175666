// Package graph manages the directed, typed edges between node ids. Edges are
// immutable once created; there is no update or delete operation at this
// layer, and cleaning up edges left behind by node deletion is the
// orchestration layer's job.
package graph

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lattice-kb/lattice/internal/errors"
	"github.com/lattice-kb/lattice/internal/node"
)

// Edge is one directed relation row. Storage is always directed; callers
// interpret the edge as undirected when Bidirectional is set.
type Edge struct {
	ID            string       `json:"id"`
	FromID        string       `json:"from_id"`
	ToID          string       `json:"to_id"`
	Type          node.RelType `json:"type"`
	Bidirectional bool         `json:"is_bidirectional"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Graph provides edge creation and one-hop neighborhood queries.
type Graph struct {
	db *sql.DB
}

// New creates a Graph over the given database.
func New(db *sql.DB) *Graph {
	return &Graph{db: db}
}

// Link inserts one directed edge row. The caller supplies type and direction;
// default linking policy lives in the orchestration layer. Fails with
// InvalidRelation for a self-reference or a type outside the closed
// enumeration, and with NotFound when either endpoint does not exist.
func (g *Graph) Link(fromID, toID string, relType node.RelType, bidirectional bool) (*Edge, error) {
	if fromID == toID {
		return nil, errors.NewInvalidRelation(fmt.Sprintf("node %s cannot link to itself", fromID))
	}
	if !node.ValidRelType(relType) {
		return nil, errors.NewInvalidRelation(fmt.Sprintf("unsupported relation type: %s", relType))
	}

	for _, endpoint := range []string{fromID, toID} {
		exists, err := g.nodeExists(endpoint)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, errors.NewNotFound(endpoint)
		}
	}

	id, err := node.NewID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	now := time.Now().Truncate(time.Second)

	_, err = g.db.Exec(`
		INSERT INTO edges (id, from_id, to_id, type, is_bidirectional, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, fromID, toID, string(relType), bidirectional, now.Unix(),
	)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return &Edge{
		ID:            id,
		FromID:        fromID,
		ToID:          toID,
		Type:          relType,
		Bidirectional: bidirectional,
		CreatedAt:     now,
	}, nil
}

// NeighborsOf returns all edges touching the given node id, one hop only.
func (g *Graph) NeighborsOf(id string) ([]Edge, error) {
	rows, err := g.db.Query(`
		SELECT id, from_id, to_id, type, is_bidirectional, created_at
		FROM edges
		WHERE from_id = ? OR to_id = ?
		ORDER BY created_at, id`,
		id, id,
	)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var e Edge
		var relType string
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.FromID, &e.ToID, &relType, &e.Bidirectional, &createdAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		e.Type = node.RelType(relType)
		e.CreatedAt = time.Unix(createdAt, 0)
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return edges, nil
}

// RemoveTouching deletes every edge with the given id as either endpoint and
// returns the number removed. Used by the orchestration layer for best-effort
// cleanup after a node deletion.
func (g *Graph) RemoveTouching(id string) (int64, error) {
	result, err := g.db.Exec(`DELETE FROM edges WHERE from_id = ? OR to_id = ?`, id, id)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

func (g *Graph) nodeExists(id string) (bool, error) {
	var one int
	err := g.db.QueryRow(`SELECT 1 FROM nodes WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}
