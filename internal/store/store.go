// Package store persists nodes across a shared header table and per-kind
// detail tables. Header and detail writes always share one transaction.
package store

import (
	"database/sql"
	"strings"
	"time"

	"github.com/lattice-kb/lattice/internal/errors"
	"github.com/lattice-kb/lattice/internal/graph"
	"github.com/lattice-kb/lattice/internal/node"
)

// Store is the transactional node store.
type Store struct {
	db      *sql.DB
	graph   *graph.Graph
	mappers map[node.Kind]detailMapper
}

// New creates a Store and verifies that the detail mapping covers every node
// kind. A kind without a mapper fails construction with UnknownVariant
// instead of surfacing later as a silent runtime fallback.
func New(db *sql.DB) (*Store, error) {
	s := &Store{
		db:      db,
		graph:   graph.New(db),
		mappers: buildMappers(),
	}
	for _, k := range node.Kinds() {
		if _, ok := s.mappers[k]; !ok {
			return nil, errors.NewUnknownVariant(string(k))
		}
	}
	return s, nil
}

// Graph exposes the relation graph bound to the same database.
func (s *Store) Graph() *graph.Graph {
	return s.graph
}

func (s *Store) mapper(kind node.Kind) (detailMapper, error) {
	m, ok := s.mappers[kind]
	if !ok {
		return detailMapper{}, errors.NewUnknownVariant(string(kind))
	}
	return m, nil
}

// Save inserts the header row and the kind-specific detail row in one
// transaction. A failure in either write rolls back both. Duplicate ids and
// kind-specific uniqueness rules (link URL, tag name) surface as Constraint.
func (s *Store) Save(n *node.Node) error {
	m, err := s.mapper(n.Kind)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO nodes (id, kind, title, version, is_public, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, string(n.Kind), nullIfEmpty(n.Title), n.Version, n.IsPublic,
		n.CreatedAt.Unix(), n.UpdatedAt.Unix(),
	)
	if err != nil {
		return wrapWriteError(err)
	}

	if err := m.insert(tx, n); err != nil {
		return wrapWriteError(err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Update rewrites the mutable header fields and the detail row in one
// transaction. The node must already exist. Immutable fields (id, kind,
// created_at) are not touched.
func (s *Store) Update(n *node.Node) error {
	m, err := s.mapper(n.Kind)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE nodes
		SET title = ?, version = ?, is_public = ?, updated_at = ?
		WHERE id = ?`,
		nullIfEmpty(n.Title), n.Version, n.IsPublic, n.UpdatedAt.Unix(), n.ID,
	)
	if err != nil {
		return wrapWriteError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if affected == 0 {
		return errors.NewNotFound(n.ID)
	}

	affected, err = m.update(tx, n)
	if err != nil {
		return wrapWriteError(err)
	}
	if affected == 0 {
		return errors.NewNotFound(n.ID)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Delete removes the header and detail rows in one transaction. Edges
// referencing the node are left behind; the search entry and edge cleanup
// are explicit caller obligations.
func (s *Store) Delete(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	var kind string
	err = tx.QueryRow(`SELECT kind FROM nodes WHERE id = ?`, id).Scan(&kind)
	if err == sql.ErrNoRows {
		return errors.NewNotFound(id)
	}
	if err != nil {
		return errors.NewInternal(err)
	}

	m, err := s.mapper(node.Kind(kind))
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM `+m.table+` WHERE node_id = ?`, id); err != nil {
		return errors.NewInternal(err)
	}
	if _, err := tx.Exec(`DELETE FROM nodes WHERE id = ?`, id); err != nil {
		return errors.NewInternal(err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// FindByID returns the hydrated node. When expandRelations is set, all edges
// touching the node are loaded and resolved into a relation map keyed by
// neighbor id; edges whose far endpoint no longer exists are skipped.
func (s *Store) FindByID(id string, expandRelations bool) (*node.Node, error) {
	n, err := s.findOne(id)
	if err != nil {
		return nil, err
	}
	if expandRelations {
		if err := s.expandRelations(n); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// FindAll returns every node, hydrated, without relation expansion.
func (s *Store) FindAll() ([]*node.Node, error) {
	rows, err := s.db.Query(`SELECT id FROM nodes ORDER BY created_at, id`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.NewInternal(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	nodes := make([]*node.Node, 0, len(ids))
	for _, id := range ids {
		n, err := s.findOne(id)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// FindDueFlashcards returns flashcards with due_at <= asOf (the boundary is
// inclusive), most overdue first, capped at limit.
func (s *Store) FindDueFlashcards(asOf time.Time, limit int) ([]*node.Node, error) {
	rows, err := s.db.Query(`
		SELECT node_id FROM flashcard_nodes
		WHERE due_at <= ?
		ORDER BY due_at, node_id
		LIMIT ?`,
		asOf.Unix(), limit,
	)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.NewInternal(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	cards := make([]*node.Node, 0, len(ids))
	for _, id := range ids {
		n, err := s.findOne(id)
		if err != nil {
			return nil, err
		}
		cards = append(cards, n)
	}
	return cards, nil
}

// findOne hydrates a single node from its header and detail rows.
func (s *Store) findOne(id string) (*node.Node, error) {
	var (
		n         node.Node
		kind      string
		title     sql.NullString
		createdAt int64
		updatedAt int64
	)
	err := s.db.QueryRow(`
		SELECT id, kind, title, version, is_public, created_at, updated_at
		FROM nodes WHERE id = ?`, id,
	).Scan(&n.ID, &kind, &title, &n.Version, &n.IsPublic, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	n.Kind = node.Kind(kind)
	n.Title = title.String
	n.CreatedAt = time.Unix(createdAt, 0)
	n.UpdatedAt = time.Unix(updatedAt, 0)

	m, err := s.mapper(n.Kind)
	if err != nil {
		return nil, err
	}
	detail, err := m.scan(s.db, id)
	if err == sql.ErrNoRows {
		// Header without detail means a broken write that should have rolled back.
		return nil, errors.NewInternal(err)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	n.Detail = detail

	return &n, nil
}

// expandRelations attaches the one-hop neighborhood to n.
func (s *Store) expandRelations(n *node.Node) error {
	edges, err := s.graph.NeighborsOf(n.ID)
	if err != nil {
		return err
	}

	relations := make(map[string]node.Relation, len(edges))
	for _, e := range edges {
		neighborID := e.ToID
		direction := node.DirectionFrom
		if e.FromID != n.ID {
			neighborID = e.FromID
			direction = node.DirectionTo
		}
		if e.Bidirectional {
			direction = node.DirectionBoth
		}

		neighbor, err := s.findOne(neighborID)
		if errors.Is(err, errors.ErrNotFound) {
			// Dangling edge from an earlier deletion; skip it.
			continue
		}
		if err != nil {
			return err
		}

		relations[neighborID] = node.Relation{
			Node:      neighbor,
			Type:      e.Type,
			Direction: direction,
		}
	}

	n.Relations = relations
	return nil
}

// wrapWriteError maps SQLite constraint violations to Constraint and
// everything else to Internal.
func wrapWriteError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "FOREIGN KEY constraint failed") ||
		strings.Contains(msg, "CHECK constraint failed") {
		return errors.NewConstraint(msg)
	}
	return errors.NewInternal(err)
}
