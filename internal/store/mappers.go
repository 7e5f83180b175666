package store

import (
	"database/sql"
	"time"

	"github.com/lattice-kb/lattice/internal/node"
)

// rowQueryer is satisfied by both *sql.DB and *sql.Tx.
type rowQueryer interface {
	QueryRow(query string, args ...any) *sql.Row
}

// detailMapper binds one node kind to its detail table and the serializer,
// updater, and hydrator for that table. The mapper table built by
// buildMappers is the only polymorphism mechanism in the store: adding a
// variant means adding exactly one entry here, and New refuses to construct a
// store whose mapping does not cover every member of node.Kinds().
type detailMapper struct {
	table  string
	insert func(tx *sql.Tx, n *node.Node) error
	update func(tx *sql.Tx, n *node.Node) (int64, error)
	scan   func(q rowQueryer, id string) (node.Detail, error)
}

func buildMappers() map[node.Kind]detailMapper {
	return map[node.Kind]detailMapper{
		node.KindNote: {
			table:  "note_nodes",
			insert: insertNote,
			update: updateNote,
			scan:   scanNote,
		},
		node.KindLink: {
			table:  "link_nodes",
			insert: insertLink,
			update: updateLink,
			scan:   scanLink,
		},
		node.KindTag: {
			table:  "tag_nodes",
			insert: insertTag,
			update: updateTag,
			scan:   scanTag,
		},
		node.KindFlashcard: {
			table:  "flashcard_nodes",
			insert: insertFlashcard,
			update: updateFlashcard,
			scan:   scanFlashcard,
		},
	}
}

func insertNote(tx *sql.Tx, n *node.Node) error {
	d := n.Detail.(*node.Note)
	_, err := tx.Exec(`INSERT INTO note_nodes (node_id, content) VALUES (?, ?)`, n.ID, d.Content)
	return err
}

func updateNote(tx *sql.Tx, n *node.Node) (int64, error) {
	d := n.Detail.(*node.Note)
	result, err := tx.Exec(`UPDATE note_nodes SET content = ? WHERE node_id = ?`, d.Content, n.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanNote(q rowQueryer, id string) (node.Detail, error) {
	d := &node.Note{}
	err := q.QueryRow(`SELECT content FROM note_nodes WHERE node_id = ?`, id).Scan(&d.Content)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func insertLink(tx *sql.Tx, n *node.Node) error {
	d := n.Detail.(*node.Link)
	_, err := tx.Exec(`
		INSERT INTO link_nodes (node_id, url, crawled_title, crawled_text, crawled_html)
		VALUES (?, ?, ?, ?, ?)`,
		n.ID, d.URL, nullIfEmpty(d.Crawled.Title), nullIfEmpty(d.Crawled.Text), nullIfEmpty(d.Crawled.HTML),
	)
	return err
}

func updateLink(tx *sql.Tx, n *node.Node) (int64, error) {
	d := n.Detail.(*node.Link)
	result, err := tx.Exec(`
		UPDATE link_nodes
		SET url = ?, crawled_title = ?, crawled_text = ?, crawled_html = ?
		WHERE node_id = ?`,
		d.URL, nullIfEmpty(d.Crawled.Title), nullIfEmpty(d.Crawled.Text), nullIfEmpty(d.Crawled.HTML), n.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanLink(q rowQueryer, id string) (node.Detail, error) {
	d := &node.Link{}
	var crawledTitle, crawledText, crawledHTML sql.NullString
	err := q.QueryRow(`
		SELECT url, crawled_title, crawled_text, crawled_html
		FROM link_nodes WHERE node_id = ?`, id,
	).Scan(&d.URL, &crawledTitle, &crawledText, &crawledHTML)
	if err != nil {
		return nil, err
	}
	d.Crawled = node.CrawledPage{
		Title: crawledTitle.String,
		Text:  crawledText.String,
		HTML:  crawledHTML.String,
	}
	return d, nil
}

func insertTag(tx *sql.Tx, n *node.Node) error {
	d := n.Detail.(*node.Tag)
	_, err := tx.Exec(`INSERT INTO tag_nodes (node_id, name, description) VALUES (?, ?, ?)`,
		n.ID, d.Name, nullIfEmpty(d.Description))
	return err
}

func updateTag(tx *sql.Tx, n *node.Node) (int64, error) {
	d := n.Detail.(*node.Tag)
	result, err := tx.Exec(`UPDATE tag_nodes SET name = ?, description = ? WHERE node_id = ?`,
		d.Name, nullIfEmpty(d.Description), n.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanTag(q rowQueryer, id string) (node.Detail, error) {
	d := &node.Tag{}
	var description sql.NullString
	err := q.QueryRow(`SELECT name, description FROM tag_nodes WHERE node_id = ?`, id).
		Scan(&d.Name, &description)
	if err != nil {
		return nil, err
	}
	d.Description = description.String
	return d, nil
}

func insertFlashcard(tx *sql.Tx, n *node.Node) error {
	d := n.Detail.(*node.Flashcard)
	_, err := tx.Exec(`
		INSERT INTO flashcard_nodes
		  (node_id, front, back, due_at, interval_days, ease_factor, repetitions, last_reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, d.Front, d.Back,
		d.Schedule.DueAt.Unix(), d.Schedule.IntervalDays, d.Schedule.EaseFactor,
		d.Schedule.Repetitions, nullTime(d.Schedule.LastReviewedAt),
	)
	return err
}

func updateFlashcard(tx *sql.Tx, n *node.Node) (int64, error) {
	d := n.Detail.(*node.Flashcard)
	result, err := tx.Exec(`
		UPDATE flashcard_nodes
		SET front = ?, back = ?, due_at = ?, interval_days = ?, ease_factor = ?,
		    repetitions = ?, last_reviewed_at = ?
		WHERE node_id = ?`,
		d.Front, d.Back,
		d.Schedule.DueAt.Unix(), d.Schedule.IntervalDays, d.Schedule.EaseFactor,
		d.Schedule.Repetitions, nullTime(d.Schedule.LastReviewedAt),
		n.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanFlashcard(q rowQueryer, id string) (node.Detail, error) {
	d := &node.Flashcard{}
	var dueAt int64
	var lastReviewed sql.NullInt64
	err := q.QueryRow(`
		SELECT front, back, due_at, interval_days, ease_factor, repetitions, last_reviewed_at
		FROM flashcard_nodes WHERE node_id = ?`, id,
	).Scan(&d.Front, &d.Back, &dueAt, &d.Schedule.IntervalDays,
		&d.Schedule.EaseFactor, &d.Schedule.Repetitions, &lastReviewed)
	if err != nil {
		return nil, err
	}
	d.Schedule.DueAt = time.Unix(dueAt, 0)
	if lastReviewed.Valid {
		t := time.Unix(lastReviewed.Int64, 0)
		d.Schedule.LastReviewedAt = &t
	}
	return d, nil
}

// nullIfEmpty converts an empty string to NULL.
func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullTime converts an optional timestamp to a nullable unix value.
func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}
