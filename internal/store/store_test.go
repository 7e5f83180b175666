package store

import (
	"testing"
	"time"

	"github.com/lattice-kb/lattice/internal/db"
	"github.com/lattice-kb/lattice/internal/errors"
	"github.com/lattice-kb/lattice/internal/node"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	s, err := New(database)
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}
	return s
}

func mustNote(t *testing.T, title, content string) *node.Node {
	t.Helper()
	n, err := node.NewNote(title, content)
	if err != nil {
		t.Fatalf("NewNote failed: %v", err)
	}
	return n
}

func TestSaveAndFind_Note(t *testing.T) {
	s := testStore(t)

	n := mustNote(t, "Round Trip", "body text")
	n.IsPublic = true
	if err := s.Save(n); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.FindByID(n.ID, false)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}

	if got.Title != "Round Trip" {
		t.Errorf("Title = %q, want %q", got.Title, "Round Trip")
	}
	if got.Kind != node.KindNote {
		t.Errorf("Kind = %q, want note", got.Kind)
	}
	if got.Version != 1 {
		t.Errorf("Version = %d, want 1", got.Version)
	}
	if !got.IsPublic {
		t.Error("IsPublic = false, want true")
	}
	if !got.CreatedAt.Equal(n.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, n.CreatedAt)
	}
	if got.Detail.(*node.Note).Content != "body text" {
		t.Errorf("Content = %q, want %q", got.Detail.(*node.Note).Content, "body text")
	}
}

func TestSaveAndFind_Link(t *testing.T) {
	s := testStore(t)

	crawled := node.CrawledPage{Title: "Example", Text: "extracted text", HTML: "<p>hi</p>"}
	n, err := node.NewLink("", "https://example.com", crawled)
	if err != nil {
		t.Fatalf("NewLink failed: %v", err)
	}
	if err := s.Save(n); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.FindByID(n.ID, false)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}

	d := got.Detail.(*node.Link)
	if d.URL != "https://example.com" {
		t.Errorf("URL = %q, want %q", d.URL, "https://example.com")
	}
	if d.Crawled != crawled {
		t.Errorf("Crawled = %+v, want %+v", d.Crawled, crawled)
	}
	// No explicit title: derived title falls back to the crawled page title.
	if got.DerivedTitle() != "Example" {
		t.Errorf("DerivedTitle() = %q, want %q", got.DerivedTitle(), "Example")
	}
}

func TestSaveAndFind_Tag(t *testing.T) {
	s := testStore(t)

	n, err := node.NewTag("golang", "Go things")
	if err != nil {
		t.Fatalf("NewTag failed: %v", err)
	}
	if err := s.Save(n); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.FindByID(n.ID, false)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	d := got.Detail.(*node.Tag)
	if d.Name != "golang" || d.Description != "Go things" {
		t.Errorf("Tag = %+v, want golang/Go things", d)
	}
}

func TestSaveAndFind_Flashcard(t *testing.T) {
	s := testStore(t)

	n, err := node.NewFlashcard("front?", "back.")
	if err != nil {
		t.Fatalf("NewFlashcard failed: %v", err)
	}
	if err := s.Save(n); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.FindByID(n.ID, false)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}

	d := got.Detail.(*node.Flashcard)
	want := n.Detail.(*node.Flashcard).Schedule
	if !d.Schedule.DueAt.Equal(want.DueAt) {
		t.Errorf("DueAt = %v, want %v", d.Schedule.DueAt, want.DueAt)
	}
	if d.Schedule.EaseFactor != 2.5 {
		t.Errorf("EaseFactor = %v, want 2.5", d.Schedule.EaseFactor)
	}
	if d.Schedule.LastReviewedAt != nil {
		t.Error("LastReviewedAt should round-trip as nil")
	}
}

func TestSave_DuplicateID(t *testing.T) {
	s := testStore(t)

	n := mustNote(t, "dup", "content")
	if err := s.Save(n); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if err := s.Save(n); !errors.Is(err, errors.ErrConstraint) {
		t.Errorf("duplicate Save should return ErrConstraint, got: %v", err)
	}
}

func TestSave_DuplicateTagName(t *testing.T) {
	s := testStore(t)

	a, _ := node.NewTag("unique-name", "")
	b, _ := node.NewTag("unique-name", "")
	if err := s.Save(a); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if err := s.Save(b); !errors.Is(err, errors.ErrConstraint) {
		t.Errorf("duplicate tag name should return ErrConstraint, got: %v", err)
	}
}

func TestSave_RollbackLeavesNoHeader(t *testing.T) {
	s := testStore(t)

	a, _ := node.NewLink("", "https://example.com/page", node.CrawledPage{})
	b, _ := node.NewLink("", "https://example.com/page", node.CrawledPage{})
	if err := s.Save(a); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	// Second link has a fresh id so the header insert succeeds; the detail
	// insert hits UNIQUE(url) and the whole transaction must roll back.
	if err := s.Save(b); !errors.Is(err, errors.ErrConstraint) {
		t.Fatalf("duplicate URL should return ErrConstraint, got: %v", err)
	}
	if _, err := s.FindByID(b.ID, false); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("rolled-back node should not be findable, got: %v", err)
	}
}

func TestUpdate(t *testing.T) {
	s := testStore(t)

	n := mustNote(t, "before", "old content")
	if err := s.Save(n); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	updated := n.NextVersion(n.UpdatedAt.Add(time.Minute))
	updated.Title = "after"
	updated.Detail = &node.Note{Content: "new content"}
	if err := s.Update(&updated); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := s.FindByID(n.ID, false)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got.Title != "after" {
		t.Errorf("Title = %q, want %q", got.Title, "after")
	}
	if got.Version != 2 {
		t.Errorf("Version = %d, want 2", got.Version)
	}
	if got.Detail.(*node.Note).Content != "new content" {
		t.Errorf("Content = %q, want %q", got.Detail.(*node.Note).Content, "new content")
	}
	if !got.CreatedAt.Equal(n.CreatedAt) {
		t.Error("CreatedAt must not change on update")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	s := testStore(t)

	n := mustNote(t, "ghost", "never saved")
	if err := s.Update(n); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Update of unsaved node should return ErrNotFound, got: %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := testStore(t)

	n := mustNote(t, "doomed", "content")
	if err := s.Save(n); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Delete(n.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := s.FindByID(n.ID, false); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("FindByID after delete should return ErrNotFound, got: %v", err)
	}
	if err := s.Delete(n.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second Delete should return ErrNotFound, got: %v", err)
	}
}

func TestFindAll(t *testing.T) {
	s := testStore(t)

	note := mustNote(t, "a note", "content")
	tag, _ := node.NewTag("a-tag", "")
	for _, n := range []*node.Node{note, tag} {
		if err := s.Save(n); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	all, err := s.FindAll()
	if err != nil {
		t.Fatalf("FindAll failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d nodes, want 2", len(all))
	}
	for _, n := range all {
		if n.Detail == nil {
			t.Errorf("node %s not hydrated", n.ID)
		}
	}
}

func TestFindDueFlashcards(t *testing.T) {
	s := testStore(t)
	now := time.Now().Truncate(time.Second)

	saveCard := func(front string, due time.Time) *node.Node {
		t.Helper()
		n, err := node.NewFlashcard(front, "back")
		if err != nil {
			t.Fatalf("NewFlashcard failed: %v", err)
		}
		n.Detail.(*node.Flashcard).Schedule.DueAt = due
		if err := s.Save(n); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		return n
	}

	overdue := saveCard("overdue", now.Add(-48*time.Hour))
	boundary := saveCard("boundary", now)
	saveCard("future", now.Add(48*time.Hour))

	cards, err := s.FindDueFlashcards(now, 10)
	if err != nil {
		t.Fatalf("FindDueFlashcards failed: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("got %d due cards, want 2 (boundary is inclusive)", len(cards))
	}
	// Most overdue first.
	if cards[0].ID != overdue.ID {
		t.Errorf("cards[0] = %s, want the overdue card %s", cards[0].ID, overdue.ID)
	}
	if cards[1].ID != boundary.ID {
		t.Errorf("cards[1] = %s, want the boundary card %s", cards[1].ID, boundary.ID)
	}

	// Limit caps the result.
	cards, err = s.FindDueFlashcards(now, 1)
	if err != nil {
		t.Fatalf("FindDueFlashcards with limit failed: %v", err)
	}
	if len(cards) != 1 || cards[0].ID != overdue.ID {
		t.Errorf("limit 1 should return only the most overdue card")
	}
}

func TestFindByID_ExpandRelations(t *testing.T) {
	s := testStore(t)

	a := mustNote(t, "a", "content a")
	b := mustNote(t, "b", "content b")
	c := mustNote(t, "c", "content c")
	for _, n := range []*node.Node{a, b, c} {
		if err := s.Save(n); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	if _, err := s.Graph().Link(a.ID, b.ID, node.RelRelatedTo, true); err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	if _, err := s.Graph().Link(a.ID, c.ID, node.RelContains, false); err != nil {
		t.Fatalf("Link failed: %v", err)
	}

	got, err := s.FindByID(a.ID, true)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if len(got.Relations) != 2 {
		t.Fatalf("got %d relations, want 2", len(got.Relations))
	}

	relB := got.Relations[b.ID]
	if relB.Direction != node.DirectionBoth {
		t.Errorf("relation to b Direction = %q, want both", relB.Direction)
	}
	if relB.Type != node.RelRelatedTo {
		t.Errorf("relation to b Type = %q, want related_to", relB.Type)
	}
	if relB.Node == nil || relB.Node.Title != "b" {
		t.Error("relation to b should carry the hydrated neighbor")
	}

	relC := got.Relations[c.ID]
	if relC.Direction != node.DirectionFrom {
		t.Errorf("relation to c Direction = %q, want from (edge originates here)", relC.Direction)
	}

	// From c's side the same edge reads as incoming.
	gotC, err := s.FindByID(c.ID, true)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if gotC.Relations[a.ID].Direction != node.DirectionTo {
		t.Errorf("relation from c to a Direction = %q, want to", gotC.Relations[a.ID].Direction)
	}
}

func TestExpandRelations_SkipsDanglingEdges(t *testing.T) {
	s := testStore(t)

	a := mustNote(t, "a", "content")
	b := mustNote(t, "b", "content")
	for _, n := range []*node.Node{a, b} {
		if err := s.Save(n); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
	if _, err := s.Graph().Link(a.ID, b.ID, node.RelRelatedTo, true); err != nil {
		t.Fatalf("Link failed: %v", err)
	}

	// Delete b without edge cleanup: the edge dangles.
	if err := s.Delete(b.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, err := s.FindByID(a.ID, true)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if len(got.Relations) != 0 {
		t.Errorf("got %d relations, want 0 (dangling edge skipped)", len(got.Relations))
	}
}
