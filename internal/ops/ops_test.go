package ops

import (
	"context"
	"fmt"
	"testing"

	"github.com/lattice-kb/lattice/internal/config"
	"github.com/lattice-kb/lattice/internal/db"
	"github.com/lattice-kb/lattice/internal/node"
)

func testEnv(t *testing.T) *Env {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	env, err := NewEnv(database, config.DefaultConfig())
	if err != nil {
		t.Fatalf("NewEnv failed: %v", err)
	}
	return env
}

func mustCreateNote(t *testing.T, env *Env, title, content string) *node.Node {
	t.Helper()
	n, err := CreateNote(env, CreateNoteInput{Title: title, Content: content})
	if err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}
	return n
}

func mustCreateCard(t *testing.T, env *Env, front, back string) *node.Node {
	t.Helper()
	n, err := CreateCard(env, CreateCardInput{Front: front, Back: back})
	if err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}
	return n
}

// fakeCrawler returns a fixed page, or an error when broken.
type fakeCrawler struct {
	page   node.CrawledPage
	broken bool
}

func (c *fakeCrawler) Crawl(_ context.Context, url string) (node.CrawledPage, error) {
	if c.broken {
		return node.CrawledPage{}, fmt.Errorf("crawl %s: connection refused", url)
	}
	return c.page, nil
}

// fakeGenerator returns fixed drafts, or an error when broken.
type fakeGenerator struct {
	drafts []CardDraft
	broken bool
	gotIn  string
}

func (g *fakeGenerator) Generate(_ context.Context, text string) ([]CardDraft, error) {
	g.gotIn = text
	if g.broken {
		return nil, fmt.Errorf("generator unavailable")
	}
	return g.drafts, nil
}

// fakeGrader returns a fixed score, or an error when broken.
type fakeGrader struct {
	score  float64
	broken bool
}

func (g *fakeGrader) Grade(_ context.Context, _, _, _ string) (GradeResult, error) {
	if g.broken {
		return GradeResult{}, fmt.Errorf("grader unavailable")
	}
	return GradeResult{Score: g.score, Comment: "graded"}, nil
}
