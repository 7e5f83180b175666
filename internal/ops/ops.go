// Package ops contains the orchestration operations callers go through. It
// owns the obligations the core leaves to its caller: re-indexing after every
// create and update, index removal and best-effort edge cleanup on delete,
// the default linking policy, and the grader score to review quality mapping.
package ops

import (
	"context"
	"database/sql"

	"github.com/lattice-kb/lattice/internal/config"
	"github.com/lattice-kb/lattice/internal/graph"
	"github.com/lattice-kb/lattice/internal/node"
	"github.com/lattice-kb/lattice/internal/search"
	"github.com/lattice-kb/lattice/internal/store"
)

// List limits
const (
	DefaultDueLimit = 20
	MaxDueLimit     = 100
)

// Env bundles the core components an operation needs, plus the optional
// external collaborators. Collaborator fields may be nil; operations that
// need one fail with InvalidRequest when it is absent.
type Env struct {
	Store *store.Store
	Index *search.Index
	Graph *graph.Graph
	Cfg   *config.Config

	Crawler   Crawler
	Generator CardGenerator
	Grader    CardGrader
}

// NewEnv wires the core components over one database.
func NewEnv(db *sql.DB, cfg *config.Config) (*Env, error) {
	st, err := store.New(db)
	if err != nil {
		return nil, err
	}
	return &Env{
		Store: st,
		Index: search.New(db),
		Graph: st.Graph(),
		Cfg:   cfg,
	}, nil
}

// Crawler fetches and extracts content from a URL. Implementations live
// outside this module.
type Crawler interface {
	Crawl(ctx context.Context, url string) (node.CrawledPage, error)
}

// CardDraft is one front/back pair produced by a card generator.
type CardDraft struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// CardGenerator turns arbitrary text into flashcard drafts.
type CardGenerator interface {
	Generate(ctx context.Context, text string) ([]CardDraft, error)
}

// GradeResult is a grader's verdict on an answer: score 0, 0.5, or 1 plus a
// free-form comment.
type GradeResult struct {
	Score   float64 `json:"score"`
	Comment string  `json:"comment"`
}

// CardGrader judges an answer against a card's front and back.
type CardGrader interface {
	Grade(ctx context.Context, front, back, answer string) (GradeResult, error)
}
